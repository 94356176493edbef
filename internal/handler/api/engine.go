package api

import (
	"time"

	"PerpSignals/internal/usecase"
	xhttp "PerpSignals/pkg/http"
	xlogger "PerpSignals/pkg/logger"

	"github.com/labstack/echo/v4"
)

// EngineHandler serves the engine's read-only status surface plus the
// optimizer reset.
type EngineHandler struct {
	logger  *xlogger.Logger
	status  *usecase.StatusUseCase
	webhook *WebhookHandler
}

// NewEngineHandler creates the API handler.
func NewEngineHandler(logger *xlogger.Logger, status *usecase.StatusUseCase, webhook *WebhookHandler) *EngineHandler {
	return &EngineHandler{logger: logger, status: status, webhook: webhook}
}

// RegisterRoutes mounts all routes.
func (h *EngineHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/status", h.Status)
	g.GET("/portfolio/:tier", h.Portfolio)
	g.GET("/optimizer", h.Optimizer)
	g.POST("/optimizer/reset", h.OptimizerReset)

	e.POST("/webhook/confirm", h.webhook.Confirm)
}

// Status returns the health snapshot.
func (h *EngineHandler) Status(c echo.Context) error {
	res, err := h.status.GetStatus(c.Request().Context())
	if err != nil {
		h.logger.Error("status usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Portfolio returns one tier's portfolio. The trade list can be filtered
// with ?since= (RFC3339 or unix seconds) and truncated with ?limit=.
func (h *EngineHandler) Portfolio(c echo.Context) error {
	p, err := h.status.GetPortfolio(c.Request().Context(), c.Param("tier"))
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("unknown tier %q", c.Param("tier")).WithError(err))
	}

	if since := xhttp.ParseTimeDefault(c.QueryParam("since"), time.Time{}); !since.IsZero() {
		kept := p.Trades[:0]
		for _, t := range p.Trades {
			if t.OpenedAt.After(since) {
				kept = append(kept, t)
			}
		}
		p.Trades = kept
	}
	limit := xhttp.ParseIntDefault(c.QueryParam("limit"), 0)
	if limit > 0 && len(p.Trades) > limit {
		p.Trades = p.Trades[len(p.Trades)-limit:]
	}
	return xhttp.SuccessResponse(c, p)
}

// Optimizer returns the live parameter document.
func (h *EngineHandler) Optimizer(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.status.GetOptimizerConfig(c.Request().Context()))
}

// OptimizerReset drops the parameter document back to defaults.
func (h *EngineHandler) OptimizerReset(c echo.Context) error {
	if err := h.status.ResetOptimizerConfig(c.Request().Context()); err != nil {
		h.logger.Error("optimizer reset error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	h.logger.Info("optimizer config reset to defaults")
	return xhttp.NoContentResponse(c)
}
