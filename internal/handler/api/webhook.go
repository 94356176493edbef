package api

import (
	"crypto/subtle"
	"strings"
	"time"

	"PerpSignals/internal/domain/models"
	"PerpSignals/internal/usecase"
	xhttp "PerpSignals/pkg/http"
	xlogger "PerpSignals/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ConfirmRequest is the inbound indicator webhook payload.
type ConfirmRequest struct {
	Secret    string  `json:"secret" validate:"required"`
	Symbol    string  `json:"symbol" validate:"required"`
	Signal    string  `json:"signal" validate:"required,oneof=BUY SELL buy sell"`
	Price     float64 `json:"price" validate:"omitempty,gt=0"`
	Interval  string  `json:"interval" default:"15m"`
	Indicator string  `json:"indicator"`
}

// WebhookHandler accepts external indicator confirmations.
type WebhookHandler struct {
	logger *xlogger.Logger
	state  *usecase.State
	secret string
	ttl    time.Duration
}

// NewWebhookHandler creates the webhook handler.
func NewWebhookHandler(logger *xlogger.Logger, state *usecase.State, secret string, ttl time.Duration) *WebhookHandler {
	return &WebhookHandler{logger: logger, state: state, secret: secret, ttl: ttl}
}

// Confirm stores a time-boxed confirmation for one symbol. A bad secret is
// rejected before any state is touched.
func (h *WebhookHandler) Confirm(c echo.Context) error {
	req := &ConfirmRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if subtle.ConstantTimeCompare([]byte(req.Secret), []byte(h.secret)) != 1 {
		h.logger.Warn("webhook: bad secret", xlogger.String("symbol", req.Symbol))
		return xhttp.UnauthorizedResponse(c, "invalid secret")
	}

	rec := &models.ConfirmRecord{
		Symbol:    strings.ToUpper(req.Symbol),
		Signal:    strings.ToUpper(req.Signal),
		Price:     req.Price,
		Interval:  req.Interval,
		Indicator: req.Indicator,
		StoredAt:  time.Now().UTC(),
	}
	if err := h.state.SaveConfirmation(c.Request().Context(), rec, h.ttl); err != nil {
		h.logger.Error("webhook: store failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	h.logger.Info("webhook: confirmation stored",
		xlogger.String("symbol", rec.Symbol),
		xlogger.String("signal", rec.Signal),
		xlogger.String("indicator", rec.Indicator))
	return xhttp.SuccessResponse(c, map[string]string{"symbol": rec.Symbol, "signal": rec.Signal})
}
