package server

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	drepo "PerpSignals/internal/domain/repository"
	"PerpSignals/internal/service/market"
	"PerpSignals/internal/usecase"
	"PerpSignals/pkg/cache"
	"PerpSignals/pkg/config"
	xhttp "PerpSignals/pkg/http"
	applogger "PerpSignals/pkg/logger"
)

// App owns the engine lifecycle: the scan / monitor / optimize loops, the
// optional websocket warmer and the HTTP server. Each loop is an independent
// ticker; a wedged cycle never blocks the others.
type App struct {
	cfg      *config.Config
	log      *applogger.Logger
	scan     *usecase.ScanUseCase
	monitor  *usecase.MonitorUseCase
	optimize *usecase.OptimizeUseCase
	stream   drepo.MarketStream
	warm     *market.PriceCache
	locks    cache.Service
	journal  drepo.TradeJournal
	events   drepo.EventPublisher

	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	scan *usecase.ScanUseCase,
	monitor *usecase.MonitorUseCase,
	optimize *usecase.OptimizeUseCase,
	stream drepo.MarketStream,
	warm *market.PriceCache,
	locks cache.Service,
	journal drepo.TradeJournal,
	events drepo.EventPublisher,
	handler xhttp.Handler,
) *App {
	return &App{
		cfg:         cfg,
		log:         log,
		scan:        scan,
		monitor:     monitor,
		optimize:    optimize,
		stream:      stream,
		warm:        warm,
		locks:       locks,
		journal:     journal,
		events:      events,
		httpHandler: handler,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.journal.Init(ctx); err != nil {
		a.log.Warn("journal init failed, continuing without it", applogger.Error(err))
	}

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithLogger(a.log),
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	var wg sync.WaitGroup
	a.startLoop(ctx, &wg, "monitor", a.cfg.Engine.MonitorInterval, a.monitor.Run)
	a.startLoop(ctx, &wg, "scan", a.cfg.Engine.ScanInterval, a.scan.Run)
	a.startLoop(ctx, &wg, "optimize", a.cfg.Optimizer.Interval, a.optimize.Run)

	if a.cfg.Market.StreamEnabled && a.stream != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.runStream(ctx)
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	a.log.Info("shutdown signal received")

	cancel()
	wg.Wait()
	return a.shutdown()
}

// startLoop runs one cycle immediately, then on every tick.
func (a *App) startLoop(ctx context.Context, wg *sync.WaitGroup, name string, interval time.Duration, run func(context.Context)) {
	if interval <= 0 {
		a.log.Warn("loop disabled", applogger.String("loop", name))
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.log.Info("loop started",
			applogger.String("loop", name),
			applogger.Duration("interval", interval))

		a.runGuarded(ctx, name, run)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.runGuarded(ctx, name, run)
			}
		}
	}()
}

// runGuarded skips a cycle when the previous run of the same loop is still
// going.
func (a *App) runGuarded(ctx context.Context, name string, run func(context.Context)) {
	key := "lock:" + name
	ok, err := a.locks.TryLock(ctx, key, time.Hour)
	if err != nil || !ok {
		a.log.Warn("cycle overlap, skipping", applogger.String("loop", name))
		return
	}
	defer func() {
		_ = a.locks.Unlock(ctx, key)
	}()
	run(ctx)
}

// runStream keeps the websocket ticker alive, reconnecting with a fixed
// delay. Stream ticks are informational; REST polling remains the source of
// truth for the monitor.
func (a *App) runStream(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := a.stream.Connect(ctx); err != nil {
			a.log.Warn("stream connect failed", applogger.Error(err))
			sleepCtx(ctx, a.cfg.Market.ReconnectDelay)
			continue
		}
		if err := a.stream.Subscribe(ctx); err != nil {
			a.log.Warn("stream subscribe failed", applogger.Error(err))
			_ = a.stream.Close()
			sleepCtx(ctx, a.cfg.Market.ReconnectDelay)
			continue
		}

		ticks, errs := a.stream.Read(ctx)
	drain:
		for {
			select {
			case <-ctx.Done():
				_ = a.stream.Close()
				return
			case tick, ok := <-ticks:
				if !ok {
					break drain
				}
				a.warm.Put(ctx, tick)
			case err, ok := <-errs:
				if ok && err != nil {
					a.log.Warn("stream read error", applogger.Error(err))
				}
				break drain
			}
		}
		_ = a.stream.Close()
		sleepCtx(ctx, a.cfg.Market.ReconnectDelay)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		d = 5 * time.Second
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}
	if err := a.events.Close(); err != nil {
		a.log.Warn("event publisher close error", applogger.Error(err))
	}
	if err := a.journal.Close(); err != nil {
		a.log.Warn("journal close error", applogger.Error(err))
	}

	a.log.Info("shutdown complete")
	return nil
}
