package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	domrepo "GoldGate/internal/domain/repository"
	internalrepo "GoldGate/internal/repository"
	"GoldGate/internal/usecase"
	pkgch "GoldGate/pkg/clickhouse"
	"GoldGate/pkg/config"
	xhttp "GoldGate/pkg/http"
	pkgkafka "GoldGate/pkg/kafka"
	applogger "GoldGate/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	collector  *usecase.TickCollector
	runner     *usecase.DecisionRunner
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
	chClient   *pkgch.Client
	chStore    *internalrepo.CHCandleStore
	memStore   *internalrepo.MemoryCandleStore
	router     *usecase.AuditRouter
	handler    xhttp.Handler
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	collector *usecase.TickCollector,
	runner *usecase.DecisionRunner,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	chStore *internalrepo.CHCandleStore,
	memStore *internalrepo.MemoryCandleStore,
	router *usecase.AuditRouter,
	handler xhttp.Handler,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		collector: collector,
		runner:    runner,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
		chStore:   chStore,
		memStore:  memStore,
		router:    router,
		handler:   handler,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.warmup(ctx)

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	go func() {
		if err := a.collector.Start(ctx); err != nil {
			a.log.Error("collector error", applogger.Error(err))
		}
	}()
	a.log.Info("collector started", applogger.Strings("symbols", a.cfg.Finnhub.Symbols))

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.log.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.log.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	go a.runner.Run(ctx)
	a.log.Info("decision loop started",
		applogger.String("symbol", a.cfg.Symbol),
		applogger.Strings("timeframes", a.cfg.Decision.Timeframes),
		applogger.Duration("interval", a.cfg.Decision.Interval),
	)

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	cancel()
	return a.shutdown(context.Background())
}

// warmup seeds the in-process candle store from ClickHouse history so the
// first cycle has enough bars without waiting for live aggregation.
func (a *App) warmup(ctx context.Context) {
	if a.chStore == nil || a.memStore == nil {
		return
	}
	for _, tf := range domrepo.Hierarchy {
		candles, err := a.chStore.GetLatestNCandles(ctx, a.cfg.Symbol, a.cfg.Decision.Lookback, tf)
		if err != nil {
			a.log.Warn("history warmup failed", applogger.String("tf", string(tf)), applogger.Error(err))
			continue
		}
		a.memStore.Seed(a.cfg.Symbol, tf, candles)
		a.log.Info("history warmed", applogger.String("tf", string(tf)), applogger.Int("bars", len(candles)))
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	if err := a.collector.Shutdown(ctx); err != nil {
		a.log.Warn("collector stop error", applogger.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.router != nil {
		a.router.Close()
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
