package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/betslip-sync/internal/shared/config"
	"github.com/radieske/betslip-sync/internal/shared/logger"
	"github.com/radieske/betslip-sync/internal/shared/metrics"
	"github.com/radieske/betslip-sync/internal/simulator"
)

// Intervalo entre rodadas de variação de odds
const tickInterval = 3 * time.Second

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	catalog, err := simulator.LoadCatalog(cfg.FeedCatalogPath)
	if err != nil {
		log.Fatal("failed to load catalog", zap.String("path", cfg.FeedCatalogPath), zap.Error(err))
	}
	log.Info("catalog loaded", zap.Int("matches", len(catalog.Matches)), zap.String("path", cfg.FeedCatalogPath))

	simulator.RegisterMetrics()

	board := simulator.NewBoard(catalog, time.Now(), time.Now().UnixNano())
	feedServer := simulator.NewFeedServer(board, tickInterval, log)
	plat := simulator.NewPlatform(board, catalog, log)

	// Gera variações de odds e empurra para os assinantes
	go feedServer.Run(ctx)

	// ==== Servidor de métricas (/healthz, /metrics)
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, log, nil)

	// ==== Servidor público: /ws, /platform/*, /wallet, /admin/*
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           simulator.Router(feedServer, plat),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("feed simulator (public) running",
			zap.String("addr", srv.Addr),
			zap.String("paths", "/ws,/platform/*,/wallet,/admin/outcomes/{id}/withdraw"),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down feed simulator")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
}
