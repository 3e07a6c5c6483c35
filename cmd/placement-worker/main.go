package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/betslip-sync/internal/history"
	"github.com/radieske/betslip-sync/internal/shared/config"
	"github.com/radieske/betslip-sync/internal/shared/db"
	"github.com/radieske/betslip-sync/internal/shared/kafka"
	"github.com/radieske/betslip-sync/internal/shared/logger"
	"github.com/radieske/betslip-sync/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	repo := history.NewPostgres(pg)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatal("history schema", zap.Error(err))
	}

	// Consumer group do histórico no tópico betslip_placed
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.KafkaGroupID, cfg.TopicBetslipPlaced)
	defer reader.Close()

	// Métricas Prometheus do consumo
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "placement_worker_messages_consumed_total", Help: "mensagens consumidas"})
	persisted := prometheus.NewCounter(prometheus.CounterOpts{Name: "placement_worker_db_writes_total", Help: "colocações gravadas no histórico"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "placement_worker_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, persisted, errorsBy)

	consumer := &history.Consumer{
		Log:        log,
		Reader:     reader,
		Store:      repo,
		OnConsumed: consumed.Inc,
		OnPersist:  persisted.Inc,
		OnError:    func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, log, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})

	log.Info("placement-worker started",
		zap.String("topic", cfg.TopicBetslipPlaced),
		zap.String("group", cfg.KafkaGroupID),
	)
	if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error("consumer stopped with error", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("placement-worker stopped")
}
