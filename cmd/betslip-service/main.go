package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/betslip-sync/internal/api"
	"github.com/radieske/betslip-sync/internal/betslip"
	"github.com/radieske/betslip-sync/internal/broadcast"
	"github.com/radieske/betslip-sync/internal/feed"
	"github.com/radieske/betslip-sync/internal/history"
	"github.com/radieske/betslip-sync/internal/notify"
	"github.com/radieske/betslip-sync/internal/platform"
	"github.com/radieske/betslip-sync/internal/session"
	"github.com/radieske/betslip-sync/internal/shared/cache"
	"github.com/radieske/betslip-sync/internal/shared/config"
	"github.com/radieske/betslip-sync/internal/shared/db"
	"github.com/radieske/betslip-sync/internal/shared/kafka"
	"github.com/radieske/betslip-sync/internal/shared/logger"
	"github.com/radieske/betslip-sync/internal/shared/metrics"
	"github.com/radieske/betslip-sync/internal/storage"
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

	log.Info("starting service", zap.String("service", cfg.ServiceName), zap.String("env", cfg.Env))

	// Redis: snapshot do betslip (se BETSLIP_STORAGE=redis) e broadcast
	redisClient, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		if cfg.BetslipStorage == "redis" {
			log.Fatal("failed to connect redis", zap.Error(err))
		}
		log.Warn("redis unavailable, broadcast disabled", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Info("redis connected")
	}

	kv, closeKV := openStorage(cfg, redisClient, log)
	defer closeKV()

	// Postgres é opcional: sem ele o histórico fica desligado
	var hist *history.Postgres
	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Warn("postgres unavailable, placement history disabled", zap.Error(err))
	} else {
		defer pg.Close()
		hist = history.NewPostgres(pg)
		if err := hist.EnsureSchema(ctx); err != nil {
			log.Fatal("history schema", zap.Error(err))
		}
		log.Info("postgres connected")
	}

	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetslipPlaced)
	defer writer.Close()
	log.Info("kafka writer ready", zap.String("topic", cfg.TopicBetslipPlaced))

	// Métricas Prometheus alimentadas pelos hooks do Manager
	subscribes := prometheus.NewCounter(prometheus.CounterOpts{Name: "betslip_feed_subscriptions_total", Help: "assinaturas de outcome abertas"})
	updates := prometheus.NewCounter(prometheus.CounterOpts{Name: "betslip_feed_updates_applied_total", Help: "updates do feed aplicados aos tickets"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "betslip_feed_failures_total", Help: "falhas do feed por tipo"}, []string{"kind"})
	resubscribes := prometheus.NewCounter(prometheus.CounterOpts{Name: "betslip_feed_resubscribe_all_total", Help: "reassinaturas completas após reconexão"})
	tickets := prometheus.NewGauge(prometheus.GaugeOpts{Name: "betslip_tickets", Help: "tickets no betslip"})
	placements := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "betslip_placements_total", Help: "colocações por resultado"}, []string{"result"})
	prometheus.MustRegister(subscribes, updates, failures, resubscribes, tickets, placements)

	sess := session.NewStore()
	feedClient := feed.NewWSClient(cfg.FeedWSURL, cfg.FeedReconnectDelay, log.Named("feed"))
	platformClient := platform.New(cfg.PlatformURL)

	notifiers := notify.Fanout{notify.NewKafkaPublisher(writer, cfg.TopicBetslipPlaced)}
	if hist != nil {
		notifiers = append(notifiers, hist)
	}

	manager := betslip.New(ctx, betslip.Deps{
		Feed:      feedClient,
		Boosts:    platformClient,
		Placement: platformClient,
		Storage:   kv,
		Session:   sess,
		BetTypes:  platformClient,
		Notifier:  notifiers,
		Wallet:    notify.NewWalletClient(cfg.WalletURL, sess),
		Log:       log.Named("betslip"),
	}, betslip.Options{
		StorageKey: cfg.BetslipKey,
		Hooks: betslip.Hooks{
			OnSubscribe:      func() { subscribes.Inc() },
			OnFeedUpdate:     func() { updates.Inc() },
			OnFeedFailure:    func(kind string) { failures.WithLabelValues(kind).Inc() },
			OnResubscribeAll: func(int) { resubscribes.Inc() },
			OnTickets:        func(n int) { tickets.Set(float64(n)) },
			OnPlacement:      func(result string) { placements.WithLabelValues(result).Inc() },
		},
	})

	go feedClient.Start(ctx)

	// Broadcast: cada versão do betslip vai para o Pub/Sub e de lá para os clientes WS
	var hub *broadcast.Hub
	if redisClient != nil {
		hub = broadcast.NewHub(func(r *http.Request) bool { return true }, log.Named("ws"))
		broadcast.StartRedisSubscriber(ctx, redisClient, cfg.RedisPubSubChannel, hub, log)

		ticketsCh, stop := manager.ObserveTickets()
		defer stop()
		go broadcast.Forward(ctx, ticketsCh, broadcast.NewRedisBroadcaster(redisClient, cfg.RedisPubSubChannel), log)
	}

	httpAPI := &api.API{
		Betslip:           manager,
		Session:           sess,
		Hub:               hub,
		Log:               log,
		DefaultOddsPolicy: cfg.OddsValidationPolicy,
	}
	if hist != nil {
		httpAPI.History = hist
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           httpAPI.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, log, func(ctx context.Context) error {
		if st := feedClient.State(); st.Status != feed.StatusConnected {
			return fmt.Errorf("feed %s", st.Status)
		}
		if redisClient != nil {
			if err := redisClient.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
		}
		return nil
	})

	log.Info("betslip-service started")
	if err := manager.Run(ctx); err != nil {
		log.Error("betslip manager stopped with error", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("betslip-service stopped")
}

// openStorage escolhe o armazenamento do snapshot conforme BETSLIP_STORAGE
func openStorage(cfg config.Config, redisClient *redis.Client, log *zap.Logger) (betslip.KeyValueStore, func()) {
	switch cfg.BetslipStorage {
	case "sqlite":
		kv, err := storage.NewSQLiteKV(cfg.SQLitePath)
		if err != nil {
			log.Fatal("failed to open sqlite", zap.Error(err))
		}
		log.Info("betslip storage ready", zap.String("backend", "sqlite"), zap.String("path", cfg.SQLitePath))
		return kv, func() { _ = kv.Close() }
	default:
		if redisClient == nil {
			log.Fatal("redis storage selected but redis is unavailable", zap.String("storage", cfg.BetslipStorage))
		}
		log.Info("betslip storage ready", zap.String("backend", "redis"))
		return storage.NewRedisKV(redisClient), func() {}
	}
}
