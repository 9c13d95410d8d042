package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"facegate/internal/audit"
	"facegate/internal/face/detect"
	"facegate/internal/face/match"
	"facegate/internal/identity/cache"
	"facegate/internal/identity/handler"
	"facegate/internal/identity/service"
	"facegate/internal/identity/store"
	"facegate/internal/platform/config"
	"facegate/internal/platform/database"
	"facegate/internal/platform/health"
	"facegate/internal/platform/httpserver"
	"facegate/internal/platform/kafka/producer"
	"facegate/internal/platform/logger"
	"facegate/internal/platform/metrics"
	"facegate/internal/platform/redis"
	"facegate/internal/platform/tracer"
	httptransport "facegate/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing facegate",
		"addr", cfg.Addr,
		"match_threshold", cfg.MatchThreshold,
	)

	m := metrics.New()
	healthHandler := health.New()

	// Persistence: PostgreSQL when configured, in-memory otherwise.
	var identityStore service.Store
	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.DatabaseURL
	pool, err := database.New(dbCfg)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if pool != nil {
		identityStore = store.NewPostgres(pool.DB())
		healthHandler.RegisterCheck("database", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Health(ctx)
		})
		defer pool.Close()
		log.Info("using postgres identity store")
	} else {
		identityStore = store.NewInMemoryStore()
		log.Info("using in-memory identity store")
	}

	// Directory cache: Redis when configured.
	var directory cache.Directory
	redisClient, err := redis.New(redis.Config{URL: cfg.RedisURL})
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		directory = cache.NewRedisDirectory(redisClient.Client, cache.WithTTL(cfg.DirectoryCacheTTL))
		healthHandler.RegisterCheck("redis", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redisClient.Health(ctx)
		})
		defer redisClient.Close()
		log.Info("directory cache enabled", "ttl", cfg.DirectoryCacheTTL)
	}

	// Audit trail: Kafka when configured, in-memory otherwise.
	var sink audit.Sink
	if cfg.KafkaBrokers != "" {
		kafkaCfg := producer.DefaultConfig()
		kafkaCfg.Brokers = cfg.KafkaBrokers
		kafkaProducer, err := producer.New(kafkaCfg, log)
		if err != nil {
			log.Error("kafka producer setup failed", "error", err)
			os.Exit(1)
		}
		defer kafkaProducer.Close()
		healthHandler.RegisterCheck("kafka", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return kafkaProducer.Health(ctx)
		})
		sink = audit.NewKafkaSink(kafkaProducer, cfg.AuditTopic)
		log.Info("audit events published to kafka", "topic", cfg.AuditTopic)
	} else {
		sink = audit.NewMemoryStore()
	}
	publisher := audit.NewPublisher(sink,
		audit.WithAsyncBuffer(256),
		audit.WithPublisherLogger(log),
	)
	defer publisher.Close()

	// Face pipeline.
	detector := detect.NewStatic(
		detect.WithWarmup(cfg.DetectorWarmup),
		detect.WithMinFaceSize(cfg.MinFaceSize),
		detect.WithLogger(log),
	)
	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	if err := detector.Init(initCtx); err != nil {
		cancelInit()
		log.Error("detector init failed", "error", err)
		os.Exit(1)
	}
	cancelInit()
	healthHandler.RegisterCheck("detector", func() error {
		if !detector.Ready() {
			return errors.New("detector not ready")
		}
		return nil
	})

	matcher := match.NewGeometry()

	svc := service.NewService(identityStore, detector, matcher,
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithAuditPublisher(publisher),
		service.WithMatchThreshold(cfg.MatchThreshold),
		service.WithDirectoryCache(directory),
		service.WithTracer(tracer.NewOTel()),
	)

	identityHandler := handler.New(svc, log)
	router := httptransport.NewRouter(identityHandler, healthHandler, m, log)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting http server", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
