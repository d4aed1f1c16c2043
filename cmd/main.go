package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dashboard-service/internal/api"
	"dashboard-service/internal/dashboard"
	"dashboard-service/internal/observability"
	"dashboard-service/internal/sink"
	"dashboard-service/internal/store"
	"dashboard-service/internal/worker"
	"dashboard-service/pkg/config"
	"dashboard-service/pkg/db"
	"dashboard-service/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	if err := logger.Init(os.Getenv("GO_ENV")); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", logger.Err(err))
	}

	logger.Info("Configuration loaded",
		logger.String("environment", cfg.Environment),
		logger.String("port", cfg.Port),
		logger.Duration("tick_interval", cfg.TickInterval),
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.New(registry)

	st := store.New()
	if cfg.SeedData {
		if err := st.Seed(context.Background()); err != nil {
			logger.Fatal("Failed to seed dashboard data", logger.Err(err))
		}
		logger.Info("Seeded demo dashboard data")
	}

	var opts []dashboard.Option

	if cfg.PostgresEnabled() {
		dbConn, err := db.NewPostgresConnection(cfg)
		if err != nil {
			logger.Fatal("Failed to connect to PostgreSQL", logger.Err(err))
		}
		defer func() {
			if err := dbConn.Close(); err != nil {
				logger.Error("Error closing database connection", logger.Err(err))
			}
		}()
		logger.Info("Connected to PostgreSQL")

		pgSink := sink.NewPostgresSink(dbConn)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = pgSink.EnsureSchema(ctx)
		cancel()
		if err != nil {
			logger.Fatal("Failed to prepare PostgreSQL schema", logger.Err(err))
		}
		opts = append(opts, dashboard.WithSink(pgSink), dashboard.WithHealthCheck("postgres", dbConn.PingContext))
	}

	if cfg.RedisEnabled() {
		redisClient, err := db.NewRedisConnection(cfg)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", logger.Err(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error("Error closing Redis connection", logger.Err(err))
			}
		}()
		logger.Info("Connected to Redis")

		opts = append(opts, dashboard.WithSink(sink.NewRedisSink(redisClient)), dashboard.WithHealthCheck("redis", redisClient.HealthCheck))
	}

	if cfg.MinioEnabled() {
		minioClient, err := db.NewMinioClient(cfg)
		if err != nil {
			logger.Fatal("Failed to connect to MinIO", logger.Err(err))
		}
		logger.Info("Connected to MinIO", logger.String("bucket", cfg.MinioBucket))

		opts = append(opts, dashboard.WithArchive(minioClient, cfg.MinioBucket), dashboard.WithHealthCheck("minio", minioClient.HealthCheck))
	}

	orchestrator := dashboard.NewOrchestrator(st, metrics, opts...)
	defer orchestrator.Shutdown()

	workerPool := worker.NewWorkerPool(cfg, orchestrator)
	workerPool.Start()
	defer workerPool.Stop()

	apiServer := api.NewServer(cfg, orchestrator)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      apiServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting dashboard service",
			logger.String("port", cfg.Port),
			logger.String("address", fmt.Sprintf("http://localhost:%s", cfg.Port)),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.Err(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down dashboard service...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", logger.Err(err))
	}

	logger.Info("Dashboard service stopped")
}
