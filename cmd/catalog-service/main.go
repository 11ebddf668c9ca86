package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"

	"github.com/umanagarjuna/go-catalog-service/internal/catalog/cache"
	"github.com/umanagarjuna/go-catalog-service/internal/catalog/config"
	"github.com/umanagarjuna/go-catalog-service/internal/catalog/domain"
	"github.com/umanagarjuna/go-catalog-service/internal/catalog/events"
	"github.com/umanagarjuna/go-catalog-service/internal/catalog/handler"
	"github.com/umanagarjuna/go-catalog-service/internal/catalog/metrics"
	"github.com/umanagarjuna/go-catalog-service/internal/catalog/repository"
	"github.com/umanagarjuna/go-catalog-service/internal/catalog/service"
	"github.com/umanagarjuna/go-catalog-service/pkg/slug"
	"github.com/umanagarjuna/go-catalog-service/pkg/validator"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	logger, err := initLogger(cfg.Log)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	// Initialize database
	db, err := initDB(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	repo := repository.NewPostgresRepository(db)
	if err := repo.EnsureSchema(context.Background()); err != nil {
		logger.Fatal("Failed to apply schema", zap.Error(err))
	}

	// Initialize cache store
	store, closeStore := initCacheStore(cfg.Cache, cfg.Redis, logger)
	defer closeStore()

	// Initialize Kafka publisher
	publisher, err := initPublisher(cfg.Kafka)
	if err != nil {
		logger.Fatal("Failed to initialize event publisher", zap.Error(err))
	}
	defer publisher.Close()

	// Initialize metrics
	metricsCollector := metrics.NewPrometheusMetrics("catalog")

	reader := cache.NewReadThrough(store, logger, metricsCollector, cache.Options{
		TTL:       cfg.Cache.TTL,
		Coalesce:  cfg.Cache.Coalesce,
		OpTimeout: cfg.Cache.OpTimeout,
	})
	invalidator := cache.NewInvalidator(store, logger, metricsCollector, cache.InvalidatorOptions{
		PurgeProductDetails: cfg.Cache.PurgeProductDetails,
		OpTimeout:           cfg.Cache.OpTimeout,
	})

	// Initialize service
	catalogService := service.NewCatalogService(
		repo,
		reader,
		invalidator,
		publisher,
		slug.NewRandomSuffixGenerator(),
		validator.NewDefaultValidator(),
		logger,
	)

	// Start servers
	errChan := make(chan error, 2)

	httpHandler := handler.NewHTTPHandler(catalogService, store, metricsCollector.Handler(), logger)
	httpServer := &http.Server{
		Addr:    ":" + cfg.Server.HTTPPort,
		Handler: setupHTTPRouter(httpHandler, logger),
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.HTTPPort))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	grpcHandler := handler.NewGRPCHandler(catalogService)
	grpcServer := grpc.NewServer()
	grpcHandler.Register(grpcServer)

	go func() {
		lis, err := net.Listen("tcp", ":"+cfg.Server.GRPCPort)
		if err != nil {
			errChan <- fmt.Errorf("failed to listen: %w", err)
			return
		}

		logger.Info("Starting gRPC server", zap.String("port", cfg.Server.GRPCPort))
		if err := grpcServer.Serve(lis); err != nil {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		logger.Error("Server error", zap.Error(err))
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	}

	grpcHandler.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	grpcServer.GracefulStop()

	logger.Info("Server stopped")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

func initDB(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// initCacheStore builds the configured store behind a circuit breaker.
// The service starts even when Redis is unreachable.
func initCacheStore(cfg config.CacheConfig, redisCfg config.RedisConfig,
	logger *zap.Logger) (*cache.BreakerStore, func()) {

	var (
		inner     cache.Store
		closeFunc = func() {}
	)

	switch cfg.Driver {
	case config.CacheDriverMemory:
		inner = cache.NewMemoryStore(cache.MemoryConfig{
			Capacity:  cfg.Memory.Capacity,
			NumShards: cfg.Memory.Shards,
			MaxTTL:    cfg.TTL,
		})
	default:
		client := initRedis(redisCfg)
		if err := client.Ping(context.Background()).Err(); err != nil {
			logger.Warn("Redis unreachable at startup, serving from database",
				zap.Error(err), zap.String("addr", redisCfg.Addr()))
		}
		inner = cache.NewRedisStore(client)
		closeFunc = func() { _ = client.Close() }
	}

	store := cache.NewBreakerStore(inner, cache.BreakerConfig{
		MaxRequests:      cfg.Breaker.MaxRequests,
		Interval:         cfg.Breaker.Interval,
		Timeout:          cfg.Breaker.Timeout,
		FailureThreshold: cfg.Breaker.FailureThreshold,
		MinRequests:      cfg.Breaker.MinRequests,
	}, logger)

	return store, closeFunc
}

func initPublisher(cfg config.KafkaConfig) (domain.EventPublisher, error) {
	if !cfg.Enabled {
		return events.NopPublisher{}, nil
	}
	return events.NewEventPublisher(cfg.Brokers)
}

func setupHTTPRouter(h *handler.HTTPHandler, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), handler.RequestLogger(logger))

	// Register routes
	h.RegisterRoutes(router)

	return router
}
