package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/go_cart/product-api/internal/cache"
	"github.com/fjod/go_cart/product-api/internal/config"
	"github.com/fjod/go_cart/product-api/internal/events"
	h "github.com/fjod/go_cart/product-api/internal/http"
	"github.com/fjod/go_cart/product-api/internal/logger"
	"github.com/fjod/go_cart/product-api/internal/metrics"
	"github.com/fjod/go_cart/product-api/internal/repository"
	"github.com/fjod/go_cart/product-api/internal/service"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, syncLog := logger.New(cfg.Production)
	defer func() { _ = syncLog() }()
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("product-api stopped with error", "error", err)
		_ = syncLog()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx := context.Background()

	repo, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	guarded := repository.NewBreakerRepository(repo, repository.BreakerSettings{
		MaxFailures: cfg.BreakerFailures,
		OpenTimeout: cfg.BreakerTimeout,
	}, log)

	var productCache cache.ProductCache = cache.NopCache{}
	if cfg.CacheEnabled() {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
		productCache = cache.NewRedisCache(redisClient, cfg.CacheTTL)
		log.Info("redis cache enabled", "addr", cfg.RedisAddr)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.EventsEnabled() {
		publisher = events.NewKafkaPublisher(cfg.KafkaTopic, cfg.KafkaBrokers...)
		log.Info("product events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn("failed to close event publisher", "error", err)
		}
	}()

	svc := service.NewProductService(guarded, productCache, publisher, log)
	router := h.NewRouter(h.NewProductHandler(svc, log), metrics.NewHTTPMetrics(), log)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server exited")
	return nil
}

// openStore builds the configured repository and returns its close function.
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (repository.ProductRepository, func(), error) {
	if cfg.StoreBackend == config.BackendMemory {
		log.Warn("using in-memory product store, data is lost on restart")
		return repository.NewMemoryRepository(), func() {}, nil
	}

	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		return nil, nil, err
	}

	repo := repository.NewMongoRepository(mongoDB)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = mongoDB.Client().Disconnect(ctx)
		return nil, nil, err
	}
	log.Info("connected to MongoDB", "database", cfg.MongoDBName)

	closeStore := func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoDB.Client().Disconnect(disconnectCtx); err != nil {
			log.Warn("failed to disconnect from MongoDB", "error", err)
		}
	}
	return repo, closeStore, nil
}
