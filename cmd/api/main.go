package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"banco-precos/internal/cache"
	"banco-precos/internal/config"
	"banco-precos/internal/gateway"
	"banco-precos/internal/logger"
	"banco-precos/internal/server"
	"banco-precos/internal/telemetry"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *server.Server, logger *zap.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// The context is used to inform the server it has 30 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Close server resources
	if err := apiServer.Close(); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	logger.Info("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

// newRedisClient pings redis once so a misconfiguration fails at startup
func newRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr(), err)
	}
	return client, nil
}

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env, cfg.Log.Level)
	if err != nil {
		log = logger.NewWithDefaults()
		log.Warn("Invalid logger configuration, using defaults", zap.Error(err))
	}
	defer log.Sync()

	log.Info("Starting price registry API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
		zap.String("registry", cfg.Source.BaseURL),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.String("cache_backend", cfg.Cache.Backend),
	)

	ctx := context.Background()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		log.Warn("Tracing disabled", zap.Error(err))
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("Failed to flush traces", zap.Error(err))
		}
	}()

	var redisClient *redis.Client
	if cfg.UsesRedis() {
		redisClient, err = newRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Redis unavailable", zap.Error(err))
		}
		log.Info("Connected to redis", zap.String("addr", cfg.Redis.Addr()))
	}

	var store cache.Store
	switch cfg.Cache.Backend {
	case "redis":
		if redisClient == nil {
			// only reachable with the cache disabled
			store = cache.NewMemoryStore()
			break
		}
		store = cache.NewRedisStore(redisClient, cfg.Cache.Namespace)
	case "memory", "":
		store = cache.NewMemoryStore()
	default:
		log.Fatal("Unknown cache backend", zap.String("backend", cfg.Cache.Backend))
	}

	responseCache := cache.New(store, cache.Options{
		Enabled:    cfg.Cache.Enabled,
		DefaultTTL: cfg.Cache.Expiration,
	}, log)

	srv := server.NewServer(cfg, log, server.Deps{
		Cache:   responseCache,
		Fetcher: gateway.NewWithTimeout(cfg.Source.Timeout, log),
		Redis:   redisClient,
	})

	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(srv, log, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal("HTTP server error", zap.Error(err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Info("Graceful shutdown complete")
}
