package server

import (
	"fmt"
	"net/http"
	"time"

	"banco-precos/internal/cache"
	"banco-precos/internal/config"
	"banco-precos/internal/gateway"
	custommiddleware "banco-precos/internal/middleware"
	"banco-precos/internal/repository"
	"banco-precos/internal/service"
	"banco-precos/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Deps are the long-lived collaborators built by main
type Deps struct {
	Cache   *cache.Cache
	Fetcher gateway.Fetcher
	// Redis is nil when neither the cache nor the rate limiter use it
	Redis *redis.Client
	// Generator defaults to the wall clock and math/rand
	Generator *repository.PriceGenerator
}

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	redis  *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, deps Deps) *Server {
	router := NewRouter(cfg, logger, deps)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: cfg.Source.Timeout + 30*time.Second,
		},
		config: cfg,
		logger: logger,
		redis:  deps.Redis,
	}

	return server
}

// NewRouter wires repositories, services and handlers onto a chi router
func NewRouter(cfg *config.Config, logger *zap.Logger, deps Deps) http.Handler {
	router := chi.NewRouter()

	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.IsDevelopment()))

	if cfg.RateLimit.Enabled && deps.Redis != nil {
		router.Use(custommiddleware.RateLimitMiddleware(deps.Redis, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.RequestsPerWindow,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         cfg.Cache.Namespace + "ratelimit",
		}, logger))
	}

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"status":        "ok",
			"cache_enabled": deps.Cache.Enabled(),
		})
	})

	// Initialize repositories
	repoDeps := repository.Deps{
		Cache:     deps.Cache,
		Fetcher:   deps.Fetcher,
		Endpoints: gateway.EndpointsFor(cfg.Source.BaseURL),
		Logger:    logger,
	}
	productRepo := repository.NewProductRepository(repoDeps)
	territoryRepo := repository.NewTerritoryRepository(repoDeps)
	priceRepo := repository.NewPriceRepository(repoDeps, deps.Generator)

	// Initialize services
	productService := service.NewProductService(productRepo)
	territoryService := service.NewTerritoryService(territoryRepo)
	priceService := service.NewPriceService(priceRepo, productRepo)
	cacheService := service.NewCacheService(deps.Cache)

	// Register routes
	transport.NewProductHandler(productService, logger).RegisterRoutes(router)
	transport.NewTerritoryHandler(territoryService, logger).RegisterRoutes(router)
	transport.NewPriceHandler(priceService, logger).RegisterRoutes(router)
	transport.NewAdminHandler(cacheService, logger).RegisterRoutes(router)

	return router
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
