package transport

import (
	"net/http"
	"strings"

	"banco-precos/internal/middleware"
	"banco-precos/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ClearCacheResponse reports what was invalidated
type ClearCacheResponse struct {
	Status string `json:"status"`
	Prefix string `json:"prefix,omitempty"`
}

// AdminHandler exposes operational cache invalidation
type AdminHandler struct {
	cacheService service.CacheService
	logger       *zap.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(cacheService service.CacheService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		cacheService: cacheService,
		logger:       logger,
	}
}

// RegisterRoutes registers all admin routes
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Delete("/api/admin/cache", h.ClearCache)
}

// ClearCache handles DELETE /api/admin/cache[?prefix=]
func (h *AdminHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	prefix := strings.TrimSpace(r.URL.Query().Get("prefix"))

	if err := h.cacheService.ClearByPrefix(r.Context(), prefix); err != nil {
		h.logger.Error("Cache invalidation failed", zap.String("prefix", prefix), zap.Error(err))
		middleware.RespondWithError(w, r, http.StatusInternalServerError, "failed to clear cache")
		return
	}

	h.logger.Info("Cache invalidated", zap.String("prefix", prefix))
	middleware.RespondWithJSON(w, http.StatusOK, ClearCacheResponse{Status: "cleared", Prefix: prefix})
}
