package transport

import (
	"net/http"
	"strings"

	"banco-precos/internal/domain"
	"banco-precos/internal/middleware"
	"banco-precos/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MunicipalitiesRequest represents the municipality listing query
type MunicipalitiesRequest struct {
	RegionCode string `query:"region_code" validate:"omitempty,numeric"`
}

// TerritoryHandler handles HTTP requests for regions and municipalities
type TerritoryHandler struct {
	territoryService service.TerritoryService
	logger           *zap.Logger
}

// NewTerritoryHandler creates a new TerritoryHandler
func NewTerritoryHandler(territoryService service.TerritoryService, logger *zap.Logger) *TerritoryHandler {
	return &TerritoryHandler{
		territoryService: territoryService,
		logger:           logger,
	}
}

// RegisterRoutes registers all territory routes
func (h *TerritoryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/regions", h.Regions)
	r.Get("/api/municipalities", h.Municipalities)
	r.Get("/api/territories/{type}/{id}", h.Territory)
}

// Regions handles GET /api/regions
func (h *TerritoryHandler) Regions(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, newListResponse[domain.Territory](h.territoryService.Regions(r.Context())))
}

// Municipalities handles GET /api/municipalities?region_code=
func (h *TerritoryHandler) Municipalities(w http.ResponseWriter, r *http.Request) {
	req := MunicipalitiesRequest{RegionCode: strings.TrimSpace(r.URL.Query().Get("region_code"))}
	if !validateOrRespond(w, r, h.logger, &req) {
		return
	}

	municipalities := h.territoryService.Municipalities(r.Context(), req.RegionCode)
	middleware.RespondWithJSON(w, http.StatusOK, newListResponse[domain.Territory](municipalities))
}

// Territory handles GET /api/territories/{type}/{id}
func (h *TerritoryHandler) Territory(w http.ResponseWriter, r *http.Request) {
	territory, err := h.territoryService.Territory(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "type"))
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, territory)
}
