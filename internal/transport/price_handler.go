package transport

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"banco-precos/internal/domain"
	"banco-precos/internal/middleware"
	"banco-precos/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// PriceHistoryRequest represents the price history query. Territory type
// defaults to the whole state.
type PriceHistoryRequest struct {
	ProductID         string   `query:"product_id" validate:"required,max=50"`
	Unit              string   `query:"unit" validate:"required,max=100"`
	TerritoryType     string   `query:"territory_type" validate:"required"`
	RegionCodes       []string `query:"region_codes" validate:"omitempty,dive,numeric"`
	MunicipalityCodes []string `query:"municipality_codes" validate:"omitempty,dive,numeric"`
	Year              string   `query:"year" validate:"omitempty,numeric,len=4"`
	StartDate         string   `query:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate           string   `query:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

func priceHistoryRequestFrom(r *http.Request) PriceHistoryRequest {
	q := r.URL.Query()
	req := PriceHistoryRequest{
		ProductID:         strings.TrimSpace(q.Get("product_id")),
		Unit:              strings.TrimSpace(q.Get("unit")),
		TerritoryType:     strings.TrimSpace(q.Get("territory_type")),
		RegionCodes:       splitCodes(q["region_codes"]),
		MunicipalityCodes: splitCodes(q["municipality_codes"]),
		Year:              strings.TrimSpace(q.Get("year")),
		StartDate:         strings.TrimSpace(q.Get("start_date")),
		EndDate:           strings.TrimSpace(q.Get("end_date")),
	}
	if req.TerritoryType == "" {
		req.TerritoryType = string(domain.TerritoryState)
	}
	return req
}

// toQuery converts a validated request
func (req PriceHistoryRequest) toQuery() service.PriceQuery {
	q := service.PriceQuery{
		ProductID:         req.ProductID,
		Unit:              req.Unit,
		TerritoryType:     req.TerritoryType,
		RegionCodes:       req.RegionCodes,
		MunicipalityCodes: req.MunicipalityCodes,
	}
	if year, err := strconv.Atoi(req.Year); err == nil {
		q.Year = &year
	}
	if d, err := time.Parse(domain.DateLayout, req.StartDate); err == nil {
		q.StartDate = &d
	}
	if d, err := time.Parse(domain.DateLayout, req.EndDate); err == nil {
		q.EndDate = &d
	}
	return q
}

// PriceHandler handles HTTP requests for price history
type PriceHandler struct {
	priceService service.PriceService
	logger       *zap.Logger
}

// NewPriceHandler creates a new PriceHandler
func NewPriceHandler(priceService service.PriceService, logger *zap.Logger) *PriceHandler {
	return &PriceHandler{
		priceService: priceService,
		logger:       logger,
	}
}

// RegisterRoutes registers all price routes
func (h *PriceHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/prices/history", h.History)
}

// History handles GET /api/prices/history
func (h *PriceHandler) History(w http.ResponseWriter, r *http.Request) {
	req := priceHistoryRequestFrom(r)
	if !validateOrRespond(w, r, h.logger, &req) {
		return
	}

	records, err := h.priceService.History(r.Context(), req.toQuery())
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newListResponse[domain.PriceRecord](records))
}
