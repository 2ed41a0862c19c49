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

// SearchProductsRequest represents the product search query
type SearchProductsRequest struct {
	Query string `query:"q" validate:"required,max=200"`
}

// ProductHandler handles HTTP requests for product lookups
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/search", h.Search)
		r.Get("/{id}", h.Get)
	})
}

// Search handles GET /api/products/search?q=
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	req := SearchProductsRequest{Query: strings.TrimSpace(r.URL.Query().Get("q"))}
	if !validateOrRespond(w, r, h.logger, &req) {
		return
	}

	products, err := h.productService.Search(r.Context(), req.Query)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newListResponse[domain.Product](products))
}

// Get handles GET /api/products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.productService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}
