package repository

import (
	"context"
	"strings"

	"banco-precos/internal/domain"
	"banco-precos/internal/gateway"
	"banco-precos/internal/query"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// ProductRepository defines the interface for product data access. Registry
// failures never surface: callers get synthetic data, an empty list or nil.
type ProductRepository interface {
	SearchProducts(ctx context.Context, term string) []domain.Product
	GetProduct(ctx context.Context, id string) *domain.Product
}

type productRepository struct {
	loader    *loader
	endpoints gateway.Endpoints
	logger    *zap.Logger
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(deps Deps) ProductRepository {
	l := newLoader(deps)
	return &productRepository{loader: l, endpoints: deps.Endpoints, logger: l.logger}
}

// SearchProducts looks products up by description
func (r *productRepository) SearchProducts(ctx context.Context, term string) []domain.Product {
	term = strings.TrimSpace(term)
	if term == "" {
		return []domain.Product{}
	}

	products := load(ctx, r.loader, request[[]domain.Product]{
		key: query.ProductSearchKey(term),
		fetch: func(ctx context.Context) gateway.Result {
			return r.loader.fetcher.Fetch(ctx, r.endpoints.Products, query.ProductParams(domain.ProductFilter{SearchTerm: term}))
		},
		normalize: func(records []gjson.Result) []domain.Product {
			return normalizeProducts(records, r.logger)
		},
		fallback: func() ([]domain.Product, bool) {
			matches := syntheticProductsMatching(term)
			return matches, len(matches) > 0
		},
	})
	if products == nil {
		return []domain.Product{}
	}
	return products
}

// GetProduct returns nil when the product is unknown or the registry is down
// and id is outside the synthetic catalog
func (r *productRepository) GetProduct(ctx context.Context, id string) *domain.Product {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}

	return load(ctx, r.loader, request[*domain.Product]{
		key: query.ProductKey(id),
		fetch: func(ctx context.Context) gateway.Result {
			return r.loader.fetcher.Fetch(ctx, r.endpoints.Products, query.ProductParams(domain.ProductFilter{ProductID: id}))
		},
		normalize: func(records []gjson.Result) *domain.Product {
			for _, p := range normalizeProducts(records, r.logger) {
				if p.ID == id {
					return &p
				}
			}
			return nil
		},
		fallback: func() (*domain.Product, bool) {
			if !IsSyntheticProductID(id) {
				return nil, false
			}
			p, ok := syntheticProduct(id)
			if !ok {
				return nil, false
			}
			return &p, true
		},
	})
}
