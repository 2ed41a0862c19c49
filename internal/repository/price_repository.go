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

// PriceRepository defines the interface for price history access
type PriceRepository interface {
	GetPriceHistory(ctx context.Context, filter domain.ProductFilter, scope domain.TerritoryScope, period domain.PricePeriod) []domain.PriceRecord
}

type priceRepository struct {
	loader    *loader
	endpoints gateway.Endpoints
	generator *PriceGenerator
	logger    *zap.Logger
}

// NewPriceRepository creates a new instance of PriceRepository. A nil
// generator uses the wall clock and math/rand.
func NewPriceRepository(deps Deps, generator *PriceGenerator) PriceRepository {
	if generator == nil {
		generator = NewPriceGenerator(nil, nil)
	}
	l := newLoader(deps)
	return &priceRepository{
		loader:    l,
		endpoints: deps.Endpoints,
		generator: generator,
		logger:    l.logger,
	}
}

// GetPriceHistory requires a product id and unit. Registry failures for
// synthetic product ids are answered with generated prices.
func (r *priceRepository) GetPriceHistory(ctx context.Context, filter domain.ProductFilter, scope domain.TerritoryScope, period domain.PricePeriod) []domain.PriceRecord {
	filter.ProductID = strings.TrimSpace(filter.ProductID)
	filter.Unit = strings.TrimSpace(filter.Unit)
	if filter.ProductID == "" || filter.Unit == "" {
		return []domain.PriceRecord{}
	}

	records := load(ctx, r.loader, request[[]domain.PriceRecord]{
		key: query.PriceHistoryKey(filter, scope, period),
		fetch: func(ctx context.Context) gateway.Result {
			return r.loader.fetcher.Fetch(ctx, r.endpoints.PriceHistory, query.PriceHistoryParams(filter, scope, period))
		},
		normalize: func(raw []gjson.Result) []domain.PriceRecord {
			return normalizePrices(raw, filter, r.logger)
		},
		fallback: func() ([]domain.PriceRecord, bool) {
			if !IsSyntheticProductID(filter.ProductID) {
				return nil, false
			}
			return r.generator.Generate(filter.ProductID, filter.Unit), true
		},
	})
	if records == nil {
		return []domain.PriceRecord{}
	}
	return records
}
