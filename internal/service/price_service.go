package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"banco-precos/internal/domain"
	"banco-precos/internal/query"
	"banco-precos/internal/repository"
)

var (
	ErrProductIDRequired        = errors.New("product id is required")
	ErrUnitRequired             = errors.New("unit is required")
	ErrMissingRegionCodes       = errors.New("region codes are required for a region query")
	ErrMissingMunicipalityCodes = errors.New("municipality codes are required for a municipality query")
	ErrInvalidPeriod            = errors.New("start date must not be after end date")
)

// PriceQuery is a price history request as received from a caller
type PriceQuery struct {
	ProductID         string
	Unit              string
	TerritoryType     string
	RegionCodes       []string
	MunicipalityCodes []string
	Year              *int
	StartDate         *time.Time
	EndDate           *time.Time
}

// PriceService defines the interface for price history lookups
type PriceService interface {
	History(ctx context.Context, q PriceQuery) ([]domain.PriceRecord, error)
}

type priceService struct {
	prices   repository.PriceRepository
	products repository.ProductRepository
}

// NewPriceService creates a new instance of PriceService
func NewPriceService(prices repository.PriceRepository, products repository.ProductRepository) PriceService {
	return &priceService{prices: prices, products: products}
}

// History validates q, resolves the product and returns its observed prices
// labelled with the product name. The product must resolve first, so during a
// registry outage only catalog products get synthetic prices.
func (s *priceService) History(ctx context.Context, q PriceQuery) ([]domain.PriceRecord, error) {
	filter := domain.ProductFilter{
		ProductID: strings.TrimSpace(q.ProductID),
		Unit:      strings.TrimSpace(q.Unit),
	}
	if filter.ProductID == "" {
		return nil, ErrProductIDRequired
	}
	if filter.Unit == "" {
		return nil, ErrUnitRequired
	}

	scope, err := scopeOf(q)
	if err != nil {
		return nil, err
	}

	if q.StartDate != nil && q.EndDate != nil && q.StartDate.After(*q.EndDate) {
		return nil, ErrInvalidPeriod
	}
	period := domain.PricePeriod{Year: q.Year, StartDate: q.StartDate, EndDate: q.EndDate}

	product := s.products.GetProduct(ctx, filter.ProductID)
	if product == nil {
		return nil, ErrProductNotFound
	}

	records := s.prices.GetPriceHistory(ctx, filter, scope, period)

	// records may be shared with the cache and other callers
	labelled := make([]domain.PriceRecord, len(records))
	for i, rec := range records {
		if rec.ProductName == "" {
			rec.ProductName = product.Name
		}
		labelled[i] = rec
	}
	return labelled, nil
}

func scopeOf(q PriceQuery) (domain.TerritoryScope, error) {
	t, err := parseTerritoryType(q.TerritoryType)
	if err != nil {
		return domain.TerritoryScope{}, err
	}

	scope := domain.TerritoryScope{Type: t}
	switch t {
	case domain.TerritoryRegion:
		scope.RegionCodes = query.CanonicalCodes(q.RegionCodes)
		if len(scope.RegionCodes) == 0 {
			return scope, ErrMissingRegionCodes
		}
	case domain.TerritoryMunicipality:
		scope.MunicipalityCodes = query.CanonicalCodes(q.MunicipalityCodes)
		if len(scope.MunicipalityCodes) == 0 {
			return scope, ErrMissingMunicipalityCodes
		}
	}
	return scope, nil
}
