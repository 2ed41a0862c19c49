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

// TerritoryRepository defines the interface for territory data access
type TerritoryRepository interface {
	GetRegions(ctx context.Context) []domain.Territory
	GetMunicipalities(ctx context.Context, regionCode string) []domain.Territory
	GetTerritory(ctx context.Context, id string, territoryType domain.TerritoryType) *domain.Territory
}

type territoryRepository struct {
	loader    *loader
	endpoints gateway.Endpoints
	logger    *zap.Logger
}

// NewTerritoryRepository creates a new instance of TerritoryRepository
func NewTerritoryRepository(deps Deps) TerritoryRepository {
	l := newLoader(deps)
	return &territoryRepository{loader: l, endpoints: deps.Endpoints, logger: l.logger}
}

// GetRegions falls back to the fixed planning regions when the registry is down
func (r *territoryRepository) GetRegions(ctx context.Context) []domain.Territory {
	regions := load(ctx, r.loader, request[[]domain.Territory]{
		key: query.RegionsKey(),
		fetch: func(ctx context.Context) gateway.Result {
			return r.loader.fetcher.Fetch(ctx, r.endpoints.Regions, nil)
		},
		normalize: func(records []gjson.Result) []domain.Territory {
			return normalizeRegions(records, r.logger)
		},
		fallback: func() ([]domain.Territory, bool) {
			return append([]domain.Territory(nil), fallbackRegions...), true
		},
	})
	if regions == nil {
		return []domain.Territory{}
	}
	return regions
}

// GetMunicipalities lists municipalities, optionally within one region
func (r *territoryRepository) GetMunicipalities(ctx context.Context, regionCode string) []domain.Territory {
	regionCode = strings.TrimSpace(regionCode)

	var params query.Params
	if regionCode != "" {
		params = query.Params{query.ParamRegionCode: regionCode}
	}

	municipalities := load(ctx, r.loader, request[[]domain.Territory]{
		key: query.MunicipalitiesKey(regionCode),
		fetch: func(ctx context.Context) gateway.Result {
			return r.loader.fetcher.Fetch(ctx, r.endpoints.Municipalities, params)
		},
		normalize: func(records []gjson.Result) []domain.Territory {
			return normalizeMunicipalities(records, regionCode, r.logger)
		},
		fallback: func() ([]domain.Territory, bool) {
			if regionCode != "" && !isFallbackRegion(regionCode) {
				return nil, false
			}
			return fallbackMunicipalitiesIn(regionCode), true
		},
	})
	if municipalities == nil {
		return []domain.Territory{}
	}
	return municipalities
}

// GetTerritory scans the matching listing for id. Listings hold a few hundred
// rows at most.
func (r *territoryRepository) GetTerritory(ctx context.Context, id string, territoryType domain.TerritoryType) *domain.Territory {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}

	key := query.TerritoryKey(territoryType, id)
	var cached *domain.Territory
	if r.loader.cache.GetJSON(ctx, key, &cached) && cached != nil {
		return cached
	}

	var candidates []domain.Territory
	switch territoryType {
	case domain.TerritoryState:
		candidates = []domain.Territory{stateTerritory}
	case domain.TerritoryRegion:
		candidates = r.GetRegions(ctx)
	case domain.TerritoryMunicipality:
		candidates = r.GetMunicipalities(ctx, "")
	default:
		return nil
	}

	for _, t := range candidates {
		if t.ID == id {
			found := t
			r.loader.cache.SetJSON(ctx, key, found, 0)
			return &found
		}
	}
	return nil
}
