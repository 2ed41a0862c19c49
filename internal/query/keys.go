package query

import (
	"encoding/json"
	"strings"

	"banco-precos/internal/domain"
)

// Cache key namespaces. Each one can be invalidated with ClearByPrefix.
const (
	PrefixProducts       = "products:"
	PrefixProductSearch  = "products:search:"
	PrefixProductByID    = "products:id:"
	PrefixTerritories    = "territories:"
	PrefixRegions        = "territories:regions"
	PrefixMunicipalities = "territories:municipalities:"
	PrefixPrices         = "prices:"
	PrefixPriceHistory   = "prices:history:"
)

type priceHistoryKey struct {
	ProductID string `json:"product_id"`
	Unit      string `json:"unit"`
	Territory Params `json:"territory"`
	Period    Params `json:"period"`
}

// PriceHistoryKey canonicalizes a price query. Map keys are sorted by the
// JSON encoder and code lists by TerritoryParams, so logically equal queries
// produce byte-identical keys.
func PriceHistoryKey(f domain.ProductFilter, s domain.TerritoryScope, p domain.PricePeriod) string {
	data, err := json.Marshal(priceHistoryKey{
		ProductID: strings.TrimSpace(f.ProductID),
		Unit:      strings.TrimSpace(f.Unit),
		Territory: TerritoryParams(s),
		Period:    PeriodParams(p),
	})
	if err != nil {
		// string-only maps always encode
		panic(err)
	}
	return PrefixPriceHistory + string(data)
}

func ProductSearchKey(term string) string {
	return PrefixProductSearch + strings.TrimSpace(term)
}

func ProductKey(id string) string {
	return PrefixProductByID + strings.TrimSpace(id)
}

func RegionsKey() string {
	return PrefixRegions
}

// MunicipalitiesKey uses "all" for the unfiltered listing
func MunicipalitiesKey(regionCode string) string {
	regionCode = strings.TrimSpace(regionCode)
	if regionCode == "" {
		regionCode = "all"
	}
	return PrefixMunicipalities + regionCode
}

func TerritoryKey(t domain.TerritoryType, id string) string {
	return PrefixTerritories + string(t) + ":" + strings.TrimSpace(id)
}
