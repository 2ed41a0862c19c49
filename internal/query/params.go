// Package query translates domain filters into the price registry's query
// parameter dialect and into canonical cache keys.
package query

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"banco-precos/internal/domain"
)

// Registry parameter names
const (
	ParamDescription       = "descricao"
	ParamProductID         = "idProduto"
	ParamUnit              = "unidade"
	ParamTerritoryType     = "limiteTerritorial"
	ParamRegionCodes       = "codRegioes"
	ParamMunicipalityCodes = "codMunicipios"
	ParamRegionCode        = "codRegiao"
	ParamYear              = "exercicio"
	ParamStartDate         = "dataInicial"
	ParamEndDate           = "dataFinal"
)

// Params is a flat parameter mapping sent to the registry
type Params map[string]string

// Values converts p to url.Values
func (p Params) Values() url.Values {
	values := make(url.Values, len(p))
	for k, v := range p {
		values.Set(k, v)
	}
	return values
}

// Merge returns a new mapping holding p overlaid with others in order
func (p Params) Merge(others ...Params) Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	for _, o := range others {
		for k, v := range o {
			out[k] = v
		}
	}
	return out
}

// ProductParams encodes the populated fields of f
func ProductParams(f domain.ProductFilter) Params {
	params := Params{}
	if term := strings.TrimSpace(f.SearchTerm); term != "" {
		params[ParamDescription] = term
	}
	if id := strings.TrimSpace(f.ProductID); id != "" {
		params[ParamProductID] = id
	}
	if unit := strings.TrimSpace(f.Unit); unit != "" {
		params[ParamUnit] = unit
	}
	return params
}

// TerritoryParams always carries the territory type. Region codes are only
// sent for REGIAO scopes and municipality codes only for MUNICIPIO scopes.
func TerritoryParams(s domain.TerritoryScope) Params {
	params := Params{ParamTerritoryType: string(s.Type)}

	switch s.Type {
	case domain.TerritoryRegion:
		if codes := CanonicalCodes(s.RegionCodes); len(codes) > 0 {
			params[ParamRegionCodes] = strings.Join(codes, ",")
		}
	case domain.TerritoryMunicipality:
		if codes := CanonicalCodes(s.MunicipalityCodes); len(codes) > 0 {
			params[ParamMunicipalityCodes] = strings.Join(codes, ",")
		}
	}
	return params
}

// PeriodParams encodes the populated fields of p, dates as YYYY-MM-DD
func PeriodParams(p domain.PricePeriod) Params {
	params := Params{}
	if p.Year != nil && *p.Year > 0 {
		params[ParamYear] = strconv.Itoa(*p.Year)
	}
	if p.StartDate != nil {
		params[ParamStartDate] = p.StartDate.Format(domain.DateLayout)
	}
	if p.EndDate != nil {
		params[ParamEndDate] = p.EndDate.Format(domain.DateLayout)
	}
	return params
}

// PriceHistoryParams is the full parameter set of a price history query
func PriceHistoryParams(f domain.ProductFilter, s domain.TerritoryScope, p domain.PricePeriod) Params {
	base := Params{
		ParamProductID: strings.TrimSpace(f.ProductID),
		ParamUnit:      strings.TrimSpace(f.Unit),
	}
	return base.Merge(TerritoryParams(s), PeriodParams(p))
}

// CanonicalCodes trims, de-duplicates and sorts a territory code list so that
// equal sets encode identically.
func CanonicalCodes(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}
