package repository

import (
	"math"
	"strconv"
	"strings"

	"banco-precos/internal/domain"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Alternate field names the registry uses for the same attribute, in order of
// preference
var (
	productIDFields   = []string{"id", "idProduto", "codigo"}
	productNameFields = []string{"nome", "descricao"}
	productUnitFields = []string{"unidade", "unidadeMedida"}

	regionIDFields   = []string{"id", "codigo", "codRegiao"}
	regionNameFields = []string{"nome", "descricao"}

	municipalityIDFields     = []string{"id", "codigo", "codMunicipio", "codigoIbge"}
	municipalityNameFields   = []string{"nome", "nomeMunicipio"}
	municipalityRegionFields = []string{"codRegiao", "idRegiao", "regiao"}

	priceIDFields           = []string{"id"}
	priceDateFields         = []string{"dataNotaFiscal", "data", "dataCompra"}
	priceMunicipalityFields = []string{"municipio", "nomeMunicipio"}
	priceValueFields        = []string{"valorUnitario", "valor", "preco"}
	priceProductNameFields  = []string{"descricaoProduto", "nomeProduto"}
)

// firstString returns the first non-blank scalar among fields
func firstString(rec gjson.Result, fields ...string) string {
	for _, field := range fields {
		v := rec.Get(gjson.Escape(field))
		if !v.Exists() || v.Type == gjson.Null || v.IsObject() || v.IsArray() {
			continue
		}
		if s := strings.TrimSpace(v.String()); s != "" {
			return s
		}
	}
	return ""
}

// firstNumber returns the first numeric value among fields. Strings are
// accepted in both "1234.56" and Brazilian "1.234,56" notation.
func firstNumber(rec gjson.Result, fields ...string) (float64, bool) {
	for _, field := range fields {
		v := rec.Get(gjson.Escape(field))
		switch v.Type {
		case gjson.Number:
			return v.Float(), true
		case gjson.String:
			if n, ok := parseDecimal(v.String()); ok {
				return n, true
			}
		}
	}
	return 0, false
}

func parseDecimal(s string) (float64, bool) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	if s == "" {
		return 0, false
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func normalizeProducts(records []gjson.Result, logger *zap.Logger) []domain.Product {
	products := make([]domain.Product, 0, len(records))
	for _, rec := range records {
		p := domain.Product{
			ID:   firstString(rec, productIDFields...),
			Name: firstString(rec, productNameFields...),
			Unit: firstString(rec, productUnitFields...),
		}
		if p.ID == "" || p.Name == "" || p.Unit == "" {
			logger.Debug("Dropping incomplete product record", zap.String("raw", rec.Raw))
			continue
		}
		products = append(products, p)
	}
	return products
}

func normalizeRegions(records []gjson.Result, logger *zap.Logger) []domain.Territory {
	regions := make([]domain.Territory, 0, len(records))
	for _, rec := range records {
		t := domain.Territory{
			ID:   firstString(rec, regionIDFields...),
			Name: firstString(rec, regionNameFields...),
			Type: domain.TerritoryRegion,
		}
		if t.ID == "" || t.Name == "" {
			logger.Debug("Dropping incomplete region record", zap.String("raw", rec.Raw))
			continue
		}
		regions = append(regions, t)
	}
	return regions
}

func normalizeMunicipalities(records []gjson.Result, regionCode string, logger *zap.Logger) []domain.Territory {
	municipalities := make([]domain.Territory, 0, len(records))
	for _, rec := range records {
		t := domain.Territory{
			ID:       firstString(rec, municipalityIDFields...),
			Name:     firstString(rec, municipalityNameFields...),
			Type:     domain.TerritoryMunicipality,
			RegionID: firstString(rec, municipalityRegionFields...),
		}
		if t.ID == "" || t.Name == "" {
			logger.Debug("Dropping incomplete municipality record", zap.String("raw", rec.Raw))
			continue
		}
		if t.RegionID == "" {
			t.RegionID = regionCode
		}
		municipalities = append(municipalities, t)
	}
	return municipalities
}

func normalizePrices(records []gjson.Result, f domain.ProductFilter, logger *zap.Logger) []domain.PriceRecord {
	prices := make([]domain.PriceRecord, 0, len(records))
	for _, rec := range records {
		rawDate := firstString(rec, priceDateFields...)
		municipality := firstString(rec, priceMunicipalityFields...)
		value, hasValue := firstNumber(rec, priceValueFields...)

		if rawDate == "" || municipality == "" || !hasValue {
			logger.Debug("Dropping incomplete price record", zap.String("raw", rec.Raw))
			continue
		}
		if value < 0 {
			logger.Debug("Dropping price record with negative value", zap.String("raw", rec.Raw))
			continue
		}
		date, err := domain.ParseDate(rawDate)
		if err != nil {
			logger.Debug("Dropping price record with invalid date", zap.String("raw", rec.Raw), zap.Error(err))
			continue
		}

		id := firstString(rec, priceIDFields...)
		if id == "" {
			id = domain.PriceRecordID(f.ProductID, date, municipality)
		}

		prices = append(prices, domain.PriceRecord{
			ID:           id,
			ProductID:    f.ProductID,
			ProductName:  firstString(rec, priceProductNameFields...),
			Unit:         f.Unit,
			Date:         date,
			Municipality: municipality,
			UnitPrice:    value,
		})
	}
	return prices
}
