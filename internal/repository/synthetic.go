package repository

import (
	"math"
	"math/rand/v2"
	"strings"
	"time"
	"unicode"

	"banco-precos/internal/domain"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SyntheticProductPrefix marks product ids served from the synthetic catalog
// when the registry is unreachable
const SyntheticProductPrefix = "10"

const (
	syntheticUnit          = "CAIXA 100,00 UN"
	defaultSyntheticPrice  = 50.0
	syntheticPriceSpread   = 0.15
	syntheticMonths        = 12
	syntheticMonthStepDays = 30
)

var syntheticCatalog = []domain.Product{
	{ID: "1001", Name: "AGULHA DESCARTÁVEL 13X4,5", Unit: syntheticUnit, Synthetic: true},
	{ID: "1002", Name: "AGULHA DESCARTÁVEL 25X7", Unit: syntheticUnit, Synthetic: true},
	{ID: "1003", Name: "AGULHA DESCARTÁVEL 25X8", Unit: syntheticUnit, Synthetic: true},
	{ID: "1004", Name: "AGULHA DESCARTÁVEL 40X12", Unit: syntheticUnit, Synthetic: true},
	{ID: "1005", Name: "AGULHA GENGIVAL CURTA 30G", Unit: syntheticUnit, Synthetic: true},
	{ID: "1006", Name: "AGULHA GENGIVAL LONGA 27G", Unit: syntheticUnit, Synthetic: true},
	{ID: "1007", Name: "AGULHA PARA COLETA A VÁCUO 25X7", Unit: syntheticUnit, Synthetic: true},
	{ID: "1008", Name: "AGULHA PARA COLETA A VÁCUO 25X8", Unit: syntheticUnit, Synthetic: true},
	{ID: "1009", Name: "AGULHA HIPODERMICA 20X5,5", Unit: syntheticUnit, Synthetic: true},
	{ID: "1010", Name: "AGULHA HIPODERMICA 30X7", Unit: syntheticUnit, Synthetic: true},
}

var syntheticBasePrices = map[string]float64{
	"1001": 32.50,
	"1002": 35.75,
	"1003": 35.90,
	"1004": 43.25,
	"1005": 89.90,
	"1006": 93.50,
	"1007": 47.80,
	"1008": 48.20,
	"1009": 37.50,
	"1010": 39.75,
}

var syntheticPriceMunicipalities = []string{
	"BELO HORIZONTE",
	"CONTAGEM",
	"BETIM",
	"JUIZ DE FORA",
	"UBERLÂNDIA",
	"MONTES CLAROS",
	"DIVINÓPOLIS",
	"POÇOS DE CALDAS",
	"UBERABA",
	"IPATINGA",
}

// Minas Gerais planning regions
var fallbackRegions = []domain.Territory{
	{ID: "1", Name: "Central", Type: domain.TerritoryRegion, Synthetic: true},
	{ID: "2", Name: "Zona da Mata", Type: domain.TerritoryRegion, Synthetic: true},
	{ID: "3", Name: "Sul de Minas", Type: domain.TerritoryRegion, Synthetic: true},
	{ID: "4", Name: "Triângulo Mineiro", Type: domain.TerritoryRegion, Synthetic: true},
	{ID: "5", Name: "Alto Paranaíba", Type: domain.TerritoryRegion, Synthetic: true},
	{ID: "6", Name: "Centro-Oeste", Type: domain.TerritoryRegion, Synthetic: true},
	{ID: "7", Name: "Noroeste", Type: domain.TerritoryRegion, Synthetic: true},
	{ID: "8", Name: "Norte", Type: domain.TerritoryRegion, Synthetic: true},
	{ID: "9", Name: "Jequitinhonha/Mucuri", Type: domain.TerritoryRegion, Synthetic: true},
	{ID: "10", Name: "Rio Doce", Type: domain.TerritoryRegion, Synthetic: true},
}

// Largest municipalities, keyed by IBGE code
var fallbackMunicipalities = []domain.Territory{
	municipality("3106200", "BELO HORIZONTE", "1"),
	municipality("3118601", "CONTAGEM", "1"),
	municipality("3106705", "BETIM", "1"),
	municipality("3136702", "JUIZ DE FORA", "2"),
	municipality("3170206", "UBERLÂNDIA", "4"),
	municipality("3143302", "MONTES CLAROS", "8"),
	municipality("3122306", "DIVINÓPOLIS", "6"),
	municipality("3151800", "POÇOS DE CALDAS", "3"),
	municipality("3170107", "UBERABA", "4"),
	municipality("3131307", "IPATINGA", "10"),
	municipality("3154606", "RIBEIRÃO DAS NEVES", "1"),
	municipality("3157807", "SANTA LUZIA", "1"),
	municipality("3127701", "GOVERNADOR VALADARES", "10"),
	municipality("3167202", "SETE LAGOAS", "1"),
	municipality("3119401", "CORONEL FABRICIANO", "10"),
	municipality("3170701", "VARGINHA", "3"),
	municipality("3148004", "PATOS DE MINAS", "5"),
	municipality("3126109", "FORMIGA", "6"),
	municipality("3138203", "LAVRAS", "3"),
	municipality("3168606", "TEÓFILO OTONI", "9"),
}

var stateTerritory = domain.Territory{ID: "MG", Name: "MINAS GERAIS", Type: domain.TerritoryState}

func municipality(id, name, region string) domain.Territory {
	return domain.Territory{
		ID:        id,
		Name:      name,
		Type:      domain.TerritoryMunicipality,
		RegionID:  region,
		Synthetic: true,
	}
}

// IsSyntheticProductID reports whether id is in the reserved namespace
func IsSyntheticProductID(id string) bool {
	return strings.HasPrefix(strings.TrimSpace(id), SyntheticProductPrefix)
}

func syntheticProduct(id string) (domain.Product, bool) {
	for _, p := range syntheticCatalog {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

// foldAccents lower-cases s and strips diacritics so "hipodérmica" matches
// "HIPODERMICA"
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

func syntheticProductsMatching(term string) []domain.Product {
	term = foldAccents(strings.TrimSpace(term))
	var matches []domain.Product
	for _, p := range syntheticCatalog {
		if strings.Contains(foldAccents(p.Name), term) {
			matches = append(matches, p)
		}
	}
	return matches
}

func isFallbackRegion(code string) bool {
	for _, r := range fallbackRegions {
		if r.ID == code {
			return true
		}
	}
	return false
}

func fallbackMunicipalitiesIn(regionCode string) []domain.Territory {
	out := make([]domain.Territory, 0, len(fallbackMunicipalities))
	for _, m := range fallbackMunicipalities {
		if regionCode == "" || m.RegionID == regionCode {
			out = append(out, m)
		}
	}
	return out
}

// PriceGenerator fabricates a year of monthly prices around a product's base
// price for every municipality in the synthetic roster
type PriceGenerator struct {
	now     func() time.Time
	uniform func() float64
}

// NewPriceGenerator uses time.Now and math/rand/v2. uniform must return values
// in [0, 1).
func NewPriceGenerator(now func() time.Time, uniform func() float64) *PriceGenerator {
	if now == nil {
		now = time.Now
	}
	if uniform == nil {
		uniform = rand.Float64
	}
	return &PriceGenerator{now: now, uniform: uniform}
}

// BasePrice returns the reference price of a synthetic product
func BasePrice(productID string) float64 {
	if price, ok := syntheticBasePrices[productID]; ok {
		return price
	}
	return defaultSyntheticPrice
}

// Generate returns syntheticMonths x len(roster) records
func (g *PriceGenerator) Generate(productID, unit string) []domain.PriceRecord {
	base := BasePrice(productID)
	name := ""
	if p, ok := syntheticProduct(productID); ok {
		name = p.Name
	}

	today := g.now()
	records := make([]domain.PriceRecord, 0, syntheticMonths*len(syntheticPriceMunicipalities))
	for month := 0; month < syntheticMonths; month++ {
		date := domain.DateOf(today.AddDate(0, 0, -syntheticMonthStepDays*month))

		for _, municipality := range syntheticPriceMunicipalities {
			variation := (g.uniform()*2 - 1) * syntheticPriceSpread

			records = append(records, domain.PriceRecord{
				ID:           domain.PriceRecordID(productID, date, municipality),
				ProductID:    productID,
				ProductName:  name,
				Unit:         unit,
				Date:         date,
				Municipality: municipality,
				UnitPrice:    boundedPrice(base, variation),
				Synthetic:    true,
			})
		}
	}
	return records
}

// boundedPrice rounds base*(1+variation) to cents without leaving the
// [base*(1-spread), base*(1+spread)] band
func boundedPrice(base, variation float64) float64 {
	price := math.Round(base*(1+variation)*100) / 100

	if low := base * (1 - syntheticPriceSpread); price < low {
		price = math.Ceil(low*100) / 100
	}
	if high := base * (1 + syntheticPriceSpread); price > high {
		price = math.Floor(high*100) / 100
	}
	return price
}
