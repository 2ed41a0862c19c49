package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"banco-precos/internal/cache"
	"banco-precos/internal/domain"
	"banco-precos/internal/gateway"
	"banco-precos/internal/query"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2024, time.June, 15, 10, 30, 0, 0, time.UTC)

func regionScope(codes ...string) domain.TerritoryScope {
	return domain.TerritoryScope{Type: domain.TerritoryRegion, RegionCodes: codes}
}

func TestNormalizePrices(t *testing.T) {
	records := gjson.Parse(`[
		{"id":"r1","dataNotaFiscal":"2024-03-01T00:00:00","municipio":"BELO HORIZONTE","valorUnitario":12.5,"descricaoProduto":"SERINGA"},
		{"data":"2024-03-02","nomeMunicipio":"BETIM","valor":"R$ 1.234,56"},
		{"dataCompra":"2024-03-03","municipio":"CONTAGEM","preco":"7.25"},
		{"data":"2024-03-04","municipio":"UBERABA","valor":-1},
		{"data":"2024-03-05","valor":3},
		{"data":"not a date","municipio":"BETIM","valor":3},
		{"data":"2024-03-06","municipio":"BETIM"},
		{"data":"2024-03-07","municipio":"BETIM","valor":"NaN"},
		{"data":"2024-03-08","municipio":"BETIM","valor":"Infinity"},
		{"data":"2024-03-09","municipio":"BETIM","valor":"+Inf"},
		{"data":"2024-03-10","municipio":"BETIM","valor":"-Inf"}
	]`).Array()
	filter := domain.ProductFilter{ProductID: "77", Unit: "UN"}

	prices := normalizePrices(records, filter, zap.NewNop())

	if len(prices) != 3 {
		t.Fatalf("expected 3 prices, got %d: %+v", len(prices), prices)
	}

	first := prices[0]
	if first.ID != "r1" || first.ProductName != "SERINGA" || first.UnitPrice != 12.5 {
		t.Errorf("unexpected first record %+v", first)
	}
	if first.Date != domain.NewDate(2024, time.March, 1) {
		t.Errorf("expected timestamp truncated to date, got %s", first.Date)
	}

	second := prices[1]
	if second.ID != "77_2024-03-02_BETIM" {
		t.Errorf("expected derived id, got %q", second.ID)
	}
	if second.UnitPrice != 1234.56 {
		t.Errorf("expected Brazilian decimal parsed, got %v", second.UnitPrice)
	}
	if prices[2].UnitPrice != 7.25 || prices[2].Municipality != "CONTAGEM" {
		t.Errorf("unexpected third record %+v", prices[2])
	}

	for _, p := range prices {
		if p.ProductID != "77" || p.Unit != "UN" || p.Synthetic {
			t.Errorf("record %s does not carry the query's product and unit", p.ID)
		}
	}
	if _, err := json.Marshal(prices); err != nil {
		t.Fatalf("normalized prices must be JSON encodable: %v", err)
	}
}

func TestNormalizePrices_FallsThroughNonFiniteValue(t *testing.T) {
	records := gjson.Parse(`[{"data":"2024-03-01","municipio":"BETIM","valorUnitario":"NaN","preco":"4,50"}]`).Array()

	prices := normalizePrices(records, domain.ProductFilter{ProductID: "77", Unit: "UN"}, zap.NewNop())

	if len(prices) != 1 || prices[0].UnitPrice != 4.5 {
		t.Fatalf("expected the next finite price field, got %+v", prices)
	}
}

func TestGetPriceHistory_RequiresProductAndUnit(t *testing.T) {
	fetcher := alwaysOK(`[]`)
	deps, _ := newTestDeps(fetcher, true)
	repo := NewPriceRepository(deps, nil)
	ctx := context.Background()

	for _, f := range []domain.ProductFilter{{Unit: "UN"}, {ProductID: "77"}, {ProductID: " ", Unit: " "}} {
		if got := repo.GetPriceHistory(ctx, f, domain.TerritoryScope{Type: domain.TerritoryState}, domain.PricePeriod{}); got == nil || len(got) != 0 {
			t.Fatalf("expected empty list for %+v, got %#v", f, got)
		}
	}
	if fetcher.callCount() != 0 {
		t.Fatal("registry must not be queried without product and unit")
	}
}

func TestGetPriceHistory_SendsRegistryParameters(t *testing.T) {
	fetcher := alwaysOK(`[{"data":"2024-03-02","municipio":"BETIM","valor":10}]`)
	deps, _ := newTestDeps(fetcher, true)
	repo := NewPriceRepository(deps, nil)
	year := 2024

	prices := repo.GetPriceHistory(context.Background(),
		domain.ProductFilter{ProductID: "77", Unit: "UN"},
		regionScope("2", "1", "2"),
		domain.PricePeriod{Year: &year},
	)

	if len(prices) != 1 {
		t.Fatalf("expected one record, got %+v", prices)
	}
	call := fetcher.lastCall()
	if call.endpoint != testEndpoints.PriceHistory {
		t.Fatalf("unexpected endpoint %s", call.endpoint)
	}
	want := query.Params{
		query.ParamProductID:     "77",
		query.ParamUnit:          "UN",
		query.ParamTerritoryType: "REGIAO",
		query.ParamRegionCodes:   "1,2",
		query.ParamYear:          "2024",
	}
	if len(call.params) != len(want) {
		t.Fatalf("expected params %v, got %v", want, call.params)
	}
	for k, v := range want {
		if call.params[k] != v {
			t.Errorf("param %s: got %q, want %q", k, call.params[k], v)
		}
	}
}

func TestGetPriceHistory_EquivalentQueriesShareCacheEntry(t *testing.T) {
	fetcher := alwaysOK(`[{"data":"2024-03-02","municipio":"BETIM","valor":10}]`)
	deps, _ := newTestDeps(fetcher, true)
	repo := NewPriceRepository(deps, nil)
	ctx := context.Background()
	filter := domain.ProductFilter{ProductID: "77", Unit: "UN"}

	repo.GetPriceHistory(ctx, filter, regionScope("2", "1"), domain.PricePeriod{})
	repo.GetPriceHistory(ctx, filter, regionScope("1", "2", "1"), domain.PricePeriod{})

	if fetcher.callCount() != 1 {
		t.Fatalf("reordered region codes should hit the cache, got %d calls", fetcher.callCount())
	}
}

// Property: generated prices for a reserved product stay within 15% of its
// base price, cover 12 monthly dates for each of 10 municipalities and are
// cached like genuine data
func TestProperty_SyntheticPriceBounds(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("synthetic prices stay in band", prop.ForAll(
		func(seed []float64) bool {
			i := 0
			uniform := func() float64 {
				v := seed[i%len(seed)]
				i++
				return v
			}
			fetcher := alwaysFailing()
			deps, store := newTestDeps(fetcher, true)
			repo := NewPriceRepository(deps, NewPriceGenerator(func() time.Time { return fixedNow }, uniform))

			filter := domain.ProductFilter{ProductID: "1001", Unit: "CAIXA 100,00 UN"}
			prices := repo.GetPriceHistory(context.Background(), filter, domain.TerritoryScope{Type: domain.TerritoryState}, domain.PricePeriod{})

			if len(prices) != 120 {
				return false
			}
			low, high := 32.50*0.85, 32.50*1.15
			dates := map[domain.Date]int{}
			for _, p := range prices {
				if p.UnitPrice < low || p.UnitPrice > high || !p.Synthetic {
					return false
				}
				dates[p.Date]++
			}
			if len(dates) != 12 {
				return false
			}
			for month := 0; month < 12; month++ {
				if dates[domain.DateOf(fixedNow.AddDate(0, 0, -30*month))] != 10 {
					return false
				}
			}
			return store.Len() == 1
		},
		gen.SliceOfN(16, gen.Float64Range(0, 0.999999)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestPriceGenerator_Extremes(t *testing.T) {
	for _, u := range []float64{0, 0.5, 0.9999999999} {
		g := NewPriceGenerator(func() time.Time { return fixedNow }, func() float64 { return u })
		for _, p := range g.Generate("1005", "UN") {
			if p.UnitPrice < 89.90*0.85 || p.UnitPrice > 89.90*1.15 {
				t.Fatalf("u=%v produced %v outside the band", u, p.UnitPrice)
			}
			if p.ProductName != "AGULHA GENGIVAL CURTA 30G" {
				t.Fatalf("unexpected product name %q", p.ProductName)
			}
		}
	}
}

func TestBasePrice(t *testing.T) {
	if BasePrice("1001") != 32.50 || BasePrice("1010") != 39.75 {
		t.Fatal("unexpected catalog base prices")
	}
	if BasePrice("1077") != 50 {
		t.Fatalf("expected default base price, got %v", BasePrice("1077"))
	}
}

func TestGetPriceHistory_NonReservedFailureIsEmpty(t *testing.T) {
	fetcher := alwaysFailing()
	deps, store := newTestDeps(fetcher, true)
	repo := NewPriceRepository(deps, nil)

	prices := repo.GetPriceHistory(context.Background(),
		domain.ProductFilter{ProductID: "9999", Unit: "UN"},
		domain.TerritoryScope{Type: domain.TerritoryState},
		domain.PricePeriod{},
	)
	if prices == nil || len(prices) != 0 {
		t.Fatalf("expected empty list, got %#v", prices)
	}
	if store.Len() != 0 {
		t.Fatal("a failure without fallback must not be cached")
	}
}

func TestGetPriceHistory_ThroughHTTPGateway(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/api/public/precos/historico" || r.URL.Query().Get("idProduto") != "77" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"dataNotaFiscal":"2024-01-10","municipio":"BETIM","valorUnitario":"4,50"}]}`))
	}))
	defer srv.Close()

	store := cache.NewMemoryStore()
	deps := Deps{
		Cache:     cache.New(store, cache.Options{Enabled: true, DefaultTTL: time.Hour}, zap.NewNop()),
		Fetcher:   gateway.NewWithTimeout(time.Second, zap.NewNop()),
		Endpoints: gateway.EndpointsFor(srv.URL + "/api/public"),
		Logger:    zap.NewNop(),
	}
	repo := NewPriceRepository(deps, nil)
	filter := domain.ProductFilter{ProductID: "77", Unit: "UN"}
	scope := domain.TerritoryScope{Type: domain.TerritoryState}

	prices := repo.GetPriceHistory(context.Background(), filter, scope, domain.PricePeriod{})
	repo.GetPriceHistory(context.Background(), filter, scope, domain.PricePeriod{})

	if len(prices) != 1 || prices[0].UnitPrice != 4.5 || prices[0].ID != "77_2024-01-10_BETIM" {
		t.Fatalf("unexpected prices %+v", prices)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected one upstream request, got %d", hits.Load())
	}
}

func TestGetPriceHistory_UpstreamErrorFallsBackForReservedID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	deps := Deps{
		Cache:     cache.New(cache.NewMemoryStore(), cache.Options{Enabled: true}, zap.NewNop()),
		Fetcher:   gateway.NewWithTimeout(time.Second, zap.NewNop()),
		Endpoints: gateway.EndpointsFor(srv.URL),
		Logger:    zap.NewNop(),
	}
	prices := NewPriceRepository(deps, NewPriceGenerator(func() time.Time { return fixedNow }, nil)).
		GetPriceHistory(context.Background(),
			domain.ProductFilter{ProductID: "1003", Unit: "UN"},
			domain.TerritoryScope{Type: domain.TerritoryState},
			domain.PricePeriod{},
		)

	if len(prices) != 120 || prices[0].ProductName != "AGULHA DESCARTÁVEL 25X8" {
		t.Fatalf("expected synthetic history, got %d records", len(prices))
	}
}
