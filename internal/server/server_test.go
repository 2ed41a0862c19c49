package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"banco-precos/internal/cache"
	"banco-precos/internal/config"
	"banco-precos/internal/domain"
	"banco-precos/internal/gateway"
	"banco-precos/internal/transport"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// fakeRegistry answers product and price queries and fails everything else
func fakeRegistry(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/produtos":
			w.Write([]byte(`[{"idProduto":"77","descricao":"SERINGA 5ML","unidade":"UN"}]`))
		case "/precos/historico":
			w.Write([]byte(`[{"dataNotaFiscal":"2024-01-10","municipio":"BETIM","valorUnitario":4.5}]`))
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func testConfig(baseURL string) *config.Config {
	cfg := config.FromViper(viper.New())
	cfg.Source.BaseURL = baseURL
	cfg.Source.Timeout = 2 * time.Second
	return cfg
}

func newTestRouter(t *testing.T, cfg *config.Config, redisClient *redis.Client) http.Handler {
	t.Helper()
	c := cache.New(cache.NewMemoryStore(), cache.Options{Enabled: cfg.Cache.Enabled, DefaultTTL: cfg.Cache.Expiration}, zap.NewNop())
	return NewRouter(cfg, zap.NewNop(), Deps{
		Cache:   c,
		Fetcher: gateway.NewWithTimeout(cfg.Source.Timeout, zap.NewNop()),
		Redis:   redisClient,
	})
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestHealth(t *testing.T) {
	registry, _ := fakeRegistry(t)
	w := get(newTestRouter(t, testConfig(registry.URL), nil), "/health")

	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected health response %d %s", w.Code, w.Body.String())
	}
}

func TestPriceHistoryEndToEnd(t *testing.T) {
	registry, hits := fakeRegistry(t)
	router := newTestRouter(t, testConfig(registry.URL), nil)

	target := "/api/prices/history?product_id=77&unit=UN&territory_type=MUNICIPIO&municipality_codes=3106705"
	first := get(router, target)
	second := get(router, target)

	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("unexpected status %d / %d: %s", first.Code, second.Code, first.Body.String())
	}
	var body transport.ListResponse[domain.PriceRecord]
	if err := json.Unmarshal(first.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Count != 1 || body.Data[0].ProductName != "SERINGA 5ML" || body.Data[0].Synthetic {
		t.Fatalf("unexpected records %+v", body.Data)
	}
	// product lookup and price history, each once
	if hits.Load() != 2 {
		t.Fatalf("expected 2 registry requests, got %d", hits.Load())
	}
}

func TestRegistryOutageServesFallbacks(t *testing.T) {
	registry, _ := fakeRegistry(t)
	router := newTestRouter(t, testConfig(registry.URL), nil)

	w := get(router, "/api/regions")
	var regions transport.ListResponse[domain.Territory]
	if err := json.Unmarshal(w.Body.Bytes(), &regions); err != nil {
		t.Fatal(err)
	}
	if w.Code != http.StatusOK || regions.Count != 10 || !regions.Data[0].Synthetic {
		t.Fatalf("expected fallback regions, got %d %+v", w.Code, regions)
	}
}

func TestRegistryOutagePriceHistoryLimitedToCatalog(t *testing.T) {
	registry := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(registry.Close)
	router := newTestRouter(t, testConfig(registry.URL), nil)

	w := get(router, "/api/prices/history?product_id=1003&unit=UN")
	var body transport.ListResponse[domain.PriceRecord]
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if w.Code != http.StatusOK || body.Count != 120 || !body.Data[0].Synthetic {
		t.Fatalf("expected synthetic prices for a catalog product, got %d count=%d", w.Code, body.Count)
	}

	// reserved prefix but not in the catalog
	if w := get(router, "/api/prices/history?product_id=1011&unit=UN"); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for an id outside the catalog, got %d %s", w.Code, w.Body.String())
	}
}

func TestAdminClearCacheForcesRefetch(t *testing.T) {
	registry, hits := fakeRegistry(t)
	router := newTestRouter(t, testConfig(registry.URL), nil)

	get(router, "/api/products/search?q=seringa")
	get(router, "/api/products/search?q=seringa")
	if hits.Load() != 1 {
		t.Fatalf("expected a cached search, got %d requests", hits.Load())
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/admin/cache?prefix=products:", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	get(router, "/api/products/search?q=seringa")
	if hits.Load() != 2 {
		t.Fatalf("expected a refetch after invalidation, got %d requests", hits.Load())
	}
}

func TestRateLimitEnabled(t *testing.T) {
	registry, _ := fakeRegistry(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := testConfig(registry.URL)
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.RequestsPerWindow = 2
	cfg.RateLimit.Window = time.Minute
	router := newTestRouter(t, cfg, client)

	codes := []int{get(router, "/health").Code, get(router, "/health").Code, get(router, "/health").Code}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence %v", codes)
	}
}

func TestServerClose(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cfg := testConfig("http://registry.invalid")
	c := cache.New(cache.NewMemoryStore(), cache.Options{Enabled: true}, zap.NewNop())

	srv := NewServer(cfg, zap.NewNop(), Deps{Cache: c, Fetcher: gateway.New(nil, zap.NewNop()), Redis: client})
	if srv.Addr != ":8080" {
		t.Fatalf("unexpected addr %q", srv.Addr)
	}
	if err := srv.Close(); err != nil {
		t.Fatal(err)
	}
	if err := client.Ping(t.Context()).Err(); err == nil {
		t.Fatal("redis client should be closed")
	}
}
