package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func newLimitedHandler(t *testing.T, limit int) (http.Handler, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	limiter := RateLimitMiddleware(client, RateLimitConfig{
		RequestsPerWindow: limit,
		Window:            time.Minute,
		KeyPrefix:         "ratelimit",
	}, zap.NewNop())

	return limiter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})), mr
}

func requestFrom(addr string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/regions", nil)
	req.RemoteAddr = addr
	return req
}

// Property: a client gets exactly RequestsPerWindow successful answers per
// window and a 429 for everything beyond
func TestProperty_RateLimitingBlocksExcessiveRequests(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("excessive requests are blocked with 429", prop.ForAll(
		func(limit int, excess int) bool {
			handler, _ := newLimitedHandler(t, limit)

			ok, blocked := 0, 0
			for i := 0; i < limit+excess; i++ {
				w := httptest.NewRecorder()
				// source ports vary per connection but the client is the same
				handler.ServeHTTP(w, requestFrom("192.168.1.100:"+strconv.Itoa(40000+i)))

				switch w.Code {
				case http.StatusOK:
					ok++
				case http.StatusTooManyRequests:
					blocked++
					if w.Header().Get("Retry-After") == "" {
						return false
					}
				}
			}
			return ok == limit && blocked == excess
		},
		gen.IntRange(1, 15),
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRateLimit_ClientsAreIndependent(t *testing.T) {
	handler, _ := newLimitedHandler(t, 1)

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, requestFrom("10.0.0.1:1000"))
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, requestFrom("10.0.0.2:1000"))

	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("distinct clients must not share a window: %d, %d", first.Code, second.Code)
	}
	if first.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("unexpected remaining header %q", first.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestRateLimit_WindowExpires(t *testing.T) {
	handler, mr := newLimitedHandler(t, 1)

	handler.ServeHTTP(httptest.NewRecorder(), requestFrom("10.0.0.1:1000"))
	blocked := httptest.NewRecorder()
	handler.ServeHTTP(blocked, requestFrom("10.0.0.1:1000"))
	if blocked.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", blocked.Code)
	}

	mr.FastForward(time.Minute + time.Second)

	allowed := httptest.NewRecorder()
	handler.ServeHTTP(allowed, requestFrom("10.0.0.1:1000"))
	if allowed.Code != http.StatusOK {
		t.Fatalf("expected a new window, got %d", allowed.Code)
	}
}

func TestRateLimit_RedisFailureAllowsRequest(t *testing.T) {
	handler, mr := newLimitedHandler(t, 1)
	mr.SetError("ERR injected failure")

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestFrom("10.0.0.1:1000"))
		if w.Code != http.StatusOK {
			t.Fatalf("requests must pass while redis is failing, got %d", w.Code)
		}
	}
}
