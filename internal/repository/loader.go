package repository

import (
	"context"

	"banco-precos/internal/cache"
	"banco-precos/internal/gateway"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Deps are the collaborators shared by every repository
type Deps struct {
	Cache     *cache.Cache
	Fetcher   gateway.Fetcher
	Endpoints gateway.Endpoints
	Logger    *zap.Logger
}

// loader runs the cache -> registry -> normalize -> cache pipeline. Concurrent
// misses on the same key share one registry call.
type loader struct {
	cache   *cache.Cache
	fetcher gateway.Fetcher
	group   singleflight.Group
	logger  *zap.Logger
}

func newLoader(deps Deps) *loader {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &loader{
		cache:   deps.Cache,
		fetcher: deps.Fetcher,
		logger:  logger,
	}
}

// request describes one cached registry query
type request[T any] struct {
	key   string
	fetch func(ctx context.Context) gateway.Result
	// normalize receives nil records for an empty outcome
	normalize func(records []gjson.Result) T
	// fallback reports false when the query is outside the synthetic namespace
	fallback func() (T, bool)
}

// load never fails: a failed fetch resolves to synthetic data or the zero value
func load[T any](ctx context.Context, l *loader, req request[T]) T {
	var cached T
	if l.cache.GetJSON(ctx, req.key, &cached) {
		return cached
	}

	ch := l.group.DoChan(req.key, func() (any, error) {
		// the flight outlives a cancelled first caller so other waiters still
		// get a result; the gateway's client timeout bounds it
		flightCtx := context.WithoutCancel(ctx)

		var fresh T
		if l.cache.GetJSON(flightCtx, req.key, &fresh) {
			return fresh, nil
		}
		return resolve(flightCtx, l, req), nil
	})

	select {
	case res := <-ch:
		if res.Shared {
			l.logger.Debug("Shared in-flight registry query", zap.String("key", req.key))
		}
		return res.Val.(T)
	case <-ctx.Done():
		var zero T
		return zero
	}
}

func resolve[T any](ctx context.Context, l *loader, req request[T]) T {
	res := req.fetch(ctx)

	if res.Failed() {
		value, ok := req.fallback()
		if !ok {
			l.logger.Warn("Registry unavailable and no fallback applies",
				zap.String("key", req.key),
				zap.Error(res.Err),
			)
			var zero T
			return zero
		}

		l.logger.Info("Registry unavailable, serving synthetic data",
			zap.String("key", req.key),
			zap.Error(res.Err),
		)
		l.cache.SetJSON(ctx, req.key, value, 0)
		return value
	}

	value := req.normalize(res.Records)
	l.cache.SetJSON(ctx, req.key, value, 0)
	return value
}
