package service

import (
	"context"
	"fmt"
	"strings"
)

// CacheInvalidator is the administrative surface of the response cache
type CacheInvalidator interface {
	Clear(ctx context.Context) error
	ClearByPrefix(ctx context.Context, prefix string) error
}

// CacheService defines the interface for operational cache invalidation
type CacheService interface {
	Clear(ctx context.Context) error
	ClearByPrefix(ctx context.Context, prefix string) error
}

type cacheService struct {
	cache CacheInvalidator
}

// NewCacheService creates a new instance of CacheService
func NewCacheService(cache CacheInvalidator) CacheService {
	return &cacheService{cache: cache}
}

func (s *cacheService) Clear(ctx context.Context) error {
	if err := s.cache.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// ClearByPrefix clears everything when prefix is blank
func (s *cacheService) ClearByPrefix(ctx context.Context, prefix string) error {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return s.Clear(ctx)
	}
	if err := s.cache.ClearByPrefix(ctx, prefix); err != nil {
		return fmt.Errorf("failed to clear cache prefix %q: %w", prefix, err)
	}
	return nil
}
