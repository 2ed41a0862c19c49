package service

import (
	"context"
	"errors"
	"fmt"

	"banco-precos/internal/domain"
	"banco-precos/internal/repository"
)

var (
	ErrInvalidTerritoryType = errors.New("invalid territory type")
	ErrTerritoryNotFound    = errors.New("territory not found")
)

// TerritoryService defines the interface for territory lookups
type TerritoryService interface {
	Regions(ctx context.Context) []domain.Territory
	Municipalities(ctx context.Context, regionCode string) []domain.Territory
	Territory(ctx context.Context, id, territoryType string) (*domain.Territory, error)
}

type territoryService struct {
	territories repository.TerritoryRepository
}

// NewTerritoryService creates a new instance of TerritoryService
func NewTerritoryService(territories repository.TerritoryRepository) TerritoryService {
	return &territoryService{territories: territories}
}

func (s *territoryService) Regions(ctx context.Context) []domain.Territory {
	return s.territories.GetRegions(ctx)
}

// Municipalities lists every municipality when regionCode is empty
func (s *territoryService) Municipalities(ctx context.Context, regionCode string) []domain.Territory {
	return s.territories.GetMunicipalities(ctx, regionCode)
}

func (s *territoryService) Territory(ctx context.Context, id, territoryType string) (*domain.Territory, error) {
	t, err := parseTerritoryType(territoryType)
	if err != nil {
		return nil, err
	}
	territory := s.territories.GetTerritory(ctx, id, t)
	if territory == nil {
		return nil, ErrTerritoryNotFound
	}
	return territory, nil
}

func parseTerritoryType(s string) (domain.TerritoryType, error) {
	t, err := domain.ParseTerritoryType(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidTerritoryType, s)
	}
	return t, nil
}
