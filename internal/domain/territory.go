package domain

import (
	"errors"
	"strings"
)

var ErrUnknownTerritoryType = errors.New("unknown territory type")

// TerritoryType is the registry's territorial-limit discriminator
type TerritoryType string

const (
	TerritoryState        TerritoryType = "ESTADO"
	TerritoryRegion       TerritoryType = "REGIAO"
	TerritoryMunicipality TerritoryType = "MUNICIPIO"
)

// ParseTerritoryType accepts the registry value or its English name,
// case-insensitively.
func ParseTerritoryType(s string) (TerritoryType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ESTADO", "STATE":
		return TerritoryState, nil
	case "REGIAO", "REGION":
		return TerritoryRegion, nil
	case "MUNICIPIO", "MUNICIPALITY":
		return TerritoryMunicipality, nil
	}
	return "", ErrUnknownTerritoryType
}

// Territory is a state, planning region or municipality
type Territory struct {
	ID   string        `json:"id"`
	Name string        `json:"name"`
	Type TerritoryType `json:"type"`
	// RegionID is only set on municipalities and is a label, not a reference
	RegionID  string `json:"region_id,omitempty"`
	Synthetic bool   `json:"is_synthetic"`
}

// TerritoryScope is the geographic filter of a price query. The code lists are
// treated as sets.
type TerritoryScope struct {
	Type              TerritoryType `json:"territory_type"`
	RegionCodes       []string      `json:"region_codes,omitempty"`
	MunicipalityCodes []string      `json:"municipality_codes,omitempty"`
}
