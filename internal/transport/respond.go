package transport

import (
	"errors"
	"net/http"
	"strings"

	"banco-precos/internal/middleware"
	"banco-precos/internal/service"

	"go.uber.org/zap"
)

// ListResponse wraps collection results
type ListResponse[T any] struct {
	Data  []T `json:"data"`
	Count int `json:"count"`
}

func newListResponse[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Data: items, Count: len(items)}
}

// respondServiceError maps service sentinels to HTTP statuses
func respondServiceError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrTerritoryNotFound):
		middleware.RespondWithError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrSearchTermTooShort),
		errors.Is(err, service.ErrInvalidTerritoryType),
		errors.Is(err, service.ErrMissingRegionCodes),
		errors.Is(err, service.ErrMissingMunicipalityCodes),
		errors.Is(err, service.ErrProductIDRequired),
		errors.Is(err, service.ErrUnitRequired),
		errors.Is(err, service.ErrInvalidPeriod):
		middleware.RespondWithError(w, r, http.StatusBadRequest, err.Error())
	default:
		logger.Error("Request failed", zap.String("path", r.URL.Path), zap.Error(err))
		middleware.RespondWithError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

// validateOrRespond writes a 400 and reports false when req is invalid
func validateOrRespond(w http.ResponseWriter, r *http.Request, logger *zap.Logger, req interface{}) bool {
	err := middleware.ValidateRequest(req)
	if err == nil {
		return true
	}
	logger.Debug("Request validation failed", zap.String("path", r.URL.Path), zap.Error(err))

	if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
		middleware.RespondWithValidationErrors(w, r, validationErrors)
		return false
	}
	middleware.RespondWithError(w, r, http.StatusBadRequest, "invalid request parameters")
	return false
}

// splitCodes accepts both region_codes=1,2 and region_codes=1&region_codes=2
func splitCodes(values []string) []string {
	var codes []string
	for _, v := range values {
		for _, code := range strings.Split(v, ",") {
			if code = strings.TrimSpace(code); code != "" {
				codes = append(codes, code)
			}
		}
	}
	return codes
}
