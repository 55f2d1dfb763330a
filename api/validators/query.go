package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/sitestock-backend/pkg/errors"
	"github.com/angelmondragon/sitestock-backend/pkg/pagination"
)

const maxSearchLen = 120

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// ParsePage reads the $skip and $top list parameters.
func ParsePage(r *http.Request) (pagination.Params, error) {
	skip, err := ParseQueryInt(r, "$skip", 0, 0, 1<<30)
	if err != nil {
		return pagination.Params{}, err
	}
	top, err := ParseQueryInt(r, "$top", pagination.DefaultTop, 1, pagination.MaxTop)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Normalize(skip, top), nil
}

// ParseSearch returns the trimmed, length-capped search term.
func ParseSearch(r *http.Request) string {
	return SanitizeString(r.URL.Query().Get("search"), maxSearchLen)
}

// ParseUUIDParam reads a chi path parameter as a UUID.
func ParseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name).WithDetails(map[string]any{"field": name})
	}
	return id, nil
}
