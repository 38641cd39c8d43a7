package utils

import (
	"math"
	"strings"

	"github.com/google/uuid"

	"schemaboard/internal/errs"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ParseUUID parses s, naming what in the error.
func ParseUUID(s, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, errs.Wrap(errs.ErrKindInvalidInput, "invalid "+what, err)
	}
	return id, nil
}

// Paginate clamps page and limit to usable values.
func Paginate(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

// SortOrder returns order when it is asc or desc, otherwise fallback.
func SortOrder(order, fallback string) string {
	switch order := strings.ToLower(strings.TrimSpace(order)); order {
	case "asc", "desc":
		return order
	}
	return fallback
}

// Pages is the number of pages needed for total items.
func Pages(total, limit int) int {
	if limit < 1 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(limit)))
}
