// internal/api/v2/utils.go
package api

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// PaginatedResponse wraps list results with pagination metadata.
type PaginatedResponse struct {
	Data        any   `json:"data"`
	Total       int64 `json:"total"`
	Limit       int   `json:"limit"`
	Offset      int   `json:"offset"`
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
}

// NewPaginatedResponse builds the standard list envelope.
func NewPaginatedResponse(data any, total int64, limit, offset int) PaginatedResponse {
	if limit <= 0 {
		limit = 1
	}
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	if totalPages < 1 {
		totalPages = 1
	}
	return PaginatedResponse{
		Data:        data,
		Total:       total,
		Limit:       limit,
		Offset:      offset,
		CurrentPage: offset/limit + 1,
		TotalPages:  totalPages,
	}
}

// idParam parses a numeric path parameter.
func idParam(ctx echo.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(v), nil
}

// queryInt parses an integer query parameter, returning def when absent or
// unparseable.
func queryInt(ctx echo.Context, name string, def int) int {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
