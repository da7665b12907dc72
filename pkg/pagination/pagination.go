// Package pagination normalizes page/limit query parameters for list
// endpoints.
package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100
)

// Params holds normalized pagination parameters.
type Params struct {
	Page   int
	Limit  int
	Offset int
}

// Parse reads page and limit from the query string. Malformed or out-of-range
// values fall back to defaults; limit is capped so a single request cannot
// drag an unbounded result set.
func Parse(c *gin.Context) Params {
	page := atoiOr(c.Query("page"), defaultPage)
	limit := atoiOr(c.Query("limit"), defaultLimit)

	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	return Params{Page: page, Limit: limit, Offset: (page - 1) * limit}
}

// TotalPages derives the page count for a result set.
func TotalPages(total int64, limit int) int64 {
	if limit <= 0 {
		return 0
	}
	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	return pages
}

func atoiOr(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
