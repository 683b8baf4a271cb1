package server

import (
	"strconv"

	"taskapi/internal/domain/models"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// PageParams is the normalized form of the page/limit query parameters.
type PageParams struct {
	Page  int
	Limit int
	Skip  int
}

// NormalizePage parses page/limit query values. Missing or unparsable
// values fall back to the defaults, page is floored to 1 and limit is
// clamped to [1, maxLimit].
func NormalizePage(pageStr, limitStr string) PageParams {
	page, err := strconv.Atoi(pageStr)
	if err != nil {
		page = defaultPage
	}
	if page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if limit < 1 {
		limit = 1
	}

	return PageParams{
		Page:  page,
		Limit: limit,
		Skip:  (page - 1) * limit,
	}
}

func BuildPagination(totalCount, page, limit int) models.Pagination {
	totalPages := (totalCount + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}
	return models.Pagination{
		TotalCount: totalCount,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}
}
