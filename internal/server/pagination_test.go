package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		name  string
		page  string
		limit string
		want  struct {
			page  int
			limit int
			skip  int
		}
	}{
		{
			name:  "defaults for missing values",
			page:  "",
			limit: "",
			want: struct {
				page  int
				limit int
				skip  int
			}{
				page:  1,
				limit: 10,
				skip:  0,
			},
		},
		{
			name:  "defaults for unparsable values",
			page:  "abc",
			limit: "xyz",
			want: struct {
				page  int
				limit int
				skip  int
			}{
				page:  1,
				limit: 10,
				skip:  0,
			},
		},
		{
			name:  "page below one is floored",
			page:  "-3",
			limit: "10",
			want: struct {
				page  int
				limit int
				skip  int
			}{
				page:  1,
				limit: 10,
				skip:  0,
			},
		},
		{
			name:  "limit above maximum is clamped",
			page:  "1",
			limit: "500",
			want: struct {
				page  int
				limit int
				skip  int
			}{
				page:  1,
				limit: 100,
				skip:  0,
			},
		},
		{
			name:  "limit below one is clamped",
			page:  "2",
			limit: "0",
			want: struct {
				page  int
				limit int
				skip  int
			}{
				page:  2,
				limit: 1,
				skip:  1,
			},
		},
		{
			name:  "skip follows page and limit",
			page:  "3",
			limit: "20",
			want: struct {
				page  int
				limit int
				skip  int
			}{
				page:  3,
				limit: 20,
				skip:  40,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePage(tt.page, tt.limit)
			assert.Equal(t, tt.want.page, got.Page)
			assert.Equal(t, tt.want.limit, got.Limit)
			assert.Equal(t, tt.want.skip, got.Skip)
		})
	}
}

func TestBuildPagination(t *testing.T) {
	tests := []struct {
		name       string
		totalCount int
		page       int
		limit      int
		want       struct {
			totalPages int
		}
	}{
		{
			name:       "five items at limit two give three pages",
			totalCount: 5,
			page:       1,
			limit:      2,
			want: struct {
				totalPages int
			}{
				totalPages: 3,
			},
		},
		{
			name:       "empty set still reports one page",
			totalCount: 0,
			page:       1,
			limit:      10,
			want: struct {
				totalPages int
			}{
				totalPages: 1,
			},
		},
		{
			name:       "exact multiple",
			totalCount: 20,
			page:       2,
			limit:      10,
			want: struct {
				totalPages int
			}{
				totalPages: 2,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildPagination(tt.totalCount, tt.page, tt.limit)
			assert.Equal(t, tt.totalCount, got.TotalCount)
			assert.Equal(t, tt.page, got.Page)
			assert.Equal(t, tt.limit, got.Limit)
			assert.Equal(t, tt.want.totalPages, got.TotalPages)
		})
	}
}
