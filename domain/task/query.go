package task

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Listing defaults and bounds.
const (
	DefaultPage  = 1
	DefaultLimit = 5
	MaxLimit     = 100

	// MaxPage keeps (Page-1)*Limit within int for every allowed limit.
	MaxPage = math.MaxInt/MaxLimit + 1
)

// SortKey is a whitelisted sortable field.
type SortKey string

const (
	SortByDate      SortKey = "date"
	SortByType      SortKey = "type"
	SortByName      SortKey = "name"
	SortByCreatedAt SortKey = "createdAt"

	DefaultSortKey = SortByDate
)

var sortColumns = map[SortKey]string{
	SortByDate:      "date",
	SortByType:      "type",
	SortByName:      "name",
	SortByCreatedAt: "created_at",
}

// SortOrder is asc or desc.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// ErrInvalidPagination is returned when page or limit is not an integer.
var ErrInvalidPagination = errors.New("invalid pagination")

// RawListQuery holds the listing parameters exactly as the client sent them.
type RawListQuery struct {
	Completed string
	SortBy    string
	Order     string
	Page      string
	Limit     string
}

// ListQuery is a normalized listing request. Its zero value lists the first
// page with every default applied once Normalize has run.
type ListQuery struct {
	Completed *bool     `json:"completed,omitempty"`
	SortBy    SortKey   `json:"sort_by"`
	Order     SortOrder `json:"order"`
	Page      int       `json:"page"`
	Limit     int       `json:"limit"`
}

// ParseListQuery turns raw parameters into a ListQuery.
//
// The completed filter and the sort fields are tolerant: unknown values mean
// "no filter" and the default sort. Page and limit are strict: a value that is
// present but not an integer fails with ErrInvalidPagination.
func ParseListQuery(raw RawListQuery) (ListQuery, error) {
	q := ListQuery{
		Completed: parseCompleted(raw.Completed),
		SortBy:    SortKey(raw.SortBy),
		Order:     SortOrder(raw.Order),
	}

	page, err := parseInt("page", raw.Page, DefaultPage)
	if err != nil {
		return ListQuery{}, err
	}
	limit, err := parseInt("limit", raw.Limit, DefaultLimit)
	if err != nil {
		return ListQuery{}, err
	}
	q.Page = page
	q.Limit = limit

	return q.Normalize(), nil
}

// parseCompleted only recognises the exact literals "true" and "false".
func parseCompleted(s string) *bool {
	switch s {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	default:
		return nil
	}
}

func parseInt(name, s string, def int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", ErrInvalidPagination, name, s)
	}
	return n, nil
}

// Normalize applies defaults and clamps. It is idempotent.
func (q ListQuery) Normalize() ListQuery {
	if _, ok := sortColumns[q.SortBy]; !ok {
		q.SortBy = DefaultSortKey
	}
	if q.Order != OrderAsc {
		q.Order = OrderDesc
	}
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Page > MaxPage {
		q.Page = MaxPage
	}
	if q.Limit < 1 {
		q.Limit = 1
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	return q
}

// Offset is the number of matching records skipped before the page.
func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// SortColumn is the store column for SortBy.
func (q ListQuery) SortColumn() string {
	if col, ok := sortColumns[q.SortBy]; ok {
		return col
	}
	return sortColumns[DefaultSortKey]
}

// Desc reports whether the order is descending.
func (q ListQuery) Desc() bool {
	return q.Order != OrderAsc
}

// TotalPages is ceil(total / limit).
func (q ListQuery) TotalPages(total int64) int64 {
	limit := int64(q.Limit)
	if limit < 1 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// CacheKey is a stable encoding of the query, used to key cached pages.
func (q ListQuery) CacheKey() string {
	completed := "any"
	if q.Completed != nil {
		completed = strconv.FormatBool(*q.Completed)
	}
	return fmt.Sprintf("c=%s:s=%s:o=%s:p=%d:l=%d", completed, q.SortBy, q.Order, q.Page, q.Limit)
}

// ListResult is one page of an owner's tasks plus the matching totals.
type ListResult struct {
	Tasks      []Task `json:"tasks"`
	Total      int64  `json:"total"`
	TotalPages int64  `json:"total_pages"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
}
