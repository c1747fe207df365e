package task

import (
	"errors"
	"math"
	"testing"
)

func boolPtr(b bool) *bool { return &b }

func TestParseListQuery_Defaults(t *testing.T) {
	q, err := ParseListQuery(RawListQuery{})
	if err != nil {
		t.Fatalf("ParseListQuery() error = %v", err)
	}

	if q.Completed != nil {
		t.Errorf("Completed = %v, want nil", *q.Completed)
	}
	if q.SortBy != SortByDate {
		t.Errorf("SortBy = %q, want %q", q.SortBy, SortByDate)
	}
	if q.Order != OrderDesc {
		t.Errorf("Order = %q, want %q", q.Order, OrderDesc)
	}
	if q.Page != 1 || q.Limit != 5 {
		t.Errorf("Page/Limit = %d/%d, want 1/5", q.Page, q.Limit)
	}
}

func TestParseListQuery_CompletedTriState(t *testing.T) {
	tests := []struct {
		raw  string
		want *bool
	}{
		{"", nil},
		{"true", boolPtr(true)},
		{"false", boolPtr(false)},
		{"TRUE", nil},
		{"1", nil},
		{"yes", nil},
		{"0", nil},
		{" true", nil},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			q, err := ParseListQuery(RawListQuery{Completed: tt.raw})
			if err != nil {
				t.Fatalf("ParseListQuery() error = %v", err)
			}
			switch {
			case tt.want == nil && q.Completed != nil:
				t.Errorf("Completed = %v, want unset", *q.Completed)
			case tt.want != nil && q.Completed == nil:
				t.Errorf("Completed unset, want %v", *tt.want)
			case tt.want != nil && *q.Completed != *tt.want:
				t.Errorf("Completed = %v, want %v", *q.Completed, *tt.want)
			}
		})
	}
}

func TestParseListQuery_Sort(t *testing.T) {
	tests := []struct {
		name     string
		sortBy   string
		order    string
		wantCol  string
		wantDesc bool
	}{
		{name: "default", wantCol: "date", wantDesc: true},
		{name: "type asc", sortBy: "type", order: "asc", wantCol: "type", wantDesc: false},
		{name: "name desc", sortBy: "name", order: "desc", wantCol: "name", wantDesc: true},
		{name: "createdAt", sortBy: "createdAt", order: "asc", wantCol: "created_at", wantDesc: false},
		{name: "unknown key falls back", sortBy: "password", order: "asc", wantCol: "date", wantDesc: false},
		{name: "injection attempt falls back", sortBy: "date; DROP TABLE tasks", wantCol: "date", wantDesc: true},
		{name: "unknown order is desc", sortBy: "type", order: "sideways", wantCol: "type", wantDesc: true},
		{name: "order is case sensitive", order: "ASC", wantCol: "date", wantDesc: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ParseListQuery(RawListQuery{SortBy: tt.sortBy, Order: tt.order})
			if err != nil {
				t.Fatalf("ParseListQuery() error = %v", err)
			}
			if got := q.SortColumn(); got != tt.wantCol {
				t.Errorf("SortColumn() = %q, want %q", got, tt.wantCol)
			}
			if got := q.Desc(); got != tt.wantDesc {
				t.Errorf("Desc() = %v, want %v", got, tt.wantDesc)
			}
		})
	}
}

func TestParseListQuery_Pagination(t *testing.T) {
	tests := []struct {
		name      string
		page      string
		limit     string
		wantPage  int
		wantLimit int
		wantErr   bool
	}{
		{name: "explicit", page: "3", limit: "10", wantPage: 3, wantLimit: 10},
		{name: "page zero clamps", page: "0", wantPage: 1, wantLimit: 5},
		{name: "negative page clamps", page: "-4", wantPage: 1, wantLimit: 5},
		{name: "limit zero clamps to one", limit: "0", wantPage: 1, wantLimit: 1},
		{name: "limit over max clamps", limit: "5000", wantPage: 1, wantLimit: MaxLimit},
		{name: "huge page clamps", page: "100000000000000000", limit: "100", wantPage: MaxPage, wantLimit: MaxLimit},
		{name: "max int page clamps", page: "9223372036854775807", wantPage: MaxPage, wantLimit: 5},
		{name: "non-numeric page", page: "two", wantErr: true},
		{name: "non-numeric limit", limit: "5abc", wantErr: true},
		{name: "float page", page: "1.5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ParseListQuery(RawListQuery{Page: tt.page, Limit: tt.limit})
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPagination) {
					t.Fatalf("error = %v, want ErrInvalidPagination", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseListQuery() error = %v", err)
			}
			if q.Page != tt.wantPage || q.Limit != tt.wantLimit {
				t.Errorf("Page/Limit = %d/%d, want %d/%d", q.Page, q.Limit, tt.wantPage, tt.wantLimit)
			}
		})
	}
}

func TestListQuery_OffsetAndTotalPages(t *testing.T) {
	for limit := 1; limit <= 12; limit++ {
		for total := int64(0); total <= 40; total++ {
			q := ListQuery{Page: 1, Limit: limit}.Normalize()
			pages := q.TotalPages(total)

			// ceil(total/limit) without floating point
			want := total / int64(limit)
			if total%int64(limit) != 0 {
				want++
			}
			if pages != want {
				t.Fatalf("TotalPages(%d) with limit %d = %d, want %d", total, limit, pages, want)
			}
			if pages*int64(limit) < total || (pages > 0 && (pages-1)*int64(limit) >= total) {
				t.Fatalf("TotalPages(%d) with limit %d = %d does not cover total exactly", total, limit, pages)
			}
		}
	}

	q := ListQuery{Page: 3, Limit: 5}.Normalize()
	if q.Offset() != 10 {
		t.Errorf("Offset() = %d, want 10", q.Offset())
	}

	// the largest page must not wrap the offset
	for _, limit := range []int{1, DefaultLimit, MaxLimit} {
		q := ListQuery{Page: math.MaxInt, Limit: limit}.Normalize()
		if q.Offset() < 0 {
			t.Errorf("Offset() with page %d and limit %d = %d, want >= 0", q.Page, limit, q.Offset())
		}
	}
}

func TestListQuery_NormalizeIdempotent(t *testing.T) {
	inputs := []ListQuery{
		{},
		{SortBy: "bogus", Order: "up", Page: -1, Limit: 1000},
		{Completed: boolPtr(true), SortBy: SortByName, Order: OrderAsc, Page: 2, Limit: 7},
	}
	for _, in := range inputs {
		once := in.Normalize()
		twice := once.Normalize()
		if once.CacheKey() != twice.CacheKey() {
			t.Errorf("Normalize not idempotent: %s vs %s", once.CacheKey(), twice.CacheKey())
		}
	}
}

func TestListQuery_CacheKeyDistinguishesFilter(t *testing.T) {
	base := ListQuery{}.Normalize()
	withTrue := ListQuery{Completed: boolPtr(true)}.Normalize()
	withFalse := ListQuery{Completed: boolPtr(false)}.Normalize()

	keys := map[string]bool{base.CacheKey(): true, withTrue.CacheKey(): true, withFalse.CacheKey(): true}
	if len(keys) != 3 {
		t.Errorf("cache keys collide: %v", keys)
	}
}
