package listutil

import (
	"net/url"
	"strconv"
	"strings"
)

// DefaultPerPage is the fixed number of rows per list page.
const DefaultPerPage = 10

// FilterParams carries search and filter parameters.
type FilterParams struct {
	Search  string            // free-text search query
	Filters map[string]string // exact-match filters (e.g. status=active)
}

// ListParams combines the page number with the filters of a list view.
type ListParams struct {
	Page int // 1-indexed page number
	FilterParams
}

// PageInfo carries pagination metadata for rendering.
type PageInfo struct {
	Page       int // current page (1-indexed)
	PerPage    int // rows per page
	Total      int // total matching rows
	TotalPages int // ceil(Total / PerPage); 0 when Total is 0
}

// ParsePage extracts the 1-indexed page number from URL query values.
// PRE: none
// POST: returns a page >= 1
func ParsePage(q url.Values) int {
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	return page
}

// ParseFilterParams extracts search and named filters from URL query values.
// PRE: filterKeys lists the allowed filter parameter names
// POST: returns FilterParams with only recognised, trimmed, non-empty keys
func ParseFilterParams(q url.Values, filterKeys []string) FilterParams {
	fp := FilterParams{
		Search:  strings.TrimSpace(q.Get("search")),
		Filters: make(map[string]string),
	}
	for _, key := range filterKeys {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			fp.Filters[key] = v
		}
	}
	return fp
}

// ParseListParams parses the page and filters from URL query values.
func ParseListParams(q url.Values, filterKeys []string) ListParams {
	return ListParams{
		Page:         ParsePage(q),
		FilterParams: ParseFilterParams(q, filterKeys),
	}
}

// NewPageInfo computes pagination metadata.
// PRE: total >= 0
// POST: TotalPages = ceil(total/perPage); Page clamped to [1, max(TotalPages, 1)]
func NewPageInfo(page, perPage, total int) PageInfo {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if total < 0 {
		total = 0
	}
	totalPages := (total + perPage - 1) / perPage
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return PageInfo{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Offset returns the SQL OFFSET for the current page.
// PRE: PageInfo is valid
// POST: Returns (Page-1) * PerPage
func (p PageInfo) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// StartRow returns the 1-indexed first row number on the current page.
// PRE: PageInfo is valid
// POST: Returns 0 if Total is 0, otherwise Offset+1
func (p PageInfo) StartRow() int {
	if p.Total == 0 {
		return 0
	}
	return p.Offset() + 1
}

// EndRow returns the 1-indexed last row number on the current page.
// PRE: PageInfo is valid
// POST: Returns min(Offset+PerPage, Total)
func (p PageInfo) EndRow() int {
	end := p.Offset() + p.PerPage
	if end > p.Total {
		end = p.Total
	}
	return end
}

// Prev returns the previous page number, or 0 on the first page.
func (p PageInfo) Prev() int {
	if p.Page > 1 {
		return p.Page - 1
	}
	return 0
}

// Next returns the next page number, or 0 on the last page.
func (p PageInfo) Next() int {
	if p.Page < p.TotalPages {
		return p.Page + 1
	}
	return 0
}

// Window returns up to size consecutive page numbers with the current page
// as close to the middle as the bounds allow.
// PRE: size >= 1
// POST: Every number lies in [1, TotalPages]; empty when TotalPages is 0
func (p PageInfo) Window(size int) []int {
	n := min(size, p.TotalPages)
	first := max(1, min(p.Page-size/2, p.TotalPages-n+1))
	out := make([]int, n)
	for i := range out {
		out[i] = first + i
	}
	return out
}

// Visible reports whether the list spans more than one page.
func (p PageInfo) Visible() bool {
	return p.TotalPages > 1
}

// PageURL links to page of base with the current search and filters.
// POST: Keys are sorted, so the same filters always yield the same URL
func (f FilterParams) PageURL(base string, page int) string {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	for k, v := range f.Filters {
		q.Set(k, v)
	}
	q.Set("page", strconv.Itoa(page))
	return base + "?" + q.Encode()
}
