package shared

import (
	"math"
	"net/http"
	"strconv"
	"strings"
)

const (
	// DefaultPage is the first page number.
	DefaultPage = 1
	// DefaultLimit is the page size when none is requested.
	DefaultLimit = 10
	// MaxLimit caps the page size of every listing.
	MaxLimit = 50

	// SortAsc orders ascending.
	SortAsc = "asc"
	// SortDesc orders descending.
	SortDesc = "desc"
)

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPagination computes pagination metadata.
func NewPagination(page, limit, total int) Pagination {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if page <= 0 {
		page = DefaultPage
	}
	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}

// SortInfo echoes the applied ordering back to clients.
type SortInfo struct {
	By  string `json:"by"`
	Dir string `json:"dir"`
}

// Page is a listing response. Pagination and Sort are nil for unpaged (all=true) listings.
type Page[T any] struct {
	Data       []T         `json:"data"`
	Pagination *Pagination `json:"pagination"`
	Sort       *SortInfo   `json:"sort,omitempty"`
}

// ListFilters represents standard list filters shared by admin listings.
type ListFilters struct {
	Page    int
	Limit   int
	Search  string
	SortBy  string
	SortDir string
	All     bool
}

// Offset returns the row offset for the current page.
func (f ListFilters) Offset() int {
	offset := (f.Page - 1) * f.Limit
	if offset < 0 {
		return 0
	}
	return offset
}

// ParseListFilters reads page, limit, search, sortBy, sortDir and all from the query string.
func ParseListFilters(r *http.Request) ListFilters {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = DefaultPage
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return ListFilters{
		Page:    page,
		Limit:   limit,
		Search:  strings.TrimSpace(q.Get("search")),
		SortBy:  q.Get("sortBy"),
		SortDir: q.Get("sortDir"),
		All:     q.Get("all") == "true",
	}
}

// SortSpec whitelists sortable fields. Keys are client field names, values SQL columns.
// TieBreaker orders rows with equal sort values and defaults to "id".
type SortSpec struct {
	Columns    map[string]string
	DefaultBy  string
	DefaultDir string
	TieBreaker string
}

// Resolve returns the ORDER BY clause and the applied ordering.
// Unknown fields or directions fall back to the defaults.
func (s SortSpec) Resolve(sortBy, sortDir string) (string, SortInfo) {
	by := s.DefaultBy
	if _, ok := s.Columns[sortBy]; ok {
		by = sortBy
	}
	dir := s.DefaultDir
	if sortDir == SortAsc || sortDir == SortDesc {
		dir = sortDir
	}
	if dir == "" {
		dir = SortDesc
	}
	tie := s.TieBreaker
	if tie == "" {
		tie = "id"
	}
	upper := strings.ToUpper(dir)
	return s.Columns[by] + " " + upper + ", " + tie + " " + upper, SortInfo{By: by, Dir: dir}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern turns a search term into an ILIKE pattern matching it literally.
func ContainsPattern(search string) string {
	return "%" + likeEscaper.Replace(search) + "%"
}

// NewPage builds a listing response. A nil slice is encoded as [].
func NewPage[T any](items []T, pagination *Pagination, sort *SortInfo) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Data: items, Pagination: pagination, Sort: sort}
}
