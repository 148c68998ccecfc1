package browser

import (
	"net/url"
	"strconv"
	"strings"
)

// Query is the filter state of one table, parsed from a request.
type Query struct {
	Search     string
	Status     string
	Page       int
	PageSize   int
	PrevSearch string
	PrevStatus string
	PageAction string
}

// ParseQuery reads search, status, page, pageSize, prevSearch, prevStatus and
// pageAction from form or query values.
func ParseQuery(values url.Values) Query {
	query := Query{
		Search:     strings.TrimSpace(values.Get("search")),
		Status:     strings.TrimSpace(values.Get("status")),
		Page:       parseInt(values.Get("page"), 1),
		PageSize:   parseInt(values.Get("pageSize"), DefaultPageSize),
		PrevSearch: strings.TrimSpace(values.Get("prevSearch")),
		PrevStatus: strings.TrimSpace(values.Get("prevStatus")),
		PageAction: strings.TrimSpace(values.Get("pageAction")),
	}
	if query.Status == "" {
		query.Status = StatusAll
	}
	if query.PrevStatus == "" {
		query.PrevStatus = StatusAll
	}
	if query.PageSize <= 0 {
		query.PageSize = DefaultPageSize
	}
	if query.PageSize > MaxPageSize {
		query.PageSize = MaxPageSize
	}
	return query
}

func parseInt(value string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

// FiltersChanged reports whether search or status differ from the values the
// previous page was rendered with.
func (q Query) FiltersChanged() bool {
	return q.Search != q.PrevSearch || q.Status != q.PrevStatus
}

// Normalize returns q with Page reset to 1 when the filter inputs changed.
func (q Query) Normalize() Query {
	if q.FiltersChanged() {
		q.Page = 1
		q.PageAction = ""
	}
	return q
}

// Values encodes the query for links that keep the current filters.
func (q Query) Values() url.Values {
	values := url.Values{}
	if q.Search != "" {
		values.Set("search", q.Search)
	}
	if q.Status != "" && q.Status != StatusAll {
		values.Set("status", q.Status)
	}
	values.Set("page", strconv.Itoa(q.Page))
	if q.PageSize != DefaultPageSize {
		values.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	values.Set("prevSearch", q.Search)
	values.Set("prevStatus", q.Status)
	return values
}

// Page is one rendered slice of a filtered collection.
type Page[T any] struct {
	Items      []T
	Query      Query
	Total      int
	Filtered   int
	Page       int
	PageSize   int
	TotalPages int
	HasPrev    bool
	HasNext    bool
}

// Browse filters records, resets or moves the page as requested, clamps it
// and slices the result.
func (p Pipeline[T]) Browse(records []T, query Query) Page[T] {
	query = query.Normalize()
	filtered := p.Filter(records, query.Search, query.Status)
	totalPages := TotalPages(len(filtered), query.PageSize)

	page := query.Page
	switch query.PageAction {
	case "prev":
		if page > 1 {
			page--
		}
	case "next":
		if page < totalPages {
			page++
		}
	}
	page = ClampPage(page, totalPages)
	query.Page = page
	query.PageAction = ""

	return Page[T]{
		Items:      Paginate(filtered, page, query.PageSize),
		Query:      query,
		Total:      len(records),
		Filtered:   len(filtered),
		Page:       page,
		PageSize:   query.PageSize,
		TotalPages: totalPages,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
	}
}
