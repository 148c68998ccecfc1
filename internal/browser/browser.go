// Package browser narrows and slices in-memory record collections for tables.
// Every function is pure; callers own the page reset when filters change.
package browser

import (
	"strings"
)

// StatusAll is the status filter that matches every record.
const StatusAll = "all"

// DefaultPageSize is the row count used by dashboard tables.
const DefaultPageSize = 10

// MaxPageSize caps the pageSize a request may ask for.
const MaxPageSize = 100

// Pipeline describes how to read the status and searchable fields of a record.
type Pipeline[T any] struct {
	Status func(T) string
	Fields []func(T) string
}

// Filter keeps records whose status equals status (or status is "all") and
// where search is empty or a case-insensitive substring of at least one field.
// Order is preserved and a new slice is always returned.
func (p Pipeline[T]) Filter(records []T, search, status string) []T {
	needle := strings.ToLower(search)
	out := make([]T, 0, len(records))
	for _, record := range records {
		if !p.matchesStatus(record, status) {
			continue
		}
		if needle != "" && !p.matchesSearch(record, needle) {
			continue
		}
		out = append(out, record)
	}
	return out
}

func (p Pipeline[T]) matchesStatus(record T, status string) bool {
	if status == StatusAll {
		return true
	}
	if p.Status == nil {
		return status == ""
	}
	return p.Status(record) == status
}

func (p Pipeline[T]) matchesSearch(record T, needle string) bool {
	for _, field := range p.Fields {
		if field == nil {
			continue
		}
		if strings.Contains(strings.ToLower(field(record)), needle) {
			return true
		}
	}
	return false
}

// Paginate returns records[(page-1)*pageSize : page*pageSize]. Pages are
// 1-based; a page outside the data or a non-positive size yields an empty slice.
func Paginate[T any](records []T, page, pageSize int) []T {
	if page < 1 || pageSize <= 0 || page > TotalPages(len(records), pageSize) {
		return []T{}
	}
	start := (page - 1) * pageSize
	end := len(records)
	if end-start > pageSize {
		end = start + pageSize
	}
	out := make([]T, end-start)
	copy(out, records[start:end])
	return out
}

// TotalPages is ceil(count/pageSize), or 0 when there is nothing to page.
func TotalPages(count, pageSize int) int {
	if count <= 0 || pageSize <= 0 {
		return 0
	}
	pages := count / pageSize
	if count%pageSize != 0 {
		pages++
	}
	return pages
}

// ClampPage bounds page into [1, max(1, totalPages)].
func ClampPage(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if totalPages < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}
