package utils

import (
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// Page is one bounded slice of an ordered collection plus the metadata
// needed to render pager links.
type Page[T any] struct {
	Items       []T   `json:"items"`
	Number      int   `json:"number"`
	NumPages    int   `json:"num_pages"`
	Count       int64 `json:"count"`
	PerPage     int   `json:"per_page"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
	NextNumber  int   `json:"next_page_number,omitempty"`
	PrevNumber  int   `json:"previous_page_number,omitempty"`
}

// ParsePage reads the raw "page" query value. Anything that is not an integer means page 1.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 1
	}
	return n
}

// NumPages is the number of pages needed for count items. An empty collection still has one page.
func NumPages(count int64, perPage int) int {
	if perPage < 1 {
		perPage = 1
	}
	if count <= 0 {
		return 1
	}
	return int((count + int64(perPage) - 1) / int64(perPage))
}

// ClampPage moves an out of range page number to the first or last page.
func ClampPage(number, numPages int) int {
	if number < 1 {
		return 1
	}
	if number > numPages {
		return numPages
	}
	return number
}

func newPage[T any](number int, count int64, perPage int) Page[T] {
	if perPage < 1 {
		perPage = 1
	}
	numPages := NumPages(count, perPage)
	number = ClampPage(number, numPages)
	p := Page[T]{
		Items:       []T{},
		Number:      number,
		NumPages:    numPages,
		Count:       count,
		PerPage:     perPage,
		HasNext:     number < numPages,
		HasPrevious: number > 1,
	}
	if p.HasNext {
		p.NextNumber = number + 1
	}
	if p.HasPrevious {
		p.PrevNumber = number - 1
	}
	return p
}

func (p Page[T]) offset() int {
	return (p.Number - 1) * p.PerPage
}

// PaginateSlice pages an in-memory, already ordered slice.
func PaginateSlice[T any](items []T, rawPage string, perPage int) Page[T] {
	p := newPage[T](ParsePage(rawPage), int64(len(items)), perPage)
	start := p.offset()
	end := start + p.PerPage
	if end > len(items) {
		end = len(items)
	}
	if start < end {
		p.Items = append(p.Items, items[start:end]...)
	}
	return p
}

// Paginate counts the rows matched by query and loads the requested page.
// scopes are applied to the row query only, so ordering and preloads stay out of the COUNT.
func Paginate[T any](query *gorm.DB, rawPage string, perPage int, scopes ...func(*gorm.DB) *gorm.DB) (Page[T], error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return Page[T]{}, err
	}
	p := newPage[T](ParsePage(rawPage), total, perPage)
	if total == 0 {
		return p, nil
	}
	if err := query.Session(&gorm.Session{}).
		Scopes(scopes...).
		Offset(p.offset()).
		Limit(p.PerPage).
		Find(&p.Items).Error; err != nil {
		return Page[T]{}, err
	}
	return p, nil
}
