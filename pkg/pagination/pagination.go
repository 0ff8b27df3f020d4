// Package pagination slices in-memory lists into pages for the HTML views.
package pagination

import (
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params holds pagination parameters extracted from a request.
type Params struct {
	Limit  int
	Offset int
}

// FromContext reads "limit" and "offset" from the query string. A missing or
// invalid limit falls back to defaultLimit, itself bounded by MaxLimit.
func FromContext(c echo.Context, defaultLimit int) Params {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if offset < 0 {
		offset = 0
	}
	return Params{Limit: limit, Offset: offset}
}

// HasNext returns true if there are more results after the current page.
func (p Params) HasNext(total int) bool {
	return p.Offset+p.Limit < total
}

// HasPrevious returns true if there are results before the current page.
func (p Params) HasPrevious() bool {
	return p.Offset > 0
}

func (p Params) NextOffset() int {
	return p.Offset + p.Limit
}

// PreviousOffset returns the offset for the previous page, never negative.
func (p Params) PreviousOffset() int {
	prev := p.Offset - p.Limit
	if prev < 0 {
		return 0
	}
	return prev
}

// Page is one slice of a list plus the links around it.
type Page[T any] struct {
	Items   []T
	Total   int
	Limit   int
	Offset  int
	First   int
	Last    int
	NextURL string
	PrevURL string
}

// Slice cuts items according to p. basePath is used to build the previous
// and next links; an offset past the end yields an empty page.
func Slice[T any](items []T, p Params, basePath string) Page[T] {
	total := len(items)
	start := p.Offset
	if start > total {
		start = total
	}
	end := start + p.Limit
	if end > total {
		end = total
	}

	page := Page[T]{
		Items:  items[start:end],
		Total:  total,
		Limit:  p.Limit,
		Offset: p.Offset,
	}
	if end > start {
		page.First = start + 1
		page.Last = end
	}
	if p.HasNext(total) {
		page.NextURL = link(basePath, p.NextOffset(), p.Limit)
	}
	if p.HasPrevious() {
		page.PrevURL = link(basePath, p.PreviousOffset(), p.Limit)
	}
	return page
}

func link(basePath string, offset, limit int) string {
	return fmt.Sprintf("%s?offset=%d&limit=%d", basePath, offset, limit)
}
