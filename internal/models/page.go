package models

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// PageSize is the number of thoughts per feed page.
const PageSize = 20

// MaxPage is the highest page number whose offset still fits in an int.
const MaxPage = math.MaxInt/PageSize - 1

// ThoughtPage is one page of a thought listing.
type ThoughtPage struct {
	Thoughts []Thought `json:"thoughts"`
	Number   int       `json:"page"`
	HasNext  bool      `json:"has_next"`
}

func (p *ThoughtPage) HasPrevious() bool { return p.Number > 1 }
func (p *ThoughtPage) NextNumber() int   { return p.Number + 1 }
func (p *ThoughtPage) PrevNumber() int   { return p.Number - 1 }

// ClampPage keeps n within [1, MaxPage].
func ClampPage(n int) int {
	switch {
	case n < 1:
		return 1
	case n > MaxPage:
		return MaxPage
	}
	return n
}

// Offset returns the row offset of page n.
func Offset(n int) int {
	return (ClampPage(n) - 1) * PageSize
}

// ParsePage reads a ?page= value. Anything that is not a positive integer
// means the first page. Huge values land on MaxPage, which is empty.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(raw)
	if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(raw, "-") {
		return MaxPage
	}
	if err != nil {
		return 1
	}
	return ClampPage(n)
}
