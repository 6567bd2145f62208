package query

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultParserSize is the number of distinct queries a Parser remembers.
const DefaultParserSize = 1024

// Parser memoizes Split for processes that answer the same queries
// repeatedly. It is safe for concurrent use.
type Parser struct {
	cache *lru.Cache[string, []Segment]
}

// NewParser creates a Parser remembering up to size queries. A size below
// one selects DefaultParserSize.
func NewParser(size int) *Parser {
	if size < 1 {
		size = DefaultParserSize
	}
	cache, err := lru.New[string, []Segment](size)
	if err != nil {
		// lru.New only fails for non-positive sizes
		panic("query: parser cache: " + err.Error())
	}
	return &Parser{cache: cache}
}

// Split returns the segments of q. The returned slice is owned by the
// caller.
func (p *Parser) Split(q string) []Segment {
	if segments, ok := p.cache.Get(q); ok {
		return append([]Segment(nil), segments...)
	}
	segments := Split(q)
	p.cache.Add(q, segments)
	return append([]Segment(nil), segments...)
}

// Len returns the number of remembered queries.
func (p *Parser) Len() int {
	return p.cache.Len()
}
