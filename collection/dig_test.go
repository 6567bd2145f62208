package collection

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/st-keller/hostfacts/query"
)

func TestDig(t *testing.T) {
	value := map[string]any{
		"list":   []any{"a", "b", "c"},
		"nested": map[string]any{"deep": map[string]any{"leaf": "x"}},
		"0":      "zero",
		"null":   nil,
	}

	tests := []struct {
		name     string
		segments []query.Segment
		want     any
		found    bool
	}{
		{"no segments returns the value", nil, value, true},
		{"key", []query.Segment{query.Str("nested"), query.Str("deep"), query.Str("leaf")}, "x", true},
		{"index", []query.Segment{query.Str("list"), query.Int(1)}, "b", true},
		{"negative index counts from the end", []query.Segment{query.Str("list"), query.Int(-1)}, "c", true},
		{"index out of range", []query.Segment{query.Str("list"), query.Int(3)}, nil, false},
		{"negative index out of range", []query.Segment{query.Str("list"), query.Int(-4)}, nil, false},
		{"key on a list", []query.Segment{query.Str("list"), query.Str("a")}, nil, false},
		{"index on a mapping uses its decimal key", []query.Segment{query.Int(0)}, "zero", true},
		{"missing key", []query.Segment{query.Str("missing")}, nil, false},
		{"past a leaf", []query.Segment{query.Str("nested"), query.Str("deep"), query.Str("leaf"), query.Str("more")}, nil, false},
		{"nil value is a miss", []query.Segment{query.Str("null")}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := Dig(value, tt.segments)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDigScalar(t *testing.T) {
	got, found := Dig("scalar", []query.Segment{query.Str("x")})
	assert.False(t, found)
	assert.Nil(t, got)
}
