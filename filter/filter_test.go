package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/st-keller/hostfacts/fact"
	"github.com/st-keller/hostfacts/query"
)

func TestFilterHidesUnrequestedLegacyFacts(t *testing.T) {
	facts := []fact.Resolved{
		fact.New("os.name", "Ubuntu"),
		fact.New("operatingsystem", "Ubuntu", fact.Legacy),
		fact.New("custom_flat", "x", fact.CustomLegacy),
	}

	got := Filter(facts, nil, Options{})
	require.Len(t, got, 2)
	assert.Equal(t, "os.name", got[0].Name)
	assert.Equal(t, "custom_flat", got[1].Name)

	got = Filter(facts, nil, Options{ShowLegacy: true})
	assert.Len(t, got, 3)

	got = Filter(facts, []string{"operatingsystem"}, Options{})
	assert.Len(t, got, 3)
}

func TestFilterNarrowsToFilterTokens(t *testing.T) {
	release := fact.New("os.release", map[string]any{"full": "22.04", "major": "22"}).
		WithQuery("os.release.major", []query.Segment{query.Str("major")})

	got := Filter([]fact.Resolved{release}, []string{"os.release.major"}, Options{})
	require.Len(t, got, 1)
	assert.Equal(t, "22", got[0].Value)
	assert.Equal(t, "os.release", got[0].Name)

	// the input fact is untouched
	assert.Equal(t, map[string]any{"full": "22.04", "major": "22"}, release.Value)
}

func TestFilterDropsFactsWithoutSubValue(t *testing.T) {
	release := fact.New("os.release", map[string]any{"major": "22"}).
		WithQuery("os.release.patch", []query.Segment{query.Str("patch")})
	list := fact.New("list", []string{"a"}).
		WithQuery("list.5", []query.Segment{query.Int(5)})

	got := Filter([]fact.Resolved{release, list}, nil, Options{})
	assert.Empty(t, got)
}

func TestFilterIndexes(t *testing.T) {
	release := map[string]any{
		"full":  "18.7.0",
		"major": "18",
		"minor": 7,
		"arry":  []any{"val", map[string]any{"val2": "val3"}},
	}

	tests := []struct {
		name   string
		value  any
		tokens []query.Segment
		want   any
	}{
		{"last element", []string{"a", "b"}, []query.Segment{query.Int(-1)}, "b"},
		{"first element", []string{"a", "b"}, []query.Segment{query.Int(0)}, "a"},
		{"index inside a path", release, []query.Segment{query.Str("arry"), query.Int(1), query.Str("val2")}, "val3"},
		{"index ends the path", release, []query.Segment{query.Str("arry"), query.Int(0)}, "val"},
		{"nested value", release, []query.Segment{query.Str("major")}, "18"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved := fact.New("os.release", tt.value).WithQuery("q", tt.tokens)

			got := Filter([]fact.Resolved{resolved}, nil, Options{})
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0].Value)
		})
	}
}

func TestFilterKeepsAbsentFactsWithoutTokens(t *testing.T) {
	got := Filter([]fact.Resolved{fact.New("virtual", nil)}, nil, Options{})
	require.Len(t, got, 1)
	assert.True(t, got[0].Absent())
}
