// Package filter narrows resolved facts to the sub-values their queries
// ask for and hides legacy facts nobody asked for.
package filter

import (
	"slices"

	"github.com/st-keller/hostfacts/collection"
	"github.com/st-keller/hostfacts/fact"
)

// Options are the process options the filter reads.
type Options struct {
	// ShowLegacy keeps legacy facts that were not requested by name.
	ShowLegacy bool
}

// Filter returns the facts that survive visibility and narrowing, in
// input order.
//
// Legacy facts are dropped when ShowLegacy is off, unless one of
// activeQueries names them exactly. A fact with filter tokens has its
// value replaced by the sub-value the tokens address; when nothing is
// there the fact is dropped. Facts without tokens keep their value.
//
// The input slice and its facts are not modified.
func Filter(facts []fact.Resolved, activeQueries []string, opts Options) []fact.Resolved {
	out := make([]fact.Resolved, 0, len(facts))
	for _, resolved := range facts {
		if resolved.Kind == fact.Legacy && !opts.ShowLegacy && !slices.Contains(activeQueries, resolved.Name) {
			continue
		}

		if len(resolved.FilterTokens) == 0 {
			out = append(out, resolved)
			continue
		}

		value, ok := collection.Dig(resolved.Value, resolved.FilterTokens)
		if !ok {
			continue
		}
		out = append(out, resolved.WithValue(value))
	}
	return out
}
