package query

import (
	"slices"
	"strings"
)

// Match is the result of resolving a user query against the loadable fact
// names.
type Match struct {
	// Query is the user query as typed.
	Query string
	// Prefix is the fact name or fact group the query selected.
	Prefix string
	// Names are the selected fact names, sorted.
	Names []string
	// FilterTokens are the query segments left after Prefix; they address
	// a sub-value inside the selected fact.
	FilterTokens []Segment
}

// Found reports whether the query selected at least one fact.
func (m Match) Found() bool {
	return len(m.Names) > 0
}

// Exact reports whether Prefix is itself a fact name rather than a group.
func (m Match) Exact() bool {
	return len(m.Names) == 1 && m.Names[0] == m.Prefix
}

// MatchNames resolves q (already split into segments) against names.
//
// A name equal to the literal query always wins, which keeps flat legacy
// names containing dots addressable. Otherwise the longest leading run of
// segments that spells a fact name selects that fact and the remaining
// segments become filter tokens. A run that only spells a group prefix
// (os for os.name and os.release) selects the whole group, but only when
// it consumes the entire query.
func MatchNames(q string, segments []Segment, names []string) Match {
	match := Match{Query: q}

	if slices.Contains(names, q) {
		match.Prefix = q
		match.Names = []string{q}
		return match
	}

	for i := len(segments); i >= 1; i-- {
		candidate := strings.Join(Strings(segments[:i]), ".")

		if slices.Contains(names, candidate) {
			match.Prefix = candidate
			match.Names = []string{candidate}
			if rest := segments[i:]; len(rest) > 0 {
				match.FilterTokens = append([]Segment(nil), rest...)
			}
			return match
		}

		if i != len(segments) {
			continue
		}
		group := candidate + "."
		for _, name := range names {
			if strings.HasPrefix(name, group) {
				match.Names = append(match.Names, name)
			}
		}
		if len(match.Names) > 0 {
			match.Prefix = candidate
			slices.Sort(match.Names)
			return match
		}
	}

	return match
}

// Selects reports whether the match selected name.
func (m Match) Selects(name string) bool {
	_, found := slices.BinarySearch(m.Names, name)
	return found
}
