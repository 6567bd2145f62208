// Package fact provides the Resolved type exchanged between probes, the
// fact filter and the fact collection builder.
package fact

import (
	"github.com/st-keller/hostfacts/query"
)

// Resolved is a single named piece of host information together with the
// query state that caused it to be resolved.
type Resolved struct {
	// Name is the dotted canonical address of the fact, e.g.
	// "os.release.major".
	Name string
	// Value is a normalized value tree (see Normalize); nil means absent.
	Value any
	Kind  Kind
	// UserQuery is the query that selected the fact, empty when the fact
	// was resolved unconditionally.
	UserQuery string
	// FilterTokens address a sub-value of Value. Empty means no narrowing.
	FilterTokens []query.Segment
}

// New creates a resolved fact with a normalized value. The kind defaults
// to Core.
func New(name string, value any, kind ...Kind) Resolved {
	k := Core
	if len(kind) > 0 {
		k = kind[0]
	}
	return Resolved{
		Name:  name,
		Value: Normalize(value),
		Kind:  k,
	}
}

// Absent reports whether the fact carries no value.
func (r Resolved) Absent() bool {
	return r.Value == nil
}

// WithValue returns a copy of r holding value. The receiver is unchanged.
func (r Resolved) WithValue(value any) Resolved {
	out := r
	out.Value = value
	if r.FilterTokens != nil {
		out.FilterTokens = append([]query.Segment(nil), r.FilterTokens...)
	}
	return out
}

// WithQuery returns a copy of r carrying the query that selected it.
func (r Resolved) WithQuery(userQuery string, tokens []query.Segment) Resolved {
	out := r
	out.UserQuery = userQuery
	out.FilterTokens = nil
	if len(tokens) > 0 {
		out.FilterTokens = append([]query.Segment(nil), tokens...)
	}
	return out
}
