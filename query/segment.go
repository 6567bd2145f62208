// Package query parses dotted fact queries into path segments and matches
// them against the names of loadable facts.
package query

import "strconv"

// Segment is one element of a parsed query path. A segment either names a
// mapping key or indexes into a sequence.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

// Str returns a key segment.
func Str(key string) Segment {
	return Segment{Key: key}
}

// Int returns an index segment.
func Int(index int) Segment {
	return Segment{Index: index, IsIndex: true}
}

// String returns the textual form of the segment. Index segments render as
// their decimal value.
func (s Segment) String() string {
	if s.IsIndex {
		return strconv.Itoa(s.Index)
	}
	return s.Key
}

// Equal reports whether two segments are the same key or the same index.
func (s Segment) Equal(other Segment) bool {
	if s.IsIndex != other.IsIndex {
		return false
	}
	if s.IsIndex {
		return s.Index == other.Index
	}
	return s.Key == other.Key
}

// Strings returns the textual form of every segment.
func Strings(segments []Segment) []string {
	out := make([]string, len(segments))
	for i, segment := range segments {
		out[i] = segment.String()
	}
	return out
}
