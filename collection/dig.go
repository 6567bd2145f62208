package collection

import (
	"strconv"

	"github.com/st-keller/hostfacts/query"
)

// Dig navigates value through segments and returns the value reached.
//
// A key segment looks up a mapping entry. An index segment indexes a
// sequence, counting from the end when negative, or looks up its decimal
// text in a mapping. Any other combination, a missing key or an index out
// of range is a miss. A nil value reached at the end is also a miss.
func Dig(value any, segments []query.Segment) (any, bool) {
	current := value
	for _, segment := range segments {
		switch node := current.(type) {
		case map[string]any:
			key := segment.Key
			if segment.IsIndex {
				key = strconv.Itoa(segment.Index)
			}
			next, ok := node[key]
			if !ok {
				return nil, false
			}
			current = next
		case Collection:
			next, ok := Dig(map[string]any(node), []query.Segment{segment})
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			if !segment.IsIndex {
				return nil, false
			}
			index := segment.Index
			if index < 0 {
				index += len(node)
			}
			if index < 0 || index >= len(node) {
				return nil, false
			}
			current = node[index]
		default:
			return nil, false
		}
	}
	if current == nil {
		return nil, false
	}
	return current, true
}
