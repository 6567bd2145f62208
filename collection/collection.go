// Package collection assembles independently resolved facts into one
// nested fact collection.
package collection

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/st-keller/hostfacts/fact"
	"github.com/st-keller/hostfacts/query"
)

// Collection is the nested result of a fact query: a mapping from string
// keys to leaf values or further mappings.
type Collection map[string]any

// Builder merges resolved facts into a Collection.
type Builder struct {
	// Logger receives one error record per rejected fact. Nil discards.
	Logger *zap.Logger
	// StructuredExternalFacts lets custom facts with dotted names expand
	// into nested mappings. When false they keep their literal names.
	StructuredExternalFacts bool
}

// Build merges facts in order.
//
// Absent facts are skipped. Legacy names, and custom names unless
// structured external facts are enabled, are stored as one top-level key.
// Every other name is split on dots and buried one level per segment; a
// later leaf at the same path replaces an earlier one. A fact that would
// turn an existing leaf into a mapping, or overwrite an existing mapping
// with a leaf, conflicts with an earlier fact: it is logged and discarded,
// and the build carries on.
func (b Builder) Build(facts []fact.Resolved) Collection {
	logger := b.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	out := Collection{}
	for _, resolved := range facts {
		if resolved.Absent() {
			continue
		}
		if conflict, ok := out.bury(b.path(resolved), resolved.Value); !ok {
			logger.Error("fact cannot be added to collection",
				zap.String("fact", resolved.Name),
				zap.Stringer("kind", resolved.Kind),
				zap.String("conflict_path", conflict),
				zap.String("hint", "a fact name is a prefix of another fact name"),
			)
		}
	}
	return out
}

func (b Builder) path(resolved fact.Resolved) []string {
	switch {
	case resolved.Kind.IsLegacy():
		return []string{resolved.Name}
	case resolved.Kind.IsCustom() && !b.StructuredExternalFacts:
		return []string{resolved.Name}
	default:
		return strings.Split(resolved.Name, ".")
	}
}

// bury stores value at path. On conflict it returns the dotted path of the
// entry that blocked the insertion.
func (c Collection) bury(path []string, value any) (string, bool) {
	node := map[string]any(c)
	last := len(path) - 1
	for i, key := range path[:last] {
		existing, ok := node[key]
		if !ok {
			child := map[string]any{}
			node[key] = child
			node = child
			continue
		}
		child, isMap := existing.(map[string]any)
		if !isMap {
			return strings.Join(path[:i+1], "."), false
		}
		node = child
	}

	if _, isMap := node[path[last]].(map[string]any); isMap {
		return strings.Join(path, "."), false
	}
	node[path[last]] = clone(value)
	return "", true
}

// clone copies mappings and sequences so later facts buried below this
// one never write into a resolved fact's own value.
func clone(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = clone(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = clone(item)
		}
		return out
	default:
		return value
	}
}

// Dig returns the value at segments.
func (c Collection) Dig(segments ...query.Segment) (any, bool) {
	return Dig(map[string]any(c), segments)
}

// Flatten returns the collection as dotted names mapped to leaf values.
// Sequences are leaves. A leaf directly under the root keeps its key as
// is, so a flat legacy name such as "site.region" stays literal; in a
// longer path, keys that contain dots are quoted.
func (c Collection) Flatten() map[string]any {
	out := map[string]any{}
	flatten(out, nil, map[string]any(c))
	return out
}

func flatten(out map[string]any, prefix []query.Segment, node map[string]any) {
	for key, value := range node {
		path := append(append([]query.Segment(nil), prefix...), query.Str(key))
		if child, ok := value.(map[string]any); ok && len(child) > 0 {
			flatten(out, path, child)
			continue
		}
		name := key
		if len(prefix) > 0 {
			name = query.Join(path)
		}
		out[name] = value
	}
}

// Keys returns the top-level keys in sorted order.
func (c Collection) Keys() []string {
	keys := make([]string, 0, len(c))
	for key := range c {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
