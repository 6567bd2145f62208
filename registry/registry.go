// Package registry holds the loadable fact definitions and the resolver
// cache that makes expensive platform probes safe to call redundantly.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/st-keller/hostfacts/fact"
)

var (
	// ErrInvalidDefinition is returned for definitions without a name or
	// a provider.
	ErrInvalidDefinition = errors.New("invalid fact definition")
	// ErrDuplicate is returned when a name or alias is already registered.
	ErrDuplicate = errors.New("fact already registered")
)

// DefaultParallelism bounds how many providers Collect runs at once.
const DefaultParallelism = 8

// Provider resolves the facts of one definition. Providers read platform
// data through the cache and report facts they cannot determine with a
// nil value.
type Provider func(ctx context.Context, cache *Cache) []fact.Resolved

// Definition describes a loadable fact: its canonical name, the legacy
// names it is also published under, and how to resolve it.
type Definition struct {
	Name     string
	Aliases  []string
	Kind     fact.Kind
	Provider Provider
}

// Names returns the canonical name followed by the aliases.
func (d *Definition) Names() []string {
	return append([]string{d.Name}, d.Aliases...)
}

// Registry holds fact definitions keyed by every name they answer to.
type Registry struct {
	mu sync.RWMutex

	// order preserves registration order
	order []*Definition
	// byName: canonical name or alias -> definition
	byName map[string]*Definition
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		byName: make(map[string]*Definition),
	}
}

// Register adds a definition.
func (r *Registry) Register(def Definition) error {
	if def.Name == "" {
		return fmt.Errorf("%w: name required", ErrInvalidDefinition)
	}
	if def.Provider == nil {
		return fmt.Errorf("%w: provider required for %s", ErrInvalidDefinition, def.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range def.Names() {
		if name == "" {
			return fmt.Errorf("%w: empty alias for %s", ErrInvalidDefinition, def.Name)
		}
		if existing, ok := r.byName[name]; ok {
			return fmt.Errorf("%w: %s (defined by %s)", ErrDuplicate, name, existing.Name)
		}
	}

	stored := def
	stored.Aliases = append([]string(nil), def.Aliases...)
	r.order = append(r.order, &stored)
	for _, name := range stored.Names() {
		r.byName[name] = &stored
	}
	return nil
}

// Lookup returns the definition answering to name.
func (r *Registry) Lookup(name string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.byName[name]
	return def, ok
}

// Names returns every canonical name and alias, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns all definitions in registration order.
func (r *Registry) Definitions() []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Definition(nil), r.order...)
}

// Collect runs the providers of defs concurrently, at most parallelism at
// a time, and returns their facts grouped in the order of defs. A
// definition listed twice runs once.
func (r *Registry) Collect(ctx context.Context, cache *Cache, defs []*Definition, parallelism int) []fact.Resolved {
	if parallelism < 1 {
		parallelism = DefaultParallelism
	}

	unique := make([]*Definition, 0, len(defs))
	seen := make(map[*Definition]bool, len(defs))
	for _, def := range defs {
		if !seen[def] {
			seen[def] = true
			unique = append(unique, def)
		}
	}

	results := make([][]fact.Resolved, len(unique))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(parallelism)
	for i, def := range unique {
		group.Go(func() error {
			results[i] = provide(groupCtx, cache, def)
			return nil
		})
	}
	// providers never fail; errors are absent values
	_ = group.Wait()

	var out []fact.Resolved
	for _, facts := range results {
		out = append(out, facts...)
	}
	return out
}

// provide runs one provider. A panicking provider yields no facts so the
// rest of the run completes.
func provide(ctx context.Context, cache *Cache, def *Definition) (facts []fact.Resolved) {
	defer func() {
		if recovered := recover(); recovered != nil {
			logger := zap.NewNop()
			if cache != nil {
				logger = cache.logger
			}
			logger.Error("fact provider panicked",
				zap.String("fact", def.Name),
				zap.Any("panic", recovered),
			)
			facts = nil
		}
	}()
	return def.Provider(ctx, cache)
}
