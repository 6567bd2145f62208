package hostfacts

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/st-keller/hostfacts/collection"
	"github.com/st-keller/hostfacts/external"
	"github.com/st-keller/hostfacts/fact"
	"github.com/st-keller/hostfacts/filter"
	"github.com/st-keller/hostfacts/options"
	"github.com/st-keller/hostfacts/query"
	"github.com/st-keller/hostfacts/registry"
	"github.com/st-keller/hostfacts/standard"
	"github.com/st-keller/hostfacts/transport"
)

// Config holds client configuration.
type Config struct {
	Options options.Options
	// Logger receives merge conflicts, probe failures and external fact
	// problems. Nil discards them.
	Logger *zap.Logger
	// Env locates the files the built-in probes read. The zero value
	// probes the running host.
	Env standard.Env
	// Definitions are registered after the built-in and external facts.
	Definitions []registry.Definition
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := c.Options.Validate(); err != nil {
		return err
	}
	for _, def := range c.Definitions {
		if def.Name == "" || def.Provider == nil {
			return fmt.Errorf("%w: extra definition %q needs a name and a provider", registry.ErrInvalidDefinition, def.Name)
		}
	}
	return nil
}

// Client resolves fact queries. Probe results are cached for the life of
// the client; build a new Client to observe a changed host.
type Client struct {
	opts     options.Options
	logger   *zap.Logger
	registry *registry.Registry
	cache    *registry.Cache
	timings  *registry.Timings
	parser   *query.Parser
	builder  collection.Builder
}

// New creates a client with the built-in facts, the external facts of the
// configured directories and cfg.Definitions registered.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timings := registry.NewTimings()

	client := &Client{
		opts:     cfg.Options,
		logger:   logger,
		registry: registry.New(),
		cache:    registry.NewCache(logger, timings),
		timings:  timings,
		parser:   query.NewParser(query.DefaultParserSize),
		builder: collection.Builder{
			Logger:                  logger,
			StructuredExternalFacts: cfg.Options.StructuredExternalFacts,
		},
	}

	env := cfg.Env
	if env.Version == "" {
		env.Version = Version
	}
	if env.HTTPClient == nil && cfg.Options.MetadataTimeout > 0 {
		httpClient, err := transport.BuildMetadataClient(cfg.Options.MetadataTimeout)
		if err != nil {
			return nil, fmt.Errorf("failed to build metadata client: %w", err)
		}
		env.HTTPClient = httpClient
	}

	// external facts take precedence over built-in facts of the same name
	if err := client.registerExternalFacts(); err != nil {
		return nil, fmt.Errorf("failed to register external facts: %w", err)
	}
	if err := client.registerAll(standard.Definitions(env), true); err != nil {
		return nil, fmt.Errorf("failed to register built-in facts: %w", err)
	}
	if err := client.registerAll(cfg.Definitions, false); err != nil {
		return nil, fmt.Errorf("failed to register definitions: %w", err)
	}

	logger.Debug("hostfacts client initialized",
		zap.Int("facts", len(client.registry.Names())),
		zap.Strings("external_dirs", client.externalDirs()),
	)
	return client, nil
}

func (c *Client) externalDirs() []string {
	if c.opts.NoExternalFacts {
		return nil
	}
	return c.opts.ExternalDirs
}

// registerExternalFacts loads the fact directories once through the cache
// and registers one definition per fact found.
func (c *Client) registerExternalFacts() error {
	dirs := c.externalDirs()
	if len(dirs) == 0 {
		return nil
	}

	loader := external.Loader{Dirs: dirs, Logger: c.logger}
	loaded := c.cache.Batch(context.Background(), loader)
	names := make([]string, 0, len(loaded))
	for name := range loaded {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if c.opts.Blocked(name) {
			c.logger.Debug("external fact blocked", zap.String("fact", name))
			continue
		}
		err := c.registry.Register(registry.Definition{
			Name: name,
			Kind: fact.Custom,
			Provider: func(ctx context.Context, cache *registry.Cache) []fact.Resolved {
				return []fact.Resolved{fact.New(name, cache.Lookup(ctx, loader, name), fact.Custom)}
			},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// registerAll registers defs, skipping blocked ones. With shadowable set a
// definition whose name is already taken is skipped instead of failing.
func (c *Client) registerAll(defs []registry.Definition, shadowable bool) error {
	for _, def := range defs {
		if c.opts.Blocked(def.Name) {
			c.logger.Debug("fact blocked", zap.String("fact", def.Name))
			continue
		}
		err := c.registry.Register(def)
		if shadowable && errors.Is(err, registry.ErrDuplicate) {
			c.logger.Debug("built-in fact overridden by external fact", zap.String("fact", def.Name), zap.Error(err))
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Resolve answers queries. Without queries every registered fact is
// resolved.
//
// A query that selects nothing is not an error: it is reported in
// Result.Queries with no names and its value is nil.
func (c *Client) Resolve(ctx context.Context, queries ...string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var facts []fact.Resolved
	var matches []query.Match
	if len(queries) == 0 {
		facts = c.registry.Collect(ctx, c.cache, c.registry.Definitions(), c.opts.Parallelism)
	} else {
		facts, matches = c.resolveQueries(ctx, queries)
	}

	filtered := filter.Filter(facts, queries, filter.Options{ShowLegacy: c.opts.ShowLegacy})
	return &Result{
		Facts:      filtered,
		Collection: c.builder.Build(filtered),
		Queries:    matches,
		builder:    c.builder,
	}, nil
}

func (c *Client) resolveQueries(ctx context.Context, queries []string) ([]fact.Resolved, []query.Match) {
	names := c.registry.Names()

	matches := make([]query.Match, 0, len(queries))
	var defs []*registry.Definition
	for _, q := range queries {
		match := query.MatchNames(q, c.parser.Split(q), names)
		if !match.Found() {
			c.logger.Debug("query matched no fact", zap.String("query", q))
		}
		for _, name := range match.Names {
			if def, ok := c.registry.Lookup(name); ok {
				defs = append(defs, def)
			}
		}
		matches = append(matches, match)
	}

	produced := c.registry.Collect(ctx, c.cache, defs, c.opts.Parallelism)

	var facts []fact.Resolved
	for _, match := range matches {
		for _, resolved := range produced {
			if match.Selects(resolved.Name) {
				facts = append(facts, resolved.WithQuery(match.Query, match.FilterTokens))
			}
		}
	}
	return facts, matches
}

// Timings reports how long each probe took and whether it failed.
func (c *Client) Timings() []registry.Timing {
	return c.timings.Snapshot()
}

// Names returns every fact name the client can resolve, sorted.
func (c *Client) Names() []string {
	return c.registry.Names()
}

// Result is the outcome of one Resolve call.
type Result struct {
	// Facts are the visible facts, narrowed to the sub-values their
	// queries address.
	Facts []fact.Resolved
	// Collection nests Facts by name.
	Collection collection.Collection
	// Queries holds one match per user query, in query order.
	Queries []query.Match

	builder collection.Builder
}

// Lookup returns the value answering q. For a resolve without queries q
// is looked up in the collection: a literal top-level key first, then a
// dotted path.
func (r *Result) Lookup(q string) (any, bool) {
	for _, match := range r.Queries {
		if match.Query == q {
			return r.lookupMatch(match)
		}
	}
	if value, ok := r.Collection[q]; ok {
		return value, true
	}
	return r.Collection.Dig(query.Split(q)...)
}

func (r *Result) lookupMatch(match query.Match) (any, bool) {
	var selected []fact.Resolved
	for _, resolved := range r.Facts {
		if resolved.UserQuery == match.Query {
			selected = append(selected, resolved)
		}
	}
	if len(selected) == 0 {
		return nil, false
	}
	if len(selected) == 1 && selected[0].Name == match.Prefix {
		return selected[0].Value, true
	}

	// conflicts were already logged when Collection was built
	quiet := collection.Builder{StructuredExternalFacts: r.builder.StructuredExternalFacts}
	sub := quiet.Build(selected)
	if value, ok := sub[match.Prefix]; ok {
		return value, true
	}
	return sub.Dig(query.Split(match.Prefix)...)
}

// Values maps every user query to its value, nil when nothing answered
// it.
func (r *Result) Values() map[string]any {
	values := make(map[string]any, len(r.Queries))
	for _, match := range r.Queries {
		value, _ := r.Lookup(match.Query)
		values[match.Query] = value
	}
	return values
}
