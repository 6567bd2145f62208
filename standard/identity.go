package standard

import (
	"context"
	"fmt"
	"strconv"

	"github.com/st-keller/hostfacts/fact"
	"github.com/st-keller/hostfacts/registry"
)

// Identity describes the user the process runs as.
type Identity struct {
	env Env
}

// Name implements registry.Resolver.
func (Identity) Name() string { return "identity" }

// Resolve implements registry.Resolver. Keys: user, uid, group, gid,
// privileged.
func (i Identity) Resolve(context.Context) (map[string]any, error) {
	current, err := i.env.CurrentUser()
	if err != nil {
		return nil, fmt.Errorf("failed to look up current user: %w", err)
	}

	values := map[string]any{
		"user":       current.Username,
		"privileged": i.env.Geteuid() == 0,
	}
	if uid, err := strconv.ParseInt(current.Uid, 10, 64); err == nil {
		values["uid"] = uid
	}
	if gid, err := strconv.ParseInt(current.Gid, 10, 64); err == nil {
		values["gid"] = gid
	}
	if group, err := i.env.LookupGroup(current.Gid); err == nil {
		values["group"] = group.Name
	}
	return values, nil
}

func identityDefinitions(env Env) []registry.Definition {
	return []registry.Definition{
		{
			Name: "identity",
			Provider: func(ctx context.Context, cache *registry.Cache) []fact.Resolved {
				batch := cache.Batch(ctx, Identity{env: env})
				if len(batch) == 0 {
					return []fact.Resolved{fact.New("identity", nil)}
				}
				return []fact.Resolved{fact.New("identity", batch)}
			},
		},
	}
}
