package standard

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/st-keller/hostfacts/fact"
	"github.com/st-keller/hostfacts/registry"
)

// ProcFields reads the whitespace separated fields of a one-line /proc
// file such as uptime or loadavg. Keys are the field positions "0", "1",
// and so on.
type ProcFields struct {
	Path string
}

// Name implements registry.Resolver.
func (p ProcFields) Name() string { return "proc:" + p.Path }

// Resolve implements registry.Resolver.
func (p ProcFields) Resolve(context.Context) (map[string]any, error) {
	content := readFileString(p.Path)
	values := make(map[string]any)
	for i, field := range strings.Fields(content) {
		values[strconv.Itoa(i)] = field
	}
	return values, nil
}

func floatValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		return parsed, err == nil
	}
	if u, ok := uintValue(v); ok {
		return float64(u), true
	}
	return 0, false
}

func uptimeDefinitions(env Env) []registry.Definition {
	uptime := ProcFields{Path: filepath.Join(env.ProcRoot, "uptime")}
	loadavg := ProcFields{Path: filepath.Join(env.ProcRoot, "loadavg")}

	seconds := func(ctx context.Context, cache *registry.Cache) (int64, bool) {
		if value, ok := floatValue(cache.Lookup(ctx, uptime, "0")); ok {
			return int64(value), true
		}
		if value, ok := uintValue(cache.Lookup(ctx, env.Sysinfo, "uptime")); ok {
			return int64(value), true
		}
		return 0, false
	}

	return []registry.Definition{
		{
			Name:    "system_uptime",
			Aliases: []string{"uptime", "uptime_seconds", "uptime_hours", "uptime_days"},
			Provider: func(ctx context.Context, cache *registry.Cache) []fact.Resolved {
				secs, ok := seconds(ctx, cache)
				if !ok {
					return absent("system_uptime", "uptime", "uptime_seconds", "uptime_hours", "uptime_days")
				}
				hours := secs / 3600
				days := secs / 86400
				human := SecondsToHuman(secs)
				return []fact.Resolved{
					fact.New("system_uptime", map[string]any{
						"seconds": secs,
						"hours":   hours,
						"days":    days,
						"uptime":  human,
					}),
					fact.New("uptime", human, fact.Legacy),
					fact.New("uptime_seconds", secs, fact.Legacy),
					fact.New("uptime_hours", hours, fact.Legacy),
					fact.New("uptime_days", days, fact.Legacy),
				}
			},
		},
		{
			Name: "load_averages",
			Provider: func(ctx context.Context, cache *registry.Cache) []fact.Resolved {
				loads := map[string]any{}
				for i, key := range []string{"1m", "5m", "15m"} {
					if value, ok := floatValue(cache.Lookup(ctx, loadavg, strconv.Itoa(i))); ok {
						loads[key] = value
					} else if value, ok := floatValue(cache.Lookup(ctx, env.Sysinfo, "load_"+key)); ok {
						loads[key] = round2(value)
					}
				}
				if len(loads) == 0 {
					return []fact.Resolved{fact.New("load_averages", nil)}
				}
				return []fact.Resolved{fact.New("load_averages", loads)}
			},
		},
	}
}
