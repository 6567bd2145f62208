package standard

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/st-keller/hostfacts/fact"
	"github.com/st-keller/hostfacts/registry"
)

// Meminfo parses /proc/meminfo.
type Meminfo struct {
	Path string
}

// Name implements registry.Resolver.
func (m Meminfo) Name() string { return "meminfo:" + m.Path }

// Resolve implements registry.Resolver. Every field of the file is
// returned in bytes under its own name, e.g. MemAvailable.
func (m Meminfo) Resolve(context.Context) (map[string]any, error) {
	data, err := os.ReadFile(m.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read meminfo: %w", err)
	}
	return ParseMeminfo(data), nil
}

// ParseMeminfo reads "Key:   value kB" lines. Values without a unit are
// kept as counts.
func ParseMeminfo(data []byte) map[string]any {
	values := make(map[string]any)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		key, rest, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			continue
		}
		n, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			continue
		}
		if len(fields) > 1 && strings.EqualFold(fields[1], "kB") {
			n *= 1024
		}
		values[strings.TrimSpace(key)] = n
	}
	return values
}

type memoryStats struct {
	total     uint64
	available uint64
}

func (s memoryStats) value() map[string]any {
	used := s.total - s.available
	return map[string]any{
		"total_bytes":     s.total,
		"available_bytes": s.available,
		"used_bytes":      used,
		"total":           BytesToHuman(s.total),
		"available":       BytesToHuman(s.available),
		"used":            BytesToHuman(used),
		"capacity":        Capacity(used, s.total),
	}
}

func memoryDefinitions(env Env) []registry.Definition {
	meminfo := Meminfo{Path: filepath.Join(env.ProcRoot, "meminfo")}

	// meminfo is preferred; sysinfo(2) answers when /proc is unavailable
	read := func(ctx context.Context, cache *registry.Cache, meminfoTotal, meminfoFree, sysTotal, sysFree string) (memoryStats, bool) {
		total, ok := uintValue(cache.Lookup(ctx, meminfo, meminfoTotal))
		if !ok {
			total, ok = uintValue(cache.Lookup(ctx, env.Sysinfo, sysTotal))
		}
		if !ok || total == 0 {
			return memoryStats{}, false
		}
		available, ok := uintValue(cache.Lookup(ctx, meminfo, meminfoFree))
		if !ok {
			available, _ = uintValue(cache.Lookup(ctx, env.Sysinfo, sysFree))
		}
		if available > total {
			available = total
		}
		return memoryStats{total: total, available: available}, true
	}

	return []registry.Definition{
		{
			Name:    "memory.system",
			Aliases: []string{"memorysize", "memorysize_mb", "memoryfree", "memoryfree_mb"},
			Provider: func(ctx context.Context, cache *registry.Cache) []fact.Resolved {
				stats, ok := read(ctx, cache, "MemTotal", "MemAvailable", "total_ram", "free_ram")
				if !ok {
					return absent("memory.system", "memorysize", "memorysize_mb", "memoryfree", "memoryfree_mb")
				}
				return []fact.Resolved{
					fact.New("memory.system", stats.value()),
					fact.New("memorysize", BytesToHuman(stats.total), fact.Legacy),
					fact.New("memorysize_mb", BytesToMB(stats.total), fact.Legacy),
					fact.New("memoryfree", BytesToHuman(stats.available), fact.Legacy),
					fact.New("memoryfree_mb", BytesToMB(stats.available), fact.Legacy),
				}
			},
		},
		{
			Name:    "memory.swap",
			Aliases: []string{"swapsize", "swapsize_mb", "swapfree", "swapfree_mb"},
			Provider: func(ctx context.Context, cache *registry.Cache) []fact.Resolved {
				stats, ok := read(ctx, cache, "SwapTotal", "SwapFree", "total_swap", "free_swap")
				if !ok {
					return absent("memory.swap", "swapsize", "swapsize_mb", "swapfree", "swapfree_mb")
				}
				return []fact.Resolved{
					fact.New("memory.swap", stats.value()),
					fact.New("swapsize", BytesToHuman(stats.total), fact.Legacy),
					fact.New("swapsize_mb", BytesToMB(stats.total), fact.Legacy),
					fact.New("swapfree", BytesToHuman(stats.available), fact.Legacy),
					fact.New("swapfree_mb", BytesToMB(stats.available), fact.Legacy),
				}
			},
		},
	}
}

// absent returns nil-valued facts: the first name is core, the rest legacy.
func absent(name string, legacy ...string) []fact.Resolved {
	facts := []fact.Resolved{fact.New(name, nil)}
	for _, l := range legacy {
		facts = append(facts, fact.New(l, nil, fact.Legacy))
	}
	return facts
}
