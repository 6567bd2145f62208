//go:build linux

package standard

import (
	"context"
	"fmt"

	"golang.org/x/sys/unix"
)

// loadShift is SI_LOAD_SHIFT: sysinfo(2) load averages are fixed point.
const loadShift = 1 << 16

// Sysinfo reads memory, swap, uptime and load from sysinfo(2).
type Sysinfo struct{}

// Name implements registry.Resolver.
func (Sysinfo) Name() string { return "sysinfo" }

// Resolve implements registry.Resolver. Keys: total_ram, free_ram,
// total_swap, free_swap, uptime, load_1m, load_5m, load_15m.
func (Sysinfo) Resolve(context.Context) (map[string]any, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return nil, fmt.Errorf("sysinfo: %w", err)
	}
	unit := uint64(info.Unit)
	if unit == 0 {
		unit = 1
	}
	return map[string]any{
		"total_ram":  uint64(info.Totalram) * unit,
		"free_ram":   uint64(info.Freeram) * unit,
		"total_swap": uint64(info.Totalswap) * unit,
		"free_swap":  uint64(info.Freeswap) * unit,
		"uptime":     int64(info.Uptime),
		"load_1m":    float64(info.Loads[0]) / loadShift,
		"load_5m":    float64(info.Loads[1]) / loadShift,
		"load_15m":   float64(info.Loads[2]) / loadShift,
	}, nil
}
