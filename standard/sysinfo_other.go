//go:build !linux

package standard

import (
	"context"
	"errors"
)

// Sysinfo is only available on Linux; elsewhere memory, swap, uptime and
// load facts are absent.
type Sysinfo struct{}

// Name implements registry.Resolver.
func (Sysinfo) Name() string { return "sysinfo" }

// Resolve implements registry.Resolver.
func (Sysinfo) Resolve(context.Context) (map[string]any, error) {
	return nil, errors.New("sysinfo is not supported on this platform")
}
