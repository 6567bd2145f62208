//go:build !(linux || darwin || freebsd || netbsd || openbsd || windows)

package standard

import (
	"context"
	"errors"
)

// Uname is unavailable on this platform.
type Uname struct{}

// Name implements registry.Resolver.
func (Uname) Name() string { return "uname" }

// Resolve implements registry.Resolver.
func (Uname) Resolve(context.Context) (map[string]any, error) {
	return nil, errors.New("uname not supported on this platform")
}
