//go:build linux || darwin || freebsd || netbsd || openbsd

package standard

import (
	"context"
	"fmt"

	"golang.org/x/sys/unix"
)

// Uname reads the kernel identification from uname(2).
type Uname struct{}

// Name implements registry.Resolver.
func (Uname) Name() string { return "uname" }

// Resolve implements registry.Resolver. Keys: sysname, release, version,
// machine, nodename.
func (Uname) Resolve(context.Context) (map[string]any, error) {
	var utsname unix.Utsname
	if err := unix.Uname(&utsname); err != nil {
		return nil, fmt.Errorf("uname: %w", err)
	}
	return map[string]any{
		"sysname":  unix.ByteSliceToString(utsname.Sysname[:]),
		"release":  unix.ByteSliceToString(utsname.Release[:]),
		"version":  unix.ByteSliceToString(utsname.Version[:]),
		"machine":  unix.ByteSliceToString(utsname.Machine[:]),
		"nodename": unix.ByteSliceToString(utsname.Nodename[:]),
	}, nil
}
