//go:build windows

package standard

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/windows/registry"
)

const currentVersionKey = `SOFTWARE\Microsoft\Windows NT\CurrentVersion`

// Uname answers the uname keys from the registry on Windows.
type Uname struct{}

// Name implements registry.Resolver.
func (Uname) Name() string { return "uname" }

// Resolve implements registry.Resolver. The release is
// major.minor.build, e.g. 10.0.19045; the version adds the update build
// revision when the registry has one.
func (Uname) Resolve(context.Context) (map[string]any, error) {
	key, err := registry.OpenKey(registry.LOCAL_MACHINE, currentVersionKey, registry.QUERY_VALUE)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", currentVersionKey, err)
	}
	defer key.Close()

	major, _, err := key.GetIntegerValue("CurrentMajorVersionNumber")
	if err != nil {
		return nil, fmt.Errorf("read CurrentMajorVersionNumber: %w", err)
	}
	minor, _, err := key.GetIntegerValue("CurrentMinorVersionNumber")
	if err != nil {
		return nil, fmt.Errorf("read CurrentMinorVersionNumber: %w", err)
	}
	build, _, err := key.GetStringValue("CurrentBuildNumber")
	if err != nil {
		return nil, fmt.Errorf("read CurrentBuildNumber: %w", err)
	}
	ubr, _, ubrErr := key.GetIntegerValue("UBR")
	release := WindowsRelease(major, minor, build, ubr, ubrErr == nil)

	hostname, _ := os.Hostname()
	return map[string]any{
		"sysname":  "windows",
		"release":  release,
		"version":  release,
		"machine":  strings.ToLower(os.Getenv("PROCESSOR_ARCHITECTURE")),
		"nodename": hostname,
	}, nil
}
