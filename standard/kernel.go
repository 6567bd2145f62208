package standard

import (
	"context"
	"fmt"
	"strings"

	"github.com/st-keller/hostfacts/fact"
	"github.com/st-keller/hostfacts/registry"
)

func kernelDefinitions(env Env) []registry.Definition {
	uname := env.Uname
	lookup := func(ctx context.Context, cache *registry.Cache, key string) string {
		return stringValue(cache.Lookup(ctx, uname, key))
	}

	return []registry.Definition{
		{
			Name: "kernel",
			Provider: func(ctx context.Context, cache *registry.Cache) []fact.Resolved {
				return []fact.Resolved{fact.New("kernel", nonEmpty(lookup(ctx, cache, "sysname")))}
			},
		},
		{
			Name: "kernelrelease",
			Provider: func(ctx context.Context, cache *registry.Cache) []fact.Resolved {
				return []fact.Resolved{fact.New("kernelrelease", nonEmpty(lookup(ctx, cache, "release")))}
			},
		},
		{
			Name: "kernelversion",
			Provider: func(ctx context.Context, cache *registry.Cache) []fact.Resolved {
				version := KernelVersion(lookup(ctx, cache, "release"))
				return []fact.Resolved{fact.New("kernelversion", nonEmpty(version))}
			},
		},
		{
			Name: "kernelmajversion",
			Provider: func(ctx context.Context, cache *registry.Cache) []fact.Resolved {
				major := KernelMajorVersion(KernelVersion(lookup(ctx, cache, "release")))
				return []fact.Resolved{fact.New("kernelmajversion", nonEmpty(major))}
			},
		},
		{
			Name:    "os.hardware",
			Aliases: []string{"hardwaremodel"},
			Provider: func(ctx context.Context, cache *registry.Cache) []fact.Resolved {
				machine := nonEmpty(lookup(ctx, cache, "machine"))
				return []fact.Resolved{
					fact.New("os.hardware", machine),
					fact.New("hardwaremodel", machine, fact.Legacy),
				}
			},
		},
		{
			Name:    "os.architecture",
			Aliases: []string{"architecture"},
			Provider: func(ctx context.Context, cache *registry.Cache) []fact.Resolved {
				family := stringValue(cache.Lookup(ctx, osRelease(env), "family"))
				arch := nonEmpty(Architecture(lookup(ctx, cache, "machine"), family))
				return []fact.Resolved{
					fact.New("os.architecture", arch),
					fact.New("architecture", arch, fact.Legacy),
				}
			},
		},
	}
}

// KernelVersion strips the distribution suffix from a kernel release:
// 5.15.0-91-generic becomes 5.15.0.
func KernelVersion(release string) string {
	version, _, _ := strings.Cut(release, "-")
	return version
}

// WindowsRelease formats the Windows kernel release from the registry
// version numbers, with the update build revision appended when known:
// 10.0.19045.3803.
func WindowsRelease(major, minor uint64, build string, ubr uint64, hasUBR bool) string {
	release := fmt.Sprintf("%d.%d.%s", major, minor, build)
	if hasUBR {
		release = fmt.Sprintf("%s.%d", release, ubr)
	}
	return release
}

// KernelMajorVersion keeps the first two components of a kernel version.
func KernelMajorVersion(version string) string {
	parts := strings.SplitN(version, ".", 3)
	if len(parts) < 2 {
		return version
	}
	return parts[0] + "." + parts[1]
}

// Architecture maps the machine hardware name to the name the OS family
// uses for packages.
func Architecture(machine, family string) string {
	if family != "Debian" {
		return machine
	}
	switch machine {
	case "x86_64":
		return "amd64"
	case "aarch64":
		return "arm64"
	case "i686", "i586", "i386":
		return "i386"
	}
	return machine
}
