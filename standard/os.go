package standard

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/st-keller/hostfacts/fact"
	"github.com/st-keller/hostfacts/registry"
)

// OSRelease reads the os-release(5) file.
type OSRelease struct {
	Paths []string
}

func osRelease(env Env) OSRelease {
	return OSRelease{Paths: []string{
		filepath.Join(env.EtcRoot, "os-release"),
		filepath.Join(env.RootDir, "usr/lib/os-release"),
	}}
}

// Name implements registry.Resolver.
func (r OSRelease) Name() string { return "os-release:" + strings.Join(r.Paths, ",") }

// Resolve implements registry.Resolver. Keys: name, family, id, full,
// major, minor, codename, description.
func (r OSRelease) Resolve(context.Context) (map[string]any, error) {
	var data []byte
	var err error
	for _, path := range r.Paths {
		if data, err = os.ReadFile(path); err == nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("no os-release file: %w", err)
	}

	fields, err := godotenv.UnmarshalBytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse os-release: %w", err)
	}

	id := strings.ToLower(fields["ID"])
	name := OSName(id, fields["NAME"])
	values := map[string]any{
		"id":          id,
		"name":        name,
		"family":      OSFamily(id, fields["ID_LIKE"], name),
		"codename":    fields["VERSION_CODENAME"],
		"description": fields["PRETTY_NAME"],
	}
	if full := fields["VERSION_ID"]; full != "" {
		values["full"] = full
		parts := strings.SplitN(full, ".", 3)
		values["major"] = parts[0]
		if len(parts) > 1 {
			values["minor"] = parts[1]
		}
	}
	return values, nil
}

var osNames = map[string]string{
	"ubuntu":              "Ubuntu",
	"debian":              "Debian",
	"rhel":                "RedHat",
	"centos":              "CentOS",
	"fedora":              "Fedora",
	"amzn":                "Amazon",
	"rocky":               "Rocky",
	"almalinux":           "AlmaLinux",
	"ol":                  "OracleLinux",
	"sles":                "SLES",
	"opensuse":            "OpenSuSE",
	"opensuse-leap":       "OpenSuSE",
	"opensuse-tumbleweed": "OpenSuSE",
	"arch":                "Archlinux",
	"alpine":              "Alpine",
	"gentoo":              "Gentoo",
	"linuxmint":           "LinuxMint",
}

// OSName maps an os-release ID to the conventional OS name, falling back
// to the NAME field.
func OSName(id, name string) string {
	if mapped, ok := osNames[id]; ok {
		return mapped
	}
	if name != "" {
		return name
	}
	if id == "" {
		return ""
	}
	return strings.ToUpper(id[:1]) + id[1:]
}

// OSFamily returns the family an OS belongs to, judged from its ID and
// ID_LIKE fields.
func OSFamily(id, idLike, name string) string {
	candidates := append([]string{id}, strings.Fields(strings.ToLower(idLike))...)
	for _, candidate := range candidates {
		switch candidate {
		case "debian", "ubuntu":
			return "Debian"
		case "rhel", "fedora", "centos", "amzn", "rocky", "almalinux", "ol":
			return "RedHat"
		case "suse", "sles", "opensuse":
			return "Suse"
		case "arch":
			return "Archlinux"
		case "gentoo":
			return "Gentoo"
		}
	}
	return name
}

func osDefinitions(env Env) []registry.Definition {
	release := osRelease(env)
	lookup := func(ctx context.Context, cache *registry.Cache, key string) string {
		return stringValue(cache.Lookup(ctx, release, key))
	}
	// os-release is Linux only; elsewhere the kernel name stands in
	name := func(ctx context.Context, cache *registry.Cache) string {
		if name := lookup(ctx, cache, "name"); name != "" {
			return name
		}
		return stringValue(cache.Lookup(ctx, env.Uname, "sysname"))
	}

	return []registry.Definition{
		{
			Name:    "os.name",
			Aliases: []string{"operatingsystem"},
			Provider: func(ctx context.Context, cache *registry.Cache) []fact.Resolved {
				value := nonEmpty(name(ctx, cache))
				return []fact.Resolved{
					fact.New("os.name", value),
					fact.New("operatingsystem", value, fact.Legacy),
				}
			},
		},
		{
			Name:    "os.family",
			Aliases: []string{"osfamily"},
			Provider: func(ctx context.Context, cache *registry.Cache) []fact.Resolved {
				family := lookup(ctx, cache, "family")
				if family == "" {
					family = name(ctx, cache)
				}
				value := nonEmpty(family)
				return []fact.Resolved{
					fact.New("os.family", value),
					fact.New("osfamily", value, fact.Legacy),
				}
			},
		},
		{
			Name:    "os.release",
			Aliases: []string{"operatingsystemrelease", "operatingsystemmajrelease"},
			Provider: func(ctx context.Context, cache *registry.Cache) []fact.Resolved {
				full := lookup(ctx, cache, "full")
				if full == "" {
					full = KernelVersion(stringValue(cache.Lookup(ctx, env.Uname, "release")))
				}
				if full == "" {
					return []fact.Resolved{
						fact.New("os.release", nil),
						fact.New("operatingsystemrelease", nil, fact.Legacy),
						fact.New("operatingsystemmajrelease", nil, fact.Legacy),
					}
				}
				parts := strings.SplitN(full, ".", 3)
				value := map[string]any{"full": full, "major": parts[0]}
				if len(parts) > 1 {
					value["minor"] = parts[1]
				}
				return []fact.Resolved{
					fact.New("os.release", value),
					fact.New("operatingsystemrelease", full, fact.Legacy),
					fact.New("operatingsystemmajrelease", parts[0], fact.Legacy),
				}
			},
		},
		{
			Name: "os.distro",
			Provider: func(ctx context.Context, cache *registry.Cache) []fact.Resolved {
				distro := map[string]any{}
				for _, key := range []string{"id", "codename", "description"} {
					if value := lookup(ctx, cache, key); value != "" {
						distro[key] = value
					}
				}
				if len(distro) == 0 {
					return []fact.Resolved{fact.New("os.distro", nil)}
				}
				return []fact.Resolved{fact.New("os.distro", distro)}
			},
		},
	}
}
