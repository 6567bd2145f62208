// Package standard provides the built-in fact definitions and the
// platform probes behind them.
//
// Probes read /proc, /sys and /etc below configurable roots so tests can
// point them at synthetic trees. A probe never fails a query: missing or
// unreadable data produces absent facts.
package standard

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/st-keller/hostfacts/fact"
	"github.com/st-keller/hostfacts/registry"
)

// DefaultAzureMetadataURL is the Azure instance metadata endpoint.
const DefaultAzureMetadataURL = "http://169.254.169.254/metadata/instance?api-version=2020-09-01"

// Env locates everything the probes read. Zero fields take the host
// defaults (see WithDefaults).
type Env struct {
	RootDir  string
	ProcRoot string
	SysRoot  string
	EtcRoot  string
	SSHDir   string

	// Version is published as the hostfactsversion fact.
	Version string

	// HTTPClient reaches cloud metadata services. Nil disables them.
	HTTPClient       *http.Client
	AzureMetadataURL string

	// Probe hooks, replaceable in tests.
	Uname       registry.Resolver
	Sysinfo     registry.Resolver
	Interfaces  func() ([]Interface, error)
	Hostname    func() (string, error)
	LookupCNAME func(ctx context.Context, host string) (string, error)
	CurrentUser func() (*user.User, error)
	LookupGroup func(gid string) (*user.Group, error)
	Geteuid     func() int
}

// WithDefaults returns env with every zero field set to the host default.
func (env Env) WithDefaults() Env {
	if env.RootDir == "" {
		env.RootDir = "/"
	}
	if env.ProcRoot == "" {
		env.ProcRoot = filepath.Join(env.RootDir, "proc")
	}
	if env.SysRoot == "" {
		env.SysRoot = filepath.Join(env.RootDir, "sys")
	}
	if env.EtcRoot == "" {
		env.EtcRoot = filepath.Join(env.RootDir, "etc")
	}
	if env.SSHDir == "" {
		env.SSHDir = filepath.Join(env.EtcRoot, "ssh")
	}
	if env.AzureMetadataURL == "" {
		env.AzureMetadataURL = DefaultAzureMetadataURL
	}
	if env.Uname == nil {
		env.Uname = Uname{}
	}
	if env.Sysinfo == nil {
		env.Sysinfo = Sysinfo{}
	}
	if env.Interfaces == nil {
		env.Interfaces = SystemInterfaces
	}
	if env.Hostname == nil {
		env.Hostname = os.Hostname
	}
	if env.LookupCNAME == nil {
		env.LookupCNAME = net.DefaultResolver.LookupCNAME
	}
	if env.CurrentUser == nil {
		env.CurrentUser = user.Current
	}
	if env.LookupGroup == nil {
		env.LookupGroup = user.LookupGroupId
	}
	if env.Geteuid == nil {
		env.Geteuid = os.Geteuid
	}
	return env
}

// Definitions returns every built-in fact definition for env.
func Definitions(env Env) []registry.Definition {
	env = env.WithDefaults()

	var defs []registry.Definition
	defs = append(defs, kernelDefinitions(env)...)
	defs = append(defs, osDefinitions(env)...)
	defs = append(defs, memoryDefinitions(env)...)
	defs = append(defs, uptimeDefinitions(env)...)
	defs = append(defs, identityDefinitions(env)...)
	defs = append(defs, networkingDefinitions(env)...)
	defs = append(defs, virtualDefinitions(env)...)
	defs = append(defs, sshDefinitions(env)...)
	defs = append(defs, registry.Definition{
		Name: "hostfactsversion",
		Provider: func(context.Context, *registry.Cache) []fact.Resolved {
			return []fact.Resolved{fact.New("hostfactsversion", nonEmpty(env.Version))}
		},
	})
	return defs
}

// nonEmpty returns s, or nil for the empty string so the fact is absent.
func nonEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

// uintValue reads a non-negative integer from a normalized or raw value.
func uintValue(v any) (uint64, bool) {
	switch n := v.(type) {
	case uint64:
		return n, true
	case int64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case int:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case float64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case string:
		parsed, err := strconv.ParseUint(n, 10, 64)
		return parsed, err == nil
	}
	return 0, false
}

// readFileString returns the trimmed content of path, or "" when it cannot
// be read.
func readFileString(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
