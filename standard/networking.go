package standard

import (
	"bufio"
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/st-keller/hostfacts/fact"
	"github.com/st-keller/hostfacts/registry"
)

// Interface is one network interface as seen by the probes.
type Interface struct {
	Name     string
	MTU      int
	MAC      string
	Loopback bool
	Addrs    []*net.IPNet
}

// SystemInterfaces lists the host's interfaces through net.Interfaces.
func SystemInterfaces() ([]Interface, error) {
	system, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	out := make([]Interface, 0, len(system))
	for _, iface := range system {
		entry := Interface{
			Name:     iface.Name,
			MTU:      iface.MTU,
			MAC:      iface.HardwareAddr.String(),
			Loopback: iface.Flags&net.FlagLoopback != 0,
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			if ipNet, ok := addr.(*net.IPNet); ok {
				entry.Addrs = append(entry.Addrs, ipNet)
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

var linkLocal4 = &net.IPNet{IP: net.IPv4(169, 254, 0, 0), Mask: net.CIDRMask(16, 32)}

// ValidIPv4 reports whether ip is worth publishing: loopback and DHCP
// APIPA addresses are not.
func ValidIPv4(ip net.IP) bool {
	ip4 := ip.To4()
	if ip4 == nil {
		return false
	}
	return !ip4.Equal(net.IPv4(127, 0, 0, 1)) && !linkLocal4.Contains(ip4)
}

// ValidIPv6 reports whether ip is a publishable IPv6 address, excluding
// loopback and fe80::/10.
func ValidIPv6(ip net.IP) bool {
	if ip.To4() != nil || ip.To16() == nil {
		return false
	}
	return !ip.IsLoopback() && !ip.IsLinkLocalUnicast()
}

// bindings holds the first publishable address of each family.
type bindings struct {
	ip, netmask, network    string
	ip6, netmask6, network6 string
}

func bindingsOf(iface Interface) bindings {
	var b bindings
	for _, addr := range iface.Addrs {
		switch {
		case b.ip == "" && ValidIPv4(addr.IP):
			b.ip = addr.IP.To4().String()
			b.netmask = net.IP(addr.Mask).String()
			b.network = addr.IP.Mask(addr.Mask).String()
		case b.ip6 == "" && ValidIPv6(addr.IP):
			b.ip6 = addr.IP.String()
			b.netmask6 = net.IP(addr.Mask).String()
			b.network6 = addr.IP.Mask(addr.Mask).String()
		}
	}
	return b
}

func (b bindings) set(values map[string]any) {
	for key, value := range map[string]string{
		"ip": b.ip, "netmask": b.netmask, "network": b.network,
		"ip6": b.ip6, "netmask6": b.netmask6, "network6": b.network6,
	} {
		if value != "" {
			values[key] = value
		}
	}
}

// DefaultRouteInterface returns the interface of the IPv4 default route
// in a /proc/net/route table.
func DefaultRouteInterface(route []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(route))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) > 2 && fields[1] == "00000000" && fields[0] != "Iface" {
			return fields[0]
		}
	}
	return ""
}

// networkResolver answers "interfaces" (map of name to details, in the
// shape of the networking.interfaces fact) and "primary".
func networkResolver(env Env) registry.Resolver {
	return registry.Func("interfaces", func(context.Context) (map[string]any, error) {
		ifaces, err := env.Interfaces()
		if err != nil {
			return nil, err
		}
		sort.Slice(ifaces, func(i, j int) bool { return ifaces[i].Name < ifaces[j].Name })

		details := make(map[string]any, len(ifaces))
		primary := ""
		for _, iface := range ifaces {
			entry := map[string]any{}
			if iface.MTU > 0 {
				entry["mtu"] = int64(iface.MTU)
			}
			if iface.MAC != "" {
				entry["mac"] = iface.MAC
			}
			b := bindingsOf(iface)
			b.set(entry)
			details[iface.Name] = entry
			if primary == "" && !iface.Loopback && b.ip != "" {
				primary = iface.Name
			}
		}

		if route, err := os.ReadFile(filepath.Join(env.ProcRoot, "net", "route")); err == nil {
			if name := DefaultRouteInterface(route); name != "" {
				if _, ok := details[name]; ok {
					primary = name
				}
			}
		}

		values := map[string]any{"interfaces": details}
		if primary != "" {
			values["primary"] = primary
		}
		return values, nil
	})
}

// hostnameResolver answers "hostname", "domain" and "fqdn".
func hostnameResolver(env Env) registry.Resolver {
	return registry.Func("hostname", func(ctx context.Context) (map[string]any, error) {
		name, err := env.Hostname()
		if err != nil {
			return nil, err
		}
		host, domain, _ := strings.Cut(name, ".")
		if domain == "" {
			if canonical, err := env.LookupCNAME(ctx, host); err == nil {
				canonical = strings.TrimSuffix(canonical, ".")
				if canonicalHost, canonicalDomain, ok := strings.Cut(canonical, "."); ok && canonicalHost == host {
					domain = canonicalDomain
				}
			}
		}
		if domain == "" {
			domain = ResolvConfDomain(readFileString(filepath.Join(env.EtcRoot, "resolv.conf")))
		}

		values := map[string]any{"hostname": host}
		if domain != "" {
			values["domain"] = domain
			values["fqdn"] = host + "." + domain
		} else {
			values["fqdn"] = host
		}
		return values, nil
	})
}

// ResolvConfDomain returns the domain line of a resolv.conf, or the first
// search entry when there is none.
func ResolvConfDomain(content string) string {
	search := ""
	for _, line := range strings.Split(content, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "domain":
			return fields[1]
		case "search":
			if search == "" {
				search = fields[1]
			}
		}
	}
	return search
}

func networkingDefinitions(env Env) []registry.Definition {
	network := networkResolver(env)
	hostname := hostnameResolver(env)

	primary := func(ctx context.Context, cache *registry.Cache) map[string]any {
		name := stringValue(cache.Lookup(ctx, network, "primary"))
		details, _ := cache.Lookup(ctx, network, "interfaces").(map[string]any)
		entry, _ := details[name].(map[string]any)
		return entry
	}
	primaryField := func(name, legacy, key string) registry.Definition {
		def := registry.Definition{
			Name: name,
			Provider: func(ctx context.Context, cache *registry.Cache) []fact.Resolved {
				value := primary(ctx, cache)[key]
				facts := []fact.Resolved{fact.New(name, value)}
				if legacy != "" {
					facts = append(facts, fact.New(legacy, value, fact.Legacy))
				}
				return facts
			},
		}
		if legacy != "" {
			def.Aliases = []string{legacy}
		}
		return def
	}
	hostnameField := func(key string) registry.Definition {
		name := "networking." + key
		return registry.Definition{
			Name:    name,
			Aliases: []string{key},
			Provider: func(ctx context.Context, cache *registry.Cache) []fact.Resolved {
				value := cache.Lookup(ctx, hostname, key)
				return []fact.Resolved{
					fact.New(name, value),
					fact.New(key, value, fact.Legacy),
				}
			},
		}
	}

	return []registry.Definition{
		hostnameField("hostname"),
		hostnameField("domain"),
		hostnameField("fqdn"),
		primaryField("networking.ip", "ipaddress", "ip"),
		primaryField("networking.ip6", "ipaddress6", "ip6"),
		primaryField("networking.mac", "macaddress", "mac"),
		primaryField("networking.netmask", "netmask", "netmask"),
		primaryField("networking.network", "network", "network"),
		primaryField("networking.mtu", "", "mtu"),
		{
			Name: "networking.primary",
			Provider: func(ctx context.Context, cache *registry.Cache) []fact.Resolved {
				return []fact.Resolved{fact.New("networking.primary", cache.Lookup(ctx, network, "primary"))}
			},
		},
		{
			Name:    "networking.interfaces",
			Aliases: []string{"interfaces"},
			Provider: func(ctx context.Context, cache *registry.Cache) []fact.Resolved {
				details, _ := cache.Lookup(ctx, network, "interfaces").(map[string]any)
				if len(details) == 0 {
					return absent("networking.interfaces", "interfaces")
				}
				names := make([]string, 0, len(details))
				for name := range details {
					names = append(names, name)
				}
				sort.Strings(names)
				return []fact.Resolved{
					fact.New("networking.interfaces", details),
					fact.New("interfaces", strings.Join(names, ","), fact.Legacy),
				}
			},
		},
	}
}
