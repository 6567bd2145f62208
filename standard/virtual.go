package standard

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/st-keller/hostfacts/fact"
	"github.com/st-keller/hostfacts/registry"
)

// Hypervisor and container names reported by the virtual fact.
const (
	Physical   = "physical"
	Docker     = "docker"
	Podman     = "podman"
	LXC        = "lxc"
	HyperV     = "hyperv"
	VMware     = "vmware"
	KVM        = "kvm"
	VirtualBox = "virtualbox"
	XenHVM     = "xenhvm"
	GCE        = "gce"
)

// VirtualDetector works out whether the host is a container or a virtual
// machine. Containers win over the hypervisor they run on.
type VirtualDetector struct {
	RootDir  string
	ProcRoot string
	SysRoot  string
}

// Name implements registry.Resolver.
func (d VirtualDetector) Name() string { return "virtual:" + d.RootDir }

// Resolve implements registry.Resolver. Key: platform.
func (d VirtualDetector) Resolve(context.Context) (map[string]any, error) {
	return map[string]any{"platform": d.Platform()}, nil
}

// Platform returns the detected container or hypervisor, or Physical.
func (d VirtualDetector) Platform() string {
	if container := d.container(); container != "" {
		return container
	}
	if hypervisor := d.hypervisor(); hypervisor != "" {
		return hypervisor
	}
	return Physical
}

func (d VirtualDetector) container() string {
	if _, err := os.Stat(filepath.Join(d.RootDir, ".dockerenv")); err == nil {
		return Docker
	}
	if _, err := os.Stat(filepath.Join(d.RootDir, "run", ".containerenv")); err == nil {
		return Podman
	}

	for _, path := range []string{
		filepath.Join(d.ProcRoot, "1", "cgroup"),
		filepath.Join(d.ProcRoot, "self", "cgroup"),
	} {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		cgroup := string(data)
		switch {
		case strings.Contains(cgroup, "docker"), strings.Contains(cgroup, "containerd"), strings.Contains(cgroup, "kubepods"):
			return Docker
		case strings.Contains(cgroup, "libpod"):
			return Podman
		case strings.Contains(cgroup, "/lxc/"):
			return LXC
		}
	}
	return ""
}

func (d VirtualDetector) hypervisor() string {
	dmi := filepath.Join(d.SysRoot, "class", "dmi", "id")
	vendor := readFileString(filepath.Join(dmi, "sys_vendor"))
	product := readFileString(filepath.Join(dmi, "product_name"))
	return Hypervisor(vendor, product)
}

// Hypervisor maps the DMI system vendor and product name to a hypervisor
// name, or "" for bare metal.
func Hypervisor(vendor, product string) string {
	switch {
	case vendor == "Microsoft Corporation" && product == "Virtual Machine":
		return HyperV
	case strings.Contains(vendor, "VMware"), strings.HasPrefix(product, "VMware"):
		return VMware
	case vendor == "innotek GmbH", product == "VirtualBox":
		return VirtualBox
	case vendor == "QEMU", strings.Contains(product, "KVM"), vendor == "Amazon EC2":
		return KVM
	case vendor == "Xen", strings.HasPrefix(product, "HVM domU"):
		return XenHVM
	case vendor == "Google":
		return GCE
	}
	return ""
}

func virtualDefinitions(env Env) []registry.Definition {
	detector := VirtualDetector{RootDir: env.RootDir, ProcRoot: env.ProcRoot, SysRoot: env.SysRoot}
	platform := func(ctx context.Context, cache *registry.Cache) string {
		return stringValue(cache.Lookup(ctx, detector, "platform"))
	}
	azure := AzureMetadata{Client: env.HTTPClient, URL: env.AzureMetadataURL}

	return []registry.Definition{
		{
			Name: "virtual",
			Provider: func(ctx context.Context, cache *registry.Cache) []fact.Resolved {
				return []fact.Resolved{fact.New("virtual", nonEmpty(platform(ctx, cache)))}
			},
		},
		{
			Name: "is_virtual",
			Provider: func(ctx context.Context, cache *registry.Cache) []fact.Resolved {
				p := platform(ctx, cache)
				if p == "" {
					return []fact.Resolved{fact.New("is_virtual", nil)}
				}
				return []fact.Resolved{fact.New("is_virtual", p != Physical)}
			},
		},
		{
			Name: "az_metadata",
			Provider: func(ctx context.Context, cache *registry.Cache) []fact.Resolved {
				if platform(ctx, cache) != HyperV || env.HTTPClient == nil {
					return []fact.Resolved{fact.New("az_metadata", nil)}
				}
				metadata := cache.Batch(ctx, azure)
				if len(metadata) == 0 {
					return []fact.Resolved{fact.New("az_metadata", nil)}
				}
				return []fact.Resolved{fact.New("az_metadata", metadata)}
			},
		},
	}
}
