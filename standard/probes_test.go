package standard

import (
	"context"
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnits(t *testing.T) {
	assert.Equal(t, 16384.0, BytesToMB(17179869184))
	assert.Equal(t, 1.5, BytesToMB(1572864))
	assert.Equal(t, "512 bytes", BytesToHuman(512))
	assert.Equal(t, "1.00 KiB", BytesToHuman(1024))
	assert.Equal(t, "15.53 GiB", BytesToHuman(16675266560))
	assert.Equal(t, "3 days", SecondsToHuman(3*86400+5))
	assert.Equal(t, "1 day", SecondsToHuman(86400))
	assert.Equal(t, "1:02 hours", SecondsToHuman(3720))
	assert.Equal(t, "5 minutes", SecondsToHuman(300))
	assert.Equal(t, "25.00%", Capacity(1, 4))
	assert.Equal(t, "0.00%", Capacity(1, 0))
}

func TestKernelHelpers(t *testing.T) {
	assert.Equal(t, "5.15.0", KernelVersion("5.15.0-91-generic"))
	assert.Equal(t, "6.1.0", KernelVersion("6.1.0"))
	assert.Equal(t, "5.15", KernelMajorVersion("5.15.0"))
	assert.Equal(t, "10", KernelMajorVersion("10"))

	assert.Equal(t, "amd64", Architecture("x86_64", "Debian"))
	assert.Equal(t, "arm64", Architecture("aarch64", "Debian"))
	assert.Equal(t, "i386", Architecture("i686", "Debian"))
	assert.Equal(t, "x86_64", Architecture("x86_64", "RedHat"))

	release := WindowsRelease(10, 0, "19045", 3803, true)
	assert.Equal(t, "10.0.19045.3803", release)
	assert.Equal(t, release, KernelVersion(release), "kernelrelease and kernelversion agree")
	assert.Equal(t, "10.0.19045", WindowsRelease(10, 0, "19045", 0, false))
}

func TestOSNameAndFamily(t *testing.T) {
	assert.Equal(t, "RedHat", OSName("rhel", "Red Hat Enterprise Linux"))
	assert.Equal(t, "Plan Nine", OSName("plan9", "Plan Nine"))
	assert.Equal(t, "Plan9", OSName("plan9", ""))

	assert.Equal(t, "RedHat", OSFamily("rocky", `rhel centos fedora`, "Rocky"))
	assert.Equal(t, "Debian", OSFamily("pop", "ubuntu debian", "Pop"))
	assert.Equal(t, "Suse", OSFamily("opensuse-leap", "suse opensuse", "OpenSuSE"))
	assert.Equal(t, "Plan9", OSFamily("plan9", "", "Plan9"))
}

func TestOSReleaseFallsBackToUsrLib(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"usr/lib/os-release": "ID=fedora\nNAME=Fedora\nVERSION_ID=39\n",
	})

	values, err := osRelease(Env{RootDir: root}.WithDefaults()).Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Fedora", values["name"])
	assert.Equal(t, "RedHat", values["family"])
	assert.Equal(t, "39", values["major"])
	assert.NotContains(t, values, "minor")
}

func TestParseMeminfo(t *testing.T) {
	values := ParseMeminfo([]byte("MemTotal:  2048 kB\nHugePages_Total: 4\nbroken line\nBad: x kB\n"))
	assert.Equal(t, map[string]any{
		"MemTotal":        uint64(2048 * 1024),
		"HugePages_Total": uint64(4),
	}, values)
}

func TestAddressValidity(t *testing.T) {
	assert.True(t, ValidIPv4(net.ParseIP("10.1.2.3")))
	assert.False(t, ValidIPv4(net.ParseIP("127.0.0.1")))
	assert.False(t, ValidIPv4(net.ParseIP("169.254.3.4")))
	assert.False(t, ValidIPv4(net.ParseIP("2001:db8::1")))

	assert.True(t, ValidIPv6(net.ParseIP("2001:db8::1")))
	assert.False(t, ValidIPv6(net.ParseIP("::1")))
	assert.False(t, ValidIPv6(net.ParseIP("fe80::abcd")))
	assert.False(t, ValidIPv6(net.ParseIP("10.1.2.3")))
}

func TestResolvConfDomain(t *testing.T) {
	assert.Equal(t, "corp.example", ResolvConfDomain("nameserver 10.0.0.1\ndomain corp.example\nsearch other.example\n"))
	assert.Equal(t, "a.example", ResolvConfDomain("search a.example b.example\n"))
	assert.Equal(t, "", ResolvConfDomain("nameserver 10.0.0.1\n"))
}

func TestHostnameFallsBackToResolvConf(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"etc/resolv.conf": "search lab.example\n"})

	env := testEnv(t, root, nil, "")
	env.LookupCNAME = func(context.Context, string) (string, error) { return "web1.", nil }
	values, err := hostnameResolver(env.WithDefaults()).Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "lab.example", values["domain"])
	assert.Equal(t, "web1.lab.example", values["fqdn"])

	env.Hostname = func() (string, error) { return "db2.prod.example", nil }
	values, err = hostnameResolver(env.WithDefaults()).Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "db2", values["hostname"])
	assert.Equal(t, "prod.example", values["domain"])
}

func TestDefaultRouteInterface(t *testing.T) {
	route := "Iface\tDestination\tGateway\n" +
		"wlan0\t0000A8C0\t00000000\n" +
		"wlan0\t00000000\t0100A8C0\n"
	assert.Equal(t, "wlan0", DefaultRouteInterface([]byte(route)))
	assert.Equal(t, "", DefaultRouteInterface([]byte("Iface\tDestination\n")))
}

func TestVirtualDetector(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  string
	}{
		{"bare metal", nil, Physical},
		{"docker env file", map[string]string{".dockerenv": ""}, Docker},
		{"podman env file", map[string]string{"run/.containerenv": ""}, Podman},
		{"docker cgroup", map[string]string{"proc/1/cgroup": "0::/system.slice/docker-abc.scope\n"}, Docker},
		{"lxc cgroup", map[string]string{"proc/self/cgroup": "0::/lxc/web\n"}, LXC},
		{"container wins over hypervisor", map[string]string{
			".dockerenv":                   "",
			"sys/class/dmi/id/sys_vendor":   "QEMU",
			"sys/class/dmi/id/product_name": "Standard PC",
		}, Docker},
		{"kvm", map[string]string{"sys/class/dmi/id/sys_vendor": "QEMU"}, KVM},
		{"vmware", map[string]string{"sys/class/dmi/id/product_name": "VMware Virtual Platform"}, VMware},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeTree(t, root, tt.files)
			detector := VirtualDetector{
				RootDir:  root,
				ProcRoot: filepath.Join(root, "proc"),
				SysRoot:  filepath.Join(root, "sys"),
			}
			assert.Equal(t, tt.want, detector.Platform())
		})
	}
}

func TestHypervisor(t *testing.T) {
	assert.Equal(t, HyperV, Hypervisor("Microsoft Corporation", "Virtual Machine"))
	assert.Equal(t, "", Hypervisor("Microsoft Corporation", "Surface Laptop"))
	assert.Equal(t, VirtualBox, Hypervisor("innotek GmbH", "VirtualBox"))
	assert.Equal(t, KVM, Hypervisor("Amazon EC2", "m5.large"))
	assert.Equal(t, XenHVM, Hypervisor("Xen", "HVM domU"))
	assert.Equal(t, GCE, Hypervisor("Google", "Google Compute Engine"))
	assert.Equal(t, "", Hypervisor("Dell Inc.", "PowerEdge R640"))
}

func TestAzureMetadataWithoutClient(t *testing.T) {
	_, err := AzureMetadata{URL: DefaultAzureMetadataURL}.Resolve(context.Background())
	assert.Error(t, err)
}

func TestIdentityUnprivileged(t *testing.T) {
	env := testEnv(t, t.TempDir(), nil, "")
	env.Geteuid = func() int { return 1000 }
	values, err := Identity{env: env}.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, false, values["privileged"])
	assert.Equal(t, int64(0), values["uid"])
}
