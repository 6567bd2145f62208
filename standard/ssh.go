package standard

import (
	"context"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/crypto/ssh"

	"github.com/st-keller/hostfacts/fact"
	"github.com/st-keller/hostfacts/registry"
)

// sshfpAlgorithms maps host key algorithms to their SSHFP record numbers
// (RFC 4255, RFC 6594, RFC 7479).
var sshfpAlgorithms = map[string]int{
	"rsa":     1,
	"dsa":     2,
	"ecdsa":   3,
	"ed25519": 4,
}

// HostKey is a parsed SSH host public key.
type HostKey struct {
	Algorithm string
	Type      string
	Key       string
	SHA1      string
	SHA256    string
}

func (k HostKey) value() map[string]any {
	return map[string]any{
		"key":  k.Key,
		"type": k.Type,
		"fingerprints": map[string]any{
			"sha1":   k.SHA1,
			"sha256": k.SHA256,
		},
	}
}

// SSHKeys scans a directory for ssh_host_<algorithm>_key.pub files.
type SSHKeys struct {
	Dir string
}

// Name implements registry.Resolver.
func (s SSHKeys) Name() string { return "ssh:" + s.Dir }

// Resolve implements registry.Resolver. The batch maps each algorithm to
// its HostKey. Unparsable files are skipped.
func (s SSHKeys) Resolve(context.Context) (map[string]any, error) {
	matches, err := filepath.Glob(filepath.Join(s.Dir, "ssh_host_*_key.pub"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan ssh directory: %w", err)
	}

	keys := make(map[string]any, len(matches))
	for _, path := range matches {
		algorithm := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), "ssh_host_"), "_key.pub")
		key, err := ParseHostKey(algorithm, path)
		if err != nil {
			continue
		}
		keys[algorithm] = key
	}
	return keys, nil
}

// ParseHostKey reads one public key file and computes its SSHFP
// fingerprints.
func ParseHostKey(algorithm, path string) (HostKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return HostKey{}, fmt.Errorf("failed to read host key: %w", err)
	}
	pub, _, _, _, err := ssh.ParseAuthorizedKey(data)
	if err != nil {
		return HostKey{}, fmt.Errorf("failed to parse host key %s: %w", path, err)
	}

	wire := pub.Marshal()
	sum1 := sha1.Sum(wire)
	sum256 := sha256.Sum256(wire)
	number := sshfpAlgorithms[algorithm]

	return HostKey{
		Algorithm: algorithm,
		Type:      pub.Type(),
		Key:       base64.StdEncoding.EncodeToString(wire),
		SHA1:      fmt.Sprintf("SSHFP %d 1 %s", number, hex.EncodeToString(sum1[:])),
		SHA256:    fmt.Sprintf("SSHFP %d 2 %s", number, hex.EncodeToString(sum256[:])),
	}, nil
}

func sshDefinitions(env Env) []registry.Definition {
	scanner := SSHKeys{Dir: env.SSHDir}

	hostKeys := func(ctx context.Context, cache *registry.Cache) []HostKey {
		batch := cache.Batch(ctx, scanner)
		keys := make([]HostKey, 0, len(batch))
		for _, v := range batch {
			if key, ok := v.(HostKey); ok {
				keys = append(keys, key)
			}
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i].Algorithm < keys[j].Algorithm })
		return keys
	}

	var legacy []string
	for algorithm := range sshfpAlgorithms {
		legacy = append(legacy, "ssh"+algorithm+"key", "sshfp_"+algorithm)
	}
	sort.Strings(legacy)

	return []registry.Definition{
		{
			Name:    "ssh",
			Aliases: legacy,
			Provider: func(ctx context.Context, cache *registry.Cache) []fact.Resolved {
				keys := hostKeys(ctx, cache)
				if len(keys) == 0 {
					return []fact.Resolved{fact.New("ssh", nil)}
				}
				value := make(map[string]any, len(keys))
				facts := make([]fact.Resolved, 0, 1+2*len(keys))
				facts = append(facts, fact.Resolved{})
				for _, key := range keys {
					value[key.Algorithm] = key.value()
					facts = append(facts,
						fact.New("ssh"+key.Algorithm+"key", key.Key, fact.Legacy),
						fact.New("sshfp_"+key.Algorithm, key.SHA1+"\n"+key.SHA256, fact.Legacy),
					)
				}
				facts[0] = fact.New("ssh", value)
				return facts
			},
		},
	}
}
