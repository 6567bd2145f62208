package options

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hostfacts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	opts := Default()
	assert.False(t, opts.ShowLegacy)
	assert.True(t, opts.StructuredExternalFacts)
	assert.Equal(t, "warn", opts.LogLevel)
	assert.Equal(t, 8, opts.Parallelism)
	assert.Equal(t, 2*time.Second, opts.MetadataTimeout)
	assert.Contains(t, opts.ExternalDirs, "/etc/hostfacts/facts.d")
	assert.NoError(t, opts.Validate())
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	opts, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), opts)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
global:
  external-dir: [/srv/facts]
  no-external-facts: false
  metadata-timeout: 500ms
  parallelism: 3
cli:
  debug: true
  log-level: info
  timing: true
facts:
  blocklist: [ssh, memory.swap]
  show-legacy: true
  structured-external-facts: false
`)

	opts, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"/srv/facts"}, opts.ExternalDirs)
	assert.Equal(t, 500*time.Millisecond, opts.MetadataTimeout)
	assert.Equal(t, 3, opts.Parallelism)
	assert.True(t, opts.Debug)
	assert.Equal(t, "info", opts.LogLevel)
	assert.True(t, opts.Timing)
	assert.Equal(t, []string{"ssh", "memory.swap"}, opts.Blocklist)
	assert.True(t, opts.ShowLegacy)
	assert.False(t, opts.StructuredExternalFacts)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(writeConfig(t, "global: [unclosed"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "global:\n  metadata-timeout: soon\n"))
	assert.ErrorContains(t, err, "metadata-timeout")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("HOSTFACTS_SHOW_LEGACY", "true")
	t.Setenv("HOSTFACTS_STRUCTURED_EXTERNAL_FACTS", "not-a-bool")
	t.Setenv("HOSTFACTS_EXTERNAL_DIR", "/a"+string(os.PathListSeparator)+"/b")
	t.Setenv("HOSTFACTS_BLOCKLIST", "ssh, ,virtual")
	t.Setenv("HOSTFACTS_LOG_LEVEL", "debug")

	opts := Default()
	opts.ApplyEnv()

	assert.True(t, opts.ShowLegacy)
	assert.True(t, opts.StructuredExternalFacts, "unparseable booleans are ignored")
	assert.Equal(t, []string{"/a", "/b"}, opts.ExternalDirs)
	assert.Equal(t, []string{"ssh", "virtual"}, opts.Blocklist)
	assert.Equal(t, "debug", opts.LogLevel)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
	}{
		{"parallelism", func(o *Options) { o.Parallelism = 0 }},
		{"metadata timeout", func(o *Options) { o.MetadataTimeout = 0 }},
		{"log level", func(o *Options) { o.LogLevel = "verbose" }},
		{"empty block list entry", func(o *Options) { o.Blocklist = []string{" "} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := Default()
			tt.modify(&opts)
			assert.ErrorIs(t, opts.Validate(), ErrInvalid)
		})
	}
}

func TestBlocked(t *testing.T) {
	opts := Options{Blocklist: []string{"ssh", "memory.swap"}}

	assert.True(t, opts.Blocked("ssh"))
	assert.True(t, opts.Blocked("ssh.rsa"))
	assert.True(t, opts.Blocked("memory.swap"))
	assert.False(t, opts.Blocked("memory.system"))
	assert.False(t, opts.Blocked("sshfp_rsa"))
}
