package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/st-keller/hostfacts"
	"github.com/st-keller/hostfacts/format"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, hostfacts.Version+"\n", out.String())
}

func TestLoadOptionsPrecedence(t *testing.T) {
	config := filepath.Join(t.TempDir(), "hostfacts.yaml")
	require.NoError(t, os.WriteFile(config, []byte(`
facts:
  show-legacy: true
  blocklist: [ssh]
cli:
  log-level: info
`), 0o644))
	t.Setenv("HOSTFACTS_BLOCKLIST", "virtual")
	t.Setenv("HOSTFACTS_LOG_LEVEL", "error")

	cmd := rootCmd
	t.Cleanup(func() {
		cmd.Flags().Set("log-level", "warn")
		cmd.Flags().Lookup("log-level").Changed = false
		configPath = ""
	})
	require.NoError(t, cmd.ParseFlags([]string{"--config", config, "--log-level", "debug"}))

	opts, err := loadOptions(cmd)
	require.NoError(t, err)
	assert.True(t, opts.ShowLegacy, "file")
	assert.Equal(t, []string{"virtual"}, opts.Blocklist, "env over file")
	assert.Equal(t, "debug", opts.LogLevel, "flag over env")

	log, err := newLogger(opts)
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestLoggerFollowsLayeredLogLevel(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		env       string
		wantDebug bool
		wantInfo  bool
	}{
		{"defaults", "", "", false, false},
		{"env", "", "debug", true, true},
		{"file log-level", "cli:\n  log-level: info\n", "", false, true},
		{"file debug", "cli:\n  debug: true\n", "", true, true},
		{"env over file", "cli:\n  log-level: debug\n", "error", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := filepath.Join(t.TempDir(), "hostfacts.yaml")
			require.NoError(t, os.WriteFile(config, []byte(tt.file), 0o644))
			t.Setenv("HOSTFACTS_LOG_LEVEL", tt.env)
			t.Cleanup(func() { configPath = "" })
			require.NoError(t, rootCmd.ParseFlags([]string{"--config", config}))

			opts, err := loadOptions(rootCmd)
			require.NoError(t, err)
			log, err := newLogger(opts)
			require.NoError(t, err)

			assert.Equal(t, tt.wantDebug, log.Core().Enabled(zapcore.DebugLevel))
			assert.Equal(t, tt.wantInfo, log.Core().Enabled(zapcore.InfoLevel))
			assert.True(t, log.Core().Enabled(zapcore.ErrorLevel))
		})
	}
}

func TestOutputFormat(t *testing.T) {
	t.Cleanup(func() { outputJSON, outputYAML, outputCBOR = false, false, false })

	assert.Equal(t, format.Text, outputFormat())
	outputYAML = true
	assert.Equal(t, format.YAML, outputFormat())
	outputYAML, outputCBOR = false, true
	assert.Equal(t, format.CBOR, outputFormat())
}
