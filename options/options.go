// Package options holds the process-wide settings that shape a fact query:
// legacy visibility, external fact handling, the block list and logging.
package options

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid options")

// Options are the settings read by the fact engine and the CLI.
type Options struct {
	// ShowLegacy shows legacy facts that were not requested by name.
	ShowLegacy bool
	// StructuredExternalFacts expands dotted custom fact names.
	StructuredExternalFacts bool
	// ExternalDirs are searched for external fact files, in order.
	ExternalDirs []string
	// NoExternalFacts disables external facts entirely.
	NoExternalFacts bool
	// Blocklist holds fact names or group prefixes that are never resolved.
	Blocklist []string
	// Timing prints resolver timings after a query.
	Timing bool
	Debug  bool
	// LogLevel is a zap level name: debug, info, warn, error.
	LogLevel string
	// Parallelism bounds concurrently running fact providers.
	Parallelism int
	// MetadataTimeout bounds cloud metadata requests.
	MetadataTimeout time.Duration
}

// File is the on-disk layout of the configuration file.
type File struct {
	Global struct {
		ExternalDir     []string `yaml:"external-dir"`
		NoExternalFacts *bool    `yaml:"no-external-facts"`
		MetadataTimeout string   `yaml:"metadata-timeout"`
		Parallelism     int      `yaml:"parallelism"`
	} `yaml:"global"`
	CLI struct {
		Debug    *bool  `yaml:"debug"`
		LogLevel string `yaml:"log-level"`
		Timing   *bool  `yaml:"timing"`
	} `yaml:"cli"`
	Facts struct {
		Blocklist               []string `yaml:"blocklist"`
		ShowLegacy              *bool    `yaml:"show-legacy"`
		StructuredExternalFacts *bool    `yaml:"structured-external-facts"`
	} `yaml:"facts"`
}

// DefaultConfigPath is where Load looks when no path is given.
const DefaultConfigPath = "/etc/hostfacts/hostfacts.yaml"

// Default returns the built-in settings.
func Default() Options {
	return Options{
		ShowLegacy:              false,
		StructuredExternalFacts: true,
		ExternalDirs:            defaultExternalDirs(),
		LogLevel:                "warn",
		Parallelism:             8,
		MetadataTimeout:         2 * time.Second,
	}
}

func defaultExternalDirs() []string {
	dirs := []string{"/etc/hostfacts/facts.d"}
	if home, err := os.UserHomeDir(); err == nil && os.Geteuid() != 0 {
		dirs = append(dirs, filepath.Join(home, ".hostfacts", "facts.d"))
	}
	return dirs
}

// Load reads the configuration file at path on top of the defaults. A
// missing file is not an error.
func Load(path string) (Options, error) {
	opts := Default()
	if path == "" {
		path = DefaultConfigPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return opts, nil
		}
		return opts, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return opts, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := opts.apply(file); err != nil {
		return opts, fmt.Errorf("config %s: %w", path, err)
	}
	return opts, nil
}

func (o *Options) apply(file File) error {
	if len(file.Global.ExternalDir) > 0 {
		o.ExternalDirs = file.Global.ExternalDir
	}
	if file.Global.NoExternalFacts != nil {
		o.NoExternalFacts = *file.Global.NoExternalFacts
	}
	if file.Global.MetadataTimeout != "" {
		timeout, err := time.ParseDuration(file.Global.MetadataTimeout)
		if err != nil {
			return fmt.Errorf("metadata-timeout: %w", err)
		}
		o.MetadataTimeout = timeout
	}
	if file.Global.Parallelism != 0 {
		o.Parallelism = file.Global.Parallelism
	}
	if file.CLI.Debug != nil {
		o.Debug = *file.CLI.Debug
	}
	if file.CLI.LogLevel != "" {
		o.LogLevel = file.CLI.LogLevel
	}
	if file.CLI.Timing != nil {
		o.Timing = *file.CLI.Timing
	}
	if len(file.Facts.Blocklist) > 0 {
		o.Blocklist = file.Facts.Blocklist
	}
	if file.Facts.ShowLegacy != nil {
		o.ShowLegacy = *file.Facts.ShowLegacy
	}
	if file.Facts.StructuredExternalFacts != nil {
		o.StructuredExternalFacts = *file.Facts.StructuredExternalFacts
	}
	return nil
}

// ApplyEnv overrides settings from HOSTFACTS_* environment variables.
// Unparseable booleans are ignored.
func (o *Options) ApplyEnv() {
	if value, ok := envBool("HOSTFACTS_SHOW_LEGACY"); ok {
		o.ShowLegacy = value
	}
	if value, ok := envBool("HOSTFACTS_STRUCTURED_EXTERNAL_FACTS"); ok {
		o.StructuredExternalFacts = value
	}
	if dirs := os.Getenv("HOSTFACTS_EXTERNAL_DIR"); dirs != "" {
		o.ExternalDirs = filepath.SplitList(dirs)
	}
	if blocklist := os.Getenv("HOSTFACTS_BLOCKLIST"); blocklist != "" {
		o.Blocklist = splitList(blocklist)
	}
	if level := os.Getenv("HOSTFACTS_LOG_LEVEL"); level != "" {
		o.LogLevel = level
	}
}

func envBool(key string) (bool, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return false, false
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return value, true
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate checks the settings for values the engine cannot use.
func (o Options) Validate() error {
	if o.Parallelism < 1 {
		return fmt.Errorf("%w: parallelism must be > 0, got %d", ErrInvalid, o.Parallelism)
	}
	if o.MetadataTimeout <= 0 {
		return fmt.Errorf("%w: metadata timeout must be > 0", ErrInvalid)
	}
	switch o.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalid, o.LogLevel)
	}
	for _, entry := range o.Blocklist {
		if strings.TrimSpace(entry) == "" {
			return fmt.Errorf("%w: empty block list entry", ErrInvalid)
		}
	}
	return nil
}

// Blocked reports whether name is on the block list, either by name or
// because it belongs to a blocked group.
func (o Options) Blocked(name string) bool {
	for _, entry := range o.Blocklist {
		if name == entry || strings.HasPrefix(name, entry+".") {
			return true
		}
	}
	return false
}
