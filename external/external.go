// Package external loads user supplied facts from fact directories.
//
// Three file formats are understood:
//
//   - .yaml and .yml: a mapping, one fact per top-level key
//   - .json: an object, one fact per member; comments are allowed
//   - .txt: key=value lines
//
// Every fact loaded here is a custom fact.
package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/tidwall/jsonc"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/st-keller/hostfacts/fact"
)

// Loader reads external fact directories.
type Loader struct {
	Dirs   []string
	Logger *zap.Logger
}

// Load reads every supported file in the loader's directories. Files are
// read in lexical order per directory and directories in the given order;
// a later definition of a fact replaces an earlier one. Unreadable or
// malformed files are logged and skipped. Missing directories are
// ignored.
func (l Loader) Load() []fact.Resolved {
	logger := l.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	values := map[string]any{}
	var order []string
	for _, dir := range l.Dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if !os.IsNotExist(err) {
				logger.Warn("cannot read external fact directory", zap.String("dir", dir), zap.Error(err))
			}
			continue
		}

		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			if entry.Type().IsRegular() {
				names = append(names, entry.Name())
			}
		}
		sort.Strings(names)

		for _, name := range names {
			path := filepath.Join(dir, name)
			parsed, err := ParseFile(path)
			if err != nil {
				logger.Warn("skipping external fact file", zap.String("file", path), zap.Error(err))
				continue
			}
			keys := make([]string, 0, len(parsed))
			for key := range parsed {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				if _, seen := values[key]; !seen {
					order = append(order, key)
				}
				values[key] = parsed[key]
			}
		}
	}

	facts := make([]fact.Resolved, 0, len(order))
	for _, key := range order {
		facts = append(facts, fact.New(key, values[key], fact.Custom))
	}
	return facts
}

// Resolve adapts the loader to registry.Resolver so directory scans are
// cached like any other probe. The batch maps fact names to values.
func (l Loader) Resolve(context.Context) (map[string]any, error) {
	out := map[string]any{}
	for _, resolved := range l.Load() {
		out[resolved.Name] = resolved.Value
	}
	return out, nil
}

// Name identifies the loader in the resolver cache.
func (l Loader) Name() string {
	return "external:" + strings.Join(l.Dirs, string(os.PathListSeparator))
}

// ErrUnsupported is returned by ParseFile for unknown extensions.
var ErrUnsupported = fmt.Errorf("unsupported external fact file")

// ParseFile reads one fact file and returns its facts with normalized
// values.
func ParseFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAML(data)
	case ".json":
		return parseJSON(data)
	case ".txt":
		return parseText(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Base(path))
	}
}

func parseYAML(data []byte) (map[string]any, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	return normalizeTop(raw), nil
}

func parseJSON(data []byte) (map[string]any, error) {
	decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	decoder.UseNumber()
	var raw map[string]any
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse json: %w", err)
	}
	return normalizeTop(raw), nil
}

func parseText(data []byte) (map[string]any, error) {
	raw, err := godotenv.UnmarshalBytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse key=value facts: %w", err)
	}
	out := make(map[string]any, len(raw))
	for key, value := range raw {
		out[strings.TrimSpace(key)] = value
	}
	return out, nil
}

func normalizeTop(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for key, value := range raw {
		out[key] = fact.Normalize(value)
	}
	return out
}
