// Package format renders fact values for the command line.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
)

// Format names an output encoding.
type Format string

const (
	Text Format = "text"
	JSON Format = "json"
	YAML Format = "yaml"
	CBOR Format = "cbor"
)

// ErrUnknown is returned for unsupported format names.
var ErrUnknown = fmt.Errorf("unknown output format")

// encMode uses Core Deterministic Encoding (RFC 8949 section 4.2): the
// same facts always produce the same bytes.
var encMode cbor.EncMode

// decMode decodes any-typed mappings as map[string]any, matching the
// value trees facts are built from.
var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("format: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("format: CBOR decoder initialization failed: " + err.Error())
	}
}

// Parse validates a format name.
func Parse(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case Text, JSON, YAML, CBOR:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknown, name)
}

// Write renders facts in format f. With text output and exactly one query
// only the bare value of that query is printed.
func Write(w io.Writer, f Format, facts map[string]any, queries []string) error {
	switch f {
	case Text:
		if len(queries) == 1 {
			return WriteValue(w, facts[queries[0]])
		}
		return WriteText(w, facts)
	case JSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		encoder.SetEscapeHTML(false)
		return encoder.Encode(facts)
	case YAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(facts); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return encoder.Close()
	case CBOR:
		data, err := encMode.Marshal(facts)
		if err != nil {
			return fmt.Errorf("failed to encode cbor: %w", err)
		}
		_, err = w.Write(data)
		return err
	}
	return fmt.Errorf("%w: %q", ErrUnknown, f)
}

// DecodeCBOR decodes CBOR output back into a fact mapping.
func DecodeCBOR(data []byte) (map[string]any, error) {
	var facts map[string]any
	if err := decMode.Unmarshal(data, &facts); err != nil {
		return nil, fmt.Errorf("failed to decode cbor: %w", err)
	}
	return facts, nil
}

// WriteText prints one "name => value" line per top-level fact, sorted by
// name. Nested values span several lines.
func WriteText(w io.Writer, facts map[string]any) error {
	var b strings.Builder
	for _, key := range sortedKeys(facts) {
		b.WriteString(key)
		b.WriteString(" => ")
		render(&b, facts[key], 0, true)
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteValue prints a single value: strings bare, everything else as in
// WriteText. Absent values print an empty line.
func WriteValue(w io.Writer, value any) error {
	var b strings.Builder
	render(&b, value, 0, true)
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}

func render(b *strings.Builder, value any, depth int, top bool) {
	indent := strings.Repeat("  ", depth+1)
	switch v := value.(type) {
	case nil:
		if !top {
			b.WriteString("null")
		}
	case string:
		if top {
			b.WriteString(v)
		} else {
			b.WriteString(strconv.Quote(v))
		}
	case map[string]any:
		if len(v) == 0 {
			b.WriteString("{}")
			return
		}
		b.WriteString("{\n")
		keys := sortedKeys(v)
		for i, key := range keys {
			b.WriteString(indent)
			b.WriteString(key)
			b.WriteString(" => ")
			render(b, v[key], depth+1, false)
			if i < len(keys)-1 {
				b.WriteByte(',')
			}
			b.WriteByte('\n')
		}
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteByte('}')
	case []any:
		if len(v) == 0 {
			b.WriteString("[]")
			return
		}
		b.WriteString("[\n")
		for i, item := range v {
			b.WriteString(indent)
			render(b, item, depth+1, false)
			if i < len(v)-1 {
				b.WriteByte(',')
			}
			b.WriteByte('\n')
		}
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteByte(']')
	default:
		fmt.Fprint(b, v)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
