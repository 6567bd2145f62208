package format

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var facts = map[string]any{
	"kernel": "Linux",
	"os": map[string]any{
		"name":    "Ubuntu",
		"release": map[string]any{"major": "22"},
	},
	"tags":       []any{"a", int64(2)},
	"is_virtual": false,
}

func TestParse(t *testing.T) {
	f, err := Parse("JSON")
	require.NoError(t, err)
	assert.Equal(t, JSON, f)

	_, err = Parse("xml")
	assert.ErrorIs(t, err, ErrUnknown)
}

func TestWriteText(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Write(&out, Text, facts, nil))

	want := `is_virtual => false
kernel => Linux
os => {
  name => "Ubuntu",
  release => {
    major => "22"
  }
}
tags => [
  "a",
  2
]
`
	assert.Equal(t, want, out.String())
}

func TestWriteTextSingleQueryPrintsBareValue(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Write(&out, Text, map[string]any{"kernel": "Linux"}, []string{"kernel"}))
	assert.Equal(t, "Linux\n", out.String())

	out.Reset()
	require.NoError(t, Write(&out, Text, map[string]any{"missing": nil}, []string{"missing"}))
	assert.Equal(t, "\n", out.String())
}

func TestWriteJSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Write(&out, JSON, facts, nil))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, "Ubuntu", decoded["os"].(map[string]any)["name"])
	assert.Contains(t, out.String(), "\n  \"kernel\": \"Linux\"")
}

func TestWriteYAML(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Write(&out, YAML, facts, nil))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, "Linux", decoded["kernel"])
	assert.Equal(t, map[string]any{"major": "22"}, decoded["os"].(map[string]any)["release"])
}

func TestWriteCBORIsDeterministic(t *testing.T) {
	var first, second bytes.Buffer
	require.NoError(t, Write(&first, CBOR, facts, nil))
	require.NoError(t, Write(&second, CBOR, facts, nil))
	assert.Equal(t, first.Bytes(), second.Bytes())

	decoded, err := DecodeCBOR(first.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "Linux", decoded["kernel"])
	assert.Equal(t, "Ubuntu", decoded["os"].(map[string]any)["name"])
}

func TestWriteUnknownFormat(t *testing.T) {
	assert.ErrorIs(t, Write(&bytes.Buffer{}, Format("xml"), facts, nil), ErrUnknown)
}
