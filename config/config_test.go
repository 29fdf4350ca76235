package config

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	c, err := Parse([]byte(`
output: out/scene.gltf
assets: ./assets
max_depth: 12
roll_units: radians
viewer:
  enabled: true
`))
	require.NoError(t, err)
	assert.Equal(t, "out/scene.gltf", c.Output)
	assert.Equal(t, "./assets", c.AssetRoot)
	assert.Equal(t, 12, c.MaxDepth)
	assert.True(t, c.RollInRadians())
	assert.True(t, c.Viewer.Enabled)
	assert.Equal(t, DefaultAddr, c.Viewer.Addr)
	assert.Equal(t, UTF8, c.Encoding)
}

func TestParseInvalid(t *testing.T) {
	for _, src := range []string{
		"max_depth: -1",
		"roll_units: gradians",
		"output: ''",
		"output: [",
	} {
		_, err := Parse([]byte(src))
		assert.Error(t, err, src)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	c := Default()
	c.Debug = true
	c.MaxDepth = 0
	data, err := c.Marshal()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "strike.yaml")
	require.NoError(t, ioutil.WriteFile(path, data, 0644))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, loaded)
	assert.False(t, loaded.RollInRadians())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEncoding(t *testing.T) {
	defer SetEncoding(UTF8)

	assert.Contains(t, ListEncodings(), UTF8)
	assert.Contains(t, ListEncodings(), "Windows 1251")
	assert.Error(t, SetEncoding("klingon"))

	src := []byte("payload \"t\xe0nk.glb\"")
	out, err := DecodeScript(src)
	require.NoError(t, err)
	assert.Equal(t, src, out)

	require.NoError(t, SetEncoding("windows 1252"))
	out, err = DecodeScript(src)
	require.NoError(t, err)
	assert.Equal(t, "payload \"tànk.glb\"", string(out))
}
