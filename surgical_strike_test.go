package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/surgical_strike/config"
	"github.com/mogaika/surgical_strike/status"
	"github.com/mogaika/surgical_strike/strike"
	"github.com/mogaika/surgical_strike/utils/gltfutils"
)

func init() {
	status.Quiet = true
}

func writeCube(t *testing.T, path string) {
	t.Helper()
	doc := gltfutils.NewDocument()
	position := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 1, 1}, {1, 0, 1}})
	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Primitives: []*gltf.Primitive{{Attributes: map[string]uint32{"POSITION": position}}},
	})
	doc.Nodes = append(doc.Nodes, &gltf.Node{Mesh: gltf.Index(0)})
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)

	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, gltfutils.Export(f, doc, true))
	require.NoError(t, f.Close())
}

const strikeScript = `incoming!
codeword ring:
	manouver 2 90 0
	deliver
	roll 0 0 90
set
payload "cube.glb"
mark
ring 4
clear
deliver
`

func setup(t *testing.T, script string) (*config.Config, string) {
	t.Helper()
	dir := t.TempDir()
	writeCube(t, filepath.Join(dir, "cube.glb"))
	scriptPath := filepath.Join(dir, "strike.ss")
	require.NoError(t, ioutil.WriteFile(scriptPath, []byte(script), 0644))

	cfg := config.Default()
	cfg.Output = filepath.Join(dir, "out.glb")
	return cfg, scriptPath
}

func TestRun(t *testing.T) {
	cfg, scriptPath := setup(t, strikeScript)
	require.NoError(t, run(context.Background(), cfg, scriptPath, false, ioutil.Discard))

	doc, err := gltf.Open(cfg.Output)
	require.NoError(t, err)
	require.Len(t, doc.Scenes, 1)
	// five deliveries: theater + placement + clone + copied node each
	assert.Len(t, doc.Nodes, 1+5*3)
	assert.Len(t, doc.Nodes[doc.Scenes[0].Nodes[0]].Children, 5)
}

func TestRunDump(t *testing.T) {
	cfg, scriptPath := setup(t, strikeScript)
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, scriptPath, true, &out))
	assert.Contains(t, out.String(), "codeword ring:")
	assert.Contains(t, out.String(), "ring 4")

	_, err := os.Stat(cfg.Output)
	assert.True(t, os.IsNotExist(err))
}

func TestRunErrors(t *testing.T) {
	for _, tc := range []struct {
		script string
		kind   strike.ErrorKind
	}{
		{"incoming!\ndeliver\n", strike.Reference},
		{"incoming!\npayload \"missing.glb\"\n", strike.Resource},
		{"mark\n", strike.Structural},
		{"codeword a:\nmark\n", strike.Structural},
		{"incoming!\nunknown\n", strike.Reference},
	} {
		cfg, scriptPath := setup(t, tc.script)
		err := run(context.Background(), cfg, scriptPath, false, ioutil.Discard)
		require.Error(t, err, tc.script)
		assert.Equal(t, tc.kind, strike.KindOf(err), tc.script)
	}
}

func TestOptionsOverrideConfig(t *testing.T) {
	cfg := config.Default()
	cfg.MaxDepth = 12
	o := options{output: "x.gltf", maxDepth: 3, addr: ":9000", debug: true}

	o.apply(cfg, map[string]bool{"o": true, "i": true})
	assert.Equal(t, "x.gltf", cfg.Output)
	assert.Equal(t, 12, cfg.MaxDepth)
	assert.False(t, cfg.Debug)
	assert.True(t, cfg.Viewer.Enabled)
	assert.Equal(t, ":9000", cfg.Viewer.Addr)

	o.apply(cfg, map[string]bool{"maxdepth": true, "debug": true})
	assert.Equal(t, 3, cfg.MaxDepth)
	assert.True(t, cfg.Debug)
}

func TestRunFailureReachesStatusClients(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(status.Handler))
	defer srv.Close()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	cfg, scriptPath := setup(t, "incoming!\ndeliver\n")
	require.Error(t, run(context.Background(), cfg, scriptPath, false, ioutil.Discard))

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var msg struct {
			Message string
			Type    int
		}
		require.NoError(t, json.Unmarshal(data, &msg))
		// earlier runs may have left their own error as the last message
		if msg.Type == status.ERROR && strings.Contains(msg.Message, "no payload") {
			return
		}
	}
}

func TestRunDebugWithEncoding(t *testing.T) {
	defer config.SetEncoding(config.UTF8)

	cfg, scriptPath := setup(t, "incoming!\npayload \"cube.glb\" # d\xe9j\xe0 vu\ndeliver\n")
	cfg.Debug = true
	cfg.Encoding = "Windows 1252"
	require.NoError(t, run(context.Background(), cfg, scriptPath, false, ioutil.Discard))

	_, err := gltf.Open(cfg.Output)
	assert.NoError(t, err)
}
