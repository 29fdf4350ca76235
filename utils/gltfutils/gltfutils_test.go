package gltfutils

import (
	"bytes"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendBufferDataAligns(t *testing.T) {
	doc := NewDocument()
	assert.Equal(t, uint32(0), AppendBufferData(doc, []byte{1, 2, 3}))
	assert.Equal(t, uint32(4), AppendBufferData(doc, []byte{4}))
	assert.Equal(t, uint32(5), doc.Buffers[0].ByteLength)
}

func TestReadVec3(t *testing.T) {
	doc := NewDocument()
	AppendBufferData(doc, []byte{0xff})
	idx := modeler.WritePosition(doc, [][3]float32{{1, 2, 3}, {-4, 5.5, 0}})

	v, err := ReadVec3(doc, idx)
	require.NoError(t, err)
	assert.Equal(t, []mgl64.Vec3{{1, 2, 3}, {-4, 5.5, 0}}, v)

	_, err = ReadVec3(doc, idx+1)
	assert.Error(t, err)

	uv := modeler.WriteTextureCoord(doc, [][2]float32{{0, 1}})
	_, err = ReadVec3(doc, uv)
	assert.Error(t, err)
}

func TestNodeMatrix(t *testing.T) {
	n := &gltf.Node{
		Matrix:      [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1},
		Translation: [3]float32{1, 2, 3},
		Rotation:    [4]float32{0, 0, 0, 1},
		Scale:       [3]float32{2, 2, 2},
	}
	p := mgl64.TransformCoordinate(mgl64.Vec3{1, 0, 0}, NodeMatrix(n))
	assert.InDeltaSlice(t, []float64{3, 2, 3}, p[:], 1e-9)

	assert.Equal(t, mgl64.Ident4(), NodeMatrix(&gltf.Node{}))
}

func TestExport(t *testing.T) {
	doc := NewDocument()
	modeler.WritePosition(doc, [][3]float32{{0, 0, 0}})

	var text bytes.Buffer
	require.NoError(t, Export(&text, doc, false))
	assert.Contains(t, text.String(), "data:application/octet-stream;base64,")

	var bin bytes.Buffer
	require.NoError(t, Export(&bin, NewDocument(), true))
	assert.True(t, bytes.HasPrefix(bin.Bytes(), []byte("glTF")))
}

func TestAppendBufferDataAtKeepsPhase(t *testing.T) {
	for _, tc := range []struct {
		existing int
		phase    uint32
		want     uint32
	}{
		{0, 0, 0},
		{0, 2, 2},
		{3, 2, 6},
		{5, 1, 5},
		{6, 6, 6},
	} {
		doc := NewDocument()
		doc.Buffers[0].Data = make([]byte, tc.existing)
		if got := AppendBufferDataAt(doc, []byte{1, 2}, tc.phase); got != tc.want {
			t.Errorf("existing %d phase %d: offset %d, want %d", tc.existing, tc.phase, got, tc.want)
		}
	}
}
