package gltfutils

import (
	"encoding/base64"
	"encoding/binary"
	"io"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

// NewDocument returns a document with the default scene and one empty
// buffer that every helper here appends to.
func NewDocument() *gltf.Document {
	doc := gltf.NewDocument()
	doc.Buffers = append(doc.Buffers, &gltf.Buffer{})
	return doc
}

// AppendBufferData appends data to the first buffer at a 4-byte boundary
// and returns its offset.
func AppendBufferData(doc *gltf.Document, data []byte) uint32 {
	return AppendBufferDataAt(doc, data, 0)
}

// AppendBufferDataAt appends data to the first buffer at an offset equal to
// phase modulo 4, so data copied from another buffer keeps the alignment of
// its components.
func AppendBufferDataAt(doc *gltf.Document, data []byte, phase uint32) uint32 {
	buf := doc.Buffers[0]
	for len(buf.Data)%4 != int(phase%4) {
		buf.Data = append(buf.Data, 0)
	}
	offset := uint32(len(buf.Data))
	buf.Data = append(buf.Data, data...)
	buf.ByteLength = uint32(len(buf.Data))
	return offset
}

// ReadVec3 decodes a float VEC3 accessor.
func ReadVec3(doc *gltf.Document, index uint32) ([]mgl64.Vec3, error) {
	if int(index) >= len(doc.Accessors) {
		return nil, errors.Errorf("Accessor %d out of range", index)
	}
	acr := doc.Accessors[index]
	if acr.Type != gltf.AccessorVec3 || acr.ComponentType != gltf.ComponentFloat {
		return nil, errors.Errorf("Accessor %d is not float vec3", index)
	}
	if acr.Sparse != nil {
		return nil, errors.Errorf("Accessor %d is sparse", index)
	}

	result := make([]mgl64.Vec3, int(acr.Count))
	if acr.BufferView == nil {
		return result, nil
	}
	if int(*acr.BufferView) >= len(doc.BufferViews) {
		return nil, errors.Errorf("Accessor %d buffer view out of range", index)
	}
	bv := doc.BufferViews[*acr.BufferView]
	if int(bv.Buffer) >= len(doc.Buffers) {
		return nil, errors.Errorf("Buffer view %d buffer out of range", *acr.BufferView)
	}
	data := doc.Buffers[bv.Buffer].Data

	stride := int(bv.ByteStride)
	if stride == 0 {
		stride = 12
	}
	start := int(bv.ByteOffset) + int(acr.ByteOffset)
	end := int(bv.ByteOffset) + int(bv.ByteLength)
	if end > len(data) {
		return nil, errors.Errorf("Buffer view %d exceeds buffer data", *acr.BufferView)
	}

	for i := range result {
		off := start + i*stride
		if off+12 > end {
			return nil, errors.Errorf("Accessor %d exceeds buffer view", index)
		}
		for j := 0; j < 3; j++ {
			bits := binary.LittleEndian.Uint32(data[off+j*4:])
			result[i][j] = float64(math.Float32frombits(bits))
		}
	}
	return result, nil
}

// NodeMatrix returns the local transform of a node, combining the matrix
// and TRS properties.
func NodeMatrix(n *gltf.Node) mgl64.Mat4 {
	var m mgl64.Mat4
	zero := true
	for i := range n.Matrix {
		m[i] = float64(n.Matrix[i])
		if m[i] != 0 {
			zero = false
		}
	}
	if zero {
		m = mgl64.Ident4()
	}

	t := mgl64.Translate3D(float64(n.Translation[0]), float64(n.Translation[1]), float64(n.Translation[2]))

	r := mgl64.Ident4()
	q := mgl64.Quat{
		W: float64(n.Rotation[3]),
		V: mgl64.Vec3{float64(n.Rotation[0]), float64(n.Rotation[1]), float64(n.Rotation[2])},
	}
	if q.Len() > 0 {
		r = q.Normalize().Mat4()
	}

	s := mgl64.Ident4()
	if n.Scale[0] != 0 || n.Scale[1] != 0 || n.Scale[2] != 0 {
		s = mgl64.Scale3D(float64(n.Scale[0]), float64(n.Scale[1]), float64(n.Scale[2]))
	}

	return m.Mul4(t).Mul4(r).Mul4(s)
}

// Export writes doc as a .glb when asBinary is set, otherwise as .gltf with
// the buffer embedded as a data URI.
func Export(w io.Writer, doc *gltf.Document, asBinary bool) error {
	if len(doc.BufferViews) == 0 {
		doc.Buffers = nil
	}
	for _, buf := range doc.Buffers {
		buf.ByteLength = uint32(len(buf.Data))
		if !asBinary && buf.URI == "" {
			buf.URI = "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(buf.Data)
		}
	}

	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = asBinary
	return encoder.Encode(doc)
}
