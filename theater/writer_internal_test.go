package theater

import (
	"bytes"
	"testing"

	"github.com/qmuntal/gltf"
)

func rawModel(name string, data []byte, offset, length uint32) *Model {
	doc := gltf.NewDocument()
	doc.Buffers = []*gltf.Buffer{{ByteLength: uint32(len(data)), Data: data}}
	doc.BufferViews = []*gltf.BufferView{{Buffer: 0, ByteOffset: offset, ByteLength: length}}
	doc.Accessors = []*gltf.Accessor{{
		BufferView:    gltf.Index(0),
		ComponentType: gltf.ComponentUshort,
		Type:          gltf.AccessorScalar,
		Count:         length / 2,
	}}
	return &Model{name: name, doc: doc}
}

func TestImportKeepsBufferViewAlignment(t *testing.T) {
	sw := newSceneWriter()

	odd := rawModel("odd", []byte{1, 2, 3}, 0, 3)
	if _, err := sw.importModel(odd); err != nil {
		t.Fatal(err)
	}

	// uint16 indices starting two bytes into the source buffer
	indices := []byte{9, 9, 0, 0, 1, 0, 2, 0}
	shifted := rawModel("shifted", indices, 2, 6)
	im, err := sw.importModel(shifted)
	if err != nil {
		t.Fatal(err)
	}

	view := sw.doc.BufferViews[im.bufferViewBase]
	if view.ByteOffset%4 != 2 {
		t.Errorf("buffer view offset %d lost its 2-byte phase", view.ByteOffset)
	}
	got := sw.doc.Buffers[0].Data[view.ByteOffset : view.ByteOffset+view.ByteLength]
	if !bytes.Equal(got, indices[2:]) {
		t.Errorf("copied view data %v, want %v", got, indices[2:])
	}
	if acr := sw.doc.Accessors[im.accessorBase]; acr.BufferView == nil || *acr.BufferView != im.bufferViewBase {
		t.Errorf("accessor points at %v, want view %d", acr.BufferView, im.bufferViewBase)
	}
}
