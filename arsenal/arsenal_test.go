package arsenal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/surgical_strike/engine"
	"github.com/mogaika/surgical_strike/engine/enginetest"
	"github.com/mogaika/surgical_strike/vfs"
)

func newTestArsenal(t *testing.T, files ...string) (*Arsenal, *enginetest.Engine, string) {
	root := t.TempDir()
	for _, name := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("x"), 0666))
	}
	e := enginetest.NewEngine()
	return NewArsenal(e, vfs.NewDirectoryDriver(root)), e, root
}

func TestLoadPayloadOnce(t *testing.T) {
	a, e, root := newTestArsenal(t, "cube.model")
	e.Radius["cube.model"] = 2.5

	first, err := a.LoadPayload("cube.model")
	require.NoError(t, err)
	second, err := a.LoadPayload("cube.model")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, e.ModelLoads[filepath.Join(root, "cube.model")])
	assert.Equal(t, 2.5, a.Size(first))
	assert.Equal(t, Stats{PayloadLoads: 1, PayloadHits: 1}, a.Stats())
}

func TestLoadPayloadMissing(t *testing.T) {
	a, e, _ := newTestArsenal(t)

	_, err := a.LoadPayload("ghost.model")
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
	assert.Empty(t, e.ModelLoads)
}

func TestLoadPayloadUnparsable(t *testing.T) {
	a, e, _ := newTestArsenal(t, "broken.model")
	e.Unparsable["broken.model"] = true

	_, err := a.LoadPayload("broken.model")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))

	// failures are not cached
	_, err = a.LoadPayload("broken.model")
	require.Error(t, err)
	assert.Len(t, e.ModelLoads, 1)
	for _, n := range e.ModelLoads {
		assert.Equal(t, 2, n)
	}
}

func TestLoadCamouflageOnce(t *testing.T) {
	a, e, root := newTestArsenal(t, "desert.png")

	first, err := a.LoadCamouflage("desert.png")
	require.NoError(t, err)
	second, err := a.LoadCamouflage("desert.png")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, "desert.png", first.(*enginetest.Texture).Name)
	assert.Equal(t, 1, e.ImageLoads[filepath.Join(root, "desert.png")])

	_, err = a.LoadCamouflage("jungle.png")
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
}

func TestSizeUnknown(t *testing.T) {
	a, _, _ := newTestArsenal(t)
	assert.Zero(t, a.Size(nil))
	assert.Zero(t, a.Size(&enginetest.Model{}))
}

// sliceEngine hands out slice handles, which cannot be map keys.
type sliceEngine struct {
	*enginetest.Engine
}

func (e sliceEngine) LoadModel(path string) (engine.Model, float64, error) {
	return []string{path}, 1, nil
}

func TestLoadPayloadUncomparableHandle(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "cube.model"), []byte("x"), 0666))
	a := NewArsenal(sliceEngine{enginetest.NewEngine()}, vfs.NewDirectoryDriver(root))

	assert.NotPanics(t, func() {
		_, err := a.LoadPayload("cube.model")
		assert.Error(t, err)
		assert.Zero(t, a.Size([]string{"cube.model"}))
	})
	assert.Equal(t, Stats{}, a.Stats())
}
