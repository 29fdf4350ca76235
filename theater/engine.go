// Package theater implements engine.Engine on top of glTF 2.0 documents.
// Payloads are .gltf or .glb files, camouflages are ordinary images and the
// assembled scene is written as one self-contained .glb or .gltf.
package theater

import (
	"bytes"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"

	"github.com/mogaika/surgical_strike/engine"
)

type Model struct {
	name   string
	dir    string
	doc    *gltf.Document
	roots  []uint32
	radius float64
}

func (m *Model) Name() string { return m.name }
func (m *Model) Radius() float64 { return m.radius }
func (m *Model) Roots() []uint32 { return m.roots }
func (m *Model) Doc() *gltf.Document { return m.doc }

type Texture struct {
	name string
	png  []byte
}

func (t *Texture) Name() string { return t.name }

type Group struct {
	children []engine.Node
}

func (g *Group) Children() []engine.Node { return g.children }

type Placement struct {
	transform mgl64.Mat4
	children  []engine.Node
}

func (p *Placement) Transform() mgl64.Mat4 { return p.transform }
func (p *Placement) Children() []engine.Node { return p.children }

// Clone is a delivered copy of a model. It shares the model's meshes.
type Clone struct {
	model      *Model
	camouflage *Texture
}

func (c *Clone) Model() *Model { return c.model }
func (c *Clone) Camouflage() *Texture { return c.camouflage }

type Engine struct {
	Debug bool
}

func NewEngine() *Engine {
	return &Engine{}
}

var _ engine.Engine = (*Engine)(nil)

func (e *Engine) LoadModel(path string) (engine.Model, float64, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "Failed to open gltf %q", path)
	}

	m := &Model{
		name: filepath.Base(path),
		dir:  filepath.Dir(path),
		doc:  doc,
	}
	m.roots = sceneRoots(doc)
	if len(m.roots) == 0 {
		return nil, 0, errors.Errorf("Model %q has no nodes", path)
	}

	m.radius, err = boundingRadius(doc, m.roots)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "Failed to compute bounds of %q", path)
	}
	if e.Debug {
		log.Printf("[theater] Loaded model %q: %d nodes, %d meshes, radius %v", m.name, len(doc.Nodes), len(doc.Meshes), m.radius)
	}
	return m, m.radius, nil
}

func (e *Engine) LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to open image")
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to decode image %q", path)
	}
	if e.Debug {
		log.Printf("[theater] Loaded %s image %q %v", format, filepath.Base(path), img.Bounds().Size())
	}
	return img, nil
}

// ImageToTexture stores the image as png. Sampler settings are fixed and
// applied when the scene is written.
func (e *Engine) ImageToTexture(name string, img image.Image) (engine.Texture, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errors.Wrapf(err, "Failed to encode texture %q", name)
	}
	return &Texture{
		name: strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)),
		png:  buf.Bytes(),
	}, nil
}

func (e *Engine) Clone(m engine.Model) (engine.Node, error) {
	model, ok := m.(*Model)
	if !ok || model == nil {
		return nil, errors.Errorf("Cannot clone %T", m)
	}
	return &Clone{model: model}, nil
}

// ApplyTexture only supports slot 0, the base color.
func (e *Engine) ApplyTexture(n engine.Node, t engine.Texture, slot int) error {
	clone, ok := n.(*Clone)
	if !ok {
		return errors.Errorf("Cannot apply texture to %T", n)
	}
	texture, ok := t.(*Texture)
	if !ok || texture == nil {
		return errors.Errorf("Unknown texture %T", t)
	}
	if slot != 0 {
		return errors.Errorf("Texture slot %d not supported", slot)
	}
	clone.camouflage = texture
	return nil
}

func (e *Engine) NewGroup() engine.Node {
	return &Group{}
}

func (e *Engine) NewPlacementNode(transform mgl64.Mat4) engine.Node {
	return &Placement{transform: transform}
}

func (e *Engine) AttachChild(parent, child engine.Node) error {
	if child == nil {
		return errors.Errorf("Cannot attach nil node")
	}
	switch p := parent.(type) {
	case *Group:
		p.children = append(p.children, child)
	case *Placement:
		p.children = append(p.children, child)
	default:
		return errors.Errorf("Cannot attach children to %T", parent)
	}
	return nil
}

func (e *Engine) WriteScene(root engine.Node, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "Couldn't write file %q", path)
	}
	asBinary := !strings.EqualFold(filepath.Ext(path), ".gltf")
	if err := e.EncodeScene(root, f, asBinary); err != nil {
		f.Close()
		return errors.Wrapf(err, "Couldn't write file %q", path)
	}
	return f.Close()
}

func sceneRoots(doc *gltf.Document) []uint32 {
	if len(doc.Scenes) > 0 {
		scene := 0
		if doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes) {
			scene = int(*doc.Scene)
		}
		if roots := doc.Scenes[scene].Nodes; len(roots) > 0 {
			return append([]uint32(nil), roots...)
		}
	}

	// no scene: every node that is nobody's child
	isChild := make(map[uint32]bool)
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			isChild[c] = true
		}
	}
	roots := make([]uint32, 0)
	for i := range doc.Nodes {
		if !isChild[uint32(i)] {
			roots = append(roots, uint32(i))
		}
	}
	return roots
}
