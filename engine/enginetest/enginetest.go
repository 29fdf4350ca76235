// Package enginetest provides an in-memory engine.Engine that records what the
// interpreter asks of it.
package enginetest

import (
	"context"
	"image"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/mogaika/surgical_strike/engine"
)

type Model struct {
	Path   string
	Radius float64
}

type Texture struct {
	Name string
}

type Group struct {
	Children []engine.Node
}

type Placement struct {
	Transform mgl64.Mat4
	Children  []engine.Node
}

type Clone struct {
	Model    *Model
	Textures map[int]*Texture
}

type Engine struct {
	// Radius by file base name, 1 when absent.
	Radius map[string]float64
	// Unparsable file base names fail in LoadModel.
	Unparsable map[string]bool

	ModelLoads map[string]int
	ImageLoads map[string]int
	Written    map[string]engine.Node
	Viewed     engine.Node
}

func NewEngine() *Engine {
	return &Engine{
		Radius:     make(map[string]float64),
		Unparsable: make(map[string]bool),
		ModelLoads: make(map[string]int),
		ImageLoads: make(map[string]int),
		Written:    make(map[string]engine.Node),
	}
}

func (e *Engine) LoadModel(path string) (engine.Model, float64, error) {
	e.ModelLoads[path]++
	name := filepath.Base(path)
	if e.Unparsable[name] {
		return nil, 0, errors.Errorf("cannot parse %q", name)
	}
	radius, ok := e.Radius[name]
	if !ok {
		radius = 1
	}
	return &Model{Path: path, Radius: radius}, radius, nil
}

func (e *Engine) LoadImage(path string) (image.Image, error) {
	e.ImageLoads[path]++
	return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
}

func (e *Engine) ImageToTexture(name string, img image.Image) (engine.Texture, error) {
	return &Texture{Name: name}, nil
}

func (e *Engine) Clone(m engine.Model) (engine.Node, error) {
	model, ok := m.(*Model)
	if !ok {
		return nil, errors.Errorf("unknown model %T", m)
	}
	return &Clone{Model: model, Textures: make(map[int]*Texture)}, nil
}

func (e *Engine) ApplyTexture(n engine.Node, t engine.Texture, slot int) error {
	clone, ok := n.(*Clone)
	if !ok {
		return errors.Errorf("cannot texture %T", n)
	}
	clone.Textures[slot] = t.(*Texture)
	return nil
}

func (e *Engine) NewGroup() engine.Node {
	return &Group{}
}

func (e *Engine) NewPlacementNode(transform mgl64.Mat4) engine.Node {
	return &Placement{Transform: transform}
}

func (e *Engine) AttachChild(parent, child engine.Node) error {
	switch p := parent.(type) {
	case *Group:
		p.Children = append(p.Children, child)
	case *Placement:
		p.Children = append(p.Children, child)
	default:
		return errors.Errorf("cannot attach to %T", parent)
	}
	return nil
}

func (e *Engine) WriteScene(root engine.Node, path string) error {
	e.Written[path] = root
	return nil
}

func (e *Engine) RunViewer(ctx context.Context, root engine.Node) error {
	e.Viewed = root
	return nil
}
