// Package engine describes the 3D engine the interpreter drives. The
// interpreter never looks inside the handles it gets back.
package engine

import (
	"context"
	"image"

	"github.com/go-gl/mathgl/mgl64"
)

// Model is a loaded payload model. Implementations must return comparable
// handles (pointers or plain structs), they are used as map keys.
type Model interface{}

// Texture is a camouflage ready to be applied to a node.
type Texture interface{}

// Node is an element of the output scene graph.
type Node interface{}

type Engine interface {
	// LoadModel parses the model at path and returns it with its bounding
	// sphere radius.
	LoadModel(path string) (Model, float64, error)
	LoadImage(path string) (image.Image, error)
	// ImageToTexture uses linear/mipmap-linear minification, linear
	// magnification and clamps on both axes.
	ImageToTexture(name string, img image.Image) (Texture, error)

	// Clone makes a shallow copy of the model that can be placed in the scene.
	Clone(m Model) (Node, error)
	ApplyTexture(n Node, t Texture, slot int) error

	NewGroup() Node
	NewPlacementNode(transform mgl64.Mat4) Node
	AttachChild(parent, child Node) error

	WriteScene(root Node, path string) error
}

// Viewer shows a scene interactively. RunViewer blocks until the viewer is
// closed or ctx is done.
type Viewer interface {
	RunViewer(ctx context.Context, root Node) error
}
