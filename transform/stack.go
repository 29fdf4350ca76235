package transform

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

type AngleUnit int

const (
	Degrees AngleUnit = iota
	Radians
)

var ErrUnderflow = errors.New("transform stack underflow: clear without matching mark")

// Stack holds transform frames. It is empty until Init.
type Stack struct {
	frames []Frame

	// RotationUnit selects how accumulated rotation angles are read when
	// composing a placement.
	RotationUnit AngleUnit
}

// Init drops all frames and pushes a single identity frame.
func (s *Stack) Init() {
	s.frames = append(s.frames[:0], Identity())
}

func (s *Stack) Empty() bool { return len(s.frames) == 0 }
func (s *Stack) Depth() int  { return len(s.frames) }

// Current returns the top frame, or nil if the stack was never initialized.
func (s *Stack) Current() *Frame {
	if len(s.frames) == 0 {
		return nil
	}
	return &s.frames[len(s.frames)-1]
}

// Mark pushes a copy of the current frame.
func (s *Stack) Mark() {
	if len(s.frames) == 0 {
		s.Init()
	}
	s.frames = append(s.frames, s.frames[len(s.frames)-1])
}

// Clear pops the current frame. The initial frame is never popped.
func (s *Stack) Clear() error {
	if len(s.frames) <= 1 {
		return ErrUnderflow
	}
	s.frames = s.frames[:len(s.frames)-1]
	return nil
}

// Placement composes origin, position, scale and rotation of the current
// frame. The order is the row-vector one: origin is applied to a vertex
// first and rotation last. size scales the spherical position.
func (s *Stack) Placement(size float64) mgl64.Mat4 {
	f := s.Current()
	if f == nil {
		return mgl64.Ident4()
	}

	origin := mgl64.Translate3D(f.Origin[0], f.Origin[1], f.Origin[2])
	p := SphericalToCartesian(f.Position, size)
	position := mgl64.Translate3D(p[0], p[1], p[2])
	scale := mgl64.Scale3D(f.Scale[0], f.Scale[1], f.Scale[2])

	return s.rotation(f.Rotation).Mul4(scale).Mul4(position).Mul4(origin)
}

// rotation applies X, then Y, then Z. Zero angles are skipped.
func (s *Stack) rotation(angles mgl64.Vec3) mgl64.Mat4 {
	m := mgl64.Ident4()
	if angles[0] != 0 {
		m = mgl64.HomogRotate3DX(s.radians(angles[0])).Mul4(m)
	}
	if angles[1] != 0 {
		m = mgl64.HomogRotate3DY(s.radians(angles[1])).Mul4(m)
	}
	if angles[2] != 0 {
		m = mgl64.HomogRotate3DZ(s.radians(angles[2])).Mul4(m)
	}
	return m
}

func (s *Stack) radians(a float64) float64 {
	if s.RotationUnit == Radians {
		return a
	}
	return mgl64.DegToRad(a)
}
