package transform

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Frame is one level of the transform stack.
type Frame struct {
	Origin mgl64.Vec3
	// Position is spherical: radius, inclination and azimuth (degrees).
	Position mgl64.Vec3
	// Rotation is cumulative euler angles per axis.
	Rotation mgl64.Vec3
	// Scale is cumulative additive factors, starting from (1,1,1).
	Scale mgl64.Vec3
}

func Identity() Frame {
	return Frame{Scale: mgl64.Vec3{1, 1, 1}}
}

func (f Frame) String() string {
	return fmt.Sprintf("origin%v position%v rotation%v scale%v", f.Origin, f.Position, f.Rotation, f.Scale)
}

// Manouver sets the radius absolutely and shifts inclination and azimuth.
func (f *Frame) Manouver(radius, inclination, azimuth float64) {
	f.Position[0] = radius
	f.Position[1] += inclination
	f.Position[2] += azimuth
}

func (f *Frame) Roll(x, y, z float64) {
	f.Rotation = f.Rotation.Add(mgl64.Vec3{x, y, z})
}

// Rescale sums deltas into the scale vector. Scale is never multiplied.
func (f *Frame) Rescale(x, y, z float64) {
	f.Scale = f.Scale.Add(mgl64.Vec3{x, y, z})
}
