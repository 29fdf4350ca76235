package transform

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// SphericalToCartesian converts (radius, inclination, azimuth) with angles in
// degrees to cartesian coordinates scaled by size. Inclination is measured
// from the +Z pole.
func SphericalToCartesian(spher mgl64.Vec3, size float64) mgl64.Vec3 {
	radius := spher[0]
	inclination := mgl64.DegToRad(spher[1])
	azimuth := mgl64.DegToRad(spher[2])

	return mgl64.Vec3{
		radius * math.Sin(inclination) * math.Cos(azimuth) * size,
		radius * math.Sin(inclination) * math.Sin(azimuth) * size,
		radius * math.Cos(inclination) * size,
	}
}
