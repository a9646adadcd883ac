package ray

import (
	"math"

	"row-major/pathtracer/vmath/vec3"
)

// Span is a range of ray parameters.
type Span struct {
	Lo, Hi float64
}

// Universe spans every ray parameter.
func Universe() Span {
	return Span{math.Inf(-1), math.Inf(1)}
}

func (s Span) Contains(x float64) bool {
	return s.Lo <= x && x <= s.Hi
}

// Surrounds is the strict version of Contains.
func (s Span) Surrounds(x float64) bool {
	return s.Lo < x && x < s.Hi
}

func (s Span) Clamp(x float64) float64 {
	if x < s.Lo {
		return s.Lo
	}
	if x > s.Hi {
		return s.Hi
	}
	return x
}

// Ray is a parametrized line.  Slope is not required to be unit length.
type Ray struct {
	Point vec3.T
	Slope vec3.T
}

func (r *Ray) Eval(t float64) vec3.T {
	return vec3.T{
		r.Point[0] + t*r.Slope[0],
		r.Point[1] + t*r.Slope[1],
		r.Point[2] + t*r.Slope[2],
	}
}

type RaySegment struct {
	TheRay     Ray
	TheSegment Span
}
