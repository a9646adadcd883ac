package contact

import (
	"math/rand"

	"row-major/pathtracer/ray"
	"row-major/pathtracer/vmath/vec3"
)

// Contact records where a ray struck a surface.
type Contact struct {
	T float64

	// R is the incoming ray.
	R ray.Ray

	P vec3.T

	// N is unit length and always points against R.Slope.
	N vec3.T

	// FrontFace is true when R arrived from outside the surface.
	FrontFace bool

	Material Material
}

// SetFaceNormal orients the contact normal against the incoming ray.
// outward must be unit length.
func (c *Contact) SetFaceNormal(outward vec3.T) {
	c.FrontFace = vec3.IProd(c.R.Slope, outward) < 0
	if c.FrontFace {
		c.N = outward
	} else {
		c.N = vec3.Neg(outward)
	}
}

// Scatter is the ray leaving a contact, and the color it is filtered by.
type Scatter struct {
	Attenuation vec3.T
	Ray         ray.Ray
}

// Material decides what happens to a ray at a contact.  Implementations must
// not hold mutable state; they are shared across render workers.
//
// A false return means the ray was absorbed.
type Material interface {
	Scatter(c Contact, rng *rand.Rand) (Scatter, bool)
}
