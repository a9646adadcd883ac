package geometry

import (
	"math"

	"row-major/pathtracer/configerr"
	"row-major/pathtracer/contact"
	"row-major/pathtracer/ray"
	"row-major/pathtracer/vmath/vec3"
)

type Geometry interface {
	// RayInto returns the closest contact whose parameter lies strictly
	// inside query.TheSegment.
	RayInto(query ray.RaySegment) (contact.Contact, bool)
}

type Sphere struct {
	Center   vec3.T
	Radius   float64
	Material contact.Material
}

func NewSphere(center vec3.T, radius float64, mtl contact.Material) (*Sphere, error) {
	if !(radius > 0) {
		return nil, configerr.New("sphere radius", "must be positive, got %v", radius)
	}
	if mtl == nil {
		return nil, configerr.New("sphere material", "must not be nil")
	}
	return &Sphere{
		Center:   center,
		Radius:   radius,
		Material: mtl,
	}, nil
}

func (s *Sphere) RayInto(query ray.RaySegment) (contact.Contact, bool) {
	r := query.TheRay

	oc := vec3.SubVV(s.Center, r.Point)
	a := r.Slope.NormSquared()
	h := vec3.IProd(r.Slope, oc)
	c := oc.NormSquared() - s.Radius*s.Radius

	discriminant := h*h - a*c
	if discriminant < 0 {
		return contact.Contact{}, false
	}

	sqrtD := math.Sqrt(discriminant)
	root := (h - sqrtD) / a
	if !query.TheSegment.Surrounds(root) {
		root = (h + sqrtD) / a
		if !query.TheSegment.Surrounds(root) {
			return contact.Contact{}, false
		}
	}

	p := r.Eval(root)
	result := contact.Contact{
		T:        root,
		R:        r,
		P:        p,
		Material: s.Material,
	}
	result.SetFaceNormal(vec3.DivVS(vec3.SubVV(p, s.Center), s.Radius))
	return result, true
}
