package geometry

import (
	"math"
	"math/rand"
	"testing"

	"row-major/pathtracer/configerr"
	"row-major/pathtracer/contact"
	"row-major/pathtracer/ray"
	"row-major/pathtracer/vmath/vec3"
)

type nullMaterial struct{}

func (nullMaterial) Scatter(c contact.Contact, rng *rand.Rand) (contact.Scatter, bool) {
	return contact.Scatter{}, false
}

func mustSphere(t *testing.T, center vec3.T, radius float64) *Sphere {
	t.Helper()
	s, err := NewSphere(center, radius, nullMaterial{})
	if err != nil {
		t.Fatalf("Unexpected error from NewSphere: %v", err)
	}
	return s
}

func query(point, slope vec3.T) ray.RaySegment {
	return ray.RaySegment{
		TheRay:     ray.Ray{Point: point, Slope: slope},
		TheSegment: ray.Span{Lo: 0.001, Hi: math.Inf(1)},
	}
}

func TestRandomHitsLieOnSurface(t *testing.T) {
	rng := rand.New(rand.NewSource(12345))
	s := mustSphere(t, vec3.T{1, -2, -5}, 1.5)

	hits := 0
	for i := 0; i < 1000; i++ {
		origin := vec3.RangeDistribution(rng, -10, 10)
		if vec3.SubVV(origin, s.Center).Norm() <= s.Radius {
			continue
		}
		// Aim somewhere near the sphere, with a non-unit direction.
		target := vec3.AddVV(s.Center, vec3.RangeDistribution(rng, -2, 2))
		slope := vec3.MulVS(vec3.SubVV(target, origin), 0.1+3*rng.Float64())

		c, ok := s.RayInto(query(origin, slope))
		if !ok {
			continue
		}
		hits++

		if d := vec3.SubVV(c.P, s.Center).Norm(); math.Abs(d-s.Radius) > 1e-9 {
			t.Errorf("Hit point %v is %v from the center, want %v", c.P, d, s.Radius)
		}
		if got := vec3.IProd(c.N, slope); got > 0 {
			t.Errorf("Normal %v does not face the ray %v", c.N, slope)
		}
		if math.Abs(c.N.Norm()-1) > 1e-9 {
			t.Errorf("Normal %v is not unit length", c.N)
		}
		if !c.FrontFace {
			t.Errorf("Ray from outside hit a back face")
		}
		if c.Material == nil {
			t.Errorf("Contact is missing its material")
		}
	}

	if hits == 0 {
		t.Fatalf("No rays hit the sphere")
	}
}

func TestHitFromOutside(t *testing.T) {
	s := mustSphere(t, vec3.T{0, 0, -1}, 0.5)

	c, ok := s.RayInto(query(vec3.T{0, 0, 0}, vec3.T{0, 0, -1}))
	if !ok {
		t.Fatalf("Expected a hit")
	}
	if math.Abs(c.T-0.5) > 1e-12 {
		t.Errorf("Hit at t=%v, want 0.5", c.T)
	}
	if want := (vec3.T{0, 0, 1}); c.N != want {
		t.Errorf("Normal %v, want %v", c.N, want)
	}
}

func TestHitFromInsideTakesFarRoot(t *testing.T) {
	s := mustSphere(t, vec3.T{0, 0, 0}, 2)

	c, ok := s.RayInto(query(vec3.T{0, 0, 0}, vec3.T{2, 0, 0}))
	if !ok {
		t.Fatalf("Expected a hit")
	}
	if math.Abs(c.T-1) > 1e-12 {
		t.Errorf("Hit at t=%v, want 1", c.T)
	}
	if c.FrontFace {
		t.Errorf("Ray from inside reported a front face")
	}
	if want := (vec3.T{-1, 0, 0}); c.N != want {
		t.Errorf("Normal %v, want %v", c.N, want)
	}
}

func TestMiss(t *testing.T) {
	s := mustSphere(t, vec3.T{0, 0, -1}, 0.5)

	if _, ok := s.RayInto(query(vec3.T{0, 0, 0}, vec3.T{0, 1, 0})); ok {
		t.Errorf("Ray pointing away should miss")
	}
	if _, ok := s.RayInto(query(vec3.T{0, 0, 0}, vec3.T{0, 0, 1})); ok {
		t.Errorf("Sphere behind the ray should not be hit")
	}
}

func TestSegmentExcludesEndpoints(t *testing.T) {
	s := mustSphere(t, vec3.T{0, 0, -1}, 0.5)

	q := query(vec3.T{0, 0, 0}, vec3.T{0, 0, -1})
	q.TheSegment.Hi = 0.5
	if _, ok := s.RayInto(q); ok {
		t.Errorf("Contact at exactly the segment limit should be rejected")
	}

	// With the near root excluded, the far root is reported.
	q.TheSegment = ray.Span{Lo: 0.5, Hi: math.Inf(1)}
	c, ok := s.RayInto(q)
	if !ok {
		t.Fatalf("Expected the far root")
	}
	if math.Abs(c.T-1.5) > 1e-12 {
		t.Errorf("Hit at t=%v, want 1.5", c.T)
	}
}

func TestNewSphereValidation(t *testing.T) {
	for _, radius := range []float64{0, -1, math.NaN()} {
		if _, err := NewSphere(vec3.T{}, radius, nullMaterial{}); !configerr.Is(err) {
			t.Errorf("NewSphere with radius %v: got error %v, want a configuration error", radius, err)
		}
	}
	if _, err := NewSphere(vec3.T{}, 1, nil); !configerr.Is(err) {
		t.Errorf("NewSphere with nil material: got error %v, want a configuration error", err)
	}
}
