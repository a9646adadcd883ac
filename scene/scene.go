package scene

import (
	"math"
	"math/rand"

	"row-major/pathtracer/contact"
	"row-major/pathtracer/geometry"
	"row-major/pathtracer/ray"
	"row-major/pathtracer/vmath/vec3"
)

// Environment gives the radiance arriving along a ray that escapes the scene.
type Environment func(r ray.Ray) vec3.T

// SkyGradient blends from bottom to top by the vertical component of the ray
// direction.
func SkyGradient(bottom, top vec3.T) Environment {
	return func(r ray.Ray) vec3.T {
		a := 0.5 * (vec3.Normalize(r.Slope)[1] + 1.0)
		return vec3.Lerp(a, bottom, top)
	}
}

func DefaultSky() Environment {
	return SkyGradient(vec3.T{1.0, 1.0, 1.0}, vec3.T{0.5, 0.7, 1.0})
}

// BandedGradient splits the sky into equal horizontal bands, listed from
// bottom to top.
func BandedGradient(bands ...vec3.T) Environment {
	return func(r ray.Ray) vec3.T {
		if len(bands) == 0 {
			return vec3.T{}
		}
		a := 0.5 * (vec3.Normalize(r.Slope)[1] + 1.0)
		i := int(math.Floor(a * float64(len(bands))))
		if i < 0 {
			i = 0
		}
		if i >= len(bands) {
			i = len(bands) - 1
		}
		return bands[i]
	}
}

// BandedSky is a five band blue, pink, white, pink, blue sky.
func BandedSky() Environment {
	blue := vec3.T{0.357, 0.808, 0.980}
	pink := vec3.T{0.961, 0.663, 0.722}
	white := vec3.T{1.0, 1.0, 1.0}
	return BandedGradient(blue, pink, white, pink, blue)
}

func Uniform(c vec3.T) Environment {
	return func(r ray.Ray) vec3.T {
		return c
	}
}

// Scene is a collection of geometry lit by an environment.  It must not be
// modified once rendering starts.
type Scene struct {
	Elements    []geometry.Geometry
	Environment Environment
}

// New creates a scene.  A nil env means DefaultSky.
func New(env Environment, elements ...geometry.Geometry) *Scene {
	if env == nil {
		env = DefaultSky()
	}
	return &Scene{
		Elements:    elements,
		Environment: env,
	}
}

// AddElement is a convenience function to register a geometry and get its
// index.
func (s *Scene) AddElement(g geometry.Geometry) int {
	s.Elements = append(s.Elements, g)
	return len(s.Elements) - 1
}

// RayInto finds the closest contact over all elements.  The scan is linear in
// the number of elements.
func (s *Scene) RayInto(query ray.RaySegment) (contact.Contact, bool) {
	minContact := contact.Contact{}
	found := false

	for _, elt := range s.Elements {
		c, ok := elt.RayInto(query)
		if !ok {
			continue
		}
		query.TheSegment.Hi = c.T
		minContact = c
		found = true
	}

	return minContact, found
}

// acneEpsilon keeps scattered rays from re-hitting the surface they leave.
const acneEpsilon = 0.001

// SampleRay estimates the radiance arriving along initialQuery, following at
// most depthLim bounces.
func (s *Scene) SampleRay(initialQuery ray.Ray, rng *rand.Rand, depthLim int) vec3.T {
	curK := vec3.T{1, 1, 1}
	curRay := initialQuery

	for i := 0; i < depthLim; i++ {
		glbContact, hit := s.RayInto(ray.RaySegment{
			TheRay:     curRay,
			TheSegment: ray.Span{Lo: acneEpsilon, Hi: math.Inf(1)},
		})
		if !hit {
			env := s.Environment
			if env == nil {
				env = DefaultSky()
			}
			return vec3.MulVV(curK, env(curRay))
		}

		scattered, ok := glbContact.Material.Scatter(glbContact, rng)
		if !ok {
			return vec3.T{}
		}

		curK = vec3.MulVV(curK, scattered.Attenuation)
		curRay = scattered.Ray
	}

	// Out of bounces.
	return vec3.T{}
}
