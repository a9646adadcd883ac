package material

import (
	"math"
	"math/rand"

	"row-major/pathtracer/configerr"
	"row-major/pathtracer/contact"
	"row-major/pathtracer/ray"
	"row-major/pathtracer/vmath/vec3"
)

func validAlbedo(field string, albedo vec3.T) error {
	for i := 0; i < 3; i++ {
		if albedo[i] < 0 || math.IsNaN(albedo[i]) {
			return configerr.New(field, "components must be non-negative, got %v", albedo)
		}
	}
	return nil
}

// Lambertian is an ideal diffuse reflector.
type Lambertian struct {
	Albedo vec3.T
}

func NewLambertian(albedo vec3.T) (*Lambertian, error) {
	if err := validAlbedo("lambertian albedo", albedo); err != nil {
		return nil, err
	}
	return &Lambertian{Albedo: albedo}, nil
}

func (l *Lambertian) Scatter(c contact.Contact, rng *rand.Rand) (contact.Scatter, bool) {
	dir := vec3.AddVV(c.N, vec3.UniformUnitDistribution(rng))

	// The sample can land opposite the normal and cancel it out.
	if dir.NearZero() {
		dir = c.N
	}

	return contact.Scatter{
		Attenuation: l.Albedo,
		Ray: ray.Ray{
			Point: c.P,
			Slope: dir,
		},
	}, true
}

// Metal is a specular reflector whose reflection direction is blurred by Fuzz.
type Metal struct {
	Albedo vec3.T
	Fuzz   float64
}

// NewMetal clamps fuzz into [0, 1].
func NewMetal(albedo vec3.T, fuzz float64) (*Metal, error) {
	if err := validAlbedo("metal albedo", albedo); err != nil {
		return nil, err
	}
	if math.IsNaN(fuzz) {
		return nil, configerr.New("metal fuzz", "must be a number")
	}
	return &Metal{
		Albedo: albedo,
		Fuzz:   ray.Span{Lo: 0, Hi: 1}.Clamp(fuzz),
	}, nil
}

func (m *Metal) Scatter(c contact.Contact, rng *rand.Rand) (contact.Scatter, bool) {
	reflected := vec3.Normalize(vec3.Reflect(c.R.Slope, c.N))
	reflected = vec3.AddVV(reflected, vec3.MulVS(vec3.UniformUnitDistribution(rng), m.Fuzz))

	// Fuzz pushed the ray below the surface.
	if vec3.IProd(reflected, c.N) <= 0 {
		return contact.Scatter{}, false
	}

	return contact.Scatter{
		Attenuation: m.Albedo,
		Ray: ray.Ray{
			Point: c.P,
			Slope: reflected,
		},
	}, true
}

// Dielectric is a clear refractive material such as glass or water.  It
// redirects rays but never dims them.
type Dielectric struct {
	// RefractionIndex is relative to the enclosing medium.
	RefractionIndex float64
}

func NewDielectric(refractionIndex float64) (*Dielectric, error) {
	if !(refractionIndex > 0) {
		return nil, configerr.New("dielectric refraction index", "must be positive, got %v", refractionIndex)
	}
	return &Dielectric{RefractionIndex: refractionIndex}, nil
}

func (d *Dielectric) Scatter(c contact.Contact, rng *rand.Rand) (contact.Scatter, bool) {
	ratio := d.RefractionIndex
	if c.FrontFace {
		ratio = 1.0 / d.RefractionIndex
	}

	unitDir := vec3.Normalize(c.R.Slope)
	cosTheta := math.Min(vec3.IProd(vec3.Neg(unitDir), c.N), 1.0)
	sinTheta := math.Sqrt(1.0 - cosTheta*cosTheta)

	var dir vec3.T
	if ratio*sinTheta > 1.0 || rng.Float64() < Reflectance(cosTheta, ratio) {
		dir = vec3.Reflect(unitDir, c.N)
	} else {
		dir = vec3.Refract(unitDir, c.N, ratio)
	}

	return contact.Scatter{
		Attenuation: vec3.T{1, 1, 1},
		Ray: ray.Ray{
			Point: c.P,
			Slope: dir,
		},
	}, true
}

// Reflectance is Schlick's approximation of the Fresnel reflection
// probability.
func Reflectance(cosine, ratio float64) float64 {
	r0 := (1 - ratio) / (1 + ratio)
	r0 = r0 * r0
	return r0 + (1-r0)*math.Pow(1-cosine, 5)
}
