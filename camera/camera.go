// Package camera turns viewing parameters into primary rays.
//
// Config holds the user-facing parameters and is never mutated by this
// package.  Prepare derives a Frame from a Config in one step; a Frame is
// read-only and safe to share between render workers.
package camera

import (
	"math"
	"math/rand"

	"row-major/pathtracer/configerr"
	"row-major/pathtracer/ray"
	"row-major/pathtracer/vmath/mat33"
	"row-major/pathtracer/vmath/vec3"
)

type Config struct {
	AspectRatio     float64
	ImageWidth      int
	SamplesPerPixel int

	// MaxDepth bounds the number of bounces followed per sample.
	MaxDepth int

	// VFov is the vertical field of view, in degrees.
	VFov     float64
	LookFrom vec3.T
	LookAt   vec3.T
	VUp      vec3.T

	// DefocusAngle is the cone angle, in degrees, subtended by the aperture
	// as seen from the focus plane.  Zero or less gives a pinhole camera.
	DefocusAngle float64
	FocusDist    float64
}

func DefaultConfig() Config {
	return Config{
		AspectRatio:     1.0,
		ImageWidth:      100,
		SamplesPerPixel: 10,
		MaxDepth:        10,
		VFov:            90,
		LookFrom:        vec3.T{0, 0, 0},
		LookAt:          vec3.T{0, 0, -1},
		VUp:             vec3.T{0, 1, 0},
		DefocusAngle:    0,
		FocusDist:       10,
	}
}

// Frame is the set of quantities derived from a Config.
type Frame struct {
	Config Config

	ImageHeight int

	// SampleScale weights each sample's contribution to its pixel.
	SampleScale float64

	Center vec3.T

	// Basis has the camera's right (u), up (v), and backward (w) unit
	// vectors as its columns.
	Basis mat33.T

	Pixel00     vec3.T
	PixelDeltaU vec3.T
	PixelDeltaV vec3.T

	DefocusDiskU vec3.T
	DefocusDiskV vec3.T
}

func degreesToRadians(d float64) float64 {
	return d * math.Pi / 180.0
}

func validate(cfg Config) error {
	if !(cfg.AspectRatio > 0) || math.IsInf(cfg.AspectRatio, 0) {
		return configerr.New("aspect ratio", "must be positive and finite, got %v", cfg.AspectRatio)
	}
	if cfg.ImageWidth <= 0 {
		return configerr.New("image width", "must be positive, got %d", cfg.ImageWidth)
	}
	if cfg.SamplesPerPixel <= 0 {
		return configerr.New("samples per pixel", "must be positive, got %d", cfg.SamplesPerPixel)
	}
	if cfg.MaxDepth < 0 {
		return configerr.New("max depth", "must not be negative, got %d", cfg.MaxDepth)
	}
	if !(cfg.VFov > 0 && cfg.VFov < 180) {
		return configerr.New("vertical field of view", "must be in (0, 180) degrees, got %v", cfg.VFov)
	}
	if !(cfg.FocusDist > 0) {
		return configerr.New("focus distance", "must be positive, got %v", cfg.FocusDist)
	}
	if cfg.LookFrom == cfg.LookAt {
		return configerr.New("lookat", "must differ from lookfrom %v", cfg.LookFrom)
	}
	w := vec3.SubVV(cfg.LookFrom, cfg.LookAt)
	if vec3.CProd(cfg.VUp, w).NearZero() {
		return configerr.New("vup", "%v must not be parallel to the view direction", cfg.VUp)
	}
	return nil
}

// Prepare validates cfg and computes the frame it describes.
func Prepare(cfg Config) (*Frame, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}

	f := &Frame{Config: cfg}

	f.ImageHeight = int(float64(cfg.ImageWidth) / cfg.AspectRatio)
	if f.ImageHeight < 1 {
		f.ImageHeight = 1
	}
	f.SampleScale = 1.0 / float64(cfg.SamplesPerPixel)
	f.Center = cfg.LookFrom

	h := math.Tan(degreesToRadians(cfg.VFov) / 2)
	viewportHeight := 2 * h * cfg.FocusDist
	viewportWidth := viewportHeight * float64(cfg.ImageWidth) / float64(f.ImageHeight)

	w := vec3.Normalize(vec3.SubVV(cfg.LookFrom, cfg.LookAt))
	u := vec3.Normalize(vec3.CProd(cfg.VUp, w))
	v := vec3.CProd(w, u)
	f.Basis = mat33.FromColumns(u, v, w)

	// The viewport runs right along u and down along -v.
	viewportU := vec3.MulVS(u, viewportWidth)
	viewportV := vec3.MulVS(v, -viewportHeight)

	f.PixelDeltaU = vec3.DivVS(viewportU, float64(cfg.ImageWidth))
	f.PixelDeltaV = vec3.DivVS(viewportV, float64(f.ImageHeight))

	upperLeft := mat33.MulMV(f.Basis, vec3.T{-viewportWidth / 2, viewportHeight / 2, -cfg.FocusDist})
	upperLeft = vec3.AddVV(f.Center, upperLeft)
	f.Pixel00 = vec3.AddVV(upperLeft, vec3.MulVS(vec3.AddVV(f.PixelDeltaU, f.PixelDeltaV), 0.5))

	defocusRadius := cfg.FocusDist * math.Tan(degreesToRadians(cfg.DefocusAngle/2))
	f.DefocusDiskU = vec3.MulVS(u, defocusRadius)
	f.DefocusDiskV = vec3.MulVS(v, defocusRadius)

	return f, nil
}

func (f *Frame) Right() vec3.T {
	return f.Basis.Column(0)
}

func (f *Frame) Up() vec3.T {
	return f.Basis.Column(1)
}

// Backward points from the scene toward the camera.
func (f *Frame) Backward() vec3.T {
	return f.Basis.Column(2)
}

// ImageToRay returns a ray through a random point of pixel (row, col), starting
// from a random point on the defocus disk.
func (f *Frame) ImageToRay(row, col int, rng *rand.Rand) ray.Ray {
	offsetU := rng.Float64() - 0.5
	offsetV := rng.Float64() - 0.5

	sample := vec3.AddVV(f.Pixel00, vec3.MulVS(f.PixelDeltaU, float64(col)+offsetU))
	sample = vec3.AddVV(sample, vec3.MulVS(f.PixelDeltaV, float64(row)+offsetV))

	origin := f.Center
	if f.Config.DefocusAngle > 0 {
		p := vec3.UnitDiskDistribution(rng)
		origin = vec3.AddVV(origin, vec3.MulVS(f.DefocusDiskU, p[0]))
		origin = vec3.AddVV(origin, vec3.MulVS(f.DefocusDiskV, p[1]))
	}

	return ray.Ray{
		Point: origin,
		Slope: vec3.SubVV(sample, origin),
	}
}

// LinearToGamma applies gamma 2.
func LinearToGamma(x float64) float64 {
	if x > 0 {
		return math.Sqrt(x)
	}
	return 0
}

var intensity = ray.Span{Lo: 0.000, Hi: 0.999}

// QuantizeComponent maps a linear radiance component to a display byte.
func QuantizeComponent(x float64) uint8 {
	return uint8(256 * intensity.Clamp(LinearToGamma(x)))
}

// Quantize maps a linear color to display bytes.
func Quantize(c vec3.T) [3]uint8 {
	return [3]uint8{
		QuantizeComponent(c[0]),
		QuantizeComponent(c[1]),
		QuantizeComponent(c[2]),
	}
}
