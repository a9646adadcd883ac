package scenepack

import (
	"fmt"
	"math/rand"
	"sort"

	"row-major/pathtracer/camera"
	"row-major/pathtracer/contact"
	"row-major/pathtracer/geometry"
	"row-major/pathtracer/material"
	"row-major/pathtracer/scene"
	"row-major/pathtracer/vmath/vec3"
)

// Preset is a scene together with the camera it is meant to be viewed from.
type Preset struct {
	Name   string
	Scene  *scene.Scene
	Camera camera.Config
}

var builtins = map[string]func() (*Preset, error){
	"three-spheres":  threeSpheres,
	"single-sphere":  singleSphere,
	"random-spheres": randomSpheres,
}

// Names lists the built-in scenes.
func Names() []string {
	names := []string{}
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func Builtin(name string) (*Preset, error) {
	build, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown scene %q (have %v)", name, Names())
	}
	p, err := build()
	if err != nil {
		return nil, fmt.Errorf("while building scene %q: %w", name, err)
	}
	p.Name = name
	return p, nil
}

// sceneBuilder keeps the first construction error and ignores later calls.
type sceneBuilder struct {
	s   *scene.Scene
	err error
}

func (b *sceneBuilder) mtl(m contact.Material, err error) contact.Material {
	if b.err == nil && err != nil {
		b.err = err
	}
	return m
}

func (b *sceneBuilder) sphere(center vec3.T, radius float64, m contact.Material) {
	if b.err != nil {
		return
	}
	sph, err := geometry.NewSphere(center, radius, m)
	if err != nil {
		b.err = err
		return
	}
	b.s.AddElement(sph)
}

func singleSphere() (*Preset, error) {
	b := &sceneBuilder{s: scene.New(scene.DefaultSky())}
	gray := b.mtl(material.NewLambertian(vec3.T{0.5, 0.5, 0.5}))
	b.sphere(vec3.T{0, 0, -1}, 0.5, gray)
	if b.err != nil {
		return nil, b.err
	}
	return &Preset{
		Scene:  b.s,
		Camera: camera.DefaultConfig(),
	}, nil
}

func threeSpheres() (*Preset, error) {
	b := &sceneBuilder{s: scene.New(scene.DefaultSky())}

	ground := b.mtl(material.NewLambertian(vec3.T{0.8, 0.8, 0.0}))
	center := b.mtl(material.NewLambertian(vec3.T{0.1, 0.2, 0.5}))
	left := b.mtl(material.NewDielectric(1.5))
	bubble := b.mtl(material.NewDielectric(1.0 / 1.5))
	right := b.mtl(material.NewMetal(vec3.T{0.8, 0.6, 0.2}, 0.001))

	b.sphere(vec3.T{0.0, -100.5, -1.0}, 100.0, ground)
	b.sphere(vec3.T{0.0, 0.0, -1.2}, 0.5, center)
	b.sphere(vec3.T{-1.0, 0.0, -1.0}, 0.5, left)
	b.sphere(vec3.T{-1.0, 0.0, -1.0}, 0.4, bubble)
	b.sphere(vec3.T{1.0, 0.0, -1.0}, 0.5, right)
	if b.err != nil {
		return nil, b.err
	}

	cfg := camera.DefaultConfig()
	cfg.AspectRatio = 16.0 / 9.0
	cfg.ImageWidth = 400
	cfg.SamplesPerPixel = 100
	cfg.MaxDepth = 50
	return &Preset{
		Scene:  b.s,
		Camera: cfg,
	}, nil
}

func randomSpheres() (*Preset, error) {
	rng := rand.New(rand.NewSource(1))
	b := &sceneBuilder{s: scene.New(scene.DefaultSky())}

	ground := b.mtl(material.NewLambertian(vec3.T{0.5, 0.5, 0.5}))
	b.sphere(vec3.T{0, -1000, 0}, 1000, ground)

	for a := -11; a < 11; a++ {
		for bb := -11; bb < 11; bb++ {
			chooseMat := rng.Float64()
			center := vec3.T{float64(a) + 0.9*rng.Float64(), 0.2, float64(bb) + 0.9*rng.Float64()}
			if vec3.SubVV(center, vec3.T{4, 0.2, 0}).Norm() <= 0.9 {
				continue
			}

			var m contact.Material
			switch {
			case chooseMat < 0.8:
				albedo := vec3.MulVV(vec3.RangeDistribution(rng, 0, 1), vec3.RangeDistribution(rng, 0, 1))
				m = b.mtl(material.NewLambertian(albedo))
			case chooseMat < 0.95:
				albedo := vec3.RangeDistribution(rng, 0.5, 1)
				fuzz := 0.5 * rng.Float64()
				m = b.mtl(material.NewMetal(albedo, fuzz))
			default:
				m = b.mtl(material.NewDielectric(1.5))
			}
			b.sphere(center, 0.2, m)
		}
	}

	b.sphere(vec3.T{0, 1, 0}, 1.0, b.mtl(material.NewDielectric(1.5)))
	b.sphere(vec3.T{-4, 1, 0}, 1.0, b.mtl(material.NewLambertian(vec3.T{0.4, 0.2, 0.1})))
	b.sphere(vec3.T{4, 1, 0}, 1.0, b.mtl(material.NewMetal(vec3.T{0.7, 0.6, 0.5}, 0.0)))
	if b.err != nil {
		return nil, b.err
	}

	cfg := camera.DefaultConfig()
	cfg.AspectRatio = 16.0 / 9.0
	cfg.ImageWidth = 400
	cfg.SamplesPerPixel = 50
	cfg.MaxDepth = 50
	cfg.VFov = 20
	cfg.LookFrom = vec3.T{13, 2, 3}
	cfg.LookAt = vec3.T{0, 0, 0}
	cfg.VUp = vec3.T{0, 1, 0}
	cfg.DefocusAngle = 0.6
	cfg.FocusDist = 10.0
	return &Preset{
		Scene:  b.s,
		Camera: cfg,
	}, nil
}
