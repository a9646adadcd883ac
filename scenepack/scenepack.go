// Package scenepack provides the scenes a render can start from: a few
// built-in presets, and scene files.
//
// A scene file is JSON:
//
//	{
//	  "environment": {"kind": "sky"},
//	  "materials": {
//	    "ground": {"kind": "lambertian", "albedo": [0.8, 0.8, 0.0]},
//	    "gold":   {"kind": "metal", "albedo": [0.8, 0.6, 0.2], "fuzz": 0.1},
//	    "glass":  {"kind": "dielectric", "refractionIndex": 1.5}
//	  },
//	  "spheres": [
//	    {"center": [0, -100.5, -1], "radius": 100, "material": "ground"}
//	  ],
//	  "camera": {"imageWidth": 400, "aspectRatio": 1.7778, "lookFrom": [0, 0, 0]}
//	}
//
// Environment kinds are "sky", "banded", "uniform" (with "color"), and
// "gradient" (with "bottom" and "top").  Every camera key is optional.
package scenepack

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/golang/glog"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"row-major/pathtracer/camera"
	"row-major/pathtracer/contact"
	"row-major/pathtracer/geometry"
	"row-major/pathtracer/material"
	"row-major/pathtracer/scene"
	"row-major/pathtracer/vmath/vec3"
)

func LoadScene(fileName string) (*Preset, error) {
	fileBytes, err := os.ReadFile(fileName)
	if err != nil {
		return nil, fmt.Errorf("while opening scene file: %w", err)
	}

	name := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	return ParseScene(name, fileBytes)
}

func ParseScene(name string, data []byte) (*Preset, error) {
	root := &structpb.Struct{}
	if err := protojson.Unmarshal(data, root); err != nil {
		return nil, fmt.Errorf("while unmarshaling scene %q: %w", name, err)
	}

	env, err := convertEnvironment(root.GetFields()["environment"])
	if err != nil {
		return nil, fmt.Errorf("while reading environment: %w", err)
	}

	materials := map[string]contact.Material{}
	mtlFields := root.GetFields()["materials"].GetStructValue().GetFields()
	// Sorted, so the first reported error does not depend on map order.
	mtlNames := []string{}
	for n := range mtlFields {
		mtlNames = append(mtlNames, n)
	}
	sort.Strings(mtlNames)
	for _, n := range mtlNames {
		m, err := convertMaterial(mtlFields[n].GetStructValue())
		if err != nil {
			return nil, fmt.Errorf("while reading material %q: %w", n, err)
		}
		materials[n] = m
	}

	realScene := scene.New(env)
	for i, v := range root.GetFields()["spheres"].GetListValue().GetValues() {
		sph, err := convertSphere(v.GetStructValue(), materials)
		if err != nil {
			return nil, fmt.Errorf("while reading sphere %d: %w", i, err)
		}
		realScene.AddElement(sph)
	}

	cfg, err := convertCamera(root.GetFields()["camera"].GetStructValue())
	if err != nil {
		return nil, fmt.Errorf("while reading camera: %w", err)
	}

	glog.V(1).Infof("Loaded scene %q: %d materials, %d spheres", name, len(materials), len(realScene.Elements))

	return &Preset{
		Name:   name,
		Scene:  realScene,
		Camera: cfg,
	}, nil
}

func getNumber(s *structpb.Struct, key string) (float64, bool, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return 0, false, nil
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, false, fmt.Errorf("%q must be a number", key)
	}
	return n.NumberValue, true, nil
}

func getVec3(s *structpb.Struct, key string) (vec3.T, bool, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return vec3.T{}, false, nil
	}
	vals := v.GetListValue().GetValues()
	if len(vals) != 3 {
		return vec3.T{}, false, fmt.Errorf("%q must be a list of three numbers", key)
	}
	result := vec3.T{}
	for i, e := range vals {
		n, ok := e.GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return vec3.T{}, false, fmt.Errorf("%q must be a list of three numbers", key)
		}
		result[i] = n.NumberValue
	}
	return result, true, nil
}

func requireVec3(s *structpb.Struct, key string) (vec3.T, error) {
	v, ok, err := getVec3(s, key)
	if err != nil {
		return vec3.T{}, err
	}
	if !ok {
		return vec3.T{}, fmt.Errorf("missing %q", key)
	}
	return v, nil
}

func requireNumber(s *structpb.Struct, key string) (float64, error) {
	n, ok, err := getNumber(s, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("missing %q", key)
	}
	return n, nil
}

func convertEnvironment(v *structpb.Value) (scene.Environment, error) {
	if v == nil {
		return scene.DefaultSky(), nil
	}
	s := v.GetStructValue()
	switch kind := s.GetFields()["kind"].GetStringValue(); kind {
	case "", "sky":
		return scene.DefaultSky(), nil
	case "banded":
		return scene.BandedSky(), nil
	case "uniform":
		c, err := requireVec3(s, "color")
		if err != nil {
			return nil, err
		}
		return scene.Uniform(c), nil
	case "gradient":
		bottom, err := requireVec3(s, "bottom")
		if err != nil {
			return nil, err
		}
		top, err := requireVec3(s, "top")
		if err != nil {
			return nil, err
		}
		return scene.SkyGradient(bottom, top), nil
	default:
		return nil, fmt.Errorf("unknown environment kind %q", kind)
	}
}

func convertMaterial(s *structpb.Struct) (contact.Material, error) {
	switch kind := s.GetFields()["kind"].GetStringValue(); kind {
	case "lambertian":
		albedo, err := requireVec3(s, "albedo")
		if err != nil {
			return nil, err
		}
		return material.NewLambertian(albedo)
	case "metal":
		albedo, err := requireVec3(s, "albedo")
		if err != nil {
			return nil, err
		}
		fuzz, _, err := getNumber(s, "fuzz")
		if err != nil {
			return nil, err
		}
		return material.NewMetal(albedo, fuzz)
	case "dielectric":
		ri, err := requireNumber(s, "refractionIndex")
		if err != nil {
			return nil, err
		}
		return material.NewDielectric(ri)
	default:
		return nil, fmt.Errorf("unknown material kind %q", kind)
	}
}

func convertSphere(s *structpb.Struct, materials map[string]contact.Material) (*geometry.Sphere, error) {
	center, err := requireVec3(s, "center")
	if err != nil {
		return nil, err
	}
	radius, err := requireNumber(s, "radius")
	if err != nil {
		return nil, err
	}
	mtlName := s.GetFields()["material"].GetStringValue()
	m, ok := materials[mtlName]
	if !ok {
		return nil, fmt.Errorf("unknown material %q", mtlName)
	}
	return geometry.NewSphere(center, radius, m)
}

func convertCamera(s *structpb.Struct) (camera.Config, error) {
	cfg := camera.DefaultConfig()

	floats := []struct {
		key string
		dst *float64
	}{
		{"aspectRatio", &cfg.AspectRatio},
		{"vfov", &cfg.VFov},
		{"defocusAngle", &cfg.DefocusAngle},
		{"focusDist", &cfg.FocusDist},
	}
	for _, f := range floats {
		n, ok, err := getNumber(s, f.key)
		if err != nil {
			return cfg, err
		}
		if ok {
			*f.dst = n
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"imageWidth", &cfg.ImageWidth},
		{"samplesPerPixel", &cfg.SamplesPerPixel},
		{"maxDepth", &cfg.MaxDepth},
	}
	for _, f := range ints {
		n, ok, err := getNumber(s, f.key)
		if err != nil {
			return cfg, err
		}
		if ok {
			*f.dst = int(n)
		}
	}

	vecs := []struct {
		key string
		dst *vec3.T
	}{
		{"lookFrom", &cfg.LookFrom},
		{"lookAt", &cfg.LookAt},
		{"vup", &cfg.VUp},
	}
	for _, f := range vecs {
		v, ok, err := getVec3(s, f.key)
		if err != nil {
			return cfg, err
		}
		if ok {
			*f.dst = v
		}
	}

	return cfg, nil
}
