package scene

import (
	"fmt"

	"github.com/df07/go-sphere-pathtracer/pkg/core"
	"github.com/df07/go-sphere-pathtracer/pkg/geometry"
	"github.com/df07/go-sphere-pathtracer/pkg/loaders"
	"github.com/df07/go-sphere-pathtracer/pkg/material"
	"github.com/df07/go-sphere-pathtracer/pkg/renderer"
)

// Load creates a scene from a JSON scene file
func Load(path string) (*Scene, error) {
	sf, err := loaders.LoadSceneFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load scene file: %w", err)
	}
	return FromSceneFile(sf)
}

// Save writes a scene as a JSON scene file
func Save(path string, s *Scene) error {
	sf, err := ToSceneFile(s)
	if err != nil {
		return err
	}
	return loaders.SaveSceneFile(path, sf)
}

// FromSceneFile converts a parsed scene file into renderable geometry.
// Spheres naming the same material share a single material instance.
func FromSceneFile(sf *loaders.SceneFile) (*Scene, error) {
	materials := make(map[string]material.Material, len(sf.Materials))
	for name, spec := range sf.Materials {
		mat, err := convertMaterial(spec)
		if err != nil {
			return nil, fmt.Errorf("failed to convert material %q: %w", name, err)
		}
		materials[name] = mat
	}

	s := &Scene{
		World:          geometry.NewShapeList(),
		CameraConfig:   convertCamera(sf.Camera),
		SamplingConfig: renderer.DefaultSamplingConfig(),
	}
	s.SetWidth(s.SamplingConfig.Width)
	if sf.Sampling != nil {
		applySampling(s, *sf.Sampling)
	}

	for i, spec := range sf.Spheres {
		mat, ok := materials[spec.Material]
		if !ok {
			return nil, fmt.Errorf("sphere %d: %w %q", i, loaders.ErrUnknownMaterial, spec.Material)
		}
		s.World.Add(geometry.NewSphere(spec.Center.Vec3(), spec.Radius, mat))
	}

	return s, nil
}

// ToSceneFile converts a scene into its file form.
// Every distinct material instance gets one entry that all its spheres refer to.
func ToSceneFile(s *Scene) (*loaders.SceneFile, error) {
	sf := &loaders.SceneFile{
		Version: loaders.FormatVersion,
		Camera: loaders.CameraSpec{
			Center:        loaders.VectorOf(s.CameraConfig.Center),
			LookAt:        loaders.VectorOf(s.CameraConfig.LookAt),
			Up:            loaders.VectorOf(s.CameraConfig.Up),
			VFov:          s.CameraConfig.VFov,
			AspectRatio:   s.CameraConfig.AspectRatio,
			Aperture:      s.CameraConfig.Aperture,
			FocusDistance: s.CameraConfig.FocusDistance,
			ShutterOpen:   s.CameraConfig.ShutterOpen,
			ShutterClose:  s.CameraConfig.ShutterClose,
		},
		Sampling: &loaders.SamplingSpec{
			Width:           s.SamplingConfig.Width,
			Height:          s.SamplingConfig.Height,
			SamplesPerPixel: s.SamplingConfig.SamplesPerPixel,
			MaxDepth:        s.SamplingConfig.MaxDepth,
		},
		Materials: make(map[string]loaders.MaterialSpec),
	}

	names := make(map[material.Material]string)
	for i, shape := range s.World.Shapes {
		sphere, ok := shape.(*geometry.Sphere)
		if !ok {
			return nil, fmt.Errorf("shape %d: only spheres can be saved, got %T", i, shape)
		}

		name, seen := names[sphere.Material]
		if !seen {
			spec, err := materialSpec(sphere.Material)
			if err != nil {
				return nil, fmt.Errorf("shape %d: %w", i, err)
			}
			name = fmt.Sprintf("%s-%d", spec.Type, len(names))
			names[sphere.Material] = name
			sf.Materials[name] = spec
		}

		sf.Spheres = append(sf.Spheres, loaders.SphereSpec{
			Center:   loaders.VectorOf(sphere.Center),
			Radius:   sphere.Radius,
			Material: name,
		})
	}

	return sf, nil
}

func convertMaterial(spec loaders.MaterialSpec) (material.Material, error) {
	switch spec.Type {
	case loaders.MaterialLambertian:
		return material.NewLambertian(spec.Albedo.Vec3()), nil
	case loaders.MaterialMetal:
		return material.NewMetal(spec.Albedo.Vec3(), spec.Fuzz), nil
	case loaders.MaterialDielectric:
		return material.NewDielectric(spec.RefractiveIndex), nil
	default:
		return nil, fmt.Errorf("%w type %q", loaders.ErrUnknownMaterial, spec.Type)
	}
}

func materialSpec(mat material.Material) (loaders.MaterialSpec, error) {
	switch m := mat.(type) {
	case *material.Lambertian:
		return loaders.MaterialSpec{Type: loaders.MaterialLambertian, Albedo: loaders.VectorOf(m.Albedo)}, nil
	case *material.Metal:
		return loaders.MaterialSpec{Type: loaders.MaterialMetal, Albedo: loaders.VectorOf(m.Albedo), Fuzz: m.Fuzzness}, nil
	case *material.Dielectric:
		return loaders.MaterialSpec{Type: loaders.MaterialDielectric, RefractiveIndex: m.RefractiveIndex}, nil
	default:
		return loaders.MaterialSpec{}, fmt.Errorf("%w: cannot save %T", loaders.ErrUnknownMaterial, mat)
	}
}

func convertCamera(spec loaders.CameraSpec) renderer.CameraConfig {
	up := spec.Up.Vec3()
	if up == (core.Vec3{}) {
		up = core.NewVec3(0, 1, 0)
	}
	// Zero focus distance focuses on the look-at point
	focusDistance := spec.FocusDistance
	if focusDistance <= 0 {
		focusDistance = spec.Center.Vec3().Subtract(spec.LookAt.Vec3()).Length()
	}
	return renderer.CameraConfig{
		Center:        spec.Center.Vec3(),
		LookAt:        spec.LookAt.Vec3(),
		Up:            up,
		VFov:          spec.VFov,
		AspectRatio:   spec.AspectRatio,
		Aperture:      spec.Aperture,
		FocusDistance: focusDistance,
		ShutterOpen:   spec.ShutterOpen,
		ShutterClose:  spec.ShutterClose,
	}
}

// applySampling overrides the non-zero fields; a width without a height keeps the aspect ratio
func applySampling(s *Scene, spec loaders.SamplingSpec) {
	if spec.Width > 0 {
		s.SetWidth(spec.Width)
	}
	if spec.Height > 0 {
		s.SamplingConfig.Height = spec.Height
	}
	if spec.SamplesPerPixel > 0 {
		s.SamplingConfig.SamplesPerPixel = spec.SamplesPerPixel
	}
	if spec.MaxDepth > 0 {
		s.SamplingConfig.MaxDepth = spec.MaxDepth
	}
}
