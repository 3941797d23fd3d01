package scene

import (
	"github.com/df07/go-sphere-pathtracer/pkg/core"
	"github.com/df07/go-sphere-pathtracer/pkg/geometry"
	"github.com/df07/go-sphere-pathtracer/pkg/material"
	"github.com/df07/go-sphere-pathtracer/pkg/renderer"
)

const (
	gridExtent       = 11  // Small spheres are placed on [-gridExtent, gridExtent) in x and z
	smallRadius      = 0.2 // Radius of every grid sphere
	gridJitter       = 0.9 // Maximum offset of a grid sphere inside its cell
	diffuseFraction  = 0.8
	metalFraction    = 0.15
	clearingDistance = 0.9 // Grid spheres closer than this to the front metal sphere are skipped
)

// NewRandomScene creates the classic scene of many small random spheres around three large ones.
// The layout and materials are drawn from sampler, so a seeded sampler gives a reproducible scene.
func NewRandomScene(sampler core.Sampler) *Scene {
	cameraConfig := renderer.CameraConfig{
		Center:        core.NewVec3(13, 2, 3),
		LookAt:        core.NewVec3(0, 0, 0),
		Up:            core.NewVec3(0, 1, 0),
		VFov:          20,
		AspectRatio:   3.0 / 2.0,
		Aperture:      0.1,
		FocusDistance: 10,
	}

	s := &Scene{
		World:          geometry.NewShapeList(),
		CameraConfig:   cameraConfig,
		SamplingConfig: renderer.DefaultSamplingConfig(),
	}

	ground := material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5))
	s.World.Add(geometry.NewSphere(core.NewVec3(0, -1000, 0), 1000, ground))

	clearing := core.NewVec3(4, smallRadius, 0)
	for a := -gridExtent; a < gridExtent; a++ {
		for b := -gridExtent; b < gridExtent; b++ {
			chooseMat := sampler.Get1D()
			center := core.NewVec3(
				float64(a)+gridJitter*sampler.Get1D(),
				smallRadius,
				float64(b)+gridJitter*sampler.Get1D(),
			)
			if center.Subtract(clearing).Length() <= clearingDistance {
				continue
			}
			s.World.Add(geometry.NewSphere(center, smallRadius, randomMaterial(chooseMat, sampler)))
		}
	}

	s.World.Add(geometry.NewSphere(core.NewVec3(0, 1, 0), 1.0, material.NewDielectric(1.5)))
	s.World.Add(geometry.NewSphere(core.NewVec3(-4, 1, 0), 1.0, material.NewLambertian(core.NewVec3(0.4, 0.2, 0.1))))
	s.World.Add(geometry.NewSphere(core.NewVec3(4, 1, 0), 1.0, material.NewMetal(core.NewVec3(0.7, 0.6, 0.5), 0.0)))

	return s
}

// randomMaterial picks diffuse, metal, or glass with 80/15/5 odds
func randomMaterial(choose float64, sampler core.Sampler) material.Material {
	switch {
	case choose < diffuseFraction:
		albedo := core.RandomVec3(sampler, 0, 1).MultiplyVec(core.RandomVec3(sampler, 0, 1))
		return material.NewLambertian(albedo)
	case choose < diffuseFraction+metalFraction:
		albedo := core.RandomVec3(sampler, 0.5, 1)
		return material.NewMetal(albedo, core.RandomRange(sampler, 0, 0.5))
	default:
		return material.NewDielectric(1.5)
	}
}
