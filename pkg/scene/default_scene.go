package scene

import (
	"github.com/df07/go-sphere-pathtracer/pkg/core"
	"github.com/df07/go-sphere-pathtracer/pkg/geometry"
	"github.com/df07/go-sphere-pathtracer/pkg/material"
	"github.com/df07/go-sphere-pathtracer/pkg/renderer"
)

// NewDefaultScene creates a small scene with three spheres on a large ground sphere
func NewDefaultScene() *Scene {
	lookFrom := core.NewVec3(3, 3, 2)
	lookAt := core.NewVec3(0, 0, -1)

	cameraConfig := renderer.CameraConfig{
		Center:        lookFrom,
		LookAt:        lookAt,
		Up:            core.NewVec3(0, 1, 0),
		VFov:          20,
		AspectRatio:   16.0 / 9.0,
		Aperture:      0.2,
		FocusDistance: lookFrom.Subtract(lookAt).Length(), // Focus on the center sphere
	}

	s := &Scene{
		World:          geometry.NewShapeList(),
		CameraConfig:   cameraConfig,
		SamplingConfig: renderer.SamplingConfig{SamplesPerPixel: 100, MaxDepth: 50},
	}
	s.SetWidth(400)

	// Create materials
	lambertianGround := material.NewLambertian(core.NewVec3(0.8, 0.8, 0.0))
	lambertianBlue := material.NewLambertian(core.NewVec3(0.1, 0.2, 0.5))
	materialGlass := material.NewDielectric(1.5)
	metalGold := material.NewMetal(core.NewVec3(0.8, 0.6, 0.2), 0.0)

	s.World.Add(geometry.NewSphere(core.NewVec3(0, -100.5, -1), 100, lambertianGround))
	s.World.Add(geometry.NewSphere(core.NewVec3(0, 0, -1), 0.5, lambertianBlue))
	s.World.Add(geometry.NewSphere(core.NewVec3(-1, 0, -1), 0.5, materialGlass))
	s.World.Add(geometry.NewSphere(core.NewVec3(1, 0, -1), 0.5, metalGold))

	return s
}
