package renderer

import (
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-sphere-pathtracer/pkg/core"
)

func testCameraConfig() CameraConfig {
	return CameraConfig{
		Center:        core.NewVec3(13, 2, 3),
		LookAt:        core.NewVec3(0, 0, 0),
		Up:            core.NewVec3(0, 1, 0),
		VFov:          20.0,
		AspectRatio:   3.0 / 2.0,
		Aperture:      0.1,
		FocusDistance: 10.0,
	}
}

func TestCameraGetCameraForward(t *testing.T) {
	config := CameraConfig{
		Center:        core.NewVec3(0, 0, 0),
		LookAt:        core.NewVec3(0, 0, -1),
		Up:            core.NewVec3(0, 1, 0),
		AspectRatio:   1.0,
		VFov:          45.0,
		FocusDistance: 1.0,
	}
	camera := NewCamera(config)

	forward := camera.GetCameraForward()
	expected := core.NewVec3(0, 0, -1)

	if math.Abs(forward.X-expected.X) > 1e-6 ||
		math.Abs(forward.Y-expected.Y) > 1e-6 ||
		math.Abs(forward.Z-expected.Z) > 1e-6 {
		t.Errorf("Expected forward direction %v, got %v", expected, forward)
	}
}

func TestCameraBasisIsOrthonormal(t *testing.T) {
	camera := NewCamera(testCameraConfig())

	for name, v := range map[string]core.Vec3{"u": camera.u, "v": camera.v, "w": camera.w} {
		if math.Abs(v.Length()-1) > 1e-12 {
			t.Errorf("Basis vector %s has length %f", name, v.Length())
		}
	}
	if math.Abs(camera.u.Dot(camera.v)) > 1e-12 ||
		math.Abs(camera.v.Dot(camera.w)) > 1e-12 ||
		math.Abs(camera.w.Dot(camera.u)) > 1e-12 {
		t.Error("Basis vectors should be mutually orthogonal")
	}
}

func TestCameraViewportSize(t *testing.T) {
	config := testCameraConfig()
	camera := NewCamera(config)

	expectedHeight := 2 * math.Tan(20.0*math.Pi/180/2) * config.FocusDistance
	expectedWidth := config.AspectRatio * expectedHeight

	if math.Abs(camera.vertical.Length()-expectedHeight) > 1e-9 {
		t.Errorf("Expected viewport height %f, got %f", expectedHeight, camera.vertical.Length())
	}
	if math.Abs(camera.horizontal.Length()-expectedWidth) > 1e-9 {
		t.Errorf("Expected viewport width %f, got %f", expectedWidth, camera.horizontal.Length())
	}
	if math.Abs(camera.lensRadius-0.05) > 1e-12 {
		t.Errorf("Expected lens radius 0.05, got %f", camera.lensRadius)
	}
}

func TestCameraPinholeCenterRay(t *testing.T) {
	config := testCameraConfig()
	config.Aperture = 0
	camera := NewCamera(config)

	ray := camera.GetRay(0.5, 0.5, core.NewRandomSampler(rand.New(rand.NewSource(42))))

	if !ray.Origin.Equals(config.Center) {
		t.Errorf("Pinhole ray should start at the camera center, got %v", ray.Origin)
	}
	expected := config.LookAt.Subtract(config.Center).Normalize()
	if ray.Direction.Normalize().Subtract(expected).Length() > 1e-9 {
		t.Errorf("Center ray should point at the look-at point: expected %v, got %v", expected, ray.Direction.Normalize())
	}
}

func TestCameraLensRaysConvergeOnFocusPlane(t *testing.T) {
	config := testCameraConfig()
	config.Aperture = 2.0
	camera := NewCamera(config)
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(7)))

	coords := [][2]float64{{0, 0}, {0.5, 0.5}, {1, 1}, {0.2, 0.8}}
	for _, st := range coords {
		target := camera.lowerLeftCorner.
			Add(camera.horizontal.Multiply(st[0])).
			Add(camera.vertical.Multiply(st[1]))

		for i := 0; i < 50; i++ {
			ray := camera.GetRay(st[0], st[1], sampler)
			if offset := ray.Origin.Subtract(config.Center).Length(); offset > camera.lensRadius+1e-12 {
				t.Fatalf("Ray origin %v lies outside the lens", ray.Origin)
			}
			// origin + direction must land on the same focus-plane point for every lens sample
			if ray.At(1).Subtract(target).Length() > 1e-9 {
				t.Fatalf("Ray for (%f,%f) misses focus point %v: reaches %v", st[0], st[1], target, ray.At(1))
			}
		}
	}
}

func TestCameraShutterTime(t *testing.T) {
	config := testCameraConfig()
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(1)))

	if ray := NewCamera(config).GetRay(0.5, 0.5, sampler); ray.Time != 0 {
		t.Errorf("Expected time 0 without a shutter interval, got %f", ray.Time)
	}

	config.ShutterOpen = 1.0
	config.ShutterClose = 2.0
	camera := NewCamera(config)
	for i := 0; i < 100; i++ {
		ray := camera.GetRay(0.5, 0.5, sampler)
		if ray.Time < 1.0 || ray.Time >= 2.0 {
			t.Fatalf("Ray time %f outside shutter interval [1, 2)", ray.Time)
		}
	}
}
