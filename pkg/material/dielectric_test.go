package material

import (
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-sphere-pathtracer/pkg/core"
)

func TestDielectric_AttenuationIsWhite(t *testing.T) {
	glass := NewDielectric(1.5)
	ray := core.NewRay(core.NewVec3(0, 1, 0), core.NewVec3(1, -1, 0).Normalize())
	hit := HitRecord{
		Point:     core.NewVec3(0, 0, 0),
		Normal:    core.NewVec3(0, 1, 0),
		T:         1.0,
		FrontFace: true,
		Material:  glass,
	}

	sampler := core.NewRandomSampler(rand.New(rand.NewSource(42)))
	for i := 0; i < 100; i++ {
		result, scattered := glass.Scatter(ray, hit, sampler)
		if !scattered {
			t.Fatal("Dielectric should always scatter")
		}
		if !result.Attenuation.Equals(core.NewVec3(1, 1, 1)) {
			t.Fatalf("Expected white attenuation, got %v", result.Attenuation)
		}
	}
}

func TestDielectric_TotalInternalReflectionIsDeterministic(t *testing.T) {
	glass := NewDielectric(1.5)

	// Leaving the glass at 70 degrees: 1.5 * sin(70°) > 1
	theta := 70 * math.Pi / 180
	direction := core.NewVec3(math.Sin(theta), -math.Cos(theta), 0)
	ray := core.NewRay(core.NewVec3(-math.Sin(theta), math.Cos(theta), 0), direction)
	hit := HitRecord{
		Point:     core.NewVec3(0, 0, 0),
		Normal:    core.NewVec3(0, 1, 0),
		FrontFace: false,
	}

	// Any random draw would panic
	result, scattered := glass.Scatter(ray, hit, panicSampler{})
	if !scattered {
		t.Fatal("Dielectric should always scatter")
	}

	expected := core.NewVec3(math.Sin(theta), math.Cos(theta), 0)
	if result.Scattered.Direction.Subtract(expected).Length() > 1e-9 {
		t.Errorf("Expected reflection %v, got %v", expected, result.Scattered.Direction)
	}
}

func TestDielectric_SchlickDecision(t *testing.T) {
	glass := NewDielectric(1.5)
	ray := core.NewRay(core.NewVec3(0, 1, 0), core.NewVec3(0, -1, 0))
	hit := HitRecord{
		Point:     core.NewVec3(0, 0, 0),
		Normal:    core.NewVec3(0, 1, 0),
		FrontFace: true,
	}

	// Reflectance at normal incidence air->glass is 0.04
	tests := []struct {
		name     string
		draw     float64
		expected core.Vec3
	}{
		{"draw below reflectance reflects", 0.01, core.NewVec3(0, 1, 0)},
		{"draw above reflectance refracts", 0.5, core.NewVec3(0, -1, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sampler := &sequenceSampler{values: []float64{tt.draw}}
			result, _ := glass.Scatter(ray, hit, sampler)
			if result.Scattered.Direction.Subtract(tt.expected).Length() > 1e-9 {
				t.Errorf("Expected direction %v, got %v", tt.expected, result.Scattered.Direction)
			}
		})
	}
}

func TestReflectance(t *testing.T) {
	tests := []struct {
		name     string
		cosine   float64
		ratio    float64
		expected float64
	}{
		{"normal incidence air to glass", 1.0, 1.0 / 1.5, 0.04},
		{"normal incidence glass to air", 1.0, 1.5, 0.04},
		{"grazing incidence", 0.0, 1.0 / 1.5, 1.0},
		{"matched index", 1.0, 1.0, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reflectance(tt.cosine, tt.ratio)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Reflectance(%f, %f) = %f, expected %f", tt.cosine, tt.ratio, got, tt.expected)
			}
		})
	}
}
