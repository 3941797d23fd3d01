package scene

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-sphere-pathtracer/pkg/core"
	"github.com/df07/go-sphere-pathtracer/pkg/geometry"
	"github.com/df07/go-sphere-pathtracer/pkg/loaders"
	"github.com/df07/go-sphere-pathtracer/pkg/material"
)

const testSceneJSON = `{
  "version": "1.0.0",
  "camera": {"center": [0, 0, 2], "lookAt": [0, 0, -1], "up": [0, 1, 0], "vfov": 40, "aspectRatio": 2},
  "sampling": {"width": 100, "samplesPerPixel": 16, "maxDepth": 8},
  "materials": {
    "red": {"type": "lambertian", "albedo": [0.7, 0.1, 0.1]},
    "mirror": {"type": "metal", "albedo": [0.9, 0.9, 0.9], "fuzz": 0.1}
  },
  "spheres": [
    {"center": [0, -100.5, -1], "radius": 100, "material": "red"},
    {"center": [0, 0, -1], "radius": 0.5, "material": "mirror"},
    {"center": [1, 0, -1], "radius": 0.5, "material": "red"}
  ]
}`

func writeScene(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	s, err := Load(writeScene(t, testSceneJSON))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if s.World.Len() != 3 {
		t.Fatalf("Expected 3 spheres, got %d", s.World.Len())
	}
	ground := s.World.Shapes[0].(*geometry.Sphere)
	right := s.World.Shapes[2].(*geometry.Sphere)
	if ground.Material != right.Material {
		t.Error("Expected spheres naming the same material to share it")
	}
	if _, ok := s.World.Shapes[1].(*geometry.Sphere).Material.(*material.Metal); !ok {
		t.Error("Expected the center sphere to be metal")
	}

	if s.SamplingConfig.Width != 100 || s.SamplingConfig.Height != 50 {
		t.Errorf("Expected 100x50 from the aspect ratio, got %dx%d", s.SamplingConfig.Width, s.SamplingConfig.Height)
	}
	if s.SamplingConfig.SamplesPerPixel != 16 || s.SamplingConfig.MaxDepth != 8 {
		t.Errorf("Unexpected sampling %+v", s.SamplingConfig)
	}
	if s.CameraConfig.FocusDistance != 3 {
		t.Errorf("Expected focus on the look-at point (3), got %g", s.CameraConfig.FocusDistance)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"incompatible version", strings.Replace(testSceneJSON, `"1.0.0"`, `"0.9.0"`, 1), loaders.ErrUnsupportedVersion},
		{"unknown material", strings.Replace(testSceneJSON, `"material": "mirror"`, `"material": "gold"`, 1), loaders.ErrUnknownMaterial},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeScene(t, tt.content))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSaveLoad_PreservesScene(t *testing.T) {
	original := NewRandomScene(core.NewSeededSampler(3))
	path := filepath.Join(t.TempDir(), "random.json")

	if err := Save(path, original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.World.Len() != original.World.Len() {
		t.Fatalf("Expected %d spheres, got %d", original.World.Len(), loaded.World.Len())
	}
	for i := range original.World.Shapes {
		want := original.World.Shapes[i].(*geometry.Sphere)
		got := loaded.World.Shapes[i].(*geometry.Sphere)
		if want.Center != got.Center || want.Radius != got.Radius {
			t.Fatalf("Sphere %d differs: %+v vs %+v", i, want, got)
		}
	}
	if loaded.CameraConfig != original.CameraConfig {
		t.Errorf("Camera differs: %+v vs %+v", loaded.CameraConfig, original.CameraConfig)
	}
	if loaded.SamplingConfig != original.SamplingConfig {
		t.Errorf("Sampling differs: %+v vs %+v", loaded.SamplingConfig, original.SamplingConfig)
	}
}

func TestToSceneFile_SharedMaterialsWrittenOnce(t *testing.T) {
	glass := material.NewDielectric(1.5)
	s := NewDefaultScene()
	s.World = geometry.NewShapeList(
		geometry.NewSphere(core.NewVec3(0, 0, 0), 1, glass),
		geometry.NewSphere(core.NewVec3(2, 0, 0), 1, glass),
		geometry.NewSphere(core.NewVec3(4, 0, 0), 1, material.NewDielectric(1.5)),
	)

	sf, err := ToSceneFile(s)
	if err != nil {
		t.Fatalf("ToSceneFile failed: %v", err)
	}
	if len(sf.Materials) != 2 {
		t.Errorf("Expected 2 materials, got %v", sf.Materials)
	}
	if sf.Spheres[0].Material != sf.Spheres[1].Material || sf.Spheres[0].Material == sf.Spheres[2].Material {
		t.Errorf("Unexpected material names %+v", sf.Spheres)
	}
}
