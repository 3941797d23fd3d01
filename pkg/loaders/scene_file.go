package loaders

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/df07/go-sphere-pathtracer/pkg/core"
)

// FormatVersion is the scene file version written by SaveSceneFile
const FormatVersion = "1.0.0"

// supportedVersions is the range of scene file versions this loader understands
const supportedVersions = "^1"

var (
	// ErrUnsupportedVersion is returned for a missing, malformed, or incompatible file version
	ErrUnsupportedVersion = errors.New("unsupported scene file version")
	// ErrUnknownMaterial is returned for an unknown material type or an undefined material reference
	ErrUnknownMaterial = errors.New("unknown material")
)

// Material type names accepted in scene files
const (
	MaterialLambertian = "lambertian"
	MaterialMetal      = "metal"
	MaterialDielectric = "dielectric"
)

// Vector is a point, direction, or color written as a three element JSON array
type Vector [3]float64

// Vec3 converts the array into a core vector
func (v Vector) Vec3() core.Vec3 {
	return core.NewVec3(v[0], v[1], v[2])
}

// VectorOf converts a core vector into its JSON form
func VectorOf(v core.Vec3) Vector {
	return Vector{v.X, v.Y, v.Z}
}

// SceneFile is the on-disk description of a sphere scene.
// Spheres refer to materials by name so one material can be shared by many spheres.
type SceneFile struct {
	Version     string                  `json:"version"`
	Name        string                  `json:"name,omitempty"`
	Description string                  `json:"description,omitempty"`
	Camera      CameraSpec              `json:"camera"`
	Sampling    *SamplingSpec           `json:"sampling,omitempty"`
	Materials   map[string]MaterialSpec `json:"materials"`
	Spheres     []SphereSpec            `json:"spheres"`
}

// CameraSpec mirrors the renderer camera configuration
type CameraSpec struct {
	Center        Vector  `json:"center"`
	LookAt        Vector  `json:"lookAt"`
	Up            Vector  `json:"up"`
	VFov          float64 `json:"vfov"`
	AspectRatio   float64 `json:"aspectRatio"`
	Aperture      float64 `json:"aperture,omitempty"`
	FocusDistance float64 `json:"focusDistance"`
	ShutterOpen   float64 `json:"shutterOpen,omitempty"`
	ShutterClose  float64 `json:"shutterClose,omitempty"`
}

// SamplingSpec overrides the default sampling settings; zero fields keep the default
type SamplingSpec struct {
	Width           int `json:"width,omitempty"`
	Height          int `json:"height,omitempty"`
	SamplesPerPixel int `json:"samplesPerPixel,omitempty"`
	MaxDepth        int `json:"maxDepth,omitempty"`
}

// MaterialSpec describes one named material.
// Albedo is used by lambertian and metal, Fuzz by metal, RefractiveIndex by dielectric.
type MaterialSpec struct {
	Type            string  `json:"type"`
	Albedo          Vector  `json:"albedo,omitempty"`
	Fuzz            float64 `json:"fuzz,omitempty"`
	RefractiveIndex float64 `json:"refractiveIndex,omitempty"`
}

// SphereSpec places a sphere with a named material
type SphereSpec struct {
	Center   Vector  `json:"center"`
	Radius   float64 `json:"radius"`
	Material string  `json:"material"`
}

// ParseSceneFile decodes and validates a scene file from an io.Reader
func ParseSceneFile(reader io.Reader) (*SceneFile, error) {
	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()

	var sf SceneFile
	if err := decoder.Decode(&sf); err != nil {
		return nil, fmt.Errorf("decode scene: %w", err)
	}
	if err := sf.Validate(); err != nil {
		return nil, err
	}
	return &sf, nil
}

// LoadSceneFile loads and validates a JSON scene file
func LoadSceneFile(filename string) (*SceneFile, error) {
	if err := validateFilePath(filename); err != nil {
		return nil, err
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open scene: %w", err)
	}
	defer file.Close()

	sf, err := ParseSceneFile(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return sf, nil
}

// EncodeSceneFile writes an indented JSON scene file, stamping the current format version if none is set
func EncodeSceneFile(w io.Writer, sf *SceneFile) error {
	if sf.Version == "" {
		sf.Version = FormatVersion
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sf); err != nil {
		return fmt.Errorf("encode scene: %w", err)
	}
	return nil
}

// SaveSceneFile writes a scene file to disk
func SaveSceneFile(filename string, sf *SceneFile) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create scene: %w", err)
	}
	if err := EncodeSceneFile(file, sf); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// Validate checks the version and every reference in the file
func (sf *SceneFile) Validate() error {
	if err := checkVersion(sf.Version); err != nil {
		return err
	}

	// Sorted so the reported error does not depend on map order
	names := make([]string, 0, len(sf.Materials))
	for name := range sf.Materials {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := sf.Materials[name].validate(); err != nil {
			return fmt.Errorf("material %q: %w", name, err)
		}
	}

	for i, sphere := range sf.Spheres {
		if sphere.Radius <= 0 {
			return fmt.Errorf("sphere %d: radius must be positive, got %g", i, sphere.Radius)
		}
		if _, ok := sf.Materials[sphere.Material]; !ok {
			return fmt.Errorf("sphere %d: %w %q", i, ErrUnknownMaterial, sphere.Material)
		}
	}

	if sf.Camera.VFov <= 0 || sf.Camera.VFov >= 180 {
		return fmt.Errorf("camera: vfov must be in (0, 180), got %g", sf.Camera.VFov)
	}
	if sf.Camera.AspectRatio <= 0 {
		return fmt.Errorf("camera: aspect ratio must be positive, got %g", sf.Camera.AspectRatio)
	}
	return nil
}

func (m MaterialSpec) validate() error {
	switch m.Type {
	case MaterialLambertian:
		return m.validateAlbedo()
	case MaterialMetal:
		if m.Fuzz < 0 || math.IsNaN(m.Fuzz) {
			return fmt.Errorf("fuzz must not be negative, got %g", m.Fuzz)
		}
		return m.validateAlbedo()
	case MaterialDielectric:
		if m.RefractiveIndex <= 0 {
			return fmt.Errorf("refractive index must be positive, got %g", m.RefractiveIndex)
		}
		return nil
	default:
		return fmt.Errorf("%w type %q", ErrUnknownMaterial, m.Type)
	}
}

// validateAlbedo requires finite, non-negative reflectance components
func (m MaterialSpec) validateAlbedo() error {
	for _, c := range m.Albedo {
		if !(c >= 0) || math.IsInf(c, 1) {
			return fmt.Errorf("albedo components must be finite and non-negative, got %v", m.Albedo)
		}
	}
	return nil
}

func checkVersion(version string) error {
	if version == "" {
		return fmt.Errorf("%w: missing version", ErrUnsupportedVersion)
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrUnsupportedVersion, version, err)
	}
	constraint, err := semver.NewConstraint(supportedVersions)
	if err != nil {
		return fmt.Errorf("invalid constraint: %w", err)
	}
	if !constraint.Check(v) {
		return fmt.Errorf("%w: %s does not satisfy %s", ErrUnsupportedVersion, version, supportedVersions)
	}
	return nil
}

// validateFilePath rejects paths that cannot name a scene file
func validateFilePath(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}
	if strings.Contains(filename, "\x00") {
		return fmt.Errorf("invalid file path: null bytes not allowed")
	}
	if !strings.EqualFold(filepath.Ext(filename), ".json") {
		return fmt.Errorf("invalid file type: only .json scene files are allowed")
	}
	return nil
}
