package server

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/df07/go-sphere-pathtracer/pkg/core"
	"github.com/df07/go-sphere-pathtracer/pkg/geometry"
	"github.com/df07/go-sphere-pathtracer/pkg/material"
	"github.com/df07/go-sphere-pathtracer/pkg/scene"
)

// InspectResponse represents the JSON response for object inspection
type InspectResponse struct {
	Hit          bool                   `json:"hit"`
	MaterialType string                 `json:"materialType,omitempty"`
	Point        [3]float64             `json:"point"`
	Normal       [3]float64             `json:"normal"`
	Distance     float64                `json:"distance"`
	FrontFace    bool                   `json:"frontFace"`
	Sphere       *SphereInfo            `json:"sphere,omitempty"`
	Properties   map[string]interface{} `json:"properties,omitempty"`
}

// SphereInfo describes the sphere an inspection ray hit
type SphereInfo struct {
	Index  int        `json:"index"`
	Center [3]float64 `json:"center"`
	Radius float64    `json:"radius"`
}

// centerSampler always returns the middle of [0,1): the lens center and mid-shutter
type centerSampler struct{}

func (centerSampler) Get1D() float64 { return 0.5 }

// extractMaterialInfo extracts detailed material information with type assertions
func extractMaterialInfo(mat material.Material) (string, map[string]interface{}) {
	properties := make(map[string]interface{})

	switch m := mat.(type) {
	case *material.Lambertian:
		properties["albedo"] = [3]float64{m.Albedo.X, m.Albedo.Y, m.Albedo.Z}
		properties["color"] = hexColor(m.Albedo)
		return "lambertian", properties

	case *material.Metal:
		properties["albedo"] = [3]float64{m.Albedo.X, m.Albedo.Y, m.Albedo.Z}
		properties["color"] = hexColor(m.Albedo)
		properties["fuzzness"] = m.Fuzzness
		return "metal", properties

	case *material.Dielectric:
		properties["refractiveIndex"] = m.RefractiveIndex
		properties["color"] = "#ffffff" // Clear glass
		return "dielectric", properties

	default:
		return "unknown", properties
	}
}

func hexColor(c core.Vec3) string {
	channel := func(v float64) int { return int(255 * math.Max(0, math.Min(1, v))) }
	return fmt.Sprintf("#%02x%02x%02x", channel(c.X), channel(c.Y), channel(c.Z))
}

// inspectPixel casts the center ray of an image pixel (row 0 at the top) into the scene.
// The returned index is the position of the hit sphere in the world, or -1.
func inspectPixel(sceneObj *scene.Scene, pixelX, pixelY int) (*material.HitRecord, int) {
	width := sceneObj.SamplingConfig.Width
	height := sceneObj.SamplingConfig.Height

	u := (float64(pixelX) + 0.5) / float64(width-1)
	v := (float64(height-1-pixelY) + 0.5) / float64(height-1)
	ray := sceneObj.NewCamera().GetRay(u, v, centerSampler{})

	hit, isHit := sceneObj.World.Hit(ray, 0.001, math.Inf(1))
	if !isHit {
		return nil, -1
	}

	// The shape list does not say which sphere won; find the one at the same distance
	for i, shape := range sceneObj.World.Shapes {
		if shapeHit, ok := shape.Hit(ray, 0.001, hit.T); ok && shapeHit.T == hit.T {
			return hit, i
		}
	}
	return hit, -1
}

// handleInspect reports what the center ray of a pixel hits
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	req, err := parseRenderRequest(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid scene parameters: " + err.Error()})
		return
	}

	pixelX, err := strconv.Atoi(r.URL.Query().Get("x"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid x coordinate"})
		return
	}
	pixelY, err := strconv.Atoi(r.URL.Query().Get("y"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid y coordinate"})
		return
	}

	sceneObj, err := s.createScene(req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if pixelX < 0 || pixelX >= sceneObj.SamplingConfig.Width || pixelY < 0 || pixelY >= sceneObj.SamplingConfig.Height {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Pixel coordinates out of bounds"})
		return
	}

	hit, index := inspectPixel(sceneObj, pixelX, pixelY)
	if hit == nil {
		writeJSON(w, http.StatusOK, InspectResponse{Hit: false})
		return
	}

	materialType, properties := extractMaterialInfo(hit.Material)
	response := InspectResponse{
		Hit:          true,
		MaterialType: materialType,
		Point:        [3]float64{hit.Point.X, hit.Point.Y, hit.Point.Z},
		Normal:       [3]float64{hit.Normal.X, hit.Normal.Y, hit.Normal.Z},
		Distance:     hit.T,
		FrontFace:    hit.FrontFace,
		Properties:   properties,
	}
	if index >= 0 {
		if sphere, ok := sceneObj.World.Shapes[index].(*geometry.Sphere); ok {
			response.Sphere = &SphereInfo{
				Index:  index,
				Center: [3]float64{sphere.Center.X, sphere.Center.Y, sphere.Center.Z},
				Radius: sphere.Radius,
			}
		}
	}

	writeJSON(w, http.StatusOK, response)
}
