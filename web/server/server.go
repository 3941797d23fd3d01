package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"

	"github.com/df07/go-sphere-pathtracer/pkg/core"
	"github.com/df07/go-sphere-pathtracer/pkg/ppm"
	"github.com/df07/go-sphere-pathtracer/pkg/renderer"
	"github.com/df07/go-sphere-pathtracer/pkg/scene"
)

// Server handles web requests for the path tracer
type Server struct {
	port      int
	scenesDir string
	mux       *http.ServeMux
}

// NewServer creates a new web server serving built-in scenes and the JSON scenes in scenesDir
func NewServer(port int, scenesDir string) *Server {
	s := &Server{port: port, scenesDir: scenesDir, mux: http.NewServeMux()}

	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/scenes", s.handleScenes)
	s.mux.HandleFunc("/api/render", s.handleRender)
	s.mux.HandleFunc("/api/render/ws", s.handleRenderWS)
	s.mux.HandleFunc("/api/inspect", s.handleInspect)
	return s
}

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene   string `json:"scene"`   // Built-in scene ID or scene file name
	Width   int    `json:"width"`   // Image width; height follows the camera aspect ratio
	Samples int    `json:"samples"` // Samples per pixel
	Depth   int    `json:"depth"`   // Maximum bounce depth
	Workers int    `json:"workers"` // Render worker pool size
	Seed    int64  `json:"seed"`    // Seed for scene layout and sampling
}

// Handler returns the request router, for use with httptest or a custom http.Server
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("Starting web server on http://localhost%s", addr)
	return http.ListenAndServe(addr, s.mux)
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists the scenes a render request may name
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	scenes, err := scene.ListAllScenes(s.scenesDir, serverLogger{})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	// Clients refer to scene files by base name only
	for i := range scenes {
		if scenes[i].FilePath != "" {
			scenes[i].ID = filepath.Base(scenes[i].FilePath)
			scenes[i].FilePath = ""
		}
	}
	writeJSON(w, http.StatusOK, scenes)
}

// parseRenderRequest parses request parameters
func parseRenderRequest(values url.Values) (*RenderRequest, error) {
	req := &RenderRequest{Scene: values.Get("scene")}
	if req.Scene == "" {
		req.Scene = scene.DefaultSceneID
	}

	var err error
	if req.Width, err = parseIntParam(values, "width", 400, 2, 2000); err != nil {
		return nil, err
	}
	if req.Samples, err = parseIntParam(values, "samples", 10, 1, 10000); err != nil {
		return nil, err
	}
	if req.Depth, err = parseIntParam(values, "depth", 50, 1, 500); err != nil {
		return nil, err
	}
	if req.Workers, err = parseIntParam(values, "workers", renderer.DefaultWorkers, 1, 256); err != nil {
		return nil, err
	}
	seed, err := parseIntParam(values, "seed", 1, 0, 1<<31-1)
	if err != nil {
		return nil, err
	}
	req.Seed = int64(seed)

	return req, nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// createScene builds the requested scene. Scene files are only read from the scenes directory.
func (s *Server) createScene(req *RenderRequest) (*scene.Scene, error) {
	id := req.Scene
	if id != scene.RandomSceneID && id != scene.DefaultSceneID {
		id = filepath.Join(s.scenesDir, filepath.Base(id))
	}

	sceneObj, err := scene.Open(id, core.NewSeededSampler(req.Seed))
	if err != nil {
		return nil, fmt.Errorf("unknown scene %q: %w", req.Scene, err)
	}
	sceneObj.SetWidth(req.Width)
	sceneObj.SamplingConfig.SamplesPerPixel = req.Samples
	sceneObj.SamplingConfig.MaxDepth = req.Depth
	return sceneObj, nil
}

// resultToImage converts the summed pixels of a render into an 8-bit image
func resultToImage(result *renderer.RenderResult) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, result.Width, result.Height))
	for i, sum := range result.Pixels {
		r, g, b := ppm.ToRGB(sum, result.SamplesPerPixel)
		img.SetRGBA(i%result.Width, i/result.Width, color.RGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 255})
	}
	return img
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error writing response: %v", err)
	}
}

// serverLogger sends scene discovery warnings to the server log
type serverLogger struct{}

func (serverLogger) Printf(format string, args ...interface{}) {
	log.Printf(format, args...)
}
