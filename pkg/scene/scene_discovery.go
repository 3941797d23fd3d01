package scene

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/df07/go-sphere-pathtracer/pkg/core"
	"github.com/df07/go-sphere-pathtracer/pkg/loaders"
)

// Built-in scene identifiers
const (
	RandomSceneID  = "random"
	DefaultSceneID = "default"
)

// SceneInfo represents a discovered scene with its metadata
type SceneInfo struct {
	ID          string `json:"id"`          // Name accepted by Open
	Name        string `json:"name"`        // Display name
	Description string `json:"description"` // Optional description
	Type        string `json:"type"`        // "builtin" or "json"
	FilePath    string `json:"filePath"`    // Path to the scene file (json type only)
}

var builtInScenes = []SceneInfo{
	{
		ID:          RandomSceneID,
		Name:        "Random Spheres",
		Description: "Grid of random small spheres around three large spheres",
		Type:        "builtin",
	},
	{
		ID:          DefaultSceneID,
		Name:        "Default Scene",
		Description: "Diffuse, glass, and metal spheres on a ground sphere",
		Type:        "builtin",
	},
}

// Open returns a built-in scene by ID or loads a JSON scene file by path.
// The sampler drives the layout of the random scene.
func Open(id string, sampler core.Sampler) (*Scene, error) {
	switch id {
	case RandomSceneID:
		return NewRandomScene(sampler), nil
	case DefaultSceneID:
		return NewDefaultScene(), nil
	default:
		return Load(id)
	}
}

// ListSceneFiles scans dir for JSON scene files. Files that fail to load are logged and skipped.
func ListSceneFiles(dir string, logger core.Logger) ([]SceneInfo, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan scenes directory: %w", err)
	}

	scenes := []SceneInfo{}
	for _, filePath := range files {
		sf, err := loaders.LoadSceneFile(filePath)
		if err != nil {
			logger.Printf("Warning: skipping %s: %v\n", filePath, err)
			continue
		}
		scenes = append(scenes, sceneFileInfo(filePath, sf))
	}

	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].Name < scenes[j].Name
	})
	return scenes, nil
}

// ListAllScenes returns the built-in scenes followed by the JSON scenes found in dir
func ListAllScenes(dir string, logger core.Logger) ([]SceneInfo, error) {
	files, err := ListSceneFiles(dir, logger)
	if err != nil {
		return nil, err
	}
	all := append([]SceneInfo{}, builtInScenes...)
	return append(all, files...), nil
}

func sceneFileInfo(filePath string, sf *loaders.SceneFile) SceneInfo {
	nameWithoutExt := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	info := SceneInfo{
		ID:          filePath,
		Name:        sf.Name,
		Description: sf.Description,
		Type:        "json",
		FilePath:    filePath,
	}
	if info.Name == "" {
		info.Name = titleCase(nameWithoutExt)
	}
	return info
}

// titleCase converts a filename-style string to title case
// e.g., "three-spheres" -> "Three Spheres"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}
	return strings.Join(words, " ")
}
