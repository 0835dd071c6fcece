package scene

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Resource is a loaded project asset reference. Tools assign resources to
// node properties; the payload itself stays on disk.
type Resource struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
}

// ResourceLoader resolves res:// path strings to typed assets.
type ResourceLoader interface {
	Load(path string) (*Resource, error)
}

// FileResourceLoader loads resources from the project directory.
type FileResourceLoader struct {
	ProjectRoot string
}

func NewFileResourceLoader(projectRoot string) *FileResourceLoader {
	return &FileResourceLoader{ProjectRoot: projectRoot}
}

func (l *FileResourceLoader) Load(path string) (*Resource, error) {
	rel := strings.TrimPrefix(strings.TrimSpace(path), "res://")
	if rel == "" {
		return nil, fmt.Errorf("resource path is empty")
	}
	full := filepath.Join(l.ProjectRoot, filepath.FromSlash(rel))
	info, err := os.Stat(full)
	if err != nil {
		return nil, fmt.Errorf("resource not found: %s", path)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("resource path is a directory: %s", path)
	}
	return &Resource{
		Path: "res://" + filepath.ToSlash(rel),
		Kind: resourceKind(rel),
	}, nil
}

func resourceKind(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".webp", ".svg":
		return "texture"
	case ".gd":
		return "script"
	case ".tscn", ".scn":
		return "scene"
	case ".tres", ".res":
		return "resource"
	default:
		return "file"
	}
}

// LooksLikeResourcePath reports whether a raw string should be routed
// through the resource loader before property assignment.
func LooksLikeResourcePath(raw string) bool {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "res://") {
		return true
	}
	switch strings.ToLower(filepath.Ext(s)) {
	case ".tres", ".res", ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}
