package types

import (
	"os"
	"path/filepath"
	"strings"
)

// Tool is one multiplexed entry point: a named operation family sharing
// an argument-bundle contract.
type Tool interface {
	Name() string
	Description() string
	Operations() []string
	Execute(operation string, args ArgumentBundle) ResultBundle
}

// ToolRegistry is the dispatcher contract the transports are served by.
type ToolRegistry interface {
	RegisterTool(tool Tool) error
	GetTool(name string) (Tool, bool)
	ListTools() []Tool
	Dispatch(name, operation string, args ArgumentBundle) ResultBundle
}

// ResolveProjectRootFromEnvOrCWD resolves the Godot project root by checking
// GODOT_PROJECT_ROOT first, then searching upward from current directory for
// project.godot, and finally falling back to current directory.
func ResolveProjectRootFromEnvOrCWD() string {
	envRoot := strings.TrimSpace(os.Getenv("GODOT_PROJECT_ROOT"))
	if envRoot != "" {
		if stat, err := os.Stat(envRoot); err == nil && stat.IsDir() {
			return envRoot
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return findProjectRootFromDir(wd)
}

func findProjectRootFromDir(startDir string) string {
	dir := startDir
	for {
		projectFile := filepath.Join(dir, "project.godot")
		if stat, err := os.Stat(projectFile); err == nil && !stat.IsDir() {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return startDir
}
