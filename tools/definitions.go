package tools

import (
	"github.com/slighter12/godot-agent-tools/logger"
	"github.com/slighter12/godot-agent-tools/tools/debug"
	"github.com/slighter12/godot-agent-tools/tools/file"
	"github.com/slighter12/godot-agent-tools/tools/node"
	scenetool "github.com/slighter12/godot-agent-tools/tools/scene"
	"github.com/slighter12/godot-agent-tools/tools/types"
)

// GetAllTools builds the four multiplexed entry points against one
// shared environment.
func GetAllTools(env *types.Env) []types.Tool {
	return []types.Tool{
		node.New(env),
		file.New(env),
		scenetool.New(env),
		debug.New(env),
	}
}

// RegisterDefaultTools registers every entry point on the manager.
func (m *Manager) RegisterDefaultTools(env *types.Env) {
	allTools := GetAllTools(env)
	for _, tool := range allTools {
		if err := m.RegisterTool(tool); err != nil {
			logger.Error("Failed to register tool", "name", tool.Name(), "error", err)
		}
	}
	logger.Info("Default tools registered", "count", len(allTools))
}
