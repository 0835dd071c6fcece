// Package tools dispatches named operations to the multiplexed tool
// entry points and owns the shared environment they execute against.
package tools

import (
	"errors"
	"fmt"
	"sync"

	"github.com/slighter12/godot-agent-tools/logger"
	"github.com/slighter12/godot-agent-tools/tools/types"
)

var ErrToolNotFound = errors.New("tool not found")

func IsToolNotFound(err error) bool {
	return errors.Is(err, ErrToolNotFound)
}

// Manager implements ToolRegistry.
type Manager struct {
	tools map[string]types.Tool
	mutex sync.RWMutex
}

// NewManager creates an empty tool registry.
func NewManager() *Manager {
	return &Manager{
		tools: make(map[string]types.Tool),
	}
}

// RegisterTool registers an entry point under its name.
func (m *Manager) RegisterTool(tool types.Tool) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if tool == nil {
		return errors.New("tool cannot be nil")
	}

	name := tool.Name()
	if name == "" {
		return errors.New("tool name cannot be empty")
	}

	m.tools[name] = tool
	logger.Debug("Tool registered", "name", name)
	return nil
}

// GetTool retrieves a tool by name.
func (m *Manager) GetTool(name string) (types.Tool, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	tool, exists := m.tools[name]
	return tool, exists
}

// ListTools returns all registered tools.
func (m *Manager) ListTools() []types.Tool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	tools := make([]types.Tool, 0, len(m.tools))
	for _, tool := range m.tools {
		tools = append(tools, tool)
	}
	return tools
}

// Dispatch routes one (tool, operation, args) call. Unknown tools and
// unknown operations come back as failure bundles, never as panics or
// transport-level errors.
func (m *Manager) Dispatch(name, operation string, args types.ArgumentBundle) ResultBundle {
	tool, exists := m.GetTool(name)
	if !exists {
		return types.FailureCode(types.CodeUnknownOperation, fmt.Sprintf("Unknown tool: %s", name))
	}
	if args == nil {
		args = types.ArgumentBundle{}
	}

	logger.Debug("Executing tool", "name", name, "operation", operation)
	result := tool.Execute(operation, args)
	if result == nil {
		return types.Failure(fmt.Sprintf("Tool %s returned no result", name))
	}
	if !result.OK() {
		logger.Debug("Tool operation failed",
			"name", name, "operation", operation, "message", result.Message())
	}
	return result
}

// ResultBundle is re-exported for transport packages.
type ResultBundle = types.ResultBundle

// Inventory describes the registered entry points for discovery surfaces.
func (m *Manager) Inventory() []map[string]any {
	tools := m.ListTools()
	out := make([]map[string]any, 0, len(tools))
	for _, tool := range tools {
		out = append(out, map[string]any{
			"name":        tool.Name(),
			"description": tool.Description(),
			"operations":  tool.Operations(),
		})
	}
	return out
}
