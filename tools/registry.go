package tools

import (
	"fmt"

	"fitagent/agent"
)

// ToolProvider is what the outer dialog layer consumes.
type ToolProvider interface {
	GetTools() []Tool
	GetTool(name string) (Tool, error)
}

// Registry maps tool names to implementations
type Registry map[string]Tool

// NewRegistry creates the canonical tool set over a facade: exactly one
// tool per intent, replacing the pile of near-duplicate single/bulk
// variants with a single parameterized operation each.
func NewRegistry(facade *agent.Facade) (*Registry, error) {
	if facade == nil {
		return nil, fmt.Errorf("facade is required")
	}

	tools := map[string]Tool{}
	for _, t := range []Tool{
		NewSessionStart(facade),
		NewSessionComplete(facade),
		NewSessionDelete(facade),
		NewSessionStatusUpdate(facade),
		NewSessionLogGet(facade),
		NewExerciseAdd(facade),
		NewSetPlan(facade),
		NewSetRecord(facade),
		NewMealLog(facade),
		NewFoodAdd(facade),
		NewFoodRemove(facade),
		NewServingUpdate(facade),
		NewMealDelete(facade),
	} {
		tools[t.Name()] = t
	}

	registry := Registry(tools)
	return &registry, nil
}

// GetTools returns all tools in the registry as a slice
func (r *Registry) GetTools() []Tool {
	tools := make([]Tool, 0, len(*r))
	for _, tool := range *r {
		tools = append(tools, tool)
	}
	return tools
}

// GetTool retrieves a tool by name from the registry
func (r Registry) GetTool(name string) (Tool, error) {
	tool, exists := r[name]
	if !exists {
		return nil, fmt.Errorf("tool %q not found in registry", name)
	}
	return tool, nil
}
