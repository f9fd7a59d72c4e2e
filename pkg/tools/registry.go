package tools

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/curielabs/curie/pkg/logger"
	"github.com/curielabs/curie/pkg/providers"
)

type ToolRegistry struct {
	tools map[string]Tool
	mu    sync.RWMutex
}

func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		tools: make(map[string]Tool),
	}
}

func (r *ToolRegistry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name()] = tool
}

func (r *ToolRegistry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// Execute runs a registered tool and returns its raw result. The caller is
// responsible for handling unregistered names via Get; Execute assumes the
// tool exists.
func (r *ToolRegistry) Execute(ctx context.Context, tool Tool, args map[string]any) (any, error) {
	logger.InfoCF("tool", "Tool execution started",
		map[string]any{
			"tool": tool.Name(),
			"args": args,
		})

	start := time.Now()
	result, err := tool.Execute(ctx, args)
	duration := time.Since(start)

	if err != nil {
		logger.ErrorCF("tool", "Tool execution failed",
			map[string]any{
				"tool":        tool.Name(),
				"duration_ms": duration.Milliseconds(),
				"error":       err.Error(),
			})
		return nil, err
	}

	logger.InfoCF("tool", "Tool execution completed",
		map[string]any{
			"tool":        tool.Name(),
			"duration_ms": duration.Milliseconds(),
		})
	return result, nil
}

// sortedToolNames returns tool names in sorted order for deterministic
// iteration. Non-deterministic map order would produce different tool
// definitions on each completion call, invalidating the provider's prefix
// cache even when nothing changed.
func (r *ToolRegistry) sortedToolNames() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ToProviderDefs synthesizes the wire-level tool definitions for every
// registered tool, in name order.
func (r *ToolRegistry) ToProviderDefs() []providers.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sorted := r.sortedToolNames()
	definitions := make([]providers.ToolDefinition, 0, len(sorted))
	for _, name := range sorted {
		definitions = append(definitions, ToProviderDef(r.tools[name]))
	}
	return definitions
}

// List returns all registered tool names in sorted order.
func (r *ToolRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedToolNames()
}

func (r *ToolRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
