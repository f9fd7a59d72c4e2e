// Package tools defines the callable-tool abstraction exposed to LLM
// providers. Every tool declares its parameter schema up front; the schema
// sent to the provider is synthesized from those declarations, never from
// runtime inspection of the implementation.
package tools

import (
	"context"

	"github.com/curielabs/curie/pkg/providers"
)

// Param is one declared tool parameter. Declaration order is significant:
// it fixes both the property order in the synthesized schema and the
// positional order used when a tool consumes arguments by position.
type Param struct {
	Name        string
	Type        string
	Description string
	Required    bool
}

type Tool interface {
	Name() string
	Description() string
	Params() []Param
	Execute(ctx context.Context, args map[string]any) (any, error)
}

// ToolToSchema synthesizes the JSON-schema tool definition a provider
// expects from the tool's declared parameters.
func ToolToSchema(tool Tool) map[string]any {
	properties := make(map[string]any)
	required := make([]string, 0)

	for _, p := range tool.Params() {
		paramType := p.Type
		if paramType == "" {
			paramType = "string"
		}
		prop := map[string]any{"type": paramType}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}

	return map[string]any{
		"type": "function",
		"function": map[string]any{
			"name":        tool.Name(),
			"description": tool.Description(),
			"parameters": map[string]any{
				"type":       "object",
				"properties": properties,
				"required":   required,
			},
		},
	}
}

// ToProviderDef converts a tool's synthesized schema into the wire-level
// definition shape.
func ToProviderDef(tool Tool) providers.ToolDefinition {
	schema := ToolToSchema(tool)
	fn, _ := schema["function"].(map[string]any)
	name, _ := fn["name"].(string)
	desc, _ := fn["description"].(string)
	params, _ := fn["parameters"].(map[string]any)
	return providers.ToolDefinition{
		Type: "function",
		Function: providers.ToolFunctionDefinition{
			Name:        name,
			Description: desc,
			Parameters:  params,
		},
	}
}

// OrderedArgs extracts argument values in declared-parameter order. Values
// for declared names come first; any extra keys the model invented are
// ignored. Missing values yield nil so positions stay aligned with the
// declaration.
func OrderedArgs(declared []Param, args map[string]any) []any {
	out := make([]any, 0, len(declared))
	for _, p := range declared {
		out = append(out, args[p.Name])
	}
	return out
}

// FirstStringArg returns the first declared argument as a string. Tools
// with a single string parameter use this so a model that renames the key
// but still sends one value keeps working.
func FirstStringArg(declared []Param, args map[string]any) string {
	ordered := OrderedArgs(declared, args)
	if len(ordered) > 0 {
		if s, ok := ordered[0].(string); ok && s != "" {
			return s
		}
	}
	// Declared name absent: fall back to the sole value if there is
	// exactly one, mirroring positional call semantics.
	if len(args) == 1 {
		for _, v := range args {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}
