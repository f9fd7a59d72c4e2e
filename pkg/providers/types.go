// Package providers abstracts LLM completion endpoints behind a single
// Chat contract. Conversation state never lives here; callers pass the
// full message list on every request.
package providers

import "github.com/curielabs/curie/pkg/providers/protocoltypes"

type (
	ToolCall               = protocoltypes.ToolCall
	FunctionCall           = protocoltypes.FunctionCall
	LLMResponse            = protocoltypes.LLMResponse
	UsageInfo              = protocoltypes.UsageInfo
	Message                = protocoltypes.Message
	ToolDefinition         = protocoltypes.ToolDefinition
	ToolFunctionDefinition = protocoltypes.ToolFunctionDefinition
	LLMProvider            = protocoltypes.LLMProvider
)

// NormalizeToolCall fills the redundant fields of a tool call so callers
// can rely on both the flat Name/Arguments form and the nested Function
// form regardless of which one the provider populated.
func NormalizeToolCall(tc ToolCall) ToolCall {
	if tc.Name == "" && tc.Function != nil {
		tc.Name = tc.Function.Name
	}
	if tc.Function == nil {
		tc.Function = &FunctionCall{Name: tc.Name}
	}
	if tc.Type == "" {
		tc.Type = "function"
	}
	return tc
}
