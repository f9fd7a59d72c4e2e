package agent

import (
	"context"
	"sync"

	"github.com/curielabs/curie/pkg/providers"
)

// mockProvider replays a scripted sequence of responses. The last entry
// repeats once the script is exhausted.
type mockProvider struct {
	mu        sync.Mutex
	responses []*providers.LLMResponse
	err       error

	calls       int
	gotMessages [][]providers.Message
	gotTools    [][]providers.ToolDefinition
	gotModel    string
	gotOptions  []map[string]any
}

func (m *mockProvider) Chat(
	ctx context.Context,
	messages []providers.Message,
	tools []providers.ToolDefinition,
	model string,
	options map[string]any,
) (*providers.LLMResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	m.gotMessages = append(m.gotMessages, messages)
	m.gotTools = append(m.gotTools, tools)
	m.gotModel = model
	m.gotOptions = append(m.gotOptions, options)

	if m.err != nil {
		return nil, m.err
	}

	idx := m.calls - 1
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	return m.responses[idx], nil
}

func (m *mockProvider) GetDefaultModel() string { return "mock-model" }

func (m *mockProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func textResponse(content string) *providers.LLMResponse {
	return &providers.LLMResponse{Content: content, FinishReason: "stop"}
}

func toolCallResponse(name, rawArgs string) *providers.LLMResponse {
	return &providers.LLMResponse{
		FinishReason: "tool_calls",
		ToolCalls: []providers.ToolCall{
			{
				ID:   "call_1",
				Type: "function",
				Function: &providers.FunctionCall{
					Name:      name,
					Arguments: rawArgs,
				},
			},
		},
	}
}
