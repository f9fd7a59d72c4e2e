package tools

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curielabs/curie/pkg/providers"
)

type stubProvider struct {
	response *providers.LLMResponse
	err      error

	gotMessages []providers.Message
	gotOptions  map[string]any
}

func (s *stubProvider) Chat(
	ctx context.Context,
	messages []providers.Message,
	tools []providers.ToolDefinition,
	model string,
	options map[string]any,
) (*providers.LLMResponse, error) {
	s.gotMessages = messages
	s.gotOptions = options
	if s.err != nil {
		return nil, s.err
	}
	return s.response, nil
}

func (s *stubProvider) GetDefaultModel() string { return "stub-model" }

func TestFilesPlanExecute(t *testing.T) {
	provider := &stubProvider{
		response: &providers.LLMResponse{
			Content:      `{"files": [{"file_path": "src/app/page.tsx", "description": "main page"}]}`,
			FinishReason: "stop",
		},
	}

	tool := NewFilesPlanTool(provider, "gemini-2.0-flash", "you are a planner")
	result, err := tool.Execute(context.Background(), map[string]any{"problemStatement": "todo app"})
	require.NoError(t, err)

	files, ok := result.([]FileDescription)
	require.True(t, ok)
	require.Len(t, files, 1)
	assert.Equal(t, "src/app/page.tsx", files[0].FilePath)
	assert.Equal(t, "main page", files[0].Description)

	require.Len(t, provider.gotMessages, 2)
	assert.Equal(t, "system", provider.gotMessages[0].Role)
	assert.Equal(t, "you are a planner", provider.gotMessages[0].Content)
	assert.Contains(t, provider.gotMessages[1].Content, "todo app")
	assert.Equal(t, "json_object", provider.gotOptions["response_format"])
}

func TestFilesPlanExecuteFencedResponse(t *testing.T) {
	provider := &stubProvider{
		response: &providers.LLMResponse{
			Content: "```json\n{\"files\": [{\"file_path\": \"app.js\", \"description\": \"entry\"}]}\n```",
		},
	}

	tool := NewFilesPlanTool(provider, "", "prompt")
	result, err := tool.Execute(context.Background(), map[string]any{"problemStatement": "todo app"})
	require.NoError(t, err)

	files := result.([]FileDescription)
	require.Len(t, files, 1)
	assert.Equal(t, "app.js", files[0].FilePath)
}

func TestFilesPlanExecuteBareArray(t *testing.T) {
	provider := &stubProvider{
		response: &providers.LLMResponse{
			Content: `[{"file_path": "app.js", "description": "entry"}]`,
		},
	}

	tool := NewFilesPlanTool(provider, "", "prompt")
	result, err := tool.Execute(context.Background(), map[string]any{"problemStatement": "todo app"})
	require.NoError(t, err)
	require.Len(t, result.([]FileDescription), 1)
}

func TestFilesPlanExecuteErrors(t *testing.T) {
	tool := NewFilesPlanTool(&stubProvider{err: fmt.Errorf("provider down")}, "", "prompt")
	_, err := tool.Execute(context.Background(), map[string]any{"problemStatement": "todo app"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider down")

	tool = NewFilesPlanTool(&stubProvider{response: &providers.LLMResponse{Content: "not json"}}, "", "prompt")
	_, err = tool.Execute(context.Background(), map[string]any{"problemStatement": "todo app"})
	require.Error(t, err)

	tool = NewFilesPlanTool(&stubProvider{}, "", "prompt")
	_, err = tool.Execute(context.Background(), map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing problem statement")
}

func TestFilesPlanDefaultModel(t *testing.T) {
	provider := &stubProvider{response: &providers.LLMResponse{Content: `{"files": []}`}}
	tool := NewFilesPlanTool(provider, "", "prompt")
	assert.Equal(t, "stub-model", tool.model)
}
