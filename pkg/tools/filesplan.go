package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/curielabs/curie/pkg/providers"
)

// FileDescription is one planned file in a generated project.
type FileDescription struct {
	FilePath    string `json:"file_path"`
	Description string `json:"description"`
}

// FilesPlanTool turns a problem statement into a list of files to create,
// each with a description of what belongs in it. It runs a one-shot
// completion against its own provider rather than the owning agent's.
type FilesPlanTool struct {
	provider     providers.LLMProvider
	model        string
	systemPrompt string
}

func NewFilesPlanTool(provider providers.LLMProvider, model, systemPrompt string) *FilesPlanTool {
	if model == "" {
		model = provider.GetDefaultModel()
	}
	return &FilesPlanTool{
		provider:     provider,
		model:        model,
		systemPrompt: systemPrompt,
	}
}

func (t *FilesPlanTool) Name() string {
	return "get_files_with_description"
}

func (t *FilesPlanTool) Description() string {
	return "Get a list of files with their descriptions based on the problem statement"
}

func (t *FilesPlanTool) Params() []Param {
	return []Param{
		{
			Name:        "problemStatement",
			Type:        "string",
			Description: "The micro application building plan to break into files",
			Required:    true,
		},
	}
}

func (t *FilesPlanTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	problemStatement := FirstStringArg(t.Params(), args)
	if problemStatement == "" {
		return nil, fmt.Errorf("missing problem statement")
	}

	messages := []providers.Message{
		{Role: "system", Content: t.systemPrompt},
		{
			Role: "user",
			Content: fmt.Sprintf(
				"Create a list of files and their descriptions for micro application building plan: '%s'.\nFormat the response as a JSON object with the following keys:",
				problemStatement,
			),
		},
	}

	resp, err := t.provider.Chat(ctx, messages, nil, t.model, map[string]any{
		"response_format": "json_object",
	})
	if err != nil {
		return nil, fmt.Errorf("files plan completion: %w", err)
	}

	files, err := parseFilesPlan(resp.Content)
	if err != nil {
		return nil, err
	}
	return files, nil
}

// parseFilesPlan accepts either {"files": [...]} or a bare array, with or
// without markdown code fences around the JSON.
func parseFilesPlan(content string) ([]FileDescription, error) {
	cleaned := stripCodeFences(content)

	var wrapped struct {
		Files []FileDescription `json:"files"`
	}
	if err := json.Unmarshal([]byte(cleaned), &wrapped); err == nil && wrapped.Files != nil {
		return wrapped.Files, nil
	}

	var bare []FileDescription
	if err := json.Unmarshal([]byte(cleaned), &bare); err == nil {
		return bare, nil
	}

	return nil, fmt.Errorf("files plan response is not valid JSON: %q", content)
}

func stripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
