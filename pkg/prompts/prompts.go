// Package prompts holds the agent instruction templates and the static
// reference material resolved into them. Templates are embedded so the
// binary is self-contained; placeholder resolution happens once at agent
// construction, not per request.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed templates
var templates embed.FS

const (
	baseTemplatePlaceholder = "{base_template}"
	uiComponentsPlaceholder = "{ui_components_list}"
	existingCodePlaceholder = "{existing_code}"
)

func read(name string) (string, error) {
	data, err := templates.ReadFile("templates/" + name)
	if err != nil {
		return "", fmt.Errorf("read prompt template %s: %w", name, err)
	}
	return string(data), nil
}

// baseTemplateJSON returns the project scaffold as compact JSON, the form
// embedded into every prompt that references it.
func baseTemplateJSON() (string, error) {
	raw, err := read("base-template.json")
	if err != nil {
		return "", err
	}

	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return "", fmt.Errorf("base template is not valid JSON: %w", err)
	}
	compact, err := json.Marshal(parsed)
	if err != nil {
		return "", err
	}
	return string(compact), nil
}

// Manager resolves the planner instructions with the scaffold and the UI
// component catalog.
func Manager() (string, error) {
	prompt, err := read("manager-agent.prompt.md")
	if err != nil {
		return "", err
	}
	baseTemplate, err := baseTemplateJSON()
	if err != nil {
		return "", err
	}
	components, err := read("ui_components_list.md")
	if err != nil {
		return "", err
	}

	prompt = strings.Replace(prompt, baseTemplatePlaceholder, baseTemplate, 1)
	prompt = strings.Replace(prompt, uiComponentsPlaceholder, components, 1)
	return prompt, nil
}

func Editor() (string, error) {
	prompt, err := read("editor-agent.prompt.md")
	if err != nil {
		return "", err
	}
	baseTemplate, err := baseTemplateJSON()
	if err != nil {
		return "", err
	}
	return strings.Replace(prompt, baseTemplatePlaceholder, baseTemplate, 1), nil
}

// Coder resolves the code-generation instructions. existingCode is the
// project context accumulated so far; empty for a fresh project.
func Coder(existingCode string) (string, error) {
	prompt, err := read("coder-agent.prompt.md")
	if err != nil {
		return "", err
	}
	baseTemplate, err := baseTemplateJSON()
	if err != nil {
		return "", err
	}
	components, err := read("ui_components_list.md")
	if err != nil {
		return "", err
	}

	prompt = strings.Replace(prompt, baseTemplatePlaceholder, baseTemplate, 1)
	prompt = strings.Replace(prompt, uiComponentsPlaceholder, components, 1)
	prompt = strings.Replace(prompt, existingCodePlaceholder, existingCode, 1)
	return prompt, nil
}

func Router() (string, error) {
	return read("router-agent.prompt.md")
}

// FilesPlan resolves the system prompt for the file-planning tool.
func FilesPlan() (string, error) {
	prompt, err := read("files-plan.prompt.md")
	if err != nil {
		return "", err
	}
	baseTemplate, err := baseTemplateJSON()
	if err != nil {
		return "", err
	}
	return strings.Replace(prompt, baseTemplatePlaceholder, baseTemplate, 1), nil
}
