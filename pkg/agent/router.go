package agent

import (
	"context"
	"encoding/json"
	"regexp"

	"github.com/curielabs/curie/pkg/chat"
	"github.com/curielabs/curie/pkg/logger"
	"github.com/curielabs/curie/pkg/providers"
)

// RoutingDecision is the router's single-field classification output.
type RoutingDecision struct {
	Category string `json:"category"`
}

var routingCategories = map[string]bool{
	chat.ManagerAgentName: true,
	chat.EditorAgentName:  true,
	chat.CoderAgentName:   true,
}

var markdownFencePattern = regexp.MustCompile("```json\n?|\n?```")

// Router classifies free-form user intent into one of the specialized
// agent categories. It fails closed: any provider, parse or validation
// failure yields the manager category, never an error.
type Router struct {
	provider     providers.LLMProvider
	model        string
	instructions string
	temperature  float64
}

func NewRouter(provider providers.LLMProvider, model, instructions string, temperature float64) *Router {
	if model == "" {
		model = provider.GetDefaultModel()
	}
	return &Router{
		provider:     provider,
		model:        model,
		instructions: instructions,
		temperature:  temperature,
	}
}

// RouteQuery runs one stateless classification turn. The returned
// category is always one of the permitted destination agents.
func (r *Router) RouteQuery(ctx context.Context, query string) RoutingDecision {
	fallback := RoutingDecision{Category: chat.ManagerAgentName}

	agent := NewConversationAgent(AgentOptions{
		Name:         chat.RouterAgentName,
		Model:        r.model,
		Instructions: r.instructions,
		Temperature:  r.temperature,
		Provider:     r.provider,
	})

	thread, err := agent.Run(ctx, query, ResponseFormatJSON, DefaultMaxToolCalls)
	if err != nil {
		logger.WarnCF("router", "Classification call failed, defaulting to manager",
			map[string]any{"error": err.Error()})
		return fallback
	}

	content, ok := lastAssistantContent(thread)
	if !ok {
		logger.WarnC("router", "No assistant reply in classification thread, defaulting to manager")
		return fallback
	}

	cleaned := markdownFencePattern.ReplaceAllString(content, "")

	var decision RoutingDecision
	if err := json.Unmarshal([]byte(cleaned), &decision); err != nil {
		logger.WarnCF("router", "Classification reply is not valid JSON, defaulting to manager",
			map[string]any{"content": content})
		return fallback
	}

	if !routingCategories[decision.Category] {
		logger.WarnCF("router", "Classification category not recognized, defaulting to manager",
			map[string]any{"category": decision.Category})
		return fallback
	}

	return decision
}

func lastAssistantContent(thread []chat.Message) (string, bool) {
	for i := len(thread) - 1; i >= 0; i-- {
		if thread[i].Role == "assistant" {
			if thread[i].Content == "" {
				return "", false
			}
			return thread[i].Content, true
		}
	}
	return "", false
}
