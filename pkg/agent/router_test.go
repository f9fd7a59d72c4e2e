package agent

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curielabs/curie/pkg/chat"
	"github.com/curielabs/curie/pkg/providers"
)

func newTestRouter(provider providers.LLMProvider) *Router {
	return NewRouter(provider, "test-model", "classify the message", 0)
}

func TestRouteQueryValidCategories(t *testing.T) {
	for _, category := range []string{chat.ManagerAgentName, chat.EditorAgentName, chat.CoderAgentName} {
		provider := &mockProvider{responses: []*providers.LLMResponse{
			textResponse(fmt.Sprintf(`{"category":"%s"}`, category)),
		}}

		decision := newTestRouter(provider).RouteQuery(context.Background(), "build me a CRM")
		assert.Equal(t, category, decision.Category)
	}
}

func TestRouteQueryStripsMarkdownFences(t *testing.T) {
	provider := &mockProvider{responses: []*providers.LLMResponse{
		textResponse("```json\n{\"category\":\"coder_agent\"}\n```"),
	}}

	decision := newTestRouter(provider).RouteQuery(context.Background(), "write the code")
	assert.Equal(t, chat.CoderAgentName, decision.Category)
}

func TestRouteQueryFailsClosed(t *testing.T) {
	cases := map[string]*mockProvider{
		"non-JSON content": {responses: []*providers.LLMResponse{textResponse("sure, I can help!")}},
		"invalid category": {responses: []*providers.LLMResponse{textResponse(`{"category":"pirate_agent"}`)}},
		"empty content":    {responses: []*providers.LLMResponse{textResponse("")}},
		"provider failure": {err: fmt.Errorf("upstream timeout")},
	}

	for name, provider := range cases {
		t.Run(name, func(t *testing.T) {
			decision := newTestRouter(provider).RouteQuery(context.Background(), "anything")
			assert.Equal(t, chat.ManagerAgentName, decision.Category)
		})
	}
}

func TestRouteQueryRequestsJSONAtTemperatureZero(t *testing.T) {
	provider := &mockProvider{responses: []*providers.LLMResponse{
		textResponse(`{"category":"manager_agent"}`),
	}}

	newTestRouter(provider).RouteQuery(context.Background(), "build me a CRM")

	require.Len(t, provider.gotOptions, 1)
	assert.Equal(t, "json_object", provider.gotOptions[0]["response_format"])
	assert.Equal(t, 0.0, provider.gotOptions[0]["temperature"])
	assert.Empty(t, provider.gotTools[0])
}

func TestRouteQueryIsStateless(t *testing.T) {
	provider := &mockProvider{responses: []*providers.LLMResponse{
		textResponse(`{"category":"editor_agent"}`),
	}}
	router := newTestRouter(provider)

	router.RouteQuery(context.Background(), "first")
	router.RouteQuery(context.Background(), "second")

	// Each classification sees only its own system + user pair.
	require.Len(t, provider.gotMessages, 2)
	assert.Len(t, provider.gotMessages[1], 2)
	assert.Equal(t, "second", provider.gotMessages[1][1].Content)
}
