package agent

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curielabs/curie/pkg/chat"
	"github.com/curielabs/curie/pkg/providers"
	"github.com/curielabs/curie/pkg/threadstore"
)

func newTestRegistry(provider providers.LLMProvider, store threadstore.Store, maxSessions int) *SessionRegistry {
	return NewSessionRegistry(RegistryOptions{
		Name:        chat.ManagerAgentName,
		MaxSessions: maxSessions,
		Factory: func(sessionKey string) *ConversationAgent {
			return NewConversationAgent(AgentOptions{
				Name:         chat.ManagerAgentName,
				Instructions: "You are helpful",
				SessionID:    sessionKey,
				Provider:     provider,
				Store:        store,
			})
		},
	})
}

func TestGenerateFiltersSystemMessages(t *testing.T) {
	provider := &mockProvider{responses: []*providers.LLMResponse{textResponse("4")}}
	registry := newTestRegistry(provider, nil, 0)

	thread := registry.Generate(context.Background(), "2+2?", "u1")

	require.Len(t, thread, 2)
	assert.Equal(t, "user", thread[0].Role)
	assert.Equal(t, "assistant", thread[1].Role)
	for _, msg := range thread {
		assert.NotEqual(t, "system", msg.Role)
	}
}

func TestGenerateReusesAgentPerSession(t *testing.T) {
	provider := &mockProvider{responses: []*providers.LLMResponse{textResponse("reply")}}
	registry := newTestRegistry(provider, nil, 0)

	registry.Generate(context.Background(), "one", "u1")
	thread := registry.Generate(context.Background(), "two", "u1")

	// Same in-memory agent: thread grew across calls.
	require.Len(t, thread, 4)
	assert.Equal(t, 1, registry.ActiveSessions())

	registry.Generate(context.Background(), "other user", "u2")
	assert.Equal(t, 2, registry.ActiveSessions())
}

func TestGenerateProviderFailureReturnsErrorMessage(t *testing.T) {
	provider := &mockProvider{err: fmt.Errorf("upstream down")}
	registry := newTestRegistry(provider, nil, 0)

	thread := registry.Generate(context.Background(), "hello", "u1")

	require.Len(t, thread, 1)
	assert.Equal(t, "assistant", thread[0].Role)
	assert.Equal(t, chat.TypeError, thread[0].Type)
	assert.Equal(t, "Something went wrong, please try again later", thread[0].Content)
	assert.NotContains(t, thread[0].Content, "upstream down")
}

func TestClearSeedsFreshThread(t *testing.T) {
	provider := &mockProvider{responses: []*providers.LLMResponse{textResponse("reply")}}
	registry := newTestRegistry(provider, nil, 0)
	ctx := context.Background()

	registry.Generate(ctx, "one", "u1")
	registry.Generate(ctx, "two", "u1")

	registry.Clear("u1")
	thread := registry.Generate(ctx, "after clear", "u1")
	require.Len(t, thread, 2)
	assert.Equal(t, "after clear", thread[0].Content)

	registry.Clear("u1")
	thread = registry.Generate(ctx, "after second clear", "u1")
	require.Len(t, thread, 2)
	assert.Equal(t, "after second clear", thread[0].Content)
}

func TestClearKeepsPersistedState(t *testing.T) {
	provider := &mockProvider{responses: []*providers.LLMResponse{textResponse("reply")}}
	store := threadstore.NewMemoryStore(0)
	registry := newTestRegistry(provider, store, 0)
	ctx := context.Background()

	registry.Generate(ctx, "one", "u1")
	registry.Clear("u1")
	assert.Equal(t, 0, registry.ActiveSessions())

	// The store still holds the session's history; a rebuilt agent
	// resumes from it.
	_, ok, err := store.Get(ctx, "manager_agentu1")
	require.NoError(t, err)
	assert.True(t, ok)

	thread := registry.Generate(ctx, "two", "u1")
	require.Len(t, thread, 4)
	assert.Equal(t, "one", thread[0].Content)
}

func TestClearUnknownSessionIsNoop(t *testing.T) {
	provider := &mockProvider{responses: []*providers.LLMResponse{textResponse("reply")}}
	registry := newTestRegistry(provider, nil, 0)

	registry.Clear("never-seen")
	assert.Equal(t, 0, registry.ActiveSessions())
}

func TestLRUEvictionBound(t *testing.T) {
	provider := &mockProvider{responses: []*providers.LLMResponse{textResponse("reply")}}
	registry := newTestRegistry(provider, nil, 2)
	ctx := context.Background()

	registry.Generate(ctx, "a", "s1")
	registry.Generate(ctx, "b", "s2")
	assert.Equal(t, 2, registry.ActiveSessions())

	// Touch s1 so s2 becomes the eviction candidate.
	registry.Generate(ctx, "a again", "s1")
	registry.Generate(ctx, "c", "s3")

	assert.Equal(t, 2, registry.ActiveSessions())

	// s2 was evicted: its next request starts a new in-memory thread.
	thread := registry.Generate(ctx, "b again", "s2")
	require.Len(t, thread, 2)

	// s1 survived with its history.
	thread = registry.Generate(ctx, "a third", "s1")
	require.Len(t, thread, 6)
}

func TestEvictedSessionReloadsFromStore(t *testing.T) {
	provider := &mockProvider{responses: []*providers.LLMResponse{textResponse("reply")}}
	store := threadstore.NewMemoryStore(0)
	registry := newTestRegistry(provider, store, 1)
	ctx := context.Background()

	registry.Generate(ctx, "first", "s1")
	registry.Generate(ctx, "hello", "s2") // evicts s1

	thread := registry.Generate(ctx, "second", "s1")
	require.Len(t, thread, 4)
	assert.Equal(t, "first", thread[0].Content)
}

func TestGenerateSerializesPerSessionKey(t *testing.T) {
	provider := &mockProvider{responses: []*providers.LLMResponse{textResponse("reply")}}
	store := threadstore.NewMemoryStore(0)
	registry := newTestRegistry(provider, store, 0)
	ctx := context.Background()

	const turns = 20
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			registry.Generate(ctx, fmt.Sprintf("turn %d", n), "u1")
		}(i)
	}
	wg.Wait()

	// All turns serialized on one agent: every user message survived.
	data, ok, err := store.Get(ctx, "manager_agentu1")
	require.NoError(t, err)
	require.True(t, ok)
	thread, err := chat.DecodeThread([]byte(data))
	require.NoError(t, err)

	userCount := 0
	for _, msg := range thread {
		if msg.Role == "user" {
			userCount++
		}
	}
	assert.Equal(t, turns, userCount)
	assert.Equal(t, turns, provider.callCount())
}
