package agent

import (
	"container/list"
	"context"
	"sync"

	"github.com/curielabs/curie/pkg/chat"
	"github.com/curielabs/curie/pkg/logger"
)

const providerFailureReply = "Something went wrong, please try again later"

// DefaultMaxSessions bounds the number of live agent instances per
// registry before least-recently-used eviction kicks in.
const DefaultMaxSessions = 256

// AgentFactory builds a ConversationAgent for a session key on first use.
type AgentFactory func(sessionKey string) *ConversationAgent

type sessionEntry struct {
	agent *ConversationAgent
	// gate serializes Run calls for one session key so concurrent
	// requests cannot race on the threads or the store.
	gate       sync.Mutex
	lruElement *list.Element
}

// SessionRegistry maintains the lazily created ConversationAgent per
// session key for one specialized agent type. The in-memory cache is
// bounded: when capacity is exceeded the least recently used instance is
// evicted, and its next request rebuilds it from the thread store.
type SessionRegistry struct {
	name           string
	factory        AgentFactory
	responseFormat string
	maxToolCalls   int
	capacity       int

	mu      sync.Mutex
	entries map[string]*sessionEntry
	lru     *list.List // front = most recently used; values are session keys
}

// RegistryOptions configures a SessionRegistry. Zero values fall back to
// defaults (no response format, DefaultMaxToolCalls, DefaultMaxSessions).
type RegistryOptions struct {
	Name           string
	Factory        AgentFactory
	ResponseFormat string
	MaxToolCalls   int
	MaxSessions    int
}

func NewSessionRegistry(opts RegistryOptions) *SessionRegistry {
	capacity := opts.MaxSessions
	if capacity <= 0 {
		capacity = DefaultMaxSessions
	}
	maxToolCalls := opts.MaxToolCalls
	if maxToolCalls <= 0 {
		maxToolCalls = DefaultMaxToolCalls
	}
	return &SessionRegistry{
		name:           opts.Name,
		factory:        opts.Factory,
		responseFormat: opts.ResponseFormat,
		maxToolCalls:   maxToolCalls,
		capacity:       capacity,
		entries:        make(map[string]*sessionEntry),
		lru:            list.New(),
	}
}

// Generate runs one conversational turn for the session and returns the
// merged transcript without system messages. A provider failure is never
// surfaced as an error: the caller gets a single synthetic error-typed
// assistant message instead.
func (r *SessionRegistry) Generate(ctx context.Context, message, sessionKey string) []chat.Message {
	entry := r.getOrCreate(sessionKey)

	entry.gate.Lock()
	defer entry.gate.Unlock()

	thread, err := entry.agent.Run(ctx, message, r.responseFormat, r.maxToolCalls)
	if err != nil {
		logger.ErrorCF("registry", "Agent run failed",
			map[string]any{
				"agent":   r.name,
				"session": sessionKey,
				"error":   err.Error(),
			})
		return []chat.Message{chat.ErrorMessage(providerFailureReply)}
	}

	return chat.WithoutSystem(thread)
}

// Clear evicts the in-memory instance for a session key. Persisted thread
// state in the store is left untouched; the next Generate rebuilds the
// agent and reloads it.
func (r *SessionRegistry) Clear(sessionKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[sessionKey]
	if !ok {
		return
	}
	r.lru.Remove(entry.lruElement)
	delete(r.entries, sessionKey)

	logger.InfoCF("registry", "Session cleared",
		map[string]any{
			"agent":   r.name,
			"session": sessionKey,
		})
}

// ActiveSessions reports the number of live in-memory agent instances.
func (r *SessionRegistry) ActiveSessions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *SessionRegistry) getOrCreate(sessionKey string) *sessionEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.entries[sessionKey]; ok {
		r.lru.MoveToFront(entry.lruElement)
		return entry
	}

	entry := &sessionEntry{agent: r.factory(sessionKey)}
	entry.lruElement = r.lru.PushFront(sessionKey)
	r.entries[sessionKey] = entry

	if len(r.entries) > r.capacity {
		r.evictOldest()
	}

	return entry
}

// evictOldest drops the least recently used instance. Callers hold r.mu.
// A request already running on the evicted agent finishes normally; the
// instance just becomes unreachable for new requests.
func (r *SessionRegistry) evictOldest() {
	oldest := r.lru.Back()
	if oldest == nil {
		return
	}
	sessionKey := oldest.Value.(string)
	r.lru.Remove(oldest)
	delete(r.entries, sessionKey)

	logger.InfoCF("registry", "Evicted least recently used session",
		map[string]any{
			"agent":   r.name,
			"session": sessionKey,
		})
}
