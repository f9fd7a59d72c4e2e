package agent

import (
	"context"
	"fmt"

	"github.com/curielabs/curie/pkg/chat"
	"github.com/curielabs/curie/pkg/config"
	"github.com/curielabs/curie/pkg/prompts"
	"github.com/curielabs/curie/pkg/providers"
	"github.com/curielabs/curie/pkg/threadstore"
	"github.com/curielabs/curie/pkg/tools"
)

// Orchestrator bundles the router and the three specialized agent
// registries behind one entry point. The gateway and the CLI both talk to
// the core through it.
type Orchestrator struct {
	Manager *SessionRegistry
	Editor  *SessionRegistry
	Coder   *SessionRegistry

	router *Router
	store  threadstore.Store
}

// NewOrchestrator wires providers, prompts and tools from the loaded
// configuration. The store may be nil for fully ephemeral operation.
func NewOrchestrator(cfg *config.Config, store threadstore.Store) (*Orchestrator, error) {
	manager, err := NewManagerRegistry(cfg, store)
	if err != nil {
		return nil, err
	}
	editor, err := NewEditorRegistry(cfg, store)
	if err != nil {
		return nil, err
	}
	coder, err := NewCoderRegistry(cfg, store)
	if err != nil {
		return nil, err
	}
	router, err := NewRouterFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		Manager: manager,
		Editor:  editor,
		Coder:   coder,
		router:  router,
		store:   store,
	}, nil
}

// Generate routes the message to a specialized agent and runs one turn.
// It returns the chosen agent name alongside the transcript.
func (o *Orchestrator) Generate(ctx context.Context, message, sessionKey string) (string, []chat.Message) {
	decision := o.router.RouteQuery(ctx, message)
	return decision.Category, o.registryFor(decision.Category).Generate(ctx, message, sessionKey)
}

// Route exposes the bare classification, for callers that dispatch
// themselves.
func (o *Orchestrator) Route(ctx context.Context, message string) RoutingDecision {
	return o.router.RouteQuery(ctx, message)
}

// GenerateFor runs one turn on the registry for a known category. Callers
// that compose their own session keys per agent type use this instead of
// Generate.
func (o *Orchestrator) GenerateFor(ctx context.Context, category, message, sessionKey string) []chat.Message {
	return o.registryFor(category).Generate(ctx, message, sessionKey)
}

// Clear evicts the session's in-memory agents across all registries.
// Persisted threads survive in the store.
func (o *Orchestrator) Clear(sessionKey string) {
	o.Manager.Clear(sessionKey)
	o.Editor.Clear(sessionKey)
	o.Coder.Clear(sessionKey)
}

func (o *Orchestrator) registryFor(category string) *SessionRegistry {
	switch category {
	case chat.EditorAgentName:
		return o.Editor
	case chat.CoderAgentName:
		return o.Coder
	default:
		return o.Manager
	}
}

// NewManagerRegistry builds the planner registry: file planning plus UI
// reference search.
func NewManagerRegistry(cfg *config.Config, store threadstore.Store) (*SessionRegistry, error) {
	agentCfg := cfg.Agents.Manager
	provider, err := providers.NewProvider(agentCfg.Client)
	if err != nil {
		return nil, fmt.Errorf("manager provider: %w", err)
	}

	instructions, err := prompts.Manager()
	if err != nil {
		return nil, err
	}

	planTool, err := newFilesPlanTool(cfg)
	if err != nil {
		return nil, err
	}

	registry := tools.NewToolRegistry()
	registry.Register(planTool)
	registry.Register(tools.NewImageSearchTool(
		cfg.Tools.ImageSearch.APIKey,
		cfg.Tools.ImageSearch.SearchEngineID,
	))

	return NewSessionRegistry(RegistryOptions{
		Name:         chat.ManagerAgentName,
		MaxToolCalls: agentCfg.MaxToolCalls,
		MaxSessions:  cfg.Agents.MaxSessions,
		Factory: func(sessionKey string) *ConversationAgent {
			return NewConversationAgent(AgentOptions{
				Name:         chat.ManagerAgentName,
				Model:        agentCfg.Model,
				Instructions: instructions,
				SessionID:    sessionKey,
				Temperature:  agentCfg.Temperature,
				Provider:     provider,
				Tools:        registry,
				Store:        store,
			})
		},
	}), nil
}

// NewEditorRegistry builds the editing registry: file planning only.
func NewEditorRegistry(cfg *config.Config, store threadstore.Store) (*SessionRegistry, error) {
	agentCfg := cfg.Agents.Editor
	provider, err := providers.NewProvider(agentCfg.Client)
	if err != nil {
		return nil, fmt.Errorf("editor provider: %w", err)
	}

	instructions, err := prompts.Editor()
	if err != nil {
		return nil, err
	}

	planTool, err := newFilesPlanTool(cfg)
	if err != nil {
		return nil, err
	}

	registry := tools.NewToolRegistry()
	registry.Register(planTool)

	return NewSessionRegistry(RegistryOptions{
		Name:         chat.EditorAgentName,
		MaxToolCalls: agentCfg.MaxToolCalls,
		MaxSessions:  cfg.Agents.MaxSessions,
		Factory: func(sessionKey string) *ConversationAgent {
			return NewConversationAgent(AgentOptions{
				Name:         chat.EditorAgentName,
				Model:        agentCfg.Model,
				Instructions: instructions,
				SessionID:    sessionKey,
				Temperature:  agentCfg.Temperature,
				Provider:     provider,
				Tools:        registry,
				Store:        store,
			})
		},
	}), nil
}

// NewCoderRegistry builds the code-generation registry: no tools, JSON
// replies.
func NewCoderRegistry(cfg *config.Config, store threadstore.Store) (*SessionRegistry, error) {
	agentCfg := cfg.Agents.Coder
	provider, err := providers.NewProvider(agentCfg.Client)
	if err != nil {
		return nil, fmt.Errorf("coder provider: %w", err)
	}

	instructions, err := prompts.Coder("")
	if err != nil {
		return nil, err
	}

	return NewSessionRegistry(RegistryOptions{
		Name:           chat.CoderAgentName,
		ResponseFormat: ResponseFormatJSON,
		MaxToolCalls:   agentCfg.MaxToolCalls,
		MaxSessions:    cfg.Agents.MaxSessions,
		Factory: func(sessionKey string) *ConversationAgent {
			return NewConversationAgent(AgentOptions{
				Name:         chat.CoderAgentName,
				Model:        agentCfg.Model,
				Instructions: instructions,
				SessionID:    sessionKey,
				Temperature:  agentCfg.Temperature,
				Provider:     provider,
				Store:        store,
			})
		},
	}), nil
}

// NewRouterFromConfig builds the stateless intent classifier.
func NewRouterFromConfig(cfg *config.Config) (*Router, error) {
	agentCfg := cfg.Agents.Router
	provider, err := providers.NewProvider(agentCfg.Client)
	if err != nil {
		return nil, fmt.Errorf("router provider: %w", err)
	}

	instructions, err := prompts.Router()
	if err != nil {
		return nil, err
	}

	return NewRouter(provider, agentCfg.Model, instructions, agentCfg.Temperature), nil
}

// newFilesPlanTool runs its plan completions on the editor's endpoint,
// which is the cheap fast model in the default configuration.
func newFilesPlanTool(cfg *config.Config) (*tools.FilesPlanTool, error) {
	provider, err := providers.NewProvider(cfg.Agents.Editor.Client)
	if err != nil {
		return nil, fmt.Errorf("files plan provider: %w", err)
	}
	prompt, err := prompts.FilesPlan()
	if err != nil {
		return nil, err
	}
	return tools.NewFilesPlanTool(provider, cfg.Agents.Editor.Model, prompt), nil
}
