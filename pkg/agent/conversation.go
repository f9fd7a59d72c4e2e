// Package agent implements the conversation orchestration core: the
// completion/tool-calling loop, the intent router and the per-agent-type
// session registries.
package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/curielabs/curie/pkg/chat"
	"github.com/curielabs/curie/pkg/logger"
	"github.com/curielabs/curie/pkg/providers"
	"github.com/curielabs/curie/pkg/threadstore"
	"github.com/curielabs/curie/pkg/tools"
)

const (
	// DefaultMaxToolCalls bounds the tool-calling loop per run.
	DefaultMaxToolCalls = 1

	// ResponseFormatJSON asks the provider for a JSON-object reply.
	ResponseFormatJSON = "json"

	overallThreadPrefix = "conversation:"
)

// ConversationAgent holds the two thread views for one (agent type,
// session) pair and drives the completion loop against its provider.
// Instances are not safe for concurrent Run calls; the owning registry
// serializes access per session key.
type ConversationAgent struct {
	name         string
	model        string
	instructions string
	sessionID    string
	temperature  float64
	provider     providers.LLMProvider
	tools        *tools.ToolRegistry
	store        threadstore.Store

	// thread is what the provider sees; overallThread is the merged
	// cross-agent transcript returned to callers.
	thread        []chat.Message
	overallThread []chat.Message
}

// AgentOptions configures a ConversationAgent. Tools and Store are
// optional; a nil Store (or empty SessionID) makes the agent ephemeral.
type AgentOptions struct {
	Name         string
	Model        string
	Instructions string
	SessionID    string
	Temperature  float64
	Provider     providers.LLMProvider
	Tools        *tools.ToolRegistry
	Store        threadstore.Store
}

func NewConversationAgent(opts AgentOptions) *ConversationAgent {
	model := opts.Model
	if model == "" {
		model = opts.Provider.GetDefaultModel()
	}

	a := &ConversationAgent{
		name:         opts.Name,
		model:        model,
		instructions: opts.Instructions,
		sessionID:    opts.SessionID,
		temperature:  opts.Temperature,
		provider:     opts.Provider,
		tools:        opts.Tools,
		store:        opts.Store,
	}
	a.thread = []chat.Message{chat.SystemMessage(a.instructions)}
	a.overallThread = []chat.Message{chat.SystemMessage(a.instructions)}
	return a
}

func (a *ConversationAgent) Name() string { return a.name }

func (a *ConversationAgent) threadKey() string {
	return a.name + a.sessionID
}

func (a *ConversationAgent) overallKey() string {
	return overallThreadPrefix + a.sessionID
}

// Run appends the query as a user turn, executes the completion loop and
// returns the merged overall thread. Only a provider failure is returned
// as an error; tool failures are recorded in-thread and recovered.
func (a *ConversationAgent) Run(ctx context.Context, query, responseFormat string, maxToolCalls int) ([]chat.Message, error) {
	if maxToolCalls <= 0 {
		maxToolCalls = DefaultMaxToolCalls
	}

	a.loadThreads(ctx)

	userMessage := chat.UserMessage(query)
	a.thread = append(a.thread, userMessage)
	a.overallThread = append(a.overallThread, userMessage)

	if a.tools == nil || a.tools.Count() == 0 {
		if err := a.runWithoutTools(ctx, responseFormat); err != nil {
			return nil, err
		}
	} else {
		if err := a.runToolLoop(ctx, responseFormat, maxToolCalls); err != nil {
			return nil, err
		}
	}

	a.persistThreads(ctx)
	return chat.CloneThread(a.overallThread), nil
}

func (a *ConversationAgent) runWithoutTools(ctx context.Context, responseFormat string) error {
	resp, err := a.provider.Chat(ctx, toWire(a.thread), nil, a.model, a.chatOptions(responseFormat))
	if err != nil {
		return fmt.Errorf("completion failed for %s: %w", a.name, err)
	}

	assistant := chat.Message{
		Role:    "assistant",
		Content: resp.Content,
		Type:    chat.TypeText,
	}
	a.thread = append(a.thread, assistant)
	a.overallThread = append(a.overallThread, assistant)
	return nil
}

func (a *ConversationAgent) runToolLoop(ctx context.Context, responseFormat string, maxToolCalls int) error {
	toolDefs := a.tools.ToProviderDefs()
	options := a.chatOptions(responseFormat)

	for toolCallCount := 0; toolCallCount < maxToolCalls; toolCallCount++ {
		resp, err := a.provider.Chat(ctx, toWire(a.thread), toolDefs, a.model, options)
		if err != nil {
			return fmt.Errorf("completion failed for %s: %w", a.name, err)
		}

		assistant := chat.Message{
			Role:      "assistant",
			Content:   resp.Content,
			Type:      chat.TypeText,
			AgentName: a.name,
		}
		for _, tc := range resp.ToolCalls {
			assistant.ToolCalls = append(assistant.ToolCalls, toChatToolCall(tc))
		}

		a.thread = append(a.thread, assistant)
		a.overallThread = append(a.overallThread, assistant)

		if len(assistant.ToolCalls) == 0 {
			break
		}

		for _, tc := range assistant.ToolCalls {
			a.handleToolCall(ctx, tc)
		}
	}
	return nil
}

// handleToolCall executes one requested call and appends the resulting
// tool message to both threads. Unregistered names are skipped; execution
// errors are absorbed as an error-typed tool message.
func (a *ConversationAgent) handleToolCall(ctx context.Context, tc chat.ToolCall) {
	tool, ok := a.tools.Get(tc.Function.Name)
	if !ok {
		logger.WarnCF("agent", "Tool not registered, skipping call",
			map[string]any{
				"agent": a.name,
				"tool":  tc.Function.Name,
			})
		return
	}

	args := map[string]any{}
	if tc.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
			a.appendToolError(tc, fmt.Errorf("invalid tool arguments: %w", err))
			return
		}
	}

	result, err := a.tools.Execute(ctx, tool, args)
	if err != nil {
		a.appendToolError(tc, err)
		return
	}

	content := "{}"
	if result != nil {
		serialized, err := json.Marshal(result)
		if err != nil {
			a.appendToolError(tc, fmt.Errorf("tool result not serializable: %w", err))
			return
		}
		content = string(serialized)
	}

	toolMessage := chat.Message{
		Role:       "tool",
		ToolCallID: tc.ID,
		Content:    content,
		Type:       chat.ToolResponseType(tc.Function.Name, a.name),
		AgentName:  a.name,
	}
	a.thread = append(a.thread, toolMessage)
	a.overallThread = append(a.overallThread, toolMessage)
}

func (a *ConversationAgent) appendToolError(tc chat.ToolCall, err error) {
	body, _ := json.Marshal(map[string]string{"error": err.Error()})
	toolMessage := chat.Message{
		Role:       "tool",
		ToolCallID: tc.ID,
		Content:    string(body),
		Type:       chat.TypeError,
		AgentName:  a.name,
	}
	a.thread = append(a.thread, toolMessage)
	a.overallThread = append(a.overallThread, toolMessage)
}

func (a *ConversationAgent) chatOptions(responseFormat string) map[string]any {
	options := map[string]any{
		"temperature": a.temperature,
	}
	if responseFormat == ResponseFormatJSON {
		options["response_format"] = "json_object"
	}
	return options
}

// loadThreads refreshes both views from the store. A miss or a payload
// that no longer parses reseeds a fresh thread with just the system
// message.
func (a *ConversationAgent) loadThreads(ctx context.Context) {
	if a.store == nil || a.sessionID == "" {
		return
	}

	a.thread = a.loadThread(ctx, a.threadKey())
	a.overallThread = a.loadThread(ctx, a.overallKey())
}

func (a *ConversationAgent) loadThread(ctx context.Context, key string) []chat.Message {
	seeded := []chat.Message{chat.SystemMessage(a.instructions)}

	data, ok, err := a.store.Get(ctx, key)
	if err != nil {
		logger.WarnCF("agent", "Thread store read failed, reseeding",
			map[string]any{
				"agent": a.name,
				"key":   key,
				"error": err.Error(),
			})
		return seeded
	}
	if !ok {
		return seeded
	}

	thread, err := chat.DecodeThread([]byte(data))
	if err != nil {
		logger.WarnCF("agent", "Persisted thread is malformed, reseeding",
			map[string]any{
				"agent": a.name,
				"key":   key,
				"error": err.Error(),
			})
		return seeded
	}
	// A null/empty payload decodes cleanly; a thread that does not start
	// with the system message is just as unusable.
	if len(thread) == 0 || thread[0].Role != "system" {
		logger.WarnCF("agent", "Persisted thread has no system message, reseeding",
			map[string]any{
				"agent": a.name,
				"key":   key,
			})
		return seeded
	}
	return thread
}

func (a *ConversationAgent) persistThreads(ctx context.Context) {
	if a.store == nil || a.sessionID == "" {
		return
	}

	a.persistThread(ctx, a.threadKey(), a.thread)
	a.persistThread(ctx, a.overallKey(), a.overallThread)
}

func (a *ConversationAgent) persistThread(ctx context.Context, key string, thread []chat.Message) {
	data, err := chat.EncodeThread(thread)
	if err != nil {
		logger.ErrorCF("agent", "Failed to encode thread",
			map[string]any{
				"agent": a.name,
				"key":   key,
				"error": err.Error(),
			})
		return
	}
	if err := a.store.Set(ctx, key, string(data)); err != nil {
		logger.ErrorCF("agent", "Failed to persist thread",
			map[string]any{
				"agent": a.name,
				"key":   key,
				"error": err.Error(),
			})
	}
}

// toWire strips the rendering metadata and converts a thread into the
// provider message shape.
func toWire(thread []chat.Message) []providers.Message {
	out := make([]providers.Message, 0, len(thread))
	for _, msg := range thread {
		wire := providers.Message{
			Role:       msg.Role,
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
		}
		for _, tc := range msg.ToolCalls {
			var args map[string]any
			if tc.Function.Arguments != "" {
				_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
			}
			wire.ToolCalls = append(wire.ToolCalls, providers.ToolCall{
				ID:        tc.ID,
				Type:      tc.Type,
				Name:      tc.Function.Name,
				Arguments: args,
				Function: &providers.FunctionCall{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}
		out = append(out, wire)
	}
	return out
}

// toChatToolCall copies a provider tool call into the thread verbatim,
// preserving the raw argument string the model produced.
func toChatToolCall(tc providers.ToolCall) chat.ToolCall {
	normalized := providers.NormalizeToolCall(tc)

	rawArgs := ""
	if normalized.Function != nil {
		rawArgs = normalized.Function.Arguments
	}
	if rawArgs == "" && normalized.Arguments != nil {
		if data, err := json.Marshal(normalized.Arguments); err == nil {
			rawArgs = string(data)
		}
	}

	return chat.ToolCall{
		ID:   normalized.ID,
		Type: normalized.Type,
		Function: chat.FunctionCall{
			Name:      normalized.Name,
			Arguments: rawArgs,
		},
	}
}
