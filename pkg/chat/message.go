// Package chat defines the conversational message model shared by the
// agents, the thread store and the gateway. A thread is an ordered slice
// of Messages whose first element is always the agent's system message.
package chat

import "encoding/json"

// MessageType tags a message for rendering on the client side. It is
// derived by the orchestration core, never supplied by callers.
type MessageType string

const (
	TypeText        MessageType = "text"
	TypeCode        MessageType = "code"
	TypeJSON        MessageType = "json"
	TypeJSONFiles   MessageType = "json-files"
	TypeJSONButton  MessageType = "json-button"
	TypeUIReference MessageType = "ui-reference"
	TypeError       MessageType = "error"
)

// Agent identities. The router's classification output is one of the first
// three values, so they double as routing categories.
const (
	ManagerAgentName = "manager_agent"
	EditorAgentName  = "editor_agent"
	CoderAgentName   = "coder_agent"
	RouterAgentName  = "router_agent"
)

type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// Message is the atomic conversational unit. Content may be empty on an
// assistant message that only carries tool calls.
type Message struct {
	Role       string      `json:"role"`
	Content    string      `json:"content"`
	ToolCalls  []ToolCall  `json:"tool_calls,omitempty"`
	ToolCallID string      `json:"tool_call_id,omitempty"`
	Type       MessageType `json:"type,omitempty"`
	AgentName  string      `json:"agent_name,omitempty"`
}

// SystemMessage seeds a new thread.
func SystemMessage(instructions string) Message {
	return Message{Role: "system", Content: instructions}
}

func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// ErrorMessage is the synthetic assistant reply substituted for a provider
// failure. The content is deliberately generic; internal error detail never
// reaches the client.
func ErrorMessage(content string) Message {
	return Message{Role: "assistant", Content: content, Type: TypeError}
}

// WithoutSystem returns a copy of thread with all system messages removed.
// This is what every registry hands back to the web boundary.
func WithoutSystem(thread []Message) []Message {
	out := make([]Message, 0, len(thread))
	for _, msg := range thread {
		if msg.Role == "system" {
			continue
		}
		out = append(out, msg)
	}
	return out
}

// CloneThread deep-copies a thread so callers cannot mutate an agent's
// in-memory state through the returned slice.
func CloneThread(thread []Message) []Message {
	out := make([]Message, len(thread))
	copy(out, thread)
	for i := range out {
		if len(out[i].ToolCalls) > 0 {
			tcs := make([]ToolCall, len(out[i].ToolCalls))
			copy(tcs, out[i].ToolCalls)
			out[i].ToolCalls = tcs
		}
	}
	return out
}

// DecodeThread parses a persisted thread. A failure is reported to the
// caller, which treats it as a cache miss and reseeds.
func DecodeThread(data []byte) ([]Message, error) {
	var thread []Message
	if err := json.Unmarshal(data, &thread); err != nil {
		return nil, err
	}
	return thread, nil
}

// EncodeThread serializes a thread for the store.
func EncodeThread(thread []Message) ([]byte, error) {
	return json.Marshal(thread)
}
