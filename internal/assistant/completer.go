package assistant

import (
	"context"
	"encoding/json"
	"errors"
)

// Message is one turn of the conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Roles used in Message.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// CompletionRequest is sent to the completer for the active agent.
type CompletionRequest struct {
	Agent    string     `json:"agent"`
	Messages []Message  `json:"messages"`
	Tools    []ToolSpec `json:"tools"`
}

// ToolCall asks the assistant to run a tool.
type ToolCall struct {
	Tool   string          `json:"tool"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Handoff passes the conversation to another agent.
type Handoff struct {
	Agent  string `json:"agent"`
	Reason string `json:"reason,omitempty"`
}

// Completion is the completer's answer.
type Completion struct {
	Text      string     `json:"text,omitempty"`
	ToolCalls []ToolCall `json:"toolCalls,omitempty"`
	Navigate  string     `json:"navigate,omitempty"`
	Handoff   *Handoff   `json:"handoff,omitempty"`
}

// Completer is the external completion API.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
}

// ErrNoCompleter is returned by Unavailable.
var ErrNoCompleter = errors.New("no completion service configured")

// Unavailable is the Completer used when none is configured.
type Unavailable struct{}

// Complete always fails with ErrNoCompleter.
func (Unavailable) Complete(context.Context, CompletionRequest) (Completion, error) {
	return Completion{}, ErrNoCompleter
}
