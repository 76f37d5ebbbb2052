package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kassabok/kassabok/internal/agentlog"
	"github.com/kassabok/kassabok/internal/chatstream"
	"github.com/kassabok/kassabok/internal/logging"
	"github.com/kassabok/kassabok/internal/model"
)

const (
	// DefaultAgent answers a conversation unless the request names another.
	DefaultAgent = "bokforing"
	// DefaultTimeout bounds a single completer call.
	DefaultTimeout = 30 * time.Second
	// DefaultMaxHandoffs bounds agent handoffs per chat turn.
	DefaultMaxHandoffs = 3
	// DefaultActionTTL is how long a mutating action waits for confirmation.
	DefaultActionTTL = 15 * time.Minute
)

// ErrActionNotFound is returned for unknown or already handled actions.
var ErrActionNotFound = errors.New("pending action not found")

// ChatRequest is one user turn.
type ChatRequest struct {
	Agent    string    `json:"agent,omitempty"`
	Messages []Message `json:"messages"`
}

type pendingAction struct {
	tool    Tool
	params  json.RawMessage
	agent   string
	created time.Time
}

// Orchestrator drives chat turns. It is safe for concurrent use.
type Orchestrator struct {
	completer   Completer
	registry    *Registry
	audit       agentlog.Sink
	timeout     time.Duration
	maxHandoffs int
	actionTTL   time.Duration
	now         func() time.Time

	mu      sync.Mutex
	pending map[string]pendingAction
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.timeout = d }
}

// WithMaxHandoffs overrides DefaultMaxHandoffs.
func WithMaxHandoffs(n int) Option {
	return func(o *Orchestrator) { o.maxHandoffs = n }
}

// WithActionTTL overrides DefaultActionTTL. Unconfirmed actions older
// than d are dropped.
func WithActionTTL(d time.Duration) Option {
	return func(o *Orchestrator) { o.actionTTL = d }
}

// WithAudit records executed tool calls in sink.
func WithAudit(sink agentlog.Sink) Option {
	return func(o *Orchestrator) { o.audit = sink }
}

// WithClock sets the time source for audit entries.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator wires a completer to a tool registry.
func NewOrchestrator(c Completer, r *Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		completer:   c,
		registry:    r,
		timeout:     DefaultTimeout,
		maxHandoffs: DefaultMaxHandoffs,
		actionTTL:   DefaultActionTTL,
		now:         time.Now,
		pending:     make(map[string]pendingAction),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Chat answers one user turn, streaming frames to w. Completer failures
// are reported as an E frame, not as an error; the returned error is a
// failure to write the stream.
func (o *Orchestrator) Chat(ctx context.Context, req ChatRequest, w *chatstream.Writer) error {
	agent := req.Agent
	if agent == "" {
		agent = DefaultAgent
	}
	messages := append([]Message(nil), req.Messages...)
	log := logging.FromContext(ctx).With(zap.String("agent", agent))

	for hop := 0; ; hop++ {
		comp, err := o.complete(ctx, agent, messages)
		if err != nil {
			log.Warn("completion failed", zap.Error(err))
			return w.Error(fmt.Sprintf("assistant unavailable: %v", err))
		}

		if comp.Text != "" {
			if err := w.Text(ctx, comp.Text); err != nil {
				return err
			}
			messages = append(messages, Message{Role: RoleAssistant, Content: comp.Text})
		}

		data, err := o.runTools(ctx, agent, comp.ToolCalls)
		if err != nil {
			return err
		}
		if comp.Navigate != "" {
			data.Navigation = &chatstream.Navigation{Route: comp.Navigate}
		}
		for _, cr := range data.confirmations {
			if err := w.Data(chatstream.Data{ConfirmationRequired: cr}); err != nil {
				return err
			}
		}
		if len(data.ToolResults) > 0 || data.Navigation != nil {
			if err := w.Data(data.Data); err != nil {
				return err
			}
			for _, tr := range data.ToolResults {
				messages = append(messages, Message{Role: RoleTool, Content: string(mustJSON(tr))})
			}
		}

		if comp.Handoff == nil || comp.Handoff.Agent == "" {
			return nil
		}
		if hop >= o.maxHandoffs {
			log.Warn("handoff limit reached", zap.Int("handoffs", hop))
			return w.Error(fmt.Sprintf("too many agent handoffs (limit %d)", o.maxHandoffs))
		}
		agent = comp.Handoff.Agent
		log = log.With(zap.String("agent", agent))
		if err := w.Agent(agent, comp.Handoff.Reason); err != nil {
			return err
		}
	}
}

func (o *Orchestrator) complete(ctx context.Context, agent string, messages []Message) (Completion, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	return o.completer.Complete(ctx, CompletionRequest{
		Agent:    agent,
		Messages: messages,
		Tools:    o.registry.Specs(),
	})
}

type toolData struct {
	chatstream.Data
	confirmations []*chatstream.ConfirmationRequired
}

func (o *Orchestrator) runTools(ctx context.Context, agent string, calls []ToolCall) (toolData, error) {
	var data toolData
	for _, call := range calls {
		tool, ok := o.registry.Get(call.Tool)
		if !ok {
			data.ToolResults = append(data.ToolResults, chatstream.ToolResult{
				Tool:  call.Tool,
				Error: fmt.Sprintf("unknown tool %q", call.Tool),
			})
			continue
		}
		if tool.Mutates {
			data.confirmations = append(data.confirmations, o.hold(tool, call.Params, agent))
			continue
		}
		tr, err := o.execute(ctx, agent, tool, call.Params)
		if err != nil {
			return data, err
		}
		data.ToolResults = append(data.ToolResults, tr)
	}
	return data, nil
}

func (o *Orchestrator) hold(tool Tool, params json.RawMessage, agent string) *chatstream.ConfirmationRequired {
	actionID := uuid.NewString()
	now := o.now()
	o.mu.Lock()
	o.expireLocked(now)
	o.pending[actionID] = pendingAction{tool: tool, params: params, agent: agent, created: now}
	o.mu.Unlock()
	return &chatstream.ConfirmationRequired{
		ActionID: actionID,
		Tool:     tool.Name,
		Summary:  tool.summary(params),
		Params:   params,
	}
}

// execute runs tool and records it in the audit log. Tool failures end
// up in the result; only an audit failure is returned as an error.
func (o *Orchestrator) execute(ctx context.Context, agent string, tool Tool, params json.RawMessage) (chatstream.ToolResult, error) {
	log := logging.FromContext(ctx)
	tr := chatstream.ToolResult{Tool: tool.Name}
	entry := agentlog.Entry{Timestamp: o.now().UTC(), Agent: agent, Action: tool.Name}

	value, err := tool.Run(ctx, params)
	if err != nil {
		log.Info("tool failed", zap.String("tool", tool.Name), zap.Error(err))
		tr.Error = err.Error()
		entry.Details = "failed: " + err.Error()
	} else {
		tr.Success = true
		tr.Result = mustJSON(value)
		entry.Details = "ok"
		if v, ok := value.(model.Verification); ok {
			entry.VerificationID = v.ID
			entry.Details = v.Description
		}
	}

	if o.audit != nil {
		if err := o.audit.Append(ctx, entry); err != nil {
			return tr, fmt.Errorf("recording %s in assistant log: %w", tool.Name, err)
		}
	}
	return tr, nil
}

// Confirm runs a pending mutating action.
func (o *Orchestrator) Confirm(ctx context.Context, actionID string) (chatstream.ToolResult, error) {
	o.mu.Lock()
	o.expireLocked(o.now())
	action, ok := o.pending[actionID]
	delete(o.pending, actionID)
	o.mu.Unlock()
	if !ok {
		return chatstream.ToolResult{}, fmt.Errorf("%w: %s", ErrActionNotFound, actionID)
	}
	logging.FromContext(ctx).Info("action confirmed",
		zap.String("action_id", actionID),
		zap.String("tool", action.tool.Name),
		zap.Duration("pending", o.now().Sub(action.created)),
	)
	return o.execute(ctx, action.agent, action.tool, action.params)
}

// Cancel drops a pending action.
func (o *Orchestrator) Cancel(actionID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.expireLocked(o.now())
	if _, ok := o.pending[actionID]; !ok {
		return fmt.Errorf("%w: %s", ErrActionNotFound, actionID)
	}
	delete(o.pending, actionID)
	return nil
}

// Pending is the number of actions awaiting confirmation.
func (o *Orchestrator) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.expireLocked(o.now())
	return len(o.pending)
}

// expireLocked drops actions proposed more than actionTTL before now.
// o.mu must be held.
func (o *Orchestrator) expireLocked(now time.Time) {
	if o.actionTTL <= 0 {
		return
	}
	for id, action := range o.pending {
		if now.Sub(action.created) > o.actionTTL {
			delete(o.pending, id)
		}
	}
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		b, _ = json.Marshal(map[string]string{"error": err.Error()})
	}
	return b
}
