// Package chatstream frames assistant output as one tagged JSON value
// per line: "<TAG>:<JSON>\n".
package chatstream

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Tag identifies the kind of a frame.
type Tag string

const (
	TagText  Tag = "T"
	TagData  Tag = "D"
	TagAgent Tag = "A"
	TagError Tag = "E"
)

func (t Tag) valid() bool {
	switch t {
	case TagText, TagData, TagAgent, TagError:
		return true
	}
	return false
}

// Data is the payload of a D frame. Only the set fields are sent.
type Data struct {
	ToolResults          []ToolResult          `json:"toolResults,omitempty"`
	Display              any                   `json:"display,omitempty"`
	Navigation           *Navigation           `json:"navigation,omitempty"`
	ConfirmationRequired *ConfirmationRequired `json:"confirmationRequired,omitempty"`
}

// ToolResult reports the outcome of one tool call.
type ToolResult struct {
	Tool    string          `json:"tool"`
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Navigation asks the client to open a route.
type Navigation struct {
	Route string `json:"route"`
}

// ConfirmationRequired announces a pending mutating action.
type ConfirmationRequired struct {
	ActionID string          `json:"actionId"`
	Tool     string          `json:"tool"`
	Summary  string          `json:"summary"`
	Params   json.RawMessage `json:"params,omitempty"`
}

// AgentSwitch is the payload of an A frame.
type AgentSwitch struct {
	Agent  string `json:"agent"`
	Reason string `json:"reason,omitempty"`
}

// ErrorPayload is the payload of an E frame.
type ErrorPayload struct {
	Message string `json:"message"`
}

// Frame is one decoded line.
type Frame struct {
	Tag     Tag
	Payload json.RawMessage
}

// Decode unmarshals the payload into v.
func (f Frame) Decode(v any) error {
	return json.Unmarshal(f.Payload, v)
}

// Writer encodes frames to w, flushing after every line when w supports it.
type Writer struct {
	mu         sync.Mutex
	w          io.Writer
	chunkDelay time.Duration
	chunkSize  int
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithChunkDelay splits text into chunks of size runes and waits delay
// between them.
func WithChunkDelay(delay time.Duration, size int) WriterOption {
	return func(w *Writer) {
		w.chunkDelay = delay
		w.chunkSize = size
	}
}

// NewWriter returns a Writer on w.
func NewWriter(w io.Writer, opts ...WriterOption) *Writer {
	sw := &Writer{w: w}
	for _, opt := range opts {
		opt(sw)
	}
	return sw
}

// Write sends one frame.
func (w *Writer) Write(tag Tag, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s frame: %w", tag, err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := fmt.Fprintf(w.w, "%s:%s\n", tag, body); err != nil {
		return fmt.Errorf("write %s frame: %w", tag, err)
	}
	if f, ok := w.w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}

// Text sends text as T frames. With a chunk delay configured the text is
// split and paced; the pause stops early when ctx is done.
func (w *Writer) Text(ctx context.Context, text string) error {
	if w.chunkDelay <= 0 || w.chunkSize <= 0 {
		return w.Write(TagText, text)
	}
	runes := []rune(text)
	for start := 0; start < len(runes); start += w.chunkSize {
		end := min(start+w.chunkSize, len(runes))
		if err := w.Write(TagText, string(runes[start:end])); err != nil {
			return err
		}
		if end == len(runes) {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.chunkDelay):
		}
	}
	return nil
}

// Data sends a D frame.
func (w *Writer) Data(d Data) error { return w.Write(TagData, d) }

// Agent sends an A frame.
func (w *Writer) Agent(agent, reason string) error {
	return w.Write(TagAgent, AgentSwitch{Agent: agent, Reason: reason})
}

// Error sends an E frame.
func (w *Writer) Error(message string) error {
	return w.Write(TagError, ErrorPayload{Message: message})
}

// ParseLine decodes one line. ok is false for malformed lines.
func ParseLine(line string) (f Frame, ok bool) {
	line = strings.TrimRight(line, "\r\n")
	tag, payload, found := strings.Cut(line, ":")
	if !found || !Tag(tag).valid() || !json.Valid([]byte(payload)) {
		return Frame{}, false
	}
	return Frame{Tag: Tag(tag), Payload: json.RawMessage(payload)}, true
}

// Reader decodes frames line by line, skipping malformed lines.
type Reader struct {
	scanner *bufio.Scanner
	dropped int
}

// NewReader returns a Reader on r.
func NewReader(r io.Reader) *Reader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &Reader{scanner: s}
}

// Next returns the next well-formed frame, or io.EOF at the end.
func (r *Reader) Next() (Frame, error) {
	for r.scanner.Scan() {
		if f, ok := ParseLine(r.scanner.Text()); ok {
			return f, nil
		}
		r.dropped++
	}
	if err := r.scanner.Err(); err != nil {
		return Frame{}, err
	}
	return Frame{}, io.EOF
}

// Dropped is the number of malformed lines skipped so far.
func (r *Reader) Dropped() int { return r.dropped }

// Parse decodes every well-formed frame in r.
func Parse(r io.Reader) ([]Frame, error) {
	rd := NewReader(r)
	var frames []Frame
	for {
		f, err := rd.Next()
		if err == io.EOF {
			return frames, nil
		}
		if err != nil {
			return frames, err
		}
		frames = append(frames, f)
	}
}
