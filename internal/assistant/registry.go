// Package assistant runs the bookkeeping assistant: it asks an external
// completer what to do, executes read tools directly and holds mutating
// tools until the user confirms them.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// Tool is one capability the completer may call.
type Tool struct {
	Name        string
	Description string
	// Mutates marks tools that change booked data. They only run after
	// an explicit confirmation.
	Mutates bool
	Run     func(ctx context.Context, params json.RawMessage) (any, error)
	// Summarize describes a pending call to the user. Optional.
	Summarize func(params json.RawMessage) string
}

// ToolSpec is the part of a Tool advertised to the completer.
type ToolSpec struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Mutates     bool   `json:"mutates"`
}

// Registry is the immutable set of tools available to the assistant.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry builds a registry. Tool names must be unique and every tool
// needs a Run function.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if t.Name == "" || t.Run == nil {
			return nil, fmt.Errorf("tool %q: name and run function are required", t.Name)
		}
		if _, dup := r.tools[t.Name]; dup {
			return nil, fmt.Errorf("tool %q registered twice", t.Name)
		}
		r.tools[t.Name] = t
	}
	return r, nil
}

// Get returns the tool called name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Specs lists the tools sorted by name.
func (r *Registry) Specs() []ToolSpec {
	specs := make([]ToolSpec, 0, len(r.tools))
	for _, t := range r.tools {
		specs = append(specs, ToolSpec{Name: t.Name, Description: t.Description, Mutates: t.Mutates})
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs
}

func (t Tool) summary(params json.RawMessage) string {
	if t.Summarize != nil {
		return t.Summarize(params)
	}
	return t.Description
}
