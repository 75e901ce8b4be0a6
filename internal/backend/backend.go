// Package backend defines the language model backends a panel can run on.
// A backend takes a system and a user message and returns generated text.
// Backends are registered by name and bound to a Choice, so the UI only
// ever deals with "hosted" and "local".
package backend

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Choice selects between the paid hosted model and the free local one.
type Choice string

const (
	Hosted Choice = "hosted"
	Local  Choice = "local"
)

// Choices lists every choice in display order.
var Choices = []Choice{Hosted, Local}

// Label returns the human readable label shown in the UI.
func (c Choice) Label() string {
	switch c {
	case Hosted:
		return "Hosted (Paid)"
	case Local:
		return "Local (Free)"
	default:
		return string(c)
	}
}

// DefaultAutoRun reports whether panels on this choice run without an
// explicit trigger. Local calls are free, hosted calls cost money.
func (c Choice) DefaultAutoRun() bool {
	return c == Local
}

// ParseChoice accepts a choice name or its label, case-insensitively.
// An empty string selects Local.
func ParseChoice(s string) (Choice, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Local, nil
	}
	for _, c := range Choices {
		if strings.EqualFold(s, string(c)) || strings.EqualFold(s, c.Label()) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown model choice: %q (want hosted or local)", s)
}

// Request is a single generation request.
type Request struct {
	System string
	User   string
	// Model overrides the backend's default model when set.
	Model string
	// MaxTokens limits the response length (0 means backend default).
	MaxTokens int
}

// LLMBackend is the interface for language model backends.
type LLMBackend interface {
	// Generate produces a completion for the given request.
	Generate(ctx context.Context, req Request) (string, error)

	// Name returns a human-readable name for the backend.
	Name() string

	// Close releases any resources held by the backend.
	Close() error
}

// Registry manages available backends and the choice each one serves.
// It is configured once at startup and only read afterwards.
type Registry struct {
	llmBackends map[string]LLMBackend
	routes      map[Choice]string
}

// NewRegistry creates an empty backend registry.
func NewRegistry() *Registry {
	return &Registry{
		llmBackends: make(map[string]LLMBackend),
		routes:      make(map[Choice]string),
	}
}

// RegisterLLM adds an LLM backend to the registry.
func (r *Registry) RegisterLLM(name string, backend LLMBackend) {
	r.llmBackends[name] = backend
}

// Route binds a choice to a registered backend name.
func (r *Registry) Route(choice Choice, name string) {
	r.routes[choice] = name
}

// GetLLM returns an LLM backend by name.
func (r *Registry) GetLLM(name string) (LLMBackend, bool) {
	b, ok := r.llmBackends[name]
	return b, ok
}

// ForChoice returns the backend routed to choice. A choice without a route
// falls back to a backend registered under the choice's own name.
func (r *Registry) ForChoice(choice Choice) (LLMBackend, bool) {
	return r.GetLLM(r.routeName(choice))
}

func (r *Registry) routeName(choice Choice) string {
	if name, ok := r.routes[choice]; ok {
		return name
	}
	return string(choice)
}

// Modeler is implemented by backends that can name the model they run.
type Modeler interface {
	Model() string
}

// RouteInfo describes which backend serves a choice.
type RouteInfo struct {
	Choice  Choice `json:"choice"`
	Label   string `json:"label"`
	Backend string `json:"backend,omitempty"`
	Model   string `json:"model,omitempty"`
	// Available is false when no backend is registered for the route.
	Available bool `json:"available"`
}

// Routes describes every choice in display order.
func (r *Registry) Routes() []RouteInfo {
	out := make([]RouteInfo, 0, len(Choices))
	for _, c := range Choices {
		info := RouteInfo{Choice: c, Label: c.Label()}
		if b, ok := r.ForChoice(c); ok {
			info.Available = true
			info.Backend = b.Name()
			if m, ok := b.(Modeler); ok {
				info.Model = m.Model()
			}
		}
		out = append(out, info)
	}
	return out
}

// Close releases all backend resources.
func (r *Registry) Close() error {
	for _, b := range r.llmBackends {
		if err := b.Close(); err != nil {
			return err
		}
	}
	return nil
}

// ListLLMBackends returns the sorted names of all registered LLM backends.
func (r *Registry) ListLLMBackends() []string {
	names := make([]string, 0, len(r.llmBackends))
	for name := range r.llmBackends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Func adapts a plain function to LLMBackend. Useful for tests and for
// embedding promptlab with a custom generator.
type Func struct {
	ID string
	Fn func(ctx context.Context, req Request) (string, error)
}

func (f *Func) Generate(ctx context.Context, req Request) (string, error) {
	return f.Fn(ctx, req)
}

func (f *Func) Name() string {
	if f.ID == "" {
		return "func"
	}
	return f.ID
}

func (f *Func) Close() error { return nil }
