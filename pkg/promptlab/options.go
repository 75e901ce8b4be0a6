package promptlab

import "context"

// Version information for promptlab.
const (
	// Version is the current version of promptlab.
	Version = "0.2.0"
)

// Generator produces text for a system and user message. It lets callers
// run chains on any model without configuring a backend.
type Generator func(ctx context.Context, system, user string) (string, error)

// RunOptions configures Run and Preview.
type RunOptions struct {
	// Vars override chain and panel variables.
	Vars map[string]string

	// Generators replace the configured backend for a choice.
	Generators map[Backend]Generator

	// ConfiguredMemo stores outputs in the memo selected by the
	// environment (PROMPTLAB_MEMO) instead of in memory.
	ConfiguredMemo bool

	// Verbose logs every model call to stderr.
	Verbose bool
}

// DefaultOptions returns a new RunOptions with default values.
func DefaultOptions() *RunOptions {
	return &RunOptions{
		Vars:       make(map[string]string),
		Generators: make(map[Backend]Generator),
	}
}

// Option is a functional option for configuring a run.
type Option func(*RunOptions)

// WithVars overrides variables for every panel.
func WithVars(vars map[string]string) Option {
	return func(o *RunOptions) {
		for k, v := range vars {
			o.Vars[k] = v
		}
	}
}

// WithVar overrides a single variable.
func WithVar(name, value string) Option {
	return func(o *RunOptions) {
		o.Vars[name] = value
	}
}

// WithGenerator runs panels on backend through g.
func WithGenerator(backend Backend, g Generator) Option {
	return func(o *RunOptions) {
		o.Generators[backend] = g
	}
}

// WithConfiguredMemo uses the memo store selected by the environment.
func WithConfiguredMemo() Option {
	return func(o *RunOptions) {
		o.ConfiguredMemo = true
	}
}

// WithVerbose enables logging of model calls.
func WithVerbose() Option {
	return func(o *RunOptions) {
		o.Verbose = true
	}
}

// ApplyOptions applies functional options to RunOptions.
func ApplyOptions(opts ...Option) *RunOptions {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}
