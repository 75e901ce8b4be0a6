// Package promptlab provides a public API for building and running prompt
// chains.
//
// A chain is a sequence of panels, each a system/user prompt pair. Panels
// fill {name} placeholders from their variable table, and later panels can
// use the output of panel N as {prompt_N}.
//
// Example usage:
//
//	chain := promptlab.NewChain("explain").
//		SetVar("topic", "tides")
//
//	chain.AddPanel(promptlab.TemplatePanel("draft",
//		"You are a {tone} tutor.",
//		"Explain {topic}.").
//		WithVar("tone", "patient").
//		Build())
//
//	chain.AddPanel(promptlab.TemplatePanel("summary",
//		"You are an editor.",
//		"Summarize in one line: {prompt_1}").
//		WithBackend(promptlab.BackendHosted).
//		Build())
//
//	result, err := promptlab.Run(ctx, chain)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(result.Panels[1].Output)
//
// Chains can also be loaded from YAML:
//
//	chains, err := promptlab.LoadChains("chains.yaml")
package promptlab

import (
	"context"
	"errors"
	"fmt"

	"github.com/LiboWorks/promptlab/internal/backend"
	"github.com/LiboWorks/promptlab/internal/chain"
	"github.com/LiboWorks/promptlab/internal/chainfile"
	"github.com/LiboWorks/promptlab/internal/config"
	"github.com/LiboWorks/promptlab/internal/invoker"
	"github.com/LiboWorks/promptlab/internal/logger"
	"github.com/LiboWorks/promptlab/internal/memo"
	"github.com/LiboWorks/promptlab/internal/panel"
	"github.com/LiboWorks/promptlab/internal/template"
)

// Status is where a panel ended up.
type Status string

const (
	StatusAwaitingInput Status = "awaiting_input"
	StatusBlocked       Status = "blocked"
	StatusReady         Status = "ready"
	StatusExecuted      Status = "executed"
	StatusFailed        Status = "failed"
)

// PanelResult is the outcome of one panel.
type PanelResult struct {
	Position int
	Name     string
	Backend  Backend
	Status   Status

	// System and User are the compiled prompts, empty unless every
	// placeholder resolved.
	System string
	User   string

	MissingOrdinary []string
	MissingChained  []string
	// Messages explain what to fix when the panel is blocked.
	Messages []string

	Output string
	Err    error
}

// Stats counts model calls made during a run.
type Stats struct {
	Hits         int64
	Misses       int64
	BackendCalls int64
	Failures     int64
}

// RunResult is the outcome of running a chain.
type RunResult struct {
	Panels []PanelResult
	Stats  Stats
	// Memo names the store that held outputs.
	Memo string
}

// Failed returns the panels that did not execute.
func (r *RunResult) Failed() []PanelResult {
	var out []PanelResult
	for _, p := range r.Panels {
		if p.Status != StatusExecuted {
			out = append(out, p)
		}
	}
	return out
}

// LoadChains reads every chain in a YAML file.
func LoadChains(path string) ([]*Chain, error) {
	ics, err := chainfile.LoadChains(path)
	if err != nil {
		return nil, err
	}
	chains := make([]*Chain, len(ics))
	for i, ic := range ics {
		chains[i] = fromInternalChain(ic)
	}
	return chains, nil
}

// LoadChain reads the chain called name from a YAML file, or the first
// chain when name is empty.
func LoadChain(path, name string) (*Chain, error) {
	ics, err := chainfile.LoadChains(path)
	if err != nil {
		return nil, err
	}
	ic, err := chainfile.Select(ics, name)
	if err != nil {
		return nil, err
	}
	return fromInternalChain(*ic), nil
}

// Validate checks a chain without running it.
func Validate(c *Chain) error {
	ic := c.toInternal()
	return ic.Validate()
}

// Preview compiles every panel without calling a model. Panels that use an
// earlier panel's output report it as missing.
func Preview(c *Chain, opts ...Option) ([]PanelResult, error) {
	o := ApplyOptions(opts...)
	inputs, err := inputsFor(c, o)
	if err != nil {
		return nil, err
	}
	for i := range inputs {
		inputs[i].AutoRun = panel.Bool(false)
	}

	st := stateFor(len(inputs))
	views := panel.NewController(previewInvoker{}, nil).Render(context.Background(), st, inputs, panel.NoTrigger)
	return toResults(views), nil
}

// Run executes every panel in order and returns their results. Panel
// failures are reported in the results; the error is only set when the
// chain could not be run at all.
func Run(ctx context.Context, c *Chain, opts ...Option) (*RunResult, error) {
	o := ApplyOptions(opts...)
	inputs, err := inputsFor(c, o)
	if err != nil {
		return nil, err
	}

	log := logger.Nop()
	if o.Verbose {
		if log, err = logger.New("dev"); err != nil {
			return nil, err
		}
		defer log.Sync()
	}

	registry, err := registryFor(inputs, o)
	if err != nil {
		return nil, err
	}
	defer registry.Close()

	var store memo.Store = memo.NewMemory()
	if o.ConfiguredMemo {
		if store, err = memo.Open(ctx, config.Get()); err != nil {
			return nil, fmt.Errorf("failed to open memo: %w", err)
		}
	}

	inv := invoker.New(registry, invoker.WithStore(store), invoker.WithLogger(log))
	defer inv.Close()

	st := stateFor(len(inputs))
	views := panel.NewController(inv, log).Render(ctx, st, inputs, panel.RunAll())

	s := inv.Stats()
	return &RunResult{
		Panels: toResults(views),
		Stats: Stats{
			Hits:         s.Hits,
			Misses:       s.Misses,
			BackendCalls: s.BackendCalls,
			Failures:     s.Failures,
		},
		Memo: inv.StoreName(),
	}, nil
}

func inputsFor(c *Chain, o *RunOptions) ([]panel.Input, error) {
	if c == nil || len(c.Panels) == 0 {
		return nil, errors.New("chain has no panels")
	}
	ic := c.toInternal()
	return ic.Inputs(template.Vars(o.Vars))
}

func stateFor(n int) *chain.State {
	st := chain.New()
	for st.Count() < n {
		st.AppendPanel()
	}
	return st
}

// registryFor routes each backend to its generator. The configured
// backends are only built when some panel uses a backend without one.
func registryFor(inputs []panel.Input, o *RunOptions) (*backend.Registry, error) {
	needConfig := false
	for _, in := range inputs {
		if _, ok := o.Generators[Backend(in.Choice)]; !ok {
			needConfig = true
		}
	}

	r := backend.NewRegistry()
	if needConfig {
		var err error
		if r, err = backend.FromConfig(config.Get()); err != nil {
			return nil, err
		}
	}

	for b, g := range o.Generators {
		g := g
		name := "generator:" + string(b)
		r.RegisterLLM(name, &backend.Func{
			ID: name,
			Fn: func(ctx context.Context, req backend.Request) (string, error) {
				return g(ctx, req.System, req.User)
			},
		})
		r.Route(backend.Choice(b), name)
	}
	return r, nil
}

func toResults(views []panel.View) []PanelResult {
	out := make([]PanelResult, len(views))
	for i, v := range views {
		out[i] = PanelResult{
			Position:        v.Position,
			Name:            v.Input.Name,
			Backend:         Backend(v.Input.Choice),
			Status:          statusOf(v.State),
			System:          v.System,
			User:            v.User,
			MissingOrdinary: v.MissingOrdinary,
			MissingChained:  v.MissingChained,
			Messages:        v.Remediation,
			Output:          v.Output,
			Err:             v.Err,
		}
	}
	return out
}

func statusOf(s panel.State) Status {
	switch s {
	case panel.Blocked:
		return StatusBlocked
	case panel.Ready:
		return StatusReady
	case panel.Executed:
		return StatusExecuted
	case panel.Failed:
		return StatusFailed
	default:
		return StatusAwaitingInput
	}
}

var errPreview = errors.New("preview does not call models")

type previewInvoker struct{}

func (previewInvoker) Invoke(context.Context, string, string, backend.Choice) (string, error) {
	return "", errPreview
}

func (previewInvoker) Cached(context.Context, string, string, backend.Choice) (string, bool) {
	return "", false
}
