// Package panel recomputes a sequence of prompt panels against a chain
// state. Every trigger (a form submit, a CLI run) renders all panels top to
// bottom; nothing is remembered between renders except the chain state.
package panel

import (
	"fmt"
	"strings"

	"github.com/LiboWorks/promptlab/internal/backend"
	"github.com/LiboWorks/promptlab/internal/prompt"
	"github.com/LiboWorks/promptlab/internal/template"
)

// Input is what the user entered for one panel.
type Input struct {
	Name   string
	Mode   prompt.Mode
	System string
	User   string
	Vars   template.Vars
	Choice backend.Choice
	// AutoRun overrides the choice's default when set.
	AutoRun *bool
}

// NewInput returns an empty template-mode panel on the local backend.
func NewInput() Input {
	return Input{Mode: prompt.ModeTemplate, Choice: backend.Local}
}

// EffectiveAutoRun resolves the override against the backend default.
func (in Input) EffectiveAutoRun() bool {
	if in.AutoRun != nil {
		return *in.AutoRun
	}
	return in.choice().DefaultAutoRun()
}

func (in Input) choice() backend.Choice {
	if in.Choice == "" {
		return backend.Local
	}
	return in.Choice
}

// Bool returns a pointer to b, for AutoRun overrides.
func Bool(b bool) *bool { return &b }

// State is where a panel ended up after a render.
type State int

const (
	// AwaitingInput means the system or user text is still empty.
	AwaitingInput State = iota
	// Blocked means the templates did not compile.
	Blocked
	// Ready means the prompts compiled and wait for an explicit run.
	Ready
	// Executed means an output exists for the current prompts.
	Executed
	// Failed means the model call returned an error.
	Failed
)

func (s State) String() string {
	switch s {
	case AwaitingInput:
		return "awaiting input"
	case Blocked:
		return "blocked"
	case Ready:
		return "ready"
	case Executed:
		return "executed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// View is the rendered result of one panel.
type View struct {
	Position int
	Input    Input
	State    State

	// System and User are the compiled prompts, set only once every
	// placeholder resolved.
	System string
	User   string

	MissingOrdinary []string
	MissingChained  []string
	Remediation     []string

	Output string
	Err    error

	// Final is true for the last panel in the chain.
	Final bool
	// CanAppend offers a successor panel; only the executed final panel does.
	CanAppend bool
	// Hint tells the user how to reference this panel's output.
	Hint string
}

// ChainedVar is the placeholder later panels use for this panel's output.
func (v View) ChainedVar() string {
	return "{" + prompt.ChainedName(v.Position) + "}"
}

// Compiled reports whether the view carries compiled prompts.
func (v View) Compiled() bool {
	return v.State == Ready || v.State == Executed || v.State == Failed
}

// remediation turns missing names into messages. Chained names pointing at
// the panel itself or a later one can never resolve.
func remediation(position int, inc *prompt.Incomplete) []string {
	var msgs []string
	if len(inc.MissingOrdinary) > 0 {
		msgs = append(msgs, "Add values for: "+strings.Join(inc.MissingOrdinary, ", "))
	}
	for _, name := range inc.MissingChained {
		n, _ := prompt.ChainedRef(name)
		if n >= position {
			msgs = append(msgs, fmt.Sprintf("{%s} is not an earlier panel; panel %d can only use outputs of panels before it.", name, position))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("Run prompt %d first so {%s} has a value.", n, name))
	}
	return msgs
}

func malformedMessage(m *prompt.Malformed) string {
	return fmt.Sprintf("Fix the %s template: %v", m.Field, m.Err)
}
