package panel

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/LiboWorks/promptlab/internal/backend"
	"github.com/LiboWorks/promptlab/internal/chain"
	"github.com/LiboWorks/promptlab/internal/logger"
	"github.com/LiboWorks/promptlab/internal/prompt"
)

// Invoker runs a compiled prompt pair on a model choice.
type Invoker interface {
	Invoke(ctx context.Context, system, user string, choice backend.Choice) (string, error)
	// Cached returns a stored output without calling a backend.
	Cached(ctx context.Context, system, user string, choice backend.Choice) (string, bool)
}

// Trigger is the user action that started a render.
type Trigger struct {
	all      bool
	position int
}

// NoTrigger renders without an explicit run; only auto-run panels and
// panels whose exact prompts already ran produce output.
var NoTrigger = Trigger{}

// RunPanel explicitly runs the panel at position.
func RunPanel(position int) Trigger { return Trigger{position: position} }

// RunAll explicitly runs every panel.
func RunAll() Trigger { return Trigger{all: true} }

// Runs reports whether the trigger explicitly runs position.
func (t Trigger) Runs(position int) bool {
	return t.all || (t.position > 0 && t.position == position)
}

func (t Trigger) String() string {
	switch {
	case t.all:
		return "run all"
	case t.position > 0:
		return fmt.Sprintf("run %d", t.position)
	default:
		return "none"
	}
}

// Action is a structural change to the panel sequence.
type Action string

const (
	Append Action = "append"
	Remove Action = "remove"
)

// Controller renders panels and applies structural actions.
type Controller struct {
	inv Invoker
	log *logger.Logger
}

// NewController creates a controller. A nil logger discards logs.
func NewController(inv Invoker, log *logger.Logger) *Controller {
	if log == nil {
		log = logger.Nop()
	}
	return &Controller{inv: inv, log: log}
}

// Render recomputes every panel of st in order. inputs are matched to
// positions; missing entries render as empty panels. A panel that does not
// end up Executed has its output cleared so later panels cannot resolve
// against it.
func (c *Controller) Render(ctx context.Context, st *chain.State, inputs []Input, trig Trigger) []View {
	n := st.Count()
	views := make([]View, 0, n)
	for pos := 1; pos <= n; pos++ {
		in := NewInput()
		if pos <= len(inputs) {
			in = inputs[pos-1]
		}
		in.Choice = in.choice()

		v := c.renderOne(ctx, st, pos, in, trig)
		v.Final = pos == n
		if v.State == Executed {
			if v.Final {
				v.CanAppend = true
			} else {
				v.Hint = fmt.Sprintf("Later panels can use this output as %s.", v.ChainedVar())
			}
		} else {
			st.ClearOutput(pos)
		}
		views = append(views, v)
	}
	return views
}

func (c *Controller) renderOne(ctx context.Context, st *chain.State, pos int, in Input, trig Trigger) View {
	v := View{Position: pos, Input: in}

	if strings.TrimSpace(in.System) == "" || strings.TrimSpace(in.User) == "" {
		v.State = AwaitingInput
		return v
	}

	res := prompt.Compile(prompt.Request{
		Mode:   in.Mode,
		System: in.System,
		User:   in.User,
		Vars:   in.Vars,
		Prior:  st.PriorOutputs(pos),
	})

	var resolved *prompt.Resolved
	switch r := res.(type) {
	case *prompt.Malformed:
		v.State = Blocked
		v.Err = r.Err
		v.Remediation = []string{malformedMessage(r)}
		return v
	case *prompt.Incomplete:
		v.State = Blocked
		v.MissingOrdinary = r.MissingOrdinary
		v.MissingChained = r.MissingChained
		v.Remediation = remediation(pos, r)
		return v
	case *prompt.Resolved:
		resolved = r
	}

	v.System, v.User = resolved.System, resolved.User

	explicit := trig.Runs(pos)
	auto := in.EffectiveAutoRun()
	seen := st.HasRunBefore(v.System, v.User, in.Choice)
	if !explicit && !auto && !seen {
		v.State = Ready
		return v
	}

	// Already-run prompts are only replayed from the memo; a miss leaves
	// the panel Ready.
	if !explicit && !auto {
		out, ok := c.inv.Cached(ctx, v.System, v.User, in.Choice)
		if !ok {
			c.log.Debug("run guard hit without memo entry", "panel", pos, "choice", in.Choice)
			v.State = Ready
			return v
		}
		st.RecordOutput(pos, out)
		v.State = Executed
		v.Output = out
		return v
	}

	c.log.Debug("running panel", "panel", pos, "choice", in.Choice, "explicit", explicit, "auto", auto, "seen", seen)
	out, err := c.inv.Invoke(ctx, v.System, v.User, in.Choice)
	if err != nil {
		v.State = Failed
		v.Err = err
		c.log.Warn("panel run failed", "panel", pos, "error", err)
		return v
	}

	st.MarkRun(v.System, v.User, in.Choice)
	st.RecordOutput(pos, out)
	v.State = Executed
	v.Output = out
	return v
}

// Apply performs a structural action and returns the inputs realigned with
// the new panel count. Removing the only panel returns chain.ErrPanelFloor
// and leaves everything unchanged.
func (c *Controller) Apply(st *chain.State, inputs []Input, action Action) ([]Input, error) {
	inputs = Align(inputs, st.Count())

	switch action {
	case Append:
		st.AppendPanel()
		next := NewInput()
		if len(inputs) > 0 {
			next.Choice = inputs[len(inputs)-1].Choice
		}
		return append(inputs, next), nil
	case Remove:
		if err := st.RemoveLastPanel(); err != nil {
			if errors.Is(err, chain.ErrPanelFloor) {
				c.log.Debug("ignored removal of the last panel")
			}
			return inputs, err
		}
		return inputs[:st.Count()], nil
	default:
		return inputs, fmt.Errorf("unknown panel action %q", action)
	}
}

// Align pads or truncates inputs to exactly n entries.
func Align(inputs []Input, n int) []Input {
	out := make([]Input, n)
	copy(out, inputs)
	for i := len(inputs); i < n; i++ {
		out[i] = NewInput()
	}
	return out
}
