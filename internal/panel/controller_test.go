package panel

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/LiboWorks/promptlab/internal/backend"
	"github.com/LiboWorks/promptlab/internal/chain"
	"github.com/LiboWorks/promptlab/internal/invoker"
	"github.com/LiboWorks/promptlab/internal/memo"
	"github.com/LiboWorks/promptlab/internal/prompt"
	"github.com/LiboWorks/promptlab/internal/template"
)

// countingBackend answers with a fixed prefix and counts calls.
type countingBackend struct {
	prefix string
	calls  atomic.Int64
	err    error
}

func (b *countingBackend) Generate(_ context.Context, req backend.Request) (string, error) {
	b.calls.Add(1)
	if b.err != nil {
		return "", b.err
	}
	return b.prefix + req.User, nil
}

func (b *countingBackend) Name() string { return b.prefix }
func (b *countingBackend) Close() error { return nil }

type harness struct {
	local, hosted *countingBackend
	ctrl          *Controller
}

func newHarness() *harness {
	h := &harness{
		local:  &countingBackend{prefix: "local:"},
		hosted: &countingBackend{prefix: "hosted:"},
	}
	r := backend.NewRegistry()
	r.RegisterLLM("local", h.local)
	r.RegisterLLM("hosted", h.hosted)
	h.ctrl = NewController(invoker.New(r), nil)
	return h
}

func toneInput(choice backend.Choice, vars template.Vars) Input {
	return Input{
		Mode:   prompt.ModeTemplate,
		System: "Always speak in a {tone} way.",
		User:   "Tell me about {topic}.",
		Vars:   vars,
		Choice: choice,
	}
}

func summarizeInput(choice backend.Choice) Input {
	return Input{System: "You are an editor.", User: "Summarize: {prompt_1}", Choice: choice}
}

func TestRenderStates(t *testing.T) {
	full := template.Vars{"tone": "friendly", "topic": "science"}
	tests := []struct {
		name  string
		input Input
		trig  Trigger
		want  State
	}{
		{"empty", NewInput(), NoTrigger, AwaitingInput},
		{"only system", Input{System: "s", Choice: backend.Local}, NoTrigger, AwaitingInput},
		{"missing variable", toneInput(backend.Local, template.Vars{"tone": "friendly"}), NoTrigger, Blocked},
		{"malformed", Input{System: "s", User: "oops {", Choice: backend.Local}, NoTrigger, Blocked},
		{"local auto-runs", toneInput(backend.Local, full), NoTrigger, Executed},
		{"hosted waits", toneInput(backend.Hosted, full), NoTrigger, Ready},
		{"hosted explicit run", toneInput(backend.Hosted, full), RunPanel(1), Executed},
		{"hosted run all", toneInput(backend.Hosted, full), RunAll(), Executed},
		{"run of another panel", toneInput(backend.Hosted, full), RunPanel(2), Ready},
		{"local auto-run disabled", func() Input { in := toneInput(backend.Local, full); in.AutoRun = Bool(false); return in }(), NoTrigger, Ready},
		{"hosted auto-run enabled", func() Input { in := toneInput(backend.Hosted, full); in.AutoRun = Bool(true); return in }(), NoTrigger, Executed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			views := h.ctrl.Render(context.Background(), chain.New(), []Input{tt.input}, tt.trig)
			if len(views) != 1 {
				t.Fatalf("expected 1 view, got %d", len(views))
			}
			if views[0].State != tt.want {
				t.Errorf("state = %v, want %v (remediation %v)", views[0].State, tt.want, views[0].Remediation)
			}
		})
	}
}

func TestRenderResolvedPrompts(t *testing.T) {
	h := newHarness()
	v := h.ctrl.Render(context.Background(), chain.New(),
		[]Input{toneInput(backend.Local, template.Vars{"tone": "friendly", "topic": "science"})}, NoTrigger)[0]

	if v.System != "Always speak in a friendly way." || v.User != "Tell me about science." {
		t.Errorf("compiled = %q / %q", v.System, v.User)
	}
	if v.Output != "local:Tell me about science." {
		t.Errorf("output = %q", v.Output)
	}
	if !v.Final || !v.CanAppend {
		t.Error("executed final panel should offer append")
	}
}

func TestRenderBlockedRemediation(t *testing.T) {
	h := newHarness()
	v := h.ctrl.Render(context.Background(), chain.New(),
		[]Input{toneInput(backend.Local, template.Vars{"tone": "friendly"})}, NoTrigger)[0]

	if v.System != "" || v.User != "" {
		t.Error("blocked panel must not expose compiled prompts")
	}
	if len(v.Remediation) != 1 || v.Remediation[0] != "Add values for: topic" {
		t.Errorf("remediation = %v", v.Remediation)
	}
	if h.local.calls.Load() != 0 {
		t.Error("blocked panel must not call the model")
	}
}

func TestChainedPanels(t *testing.T) {
	h := newHarness()
	st := chain.New()
	st.AppendPanel()
	inputs := []Input{
		toneInput(backend.Local, template.Vars{"tone": "friendly", "topic": "science"}),
		summarizeInput(backend.Local),
	}

	views := h.ctrl.Render(context.Background(), st, inputs, NoTrigger)
	if views[0].State != Executed || views[1].State != Executed {
		t.Fatalf("states = %v, %v", views[0].State, views[1].State)
	}
	if views[1].User != "Summarize: local:Tell me about science." {
		t.Errorf("panel 2 user = %q", views[1].User)
	}
	if views[0].CanAppend || !strings.Contains(views[0].Hint, "{prompt_1}") {
		t.Errorf("panel 1 should hint at {prompt_1}, got %q", views[0].Hint)
	}
	if !views[1].CanAppend {
		t.Error("final panel should offer append")
	}
}

func TestChainedPanelWaitsForEarlierRun(t *testing.T) {
	h := newHarness()
	st := chain.New()
	st.AppendPanel()
	inputs := []Input{
		toneInput(backend.Hosted, template.Vars{"tone": "friendly", "topic": "science"}),
		summarizeInput(backend.Local),
	}

	views := h.ctrl.Render(context.Background(), st, inputs, NoTrigger)
	if views[0].State != Ready {
		t.Fatalf("panel 1 state = %v, want ready", views[0].State)
	}
	v := views[1]
	if v.State != Blocked || len(v.MissingChained) != 1 || v.MissingChained[0] != "prompt_1" {
		t.Fatalf("panel 2 = %v missing %v", v.State, v.MissingChained)
	}
	if !strings.Contains(v.Remediation[0], "Run prompt 1 first") {
		t.Errorf("remediation = %v", v.Remediation)
	}

	// Running panel 1 unblocks panel 2 in the same pass
	views = h.ctrl.Render(context.Background(), st, inputs, RunPanel(1))
	if views[0].State != Executed || views[1].State != Executed {
		t.Errorf("after run: %v, %v", views[0].State, views[1].State)
	}
}

func TestForwardReferenceNeverResolves(t *testing.T) {
	h := newHarness()
	st := chain.New()
	st.AppendPanel()
	inputs := []Input{
		{System: "s", User: "Use {prompt_2} and {prompt_1}", Choice: backend.Local},
		{System: "s", User: "second", Choice: backend.Local},
	}

	views := h.ctrl.Render(context.Background(), st, inputs, RunAll())
	if views[0].State != Blocked {
		t.Fatalf("state = %v", views[0].State)
	}
	joined := strings.Join(views[0].Remediation, "\n")
	if !strings.Contains(joined, "{prompt_1} is not an earlier panel") || !strings.Contains(joined, "{prompt_2} is not an earlier panel") {
		t.Errorf("remediation = %v", views[0].Remediation)
	}
	if views[1].State != Executed {
		t.Errorf("panel 2 should degrade independently, got %v", views[1].State)
	}
}

func TestRunGuardAvoidsRepeatBilling(t *testing.T) {
	h := newHarness()
	st := chain.New()
	inputs := []Input{toneInput(backend.Hosted, template.Vars{"tone": "dry", "topic": "tax"})}

	first := h.ctrl.Render(context.Background(), st, inputs, RunPanel(1))[0]
	if first.State != Executed {
		t.Fatalf("state = %v", first.State)
	}

	// Unrelated re-renders keep showing the output without billing again
	for i := 0; i < 3; i++ {
		v := h.ctrl.Render(context.Background(), st, inputs, NoTrigger)[0]
		if v.State != Executed || v.Output != first.Output {
			t.Fatalf("re-render %d: %v %q", i, v.State, v.Output)
		}
	}
	// An explicit re-run hits the memo
	h.ctrl.Render(context.Background(), st, inputs, RunPanel(1))
	if n := h.hosted.calls.Load(); n != 1 {
		t.Errorf("hosted backend called %d times, want 1", n)
	}

	// Changed inputs wait for a new explicit run and drop the stale output
	inputs[0].Vars["topic"] = "art"
	v := h.ctrl.Render(context.Background(), st, inputs, NoTrigger)[0]
	if v.State != Ready || v.Output != "" {
		t.Errorf("changed inputs: %v %q", v.State, v.Output)
	}
	if _, ok := st.Output(1); ok {
		t.Error("stale output should be cleared")
	}

	// Switching back to the earlier inputs restores the earlier output
	inputs[0].Vars["topic"] = "tax"
	if v := h.ctrl.Render(context.Background(), st, inputs, NoTrigger)[0]; v.State != Executed {
		t.Errorf("restored inputs: %v", v.State)
	}
}

// lossyStore never keeps what it is given.
type lossyStore struct{ *memo.Memory }

func (*lossyStore) Put(context.Context, string, string) error {
	return errors.New("disk full")
}

func TestRunGuardNeverRebillsOnMemoMiss(t *testing.T) {
	hosted := &countingBackend{prefix: "hosted:"}
	r := backend.NewRegistry()
	r.RegisterLLM("hosted", hosted)
	ctrl := NewController(invoker.New(r, invoker.WithStore(&lossyStore{memo.NewMemory()})), nil)

	st := chain.New()
	inputs := []Input{toneInput(backend.Hosted, template.Vars{"tone": "dry", "topic": "tax"})}

	if v := ctrl.Render(context.Background(), st, inputs, RunPanel(1))[0]; v.State != Executed {
		t.Fatalf("explicit run: %v", v.State)
	}
	for i := 0; i < 3; i++ {
		v := ctrl.Render(context.Background(), st, inputs, NoTrigger)[0]
		if v.State != Ready {
			t.Errorf("re-render %d: state = %v, want ready", i, v.State)
		}
	}
	if n := hosted.calls.Load(); n != 1 {
		t.Errorf("hosted backend called %d times, want 1", n)
	}

	// An explicit run is still allowed to pay again
	if v := ctrl.Render(context.Background(), st, inputs, RunPanel(1))[0]; v.State != Executed {
		t.Errorf("second explicit run: %v", v.State)
	}
	if n := hosted.calls.Load(); n != 2 {
		t.Errorf("hosted backend called %d times, want 2", n)
	}
}

func TestFailedPanelBlocksSuccessor(t *testing.T) {
	h := newHarness()
	h.local.err = errors.New("dial tcp 127.0.0.1:11434: connection refused")
	st := chain.New()
	st.AppendPanel()
	st.AppendPanel()
	inputs := []Input{
		{System: "s", User: "first", Choice: backend.Hosted},
		{System: "s", User: "second", Choice: backend.Local},
		{System: "s", User: "{prompt_2}", Choice: backend.Hosted},
	}

	views := h.ctrl.Render(context.Background(), st, inputs, RunAll())
	if views[0].State != Executed {
		t.Errorf("panel 1 = %v", views[0].State)
	}
	if views[1].State != Failed {
		t.Fatalf("panel 2 = %v", views[1].State)
	}
	var ie *invoker.InvocationError
	if !errors.As(views[1].Err, &ie) || !strings.Contains(ie.Error(), "connection refused") {
		t.Errorf("panel 2 error = %v", views[1].Err)
	}
	if !views[1].Compiled() {
		t.Error("failed panel still shows its compiled prompts")
	}
	if views[2].State != Blocked {
		t.Errorf("panel 3 = %v, want blocked", views[2].State)
	}
}

func TestRenderPadsMissingInputs(t *testing.T) {
	h := newHarness()
	st := chain.New()
	st.AppendPanel()

	views := h.ctrl.Render(context.Background(), st, nil, NoTrigger)
	if len(views) != 2 {
		t.Fatalf("expected 2 views, got %d", len(views))
	}
	for _, v := range views {
		if v.State != AwaitingInput {
			t.Errorf("panel %d = %v", v.Position, v.State)
		}
	}
}

func TestApply(t *testing.T) {
	h := newHarness()
	st := chain.New()
	inputs := []Input{{System: "s", User: "u", Choice: backend.Hosted}}

	inputs, err := h.ctrl.Apply(st, inputs, Append)
	if err != nil {
		t.Fatal(err)
	}
	if st.Count() != 2 || len(inputs) != 2 {
		t.Fatalf("count=%d inputs=%d", st.Count(), len(inputs))
	}
	if inputs[1].Choice != backend.Hosted || inputs[1].System != "" {
		t.Errorf("appended input = %+v", inputs[1])
	}

	inputs, err = h.ctrl.Apply(st, inputs, Remove)
	if err != nil || st.Count() != 1 || len(inputs) != 1 {
		t.Fatalf("remove: err=%v count=%d inputs=%d", err, st.Count(), len(inputs))
	}

	inputs, err = h.ctrl.Apply(st, inputs, Remove)
	if !errors.Is(err, chain.ErrPanelFloor) {
		t.Errorf("expected ErrPanelFloor, got %v", err)
	}
	if st.Count() != 1 || len(inputs) != 1 || inputs[0].User != "u" {
		t.Errorf("floor violation changed state: count=%d inputs=%+v", st.Count(), inputs)
	}

	if _, err := h.ctrl.Apply(st, inputs, Action("shuffle")); err == nil {
		t.Error("expected error for unknown action")
	}
}

func TestEffectiveAutoRun(t *testing.T) {
	tests := []struct {
		in   Input
		want bool
	}{
		{Input{Choice: backend.Local}, true},
		{Input{Choice: backend.Hosted}, false},
		{Input{}, true},
		{Input{Choice: backend.Local, AutoRun: Bool(false)}, false},
		{Input{Choice: backend.Hosted, AutoRun: Bool(true)}, true},
	}
	for _, tt := range tests {
		if got := tt.in.EffectiveAutoRun(); got != tt.want {
			t.Errorf("EffectiveAutoRun(%+v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTriggerRuns(t *testing.T) {
	if NoTrigger.Runs(1) {
		t.Error("NoTrigger runs nothing")
	}
	if !RunPanel(2).Runs(2) || RunPanel(2).Runs(1) {
		t.Error("RunPanel runs only its position")
	}
	if !RunAll().Runs(7) {
		t.Error("RunAll runs every position")
	}
}
