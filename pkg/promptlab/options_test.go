package promptlab_test

import (
	"context"
	"testing"

	"github.com/LiboWorks/promptlab/pkg/promptlab"
)

func TestDefaultOptions(t *testing.T) {
	opts := promptlab.DefaultOptions()

	if len(opts.Vars) != 0 {
		t.Errorf("expected no vars, got %v", opts.Vars)
	}
	if len(opts.Generators) != 0 {
		t.Errorf("expected no generators, got %d", len(opts.Generators))
	}
	if opts.ConfiguredMemo {
		t.Error("expected in-memory memo by default")
	}
	if opts.Verbose {
		t.Error("expected Verbose to be false")
	}
}

func TestApplyOptions(t *testing.T) {
	gen := func(context.Context, string, string) (string, error) { return "", nil }

	opts := promptlab.ApplyOptions(
		promptlab.WithVars(map[string]string{"a": "1", "b": "2"}),
		promptlab.WithVar("b", "3"),
		promptlab.WithGenerator(promptlab.BackendHosted, gen),
		promptlab.WithConfiguredMemo(),
		promptlab.WithVerbose(),
	)

	if opts.Vars["a"] != "1" || opts.Vars["b"] != "3" {
		t.Errorf("Vars = %v, want a=1 b=3", opts.Vars)
	}
	if _, ok := opts.Generators[promptlab.BackendHosted]; !ok {
		t.Error("expected hosted generator")
	}
	if _, ok := opts.Generators[promptlab.BackendLocal]; ok {
		t.Error("unexpected local generator")
	}
	if !opts.ConfiguredMemo || !opts.Verbose {
		t.Errorf("flags not applied: %+v", opts)
	}
}

func TestPanelBuilder(t *testing.T) {
	p := promptlab.TemplatePanel("draft", "sys", "user").
		WithVar("tone", "dry").
		WithBackend(promptlab.BackendHosted).
		WithAutoRun(true).
		Build()

	if p.Name != "draft" || p.Mode != promptlab.ModeTemplate {
		t.Errorf("panel = %+v", p)
	}
	if p.Vars["tone"] != "dry" {
		t.Errorf("Vars = %v", p.Vars)
	}
	if p.Backend != promptlab.BackendHosted {
		t.Errorf("Backend = %s", p.Backend)
	}
	if p.AutoRun == nil || !*p.AutoRun {
		t.Error("expected AutoRun override")
	}

	lit := promptlab.LiteralPanel("raw", "s", "u").Build()
	if lit.Mode != promptlab.ModeLiteral || lit.Backend != promptlab.BackendLocal || lit.AutoRun != nil {
		t.Errorf("literal panel = %+v", lit)
	}
}
