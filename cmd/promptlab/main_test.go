package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/LiboWorks/promptlab/pkg/promptlab"
)

func TestPlainPrinter(t *testing.T) {
	var buf bytes.Buffer
	p, err := newPrinter(&buf, true)
	if err != nil {
		t.Fatalf("newPrinter() error = %v", err)
	}

	p.Panel(promptlab.PanelResult{
		Position: 1,
		Name:     "draft",
		Backend:  promptlab.BackendLocal,
		Status:   promptlab.StatusExecuted,
		Output:   "**bold** answer",
	}, false)
	p.Panel(promptlab.PanelResult{
		Position: 2,
		Backend:  promptlab.BackendHosted,
		Status:   promptlab.StatusBlocked,
		Messages: []string{"Run prompt 1 first so {prompt_1} has a value."},
	}, false)
	p.Panel(promptlab.PanelResult{
		Position: 3,
		Backend:  promptlab.BackendHosted,
		Status:   promptlab.StatusFailed,
		Err:      errors.New("quota exceeded"),
	}, false)

	out := buf.String()
	for _, want := range []string{
		"Panel 1 (draft) · Local (Free)",
		"**bold** answer",
		"Panel 2 · Hosted (Paid)",
		"Run prompt 1 first",
		"Model call failed: quota exceeded",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPreviewPrinterShowsPrompts(t *testing.T) {
	var buf bytes.Buffer
	p, _ := newPrinter(&buf, true)
	p.Panel(promptlab.PanelResult{
		Position: 1,
		Backend:  promptlab.BackendLocal,
		Status:   promptlab.StatusReady,
		System:   "Be brief.",
		User:     "Explain tides.",
	}, true)

	out := buf.String()
	if !strings.Contains(out, "system:\nBe brief.") || !strings.Contains(out, "user:\nExplain tides.") {
		t.Errorf("preview output = %q", out)
	}
}
