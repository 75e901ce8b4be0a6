package prompt

import (
	"errors"
	"reflect"
	"testing"

	"github.com/LiboWorks/promptlab/internal/template"
)

const (
	toneSystem = "Always speak in a {tone} way."
	topicUser  = "Tell me about {topic}."
)

func TestCompileScenarios(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want Result
	}{
		{
			name: "fully resolved",
			req: Request{
				System: toneSystem,
				User:   topicUser,
				Vars:   template.Vars{"tone": "friendly", "topic": "science"},
			},
			want: &Resolved{System: "Always speak in a friendly way.", User: "Tell me about science."},
		},
		{
			name: "missing ordinary variable",
			req: Request{
				System: toneSystem,
				User:   topicUser,
				Vars:   template.Vars{"tone": "friendly"},
			},
			want: &Incomplete{MissingOrdinary: []string{"topic"}},
		},
		{
			name: "missing chained variable",
			req: Request{
				System: "You are an editor.",
				User:   "Summarize: {prompt_1}",
			},
			want: &Incomplete{MissingChained: []string{"prompt_1"}},
		},
		{
			name: "chained variable from prior output",
			req: Request{
				System: "You are an editor.",
				User:   "Summarize: {prompt_1}",
				Prior:  template.Vars{"prompt_1": "long text"},
			},
			want: &Resolved{System: "You are an editor.", User: "Summarize: long text"},
		},
		{
			name: "both kinds missing",
			req: Request{
				System: "{style}",
				User:   "{prompt_10} {prompt_2} {b} {a}",
			},
			want: &Incomplete{
				MissingOrdinary: []string{"a", "b", "style"},
				MissingChained:  []string{"prompt_2", "prompt_10"},
			},
		},
		{
			name: "blank value counts as missing",
			req: Request{
				System: toneSystem,
				User:   topicUser,
				Vars:   template.Vars{"tone": "friendly", "topic": ""},
			},
			want: &Incomplete{MissingOrdinary: []string{"topic"}},
		},
		{
			name: "reserved names in the panel table are ignored",
			req: Request{
				System: "s",
				User:   "{prompt_1}",
				Vars:   template.Vars{"prompt_1": "forged"},
			},
			want: &Incomplete{MissingChained: []string{"prompt_1"}},
		},
		{
			name: "literal mode skips placeholders",
			req: Request{
				Mode:   ModeLiteral,
				System: "Keep {braces}",
				User:   "as } typed",
			},
			want: &Resolved{System: "Keep {braces}", User: "as } typed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compile(tt.req)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Compile() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestCompileMalformed(t *testing.T) {
	got := Compile(Request{System: "fine", User: "broken {"})
	m, ok := got.(*Malformed)
	if !ok {
		t.Fatalf("expected *Malformed, got %#v", got)
	}
	if m.Field != "user" {
		t.Errorf("Field = %q, want user", m.Field)
	}
	var se *template.SyntaxError
	if !errors.As(m.Err, &se) {
		t.Errorf("expected wrapped *template.SyntaxError, got %v", m.Err)
	}
}

func TestCompileIsPure(t *testing.T) {
	req := Request{
		System: toneSystem,
		User:   "{topic} {prompt_1} {prompt_2}",
		Vars:   template.Vars{"tone": "dry", "topic": "x"},
		Prior:  template.Vars{"prompt_1": "one"},
	}
	first := Compile(req)
	for i := 0; i < 20; i++ {
		if got := Compile(req); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d: Compile() = %#v, want %#v", i, got, first)
		}
	}
	if len(req.Vars) != 2 || len(req.Prior) != 1 {
		t.Error("Compile() must not modify its input tables")
	}
}

func TestChainedRef(t *testing.T) {
	tests := []struct {
		name string
		n    int
		ok   bool
	}{
		{"prompt_1", 1, true},
		{"prompt_12", 12, true},
		{"prompt_0", 0, false},
		{"prompt_01", 0, false},
		{"prompt_", 0, false},
		{"prompt_x", 0, false},
		{"topic", 0, false},
	}
	for _, tt := range tests {
		n, ok := ChainedRef(tt.name)
		if n != tt.n || ok != tt.ok {
			t.Errorf("ChainedRef(%q) = (%d, %v), want (%d, %v)", tt.name, n, ok, tt.n, tt.ok)
		}
	}
	if ChainedName(3) != "prompt_3" {
		t.Errorf("ChainedName(3) = %q", ChainedName(3))
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeTemplate, "Template": ModeTemplate, "literal": ModeLiteral} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseMode("jinja"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
