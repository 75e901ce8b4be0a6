package template_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/LiboWorks/promptlab/internal/template"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{name: "no placeholders", input: "Plain text", want: nil},
		{name: "single", input: "Tell me about {topic}.", want: []string{"topic"}},
		{name: "order of appearance", input: "{b} then {a}", want: []string{"b", "a"}},
		{name: "duplicates collapse", input: "{x} and {x} and {y}", want: []string{"x", "y"}},
		{name: "escaped braces ignored", input: "{{literal}} {real}", want: []string{"real"}},
		{name: "format suffix", input: "{name:>10} {other!r}", want: []string{"name", "other"}},
		{name: "surrounding spaces", input: "Hello { name }", want: []string{"name"}},
		{name: "chained reference", input: "Summarize: {prompt_1}", want: []string{"prompt_1"}},
		{name: "empty placeholder", input: "{}", wantErr: true},
		{name: "unterminated", input: "Hello {name", wantErr: true},
		{name: "single closing brace", input: "oops }", wantErr: true},
		{name: "nested", input: "{a{b}}", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := template.Extract(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Extract(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				var se *template.SyntaxError
				if !errors.As(err, &se) {
					t.Errorf("expected *SyntaxError, got %T", err)
				}
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSubstitute(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		vars     template.Vars
		expected string
	}{
		{
			name:     "system scenario",
			input:    "Always speak in a {tone} way.",
			vars:     template.Vars{"tone": "friendly"},
			expected: "Always speak in a friendly way.",
		},
		{
			name:     "repeated variable",
			input:    "{greeting}, {name}! {greeting}!",
			vars:     template.Vars{"greeting": "Hello", "name": "Alice"},
			expected: "Hello, Alice! Hello!",
		},
		{
			name:     "escapes",
			input:    "JSON: {{\"key\": \"{value}\"}}",
			vars:     template.Vars{"value": "v"},
			expected: `JSON: {"key": "v"}`,
		},
		{
			name:     "value is not re-parsed",
			input:    "Echo {text}",
			vars:     template.Vars{"text": "{not_a_var}"},
			expected: "Echo {not_a_var}",
		},
		{
			name:     "extra variables are ignored",
			input:    "Plain",
			vars:     template.Vars{"unused": "x"},
			expected: "Plain",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := template.Substitute(tt.input, tt.vars)
			if err != nil {
				t.Fatalf("Substitute() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("Substitute() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestSubstituteMissing(t *testing.T) {
	_, err := template.Substitute("{a} {b} {a} {c}", template.Vars{"b": "x"})
	var mv *template.MissingVariableError
	if !errors.As(err, &mv) {
		t.Fatalf("expected *MissingVariableError, got %v", err)
	}
	if !reflect.DeepEqual(mv.Names, []string{"a", "c"}) {
		t.Errorf("missing names = %v, want [a c]", mv.Names)
	}
}

func TestMissing(t *testing.T) {
	got, err := template.Missing("{tone} {topic} {tone}", template.Vars{"tone": "friendly"})
	if err != nil {
		t.Fatalf("Missing() error = %v", err)
	}
	if !reflect.DeepEqual(got, []string{"topic"}) {
		t.Errorf("Missing() = %v, want [topic]", got)
	}
}

// Whenever the table covers every placeholder, substitution succeeds and no
// placeholder syntax is left behind.
func TestSubstituteCoversAllPlaceholders(t *testing.T) {
	templates := []string{
		"",
		"no fields at all",
		"{a}",
		"{a}{b}{c}",
		"start {a} middle {b:>4} end {c!s}",
		"{ a } {a} {b}",
	}
	vars := template.Vars{"a": "alpha", "b": "beta", "c": "gamma"}

	for _, tmpl := range templates {
		names, err := template.Extract(tmpl)
		if err != nil {
			t.Fatalf("Extract(%q) error = %v", tmpl, err)
		}
		for _, n := range names {
			if _, ok := vars[n]; !ok {
				t.Fatalf("fixture %q references %q outside the table", tmpl, n)
			}
		}
		out, err := template.Substitute(tmpl, vars)
		if err != nil {
			t.Errorf("Substitute(%q) error = %v", tmpl, err)
			continue
		}
		if strings.ContainsAny(out, "{}") {
			t.Errorf("Substitute(%q) = %q still contains braces", tmpl, out)
		}
	}
}

func TestVarsClean(t *testing.T) {
	v := template.Vars{"tone": "friendly", "blank": "  ", "": "orphan", " topic ": "science"}
	got := v.Clean()
	want := template.Vars{"tone": "friendly", "topic": "science"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Clean() = %v, want %v", got, want)
	}
}

func TestVarsMerge(t *testing.T) {
	base := template.Vars{"a": "1", "b": "2"}
	got := base.Merge(template.Vars{"b": "3"}, template.Vars{"c": "4"})
	want := template.Vars{"a": "1", "b": "3", "c": "4"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Merge() = %v, want %v", got, want)
	}
	if base["b"] != "2" {
		t.Error("Merge() must not modify the receiver")
	}
}
