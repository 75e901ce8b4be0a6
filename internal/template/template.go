// Package template implements the {name} placeholder syntax used by prompt
// panels: extracting the names a template references and substituting values
// from a variable table.
//
// Braces are escaped by doubling them ("{{" and "}}"). A field may carry a
// conversion or format suffix ("{name!r}", "{name:>10}"); only the part before
// '!' or ':' names the variable and the suffix is dropped on substitution.
package template

import (
	"fmt"
	"sort"
	"strings"
)

// Vars maps variable names to their values.
type Vars map[string]string

// Clean returns a copy without blank keys or blank values. A blank value is
// treated as unset, the same as a key that is missing entirely.
func (v Vars) Clean() Vars {
	out := make(Vars, len(v))
	for k, val := range v {
		k = strings.TrimSpace(k)
		if k == "" || strings.TrimSpace(val) == "" {
			continue
		}
		out[k] = val
	}
	return out
}

// Merge returns a new table holding v overlaid with every table in others,
// later tables winning.
func (v Vars) Merge(others ...Vars) Vars {
	out := make(Vars, len(v))
	for k, val := range v {
		out[k] = val
	}
	for _, o := range others {
		for k, val := range o {
			out[k] = val
		}
	}
	return out
}

// Keys returns the sorted keys of the table.
func (v Vars) Keys() []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SyntaxError reports a malformed template.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("template syntax error at offset %d: %s", e.Pos, e.Msg)
}

// MissingVariableError is returned by Substitute when the table lacks one or
// more referenced names.
type MissingVariableError struct {
	Names []string
}

func (e *MissingVariableError) Error() string {
	return "missing template variables: " + strings.Join(e.Names, ", ")
}

type segment struct {
	text  string
	field bool
}

// parse splits text into literal and field segments.
func parse(text string) ([]segment, error) {
	var (
		segs []segment
		lit  strings.Builder
	)
	flush := func() {
		if lit.Len() > 0 {
			segs = append(segs, segment{text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(text); i++ {
		switch c := text[i]; c {
		case '{':
			if i+1 < len(text) && text[i+1] == '{' {
				lit.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexAny(text[i+1:], "{}")
			if end < 0 {
				return nil, &SyntaxError{Pos: i, Msg: "unterminated placeholder"}
			}
			end += i + 1
			if text[end] == '{' {
				return nil, &SyntaxError{Pos: end, Msg: "nested placeholders are not supported"}
			}
			name := fieldName(text[i+1 : end])
			if name == "" {
				return nil, &SyntaxError{Pos: i, Msg: "empty placeholder name"}
			}
			flush()
			segs = append(segs, segment{text: name, field: true})
			i = end
		case '}':
			if i+1 < len(text) && text[i+1] == '}' {
				lit.WriteByte('}')
				i++
				continue
			}
			return nil, &SyntaxError{Pos: i, Msg: "single '}' encountered"}
		default:
			lit.WriteByte(c)
		}
	}
	flush()
	return segs, nil
}

// fieldName strips the conversion and format suffix from a field body.
func fieldName(body string) string {
	if i := strings.IndexAny(body, "!:"); i >= 0 {
		body = body[:i]
	}
	return strings.TrimSpace(body)
}

// Extract returns the distinct placeholder names referenced by text, in order
// of first appearance.
func Extract(text string) ([]string, error) {
	segs, err := parse(text)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var names []string
	for _, s := range segs {
		if s.field && !seen[s.text] {
			seen[s.text] = true
			names = append(names, s.text)
		}
	}
	return names, nil
}

// Missing returns the sorted placeholder names of text that vars does not
// define.
func Missing(text string, vars Vars) ([]string, error) {
	names, err := Extract(text)
	if err != nil {
		return nil, err
	}
	var missing []string
	for _, n := range names {
		if _, ok := vars[n]; !ok {
			missing = append(missing, n)
		}
	}
	sort.Strings(missing)
	return missing, nil
}

// Substitute replaces every placeholder in text with its value from vars and
// unescapes doubled braces. Values are inserted verbatim and never re-parsed.
func Substitute(text string, vars Vars) (string, error) {
	segs, err := parse(text)
	if err != nil {
		return "", err
	}

	var (
		sb      strings.Builder
		missing []string
	)
	for _, s := range segs {
		if !s.field {
			sb.WriteString(s.text)
			continue
		}
		val, ok := vars[s.text]
		if !ok {
			missing = append(missing, s.text)
			continue
		}
		sb.WriteString(val)
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return "", &MissingVariableError{Names: dedupe(missing)}
	}
	return sb.String(), nil
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i == 0 || s != sorted[i-1] {
			out = append(out, s)
		}
	}
	return out
}
