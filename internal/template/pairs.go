package template

import (
	"fmt"
	"strings"
)

// ParseLines reads a "key=value" per line table as typed into a text area.
// Blank lines are skipped; a line without '=' or with an empty value
// declares a key without a value, which Clean treats as absent.
func ParseLines(text string) Vars {
	vars := make(Vars)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		k, v, _ := strings.Cut(line, "=")
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		vars[k] = strings.TrimSpace(v)
	}
	return vars
}

// FormatLines is the inverse of ParseLines, with keys sorted.
func FormatLines(v Vars) string {
	var sb strings.Builder
	for _, k := range v.Keys() {
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(v[k])
		sb.WriteByte('\n')
	}
	return sb.String()
}

// ParsePairs parses command line "key=value" assignments. Unlike
// ParseLines every entry must contain '=' and a non-empty key.
func ParsePairs(pairs []string) (Vars, error) {
	vars := make(Vars, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid variable %q (want key=value)", p)
		}
		vars[k] = v
	}
	return vars, nil
}
