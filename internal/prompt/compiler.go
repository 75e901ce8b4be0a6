// Package prompt compiles a system/user template pair against a variable
// table and the outputs of earlier panels.
package prompt

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/LiboWorks/promptlab/internal/template"
)

// ChainedPrefix marks a variable produced by an earlier panel: prompt_<N> is
// the output of panel N.
const ChainedPrefix = "prompt_"

// Mode selects how a panel's texts are built.
type Mode string

const (
	ModeTemplate Mode = "template"
	ModeLiteral  Mode = "literal"
)

// ParseMode accepts "template" or "literal" (case-insensitive); empty means
// ModeTemplate.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeTemplate:
		return ModeTemplate, nil
	case ModeLiteral:
		return ModeLiteral, nil
	default:
		return "", fmt.Errorf("unknown builder mode: %q", s)
	}
}

// ChainedName returns the variable name that refers to the output of the
// panel at position.
func ChainedName(position int) string {
	return ChainedPrefix + strconv.Itoa(position)
}

// ChainedRef reports whether name refers to a panel output and which one.
func ChainedRef(name string) (int, bool) {
	rest, ok := strings.CutPrefix(name, ChainedPrefix)
	if !ok || rest == "" {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 || strconv.Itoa(n) != rest {
		return 0, false
	}
	return n, true
}

// Request is the input of Compile.
type Request struct {
	Mode   Mode
	System string
	User   string
	// Vars are the panel's own values. Names in the prompt_<N> form are
	// ignored; chained values only come from Prior.
	Vars template.Vars
	// Prior holds the outputs of earlier panels keyed by ChainedName.
	Prior template.Vars
}

// Result is one of *Resolved, *Incomplete or *Malformed.
type Result interface {
	isResult()
}

// Resolved carries the final system and user strings.
type Resolved struct {
	System string
	User   string
}

// Incomplete lists the placeholders that could not be resolved, split by
// who has to supply them.
type Incomplete struct {
	// MissingOrdinary are values the user still has to enter.
	MissingOrdinary []string
	// MissingChained only exist once an earlier panel has produced output.
	MissingChained []string
}

// Malformed wraps the template syntax error that prevented compilation.
type Malformed struct {
	Field string // "system" or "user"
	Err   error
}

func (*Resolved) isResult()   {}
func (*Incomplete) isResult() {}
func (*Malformed) isResult()  {}

// Compile resolves the request's templates. It is a pure function of its
// input.
func Compile(req Request) Result {
	if req.Mode == ModeLiteral {
		return &Resolved{System: req.System, User: req.User}
	}

	vars := Table(req.Vars, req.Prior)

	required := make(map[string]bool)
	for _, f := range []struct{ name, text string }{{"system", req.System}, {"user", req.User}} {
		names, err := template.Extract(f.text)
		if err != nil {
			return &Malformed{Field: f.name, Err: err}
		}
		for _, n := range names {
			required[n] = true
		}
	}

	inc := &Incomplete{}
	for n := range required {
		if _, ok := vars[n]; ok {
			continue
		}
		if _, chained := ChainedRef(n); chained {
			inc.MissingChained = append(inc.MissingChained, n)
		} else {
			inc.MissingOrdinary = append(inc.MissingOrdinary, n)
		}
	}
	if len(inc.MissingOrdinary) > 0 || len(inc.MissingChained) > 0 {
		sort.Strings(inc.MissingOrdinary)
		sortChained(inc.MissingChained)
		return inc
	}

	// Both templates parsed and every name is present, so neither call can fail.
	system, err := template.Substitute(req.System, vars)
	if err != nil {
		return &Malformed{Field: "system", Err: err}
	}
	user, err := template.Substitute(req.User, vars)
	if err != nil {
		return &Malformed{Field: "user", Err: err}
	}
	return &Resolved{System: system, User: user}
}

// Table builds the substitution table: the cleaned panel variables without
// reserved names, overlaid with the prior panel outputs.
func Table(vars, prior template.Vars) template.Vars {
	own := vars.Clean()
	for k := range own {
		if _, chained := ChainedRef(k); chained {
			delete(own, k)
		}
	}
	return own.Merge(prior)
}

// sortChained orders prompt_<N> names numerically.
func sortChained(names []string) {
	sort.Slice(names, func(i, j int) bool {
		a, _ := ChainedRef(names[i])
		b, _ := ChainedRef(names[j])
		return a < b
	})
}
