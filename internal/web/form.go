package web

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/LiboWorks/promptlab/internal/backend"
	"github.com/LiboWorks/promptlab/internal/panel"
	"github.com/LiboWorks/promptlab/internal/prompt"
	"github.com/LiboWorks/promptlab/internal/template"
)

// field returns the form key of a per-panel field, e.g. "p2.user".
func field(position int, name string) string {
	return "p" + strconv.Itoa(position) + "." + name
}

// parseInputs reads n panels from the submitted form. Unknown modes and
// backends fall back to the defaults instead of failing the whole page.
//
// The auto-run checkbox is rendered together with a hidden field naming the
// backend it was rendered for. If the backend changed since, the checkbox
// reflects the old backend's default and the override is reset.
func parseInputs(c *gin.Context, n int) []panel.Input {
	inputs := make([]panel.Input, 0, n)
	for pos := 1; pos <= n; pos++ {
		in := panel.NewInput()
		if mode, err := prompt.ParseMode(c.PostForm(field(pos, "mode"))); err == nil {
			in.Mode = mode
		}
		in.System = c.PostForm(field(pos, "system"))
		in.User = c.PostForm(field(pos, "user"))
		in.Vars = template.ParseLines(c.PostForm(field(pos, "vars")))
		if choice, err := backend.ParseChoice(c.PostForm(field(pos, "backend"))); err == nil {
			in.Choice = choice
		}

		renderedFor := c.PostForm(field(pos, "auto_run_backend"))
		if renderedFor == string(in.Choice) {
			in.AutoRun = panel.Bool(c.PostForm(field(pos, "auto_run")) != "")
		}
		inputs = append(inputs, in)
	}
	return inputs
}

// formAction is the decoded value of the submit button.
type formAction struct {
	structural panel.Action
	trigger    panel.Trigger
}

// parseAction decodes "run:N", "run:all", "append", "remove" and "update".
func parseAction(v string) (formAction, error) {
	switch v {
	case "", "update":
		return formAction{trigger: panel.NoTrigger}, nil
	case string(panel.Append):
		return formAction{structural: panel.Append}, nil
	case string(panel.Remove):
		return formAction{structural: panel.Remove}, nil
	}
	target, ok := strings.CutPrefix(v, "run:")
	if !ok {
		return formAction{}, fmt.Errorf("unknown action %q", v)
	}
	if target == "all" {
		return formAction{trigger: panel.RunAll()}, nil
	}
	n, err := strconv.Atoi(target)
	if err != nil || n < 1 {
		return formAction{}, fmt.Errorf("invalid panel in action %q", v)
	}
	return formAction{trigger: panel.RunPanel(n)}, nil
}
