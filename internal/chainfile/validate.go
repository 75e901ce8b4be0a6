package chainfile

import (
	"fmt"
	"strings"

	"github.com/LiboWorks/promptlab/internal/backend"
	"github.com/LiboWorks/promptlab/internal/prompt"
	"github.com/LiboWorks/promptlab/internal/template"
)

// Validate checks the chain's structure and that every chained reference
// points to an earlier panel.
func (c *Chain) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("chain name is required")
	}
	if len(c.Panels) == 0 {
		return fmt.Errorf("chain %s must have at least one panel", c.Name)
	}

	for i, p := range c.Panels {
		pos := i + 1
		label := p.Label(pos)

		if strings.TrimSpace(p.System) == "" {
			return fmt.Errorf("%s is missing system text", label)
		}
		if strings.TrimSpace(p.User) == "" {
			return fmt.Errorf("%s is missing user text", label)
		}
		mode, err := prompt.ParseMode(p.Mode)
		if err != nil {
			return fmt.Errorf("%s: %w", label, err)
		}
		if _, err := backend.ParseChoice(p.Backend); err != nil {
			return fmt.Errorf("%s: %w", label, err)
		}
		if mode == prompt.ModeLiteral {
			continue
		}

		for _, f := range []struct{ field, text string }{{"system", p.System}, {"user", p.User}} {
			names, err := template.Extract(f.text)
			if err != nil {
				return fmt.Errorf("%s %s template: %w", label, f.field, err)
			}
			for _, name := range names {
				if n, ok := prompt.ChainedRef(name); ok && n >= pos {
					return fmt.Errorf("%s references {%s}; only earlier panels can be referenced", label, name)
				}
			}
		}
	}
	return nil
}
