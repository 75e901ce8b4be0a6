// Package chainfile loads prompt chains from YAML files.
package chainfile

import (
	"fmt"

	"github.com/LiboWorks/promptlab/internal/backend"
	"github.com/LiboWorks/promptlab/internal/panel"
	"github.com/LiboWorks/promptlab/internal/prompt"
	"github.com/LiboWorks/promptlab/internal/template"
)

// Chain is one document of a chain file.
type Chain struct {
	Name   string   `yaml:"name"`
	Vars   VarTable `yaml:"vars,omitempty"`
	Panels []Panel  `yaml:"panels"`
}

// Panel is one prompt panel of a chain.
type Panel struct {
	Name    string   `yaml:"name,omitempty"`
	Mode    string   `yaml:"mode,omitempty"`
	System  string   `yaml:"system"`
	User    string   `yaml:"user"`
	Vars    VarTable `yaml:"vars,omitempty"`
	Backend string   `yaml:"backend,omitempty"`
	// AutoRun overrides the backend's default when present.
	AutoRun *bool `yaml:"auto_run,omitempty"`
}

// VarTable allows null values ("topic: ~"), which count as absent.
type VarTable map[string]*string

// Vars drops null and blank entries.
func (t VarTable) Vars() template.Vars {
	out := make(template.Vars, len(t))
	for k, v := range t {
		if v != nil {
			out[k] = *v
		}
	}
	return out.Clean()
}

// Label names a panel in messages, falling back to its position.
func (p Panel) Label(position int) string {
	if p.Name != "" {
		return fmt.Sprintf("panel %d (%s)", position, p.Name)
	}
	return fmt.Sprintf("panel %d", position)
}

// Inputs converts the chain into panel inputs. Variables are layered chain
// vars, then panel vars, then overrides.
func (c *Chain) Inputs(overrides template.Vars) ([]panel.Input, error) {
	shared := c.Vars.Vars()
	inputs := make([]panel.Input, 0, len(c.Panels))
	for i, p := range c.Panels {
		mode, err := prompt.ParseMode(p.Mode)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Label(i+1), err)
		}
		choice, err := backend.ParseChoice(p.Backend)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Label(i+1), err)
		}
		inputs = append(inputs, panel.Input{
			Name:    p.Name,
			Mode:    mode,
			System:  p.System,
			User:    p.User,
			Vars:    shared.Merge(p.Vars.Vars(), overrides.Clean()),
			Choice:  choice,
			AutoRun: p.AutoRun,
		})
	}
	return inputs, nil
}

// Select returns the chain called name, or the first chain when name is
// empty.
func Select(chains []Chain, name string) (*Chain, error) {
	if len(chains) == 0 {
		return nil, fmt.Errorf("no chains loaded")
	}
	if name == "" {
		return &chains[0], nil
	}
	for i := range chains {
		if chains[i].Name == name {
			return &chains[i], nil
		}
	}
	return nil, fmt.Errorf("chain %q not found", name)
}
