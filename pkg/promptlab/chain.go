package promptlab

import (
	"github.com/LiboWorks/promptlab/internal/chainfile"
)

// Mode selects how a panel's texts are built.
type Mode string

const (
	// ModeTemplate fills {name} placeholders from the variable table.
	ModeTemplate Mode = "template"

	// ModeLiteral sends the texts exactly as written.
	ModeLiteral Mode = "literal"
)

// Backend selects the model a panel runs on.
type Backend string

const (
	// BackendHosted is the paid hosted model. It does not run
	// automatically unless the panel says so.
	BackendHosted Backend = "hosted"

	// BackendLocal is the free local model. It runs automatically by
	// default.
	BackendLocal Backend = "local"
)

// Chain is an ordered sequence of prompt panels. The output of panel N is
// available to later panels as {prompt_N}.
type Chain struct {
	// Name identifies the chain within a file.
	Name string

	// Vars are shared by every panel; panel vars override them.
	Vars map[string]string

	// Panels are run in order.
	Panels []*Panel
}

// Panel is one system/user prompt pair with its settings.
type Panel struct {
	Name    string
	Mode    Mode
	System  string
	User    string
	Vars    map[string]string
	Backend Backend

	// AutoRun overrides the backend's default when non-nil.
	AutoRun *bool
}

// NewChain creates a new chain with the given name.
func NewChain(name string) *Chain {
	return &Chain{
		Name:   name,
		Vars:   make(map[string]string),
		Panels: make([]*Panel, 0),
	}
}

// AddPanel appends a panel to the chain.
func (c *Chain) AddPanel(p *Panel) *Chain {
	c.Panels = append(c.Panels, p)
	return c
}

// SetVar sets a chain-wide variable.
func (c *Chain) SetVar(name, value string) *Chain {
	c.Vars[name] = value
	return c
}

// PanelBuilder provides a fluent API for constructing panels.
type PanelBuilder struct {
	panel *Panel
}

// TemplatePanel creates a panel whose texts may contain placeholders.
func TemplatePanel(name, system, user string) *PanelBuilder {
	return &PanelBuilder{
		panel: &Panel{
			Name:    name,
			Mode:    ModeTemplate,
			System:  system,
			User:    user,
			Vars:    make(map[string]string),
			Backend: BackendLocal,
		},
	}
}

// LiteralPanel creates a panel sent exactly as written.
func LiteralPanel(name, system, user string) *PanelBuilder {
	b := TemplatePanel(name, system, user)
	b.panel.Mode = ModeLiteral
	return b
}

// WithVar sets a panel variable.
func (b *PanelBuilder) WithVar(name, value string) *PanelBuilder {
	b.panel.Vars[name] = value
	return b
}

// WithBackend sets the backend.
func (b *PanelBuilder) WithBackend(backend Backend) *PanelBuilder {
	b.panel.Backend = backend
	return b
}

// WithAutoRun overrides the backend's automatic-run default.
func (b *PanelBuilder) WithAutoRun(enabled bool) *PanelBuilder {
	b.panel.AutoRun = &enabled
	return b
}

// Build returns the constructed Panel.
func (b *PanelBuilder) Build() *Panel {
	return b.panel
}

// Conversion helpers

func (c *Chain) toInternal() chainfile.Chain {
	panels := make([]chainfile.Panel, len(c.Panels))
	for i, p := range c.Panels {
		panels[i] = chainfile.Panel{
			Name:    p.Name,
			Mode:    string(p.Mode),
			System:  p.System,
			User:    p.User,
			Vars:    toVarTable(p.Vars),
			Backend: string(p.Backend),
			AutoRun: p.AutoRun,
		}
	}
	return chainfile.Chain{
		Name:   c.Name,
		Vars:   toVarTable(c.Vars),
		Panels: panels,
	}
}

func fromInternalChain(ic chainfile.Chain) *Chain {
	panels := make([]*Panel, len(ic.Panels))
	for i, p := range ic.Panels {
		panels[i] = &Panel{
			Name:    p.Name,
			Mode:    Mode(p.Mode),
			System:  p.System,
			User:    p.User,
			Vars:    p.Vars.Vars(),
			Backend: Backend(p.Backend),
			AutoRun: p.AutoRun,
		}
		if panels[i].Mode == "" {
			panels[i].Mode = ModeTemplate
		}
		if panels[i].Backend == "" {
			panels[i].Backend = BackendLocal
		}
	}
	return &Chain{
		Name:   ic.Name,
		Vars:   ic.Vars.Vars(),
		Panels: panels,
	}
}

func toVarTable(vars map[string]string) chainfile.VarTable {
	t := make(chainfile.VarTable, len(vars))
	for k, v := range vars {
		v := v
		t[k] = &v
	}
	return t
}
