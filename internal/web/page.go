package web

import (
	"embed"
	"html/template"

	"github.com/LiboWorks/promptlab/internal/backend"
	"github.com/LiboWorks/promptlab/internal/invoker"
	"github.com/LiboWorks/promptlab/internal/panel"
	ptemplate "github.com/LiboWorks/promptlab/internal/template"
)

//go:embed templates/*.html
var templateFS embed.FS

func loadTemplates() *template.Template {
	return template.Must(template.New("").Funcs(template.FuncMap{
		"field": field,
	}).ParseFS(templateFS, "templates/*.html"))
}

type choiceOption struct {
	Value   string
	Label   string
	Checked bool
}

type panelView struct {
	Position  int
	Mode      string
	System    string
	User      string
	VarsText  string
	Backend   string
	Choices   []choiceOption
	AutoRun   bool
	State     string
	Compiled  bool
	Preview   struct{ System, User string }
	Messages  []string
	Error     string
	Output    template.HTML
	HasOutput bool
	Hint      string
	CanAppend bool
	CanRemove bool
	Final     bool
}

type pageData struct {
	Title   string
	Version string
	Panels  []panelView
	Count   int
	Notice  string
	Stats   invoker.Stats
}

func buildPage(views []panel.View, stats invoker.Stats, version, notice string) pageData {
	data := pageData{
		Title:   "promptlab",
		Version: version,
		Count:   len(views),
		Notice:  notice,
		Stats:   stats,
	}
	for _, v := range views {
		pv := panelView{
			Position:  v.Position,
			Mode:      string(v.Input.Mode),
			System:    v.Input.System,
			User:      v.Input.User,
			VarsText:  ptemplate.FormatLines(v.Input.Vars),
			Backend:   string(v.Input.Choice),
			AutoRun:   v.Input.EffectiveAutoRun(),
			State:     v.State.String(),
			Compiled:  v.Compiled(),
			Messages:  v.Remediation,
			Hint:      v.Hint,
			CanAppend: v.CanAppend,
			CanRemove: v.Final && v.Position > 1,
			Final:     v.Final,
		}
		for _, c := range backend.Choices {
			pv.Choices = append(pv.Choices, choiceOption{Value: string(c), Label: c.Label(), Checked: c == v.Input.Choice})
		}
		if pv.Compiled {
			pv.Preview.System, pv.Preview.User = v.System, v.User
		}
		if v.State == panel.Failed && v.Err != nil {
			pv.Error = v.Err.Error()
		}
		if v.State == panel.Executed {
			pv.Output = renderMarkdown(v.Output)
			pv.HasOutput = true
		}
		data.Panels = append(data.Panels, pv)
	}
	return data
}
