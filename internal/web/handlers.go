package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/LiboWorks/promptlab/internal/backend"
	"github.com/LiboWorks/promptlab/internal/chain"
	"github.com/LiboWorks/promptlab/internal/invoker"
	"github.com/LiboWorks/promptlab/internal/panel"
	"github.com/LiboWorks/promptlab/internal/prompt"
	"github.com/LiboWorks/promptlab/internal/template"
)

const sessionKey = "session_id"

// session acquires the caller's session and refreshes its cookie.
func (s *Server) session(c *gin.Context) *Session {
	id, _ := c.Cookie(SessionCookie)
	sess := s.sessions.Acquire(id)
	c.Set(sessionKey, sess.ID)

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, sess.ID, int(s.sessions.ttl.Seconds()), "/", "", false, true)
	return sess
}

// Index re-renders the session's panels without an explicit trigger.
func (s *Server) Index(c *gin.Context) {
	sess := s.session(c)
	defer s.sessions.Release(sess)

	views := s.ctrl.Render(c.Request.Context(), sess.State, sess.Inputs, panel.NoTrigger)
	c.HTML(http.StatusOK, "index.html", buildPage(views, s.inv.Stats(), s.version, ""))
}

// Submit applies the form's inputs and action, then re-renders every panel.
func (s *Server) Submit(c *gin.Context) {
	sess := s.session(c)
	defer s.sessions.Release(sess)

	inputs := parseInputs(c, sess.State.Count())
	notice := ""

	act, err := parseAction(c.PostForm("action"))
	if err != nil {
		notice = err.Error()
	}
	if act.structural != "" {
		inputs, err = s.ctrl.Apply(sess.State, inputs, act.structural)
		if err != nil && !errors.Is(err, chain.ErrPanelFloor) {
			notice = err.Error()
		}
	}

	views := s.ctrl.Render(c.Request.Context(), sess.State, inputs, act.trigger)
	sess.Inputs = inputs
	c.HTML(http.StatusOK, "index.html", buildPage(views, s.inv.Stats(), s.version, notice))
}

// Health reports liveness, the configured backends and invoker counters.
func (s *Server) Health(c *gin.Context) {
	RespondOK(c, gin.H{
		"status":   "ok",
		"version":  s.version,
		"memo":     s.inv.StoreName(),
		"backends": s.registry.ListLLMBackends(),
		"routes":   s.registry.Routes(),
		"sessions": s.sessions.Len(),
		"stats":    s.inv.Stats(),
	})
}

type compileRequest struct {
	Mode   string            `json:"mode"`
	System string            `json:"system"`
	User   string            `json:"user"`
	Vars   map[string]string `json:"vars"`
	Prior  map[string]string `json:"prior"`
}

type compileResponse struct {
	Status          string   `json:"status"`
	System          string   `json:"system,omitempty"`
	User            string   `json:"user,omitempty"`
	MissingOrdinary []string `json:"missing_ordinary,omitempty"`
	MissingChained  []string `json:"missing_chained,omitempty"`
	Error           string   `json:"error,omitempty"`
}

// Compile runs the prompt compiler only. It never calls a model.
func (s *Server) Compile(c *gin.Context) {
	var req compileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	mode, err := prompt.ParseMode(req.Mode)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_mode", err)
		return
	}

	res := prompt.Compile(prompt.Request{
		Mode:   mode,
		System: req.System,
		User:   req.User,
		Vars:   template.Vars(req.Vars),
		Prior:  template.Vars(req.Prior),
	})

	var resp compileResponse
	switch r := res.(type) {
	case *prompt.Resolved:
		resp = compileResponse{Status: "resolved", System: r.System, User: r.User}
	case *prompt.Incomplete:
		resp = compileResponse{Status: "incomplete", MissingOrdinary: r.MissingOrdinary, MissingChained: r.MissingChained}
	case *prompt.Malformed:
		resp = compileResponse{Status: "malformed", Error: r.Field + ": " + r.Err.Error()}
	}
	RespondOK(c, resp)
}

type invokeRequest struct {
	System  string `json:"system"`
	User    string `json:"user"`
	Backend string `json:"backend"`
}

// Invoke sends an already compiled prompt pair to a model.
func (s *Server) Invoke(c *gin.Context) {
	var req invokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if strings.TrimSpace(req.System) == "" || strings.TrimSpace(req.User) == "" {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("system and user are required"))
		return
	}
	choice, err := backend.ParseChoice(req.Backend)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_backend", err)
		return
	}

	out, err := s.inv.Invoke(c.Request.Context(), req.System, req.User, choice)
	if err != nil {
		var ie *invoker.InvocationError
		if errors.As(err, &ie) {
			RespondError(c, http.StatusBadGateway, "invocation_failed", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "internal", err)
		return
	}
	RespondOK(c, gin.H{"output": out, "backend": string(choice)})
}
