// Package web serves the promptlab form UI and its JSON API.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LiboWorks/promptlab/internal/backend"
	"github.com/LiboWorks/promptlab/internal/invoker"
	"github.com/LiboWorks/promptlab/internal/logger"
	"github.com/LiboWorks/promptlab/internal/panel"
)

// SessionCookie names the cookie carrying the session ID.
const SessionCookie = "promptlab_session"

// Config wires the server's collaborators.
type Config struct {
	Invoker    *invoker.Invoker
	Registry   *backend.Registry
	Log        *logger.Logger
	SessionTTL time.Duration
	Version    string
}

type Server struct {
	Engine *gin.Engine

	inv      *invoker.Invoker
	registry *backend.Registry
	ctrl     *panel.Controller
	sessions *SessionStore
	log      *logger.Logger
	version  string
}

// NewServer builds the router. Call gin.SetMode before this to pick the
// gin mode.
func NewServer(cfg Config) *Server {
	if cfg.Log == nil {
		cfg.Log = logger.Nop()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	s := &Server{
		inv:      cfg.Invoker,
		registry: cfg.Registry,
		ctrl:     panel.NewController(cfg.Invoker, cfg.Log.With("component", "panel")),
		sessions: NewSessionStore(cfg.SessionTTL),
		log:      cfg.Log.With("component", "web"),
		version:  cfg.Version,
	}
	s.Engine = s.newRouter()
	return s
}

func (s *Server) newRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(s.log))
	router.SetHTMLTemplate(loadTemplates())

	router.GET("/healthz", s.Health)

	router.GET("/", s.Index)
	router.POST("/", s.Submit)

	api := router.Group("/api")
	{
		api.POST("/compile", s.Compile)
		api.POST("/invoke", s.Invoke)
	}
	return router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.sweepSessions(ctx, time.Minute)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) sweepSessions(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sessions.Sweep(); n > 0 {
				s.log.Debug("dropped idle sessions", "count", n, "remaining", s.sessions.Len())
			}
		}
	}
}
