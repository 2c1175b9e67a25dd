package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"redirector/engine"
)

const decisionTTL = 20 * time.Second

// Server answers documentation requests: it maps the host to a project,
// resolves the path against the project's redirect rules, and either issues
// the redirect response or hands the request to the fallback handler (in a
// full deployment, the docs file server).
type Server struct {
	Engine   *engine.Engine
	Server   *http.Server
	Cache    *TTLCache
	Fallback http.Handler

	log zerolog.Logger
}

// NewServer creates a new HTTP redirect server instance.
func NewServer(addr string, eng *engine.Engine) *Server {
	srv := &Server{
		Engine:   eng,
		Cache:    NewTTLCache(),
		Fallback: http.NotFoundHandler(),
		log:      log.With().Str("component", "server").Logger(),
	}
	eng.SetSink(&LogSink{log: srv.log})

	srv.Server = &http.Server{
		Addr:    addr,
		Handler: http.HandlerFunc(srv.handleRequest),
	}

	return srv
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.Server.Addr).Msg("redirect server listening")
	return s.Server.ListenAndServe()
}

func (s *Server) Stop() error {
	s.Cache.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Server.Shutdown(ctx)
}

func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.NewString()
	logger := s.log.With().Str("request_id", reqID).Str("host", r.Host).Str("path", r.URL.Path).Logger()

	// 1. Identify project
	project := s.Engine.ProjectByHost(r.Host)
	if project == nil {
		logger.Debug().Msg("no project for host")
		http.Error(w, "unknown documentation host", http.StatusNotFound)
		return
	}

	// 2. Split the request into version-relative and full paths
	fullPath := r.URL.Path
	path, language, versionSlug := engine.SplitPath(project, fullPath)

	// 3. Check decision cache
	key := fmt.Sprintf("%s:%s:%s:%s", project.Slug, language, versionSlug, fullPath)
	if d, ok := s.Cache.Get(key); ok {
		logger.Debug().Msg("decision cache hit")
		s.apply(w, r, d)
		return
	}

	// 4. Resolve against the rule snapshot
	res, ok := s.Engine.Resolve(project, path, fullPath, language, versionSlug)
	if !ok {
		d := Decision{Redirect: false}
		s.Cache.Set(key, d, decisionTTL)
		s.apply(w, r, d)
		return
	}

	// 5. Force check: a non-force redirect must not shadow a page that
	// actually exists at the requested path.
	if !res.Rule.Force && s.Engine.PageExists(project.Slug, versionSlug, path) {
		logger.Debug().Int64("rule", res.Rule.ID).Msg("page exists, non-force redirect skipped")
		d := Decision{Redirect: false}
		s.Cache.Set(key, d, decisionTTL)
		s.apply(w, r, d)
		return
	}

	status := res.Rule.HTTPStatus
	logger.Info().
		Int64("rule", res.Rule.ID).
		Str("type", res.Rule.Type.String()).
		Str("destination", res.Destination).
		Int("status", status).
		Msg("redirecting")

	d := Decision{Redirect: true, Destination: res.Destination, Status: status}
	s.Cache.Set(key, d, decisionTTL)
	s.apply(w, r, d)
}

func (s *Server) apply(w http.ResponseWriter, r *http.Request, d Decision) {
	if !d.Redirect {
		s.Fallback.ServeHTTP(w, r)
		return
	}
	http.Redirect(w, r, d.Destination, d.Status)
}

// LogSink records rule matches through zerolog. Observability only; the
// resolver behaves identically with a NopSink.
type LogSink struct {
	log zerolog.Logger
}

func (l *LogSink) RuleMatched(ev engine.MatchEvent) {
	l.log.Debug().
		Str("project", ev.Project).
		Int64("rule", ev.Rule.ID).
		Str("type", ev.Rule.Type.String()).
		Str("from", ev.Rule.FromURL).
		Str("full_path", ev.FullPath).
		Str("destination", ev.Destination).
		Msg("redirect rule matched")
}
