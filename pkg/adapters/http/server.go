// Package http serves component applications over HTTP.
//
// Every request resolves a session from the session cookie, runs the
// requested action under the session lock and renders the root component
// back to the client. Actions run as spawned tasks on the session
// context, so a call suspended in one request is answered by a later one.
package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/cascadeweb/cascade/internal/logging"
	"github.com/cascadeweb/cascade/pkg/adapters/html"
	"github.com/cascadeweb/cascade/pkg/component"
	"github.com/cascadeweb/cascade/pkg/observability"
	"github.com/cascadeweb/cascade/pkg/security"
	"github.com/cascadeweb/cascade/pkg/session"
	"github.com/cascadeweb/cascade/pkg/tasklet"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// SessionCookie is the name of the session identifier cookie.
const SessionCookie = "_sid"

// Server turns sessions of component trees into web pages.
type Server struct {
	manager   *session.Manager
	logger    *slog.Logger
	metrics   *observability.Metrics
	secman    security.Manager
	title     string
	static    string
	staticURL string
	redirect  bool

	mu     sync.Mutex
	scopes map[*session.Session]*security.Scope
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithMetrics attaches request metrics and the /metrics endpoint.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(s *Server) { s.metrics = metrics }
}

// WithSecurityManager sets the permission policy new sessions start with.
func WithSecurityManager(m security.Manager) Option {
	return func(s *Server) { s.secman = m }
}

// WithTitle sets the page title.
func WithTitle(title string) Option {
	return func(s *Server) { s.title = title }
}

// WithStaticDir serves the directory under the static url.
func WithStaticDir(dir string) Option {
	return func(s *Server) { s.static = dir }
}

// WithStaticURL changes the url the static directory is mounted on.
// The default is /static.
func WithStaticURL(url string) Option {
	return func(s *Server) { s.staticURL = url }
}

// WithRedirectAfterPost answers POST requests with a redirect so a
// browser reload does not repeat the action.
func WithRedirectAfterPost() Option {
	return func(s *Server) { s.redirect = true }
}

// NewServer creates a server on top of the session manager.
func NewServer(manager *session.Manager, opts ...Option) *Server {
	s := &Server{
		manager: manager,
		logger:  logging.NewNop(),
		scopes:  make(map[*session.Session]*security.Scope),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, `{"status":"ok"}`)
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}
	if s.static != "" {
		base := s.staticURL
		if base == "" {
			base = "/static"
		}
		base = strings.TrimSuffix(base, "/")
		r.Handle(base+"/*", http.StripPrefix(base+"/", http.FileServer(http.Dir(s.static))))
	}
	r.HandleFunc("/*", s.servePage)

	return r
}

// scope returns the session's security scope, creating it on first use.
// Scopes are keyed by the live session, so a restarted session under the
// same cookie starts over with an empty scope, and the entry is released
// when the session dies (Discard, expiry, replacement).
func (s *Server) scope(sess *session.Session) *security.Scope {
	s.mu.Lock()
	defer s.mu.Unlock()

	scope, ok := s.scopes[sess]
	if !ok {
		scope = security.NewScope(s.secman)
		s.scopes[sess] = scope
		go func() {
			<-sess.Context().Done()
			s.mu.Lock()
			delete(s.scopes, sess)
			s.mu.Unlock()
		}()
	}
	return scope
}

func (s *Server) servePage(w http.ResponseWriter, r *http.Request) {
	sessionID, fresh := s.sessionID(r)
	if fresh {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    sessionID,
			Path:     "/",
			HttpOnly: true,
		})
	}

	sess, created, err := s.manager.LoadOrStart(r.Context(), sessionID)
	if err != nil {
		s.logger.Error("session lookup failed", "session_id", sessionID, "err", err)
		s.respond(w, r, http.StatusInternalServerError, "something went wrong")
		return
	}

	var page string
	status := http.StatusOK
	redirect := false

	err = s.manager.WithLock(r.Context(), sessionID, func(context.Context) error {
		// Actions and calls outlive the request, so everything the tree
		// does runs on the session context.
		ctx := security.WithScope(sess.Context(), s.scope(sess))

		if created {
			if segments := pathSegments(r.URL.Path); len(segments) > 0 {
				if err := sess.Root().Init(ctx, segments, r.Method, r); err != nil {
					if errors.Is(err, component.ErrNotFound) {
						status = http.StatusNotFound
						page = "page not found"
						return nil
					}
					return err
				}
			}
		}

		if id := actionID(r); id != "" {
			if err := s.runAction(ctx, sess, id); err != nil {
				var denial *security.Denial
				if !errors.As(err, &denial) {
					return err
				}
				s.logger.Info("action denied", "action", id, "reason", denial.Reason)
				status = http.StatusForbidden
				page = "forbidden"
			}
		}

		if r.Method == http.MethodPost && s.redirect && status == http.StatusOK {
			redirect = true
			return nil
		}
		if status != http.StatusOK {
			return nil
		}

		sess.ClearActions()
		out, err := sess.Root().Render(ctx,
			html.NewRenderer(sess, html.WithBaseURL(r.URL.Path)), component.Inherit)
		if err != nil {
			return err
		}
		page = fmt.Sprint(out)
		return nil
	})
	if err != nil {
		s.logger.Error("request failed", "session_id", sessionID, "err", err)
		s.respond(w, r, http.StatusInternalServerError, "something went wrong")
		return
	}

	if redirect {
		http.Redirect(w, r, r.URL.Path, http.StatusSeeOther)
		s.observe(r, http.StatusSeeOther)
		return
	}
	s.respond(w, r, status, page)
}

// runAction dispatches one registered callback as a new task. A stale
// identifier, from a page rendered before the last one, is ignored.
func (s *Server) runAction(ctx context.Context, sess *session.Session, id string) error {
	fn, ok := sess.Action(id)
	if !ok {
		s.logger.Debug("stale action ignored", "action", id)
		return nil
	}

	errs := make(chan error, 1)
	tasklet.Spawn(ctx, func(ctx context.Context) {
		errs <- fn(ctx)
	})

	// The task may have parked on a call instead of returning; only a
	// completed action can have failed by now. A failure after a later
	// resume has no request to answer to, so it is logged instead.
	select {
	case err := <-errs:
		return err
	default:
		go func() {
			if err := <-errs; err != nil {
				s.logger.Error("action failed after resume", "action", id, "err", err)
			}
		}()
		return nil
	}
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, body string) {
	title := s.title
	if title == "" {
		title = "cascade"
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, "<!DOCTYPE html>\n<html><head><title>%s</title></head><body>%s</body></html>\n",
		title, body)
	s.observe(r, status)
}

func (s *Server) observe(r *http.Request, status int) {
	if s.metrics != nil {
		s.metrics.ObserveRequest(r.Method, strconv.Itoa(status))
	}
}

// sessionID extracts the session cookie, minting a fresh identifier when
// the request carries none.
func (s *Server) sessionID(r *http.Request) (string, bool) {
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value, false
	}
	return uuid.NewString(), true
}

// actionID reads the action identifier from the query or the posted form.
func actionID(r *http.Request) string {
	if r.Method == http.MethodPost {
		return r.FormValue("_action")
	}
	return r.URL.Query().Get("_action")
}

func pathSegments(path string) []string {
	var segments []string
	for _, segment := range strings.Split(path, "/") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	return segments
}
