package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"lean_canvas_coach/canvas"
	"lean_canvas_coach/generator"
	"lean_canvas_coach/report"
)

//go:embed web/*.tmpl
var webFS embed.FS

// SessionFactory creates an empty workflow session for a new visitor.
type SessionFactory func(id string) (*canvas.Session, error)

// Options tunes the HTTP layer.
type Options struct {
	// Timeout bounds each model-backed action.
	Timeout time.Duration
	// SessionTTL discards sessions idle for longer than this.
	SessionTTL time.Duration
	Verbose    bool
	Logger     *log.Logger
}

type Server struct {
	newSession SessionFactory
	store      *sessionStore
	opts       Options
	page       *template.Template
	logger     *log.Logger
	now        func() time.Time
}

// entry serialises actions on one session: at most one model call is
// outstanding per session.
type entry struct {
	mu       sync.Mutex
	sess     *canvas.Session
	lastErr  string
	typed    canvas.InputRecord
	lastSeen time.Time
}

type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*entry
}

func newStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*entry)}
}

func (s *sessionStore) set(id string, e *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = e
}

func (s *sessionStore) get(id string, now time.Time) (*entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if ok {
		e.lastSeen = now
	}
	return e, ok
}

func (s *sessionStore) delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

// sweep drops sessions idle since before now-ttl and returns how many went.
func (s *sessionStore) sweep(now time.Time, ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, e := range s.sessions {
		if now.Sub(e.lastSeen) > ttl {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

func (s *sessionStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func New(factory SessionFactory, opts Options) (*Server, error) {
	if factory == nil {
		return nil, errors.New("session factory required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 90 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	page, err := template.New("index.html.tmpl").Funcs(template.FuncMap{
		"markdown": renderMarkdown,
	}).ParseFS(webFS, "web/index.html.tmpl")
	if err != nil {
		return nil, err
	}
	return &Server{
		newSession: factory,
		store:      newStore(),
		opts:       opts,
		page:       page,
		logger:     logger,
		now:        time.Now,
	}, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/frameworks", s.handleFrameworks)
	mux.HandleFunc("POST /api/sessions", s.handleSessionCreate)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleSessionGet)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleSessionDelete)
	mux.HandleFunc("POST /api/sessions/{id}/inputs", s.handleInputs)
	mux.HandleFunc("POST /api/sessions/{id}/draft", s.handleStage)
	mux.HandleFunc("POST /api/sessions/{id}/feedback", s.handleStage)
	mux.HandleFunc("POST /api/sessions/{id}/revision", s.handleStage)
	mux.HandleFunc("POST /api/sessions/{id}/analyses/{framework}", s.handleAnalysis)
	mux.HandleFunc("GET /api/sessions/{id}/report/{format}", s.handleReport)

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /s/{id}", s.handlePage)
	mux.HandleFunc("POST /s/{id}/{action}", s.handleFormAction)
	return s.logMiddleware(mux)
}

func (s *Server) createSession() (string, *entry, error) {
	if n := s.store.sweep(s.now(), s.opts.SessionTTL); n > 0 {
		s.logger.Printf("[server] discarded %d idle session(s), %d active", n, s.store.count())
	}
	id := newSessionID()
	sess, err := s.newSession(id)
	if err != nil {
		return "", nil, err
	}
	e := &entry{sess: sess, lastSeen: s.now()}
	s.store.set(id, e)
	return id, e, nil
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*entry, bool) {
	e, ok := s.store.get(r.PathValue("id"), s.now())
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("session not found"))
		return nil, false
	}
	return e, true
}

// dispatch runs one named action on a locked session.
func (s *Server) dispatch(ctx context.Context, e *entry, action string, framework canvas.Framework) error {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	var err error
	switch action {
	case "draft":
		_, err = e.sess.GenerateDraft(ctx)
	case "feedback":
		_, err = e.sess.GenerateFeedback(ctx)
	case "revision":
		_, err = e.sess.GenerateRevision(ctx)
	case "analysis":
		_, err = e.sess.RunAnalysis(ctx, framework)
	default:
		return errUnknownAction
	}
	return err
}

var errUnknownAction = errors.New("unknown action")

// --- Helpers ---

func newSessionID() string {
	return uuid.NewString()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResp struct {
	Error         string   `json:"error"`
	Kind          string   `json:"kind,omitempty"`
	MissingFields []string `json:"missing_fields,omitempty"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := errorResp{Error: err.Error()}
	var ve *canvas.ValidationError
	if errors.As(err, &ve) {
		resp.Kind = "validation"
		for _, f := range ve.Missing {
			resp.MissingFields = append(resp.MissingFields, f.Key())
		}
	}
	var ge *generator.GenerationError
	if errors.As(err, &ge) {
		resp.Kind = ge.Kind.String()
	}
	if canvas.IsStageNotReady(err) {
		resp.Kind = "stage_not_ready"
	}
	writeJSON(w, status, resp)
}

// statusFor maps the error taxonomy onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errUnknownAction):
		return http.StatusNotFound
	case canvas.IsValidationError(err):
		return http.StatusUnprocessableEntity
	case canvas.IsStageNotReady(err):
		return http.StatusConflict
	}
	switch generator.KindOf(err) {
	case generator.KindContentBlocked:
		return http.StatusUnprocessableEntity
	case generator.KindServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func renderMarkdown(md string) template.HTML {
	out, err := report.ToHTML(md)
	if err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(out)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		if s.opts.Verbose || rec.status >= 500 {
			s.logger.Printf("[server] %s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond))
		}
	})
}
