package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"slices"

	"github.com/yndnr/hello-login/internal/core/domain"
	"github.com/yndnr/hello-login/internal/core/service"
	"github.com/yndnr/hello-login/internal/telemetry/logger"
)

// maxBodyBytes bounds request bodies read by decodeJSON.
const maxBodyBytes = 1 << 20

// Sessions is the session store the handlers need.
type Sessions interface {
	CreateSession(value any, w http.ResponseWriter) (string, error)
	GetSession(r *http.Request) (any, bool)
	Expire(r *http.Request)
	CookieName() string
}

// Handler serves the application endpoints.
type Handler struct {
	members  *service.MemberService
	login    *service.LoginService
	sessions Sessions
	logger   *slog.Logger
	mux      *http.ServeMux
	routes   []Route
	ready    func() error
}

// Route is one endpoint served by Handler.
type Route struct {
	Pattern string
	// Probe marks health and readiness endpoints, which callers serve
	// outside the request pipeline.
	Probe bool

	handle http.HandlerFunc
}

// Option configures a Handler.
type Option func(*Handler)

// WithReadiness sets the check behind GET /ready.
func WithReadiness(check func() error) Option {
	return func(h *Handler) {
		h.ready = check
	}
}

// New creates a new Handler with the given services.
func New(members *service.MemberService, login *service.LoginService, sessions Sessions, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		members:  members,
		login:    login,
		sessions: sessions,
		logger:   logger,
		mux:      http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// Routes returns every endpoint in registration order. The last one is
// the "/" catch-all.
func (h *Handler) Routes() []Route {
	return slices.Clone(h.routes)
}

func (h *Handler) registerRoutes() {
	h.routes = []Route{
		{Pattern: "GET /health", Probe: true, handle: h.handleHealth},
		{Pattern: "GET /ready", Probe: true, handle: h.handleReady},

		{Pattern: "GET /{$}", handle: h.handleHome},

		{Pattern: "POST /members/add", handle: h.handleAddMember},
		{Pattern: "GET /members", handle: h.handleListMembers},
		{Pattern: "GET /members/{id}", handle: h.handleGetMember},

		{Pattern: "POST /login", handle: h.handleLogin},
		{Pattern: "POST /logout", handle: h.handleLogout},

		{Pattern: "GET /api/members/{id}", handle: h.handleAPIMember},
		{Pattern: "GET /api/response-status-ex1", handle: h.handleResponseStatusEx1},
		{Pattern: "GET /api/response-status-ex2", handle: h.handleResponseStatusEx2},
		{Pattern: "GET /api/default-handler-ex", handle: h.handleDefaultHandlerEx},

		{Pattern: "/", handle: h.handleNotFound},
	}
	for _, rt := range h.routes {
		h.mux.HandleFunc(rt.Pattern, rt.handle)
	}
}

// writeJSON writes a JSON response with standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := logger.RequestIDFromContext(r.Context())
	response := NewResponse(requestID, data)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// handleServiceError converts service errors to HTTP responses.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	WriteError(w, r, err)
}

// errorRecorder is implemented by response writers that want to know which
// error a handler answered with.
type errorRecorder interface {
	RecordError(err error)
}

// WriteError resolves err to a status and code and writes the error
// envelope. The error is also handed to the response writer when it
// records errors, so request logging can report it.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := domain.Resolve(err)
	if rec, ok := w.(errorRecorder); ok {
		rec.RecordError(err)
	}

	requestID := logger.RequestIDFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(NewErrorResponse(requestID, code, message, nil))
}

// decodeJSON reads a JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.ErrBadRequest.WithDetails("empty request body")
		}
		return domain.ErrBadRequest.WithDetails("invalid request body").WithCause(err)
	}
	return nil
}

func (h *Handler) handleNotFound(w http.ResponseWriter, r *http.Request) {
	h.handleServiceError(w, r, domain.ErrNotFound.WithDetails(r.URL.Path))
}

// currentMember returns the member bound to the request's session.
func (h *Handler) currentMember(r *http.Request) (*domain.Member, bool) {
	v, ok := h.sessions.GetSession(r)
	if !ok {
		return nil, false
	}
	m, ok := v.(*domain.Member)
	return m, ok
}
