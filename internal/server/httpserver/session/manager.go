package session

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/yndnr/hello-login/pkg/cmap"
	"github.com/yndnr/hello-login/pkg/token"
)

// CookieName is the default name of the session cookie.
const CookieName = "mySessionId"

// maxIssueAttempts bounds token regeneration on collision.
const maxIssueAttempts = 3

// ErrTokenSpaceExhausted is returned when every generated token collided
// with a live session.
var ErrTokenSpaceExhausted = errors.New("session: could not issue unique token")

// Observer is notified about session lifecycle changes.
type Observer interface {
	SessionCreated()
	SessionExpired()
}

// Manager is an in-memory session store keyed by opaque tokens.
type Manager struct {
	store      *cmap.Map[string, any]
	cookieName string
	tokenBytes int
	secure     bool
	logger     *slog.Logger
	observer   Observer
}

// Option configures a Manager.
type Option func(*Manager)

// WithCookieName overrides the session cookie name.
func WithCookieName(name string) Option {
	return func(m *Manager) {
		if name != "" {
			m.cookieName = name
		}
	}
}

// WithTokenBytes sets the number of random bytes per token.
// Values below token.MinLength are raised to it.
func WithTokenBytes(n int) Option {
	return func(m *Manager) {
		if n < token.MinLength {
			n = token.MinLength
		}
		m.tokenBytes = n
	}
}

// WithSecureCookie marks issued cookies Secure.
func WithSecureCookie(secure bool) Option {
	return func(m *Manager) {
		m.secure = secure
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithObserver registers a lifecycle observer.
func WithObserver(o Observer) Option {
	return func(m *Manager) {
		m.observer = o
	}
}

// NewManager creates an empty session manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		store:      cmap.New[string, any](),
		cookieName: CookieName,
		tokenBytes: token.DefaultLength,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CookieName returns the name of the cookie this manager reads and writes.
func (m *Manager) CookieName() string {
	return m.cookieName
}

// CreateSession stores value under a new token and sets the session cookie
// on w. The cookie carries no expiry, so it lasts for the browser session.
func (m *Manager) CreateSession(value any, w http.ResponseWriter) (string, error) {
	tok, err := m.issue(value)
	if err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    tok,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})

	m.logger.Debug("session created", "fingerprint", token.Fingerprint(tok))
	if m.observer != nil {
		m.observer.SessionCreated()
	}
	return tok, nil
}

func (m *Manager) issue(value any) (string, error) {
	for i := 0; i < maxIssueAttempts; i++ {
		tok, err := token.GenerateWithLength(m.tokenBytes)
		if err != nil {
			return "", fmt.Errorf("session: generate token: %w", err)
		}
		if m.store.SetIfAbsent(tok, value) {
			return tok, nil
		}
	}
	return "", ErrTokenSpaceExhausted
}

// GetSession returns the value bound to the request's session cookie.
func (m *Manager) GetSession(r *http.Request) (any, bool) {
	c, ok := m.FindCookie(r, m.cookieName)
	if !ok {
		return nil, false
	}
	return m.store.Get(c.Value)
}

// Expire removes the session named by the request's cookie, if any.
func (m *Manager) Expire(r *http.Request) {
	c, ok := m.FindCookie(r, m.cookieName)
	if !ok {
		return
	}
	if _, removed := m.store.Pop(c.Value); removed {
		m.logger.Debug("session expired", "fingerprint", token.Fingerprint(c.Value))
		if m.observer != nil {
			m.observer.SessionExpired()
		}
	}
}

// FindCookie returns the first cookie on r named name.
func (m *Manager) FindCookie(r *http.Request, name string) (*http.Cookie, bool) {
	for _, c := range r.Cookies() {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	return m.store.Count()
}
