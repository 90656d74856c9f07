package handler

import (
	"net/http"
	"strings"

	"github.com/yndnr/hello-login/internal/core/domain"
	"github.com/yndnr/hello-login/internal/telemetry/logger"
)

// handleHome handles GET /.
func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	m, ok := h.currentMember(r)
	if !ok {
		h.writeJSON(w, r, http.StatusOK, HomeResponse{})
		return
	}
	resp := memberToResponse(m)
	h.writeJSON(w, r, http.StatusOK, HomeResponse{LoggedIn: true, Member: &resp})
}

// handleLogin handles POST /login.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	m, err := h.login.Login(r.Context(), req.LoginID, req.Password)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	if _, err := h.sessions.CreateSession(m, w); err != nil {
		h.handleServiceError(w, r, domain.ErrInternal.WithCause(err))
		return
	}

	h.writeJSON(w, r, http.StatusOK, LoginResponse{
		Member:      memberToResponse(m),
		RedirectURL: safeRedirect(r.URL.Query().Get("redirectURL")),
	})
}

// handleLogout handles POST /logout. The server-side entry is removed and
// the browser is told to drop its cookie.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Expire(r)
	http.SetCookie(w, &http.Cookie{
		Name:     h.sessions.CookieName(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	logger.L(r.Context()).Debug("logout")
	h.writeJSON(w, r, http.StatusOK, map[string]bool{"logged_out": true})
}

// safeRedirect only allows local absolute paths; anything else becomes "/".
// Browsers drop tab and newline from URLs, so "/\t/host" would turn into
// "//host"; control characters are refused anywhere in the target.
func safeRedirect(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/"
	}
	if strings.IndexFunc(target, isControl) >= 0 {
		return "/"
	}
	return target
}

func isControl(r rune) bool {
	return r < 0x20 || r == 0x7f
}
