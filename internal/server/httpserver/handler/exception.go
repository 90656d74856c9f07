package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/yndnr/hello-login/internal/core/domain"
)

// errWrongUser is the plain error behind /api/members/ex. It is not a
// DomainError, so it surfaces as a 500.
var errWrongUser = errors.New("wrong user")

// handleAPIMember handles GET /api/members/{id}.
func (h *Handler) handleAPIMember(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	switch id {
	case "ex":
		h.handleServiceError(w, r, errWrongUser)
		return
	case "bad":
		h.handleServiceError(w, r, domain.ErrInvalidArgument)
		return
	case "user-ex":
		h.handleServiceError(w, r, domain.ErrUserException)
		return
	}
	h.writeJSON(w, r, http.StatusOK, APIMemberResponse{MemberID: id, Name: "hello " + id})
}

// handleResponseStatusEx1 handles GET /api/response-status-ex1.
func (h *Handler) handleResponseStatusEx1(w http.ResponseWriter, r *http.Request) {
	h.handleServiceError(w, r, domain.ErrBadRequest)
}

// handleResponseStatusEx2 handles GET /api/response-status-ex2: the
// bad-request code answered with 404.
func (h *Handler) handleResponseStatusEx2(w http.ResponseWriter, r *http.Request) {
	h.handleServiceError(w, r, domain.ErrBadRequest.WithStatus(http.StatusNotFound))
}

// handleDefaultHandlerEx handles GET /api/default-handler-ex?data=N.
func (h *Handler) handleDefaultHandlerEx(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.URL.Query().Get("data"))
	if err != nil {
		h.handleServiceError(w, r, domain.ErrTypeMismatch.WithDetails("data must be an integer").WithCause(err))
		return
	}
	h.writeJSON(w, r, http.StatusOK, map[string]int{"data": n})
}
