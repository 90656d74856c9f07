package handler

import (
	"net/http"
	"strconv"

	"github.com/yndnr/hello-login/internal/core/domain"
)

// handleAddMember handles POST /members/add.
func (h *Handler) handleAddMember(w http.ResponseWriter, r *http.Request) {
	var req AddMemberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	saved, err := h.members.Join(r.Context(), &domain.Member{
		LoginID:  req.LoginID,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusCreated, memberToResponse(saved))
}

// handleListMembers handles GET /members.
func (h *Handler) handleListMembers(w http.ResponseWriter, r *http.Request) {
	members := h.members.List(r.Context())
	items := make([]MemberResponse, 0, len(members))
	for _, m := range members {
		items = append(items, memberToResponse(m))
	}
	h.writeJSON(w, r, http.StatusOK, ListMembersResponse{Items: items, Total: len(items)})
}

// handleGetMember handles GET /members/{id}.
func (h *Handler) handleGetMember(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.handleServiceError(w, r, domain.ErrTypeMismatch.WithDetails("id must be an integer"))
		return
	}

	m, err := h.members.Get(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, memberToResponse(m))
}
