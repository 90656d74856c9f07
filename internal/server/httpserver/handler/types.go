package handler

import (
	"time"

	"github.com/yndnr/hello-login/internal/core/domain"
)

// Response is the standard API response envelope.
// All JSON responses use this format (except /metrics which uses Prometheus format).
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// AddMemberRequest is the request body for POST /members/add.
type AddMemberRequest struct {
	LoginID  string `json:"login_id"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// LoginRequest is the request body for POST /login.
type LoginRequest struct {
	LoginID  string `json:"login_id"`
	Password string `json:"password"`
}

// MemberResponse represents a member in API responses. The password is
// never returned.
type MemberResponse struct {
	ID      int64  `json:"id"`
	LoginID string `json:"login_id"`
	Name    string `json:"name"`
}

func memberToResponse(m *domain.Member) MemberResponse {
	return MemberResponse{ID: m.ID, LoginID: m.LoginID, Name: m.Name}
}

// ListMembersResponse is the response body for GET /members.
type ListMembersResponse struct {
	Items []MemberResponse `json:"items"`
	Total int              `json:"total"`
}

// LoginResponse is the response body for POST /login.
type LoginResponse struct {
	Member      MemberResponse `json:"member"`
	RedirectURL string         `json:"redirect_url"`
}

// HomeResponse is the response body for GET /.
type HomeResponse struct {
	LoggedIn bool            `json:"logged_in"`
	Member   *MemberResponse `json:"member,omitempty"`
}

// APIMemberResponse is the response body for GET /api/members/{id}.
type APIMemberResponse struct {
	MemberID string `json:"memberId"`
	Name     string `json:"name"`
}
