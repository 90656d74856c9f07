package service

import (
	"context"
	"crypto/subtle"

	"github.com/yndnr/hello-login/internal/core/domain"
	"github.com/yndnr/hello-login/internal/telemetry/logger"
)

// LoginService checks member credentials.
type LoginService struct {
	repo MemberRepository
}

// NewLoginService creates a new LoginService.
func NewLoginService(repo MemberRepository) *LoginService {
	return &LoginService{repo: repo}
}

// Login returns the member whose login id and password match, or
// ErrLoginFail. When several members share a login id the first one
// registered is checked.
func (s *LoginService) Login(ctx context.Context, loginID, password string) (*domain.Member, error) {
	m, ok := s.repo.FindByLoginID(loginID)
	if !ok || subtle.ConstantTimeCompare([]byte(m.Password), []byte(password)) != 1 {
		logger.L(ctx).Info("login failed", "login_id", loginID)
		return nil, domain.ErrLoginFail
	}
	logger.L(ctx).Info("login succeeded", "member_id", m.ID)
	return m, nil
}
