package service

import (
	"context"

	"github.com/yndnr/hello-login/internal/core/domain"
	"github.com/yndnr/hello-login/internal/telemetry/logger"
)

// MemberRepository is the storage interface for members.
type MemberRepository interface {
	Save(m *domain.Member) *domain.Member
	FindByID(id int64) (*domain.Member, bool)
	FindByLoginID(loginID string) (*domain.Member, bool)
	FindAll() []*domain.Member
}

// MemberService handles member registration and lookup.
type MemberService struct {
	repo MemberRepository
}

// NewMemberService creates a new MemberService.
func NewMemberService(repo MemberRepository) *MemberService {
	return &MemberService{repo: repo}
}

// Join validates and stores a new member. Login ids are not required to be
// unique.
func (s *MemberService) Join(ctx context.Context, m *domain.Member) (*domain.Member, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	saved := s.repo.Save(m)
	logger.L(ctx).Info("member joined", "member_id", saved.ID, "login_id", saved.LoginID)
	return saved, nil
}

// Get returns the member with the given id.
func (s *MemberService) Get(_ context.Context, id int64) (*domain.Member, error) {
	m, ok := s.repo.FindByID(id)
	if !ok {
		return nil, domain.ErrMemberNotFound
	}
	return m, nil
}

// List returns every member in insertion order.
func (s *MemberService) List(_ context.Context) []*domain.Member {
	return s.repo.FindAll()
}
