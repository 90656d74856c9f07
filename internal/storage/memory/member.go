package memory

import (
	"log/slog"
	"sync"

	"github.com/yndnr/hello-login/internal/core/domain"
)

// MemberObserver is notified after a member is stored.
type MemberObserver interface {
	MemberSaved()
}

// MemberStore is an in-memory member repository.
//
// Ids start at 1 and are never reused; Clear empties the store but keeps
// the sequence where it was.
type MemberStore struct {
	mu       sync.RWMutex
	members  map[int64]*domain.Member
	order    []int64
	sequence int64

	logger   *slog.Logger
	observer MemberObserver
}

// MemberOption configures a MemberStore.
type MemberOption func(*MemberStore)

// WithMemberLogger sets the logger used for save events.
func WithMemberLogger(logger *slog.Logger) MemberOption {
	return func(s *MemberStore) {
		s.logger = logger
	}
}

// WithMemberObserver registers an observer for save events.
func WithMemberObserver(o MemberObserver) MemberOption {
	return func(s *MemberStore) {
		s.observer = o
	}
}

// NewMemberStore creates an empty member store.
func NewMemberStore(opts ...MemberOption) *MemberStore {
	s := &MemberStore{
		members: make(map[int64]*domain.Member),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save assigns the next id to m, stores a copy and returns it.
// The caller's value gets the id as well.
func (s *MemberStore) Save(m *domain.Member) *domain.Member {
	s.mu.Lock()
	s.sequence++
	m.ID = s.sequence
	stored := m.Clone()
	s.members[stored.ID] = stored
	s.order = append(s.order, stored.ID)
	s.mu.Unlock()

	s.logger.Info("save member", "member", stored.String())
	if s.observer != nil {
		s.observer.MemberSaved()
	}
	return stored.Clone()
}

// FindByID returns the member with the given id.
func (s *MemberStore) FindByID(id int64) (*domain.Member, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[id]
	if !ok {
		return nil, false
	}
	return m.Clone(), true
}

// FindByLoginID returns the first member, in insertion order, whose login
// id equals loginID. It scans every record.
func (s *MemberStore) FindByLoginID(loginID string) (*domain.Member, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		if m := s.members[id]; m.LoginID == loginID {
			return m.Clone(), true
		}
	}
	return nil, false
}

// FindAll returns copies of all members in insertion order.
func (s *MemberStore) FindAll() []*domain.Member {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Member, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.members[id].Clone())
	}
	return out
}

// Count returns the number of stored members.
func (s *MemberStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Clear removes every member. The id sequence is not reset.
func (s *MemberStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members = make(map[int64]*domain.Member)
	s.order = nil
}
