package domain

import (
	"strconv"
	"strings"
)

// Member is a registered user.
//
// ID is zero until the member is saved; the store assigns it. LoginID is not
// unique at the store level. Password is kept as submitted.
type Member struct {
	ID       int64  `json:"id"`
	LoginID  string `json:"login_id"`
	Name     string `json:"name"`
	Password string `json:"-"`
}

// Clone returns a copy of the member.
func (m *Member) Clone() *Member {
	if m == nil {
		return nil
	}
	c := *m
	return &c
}

// Validate checks that every field a registration needs is present.
func (m *Member) Validate() error {
	var missing []string
	if strings.TrimSpace(m.LoginID) == "" {
		missing = append(missing, "login_id")
	}
	if strings.TrimSpace(m.Name) == "" {
		missing = append(missing, "name")
	}
	if m.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return ErrValidation.WithDetails("required: " + strings.Join(missing, ", "))
	}
	return nil
}

// String renders the member for logs without the password.
func (m *Member) String() string {
	if m == nil {
		return "Member(nil)"
	}
	return "Member(id=" + strconv.FormatInt(m.ID, 10) + ", loginId=" + m.LoginID + ", name=" + m.Name + ")"
}
