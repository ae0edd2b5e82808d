package session

import (
	"strings"
	"time"
)

// Role of the signed-in person as the backend reports it.
type Role string

const (
	RoleUser     Role = "USER"
	RoleEmployee Role = "EMPLOYEE"
)

// ParseRole normalises a claim value. Unknown and empty values become RoleUser.
func ParseRole(raw string) Role {
	r := strings.ToUpper(strings.TrimSpace(raw))
	r = strings.TrimPrefix(r, "ROLE_")
	switch Role(r) {
	case RoleEmployee:
		return RoleEmployee
	default:
		return RoleUser
	}
}

// Identity is decoded from the token payload. It is a display hint; the backend
// remains the authority on what the bearer may do.
type Identity struct {
	Subject     string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"fullName"`
	Role        Role      `json:"role"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Credentials submitted on the entry screen.
type Credentials struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Snapshot is a consistent copy of a session's state.
type Snapshot struct {
	Initialized bool      `json:"initialized"`
	Token       string    `json:"-"`
	Identity    *Identity `json:"user,omitempty"`
}

// Authenticated reports whether both token and identity are present.
func (s Snapshot) Authenticated() bool {
	return s.Token != "" && s.Identity != nil
}

// Role returns the identity role, or "" when unauthenticated.
func (s Snapshot) Role() Role {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.Role
}
