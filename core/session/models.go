package session

import (
	"time"

	"github.com/eaduck/client/core"
)

// Roles as reported by the backend.
const (
	RoleAdmin   = "ADMIN"
	RoleTeacher = "TEACHER"
	RoleStudent = "STUDENT"
)

type (
	// Credential is the opaque authentication token plus its issuance and
	// usage timestamps. Exactly one live instance exists per profile.
	Credential struct {
		Token      string    `json:"token"`
		IssuedAt   time.Time `json:"issued_at"`    // UTC
		LastUsedAt time.Time `json:"last_used_at"` // UTC
	}

	// Identity is the authenticated user's profile, fetched once per login
	// and cached alongside the Credential.
	Identity struct {
		ID       int    `json:"id"`
		Email    string `json:"email"`
		Role     string `json:"role"`
		IsActive bool   `json:"isActive"`
	}

	// State is everything the client persists locally; it is saved and
	// invalidated as a whole.
	State struct {
		Credential Credential `json:"credential"`
		Identity   *Identity  `json:"identity,omitempty"`
	}
)

func (i Identity) IsAdmin() bool   { return i.Role == RoleAdmin }
func (i Identity) IsTeacher() bool { return i.Role == RoleTeacher }
func (i Identity) IsStudent() bool { return i.Role == RoleStudent }

// IsStaff reports whether the user sees all students' submissions.
func (i Identity) IsStaff() bool { return i.IsAdmin() || i.IsTeacher() }

// Credentials is the login form input.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (c *Credentials) Validate() error {
	c.Email = core.CleanString(c.Email, true /* lower */)
	return core.Validate.Struct(c)
}

// LoginResult is the backend's answer to a successful login. UserID comes
// over the wire as a string.
type LoginResult struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}
