// Package auth handles sign-in for the dashboard and token issuance for API clients.
package auth

import (
	"time"

	"github.com/coursepilot/coursepilot/internal/rbac"
)

// User is an account together with its flattened role.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Fullname     string
	Email        string
	IsActive     bool
	Role         rbac.ResolvedRole
}

// Actor returns the identity snapshot stored in sessions and tokens.
func (u *User) Actor() rbac.Actor {
	return rbac.Actor{ID: u.ID, Username: u.Username, Role: u.Role}
}

// LoginInput is the payload of POST /api/auth/login and the sign-in form.
type LoginInput struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// Profile is the public view of the signed-in user.
type Profile struct {
	ID       int64             `json:"id"`
	Username string            `json:"username"`
	Fullname string            `json:"fullname,omitempty"`
	Email    string            `json:"email,omitempty"`
	Role     rbac.ResolvedRole `json:"role"`
}

// TokenResponse is returned by the login and refresh endpoints.
type TokenResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	User        Profile   `json:"user"`
}

func (u *User) profile() Profile {
	return Profile{ID: u.ID, Username: u.Username, Fullname: u.Fullname, Email: u.Email, Role: u.Role}
}
