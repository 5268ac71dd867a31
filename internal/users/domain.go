// Package users manages admin accounts.
package users

import (
	"net/http"
	"strconv"
	"time"

	"github.com/coursepilot/coursepilot/internal/rbac"
	"github.com/coursepilot/coursepilot/internal/shared"
)

// BcryptCost is the work factor for stored password hashes.
const BcryptCost = 12

// RoleSummary is the role as embedded in a user.
type RoleSummary struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	IsSuperAdmin bool   `json:"isSuperAdmin"`
}

// User is an admin account.
type User struct {
	ID           int64       `json:"id"`
	Username     string      `json:"username"`
	PasswordHash string      `json:"-"`
	Fullname     string      `json:"fullname"`
	Email        string      `json:"email"`
	Phone        string      `json:"phone"`
	IsActive     bool        `json:"isActive"`
	Role         RoleSummary `json:"role"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// Target returns the fields the mutation guards inspect.
func (u User) Target() rbac.UserTarget {
	return rbac.UserTarget{ID: u.ID, Username: u.Username, RoleID: u.Role.ID, IsActive: u.IsActive}
}

// CreateInput is the payload of POST /api/admin/users.
type CreateInput struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Fullname string `json:"fullname" validate:"max=120"`
	Email    string `json:"email" validate:"omitempty,email,max=255"`
	Phone    string `json:"phone" validate:"max=30"`
	RoleID   int64  `json:"role" validate:"required,gt=0"`
	IsActive *bool  `json:"isActive"`
}

// UpdateInput changes a user. Nil fields are left alone.
type UpdateInput struct {
	Fullname *string `json:"fullname" validate:"omitempty,max=120"`
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Phone    *string `json:"phone" validate:"omitempty,max=30"`
	RoleID   *int64  `json:"role" validate:"omitempty,gt=0"`
	IsActive *bool   `json:"isActive"`
	Password *string `json:"password" validate:"omitempty,min=6,max=72"`
}

// Record is what the repository writes.
type Record struct {
	Username     string
	PasswordHash string
	Fullname     string
	Email        string
	Phone        string
	RoleID       int64
	IsActive     bool
}

// ListFilters extends the common listing filters.
type ListFilters struct {
	shared.ListFilters
	RoleID   int64
	IsActive *bool
}

// ParseListFilters reads roleId and isActive on top of the common filters.
func ParseListFilters(r *http.Request) ListFilters {
	f := ListFilters{ListFilters: shared.ParseListFilters(r)}
	q := r.URL.Query()
	if id, err := strconv.ParseInt(q.Get("roleId"), 10, 64); err == nil && id > 0 {
		f.RoleID = id
	}
	switch q.Get("isActive") {
	case "true":
		v := true
		f.IsActive = &v
	case "false":
		v := false
		f.IsActive = &v
	}
	return f
}

// SortSpec whitelists the sortable listing fields.
var SortSpec = shared.SortSpec{
	Columns: map[string]string{
		"username":  "lower(u.username)",
		"fullname":  "lower(u.fullname)",
		"isActive":  "u.is_active",
		"createdAt": "u.created_at",
	},
	DefaultBy:  "createdAt",
	DefaultDir: shared.SortDesc,
	TieBreaker: "u.id",
}

const (
	msgNotFound    = "User not found"
	msgTaken       = "Username already taken"
	msgUnknownRole = "Role does not exist"
)
