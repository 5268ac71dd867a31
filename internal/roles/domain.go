// Package roles manages roles and their permission sets.
package roles

import (
	"time"

	"github.com/coursepilot/coursepilot/internal/rbac"
	"github.com/coursepilot/coursepilot/internal/shared"
)

// PermissionRef is a permission as embedded in a role.
type PermissionRef struct {
	ID          int64  `json:"id"`
	Key         string `json:"key"`
	Description string `json:"description"`
}

// Role is a named bundle of permissions plus the super-admin bypass flag.
type Role struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	IsSuperAdmin bool            `json:"isSuperAdmin"`
	Permissions  []PermissionRef `json:"permissions"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// Resolved flattens the role into the snapshot carried by sessions and tokens.
func (r Role) Resolved() rbac.ResolvedRole {
	keys := make([]string, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		keys = append(keys, p.Key)
	}
	return rbac.NewResolvedRole(r.ID, r.Name, r.IsSuperAdmin, keys)
}

// Target returns the fields the mutation guards inspect.
func (r Role) Target() rbac.RoleTarget {
	return rbac.RoleTarget{ID: r.ID, Name: r.Name}
}

// CreateInput is the payload of POST /api/admin/roles.
type CreateInput struct {
	Name          string  `json:"name" validate:"required,min=2,max=60"`
	PermissionIDs []int64 `json:"permissions" validate:"omitempty,dive,gt=0"`
	IsSuperAdmin  bool    `json:"isSuperAdmin"`
}

// UpdateInput changes a role. Nil fields are left alone; a non-nil
// PermissionIDs replaces the whole set.
type UpdateInput struct {
	Name          *string  `json:"name" validate:"omitempty,min=2,max=60"`
	PermissionIDs *[]int64 `json:"permissions" validate:"omitempty,dive,gt=0"`
	IsSuperAdmin  *bool    `json:"isSuperAdmin"`
}

// Record is what the repository writes.
type Record struct {
	Name          string
	IsSuperAdmin  bool
	PermissionIDs []int64
}

// SortSpec whitelists the sortable listing fields.
var SortSpec = shared.SortSpec{
	Columns:    map[string]string{"name": "lower(name)", "isSuperAdmin": "is_super_admin", "createdAt": "created_at"},
	DefaultBy:  "createdAt",
	DefaultDir: shared.SortDesc,
}

// Messages returned to clients.
const (
	msgNotFound          = "Role not found"
	msgExists            = "Role already exists"
	msgInUse             = "Cannot delete role: one or more users are assigned to this role"
	msgUnknownPermission = "One or more permissions do not exist"
	msgReservedName      = "Role name is reserved"
	msgGrantSuperAdmin   = "Only a super admin can grant super admin access"
)
