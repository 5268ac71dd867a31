// Package permissions manages permission keys and the CRUD generator.
package permissions

import (
	"time"

	"github.com/coursepilot/coursepilot/internal/shared"
)

// Permission is one grantable capability.
type Permission struct {
	ID          int64     `json:"id"`
	Key         string    `json:"key"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateInput is the payload of POST /api/admin/permissions. A key without
// the separator names a resource and expands to its CRUD keys.
type CreateInput struct {
	Key         string `json:"key" validate:"required,min=2,max=100"`
	Description string `json:"description" validate:"max=255"`
}

// UpdateInput changes a permission. Nil fields are left alone.
type UpdateInput struct {
	Key         *string `json:"key" validate:"omitempty,min=3,max=100"`
	Description *string `json:"description" validate:"omitempty,max=255"`
}

// GenerateResult reports a CRUD generation.
type GenerateResult struct {
	Success   bool     `json:"success"`
	Generated bool     `json:"generated"`
	Resource  string   `json:"resource"`
	Keys      []string `json:"keys"`
	Created   int      `json:"created"`
}

// SortSpec whitelists the sortable listing fields.
var SortSpec = shared.SortSpec{
	Columns:    map[string]string{"key": "key", "createdAt": "created_at"},
	DefaultBy:  "createdAt",
	DefaultDir: shared.SortDesc,
}
