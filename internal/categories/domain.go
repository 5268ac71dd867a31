// Package categories manages course categories, the content resource guarded by category:* keys.
package categories

import (
	"net/http"
	"time"

	"github.com/coursepilot/coursepilot/internal/shared"
)

// Category groups courses.
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateInput is the payload of POST /api/admin/categories.
type CreateInput struct {
	Name        string `json:"name" validate:"required,min=2,max=120"`
	Description string `json:"description" validate:"max=1000"`
	IsActive    *bool  `json:"isActive"`
}

// UpdateInput changes a category. Renaming regenerates the slug.
type UpdateInput struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=120"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	IsActive    *bool   `json:"isActive"`
}

// Record is what the repository writes.
type Record struct {
	Name        string
	Slug        string
	Description string
	IsActive    bool
}

// ListFilters extends the common listing filters with isActive.
type ListFilters struct {
	shared.ListFilters
	IsActive *bool
}

// ParseListFilters reads isActive on top of the common filters.
func ParseListFilters(r *http.Request) ListFilters {
	f := ListFilters{ListFilters: shared.ParseListFilters(r)}
	switch r.URL.Query().Get("isActive") {
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
		"name":      "lower(name)",
		"isActive":  "is_active",
		"createdAt": "created_at",
	},
	DefaultBy:  "createdAt",
	DefaultDir: shared.SortDesc,
}

const (
	msgNotFound  = "Category not found"
	msgSlugTaken = "Category slug already exists"
)
