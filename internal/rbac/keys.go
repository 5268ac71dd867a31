package rbac

import (
	"errors"
	"regexp"
	"strings"
)

// Separator splits a permission key into resource and action.
const Separator = ":"

// CRUD actions expanded by the generator.
const (
	ActionCreate = "create"
	ActionRead   = "read"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// CrudActions lists the canonical actions in generation order.
var CrudActions = []string{ActionCreate, ActionRead, ActionUpdate, ActionDelete}

// Reserved system identities.
const (
	SystemRoleName = "superadmin"
	SystemUsername = "superadmin"
)

// Permission keys checked by the admin surface.
const (
	PermPermissionCreate = "permission:create"
	PermPermissionRead   = "permission:read"
	PermPermissionUpdate = "permission:update"
	PermPermissionDelete = "permission:delete"

	PermRoleCreate = "role:create"
	PermRoleRead   = "role:read"
	PermRoleUpdate = "role:update"
	PermRoleDelete = "role:delete"

	PermUserCreate = "user:create"
	PermUserRead   = "user:read"
	PermUserUpdate = "user:update"
	PermUserDelete = "user:delete"

	PermCategoryCreate = "category:create"
	PermCategoryRead   = "category:read"
	PermCategoryUpdate = "category:update"
	PermCategoryDelete = "category:delete"

	PermSEORead = "seo:read"
	PermJobRead = "job:read"
)

var (
	// ErrMalformedKey is returned for keys that are not resource:action.
	ErrMalformedKey = errors.New("permission key must look like resource:action")
	// ErrMalformedResource is returned for resource names the generator refuses.
	ErrMalformedResource = errors.New("resource must be lowercase letters, digits, '-' or '_'")
)

var segmentPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Key is a validated permission key of the form resource:action.
type Key string

// ParseKey normalises and validates a fully qualified key.
func ParseKey(raw string) (Key, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	resource, action, ok := strings.Cut(raw, Separator)
	if !ok || !segmentPattern.MatchString(resource) || !segmentPattern.MatchString(action) {
		return "", ErrMalformedKey
	}
	return Key(raw), nil
}

// ValidateResource normalises a bare resource name.
func ValidateResource(raw string) (string, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if !segmentPattern.MatchString(raw) {
		return "", ErrMalformedResource
	}
	return raw, nil
}

// IsQualified reports whether raw carries the separator and therefore names one key.
func IsQualified(raw string) bool {
	return strings.Contains(raw, Separator)
}

// CrudKeys expands a validated resource into its four CRUD keys.
func CrudKeys(resource string) []Key {
	keys := make([]Key, 0, len(CrudActions))
	for _, action := range CrudActions {
		keys = append(keys, Key(resource+Separator+action))
	}
	return keys
}

// Resource returns the part before the separator.
func (k Key) Resource() string {
	resource, _, _ := strings.Cut(string(k), Separator)
	return resource
}

// Action returns the part after the separator.
func (k Key) Action() string {
	_, action, _ := strings.Cut(string(k), Separator)
	return action
}

func (k Key) String() string {
	return string(k)
}
