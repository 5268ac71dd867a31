package rbac

import (
	"encoding/json"
	"errors"
	"strings"
)

// ResolvedRole is the flattened role snapshot carried in sessions and tokens.
// Permission keys are stored as plain strings and looked up through a set.
type ResolvedRole struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	IsSuperAdmin bool     `json:"isSuperAdmin"`
	Permissions  []string `json:"permissions"`

	set map[string]struct{}
}

// NewResolvedRole builds a ResolvedRole, dropping blank and duplicate keys.
func NewResolvedRole(id int64, name string, superAdmin bool, permissions []string) ResolvedRole {
	role := ResolvedRole{
		ID:           id,
		Name:         name,
		IsSuperAdmin: superAdmin,
		Permissions:  dedupe(permissions),
	}
	role.set = buildSet(role.Permissions)
	return role
}

// UnmarshalJSON decodes a role snapshot and rebuilds its lookup set.
func (r *ResolvedRole) UnmarshalJSON(data []byte) error {
	type raw ResolvedRole
	var decoded raw
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	for _, p := range decoded.Permissions {
		if strings.TrimSpace(p) == "" {
			return errors.New("empty permission key")
		}
	}
	*r = NewResolvedRole(decoded.ID, decoded.Name, decoded.IsSuperAdmin, decoded.Permissions)
	return nil
}

// Validate checks the snapshot shape before it is trusted by the predicate.
func (r *ResolvedRole) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("role name missing")
	}
	for _, p := range r.Permissions {
		if strings.TrimSpace(p) == "" {
			return errors.New("empty permission key")
		}
	}
	return nil
}

func (r *ResolvedRole) lookup() map[string]struct{} {
	if r.set != nil {
		return r.set
	}
	// Literal roles built without NewResolvedRole.
	return buildSet(r.Permissions)
}

// Actor is the authenticated caller as seen by guards and services.
type Actor struct {
	ID       int64        `json:"id"`
	Username string       `json:"username"`
	Role     ResolvedRole `json:"role"`
}

// Validate checks the actor snapshot.
func (a *Actor) Validate() error {
	if a.ID <= 0 {
		return errors.New("actor id missing")
	}
	if strings.TrimSpace(a.Username) == "" {
		return errors.New("actor username missing")
	}
	return a.Role.Validate()
}

func dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

func buildSet(keys []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}
