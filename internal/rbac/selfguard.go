package rbac

import "github.com/coursepilot/coursepilot/internal/shared"

// Role and user mutation guards. They run after the target has been fetched
// and before any write, and only look at the actor and the target.

// RoleTarget is the part of a role the guards need.
type RoleTarget struct {
	ID   int64
	Name string
}

// UserTarget is the part of a user the guards need.
type UserTarget struct {
	ID       int64
	Username string
	RoleID   int64
	IsActive bool
}

// UserChange describes the RBAC-relevant fields of a user update. Nil means unchanged.
type UserChange struct {
	RoleID   *int64
	IsActive *bool
}

// CheckRoleMutation rejects edits or deletes of the caller's own role and of the system role.
func CheckRoleMutation(actor Actor, target RoleTarget, deleting bool) error {
	if target.ID == actor.Role.ID {
		if deleting {
			return shared.Forbidden("You cannot delete the role currently assigned to you")
		}
		return shared.Forbidden("You cannot modify the role currently assigned to you")
	}
	if target.Name == SystemRoleName {
		if deleting {
			return shared.Forbidden("System role cannot be deleted")
		}
		return shared.Forbidden("System role cannot be modified")
	}
	return nil
}

// CheckUserUpdate rejects edits of the system user and self edits that would
// change the caller's role or deactivate the caller.
func CheckUserUpdate(actor Actor, target UserTarget, change UserChange) error {
	if target.Username == SystemUsername {
		return shared.Forbidden("System user cannot be modified")
	}
	if target.ID != actor.ID {
		return nil
	}
	if change.RoleID != nil && *change.RoleID != target.RoleID {
		return shared.Forbidden("You cannot change your own role")
	}
	if change.IsActive != nil && !*change.IsActive {
		return shared.Forbidden("You cannot deactivate your own account")
	}
	return nil
}

// CheckUserDelete rejects deleting oneself and the system user.
func CheckUserDelete(actor Actor, target UserTarget) error {
	if target.ID == actor.ID {
		return shared.Forbidden("You cannot delete your own account")
	}
	if target.Username == SystemUsername {
		return shared.Forbidden("System user cannot be deleted")
	}
	return nil
}
