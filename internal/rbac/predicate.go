package rbac

// HasPermission reports whether role grants at least one of required.
// A nil role never passes, a super-admin role always does.
func HasPermission(role *ResolvedRole, required ...string) bool {
	if role == nil {
		return false
	}
	if role.IsSuperAdmin {
		return true
	}
	granted := role.lookup()
	for _, key := range required {
		if _, ok := granted[key]; ok {
			return true
		}
	}
	return false
}

// Can is HasPermission for an actor.
func (a *Actor) Can(required ...string) bool {
	if a == nil {
		return false
	}
	return HasPermission(&a.Role, required...)
}
