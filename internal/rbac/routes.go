package rbac

import "strings"

// RouteRule maps a page path prefix to the permission needed to view it.
type RouteRule struct {
	Prefix     string
	Permission string
}

// PageRoutes is checked in order by the edge guard. Paths not listed are not
// gated at the edge.
var PageRoutes = []RouteRule{
	{Prefix: "/permissions", Permission: PermPermissionRead},
	{Prefix: "/roles", Permission: PermRoleRead},
	{Prefix: "/users", Permission: PermUserRead},
	{Prefix: "/categories", Permission: PermCategoryRead},
	{Prefix: "/seo", Permission: PermSEORead},
}

// MatchRoute returns the first rule whose prefix matches path.
func MatchRoute(rules []RouteRule, path string) (RouteRule, bool) {
	for _, rule := range rules {
		if strings.HasPrefix(path, rule.Prefix) {
			return rule, true
		}
	}
	return RouteRule{}, false
}
