package auth

// Role normalization collapses the attribute/claim shapes different IdPs use
// for role information into the canonical role list stored on the session.

// roleAttributeNames are the SAML attribute names scanned for roles. The
// list covers the naming variance seen across IdPs; scan order only affects
// the resulting slice order, never the RBAC outcome.
var roleAttributeNames = []string{"userRoles", "Role", "roles", "memberOf", "groups", "role"}

// RolesFromAttributes derives the role set from SAML attributes. Values from
// every candidate attribute are flattened and then deduplicated, preserving
// first-seen order.
func RolesFromAttributes(attrs map[string][]string) []string {
	var roles []string
	for _, name := range roleAttributeNames {
		roles = append(roles, attrs[name]...)
	}
	seen := make(map[string]struct{}, len(roles))
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

// FirstAttribute returns the first value of the named attribute, or the
// empty string when the attribute is absent or empty.
func FirstAttribute(attrs map[string][]string, name string) string {
	if vs := attrs[name]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// RolesFromClaims derives the role list from OIDC ID-token claims: the
// realm-level roles under realm_access.roles, extended with the
// client-scoped roles under resource_access.<clientID>.roles.
//
// Unlike the SAML path this performs no deduplication; a role present at
// both realm and client scope appears twice. RBAC decisions are unaffected.
func RolesFromClaims(claims map[string]any, clientID string) []string {
	roles := stringSlice(nestedValue(claims, "realm_access", "roles"))
	if clientID != "" {
		roles = append(roles, stringSlice(nestedValue(claims, "resource_access", clientID, "roles"))...)
	}
	return roles
}

// nestedValue walks a chain of map keys, returning nil as soon as the path
// breaks.
func nestedValue(m map[string]any, path ...string) any {
	var v any = m
	for _, key := range path {
		mm, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		v = mm[key]
	}
	return v
}

// stringSlice converts a decoded JSON value to a string slice, accepting
// both []any and a bare string. Anything else yields an empty slice.
func stringSlice(v any) []string {
	switch vv := v.(type) {
	case []any:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return vv
	case string:
		return []string{vv}
	default:
		return nil
	}
}
