package auth

// Canonical role names used across both protocol pipelines.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

// RoleHierarchy maps each role to the set of roles it implies. The table is
// pre-flattened: admin lists both editor and viewer directly, so lookups are
// a single level deep and no transitive closure is computed.
var RoleHierarchy = map[string][]string{
	RoleAdmin:  {RoleEditor, RoleViewer},
	RoleEditor: {RoleViewer},
	RoleViewer: {},
}

// Allowed reports whether a user holding the given roles may access a
// resource that requires the given role. A role grants access when it is
// held directly or when a held role lists the required role in
// RoleHierarchy. Order of the role slice is irrelevant.
func Allowed(roles []string, required string) bool {
	for _, r := range roles {
		if r == required {
			return true
		}
	}
	for _, r := range roles {
		for _, implied := range RoleHierarchy[r] {
			if implied == required {
				return true
			}
		}
	}
	return false
}
