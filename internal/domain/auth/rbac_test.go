package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowed(t *testing.T) {
	tests := []struct {
		name     string
		roles    []string
		required string
		want     bool
	}{
		{"admin implies viewer", []string{"admin"}, "viewer", true},
		{"admin implies editor", []string{"admin"}, "editor", true},
		{"admin directly", []string{"admin"}, "admin", true},
		{"editor implies viewer", []string{"editor"}, "viewer", true},
		{"editor cannot reach admin", []string{"editor"}, "admin", false},
		{"viewer directly", []string{"viewer"}, "viewer", true},
		{"viewer cannot reach editor", []string{"viewer"}, "editor", false},
		{"no roles", nil, "viewer", false},
		{"empty roles", []string{}, "anything", false},
		{"unknown role grants nothing", []string{"auditor"}, "viewer", false},
		{"order irrelevant", []string{"viewer", "admin"}, "editor", true},
		{"duplicate roles harmless", []string{"viewer", "viewer", "editor"}, "viewer", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Allowed(tt.roles, tt.required))
		})
	}
}

func TestRoleHierarchyIsPreFlattened(t *testing.T) {
	// The table lists every implied role directly; Allowed never computes a
	// transitive closure, so this shape is load-bearing.
	assert.ElementsMatch(t, []string{RoleEditor, RoleViewer}, RoleHierarchy[RoleAdmin])
	assert.ElementsMatch(t, []string{RoleViewer}, RoleHierarchy[RoleEditor])
	assert.Empty(t, RoleHierarchy[RoleViewer])
}
