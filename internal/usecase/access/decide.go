// Package access decides whether a principal holds a required role, globally
// or on one index.
package access

import "github.com/kailas-cloud/docsearch/internal/domain/role"

// Subject is everything a decision depends on.
type Subject struct {
	Global role.Role
	// Indexed marks an index-scoped check; Assigned and Guest apply only then.
	Indexed  bool
	Assigned role.Role
	Guest    role.Role
}

// Effective resolves the role that counts at the subject's scope. A global
// ADMIN is ADMIN on every index.
func (s Subject) Effective() role.Role {
	if !s.Indexed {
		return s.Global
	}
	if s.Global == role.Admin {
		return role.Admin
	}
	return role.Max(s.Assigned, s.Guest)
}

// Decide reports whether the subject's effective role implies required.
func Decide(s Subject, required role.Role) bool {
	return s.Effective().Implies(required)
}

// GrantRequirement is the role needed to grant or revoke target: ADMIN for
// ADMIN, WRITER for everything else.
func GrantRequirement(target role.Role) role.Role {
	if target == role.Admin {
		return role.Admin
	}
	return role.Writer
}
