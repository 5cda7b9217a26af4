// Package access decides who may view or act on a document.
package access

import "strings"

const (
	RoleAdmin  = "admin"
	RoleExpert = "expert"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID   string
	Role     string
	Username string
}

// IsAdmin reports whether the actor holds the admin role.
func IsAdmin(a Actor) bool {
	return a.Role == RoleAdmin
}

// IsExpert reports whether the actor holds the expert role.
func IsExpert(a Actor) bool {
	return a.Role == RoleExpert
}

// CanAccess reports whether the actor may view or act on a document with the
// given assignment. Admins see everything; everyone else sees unassigned
// documents and documents assigned to themselves.
func CanAccess(assignedTo *string, a Actor) bool {
	if IsAdmin(a) {
		return true
	}
	if assignedTo == nil {
		return true
	}
	return a.UserID != "" && *assignedTo == a.UserID
}

// NormalizeRole maps free-form role strings onto the known roles.
// Unknown values are returned lowercased so they fail both role checks.
func NormalizeRole(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleExpert
}
