package domain

import "github.com/google/uuid"

// Role is the closed set of platform roles. Guards switch over it
// exhaustively, so adding a role is a compile-visible change everywhere
// roles are checked.
type Role string

const (
	RoleStudent     Role = "student"
	RoleDonor       Role = "donor"
	RoleInstitution Role = "institution"
	RoleAdmin       Role = "admin"
)

// Valid reports whether the role is one of the closed set.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleDonor, RoleInstitution, RoleAdmin:
		return true
	}
	return false
}

// Actor maps the platform role to the state-machine actor role.
func (r Role) Actor() Actor {
	if r == RoleAdmin {
		return ActorAdmin
	}
	return ActorUser
}

// AuthUser is the resolved identity of the current request.
type AuthUser struct {
	ID    uuid.UUID
	Email string
	Role  Role
}

// IsAdmin is a convenience for the common gate.
func (u AuthUser) IsAdmin() bool { return u.Role == RoleAdmin }
