package user

import "fmt"

// Role is the closed set of account roles. The zero value is not valid;
// new accounts default to RolePlayer at the data layer.
type Role string

const (
	RolePlayer Role = "player"
	RoleAdmin  Role = "admin"
	RoleBanned Role = "banned"
)

// Roles lists all valid role values.
func Roles() []Role {
	return []Role{RolePlayer, RoleAdmin, RoleBanned}
}

// ParseRole converts a string into a Role, rejecting anything outside the enum.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RolePlayer, RoleAdmin, RoleBanned:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Valid reports whether the role is one of the three enum values.
func (r Role) Valid() bool {
	switch r {
	case RolePlayer, RoleAdmin, RoleBanned:
		return true
	}
	return false
}

func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

func (r Role) IsPlayer() bool {
	return r == RolePlayer
}

func (r Role) IsBanned() bool {
	return r == RoleBanned
}

// CanAccessAdmin reports whether the role grants access to the admin panel.
func (r Role) CanAccessAdmin() bool {
	return r == RoleAdmin
}

// Label returns the display label for the role.
func (r Role) Label() string {
	switch r {
	case RolePlayer:
		return "Spieler"
	case RoleAdmin:
		return "Administrator"
	case RoleBanned:
		return "Gesperrt"
	}
	return string(r)
}

func (r Role) String() string {
	return string(r)
}
