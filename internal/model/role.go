package model

import "strings"

// Role names the three access tiers. Stored as the literal string in
// the users.role column and carried in the JWT "role" claim.
type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleManager    Role = "MANAGER"
	RoleUser       Role = "USER"
)

// Permission identifies a single grantable action.
type Permission string

const (
	PermCreateUser  Permission = "CREATE_USER"
	PermViewUser    Permission = "VIEW_USER"
	PermUpdateUser  Permission = "UPDATE_USER"
	PermDeleteUser  Permission = "DELETE_USER"
	PermSearchUsers Permission = "SEARCH_USERS"
	PermManageRoles Permission = "MANAGE_ROLES"
)

// rolePermissions is the whole authorization table: a plain data
// mapping, deliberately not a type hierarchy. Finer per-operation
// rules (self-action, elevation guards) live in the services on top
// of this table.
var rolePermissions = map[Role]map[Permission]bool{
	RoleSuperAdmin: {
		PermCreateUser:  true,
		PermViewUser:    true,
		PermUpdateUser:  true,
		PermDeleteUser:  true,
		PermSearchUsers: true,
		PermManageRoles: true,
	},
	RoleManager: {
		PermCreateUser: true,
		PermViewUser:   true,
		PermUpdateUser: true,
		PermDeleteUser: true,
	},
	RoleUser: {},
}

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	_, ok := rolePermissions[r]
	return ok
}

// HasPermission consults the static table.
func (r Role) HasPermission(p Permission) bool {
	return rolePermissions[r][p]
}

// ParseRole normalizes and validates a role string.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", ErrInvalidRole
	}
	return r, nil
}
