package domain

// Role enumerates caller roles as resolved by the identity layer.
type Role string

const (
	RoleCitizen    Role = "CITIZEN"
	RoleFieldAgent Role = "FIELD_AGENT"
	RoleSupervisor Role = "SUPERVISOR"
	RoleAdmin      Role = "ADMIN"
)

// Actor is the already-authenticated caller passed into engine operations.
// The engine never verifies credentials itself.
type Actor struct {
	ID   string
	Role Role
}

// IsStaff reports whether the actor holds any staff-level role.
func (a Actor) IsStaff() bool {
	switch a.Role {
	case RoleFieldAgent, RoleSupervisor, RoleAdmin:
		return true
	}
	return false
}

// StaffRoles lists every staff-level role.
func StaffRoles() []Role {
	return []Role{RoleFieldAgent, RoleSupervisor, RoleAdmin}
}
