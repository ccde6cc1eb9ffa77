package types

import "strings"

// Role is an organization membership role.
type Role string

// Organization member roles, lowest to highest
const (
	RoleMember Role = "MEMBER"
	RoleAdmin  Role = "ADMIN"
	RoleOwner  Role = "OWNER"
)

// Role sets used by route guards. Checks against these are whitelist
// checks; OWNER is not implied by ADMIN unless listed.
var (
	AnyRole      = []Role{RoleMember, RoleAdmin, RoleOwner}
	ManagerRoles = []Role{RoleAdmin, RoleOwner}
	OwnerOnly    = []Role{RoleOwner}
)

// Rank orders roles for the optional hierarchical mode. Unknown roles rank 0.
func (r Role) Rank() int {
	switch r {
	case RoleOwner:
		return 3
	case RoleAdmin:
		return 2
	case RoleMember:
		return 1
	default:
		return 0
	}
}

func (r Role) Valid() bool {
	return r.Rank() > 0
}

// RoleIn reports whether r is listed in roles.
func RoleIn(r Role, roles []Role) bool {
	for _, allowed := range roles {
		if r == allowed {
			return true
		}
	}
	return false
}

// Allows reports whether r satisfies roles. With hierarchy enabled a role
// also satisfies any set containing a lower-ranked role.
func (r Role) Allows(roles []Role, hierarchy bool) bool {
	if RoleIn(r, roles) {
		return true
	}
	if !hierarchy || !r.Valid() {
		return false
	}
	for _, allowed := range roles {
		if allowed.Valid() && r.Rank() >= allowed.Rank() {
			return true
		}
	}
	return false
}

// ParseRole accepts any letter case ("owner", "Owner", "OWNER").
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	return r, r.Valid()
}

// Invitation status values
const (
	InvitationPending   = "PENDING"
	InvitationAccepted  = "ACCEPTED"
	InvitationExpired   = "EXPIRED"
	InvitationCancelled = "CANCELLED"
)

// Training session status values
const (
	SessionActive    = "ACTIVE"
	SessionCompleted = "COMPLETED"
	SessionAbandoned = "ABANDONED"
)

func IsValidSessionStatus(status string) bool {
	switch status {
	case SessionActive, SessionCompleted, SessionAbandoned:
		return true
	}
	return false
}
