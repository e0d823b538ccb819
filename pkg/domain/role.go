package domain

import dErrors "bloodlink/pkg/domain-errors"

// ActorRole identifies which side of the portal an authenticated actor acts
// for. Authorization decisions combine the role with explicit ownership checks
// against the event collaborator; the role alone never grants access to a
// specific record.
type ActorRole string

const (
	RoleDonor        ActorRole = "donor"
	RoleOrganization ActorRole = "organization"
	RoleHospital     ActorRole = "hospital"
	RoleAdmin        ActorRole = "admin"
)

var validRoles = map[ActorRole]bool{
	RoleDonor:        true,
	RoleOrganization: true,
	RoleHospital:     true,
	RoleAdmin:        true,
}

// ParseActorRole constructs an ActorRole from external input (JWT claims).
func ParseActorRole(s string) (ActorRole, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r := ActorRole(s)
	if !validRoles[r] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown role")
	}
	return r, nil
}

func (r ActorRole) String() string { return string(r) }
