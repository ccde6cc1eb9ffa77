package service

import (
	"context"
	"strings"

	"github.com/Marga-Ghale/ora-training-backend/internal/logs"
	"github.com/Marga-Ghale/ora-training-backend/internal/repository"
	"github.com/Marga-Ghale/ora-training-backend/internal/types"
)

// MembershipAuthority decides whether a user holds one of a set of roles in
// an organization. It is the only place role lists are evaluated.
type MembershipAuthority interface {
	// Authorize checks, in order: ids present (BadRequest), user exists
	// (NotFound), membership exists (Forbidden "not a member"), role allowed
	// (Forbidden "insufficient role").
	Authorize(ctx context.Context, userID, organizationID string, allowed ...types.Role) (*repository.OrganizationMember, error)
}

type membershipAuthority struct {
	userRepo  repository.UserRepository
	orgRepo   repository.OrganizationRepository
	hierarchy bool
}

// NewMembershipAuthority builds the authority. With hierarchy false, roles
// are an explicit allowlist: OWNER does not pass an ADMIN-only check.
func NewMembershipAuthority(userRepo repository.UserRepository, orgRepo repository.OrganizationRepository, hierarchy bool) MembershipAuthority {
	return &membershipAuthority{userRepo: userRepo, orgRepo: orgRepo, hierarchy: hierarchy}
}

func (a *membershipAuthority) Authorize(ctx context.Context, userID, organizationID string, allowed ...types.Role) (*repository.OrganizationMember, error) {
	if strings.TrimSpace(organizationID) == "" {
		return nil, BadRequest("organizationId is required")
	}
	if strings.TrimSpace(userID) == "" {
		return nil, BadRequest("userId is required")
	}

	if !validID(userID) {
		return nil, NotFound("user")
	}
	user, err := a.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, Upstream("load user", err)
	}
	if user == nil {
		return nil, NotFound("user")
	}

	if !validID(organizationID) {
		return nil, Forbidden("not a member")
	}
	member, err := a.orgRepo.FindMember(ctx, organizationID, userID)
	if err != nil {
		return nil, Upstream("load membership", err)
	}
	if member == nil {
		logs.Logger.Debugf("[Authority] user %s is not a member of %s", userID, organizationID)
		return nil, Forbidden("not a member")
	}

	if !member.Role.Allows(allowed, a.hierarchy) {
		logs.Logger.Debugf("[Authority] user %s has role %s in %s, need %v", userID, member.Role, organizationID, allowed)
		return nil, Forbidden("insufficient role")
	}
	return member, nil
}
