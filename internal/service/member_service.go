package service

import (
	"context"
	"errors"

	"github.com/Marga-Ghale/ora-training-backend/internal/logs"
	"github.com/Marga-Ghale/ora-training-backend/internal/repository"
	"github.com/Marga-Ghale/ora-training-backend/internal/types"
)

// ============================================
// Member Service
// ============================================

// AddMemberInput names the user by id or by email.
type AddMemberInput struct {
	UserID string
	Email  string
	Role   types.Role
}

type MemberService interface {
	List(ctx context.Context, organizationID string) ([]*repository.OrganizationMember, error)
	// Add returns Conflict when the user already belongs to the organization.
	Add(ctx context.Context, actor *repository.OrganizationMember, input AddMemberInput) (*repository.OrganizationMember, error)
	UpdateRole(ctx context.Context, actor *repository.OrganizationMember, memberID string, role types.Role) (*repository.OrganizationMember, error)
	Remove(ctx context.Context, actor *repository.OrganizationMember, memberID string) error
}

type memberService struct {
	orgRepo  repository.OrganizationRepository
	userRepo repository.UserRepository
	events   EventPublisher
}

func NewMemberService(orgRepo repository.OrganizationRepository, userRepo repository.UserRepository, events EventPublisher) MemberService {
	return &memberService{orgRepo: orgRepo, userRepo: userRepo, events: events}
}

var errOwnerOnly = Forbidden("only an owner can grant or change the owner role")

func (s *memberService) List(ctx context.Context, organizationID string) ([]*repository.OrganizationMember, error) {
	members, err := s.orgRepo.FindMembers(ctx, organizationID)
	if err != nil {
		return nil, Upstream("list members", err)
	}
	return members, nil
}

func (s *memberService) Add(ctx context.Context, actor *repository.OrganizationMember, input AddMemberInput) (*repository.OrganizationMember, error) {
	role := input.Role
	if role == "" {
		role = types.RoleMember
	}
	if !role.Valid() {
		return nil, BadRequest("invalid role %q", role)
	}
	if role == types.RoleOwner && actor.Role != types.RoleOwner {
		return nil, errOwnerOnly
	}

	var (
		user *repository.User
		err  error
	)
	switch {
	case input.UserID != "":
		if !validID(input.UserID) {
			return nil, NotFound("user")
		}
		user, err = s.userRepo.FindByID(ctx, input.UserID)
	case input.Email != "":
		user, err = s.userRepo.FindByEmail(ctx, input.Email)
	default:
		return nil, BadRequest("userId is required")
	}
	if err != nil {
		return nil, Upstream("load user", err)
	}
	if user == nil {
		return nil, NotFound("user")
	}

	member := &repository.OrganizationMember{
		OrganizationID: actor.OrganizationID,
		UserID:         user.ID,
		Role:           role,
	}
	if err := s.orgRepo.AddMember(ctx, member); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, Conflict("user is already a member")
		}
		return nil, Upstream("add member", err)
	}
	member.User = user

	logs.Logger.Infof("[Member] %s added %s to %s as %s", actor.UserID, user.ID, actor.OrganizationID, role)
	s.events.PublishToUser(user.ID, EventMemberAdded, map[string]interface{}{
		"organizationId": actor.OrganizationID,
		"role":           role,
	})
	return member, nil
}

func (s *memberService) load(ctx context.Context, organizationID, memberID string) (*repository.OrganizationMember, error) {
	if !validID(memberID) {
		return nil, NotFound("member")
	}
	member, err := s.orgRepo.FindMemberByID(ctx, organizationID, memberID)
	if err != nil {
		return nil, Upstream("load member", err)
	}
	if member == nil {
		return nil, NotFound("member")
	}
	return member, nil
}

// guardLastOwner refuses to leave an organization without an owner.
func (s *memberService) guardLastOwner(ctx context.Context, target *repository.OrganizationMember) error {
	if target.Role != types.RoleOwner {
		return nil
	}
	owners, err := s.orgRepo.CountOwners(ctx, target.OrganizationID)
	if err != nil {
		return Upstream("count owners", err)
	}
	if owners <= 1 {
		return Conflict("cannot remove or demote the last owner")
	}
	return nil
}

func (s *memberService) UpdateRole(ctx context.Context, actor *repository.OrganizationMember, memberID string, role types.Role) (*repository.OrganizationMember, error) {
	if !role.Valid() {
		return nil, BadRequest("invalid role %q", role)
	}
	target, err := s.load(ctx, actor.OrganizationID, memberID)
	if err != nil {
		return nil, err
	}
	if (role == types.RoleOwner || target.Role == types.RoleOwner) && actor.Role != types.RoleOwner {
		return nil, errOwnerOnly
	}
	if target.Role == role {
		return target, nil
	}
	if err := s.guardLastOwner(ctx, target); err != nil {
		return nil, err
	}

	if err := s.orgRepo.UpdateMemberRole(ctx, target.ID, role); err != nil {
		return nil, Upstream("update member role", err)
	}
	target.Role = role

	s.events.PublishToUser(target.UserID, EventMemberRole, map[string]interface{}{
		"organizationId": target.OrganizationID,
		"role":           role,
	})
	return target, nil
}

func (s *memberService) Remove(ctx context.Context, actor *repository.OrganizationMember, memberID string) error {
	target, err := s.load(ctx, actor.OrganizationID, memberID)
	if err != nil {
		return err
	}
	if target.Role == types.RoleOwner && actor.Role != types.RoleOwner {
		return errOwnerOnly
	}
	if err := s.guardLastOwner(ctx, target); err != nil {
		return err
	}
	if err := s.orgRepo.RemoveMember(ctx, target.ID); err != nil {
		return Upstream("remove member", err)
	}

	logs.Logger.Infof("[Member] %s removed %s from %s", actor.UserID, target.UserID, target.OrganizationID)
	s.events.PublishToUser(target.UserID, EventMemberRemoved, map[string]interface{}{
		"organizationId": target.OrganizationID,
	})
	return nil
}
