package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/Marga-Ghale/ora-training-backend/internal/logs"
	"github.com/Marga-Ghale/ora-training-backend/internal/repository"
	"github.com/Marga-Ghale/ora-training-backend/internal/types"
)

// ============================================
// Invitation Service
// ============================================

type InvitationService interface {
	List(ctx context.Context, organizationID string) ([]*repository.Invitation, error)
	Create(ctx context.Context, actor *repository.OrganizationMember, email string, role types.Role) (*repository.Invitation, error)
	// Cancel marks the invitation CANCELLED and then deletes it.
	Cancel(ctx context.Context, organizationID, invitationID string) error
	// Accept joins user to the organization. The user's email must match the
	// invitation and token must be the invitation token.
	Accept(ctx context.Context, user *repository.User, organizationID, invitationID, token string) (*repository.OrganizationMember, error)
	// ExpireStale moves overdue PENDING invitations to EXPIRED.
	ExpireStale(ctx context.Context) (int, error)
}

type invitationService struct {
	invitationRepo repository.InvitationRepository
	orgRepo        repository.OrganizationRepository
	ttl            time.Duration
	events         EventPublisher
	now            func() time.Time
}

func NewInvitationService(
	invitationRepo repository.InvitationRepository,
	orgRepo repository.OrganizationRepository,
	ttl time.Duration,
	events EventPublisher,
) InvitationService {
	return &invitationService{
		invitationRepo: invitationRepo,
		orgRepo:        orgRepo,
		ttl:            ttl,
		events:         events,
		now:            time.Now,
	}
}

func (s *invitationService) List(ctx context.Context, organizationID string) ([]*repository.Invitation, error) {
	invitations, err := s.invitationRepo.FindPendingByOrganization(ctx, organizationID)
	if err != nil {
		return nil, Upstream("list invitations", err)
	}
	return invitations, nil
}

func (s *invitationService) Create(ctx context.Context, actor *repository.OrganizationMember, email string, role types.Role) (*repository.Invitation, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return nil, BadRequest("email is invalid")
	}
	email = strings.ToLower(addr.Address)

	if role == "" {
		role = types.RoleMember
	}
	if !role.Valid() {
		return nil, BadRequest("invalid role %q", role)
	}
	if role == types.RoleOwner && actor.Role != types.RoleOwner {
		return nil, errOwnerOnly
	}

	existing, err := s.invitationRepo.FindPendingByEmail(ctx, actor.OrganizationID, email)
	if err != nil {
		return nil, Upstream("load invitation", err)
	}
	if existing != nil && existing.ExpiresAt.After(s.now()) {
		return nil, Conflict("an invitation is already pending for this email")
	}

	members, err := s.orgRepo.FindMembers(ctx, actor.OrganizationID)
	if err != nil {
		return nil, Upstream("list members", err)
	}
	for _, m := range members {
		if m.User != nil && strings.EqualFold(m.User.Email, email) {
			return nil, Conflict("user is already a member")
		}
	}

	inviter := actor.UserID
	invitation := &repository.Invitation{
		OrganizationID: actor.OrganizationID,
		Email:          email,
		Role:           role,
		InvitedBy:      &inviter,
		ExpiresAt:      s.now().Add(s.ttl),
	}
	if err := s.invitationRepo.Create(ctx, invitation); err != nil {
		return nil, Upstream("create invitation", err)
	}

	logs.Logger.Infof("[Invitation] %s invited %s to %s as %s", actor.UserID, email, actor.OrganizationID, role)
	s.events.PublishToOrganization(actor.OrganizationID, EventInvitation, map[string]interface{}{
		"invitationId": invitation.ID,
		"email":        email,
	})
	return invitation, nil
}

func (s *invitationService) load(ctx context.Context, organizationID, invitationID string) (*repository.Invitation, error) {
	if !validID(invitationID) {
		return nil, NotFound("invitation")
	}
	invitation, err := s.invitationRepo.FindByID(ctx, organizationID, invitationID)
	if err != nil {
		return nil, Upstream("load invitation", err)
	}
	if invitation == nil {
		return nil, NotFound("invitation")
	}
	return invitation, nil
}

func (s *invitationService) Cancel(ctx context.Context, organizationID, invitationID string) error {
	invitation, err := s.load(ctx, organizationID, invitationID)
	if err != nil {
		return err
	}
	if invitation.Status == types.InvitationAccepted {
		return Conflict("invitation was already accepted")
	}
	if err := s.invitationRepo.UpdateStatus(ctx, invitation.ID, types.InvitationCancelled); err != nil {
		return Upstream("cancel invitation", err)
	}
	if err := s.invitationRepo.Delete(ctx, invitation.ID); err != nil {
		return Upstream("delete invitation", err)
	}
	return nil
}

func (s *invitationService) Accept(ctx context.Context, user *repository.User, organizationID, invitationID, token string) (*repository.OrganizationMember, error) {
	invitation, err := s.load(ctx, organizationID, invitationID)
	if err != nil {
		return nil, err
	}
	if invitation.Token != token {
		return nil, Forbidden("invitation token does not match")
	}
	if !strings.EqualFold(invitation.Email, user.Email) {
		return nil, Forbidden("invitation was sent to a different email")
	}
	if invitation.Status != types.InvitationPending {
		return nil, Conflict("invitation is " + strings.ToLower(invitation.Status))
	}
	if invitation.ExpiresAt.Before(s.now()) {
		if err := s.invitationRepo.UpdateStatus(ctx, invitation.ID, types.InvitationExpired); err != nil {
			logs.Logger.Warnf("[Invitation] Failed to expire %s: %v", invitation.ID, err)
		}
		return nil, Conflict("invitation has expired")
	}

	member := &repository.OrganizationMember{
		OrganizationID: organizationID,
		UserID:         user.ID,
		Role:           invitation.Role,
	}
	if err := s.invitationRepo.Accept(ctx, invitation.ID, member); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, Conflict("user is already a member")
		}
		return nil, Upstream("accept invitation", err)
	}
	member.User = user

	logs.Logger.Infof("[Invitation] %s joined %s as %s", user.ID, organizationID, member.Role)
	s.events.PublishToOrganization(organizationID, EventMemberAdded, map[string]interface{}{
		"userId": user.ID,
		"role":   member.Role,
	})
	return member, nil
}

func (s *invitationService) ExpireStale(ctx context.Context) (int, error) {
	n, err := s.invitationRepo.ExpirePending(ctx, s.now())
	if err != nil {
		return 0, Upstream("expire invitations", err)
	}
	return n, nil
}
