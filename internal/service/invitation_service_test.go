package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Marga-Ghale/ora-training-backend/internal/types"
)

func TestInvitationService_Lifecycle(t *testing.T) {
	f := newFixture(t)
	owner := f.user("owner@example.com")
	invitee := f.user("new.hire@example.com")
	stranger := f.user("stranger@example.com")
	org, ownerMembership := f.org(owner)
	svc := NewInvitationService(f.repos.InvitationRepo, f.repos.OrganizationRepo, 7*24*time.Hour, &recordingPublisher{})

	inv, err := svc.Create(f.ctx, ownerMembership, "New.Hire@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "new.hire@example.com", inv.Email)
	assert.Equal(t, types.RoleMember, inv.Role)
	assert.NotEmpty(t, inv.Token)

	_, err = svc.Create(f.ctx, ownerMembership, "new.hire@example.com", types.RoleAdmin)
	assertKind(t, err, KindConflict, "an invitation is already pending for this email")

	_, err = svc.Create(f.ctx, ownerMembership, "owner@example.com", "")
	assertKind(t, err, KindConflict, "user is already a member")

	_, err = svc.Accept(f.ctx, invitee, org.ID, inv.ID, "wrong-token")
	assertKind(t, err, KindForbidden, "invitation token does not match")

	_, err = svc.Accept(f.ctx, stranger, org.ID, inv.ID, inv.Token)
	assertKind(t, err, KindForbidden, "invitation was sent to a different email")

	member, err := svc.Accept(f.ctx, invitee, org.ID, inv.ID, inv.Token)
	require.NoError(t, err)
	assert.Equal(t, types.RoleMember, member.Role)

	_, err = svc.Accept(f.ctx, invitee, org.ID, inv.ID, inv.Token)
	assertKind(t, err, KindConflict, "invitation is accepted")
}

func TestInvitationService_Expiry(t *testing.T) {
	f := newFixture(t)
	owner := f.user("owner@example.com")
	invitee := f.user("late@example.com")
	org, ownerMembership := f.org(owner)
	svc := NewInvitationService(f.repos.InvitationRepo, f.repos.OrganizationRepo, time.Hour, &recordingPublisher{})

	inv, err := svc.Create(f.ctx, ownerMembership, invitee.Email, "")
	require.NoError(t, err)

	// Move the clock past the deadline.
	svc.(*invitationService).now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err = svc.Accept(f.ctx, invitee, org.ID, inv.ID, inv.Token)
	assertKind(t, err, KindConflict, "invitation has expired")

	n, err := svc.ExpireStale(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "Accept already marked it expired")

	pending, err := svc.List(f.ctx, org.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestInvitationService_CancelDeletes(t *testing.T) {
	f := newFixture(t)
	owner := f.user("owner@example.com")
	org, ownerMembership := f.org(owner)
	svc := NewInvitationService(f.repos.InvitationRepo, f.repos.OrganizationRepo, time.Hour, &recordingPublisher{})

	inv, err := svc.Create(f.ctx, ownerMembership, "someone@example.com", "")
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(f.ctx, org.ID, inv.ID))
	err = svc.Cancel(f.ctx, org.ID, inv.ID)
	assertKind(t, err, KindNotFound, "invitation not found")
}
