package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Marga-Ghale/ora-training-backend/internal/types"
)

func TestMemberService_AddDuplicateIsConflict(t *testing.T) {
	f := newFixture(t)
	owner := f.user("owner@example.com")
	learner := f.user("learner@example.com")
	_, ownerMembership := f.org(owner)
	events := &recordingPublisher{}
	svc := NewMemberService(f.repos.OrganizationRepo, f.repos.UserRepo, events)

	added, err := svc.Add(f.ctx, ownerMembership, AddMemberInput{Email: learner.Email})
	require.NoError(t, err)
	assert.Equal(t, types.RoleMember, added.Role)
	assert.Len(t, events.named(EventMemberAdded), 1)

	_, err = svc.Add(f.ctx, ownerMembership, AddMemberInput{UserID: learner.ID, Role: types.RoleAdmin})
	assertKind(t, err, KindConflict, "user is already a member")

	stored, err := f.repos.OrganizationRepo.FindMember(f.ctx, ownerMembership.OrganizationID, learner.ID)
	require.NoError(t, err)
	assert.Equal(t, types.RoleMember, stored.Role)
}

func TestMemberService_OnlyOwnerGrantsOwner(t *testing.T) {
	f := newFixture(t)
	owner := f.user("owner@example.com")
	admin := f.user("admin@example.com")
	learner := f.user("learner@example.com")
	org, _ := f.org(owner)
	adminMembership := f.member(org, admin, types.RoleAdmin)
	learnerMembership := f.member(org, learner, types.RoleMember)
	svc := NewMemberService(f.repos.OrganizationRepo, f.repos.UserRepo, &recordingPublisher{})

	_, err := svc.UpdateRole(f.ctx, adminMembership, learnerMembership.ID, types.RoleOwner)
	assertKind(t, err, KindForbidden, "")

	updated, err := svc.UpdateRole(f.ctx, adminMembership, learnerMembership.ID, types.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, types.RoleAdmin, updated.Role)
}

func TestMemberService_LastOwnerIsProtected(t *testing.T) {
	f := newFixture(t)
	owner := f.user("owner@example.com")
	second := f.user("second@example.com")
	org, ownerMembership := f.org(owner)
	svc := NewMemberService(f.repos.OrganizationRepo, f.repos.UserRepo, &recordingPublisher{})

	_, err := svc.UpdateRole(f.ctx, ownerMembership, ownerMembership.ID, types.RoleAdmin)
	assertKind(t, err, KindConflict, "cannot remove or demote the last owner")

	err = svc.Remove(f.ctx, ownerMembership, ownerMembership.ID)
	assertKind(t, err, KindConflict, "")

	secondMembership := f.member(org, second, types.RoleOwner)
	require.NoError(t, svc.Remove(f.ctx, secondMembership, ownerMembership.ID))

	members, err := svc.List(f.ctx, org.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, second.ID, members[0].UserID)
}

func TestMemberService_MalformedMemberID(t *testing.T) {
	f := newFixture(t)
	owner := f.user("owner@example.com")
	_, ownerMembership := f.org(owner)
	svc := NewMemberService(f.repos.OrganizationRepo, f.repos.UserRepo, &recordingPublisher{})

	err := svc.Remove(f.ctx, ownerMembership, "42")
	assertKind(t, err, KindNotFound, "member not found")
}
