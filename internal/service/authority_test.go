package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Marga-Ghale/ora-training-backend/internal/repository"
	"github.com/Marga-Ghale/ora-training-backend/internal/types"
)

func assertKind(t *testing.T, err error, kind Kind, message string) {
	t.Helper()
	require.Error(t, err)
	var svcErr *Error
	require.True(t, errors.As(err, &svcErr), "expected *service.Error, got %T", err)
	assert.Equal(t, kind, svcErr.Kind)
	if message != "" {
		assert.Equal(t, message, svcErr.Message)
	}
}

func TestAuthority_Order(t *testing.T) {
	f := newFixture(t)
	owner := f.user("owner@example.com")
	outsider := f.user("outsider@example.com")
	learner := f.user("learner@example.com")
	org, _ := f.org(owner)
	f.member(org, learner, types.RoleMember)

	authority := NewMembershipAuthority(f.repos.UserRepo, f.repos.OrganizationRepo, false)

	t.Run("missing organization", func(t *testing.T) {
		_, err := authority.Authorize(f.ctx, owner.ID, "", types.AnyRole...)
		assertKind(t, err, KindBadRequest, "")
	})
	t.Run("missing user", func(t *testing.T) {
		_, err := authority.Authorize(f.ctx, "", org.ID, types.AnyRole...)
		assertKind(t, err, KindBadRequest, "")
	})
	t.Run("unknown user is checked before membership", func(t *testing.T) {
		_, err := authority.Authorize(f.ctx, uuid.New().String(), uuid.New().String(), types.AnyRole...)
		assertKind(t, err, KindNotFound, "user not found")
	})
	t.Run("not a member", func(t *testing.T) {
		_, err := authority.Authorize(f.ctx, outsider.ID, org.ID, types.AnyRole...)
		assertKind(t, err, KindForbidden, "not a member")
	})
	t.Run("malformed organization id", func(t *testing.T) {
		_, err := authority.Authorize(f.ctx, outsider.ID, "not-a-uuid", types.AnyRole...)
		assertKind(t, err, KindForbidden, "not a member")
	})
	t.Run("insufficient role", func(t *testing.T) {
		_, err := authority.Authorize(f.ctx, learner.ID, org.ID, types.ManagerRoles...)
		assertKind(t, err, KindForbidden, "insufficient role")
	})
	t.Run("allowed", func(t *testing.T) {
		m, err := authority.Authorize(f.ctx, learner.ID, org.ID, types.AnyRole...)
		require.NoError(t, err)
		assert.Equal(t, types.RoleMember, m.Role)
		assert.Equal(t, org.ID, m.OrganizationID)
	})
}

func TestAuthority_AllowlistVersusHierarchy(t *testing.T) {
	f := newFixture(t)
	owner := f.user("owner@example.com")
	org, _ := f.org(owner)

	adminOnly := []types.Role{types.RoleAdmin}

	strict := NewMembershipAuthority(f.repos.UserRepo, f.repos.OrganizationRepo, false)
	_, err := strict.Authorize(f.ctx, owner.ID, org.ID, adminOnly...)
	assertKind(t, err, KindForbidden, "insufficient role")

	ranked := NewMembershipAuthority(f.repos.UserRepo, f.repos.OrganizationRepo, true)
	m, err := ranked.Authorize(f.ctx, owner.ID, org.ID, adminOnly...)
	require.NoError(t, err)
	assert.Equal(t, types.RoleOwner, m.Role)
}

func TestErrors_IsMatchesKind(t *testing.T) {
	assert.True(t, errors.Is(Forbidden("not a member"), ErrForbidden))
	assert.False(t, errors.Is(Forbidden("not a member"), ErrNotFound))
	assert.Equal(t, KindConflict, KindOf(Upstream("add", fmt.Errorf("insert: %w", repository.ErrDuplicate))))
	assert.Equal(t, KindUnexpected, KindOf(errors.New("boom")))
	assert.Equal(t, 502, KindUpstream.Status())
}
