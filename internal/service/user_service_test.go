package service

import (
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Marga-Ghale/ora-training-backend/internal/auth"
	"github.com/Marga-Ghale/ora-training-backend/internal/repository"
	"github.com/Marga-Ghale/ora-training-backend/internal/types"
)

func newUserService(f *fixture) UserService {
	return NewUserService(f.repos.UserRepo, f.repos.OrganizationRepo, f.repos.EnrollmentRepo, f.repos.TrainingSessionRepo)
}

func TestContainerName(t *testing.T) {
	valid := regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
	for _, prefix := range []string{"user", "org"} {
		name := containerName(prefix)
		assert.True(t, strings.HasPrefix(name, prefix+"-"), name)
		_, err := uuid.Parse(strings.TrimPrefix(name, prefix+"-"))
		assert.NoError(t, err, name)
		assert.Regexp(t, valid, name)
		assert.LessOrEqual(t, len(name), 63)
	}
	assert.NotEqual(t, containerName("user"), containerName("user"))
}

func TestUserService_ConcurrentProvisioning(t *testing.T) {
	f := newFixture(t)
	svc := newUserService(f)
	identity := auth.Identity{Subject: "auth0|first-login", Email: "first@example.com", Name: "First"}

	const workers = 16
	users := make([]*repository.User, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u, err := svc.ResolveUser(f.ctx, identity, true)
			assert.NoError(t, err)
			users[i] = u
		}(i)
	}
	wg.Wait()

	for _, u := range users {
		require.NotNil(t, u)
		assert.Equal(t, users[0].ID, u.ID)
	}
}

func TestUserService_ResolveWithoutProvisioning(t *testing.T) {
	f := newFixture(t)
	svc := newUserService(f)

	_, err := svc.ResolveUser(f.ctx, auth.Identity{Subject: "auth0|nobody"}, false)
	assertKind(t, err, KindNotFound, "user not found")

	_, err = svc.ResolveUser(f.ctx, auth.Identity{}, true)
	assertKind(t, err, KindUnauthenticated, "")
}

func TestUserService_Visibility(t *testing.T) {
	f := newFixture(t)
	svc := newUserService(f)
	owner := f.user("owner@example.com")
	learner := f.user("learner@example.com")
	peer := f.user("peer@example.com")
	org, _ := f.org(owner)
	f.member(org, learner, types.RoleMember)
	f.member(org, peer, types.RoleMember)

	_, err := svc.Get(f.ctx, owner.ID, learner.ID)
	require.NoError(t, err, "managers see members of their organizations")

	_, err = svc.Get(f.ctx, peer.ID, learner.ID)
	assertKind(t, err, KindForbidden, "")

	self, err := svc.Stats(f.ctx, learner.ID, learner.ID)
	require.NoError(t, err)
	assert.Zero(t, self.EnrolledCourses)
}

func TestUserService_DeleteLastOwner(t *testing.T) {
	f := newFixture(t)
	svc := newUserService(f)
	owner := f.user("owner@example.com")
	f.org(owner)

	err := svc.Delete(f.ctx, owner.ID)
	assertKind(t, err, KindConflict, "")
}
