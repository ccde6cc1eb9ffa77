package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Marga-Ghale/ora-training-backend/internal/repository"
	"github.com/Marga-Ghale/ora-training-backend/internal/types"
)

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	Target  string
	Event   string
	Payload map[string]interface{}
}

func (p *recordingPublisher) PublishToUser(userID, event string, payload map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Target: "user:" + userID, Event: event, Payload: payload})
}

func (p *recordingPublisher) PublishToOrganization(organizationID, event string, payload map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Target: "organization:" + organizationID, Event: event, Payload: payload})
}

func (p *recordingPublisher) named(event string) []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedEvent
	for _, e := range p.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	t     *testing.T
	ctx   context.Context
	repos *repository.Repositories
}

func newFixture(t *testing.T) *fixture {
	return &fixture{t: t, ctx: context.Background(), repos: repository.NewMemoryRepositories()}
}

func (f *fixture) user(email string) *repository.User {
	f.t.Helper()
	u := &repository.User{
		AuthSubject:   "auth0|" + uuid.New().String(),
		Email:         email,
		Name:          email,
		ContainerName: containerName("user"),
	}
	_, err := f.repos.UserRepo.Upsert(f.ctx, u)
	require.NoError(f.t, err)
	return u
}

func (f *fixture) org(owner *repository.User) (*repository.Organization, *repository.OrganizationMember) {
	f.t.Helper()
	org := &repository.Organization{Name: "Plant", ContainerName: containerName("org")}
	m := &repository.OrganizationMember{UserID: owner.ID, Role: types.RoleOwner}
	require.NoError(f.t, f.repos.OrganizationRepo.Create(f.ctx, org, m))
	return org, m
}

func (f *fixture) member(org *repository.Organization, u *repository.User, role types.Role) *repository.OrganizationMember {
	f.t.Helper()
	m := &repository.OrganizationMember{OrganizationID: org.ID, UserID: u.ID, Role: role}
	require.NoError(f.t, f.repos.OrganizationRepo.AddMember(f.ctx, m))
	return m
}

// course creates a course with n modules, one scenario each.
func (f *fixture) course(org *repository.Organization, n int) *repository.Course {
	f.t.Helper()
	c := &repository.Course{OrganizationID: org.ID, Title: "Forklift"}
	for i := 0; i < n; i++ {
		c.Modules = append(c.Modules, &repository.CourseModule{
			Title:     "Module",
			Scenarios: []*repository.Scenario{{Name: "Scenario", BuildPath: "forklift/index.html"}},
		})
	}
	require.NoError(f.t, f.repos.CourseRepo.Create(f.ctx, c))
	return c
}
