package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Marga-Ghale/ora-training-backend/internal/types"
)

func TestTrainingSessionService_Lifecycle(t *testing.T) {
	f := newFixture(t)
	owner := f.user("owner@example.com")
	other := f.user("other@example.com")
	org, _ := f.org(owner)
	course := f.course(org, 1)
	events := &recordingPublisher{}
	svc := NewTrainingSessionService(f.repos.TrainingSessionRepo, f.repos.CourseRepo, events)

	missing := uuid.New().String()
	_, err := svc.Start(f.ctx, owner.ID, course.ID, &missing)
	assertKind(t, err, KindNotFound, "scenario not found")

	scenarioID := course.Scenarios[0].ID
	session, err := svc.Start(f.ctx, owner.ID, course.ID, &scenarioID)
	require.NoError(t, err)
	assert.Equal(t, types.SessionActive, session.Status)

	score := 87
	_, err = svc.Update(f.ctx, other.ID, session.ID, SessionUpdate{Score: &score})
	assertKind(t, err, KindForbidden, "")

	bad := 101
	_, err = svc.Update(f.ctx, owner.ID, session.ID, SessionUpdate{Score: &bad})
	assertKind(t, err, KindBadRequest, "score must be between 0 and 100")

	completed := types.SessionCompleted
	duration := 540
	ended, err := svc.Update(f.ctx, owner.ID, session.ID, SessionUpdate{Status: &completed, Score: &score, DurationSeconds: &duration})
	require.NoError(t, err)
	assert.Equal(t, types.SessionCompleted, ended.Status)
	require.NotNil(t, ended.EndedAt)
	assert.Equal(t, 540, ended.DurationSeconds)

	_, err = svc.Update(f.ctx, owner.ID, session.ID, SessionUpdate{Score: &score})
	assertKind(t, err, KindConflict, "session has already ended")

	assert.Len(t, events.named(EventSessionUpdated), 1)
}

func TestTrainingSessionService_AbandonStale(t *testing.T) {
	f := newFixture(t)
	owner := f.user("owner@example.com")
	org, _ := f.org(owner)
	course := f.course(org, 1)
	svc := NewTrainingSessionService(f.repos.TrainingSessionRepo, f.repos.CourseRepo, &recordingPublisher{})

	_, err := svc.Start(f.ctx, owner.ID, course.ID, nil)
	require.NoError(t, err)

	n, err := svc.AbandonStale(f.ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n, "fresh sessions are kept")

	n, err = svc.AbandonStale(f.ctx, -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
