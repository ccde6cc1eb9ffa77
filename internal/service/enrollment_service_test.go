package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentComplete(t *testing.T) {
	tests := []struct {
		done, total, want int
	}{
		{0, 0, 0},
		{0, 3, 0},
		{1, 3, 33},
		{2, 3, 67},
		{3, 3, 100},
		{5, 3, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, percentComplete(tt.done, tt.total), "%d/%d", tt.done, tt.total)
	}
}

func TestEnrollmentService_EnrollIsIdempotent(t *testing.T) {
	f := newFixture(t)
	owner := f.user("owner@example.com")
	org, _ := f.org(owner)
	course := f.course(org, 2)
	events := &recordingPublisher{}
	svc := NewEnrollmentService(f.repos.EnrollmentRepo, f.repos.CourseRepo, events)

	first, created, err := svc.Enroll(f.ctx, owner.ID, course.ID)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := svc.Enroll(f.ctx, owner.ID, course.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	assert.Len(t, events.named(EventEnrolled), 1, "only the first enroll publishes")
}

func TestEnrollmentService_Progress(t *testing.T) {
	f := newFixture(t)
	owner := f.user("owner@example.com")
	org, _ := f.org(owner)
	course := f.course(org, 3)
	svc := NewEnrollmentService(f.repos.EnrollmentRepo, f.repos.CourseRepo, &recordingPublisher{})

	_, err := svc.SetModuleCompleted(f.ctx, owner.ID, course.ID, course.Modules[0].ID, true)
	assertKind(t, err, KindNotFound, "enrollment not found")

	_, _, err = svc.Enroll(f.ctx, owner.ID, course.ID)
	require.NoError(t, err)

	e, err := svc.SetModuleCompleted(f.ctx, owner.ID, course.ID, course.Modules[0].ID, true)
	require.NoError(t, err)
	assert.Equal(t, 33, e.Progress)

	// Marking twice does not count twice.
	e, err = svc.SetModuleCompleted(f.ctx, owner.ID, course.ID, course.Modules[0].ID, true)
	require.NoError(t, err)
	assert.Equal(t, 33, e.Progress)
	assert.Len(t, e.CompletedModules, 1)

	for _, m := range course.Modules[1:] {
		e, err = svc.SetModuleCompleted(f.ctx, owner.ID, course.ID, m.ID, true)
		require.NoError(t, err)
	}
	assert.Equal(t, 100, e.Progress)

	e, err = svc.SetModuleCompleted(f.ctx, owner.ID, course.ID, course.Modules[1].ID, false)
	require.NoError(t, err)
	assert.Equal(t, 67, e.Progress)

	_, err = svc.SetModuleCompleted(f.ctx, owner.ID, course.ID, "unknown-module", true)
	assertKind(t, err, KindNotFound, "module not found")

	stored, err := svc.Progress(f.ctx, owner.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 67, stored.Progress)
}

func TestEnrollmentService_ConcurrentModuleCompletions(t *testing.T) {
	f := newFixture(t)
	owner := f.user("owner@example.com")
	org, _ := f.org(owner)
	course := f.course(org, 8)
	svc := NewEnrollmentService(f.repos.EnrollmentRepo, f.repos.CourseRepo, &recordingPublisher{})

	_, _, err := svc.Enroll(f.ctx, owner.ID, course.ID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, m := range course.Modules {
		wg.Add(1)
		go func(moduleID string) {
			defer wg.Done()
			_, err := svc.SetModuleCompleted(f.ctx, owner.ID, course.ID, moduleID, true)
			assert.NoError(t, err)
		}(m.ID)
	}
	wg.Wait()

	stored, err := svc.Progress(f.ctx, owner.ID, course.ID)
	require.NoError(t, err)
	assert.Len(t, stored.CompletedModules, len(course.Modules))
	assert.Equal(t, 100, stored.Progress)
}

func TestEnrollmentService_UnenrollRemovesResponses(t *testing.T) {
	f := newFixture(t)
	owner := f.user("owner@example.com")
	org, _ := f.org(owner)
	course := f.course(org, 1)
	svc := NewEnrollmentService(f.repos.EnrollmentRepo, f.repos.CourseRepo, &recordingPublisher{})

	enrollment, _, err := svc.Enroll(f.ctx, owner.ID, course.ID)
	require.NoError(t, err)

	scenarioID := course.Scenarios[0].ID
	resp, err := svc.RecordQuizResponse(f.ctx, owner.ID, course.ID, scenarioID, QuizResponseInput{QuestionID: "q1", Answer: "B", Correct: true})
	require.NoError(t, err)
	assert.Equal(t, enrollment.ID, resp.EnrollmentID)

	require.NoError(t, svc.Unenroll(f.ctx, owner.ID, course.ID))

	n, err := f.repos.EnrollmentRepo.CountQuizResponses(f.ctx, enrollment.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	err = svc.Unenroll(f.ctx, owner.ID, course.ID)
	assertKind(t, err, KindNotFound, "enrollment not found")

	_, err = svc.RecordQuizResponse(f.ctx, owner.ID, course.ID, scenarioID, QuizResponseInput{QuestionID: "q2"})
	assertKind(t, err, KindNotFound, "enrollment not found")
}
