package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeInvitations struct {
	calls int
	err   error
}

func (f *fakeInvitations) ExpireStale(context.Context) (int, error) {
	f.calls++
	return 2, f.err
}

type fakeSessions struct {
	olderThan time.Duration
	deadline  bool
}

func (f *fakeSessions) AbandonStale(ctx context.Context, olderThan time.Duration) (int, error) {
	f.olderThan = olderThan
	_, f.deadline = ctx.Deadline()
	return 1, nil
}

func TestScheduler_Jobs(t *testing.T) {
	invitations := &fakeInvitations{}
	sessions := &fakeSessions{}
	s := NewScheduler(invitations, sessions, 12*time.Hour)

	s.expireInvitations()
	s.abandonSessions()

	assert.Equal(t, 1, invitations.calls)
	assert.Equal(t, 12*time.Hour, sessions.olderThan)
	assert.True(t, sessions.deadline, "jobs run with a timeout")

	// A failing job logs and returns.
	invitations.err = errors.New("db down")
	s.expireInvitations()
	assert.Equal(t, 2, invitations.calls)
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler(&fakeInvitations{}, &fakeSessions{}, time.Hour)
	assert.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 2)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
