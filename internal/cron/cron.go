package cron

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Marga-Ghale/ora-training-backend/internal/logs"
)

// InvitationExpirer marks overdue pending invitations as expired.
type InvitationExpirer interface {
	ExpireStale(ctx context.Context) (int, error)
}

// SessionReaper abandons training sessions left ACTIVE for too long.
type SessionReaper interface {
	AbandonStale(ctx context.Context, olderThan time.Duration) (int, error)
}

const jobTimeout = 2 * time.Minute

// Scheduler runs the maintenance jobs.
type Scheduler struct {
	cron        *cron.Cron
	invitations InvitationExpirer
	sessions    SessionReaper
	staleAfter  time.Duration
}

func NewScheduler(invitations InvitationExpirer, sessions SessionReaper, staleAfter time.Duration) *Scheduler {
	return &Scheduler{
		cron:        cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		invitations: invitations,
		sessions:    sessions,
		staleAfter:  staleAfter,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	// Every 15 minutes - expire invitations past their deadline
	if _, err := s.cron.AddFunc("*/15 * * * *", s.expireInvitations); err != nil {
		return err
	}

	// Every hour - abandon sessions nobody finished
	if _, err := s.cron.AddFunc("0 * * * *", s.abandonSessions); err != nil {
		return err
	}

	s.cron.Start()
	logs.Logger.Info("[Cron] Scheduler started")
	return nil
}

// Stop waits for running jobs to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
	logs.Logger.Info("[Cron] Scheduler stopped")
}

func (s *Scheduler) expireInvitations() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := s.invitations.ExpireStale(ctx)
	if err != nil {
		logs.Logger.Errorf("[Cron] Invitation expiry failed: %v", err)
		return
	}
	if n > 0 {
		logs.Logger.Infof("[Cron] Expired %d invitations", n)
	}
}

func (s *Scheduler) abandonSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := s.sessions.AbandonStale(ctx, s.staleAfter)
	if err != nil {
		logs.Logger.Errorf("[Cron] Session cleanup failed: %v", err)
		return
	}
	if n > 0 {
		logs.Logger.Infof("[Cron] Abandoned %d training sessions older than %s", n, s.staleAfter)
	}
}
