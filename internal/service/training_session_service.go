package service

import (
	"context"
	"time"

	"github.com/Marga-Ghale/ora-training-backend/internal/logs"
	"github.com/Marga-Ghale/ora-training-backend/internal/repository"
	"github.com/Marga-Ghale/ora-training-backend/internal/types"
)

// ============================================
// Training Session Service
// ============================================

// SessionUpdate holds optional fields; nil leaves the value unchanged.
type SessionUpdate struct {
	Status          *string
	Score           *int
	DurationSeconds *int
}

type TrainingSessionService interface {
	Start(ctx context.Context, userID, courseID string, scenarioID *string) (*repository.TrainingSession, error)
	// Update changes the caller's own ACTIVE session. Finished sessions are
	// Conflict.
	Update(ctx context.Context, userID, sessionID string, input SessionUpdate) (*repository.TrainingSession, error)
	AbandonStale(ctx context.Context, olderThan time.Duration) (int, error)
}

type trainingSessionService struct {
	sessionRepo repository.TrainingSessionRepository
	courseRepo  repository.CourseRepository
	events      EventPublisher
}

func NewTrainingSessionService(sessionRepo repository.TrainingSessionRepository, courseRepo repository.CourseRepository, events EventPublisher) TrainingSessionService {
	return &trainingSessionService{sessionRepo: sessionRepo, courseRepo: courseRepo, events: events}
}

func (s *trainingSessionService) Start(ctx context.Context, userID, courseID string, scenarioID *string) (*repository.TrainingSession, error) {
	if scenarioID != nil && *scenarioID != "" {
		if !validID(*scenarioID) {
			return nil, NotFound("scenario")
		}
		scenario, err := s.courseRepo.FindScenario(ctx, courseID, *scenarioID)
		if err != nil {
			return nil, Upstream("load scenario", err)
		}
		if scenario == nil {
			return nil, NotFound("scenario")
		}
	} else {
		scenarioID = nil
	}

	session := &repository.TrainingSession{
		UserID:     userID,
		CourseID:   courseID,
		ScenarioID: scenarioID,
		Status:     types.SessionActive,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, Upstream("start session", err)
	}

	s.events.PublishToUser(userID, EventSessionStarted, map[string]interface{}{
		"sessionId": session.ID,
		"courseId":  courseID,
	})
	return session, nil
}

func (s *trainingSessionService) Update(ctx context.Context, userID, sessionID string, input SessionUpdate) (*repository.TrainingSession, error) {
	if !validID(sessionID) {
		return nil, NotFound("session")
	}
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, Upstream("load session", err)
	}
	if session == nil {
		return nil, NotFound("session")
	}
	if session.UserID != userID {
		return nil, Forbidden("session belongs to another user")
	}
	if session.Status != types.SessionActive {
		return nil, Conflict("session has already ended")
	}

	if input.Score != nil {
		if *input.Score < 0 || *input.Score > 100 {
			return nil, BadRequest("score must be between 0 and 100")
		}
		session.Score = input.Score
	}
	if input.DurationSeconds != nil {
		if *input.DurationSeconds < 0 {
			return nil, BadRequest("durationSeconds must not be negative")
		}
		session.DurationSeconds = *input.DurationSeconds
	}
	if input.Status != nil {
		if !types.IsValidSessionStatus(*input.Status) {
			return nil, BadRequest("invalid status %q", *input.Status)
		}
		session.Status = *input.Status
		if session.Status != types.SessionActive {
			now := time.Now()
			session.EndedAt = &now
			if input.DurationSeconds == nil {
				session.DurationSeconds = int(now.Sub(session.StartedAt).Seconds())
			}
		}
	}

	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, Upstream("update session", err)
	}

	s.events.PublishToUser(userID, EventSessionUpdated, map[string]interface{}{
		"sessionId": session.ID,
		"status":    session.Status,
	})
	return session, nil
}

func (s *trainingSessionService) AbandonStale(ctx context.Context, olderThan time.Duration) (int, error) {
	n, err := s.sessionRepo.AbandonStale(ctx, time.Now().Add(-olderThan))
	if err != nil {
		return 0, Upstream("abandon sessions", err)
	}
	if n > 0 {
		logs.Logger.Infof("[Session] Marked %d stale sessions abandoned", n)
	}
	return n, nil
}
