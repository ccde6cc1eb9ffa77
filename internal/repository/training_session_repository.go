package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type TrainingSessionRepository interface {
	Create(ctx context.Context, session *TrainingSession) error
	FindByID(ctx context.Context, id string) (*TrainingSession, error)
	Update(ctx context.Context, session *TrainingSession) error
	// AbandonStale marks ACTIVE sessions started before cutoff as ABANDONED.
	AbandonStale(ctx context.Context, cutoff time.Time) (int, error)
	StatsForUser(ctx context.Context, userID string) (*UserStats, error)
}

type trainingSessionRepository struct {
	db *sql.DB
}

// NewTrainingSessionRepository creates a new TrainingSessionRepository
func NewTrainingSessionRepository(db *sql.DB) TrainingSessionRepository {
	return &trainingSessionRepository{db: db}
}

func (r *trainingSessionRepository) Create(ctx context.Context, s *TrainingSession) error {
	query := `
		INSERT INTO training_sessions (user_id, course_id, scenario_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, started_at`

	return r.db.QueryRowContext(ctx, query, s.UserID, s.CourseID, s.ScenarioID, s.Status).
		Scan(&s.ID, &s.StartedAt)
}

func (r *trainingSessionRepository) FindByID(ctx context.Context, id string) (*TrainingSession, error) {
	query := `
		SELECT id, user_id, course_id, scenario_id, status, score, duration_seconds, started_at, ended_at
		FROM training_sessions
		WHERE id = $1`

	s := &TrainingSession{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.UserID, &s.CourseID, &s.ScenarioID, &s.Status, &s.Score,
		&s.DurationSeconds, &s.StartedAt, &s.EndedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *trainingSessionRepository) Update(ctx context.Context, s *TrainingSession) error {
	query := `
		UPDATE training_sessions
		SET status = $2, score = $3, duration_seconds = $4, ended_at = $5
		WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, s.ID, s.Status, s.Score, s.DurationSeconds, s.EndedAt)
	return err
}

func (r *trainingSessionRepository) AbandonStale(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE training_sessions
		SET status = 'ABANDONED', ended_at = NOW()
		WHERE status = 'ACTIVE' AND started_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	return int(n), err
}

func (r *trainingSessionRepository) StatsForUser(ctx context.Context, userID string) (*UserStats, error) {
	stats := &UserStats{UserID: userID}

	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE progress = 100),
		       COALESCE(AVG(progress), 0)
		FROM enrollments
		WHERE user_id = $1`, userID,
	).Scan(&stats.EnrolledCourses, &stats.CompletedCourses, &stats.AverageProgress)
	if err != nil {
		return nil, err
	}

	var avgScore sql.NullFloat64
	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'COMPLETED'),
		       COALESCE(SUM(duration_seconds), 0),
		       AVG(score)
		FROM training_sessions
		WHERE user_id = $1`, userID,
	).Scan(&stats.Sessions, &stats.CompletedSessions, &stats.TrainingSeconds, &avgScore)
	if err != nil {
		return nil, err
	}
	if avgScore.Valid {
		stats.AverageScore = &avgScore.Float64
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE q.correct)
		FROM quiz_responses q
		JOIN enrollments e ON e.id = q.enrollment_id
		WHERE e.user_id = $1`, userID,
	).Scan(&stats.QuizResponses, &stats.CorrectResponses)
	if err != nil {
		return nil, err
	}

	return stats, nil
}
