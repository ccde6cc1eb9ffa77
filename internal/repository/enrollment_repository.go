package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

type EnrollmentRepository interface {
	// Enroll inserts the enrollment unless one exists for (user, course); in
	// that case enrollment is filled with the existing row and created is false.
	Enroll(ctx context.Context, enrollment *Enrollment) (created bool, err error)
	Find(ctx context.Context, userID, courseID string) (*Enrollment, error)
	FindByUser(ctx context.Context, userID string) ([]*EnrollmentWithCourse, error)
	// UpdateProgress locks the enrollment of userID in courseID, lets apply
	// edit its completed modules and progress, then stores the result. It
	// returns nil when the user is not enrolled.
	UpdateProgress(ctx context.Context, userID, courseID string, apply func(*Enrollment)) (*Enrollment, error)
	// Unenroll deletes the enrollment and its quiz responses in one
	// transaction, children first. Returns false when there was nothing to delete.
	Unenroll(ctx context.Context, userID, courseID string) (bool, error)
	AddQuizResponse(ctx context.Context, response *QuizResponse) error
	CountQuizResponses(ctx context.Context, enrollmentID string) (int, error)
}

type enrollmentRepository struct {
	db *sql.DB
}

// NewEnrollmentRepository creates a new EnrollmentRepository
func NewEnrollmentRepository(db *sql.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) Enroll(ctx context.Context, e *Enrollment) (bool, error) {
	query := `
		INSERT INTO enrollments (user_id, course_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, course_id) DO NOTHING
		RETURNING id, completed_modules, progress, enrolled_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, e.UserID, e.CourseID).Scan(
		&e.ID, pq.Array(&e.CompletedModules), &e.Progress, &e.EnrolledAt, &e.UpdatedAt,
	)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}

	existing, err := r.Find(ctx, e.UserID, e.CourseID)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, fmt.Errorf("enrollment for user %s course %s vanished after conflict", e.UserID, e.CourseID)
	}
	*e = *existing
	return false, nil
}

func (r *enrollmentRepository) Find(ctx context.Context, userID, courseID string) (*Enrollment, error) {
	query := `
		SELECT id, user_id, course_id, completed_modules, progress, enrolled_at, updated_at
		FROM enrollments
		WHERE user_id = $1 AND course_id = $2`

	e := &Enrollment{}
	err := r.db.QueryRowContext(ctx, query, userID, courseID).Scan(
		&e.ID, &e.UserID, &e.CourseID, pq.Array(&e.CompletedModules), &e.Progress, &e.EnrolledAt, &e.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *enrollmentRepository) FindByUser(ctx context.Context, userID string) ([]*EnrollmentWithCourse, error) {
	query := `
		SELECT e.id, e.user_id, e.course_id, e.completed_modules, e.progress, e.enrolled_at, e.updated_at,
		       c.title, c.organization_id,
		       (SELECT COUNT(*) FROM course_modules m WHERE m.course_id = c.id)
		FROM enrollments e
		JOIN courses c ON c.id = e.course_id
		WHERE e.user_id = $1
		ORDER BY e.enrolled_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*EnrollmentWithCourse
	for rows.Next() {
		e := &EnrollmentWithCourse{}
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.CourseID, pq.Array(&e.CompletedModules), &e.Progress, &e.EnrolledAt, &e.UpdatedAt,
			&e.CourseTitle, &e.OrganizationID, &e.ModuleCount,
		); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func (r *enrollmentRepository) UpdateProgress(ctx context.Context, userID, courseID string, apply func(*Enrollment)) (*Enrollment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	e := &Enrollment{}
	err = tx.QueryRowContext(ctx, `
		SELECT id, user_id, course_id, completed_modules, progress, enrolled_at, updated_at
		FROM enrollments
		WHERE user_id = $1 AND course_id = $2
		FOR UPDATE`, userID, courseID).Scan(
		&e.ID, &e.UserID, &e.CourseID, pq.Array(&e.CompletedModules), &e.Progress, &e.EnrolledAt, &e.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	apply(e)

	err = tx.QueryRowContext(ctx, `
		UPDATE enrollments SET completed_modules = $2, progress = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`, e.ID, pq.Array(e.CompletedModules), e.Progress).Scan(&e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *enrollmentRepository) Unenroll(ctx context.Context, userID, courseID string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var enrollmentID string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM enrollments WHERE user_id = $1 AND course_id = $2 FOR UPDATE`,
		userID, courseID,
	).Scan(&enrollmentID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM quiz_responses WHERE enrollment_id = $1`, enrollmentID); err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM enrollments WHERE id = $1`, enrollmentID); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func (r *enrollmentRepository) AddQuizResponse(ctx context.Context, q *QuizResponse) error {
	query := `
		INSERT INTO quiz_responses (enrollment_id, scenario_id, question_id, answer, correct)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		q.EnrollmentID, q.ScenarioID, q.QuestionID, q.Answer, q.Correct,
	).Scan(&q.ID, &q.CreatedAt)
}

func (r *enrollmentRepository) CountQuizResponses(ctx context.Context, enrollmentID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM quiz_responses WHERE enrollment_id = $1`, enrollmentID).Scan(&n)
	return n, err
}
