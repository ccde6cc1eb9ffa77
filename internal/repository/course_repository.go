package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

type CourseRepository interface {
	// Create inserts the course, its modules and their scenarios in one
	// transaction. Course.Scenarios is filled with the inserted scenarios.
	Create(ctx context.Context, course *Course) error
	// FindByID returns the course with modules and scenarios loaded.
	FindByID(ctx context.Context, id string) (*Course, error)
	FindByOrganizations(ctx context.Context, organizationIDs []string) ([]*Course, error)
	Update(ctx context.Context, course *Course) error
	Delete(ctx context.Context, id string) error
	CreateScenario(ctx context.Context, scenario *Scenario) error
	FindScenario(ctx context.Context, courseID, scenarioID string) (*Scenario, error)
}

type courseRepository struct {
	db *sql.DB
}

// NewCourseRepository creates a new CourseRepository
func NewCourseRepository(db *sql.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) Create(ctx context.Context, course *Course) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO courses (organization_id, title, description, build_name, tag_ids)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	if err := tx.QueryRowContext(ctx, query,
		course.OrganizationID, course.Title, course.Description, course.BuildName, pq.Array(course.TagIDs),
	).Scan(&course.ID, &course.CreatedAt, &course.UpdatedAt); err != nil {
		return err
	}

	for i, m := range course.Modules {
		m.CourseID = course.ID
		if m.Position == 0 {
			m.Position = i + 1
		}
		if err := tx.QueryRowContext(ctx,
			`INSERT INTO course_modules (course_id, title, position) VALUES ($1, $2, $3) RETURNING id`,
			m.CourseID, m.Title, m.Position,
		).Scan(&m.ID); err != nil {
			return err
		}

		for _, sc := range m.Scenarios {
			sc.CourseID = course.ID
			moduleID := m.ID
			sc.ModuleID = &moduleID
			if err := tx.QueryRowContext(ctx,
				`INSERT INTO scenarios (course_id, module_id, name, build_path) VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
				sc.CourseID, sc.ModuleID, sc.Name, sc.BuildPath,
			).Scan(&sc.ID, &sc.CreatedAt); err != nil {
				return err
			}
			course.Scenarios = append(course.Scenarios, sc)
		}
	}

	return tx.Commit()
}

func (r *courseRepository) FindByID(ctx context.Context, id string) (*Course, error) {
	query := `
		SELECT id, organization_id, title, description, build_name, tag_ids, created_at, updated_at
		FROM courses
		WHERE id = $1`

	c := &Course{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.OrganizationID, &c.Title, &c.Description, &c.BuildName,
		pq.Array(&c.TagIDs), &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if c.Modules, err = r.findModules(ctx, c.ID); err != nil {
		return nil, err
	}
	if c.Scenarios, err = r.findScenarios(ctx, c.ID); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *courseRepository) findModules(ctx context.Context, courseID string) ([]*CourseModule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, course_id, title, position FROM course_modules WHERE course_id = $1 ORDER BY position`,
		courseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var modules []*CourseModule
	for rows.Next() {
		m := &CourseModule{}
		if err := rows.Scan(&m.ID, &m.CourseID, &m.Title, &m.Position); err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}
	return modules, rows.Err()
}

func (r *courseRepository) findScenarios(ctx context.Context, courseID string) ([]*Scenario, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, course_id, module_id, name, build_path, created_at FROM scenarios WHERE course_id = $1 ORDER BY created_at`,
		courseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scenarios []*Scenario
	for rows.Next() {
		s := &Scenario{}
		if err := rows.Scan(&s.ID, &s.CourseID, &s.ModuleID, &s.Name, &s.BuildPath, &s.CreatedAt); err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, rows.Err()
}

func (r *courseRepository) FindByOrganizations(ctx context.Context, organizationIDs []string) ([]*Course, error) {
	if len(organizationIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT id, organization_id, title, description, build_name, tag_ids, created_at, updated_at
		FROM courses
		WHERE organization_id::text = ANY($1)
		ORDER BY title`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(organizationIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []*Course
	for rows.Next() {
		c := &Course{}
		if err := rows.Scan(
			&c.ID, &c.OrganizationID, &c.Title, &c.Description, &c.BuildName,
			pq.Array(&c.TagIDs), &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

func (r *courseRepository) Update(ctx context.Context, course *Course) error {
	query := `
		UPDATE courses SET title = $2, description = $3, build_name = $4, tag_ids = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	return r.db.QueryRowContext(ctx, query,
		course.ID, course.Title, course.Description, course.BuildName, pq.Array(course.TagIDs),
	).Scan(&course.UpdatedAt)
}

func (r *courseRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	// quiz_responses do not cascade from enrollments; clear them first.
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM quiz_responses
		WHERE enrollment_id IN (SELECT id FROM enrollments WHERE course_id = $1)`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *courseRepository) CreateScenario(ctx context.Context, scenario *Scenario) error {
	query := `
		INSERT INTO scenarios (course_id, module_id, name, build_path)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		scenario.CourseID, scenario.ModuleID, scenario.Name, scenario.BuildPath,
	).Scan(&scenario.ID, &scenario.CreatedAt)
}

func (r *courseRepository) FindScenario(ctx context.Context, courseID, scenarioID string) (*Scenario, error) {
	query := `
		SELECT id, course_id, module_id, name, build_path, created_at
		FROM scenarios
		WHERE course_id = $1 AND id = $2`

	s := &Scenario{}
	err := r.db.QueryRowContext(ctx, query, courseID, scenarioID).Scan(
		&s.ID, &s.CourseID, &s.ModuleID, &s.Name, &s.BuildPath, &s.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
