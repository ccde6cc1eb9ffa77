package repository

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgxConn is the part of *pgxpool.Pool the pgx repositories use.
type pgxConn interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repositories struct {
	// Identity and tenancy (pgxpool)
	UserRepo         UserRepository
	OrganizationRepo OrganizationRepository
	InvitationRepo   InvitationRepository
	TagRepo          TagRepository

	// Training content and progress (sql.DB)
	CourseRepo          CourseRepository
	EnrollmentRepo      EnrollmentRepository
	TrainingSessionRepo TrainingSessionRepository
}

func NewRepositories(pool *pgxpool.Pool, db *sql.DB) *Repositories {
	return &Repositories{
		// pgxpool repos
		UserRepo:         NewUserRepository(pool),
		OrganizationRepo: NewOrganizationRepository(pool),
		InvitationRepo:   NewInvitationRepository(pool),
		TagRepo:          NewTagRepository(pool),

		// sql.DB repos
		CourseRepo:          NewCourseRepository(db),
		EnrollmentRepo:      NewEnrollmentRepository(db),
		TrainingSessionRepo: NewTrainingSessionRepository(db),
	}
}

// NewMemoryRepositories returns repositories backed by a single in-process
// store. Used for local development without Postgres and in tests.
func NewMemoryRepositories() *Repositories {
	s := newMemoryStore()
	return &Repositories{
		UserRepo:            &memoryUserRepository{s},
		OrganizationRepo:    &memoryOrganizationRepository{s},
		InvitationRepo:      &memoryInvitationRepository{s},
		TagRepo:             &memoryTagRepository{s},
		CourseRepo:          &memoryCourseRepository{s},
		EnrollmentRepo:      &memoryEnrollmentRepository{s},
		TrainingSessionRepo: &memoryTrainingSessionRepository{s},
	}
}
