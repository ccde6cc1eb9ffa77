package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository interface {
	// Upsert inserts the user keyed by AuthSubject, or loads the existing row
	// for that subject. Either way user is overwritten with the stored row.
	// The stored profile is never changed by Upsert.
	Upsert(ctx context.Context, user *User) (created bool, err error)
	FindByID(ctx context.Context, id string) (*User, error)
	FindBySubject(ctx context.Context, subject string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id string) error
}

type pgUserRepository struct {
	pool pgxConn
}

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &pgUserRepository{pool: pool}
}

const userColumns = `id, auth_subject, email, name, picture, container_name, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	u := &User{}
	err := row.Scan(&u.ID, &u.AuthSubject, &u.Email, &u.Name, &u.Picture, &u.ContainerName, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *pgUserRepository) Upsert(ctx context.Context, user *User) (bool, error) {
	// xmax = 0 only for a freshly inserted tuple; the no-op DO UPDATE lets
	// RETURNING yield the existing row on conflict.
	query := `
		INSERT INTO users (auth_subject, email, name, picture, container_name)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (auth_subject) DO UPDATE SET auth_subject = EXCLUDED.auth_subject
		RETURNING ` + userColumns + `, (xmax = 0) AS inserted
	`
	var created bool
	err := r.pool.QueryRow(ctx, query,
		user.AuthSubject, user.Email, user.Name, user.Picture, user.ContainerName,
	).Scan(
		&user.ID, &user.AuthSubject, &user.Email, &user.Name, &user.Picture,
		&user.ContainerName, &user.CreatedAt, &user.UpdatedAt, &created,
	)
	if err != nil {
		return false, err
	}
	return created, nil
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *pgUserRepository) FindBySubject(ctx context.Context, subject string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE auth_subject = $1`
	return scanUser(r.pool.QueryRow(ctx, query, subject))
}

func (r *pgUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1) ORDER BY created_at LIMIT 1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *pgUserRepository) Update(ctx context.Context, user *User) error {
	query := `
		UPDATE users SET name = $2, picture = $3, email = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	return r.pool.QueryRow(ctx, query, user.ID, user.Name, user.Picture, user.Email).Scan(&user.UpdatedAt)
}

// Delete removes the user along with their enrollments' quiz responses.
func (r *pgUserRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		DELETE FROM quiz_responses
		WHERE enrollment_id IN (SELECT id FROM enrollments WHERE user_id = $1)`, id); err != nil {
		return fmt.Errorf("delete quiz responses: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
