package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TagRepository interface {
	// Create returns ErrDuplicate when the organization already has a tag with that name.
	Create(ctx context.Context, tag *Tag) error
	FindByID(ctx context.Context, organizationID, id string) (*Tag, error)
	FindByOrganization(ctx context.Context, organizationID string) ([]*Tag, error)
	Delete(ctx context.Context, id string) error
}

type pgTagRepository struct {
	pool *pgxpool.Pool
}

func NewTagRepository(pool *pgxpool.Pool) TagRepository {
	return &pgTagRepository{pool: pool}
}

func (r *pgTagRepository) Create(ctx context.Context, tag *Tag) error {
	query := `
		INSERT INTO tags (organization_id, name, color)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.pool.QueryRow(ctx, query, tag.OrganizationID, tag.Name, tag.Color).Scan(&tag.ID, &tag.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *pgTagRepository) FindByID(ctx context.Context, organizationID, id string) (*Tag, error) {
	query := `SELECT id, organization_id, name, color, created_at FROM tags WHERE organization_id = $1 AND id = $2`
	t := &Tag{}
	err := r.pool.QueryRow(ctx, query, organizationID, id).Scan(&t.ID, &t.OrganizationID, &t.Name, &t.Color, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *pgTagRepository) FindByOrganization(ctx context.Context, organizationID string) ([]*Tag, error) {
	query := `SELECT id, organization_id, name, color, created_at FROM tags WHERE organization_id = $1 ORDER BY name`
	rows, err := r.pool.Query(ctx, query, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*Tag
	for rows.Next() {
		t := &Tag{}
		if err := rows.Scan(&t.ID, &t.OrganizationID, &t.Name, &t.Color, &t.CreatedAt); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (r *pgTagRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM tags WHERE id = $1`, id)
	return err
}
