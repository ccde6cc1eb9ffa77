package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Marga-Ghale/ora-training-backend/internal/types"
)

type OrganizationRepository interface {
	// Create inserts the organization and its first member in one transaction.
	Create(ctx context.Context, org *Organization, owner *OrganizationMember) error
	FindByID(ctx context.Context, id string) (*Organization, error)
	FindByUserID(ctx context.Context, userID string) ([]*Organization, error)
	FindByContainer(ctx context.Context, containerName string) (*Organization, error)
	Update(ctx context.Context, org *Organization) error
	Delete(ctx context.Context, id string) error

	// AddMember returns ErrDuplicate when the user is already a member.
	AddMember(ctx context.Context, member *OrganizationMember) error
	FindMember(ctx context.Context, organizationID, userID string) (*OrganizationMember, error)
	FindMemberByID(ctx context.Context, organizationID, memberID string) (*OrganizationMember, error)
	FindMembers(ctx context.Context, organizationID string) ([]*OrganizationMember, error)
	FindMembershipsByUser(ctx context.Context, userID string) ([]*OrganizationMember, error)
	UpdateMemberRole(ctx context.Context, memberID string, role types.Role) error
	RemoveMember(ctx context.Context, memberID string) error
	CountOwners(ctx context.Context, organizationID string) (int, error)
	// SharesOrganization reports whether managerID holds one of roles in an
	// organization that userID also belongs to.
	SharesOrganization(ctx context.Context, managerID, userID string, roles []types.Role) (bool, error)
}

type pgOrganizationRepository struct {
	pool pgxConn
}

func NewOrganizationRepository(pool *pgxpool.Pool) OrganizationRepository {
	return &pgOrganizationRepository{pool: pool}
}

const organizationColumns = `o.id, o.name, o.description, o.container_name, o.created_at, o.updated_at`

func scanOrganization(row pgx.Row) (*Organization, error) {
	o := &Organization{}
	err := row.Scan(&o.ID, &o.Name, &o.Description, &o.ContainerName, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *pgOrganizationRepository) Create(ctx context.Context, org *Organization, owner *OrganizationMember) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO organizations (name, description, container_name)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, org.Name, org.Description, org.ContainerName).Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}

	owner.OrganizationID = org.ID
	err = tx.QueryRow(ctx, `
		INSERT INTO organization_members (organization_id, user_id, role)
		VALUES ($1, $2, $3)
		RETURNING id, joined_at
	`, owner.OrganizationID, owner.UserID, owner.Role).Scan(&owner.ID, &owner.JoinedAt)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *pgOrganizationRepository) FindByID(ctx context.Context, id string) (*Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations o WHERE o.id = $1`
	return scanOrganization(r.pool.QueryRow(ctx, query, id))
}

func (r *pgOrganizationRepository) FindByContainer(ctx context.Context, containerName string) (*Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations o WHERE o.container_name = $1`
	return scanOrganization(r.pool.QueryRow(ctx, query, containerName))
}

func (r *pgOrganizationRepository) FindByUserID(ctx context.Context, userID string) ([]*Organization, error) {
	query := `
		SELECT ` + organizationColumns + `
		FROM organizations o
		JOIN organization_members m ON m.organization_id = o.id
		WHERE m.user_id = $1
		ORDER BY o.name
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orgs []*Organization
	for rows.Next() {
		o := &Organization{}
		if err := rows.Scan(&o.ID, &o.Name, &o.Description, &o.ContainerName, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		orgs = append(orgs, o)
	}
	return orgs, rows.Err()
}

func (r *pgOrganizationRepository) Update(ctx context.Context, org *Organization) error {
	query := `
		UPDATE organizations SET name = $2, description = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	return r.pool.QueryRow(ctx, query, org.ID, org.Name, org.Description).Scan(&org.UpdatedAt)
}

// Delete removes the organization. Quiz responses are cleared first so the
// enrollment cascade from its courses cannot trip their foreign key.
func (r *pgOrganizationRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		DELETE FROM quiz_responses
		WHERE enrollment_id IN (
			SELECT e.id FROM enrollments e
			JOIN courses c ON c.id = e.course_id
			WHERE c.organization_id = $1
		)`, id); err != nil {
		return fmt.Errorf("delete quiz responses: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM organizations WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ============================================
// Members
// ============================================

func (r *pgOrganizationRepository) AddMember(ctx context.Context, member *OrganizationMember) error {
	query := `
		INSERT INTO organization_members (organization_id, user_id, role)
		VALUES ($1, $2, $3)
		RETURNING id, joined_at
	`
	err := r.pool.QueryRow(ctx, query, member.OrganizationID, member.UserID, member.Role).
		Scan(&member.ID, &member.JoinedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

const memberColumns = `m.id, m.organization_id, m.user_id, m.role, m.joined_at`

func scanMember(row pgx.Row) (*OrganizationMember, error) {
	m := &OrganizationMember{}
	err := row.Scan(&m.ID, &m.OrganizationID, &m.UserID, &m.Role, &m.JoinedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *pgOrganizationRepository) FindMember(ctx context.Context, organizationID, userID string) (*OrganizationMember, error) {
	query := `SELECT ` + memberColumns + ` FROM organization_members m WHERE m.organization_id = $1 AND m.user_id = $2`
	return scanMember(r.pool.QueryRow(ctx, query, organizationID, userID))
}

func (r *pgOrganizationRepository) FindMemberByID(ctx context.Context, organizationID, memberID string) (*OrganizationMember, error) {
	query := `SELECT ` + memberColumns + ` FROM organization_members m WHERE m.organization_id = $1 AND m.id = $2`
	return scanMember(r.pool.QueryRow(ctx, query, organizationID, memberID))
}

func (r *pgOrganizationRepository) FindMembers(ctx context.Context, organizationID string) ([]*OrganizationMember, error) {
	query := `
		SELECT ` + memberColumns + `,
		       u.id, u.auth_subject, u.email, u.name, u.picture, u.container_name, u.created_at, u.updated_at
		FROM organization_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.organization_id = $1
		ORDER BY m.joined_at
	`
	rows, err := r.pool.Query(ctx, query, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*OrganizationMember
	for rows.Next() {
		m := &OrganizationMember{User: &User{}}
		if err := rows.Scan(
			&m.ID, &m.OrganizationID, &m.UserID, &m.Role, &m.JoinedAt,
			&m.User.ID, &m.User.AuthSubject, &m.User.Email, &m.User.Name, &m.User.Picture,
			&m.User.ContainerName, &m.User.CreatedAt, &m.User.UpdatedAt,
		); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *pgOrganizationRepository) FindMembershipsByUser(ctx context.Context, userID string) ([]*OrganizationMember, error) {
	query := `SELECT ` + memberColumns + ` FROM organization_members m WHERE m.user_id = $1 ORDER BY m.joined_at`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*OrganizationMember
	for rows.Next() {
		m := &OrganizationMember{}
		if err := rows.Scan(&m.ID, &m.OrganizationID, &m.UserID, &m.Role, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *pgOrganizationRepository) UpdateMemberRole(ctx context.Context, memberID string, role types.Role) error {
	_, err := r.pool.Exec(ctx, `UPDATE organization_members SET role = $2 WHERE id = $1`, memberID, role)
	return err
}

func (r *pgOrganizationRepository) RemoveMember(ctx context.Context, memberID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM organization_members WHERE id = $1`, memberID)
	return err
}

func (r *pgOrganizationRepository) CountOwners(ctx context.Context, organizationID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM organization_members WHERE organization_id = $1 AND role = $2`,
		organizationID, types.RoleOwner,
	).Scan(&n)
	return n, err
}

func (r *pgOrganizationRepository) SharesOrganization(ctx context.Context, managerID, userID string, roles []types.Role) (bool, error) {
	roleNames := make([]string, len(roles))
	for i, role := range roles {
		roleNames[i] = string(role)
	}
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM organization_members mgr
			JOIN organization_members target ON target.organization_id = mgr.organization_id
			WHERE mgr.user_id = $1 AND target.user_id = $2 AND mgr.role = ANY($3)
		)
	`
	var ok bool
	err := r.pool.QueryRow(ctx, query, managerID, userID, roleNames).Scan(&ok)
	return ok, err
}
