package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Marga-Ghale/ora-training-backend/internal/types"
)

type InvitationRepository interface {
	Create(ctx context.Context, invitation *Invitation) error
	FindByID(ctx context.Context, organizationID, id string) (*Invitation, error)
	FindPendingByOrganization(ctx context.Context, organizationID string) ([]*Invitation, error)
	FindPendingByEmail(ctx context.Context, organizationID, email string) (*Invitation, error)
	UpdateStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, id string) error
	// Accept adds member and marks the invitation ACCEPTED in one transaction.
	// ErrDuplicate is returned when the user is already a member.
	Accept(ctx context.Context, invitationID string, member *OrganizationMember) error
	// ExpirePending moves PENDING invitations past their expiry to EXPIRED.
	ExpirePending(ctx context.Context, now time.Time) (int, error)
}

type pgInvitationRepository struct {
	pool *pgxpool.Pool
}

func NewInvitationRepository(pool *pgxpool.Pool) InvitationRepository {
	return &pgInvitationRepository{pool: pool}
}

const invitationColumns = `id, organization_id, email, role, token, status, invited_by, expires_at, created_at`

func scanInvitation(row pgx.Row) (*Invitation, error) {
	inv := &Invitation{}
	err := row.Scan(
		&inv.ID, &inv.OrganizationID, &inv.Email, &inv.Role, &inv.Token,
		&inv.Status, &inv.InvitedBy, &inv.ExpiresAt, &inv.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *pgInvitationRepository) Create(ctx context.Context, invitation *Invitation) error {
	if invitation.Token == "" {
		invitation.Token = uuid.New().String()
	}
	if invitation.Status == "" {
		invitation.Status = types.InvitationPending
	}
	query := `
		INSERT INTO invitations (organization_id, email, role, token, status, invited_by, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	return r.pool.QueryRow(ctx, query,
		invitation.OrganizationID, invitation.Email, invitation.Role, invitation.Token,
		invitation.Status, invitation.InvitedBy, invitation.ExpiresAt,
	).Scan(&invitation.ID, &invitation.CreatedAt)
}

func (r *pgInvitationRepository) FindByID(ctx context.Context, organizationID, id string) (*Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE organization_id = $1 AND id = $2`
	return scanInvitation(r.pool.QueryRow(ctx, query, organizationID, id))
}

func (r *pgInvitationRepository) FindPendingByEmail(ctx context.Context, organizationID, email string) (*Invitation, error) {
	query := `
		SELECT ` + invitationColumns + ` FROM invitations
		WHERE organization_id = $1 AND LOWER(email) = LOWER($2) AND status = $3
		ORDER BY created_at DESC LIMIT 1
	`
	return scanInvitation(r.pool.QueryRow(ctx, query, organizationID, email, types.InvitationPending))
}

func (r *pgInvitationRepository) FindPendingByOrganization(ctx context.Context, organizationID string) ([]*Invitation, error) {
	query := `
		SELECT ` + invitationColumns + ` FROM invitations
		WHERE organization_id = $1 AND status = $2
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, organizationID, types.InvitationPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invitations []*Invitation
	for rows.Next() {
		inv := &Invitation{}
		if err := rows.Scan(
			&inv.ID, &inv.OrganizationID, &inv.Email, &inv.Role, &inv.Token,
			&inv.Status, &inv.InvitedBy, &inv.ExpiresAt, &inv.CreatedAt,
		); err != nil {
			return nil, err
		}
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}

func (r *pgInvitationRepository) UpdateStatus(ctx context.Context, id, status string) error {
	_, err := r.pool.Exec(ctx, `UPDATE invitations SET status = $2 WHERE id = $1`, id, status)
	return err
}

func (r *pgInvitationRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM invitations WHERE id = $1`, id)
	return err
}

func (r *pgInvitationRepository) Accept(ctx context.Context, invitationID string, member *OrganizationMember) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO organization_members (organization_id, user_id, role)
		VALUES ($1, $2, $3)
		RETURNING id, joined_at
	`, member.OrganizationID, member.UserID, member.Role).Scan(&member.ID, &member.JoinedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE invitations SET status = $2 WHERE id = $1`,
		invitationID, types.InvitationAccepted,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *pgInvitationRepository) ExpirePending(ctx context.Context, now time.Time) (int, error) {
	result, err := r.pool.Exec(ctx,
		`UPDATE invitations SET status = $1 WHERE status = $2 AND expires_at < $3`,
		types.InvitationExpired, types.InvitationPending, now,
	)
	if err != nil {
		return 0, err
	}
	return int(result.RowsAffected()), nil
}
