package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Rrens/teamhub/internal/access"
	"github.com/Rrens/teamhub/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// InvitationRepository handles invitation and join request data access
type InvitationRepository struct {
	db *DB
}

// NewInvitationRepository creates a new invitation repository
func NewInvitationRepository(db *DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

var invitationScope = scopeColumns{team: "i.team_id", email: "i.email", sender: "i.invited_by"}

const invitationSelect = `
	SELECT i.id, i.uuid, i.team_id, t.uuid, i.email, i.role, i.invited_by,
	       u.username, COALESCE(u.email, ''), i.is_accepted, i.accepted_by,
	       i.created_at, i.updated_at
	FROM invitations i
	INNER JOIN teams t ON t.id = i.team_id
	LEFT JOIN users u ON u.id = i.invited_by
`

func scanInvitation(row pgx.Row) (*domain.Invitation, error) {
	var inv domain.Invitation
	err := row.Scan(
		&inv.ID,
		&inv.UUID,
		&inv.TeamID,
		&inv.TeamUUID,
		&inv.Email,
		&inv.Role,
		&inv.InvitedByID,
		&inv.InvitedBy,
		&inv.InvitedByEmail,
		&inv.IsAccepted,
		&inv.AcceptedByID,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// Create inserts an invitation. A second invitation of one email into one
// team is a duplicate.
func (r *InvitationRepository) Create(ctx context.Context, inv *domain.Invitation) error {
	query := `
		INSERT INTO invitations (uuid, team_id, email, role, invited_by, is_accepted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.db.conn(ctx).QueryRow(ctx, query,
		inv.UUID,
		inv.TeamID,
		inv.Email,
		inv.Role,
		inv.InvitedByID,
		inv.IsAccepted,
		inv.CreatedAt,
		inv.UpdatedAt,
	).Scan(&inv.ID)
	if err != nil {
		return wrapWriteErr("create invitation", err)
	}

	return nil
}

// GetByUUID retrieves an invitation visible under scope
func (r *InvitationRepository) GetByUUID(ctx context.Context, id uuid.UUID, scope access.Cond) (*domain.Invitation, error) {
	var w where
	w.add("i.uuid = " + w.arg(id))
	if err := w.scope(scope, invitationScope); err != nil {
		return nil, err
	}

	inv, err := scanInvitation(r.db.conn(ctx).QueryRow(ctx, invitationSelect+w.String(), w.args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return inv, nil
}

// GetForUpdate reads an invitation and locks its row until the transaction ends
func (r *InvitationRepository) GetForUpdate(ctx context.Context, id int64) (*domain.Invitation, error) {
	inv, err := scanInvitation(r.db.conn(ctx).QueryRow(ctx, invitationSelect+`WHERE i.id = $1 FOR UPDATE OF i`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock invitation: %w", err)
	}
	return inv, nil
}

// List returns a page of invitations visible under scope and the total count
func (r *InvitationRepository) List(ctx context.Context, scope access.Cond, filter domain.InvitationFilter, page domain.PageRequest) ([]domain.Invitation, int, error) {
	page = page.Normalize()

	var w where
	if err := w.scope(scope, invitationScope); err != nil {
		return nil, 0, err
	}
	if filter.TeamUUID != nil {
		w.add("t.uuid = " + w.arg(*filter.TeamUUID))
	}
	if filter.IsAccepted != nil {
		w.add("i.is_accepted = " + w.arg(*filter.IsAccepted))
	}
	if filter.InvitedBy != nil {
		w.add("i.invited_by = " + w.arg(*filter.InvitedBy))
	}

	countQuery := `SELECT COUNT(*) FROM invitations i INNER JOIN teams t ON t.id = i.team_id ` + w.String()
	var count int
	if err := r.db.conn(ctx).QueryRow(ctx, countQuery, w.args...).Scan(&count); err != nil {
		return nil, 0, fmt.Errorf("failed to count invitations: %w", err)
	}

	query := invitationSelect + w.String() + ` ORDER BY i.created_at DESC, i.id DESC ` + w.page(page.Limit, page.Offset)
	rows, err := r.db.conn(ctx).Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	var invitations []domain.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan invitation: %w", err)
		}
		invitations = append(invitations, *inv)
	}

	return invitations, count, rows.Err()
}

// MarkAccepted flags an invitation as accepted by a user
func (r *InvitationRepository) MarkAccepted(ctx context.Context, id int64, acceptedBy int64) error {
	_, err := r.db.conn(ctx).Exec(ctx,
		`UPDATE invitations SET is_accepted = TRUE, accepted_by = $2, updated_at = NOW() WHERE id = $1`,
		id, acceptedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to accept invitation: %w", err)
	}
	return nil
}

// Delete deletes an invitation
func (r *InvitationRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.conn(ctx).Exec(ctx, `DELETE FROM invitations WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete invitation: %w", err)
	}
	return nil
}
