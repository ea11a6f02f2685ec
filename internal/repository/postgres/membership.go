package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Rrens/teamhub/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// MembershipRepository handles membership data access
type MembershipRepository struct {
	db *DB
}

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(db *DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// Create inserts a membership. A second membership of the same user in the
// same team is a duplicate.
func (r *MembershipRepository) Create(ctx context.Context, m *domain.Membership) error {
	query := `
		INSERT INTO memberships (team_id, user_id, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.conn(ctx).QueryRow(ctx, query,
		m.TeamID,
		m.UserID,
		m.Role,
		m.CreatedAt,
		m.UpdatedAt,
	).Scan(&m.ID)
	if err != nil {
		return wrapWriteErr("create membership", err)
	}

	return nil
}

// Get retrieves the membership of a user in a team
func (r *MembershipRepository) Get(ctx context.Context, teamID, userID int64) (*domain.Membership, error) {
	query := `
		SELECT id, team_id, user_id, role, created_at, updated_at
		FROM memberships
		WHERE team_id = $1 AND user_id = $2
	`

	var m domain.Membership
	err := r.db.conn(ctx).QueryRow(ctx, query, teamID, userID).Scan(
		&m.ID,
		&m.TeamID,
		&m.UserID,
		&m.Role,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return &m, nil
}

// Delete removes the memberships of userIDs in a team and reports how many went
func (r *MembershipRepository) Delete(ctx context.Context, teamID int64, userIDs []int64) (int64, error) {
	tag, err := r.db.conn(ctx).Exec(ctx,
		`DELETE FROM memberships WHERE team_id = $1 AND user_id = ANY($2)`, teamID, userIDs,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete memberships: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListByTeam returns the memberships of a team with team and user names
func (r *MembershipRepository) ListByTeam(ctx context.Context, teamID int64) ([]domain.MembershipView, error) {
	query := `
		SELECT m.id, m.created_at, m.updated_at, COALESCE(t.name, ''), u.username, m.role
		FROM memberships m
		INNER JOIN teams t ON t.id = m.team_id
		INNER JOIN users u ON u.id = m.user_id
		WHERE m.team_id = $1
		ORDER BY m.id
	`

	rows, err := r.db.conn(ctx).Query(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	var views []domain.MembershipView
	for rows.Next() {
		var v domain.MembershipView
		if err := rows.Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt, &v.TeamName, &v.Username, &v.Role); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		views = append(views, v)
	}

	return views, rows.Err()
}

// TeamIDsForUser returns the IDs of the teams a user belongs to
func (r *MembershipRepository) TeamIDsForUser(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.db.conn(ctx).Query(ctx,
		`SELECT team_id FROM memberships WHERE user_id = $1 ORDER BY team_id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list user teams: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("failed to scan user teams: %w", err)
	}
	return ids, nil
}

// TeamUUIDsForUser returns the UUIDs of the teams a user belongs to
func (r *MembershipRepository) TeamUUIDsForUser(ctx context.Context, userID int64) ([]uuid.UUID, error) {
	query := `
		SELECT t.uuid
		FROM teams t
		INNER JOIN memberships m ON m.team_id = t.id
		WHERE m.user_id = $1
		ORDER BY t.id
	`

	rows, err := r.db.conn(ctx).Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user teams: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("failed to scan user teams: %w", err)
	}
	return ids, nil
}
