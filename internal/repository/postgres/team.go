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

// TeamRepository handles team data access
type TeamRepository struct {
	db *DB
}

// NewTeamRepository creates a new team repository
func NewTeamRepository(db *DB) *TeamRepository {
	return &TeamRepository{db: db}
}

var teamScope = scopeColumns{team: "t.id"}

const teamColumns = `t.id, t.uuid, t.name, t.created_at, t.updated_at`

func scanTeam(row pgx.Row) (*domain.Team, error) {
	var team domain.Team
	if err := row.Scan(&team.ID, &team.UUID, &team.Name, &team.CreatedAt, &team.UpdatedAt); err != nil {
		return nil, err
	}
	return &team, nil
}

// Create inserts a team and sets its ID
func (r *TeamRepository) Create(ctx context.Context, team *domain.Team) error {
	query := `
		INSERT INTO teams (uuid, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.db.conn(ctx).QueryRow(ctx, query,
		team.UUID,
		team.Name,
		team.CreatedAt,
		team.UpdatedAt,
	).Scan(&team.ID)
	if err != nil {
		return wrapWriteErr("create team", err)
	}

	return nil
}

// GetByUUID retrieves a team visible under scope
func (r *TeamRepository) GetByUUID(ctx context.Context, id uuid.UUID, scope access.Cond) (*domain.Team, error) {
	var w where
	w.add("t.uuid = " + w.arg(id))
	if err := w.scope(scope, teamScope); err != nil {
		return nil, err
	}

	query := `SELECT ` + teamColumns + ` FROM teams t ` + w.String()

	team, err := scanTeam(r.db.conn(ctx).QueryRow(ctx, query, w.args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return team, nil
}

// List returns a page of teams visible under scope and the total count
func (r *TeamRepository) List(ctx context.Context, scope access.Cond, filter domain.TeamFilter, page domain.PageRequest) ([]domain.Team, int, error) {
	page = page.Normalize()

	var w where
	if err := w.scope(scope, teamScope); err != nil {
		return nil, 0, err
	}
	if filter.NameContains != "" {
		w.add("t.name ILIKE '%' || " + w.arg(filter.NameContains) + " || '%'")
	}

	var count int
	if err := r.db.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM teams t `+w.String(), w.args...).Scan(&count); err != nil {
		return nil, 0, fmt.Errorf("failed to count teams: %w", err)
	}

	query := `SELECT ` + teamColumns + ` FROM teams t ` + w.String() + ` ORDER BY t.created_at DESC, t.id DESC ` + w.page(page.Limit, page.Offset)
	rows, err := r.db.conn(ctx).Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	var teams []domain.Team
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, *team)
	}

	return teams, count, rows.Err()
}

// Update saves the team name
func (r *TeamRepository) Update(ctx context.Context, team *domain.Team) error {
	_, err := r.db.conn(ctx).Exec(ctx,
		`UPDATE teams SET name = $2, updated_at = $3 WHERE id = $1`,
		team.ID, team.Name, team.UpdatedAt,
	)
	if err != nil {
		return wrapWriteErr("update team", err)
	}
	return nil
}

// Delete deletes a team together with its memberships, invitations, keys and resources
func (r *TeamRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.conn(ctx).Exec(ctx, `DELETE FROM teams WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}
	return nil
}

// NameExists checks whether another team already uses name
func (r *TeamRepository) NameExists(ctx context.Context, name string, excludeID int64) (bool, error) {
	var exists bool
	err := r.db.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM teams WHERE name = $1 AND id <> $2)`, name, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check team name: %w", err)
	}
	return exists, nil
}
