package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Rrens/teamhub/internal/access"
	"github.com/Rrens/teamhub/internal/domain"
	"github.com/Rrens/teamhub/internal/lifecycle"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ResourceRepository handles resource data access
type ResourceRepository struct {
	db *DB
}

// NewResourceRepository creates a new resource repository
func NewResourceRepository(db *DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

var resourceScope = scopeColumns{team: "r.team_id"}

const resourceSelect = `
	SELECT r.id, r.uuid, r.team_id, t.uuid, r.kind, r.name, r.description,
	       r.error_message, r.error_traceback, r.backend_id, r.runtime_state,
	       r.state, r.created_at, r.updated_at
	FROM resources r
	INNER JOIN teams t ON t.id = r.team_id
`

func scanResource(row pgx.Row) (*domain.Resource, error) {
	var (
		res          domain.Resource
		runtimeState string
		state        int16
	)
	err := row.Scan(
		&res.ID,
		&res.UUID,
		&res.TeamID,
		&res.TeamUUID,
		&res.Kind,
		&res.Name,
		&res.Description,
		&res.ErrorMessage,
		&res.ErrorTraceback,
		&res.BackendID,
		&runtimeState,
		&state,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	res.RuntimeState = lifecycle.RuntimeState(runtimeState)
	res.State = lifecycle.State(state)
	return &res, nil
}

// Create inserts a resource and sets its ID
func (r *ResourceRepository) Create(ctx context.Context, res *domain.Resource) error {
	query := `
		INSERT INTO resources (uuid, team_id, kind, name, description, error_message, error_traceback,
		                       backend_id, runtime_state, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`

	err := r.db.conn(ctx).QueryRow(ctx, query,
		res.UUID,
		res.TeamID,
		res.Kind,
		res.Name,
		res.Description,
		res.ErrorMessage,
		res.ErrorTraceback,
		res.BackendID,
		string(res.RuntimeState),
		int16(res.State),
		res.CreatedAt,
		res.UpdatedAt,
	).Scan(&res.ID)
	if err != nil {
		return wrapWriteErr("create resource", err)
	}

	return nil
}

// GetByUUID retrieves a resource visible under scope
func (r *ResourceRepository) GetByUUID(ctx context.Context, id uuid.UUID, scope access.Cond) (*domain.Resource, error) {
	var w where
	w.add("r.uuid = " + w.arg(id))
	if err := w.scope(scope, resourceScope); err != nil {
		return nil, err
	}

	res, err := scanResource(r.db.conn(ctx).QueryRow(ctx, resourceSelect+w.String(), w.args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get resource: %w", err)
	}
	return res, nil
}

// List returns a page of resources visible under scope and the total count
func (r *ResourceRepository) List(ctx context.Context, scope access.Cond, filter domain.ResourceFilter, page domain.PageRequest) ([]domain.Resource, int, error) {
	page = page.Normalize()

	var w where
	if err := w.scope(scope, resourceScope); err != nil {
		return nil, 0, err
	}
	if filter.TeamUUID != nil {
		w.add("t.uuid = " + w.arg(*filter.TeamUUID))
	}
	if filter.State != nil {
		w.add("r.state = " + w.arg(int16(*filter.State)))
	}

	countQuery := `SELECT COUNT(*) FROM resources r INNER JOIN teams t ON t.id = r.team_id ` + w.String()
	var count int
	if err := r.db.conn(ctx).QueryRow(ctx, countQuery, w.args...).Scan(&count); err != nil {
		return nil, 0, fmt.Errorf("failed to count resources: %w", err)
	}

	query := resourceSelect + w.String() + ` ORDER BY r.created_at DESC, r.id DESC ` + w.page(page.Limit, page.Offset)
	rows, err := r.db.conn(ctx).Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list resources: %w", err)
	}
	defer rows.Close()

	var resources []domain.Resource
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan resource: %w", err)
		}
		resources = append(resources, *res)
	}

	return resources, count, rows.Err()
}

// Update saves the mutable columns of a resource
func (r *ResourceRepository) Update(ctx context.Context, res *domain.Resource) error {
	query := `
		UPDATE resources
		SET name = $2,
		    description = $3,
		    error_message = $4,
		    error_traceback = $5,
		    backend_id = $6,
		    runtime_state = $7,
		    state = $8,
		    updated_at = $9
		WHERE id = $1
	`

	_, err := r.db.conn(ctx).Exec(ctx, query,
		res.ID,
		res.Name,
		res.Description,
		res.ErrorMessage,
		res.ErrorTraceback,
		res.BackendID,
		string(res.RuntimeState),
		int16(res.State),
		res.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update resource: %w", err)
	}
	return nil
}

// Delete deletes a resource
func (r *ResourceRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.conn(ctx).Exec(ctx, `DELETE FROM resources WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete resource: %w", err)
	}
	return nil
}
