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

// APIKeyRepository handles API key data access
type APIKeyRepository struct {
	db *DB
}

// NewAPIKeyRepository creates a new API key repository
func NewAPIKeyRepository(db *DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

var apiKeyScope = scopeColumns{team: "k.team_id"}

const apiKeySelect = `
	SELECT k.id, k.uuid, k.name, k.prefix, k.hashed_key, k.team_id, t.uuid,
	       k.user_id, k.revoked, k.expiry_date, k.created_at
	FROM api_keys k
	INNER JOIN teams t ON t.id = k.team_id
`

func scanAPIKey(row pgx.Row) (*domain.APIKey, error) {
	var key domain.APIKey
	err := row.Scan(
		&key.ID,
		&key.UUID,
		&key.Name,
		&key.Prefix,
		&key.HashedKey,
		&key.TeamID,
		&key.TeamUUID,
		&key.UserID,
		&key.Revoked,
		&key.ExpiryDate,
		&key.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &key, nil
}

// Create inserts an API key and sets its ID
func (r *APIKeyRepository) Create(ctx context.Context, key *domain.APIKey) error {
	query := `
		INSERT INTO api_keys (uuid, name, prefix, hashed_key, team_id, user_id, revoked, expiry_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err := r.db.conn(ctx).QueryRow(ctx, query,
		key.UUID,
		key.Name,
		key.Prefix,
		key.HashedKey,
		key.TeamID,
		key.UserID,
		key.Revoked,
		key.ExpiryDate,
		key.CreatedAt,
	).Scan(&key.ID)
	if err != nil {
		return wrapWriteErr("create api key", err)
	}

	return nil
}

// GetByPrefix retrieves a key by its public prefix
func (r *APIKeyRepository) GetByPrefix(ctx context.Context, prefix string) (*domain.APIKey, error) {
	key, err := scanAPIKey(r.db.conn(ctx).QueryRow(ctx, apiKeySelect+`WHERE k.prefix = $1`, prefix))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get api key: %w", err)
	}
	return key, nil
}

// GetByUUID retrieves a key visible under scope
func (r *APIKeyRepository) GetByUUID(ctx context.Context, id uuid.UUID, scope access.Cond) (*domain.APIKey, error) {
	var w where
	w.add("k.uuid = " + w.arg(id))
	if err := w.scope(scope, apiKeyScope); err != nil {
		return nil, err
	}

	key, err := scanAPIKey(r.db.conn(ctx).QueryRow(ctx, apiKeySelect+w.String(), w.args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get api key: %w", err)
	}
	return key, nil
}

// List returns a page of keys visible under scope and the total count
func (r *APIKeyRepository) List(ctx context.Context, scope access.Cond, filter domain.APIKeyFilter, page domain.PageRequest) ([]domain.APIKey, int, error) {
	page = page.Normalize()

	var w where
	if err := w.scope(scope, apiKeyScope); err != nil {
		return nil, 0, err
	}
	if filter.TeamUUID != nil {
		w.add("t.uuid = " + w.arg(*filter.TeamUUID))
	}

	countQuery := `SELECT COUNT(*) FROM api_keys k INNER JOIN teams t ON t.id = k.team_id ` + w.String()
	var count int
	if err := r.db.conn(ctx).QueryRow(ctx, countQuery, w.args...).Scan(&count); err != nil {
		return nil, 0, fmt.Errorf("failed to count api keys: %w", err)
	}

	query := apiKeySelect + w.String() + ` ORDER BY k.created_at DESC, k.id DESC ` + w.page(page.Limit, page.Offset)
	rows, err := r.db.conn(ctx).Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list api keys: %w", err)
	}
	defer rows.Close()

	var keys []domain.APIKey
	for rows.Next() {
		key, err := scanAPIKey(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan api key: %w", err)
		}
		keys = append(keys, *key)
	}

	return keys, count, rows.Err()
}

// NameExistsInTeam checks whether a team already has a key called name
func (r *APIKeyRepository) NameExistsInTeam(ctx context.Context, teamID int64, name string) (bool, error) {
	var exists bool
	err := r.db.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM api_keys WHERE team_id = $1 AND name = $2)`, teamID, name,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check api key name: %w", err)
	}
	return exists, nil
}

// Delete deletes an API key
func (r *APIKeyRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.conn(ctx).Exec(ctx, `DELETE FROM api_keys WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete api key: %w", err)
	}
	return nil
}
