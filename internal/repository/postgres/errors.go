package postgres

import (
	"errors"
	"fmt"

	"github.com/Rrens/teamhub/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation = "23505"

	usersEmailKey = "users_email_key"
)

// wrapWriteErr maps unique violations to domain.ErrDuplicate
func wrapWriteErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if pgErr.ConstraintName == usersEmailKey {
			return fmt.Errorf("failed to %s: %w", op, domain.ErrDuplicateEmail)
		}
		return fmt.Errorf("failed to %s: %w (%s)", op, domain.ErrDuplicate, pgErr.ConstraintName)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
