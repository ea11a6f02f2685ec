package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Rrens/teamhub/internal/access"
	"github.com/Rrens/teamhub/internal/domain"
	"github.com/Rrens/teamhub/internal/pkg/apperr"
)

const msgAlreadyInTeam = "The user is already in the team"

func invalidPK(field string, value any) *apperr.AppError {
	return apperr.FieldValidation(field, fmt.Sprintf("Invalid pk \"%v\" - object does not exist.", value))
}

// requireTeamAdmin fails with 403 unless p is a superuser or an ADMIN of teamID
func requireTeamAdmin(ctx context.Context, memberships domain.MembershipRepository, p access.Principal, teamID int64) error {
	if p.IsSuperuser {
		return nil
	}
	m, err := memberships.Get(ctx, teamID, p.UserID)
	if err != nil {
		return fmt.Errorf("failed to get membership: %w", err)
	}
	var role string
	if m != nil {
		role = m.Role
	}
	if !access.IsTeamAdmin(p, role) {
		return apperr.Forbidden("")
	}
	return nil
}

// isDuplicate reports whether err came from a unique constraint
func isDuplicate(err error) bool {
	return errors.Is(err, domain.ErrDuplicate)
}
