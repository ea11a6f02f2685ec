package service

import (
	"context"
	"fmt"

	"github.com/Rrens/teamhub/internal/domain"
	"github.com/Rrens/teamhub/internal/pkg/apperr"
)

// UserService exposes read access to accounts
type UserService struct {
	userRepo       domain.UserRepository
	membershipRepo domain.MembershipRepository
}

// NewUserService creates a new user service
func NewUserService(store *domain.Store) *UserService {
	return &UserService{
		userRepo:       store.Users,
		membershipRepo: store.Memberships,
	}
}

// List returns a page of users
func (s *UserService) List(ctx context.Context, page domain.PageRequest) (domain.Page[domain.UserView], error) {
	users, count, err := s.userRepo.List(ctx, page)
	if err != nil {
		return domain.Page[domain.UserView]{}, fmt.Errorf("failed to list users: %w", err)
	}

	views := make([]domain.UserView, 0, len(users))
	for i := range users {
		view, err := s.view(ctx, &users[i])
		if err != nil {
			return domain.Page[domain.UserView]{}, err
		}
		views = append(views, view)
	}

	return domain.NewPage(views, count), nil
}

// Get returns one user
func (s *UserService) Get(ctx context.Context, id int64) (*domain.UserView, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, apperr.NotFound("")
	}

	view, err := s.view(ctx, user)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *UserService) view(ctx context.Context, user *domain.User) (domain.UserView, error) {
	teams, err := s.membershipRepo.TeamUUIDsForUser(ctx, user.ID)
	if err != nil {
		return domain.UserView{}, fmt.Errorf("failed to get user teams: %w", err)
	}
	return domain.NewUserView(user, teams), nil
}
