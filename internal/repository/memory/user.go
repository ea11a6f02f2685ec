package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/Rrens/teamhub/internal/domain"
)

// UserRepository stores users in memory
type UserRepository struct {
	s *Store
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	defer r.s.lockWrite(ctx)()

	for _, u := range r.s.users {
		if u.Username == user.Username {
			return fmt.Errorf("failed to create user: %w", domain.ErrDuplicate)
		}
		if user.Email != "" && u.Email == user.Email {
			return fmt.Errorf("failed to create user: %w", domain.ErrDuplicateEmail)
		}
	}

	user.ID = r.s.next("users")
	r.s.users[user.ID] = *user
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *UserRepository) find(match func(domain.User) bool) *domain.User {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var found *domain.User
	for _, u := range r.s.users {
		u := u
		if match(u) && (found == nil || u.ID < found.ID) {
			found = &u
		}
	}
	return found
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Username == username }), nil
}

// GetByEmail returns the oldest user registered with email
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Email == email }), nil
}

func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	u, _ := r.GetByUsername(ctx, username)
	return u != nil, nil
}

func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	u, _ := r.GetByEmail(ctx, email)
	return u != nil, nil
}

func (r *UserRepository) List(_ context.Context, page domain.PageRequest) ([]domain.User, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	users := make([]domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })

	return domain.Window(users, page), len(users), nil
}
