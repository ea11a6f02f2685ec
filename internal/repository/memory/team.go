package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Rrens/teamhub/internal/access"
	"github.com/Rrens/teamhub/internal/domain"
	"github.com/google/uuid"
)

// TeamRepository stores teams in memory
type TeamRepository struct {
	s *Store
}

// nameTaken reports whether a team other than excludeID uses name. Callers hold s.mu.
func (s *Store) nameTaken(name *string, excludeID int64) bool {
	if name == nil {
		return false
	}
	for _, t := range s.teams {
		if t.ID != excludeID && t.Name != nil && *t.Name == *name {
			return true
		}
	}
	return false
}

func (r *TeamRepository) Create(ctx context.Context, team *domain.Team) error {
	defer r.s.lockWrite(ctx)()

	if r.s.nameTaken(team.Name, 0) {
		return fmt.Errorf("failed to create team: %w", domain.ErrDuplicate)
	}
	for _, t := range r.s.teams {
		if t.UUID == team.UUID {
			return fmt.Errorf("failed to create team: %w", domain.ErrDuplicate)
		}
	}

	team.ID = r.s.next("teams")
	stored := *team
	stored.Memberships = nil
	r.s.teams[team.ID] = stored
	return nil
}

func (r *TeamRepository) GetByUUID(_ context.Context, id uuid.UUID, scope access.Cond) (*domain.Team, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	cond := r.s.resolve(scope)
	for _, t := range r.s.teams {
		if t.UUID == id && cond.Match(t) {
			return &t, nil
		}
	}
	return nil, nil
}

func (r *TeamRepository) List(_ context.Context, scope access.Cond, filter domain.TeamFilter, page domain.PageRequest) ([]domain.Team, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	cond := r.s.resolve(scope)
	var teams []domain.Team
	for _, t := range r.s.teams {
		if !cond.Match(t) {
			continue
		}
		if filter.NameContains != "" && (t.Name == nil || !containsFold(*t.Name, filter.NameContains)) {
			continue
		}
		teams = append(teams, t)
	}
	newestFirst(teams, func(t domain.Team) time.Time { return t.CreatedAt }, func(t domain.Team) int64 { return t.ID })

	return domain.Window(teams, page), len(teams), nil
}

func (r *TeamRepository) Update(ctx context.Context, team *domain.Team) error {
	defer r.s.lockWrite(ctx)()

	stored, ok := r.s.teams[team.ID]
	if !ok {
		return nil
	}
	if r.s.nameTaken(team.Name, team.ID) {
		return fmt.Errorf("failed to update team: %w", domain.ErrDuplicate)
	}
	stored.Name = team.Name
	stored.UpdatedAt = team.UpdatedAt
	r.s.teams[team.ID] = stored
	return nil
}

// Delete removes a team and everything it owns
func (r *TeamRepository) Delete(ctx context.Context, id int64) error {
	defer r.s.lockWrite(ctx)()

	delete(r.s.teams, id)
	for k, m := range r.s.memberships {
		if m.TeamID == id {
			delete(r.s.memberships, k)
		}
	}
	for k, inv := range r.s.invitations {
		if inv.TeamID == id {
			delete(r.s.invitations, k)
		}
	}
	for k, key := range r.s.apiKeys {
		if key.TeamID == id {
			delete(r.s.apiKeys, k)
		}
	}
	for k, res := range r.s.resources {
		if res.TeamID == id {
			delete(r.s.resources, k)
		}
	}
	return nil
}

func (r *TeamRepository) NameExists(_ context.Context, name string, excludeID int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.nameTaken(&name, excludeID), nil
}

// MembershipRepository stores memberships in memory
type MembershipRepository struct {
	s *Store
}

func (r *MembershipRepository) Create(ctx context.Context, m *domain.Membership) error {
	defer r.s.lockWrite(ctx)()

	for _, existing := range r.s.memberships {
		if existing.TeamID == m.TeamID && existing.UserID == m.UserID {
			return fmt.Errorf("failed to create membership: %w", domain.ErrDuplicate)
		}
	}

	m.ID = r.s.next("memberships")
	r.s.memberships[m.ID] = *m
	return nil
}

func (r *MembershipRepository) Get(_ context.Context, teamID, userID int64) (*domain.Membership, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, m := range r.s.memberships {
		if m.TeamID == teamID && m.UserID == userID {
			return &m, nil
		}
	}
	return nil, nil
}

func (r *MembershipRepository) Delete(ctx context.Context, teamID int64, userIDs []int64) (int64, error) {
	defer r.s.lockWrite(ctx)()

	remove := make(map[int64]bool, len(userIDs))
	for _, id := range userIDs {
		remove[id] = true
	}

	var n int64
	for k, m := range r.s.memberships {
		if m.TeamID == teamID && remove[m.UserID] {
			delete(r.s.memberships, k)
			n++
		}
	}
	return n, nil
}

func (r *MembershipRepository) ListByTeam(_ context.Context, teamID int64) ([]domain.MembershipView, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var teamName string
	if t, ok := r.s.teams[teamID]; ok && t.Name != nil {
		teamName = *t.Name
	}

	var views []domain.MembershipView
	for _, m := range r.s.memberships {
		if m.TeamID != teamID {
			continue
		}
		views = append(views, domain.MembershipView{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
			TeamName:  teamName,
			Username:  r.s.users[m.UserID].Username,
			Role:      m.Role,
		})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].ID < views[j].ID })
	return views, nil
}

func (r *MembershipRepository) TeamIDsForUser(_ context.Context, userID int64) ([]int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.teamIDsOf(userID), nil
}

func (r *MembershipRepository) TeamUUIDsForUser(_ context.Context, userID int64) ([]uuid.UUID, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var ids []uuid.UUID
	for _, teamID := range r.s.teamIDsOf(userID) {
		if t, ok := r.s.teams[teamID]; ok {
			ids = append(ids, t.UUID)
		}
	}
	return ids, nil
}
