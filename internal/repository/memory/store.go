// Package memory implements every repository over in-process maps. It backs
// database.driver=memory and the HTTP tests, and enforces the same unique
// constraints and cascades as the postgres schema.
package memory

import (
	"context"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Rrens/teamhub/internal/access"
	"github.com/Rrens/teamhub/internal/domain"
)

type txKey struct{}

// Store holds all tables
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	seq         map[string]int64
	users       map[int64]domain.User
	tokens      map[string]domain.Token
	teams       map[int64]domain.Team
	memberships map[int64]domain.Membership
	invitations map[int64]domain.Invitation
	apiKeys     map[int64]domain.APIKey
	resources   map[int64]domain.Resource
}

// New creates an empty store
func New() *Store {
	return &Store{
		seq:         make(map[string]int64),
		users:       make(map[int64]domain.User),
		tokens:      make(map[string]domain.Token),
		teams:       make(map[int64]domain.Team),
		memberships: make(map[int64]domain.Membership),
		invitations: make(map[int64]domain.Invitation),
		apiKeys:     make(map[int64]domain.APIKey),
		resources:   make(map[int64]domain.Resource),
	}
}

// NewStore wires every repository over a fresh in-memory store
func NewStore() *domain.Store {
	return New().Repositories()
}

// Repositories exposes the store through the domain interfaces
func (s *Store) Repositories() *domain.Store {
	return &domain.Store{
		Users:       &UserRepository{s: s},
		Tokens:      &TokenRepository{s: s},
		Teams:       &TeamRepository{s: s},
		Memberships: &MembershipRepository{s: s},
		Invitations: &InvitationRepository{s: s},
		APIKeys:     &APIKeyRepository{s: s},
		Resources:   &ResourceRepository{s: s},
		Tx:          s,
	}
}

func (s *Store) next(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

type snapshot struct {
	seq         map[string]int64
	users       map[int64]domain.User
	tokens      map[string]domain.Token
	teams       map[int64]domain.Team
	memberships map[int64]domain.Membership
	invitations map[int64]domain.Invitation
	apiKeys     map[int64]domain.APIKey
	resources   map[int64]domain.Resource
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{
		seq:         maps.Clone(s.seq),
		users:       maps.Clone(s.users),
		tokens:      maps.Clone(s.tokens),
		teams:       maps.Clone(s.teams),
		memberships: maps.Clone(s.memberships),
		invitations: maps.Clone(s.invitations),
		apiKeys:     maps.Clone(s.apiKeys),
		resources:   maps.Clone(s.resources),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq = snap.seq
	s.users = snap.users
	s.tokens = snap.tokens
	s.teams = snap.teams
	s.memberships = snap.memberships
	s.invitations = snap.invitations
	s.apiKeys = snap.apiKeys
	s.resources = snap.resources
}

// inTx reports whether ctx belongs to a transaction of this store
func (s *Store) inTx(ctx context.Context) bool {
	return ctx.Value(txKey{}) == s
}

// lockWrite takes the write lock and returns its release. Outside a
// transaction it also waits for the running transaction, so a rollback only
// ever discards that transaction's own writes.
func (s *Store) lockWrite(ctx context.Context) func() {
	if s.inTx(ctx) {
		s.mu.Lock()
		return s.mu.Unlock
	}
	s.txMu.Lock()
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		s.txMu.Unlock()
	}
}

// RunInTx serializes transactions and every write made outside one, and
// restores the pre-transaction tables when fn fails or panics. Reads are not
// blocked and may observe uncommitted writes.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	defer func() {
		if p := recover(); p != nil {
			s.restore(snap)
			panic(p)
		} else if err != nil {
			s.restore(snap)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, s))
}

// teamIDsOf returns the teams userID belongs to. Callers hold s.mu.
func (s *Store) teamIDsOf(userID int64) []int64 {
	var ids []int64
	for _, m := range s.memberships {
		if m.UserID == userID {
			ids = append(ids, m.TeamID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// resolve replaces membership snapshots in cond with the stored memberships
// so the memory store answers like the postgres subqueries. Callers hold s.mu.
func (s *Store) resolve(cond access.Cond) access.Cond {
	switch c := cond.(type) {
	case access.MemberOf:
		return access.MemberOf{UserID: c.UserID, TeamIDs: s.teamIDsOf(c.UserID)}
	case access.AnyOf:
		out := make(access.AnyOf, len(c))
		for i, sub := range c {
			out[i] = s.resolve(sub)
		}
		return out
	case access.AllOf:
		out := make(access.AllOf, len(c))
		for i, sub := range c {
			out[i] = s.resolve(sub)
		}
		return out
	case nil:
		return access.Nothing{}
	default:
		return cond
	}
}

// newestFirst orders rows like the postgres listings: created DESC, id DESC
func newestFirst[T any](items []T, created func(T) time.Time, id func(T) int64) {
	sort.Slice(items, func(i, j int) bool {
		ci, cj := created(items[i]), created(items[j])
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return id(items[i]) > id(items[j])
	})
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
