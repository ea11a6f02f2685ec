package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Rrens/teamhub/internal/access"
	"github.com/Rrens/teamhub/internal/domain"
	"github.com/Rrens/teamhub/internal/pkg/apperr"
	"github.com/Rrens/teamhub/internal/security"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const (
	msgAPIKeyNameUnique     = "The fields name, team must make a unique set."
	msgAPIKeyUsernameUnique = "name must be unique for username"
)

// APIKeyService issues team API keys. Every key is backed by a provisioned
// account holding a CONFIGURATION membership in the key's team.
type APIKeyService struct {
	apiKeyRepo     domain.APIKeyRepository
	teamRepo       domain.TeamRepository
	userRepo       domain.UserRepository
	membershipRepo domain.MembershipRepository
	tx             domain.TxManager
	hasher         *security.APIKeyHasher
	clock          clockwork.Clock
	emailDomain    string
}

// NewAPIKeyService creates a new API key service
func NewAPIKeyService(store *domain.Store, hasher *security.APIKeyHasher, clock clockwork.Clock, emailDomain string) *APIKeyService {
	return &APIKeyService{
		apiKeyRepo:     store.APIKeys,
		teamRepo:       store.Teams,
		userRepo:       store.Users,
		membershipRepo: store.Memberships,
		tx:             store.Tx,
		hasher:         hasher,
		clock:          clock,
		emailDomain:    emailDomain,
	}
}

// List returns the keys of the principal's teams
func (s *APIKeyService) List(ctx context.Context, p access.Principal, filter domain.APIKeyFilter, page domain.PageRequest) (domain.Page[domain.APIKey], error) {
	keys, count, err := s.apiKeyRepo.List(ctx, access.APIKeys(p), filter, page)
	if err != nil {
		return domain.Page[domain.APIKey]{}, fmt.Errorf("failed to list api keys: %w", err)
	}
	return domain.NewPage(keys, count), nil
}

// Get returns one key
func (s *APIKeyService) Get(ctx context.Context, p access.Principal, id uuid.UUID) (*domain.APIKey, error) {
	key, err := s.apiKeyRepo.GetByUUID(ctx, id, access.APIKeys(p))
	if err != nil {
		return nil, fmt.Errorf("failed to get api key: %w", err)
	}
	if key == nil {
		return nil, apperr.NotFound("")
	}
	return key, nil
}

// ProvisionedUsername derives the account name of a key: the key name and
// the first eight hex digits of its team
func ProvisionedUsername(name string, team uuid.UUID) string {
	return name + "." + strings.ReplaceAll(team.String(), "-", "")[:8]
}

// Create issues a key. The plaintext key is set on the result and never
// stored.
func (s *APIKeyService) Create(ctx context.Context, p access.Principal, input domain.APIKeyCreate) (*domain.APIKey, error) {
	team, err := s.teamRepo.GetByUUID(ctx, input.Team, access.Everything{})
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	if team == nil {
		return nil, invalidPK("team", input.Team)
	}
	if !access.CanAccessTeam(p, team) {
		return nil, apperr.Forbidden("")
	}

	exists, err := s.apiKeyRepo.NameExistsInTeam(ctx, team.ID, input.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to check api key name: %w", err)
	}
	if exists {
		return nil, apperr.Validation(msgAPIKeyNameUnique)
	}

	username := ProvisionedUsername(input.Name, team.UUID)
	exists, err = s.userRepo.UsernameExists(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return nil, apperr.FieldValidation("name", msgAPIKeyUsernameUnique)
	}

	generated, err := s.hasher.Generate()
	if err != nil {
		return nil, err
	}
	unusable, err := security.GenerateTokenKey()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	key := &domain.APIKey{
		UUID:      uuid.New(),
		Name:      input.Name,
		Prefix:    generated.Prefix,
		HashedKey: generated.HashedKey,
		TeamID:    team.ID,
		TeamUUID:  team.UUID,
		CreatedAt: now,
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		// the password hash is not a bcrypt hash, so no password ever matches
		user := &domain.User{
			Username:     username,
			Email:        username + "@" + s.emailDomain,
			PasswordHash: "!" + unusable,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			if isDuplicate(err) {
				return apperr.FieldValidation("name", msgAPIKeyUsernameUnique)
			}
			return fmt.Errorf("failed to create key account: %w", err)
		}

		membership := &domain.Membership{
			TeamID:    team.ID,
			UserID:    user.ID,
			Role:      domain.RoleConfiguration,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.membershipRepo.Create(ctx, membership); err != nil {
			return fmt.Errorf("failed to add key account to team: %w", err)
		}

		key.UserID = user.ID
		if err := s.apiKeyRepo.Create(ctx, key); err != nil {
			if isDuplicate(err) {
				return apperr.Validation(msgAPIKeyNameUnique)
			}
			return fmt.Errorf("failed to create api key: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("api_key", key.UUID.String()).Str("team", team.UUID.String()).Str("username", username).Int64("created_by", p.UserID).Msg("api key provisioned")

	key.Key = generated.Key
	return key, nil
}

// Delete removes a key. Requests presenting it fail from then on; the
// provisioned account stays.
func (s *APIKeyService) Delete(ctx context.Context, p access.Principal, id uuid.UUID) error {
	key, err := s.Get(ctx, p, id)
	if err != nil {
		return err
	}
	if err := s.apiKeyRepo.Delete(ctx, key.ID); err != nil {
		return fmt.Errorf("failed to delete api key: %w", err)
	}
	log.Info().Str("api_key", key.UUID.String()).Int64("user_id", p.UserID).Msg("api key deleted")
	return nil
}
