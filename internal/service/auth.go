package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rrens/teamhub/internal/access"
	"github.com/Rrens/teamhub/internal/config"
	"github.com/Rrens/teamhub/internal/domain"
	"github.com/Rrens/teamhub/internal/pkg/apperr"
	"github.com/Rrens/teamhub/internal/security"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const (
	msgBadCredentials  = "Unable to log in with provided credentials."
	msgInvalidToken    = "Invalid token."
	msgTokenExpired    = "Token has expired"
	msgUserInactive    = "User inactive or deleted."
	msgInvalidAPIKey   = "Invalid API key."
	msgAPIKeyRevoked   = "API key has been revoked."
	msgAPIKeyExpired   = "API key has expired."
	msgEmailTaken      = "user with this email already exists."
	msgUsernameTaken   = "A user with that username already exists."
	msgPasswordsDiffer = "Password fields didn't match."
)

// AuthService handles registration, login and request authentication
type AuthService struct {
	userRepo       domain.UserRepository
	tokenRepo      domain.TokenRepository
	membershipRepo domain.MembershipRepository
	apiKeyRepo     domain.APIKeyRepository
	hasher         *security.APIKeyHasher
	clock          clockwork.Clock
	tokenTTL       time.Duration
	minPassword    int
}

// NewAuthService creates a new auth service
func NewAuthService(store *domain.Store, cfg config.AuthConfig, hasher *security.APIKeyHasher, clock clockwork.Clock) *AuthService {
	return &AuthService{
		userRepo:       store.Users,
		tokenRepo:      store.Tokens,
		membershipRepo: store.Memberships,
		apiKeyRepo:     store.APIKeys,
		hasher:         hasher,
		clock:          clock,
		tokenTTL:       cfg.TokenTTL(),
		minPassword:    cfg.PasswordMinLength,
	}
}

// Register creates a regular user account
func (s *AuthService) Register(ctx context.Context, input domain.UserCreate) (*domain.UserView, error) {
	if input.Password != input.Password2 {
		return nil, apperr.FieldValidation("password", msgPasswordsDiffer)
	}

	user, err := s.createUser(ctx, input, false)
	if err != nil {
		return nil, err
	}

	view := domain.NewUserView(user, nil)
	return &view, nil
}

// CreateSuperuser creates an account that bypasses the team rules
func (s *AuthService) CreateSuperuser(ctx context.Context, username, email, password string) (*domain.User, error) {
	return s.createUser(ctx, domain.UserCreate{
		Username:  username,
		Password:  password,
		Password2: password,
		Email:     email,
	}, true)
}

func (s *AuthService) createUser(ctx context.Context, input domain.UserCreate, superuser bool) (*domain.User, error) {
	var fieldErrs []apperr.FieldError

	for _, problem := range security.ValidatePassword(input.Password, s.minPassword) {
		fieldErrs = append(fieldErrs, apperr.FieldError{Field: "password", Message: problem})
	}

	exists, err := s.userRepo.EmailExists(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		fieldErrs = append(fieldErrs, apperr.FieldError{Field: "email", Message: msgEmailTaken})
	}

	exists, err = s.userRepo.UsernameExists(ctx, input.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		fieldErrs = append(fieldErrs, apperr.FieldError{Field: "username", Message: msgUsernameTaken})
	}

	if len(fieldErrs) > 0 {
		return nil, apperr.Validation(fieldErrs[0].Message).WithFieldErrors(fieldErrs)
	}

	hashed, err := security.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	user := &domain.User{
		Username:     input.Username,
		Email:        input.Email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: hashed,
		IsSuperuser:  superuser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateEmail):
			return nil, apperr.FieldValidation("email", msgEmailTaken)
		case errors.Is(err, domain.ErrDuplicate):
			return nil, apperr.FieldValidation("username", msgUsernameTaken)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Info().Int64("user_id", user.ID).Str("username", user.Username).Bool("superuser", superuser).Msg("user registered")
	return user, nil
}

// Login checks credentials and returns the user's bearer token. An expired
// token is replaced by a fresh one.
func (s *AuthService) Login(ctx context.Context, input domain.UserLogin) (*domain.LoginResult, error) {
	user, err := s.userRepo.GetByUsername(ctx, input.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !user.IsActive || !security.CheckPassword(user.PasswordHash, input.Password) {
		return nil, apperr.Validation(msgBadCredentials)
	}

	token, err := s.issueToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	teams, err := s.membershipRepo.TeamUUIDsForUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user teams: %w", err)
	}

	return &domain.LoginResult{
		Token: token.Key,
		User:  domain.NewUserView(user, teams),
	}, nil
}

// issueToken gets or creates the user's token, replacing it when expired
func (s *AuthService) issueToken(ctx context.Context, userID int64) (*domain.Token, error) {
	now := s.clock.Now().UTC()

	existing, err := s.tokenRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	if existing != nil {
		if !existing.Expired(now, s.tokenTTL) {
			return existing, nil
		}
		if err := s.tokenRepo.Delete(ctx, existing.Key); err != nil {
			return nil, fmt.Errorf("failed to delete expired token: %w", err)
		}
		log.Debug().Int64("user_id", userID).Msg("expired token replaced")
	}

	key, err := security.GenerateTokenKey()
	if err != nil {
		return nil, err
	}
	token := &domain.Token{Key: key, UserID: userID, CreatedAt: now}

	if err := s.tokenRepo.Create(ctx, token); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			// a concurrent login won
			winner, getErr := s.tokenRepo.GetByUserID(ctx, userID)
			if getErr == nil && winner != nil {
				return winner, nil
			}
		}
		return nil, fmt.Errorf("failed to create token: %w", err)
	}

	return token, nil
}

// AuthenticateToken resolves a bearer token key to a principal. Expired
// tokens are deleted.
func (s *AuthService) AuthenticateToken(ctx context.Context, key string) (*access.Principal, error) {
	token, err := s.tokenRepo.GetByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	if token == nil {
		return nil, apperr.Unauthorized(msgInvalidToken)
	}

	if token.Expired(s.clock.Now().UTC(), s.tokenTTL) {
		if err := s.tokenRepo.Delete(ctx, token.Key); err != nil {
			return nil, fmt.Errorf("failed to delete expired token: %w", err)
		}
		return nil, apperr.Unauthorized(msgTokenExpired)
	}

	return s.principalFor(ctx, token.UserID)
}

// AuthenticateAPIKey resolves a presented <prefix>.<secret> key to the
// principal of its provisioned account
func (s *AuthService) AuthenticateAPIKey(ctx context.Context, raw string) (*access.Principal, error) {
	prefix, secret, err := security.SplitAPIKey(raw)
	if err != nil {
		return nil, apperr.Unauthorized(msgInvalidAPIKey)
	}

	key, err := s.apiKeyRepo.GetByPrefix(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to get api key: %w", err)
	}
	if key == nil || !s.hasher.Verify(key.HashedKey, secret) {
		return nil, apperr.Unauthorized(msgInvalidAPIKey)
	}
	if key.Revoked {
		return nil, apperr.Unauthorized(msgAPIKeyRevoked)
	}
	if key.Expired(s.clock.Now().UTC()) {
		return nil, apperr.Unauthorized(msgAPIKeyExpired)
	}

	return s.principalFor(ctx, key.UserID)
}

func (s *AuthService) principalFor(ctx context.Context, userID int64) (*access.Principal, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !user.IsActive {
		return nil, apperr.Unauthorized(msgUserInactive)
	}

	teamIDs, err := s.membershipRepo.TeamIDsForUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user teams: %w", err)
	}

	return &access.Principal{
		UserID:      user.ID,
		Username:    user.Username,
		Email:       user.Email,
		IsSuperuser: user.IsSuperuser,
		TeamIDs:     teamIDs,
	}, nil
}
