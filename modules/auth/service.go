package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/task-tracker/domain/apperr"
	domain "github.com/example/task-tracker/domain/user"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/go-playground/validator/v10"
)

const (
	minPasswordLength = 8
	maxFullNameLength = 255

	msgInvalidCredentials = "Invalid email or password"
	msgUserNotFound       = "User not found"
	msgUserInactive       = "User account is inactive"
)

var validate = validator.New()

// RegisterInput is the data needed to create an account.
type RegisterInput struct {
	Email    string
	Password string
	FullName *string
}

// AuthService handles authentication business logic.
type AuthService struct {
	repo   *UserRepository
	hasher *PasswordHasher
	tokens *TokenService
	logger types.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo *UserRepository, hasher *PasswordHasher, tokens *TokenService, logger types.Logger) *AuthService {
	return &AuthService{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
	}
}

// Register creates a new active account and returns its first token pair.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, *domain.TokenPair, error) {
	email := normalizeEmail(in.Email)
	if fields := validateRegistration(email, in.Password, in.FullName); len(fields) > 0 {
		return nil, nil, apperr.Validation("", fields...)
	}

	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if exists {
		return nil, nil, conflictEmail(email)
	}

	passwordHash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: passwordHash,
		FullName:     in.FullName,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrUserExists) {
			return nil, nil, conflictEmail(email)
		}
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	tokens, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("User registered", "user_id", user.ID)
	return user, tokens, nil
}

// Login verifies credentials and returns a token pair. Unknown emails, wrong
// passwords and inactive accounts are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, *domain.TokenPair, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil, apperr.Unauthorized(msgInvalidCredentials)
		}
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) || !user.IsActive {
		s.logger.Warn("Login rejected", "user_id", user.ID, "active", user.IsActive)
		return nil, nil, apperr.Unauthorized(msgInvalidCredentials)
	}

	tokens, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

// Refresh exchanges a refresh token for a new pair. The subject must still
// exist and be active; a cryptographically valid token is not enough.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	user, err := s.resolve(ctx, refreshToken, RefreshToken)
	if err != nil {
		return nil, err
	}
	return s.tokens.IssuePair(user.ID)
}

// Authenticate resolves an access token to the active identity behind it.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*domain.User, error) {
	return s.resolve(ctx, accessToken, AccessToken)
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, userID uint) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperr.NotFound("User", userID)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// resolve validates a token of the given class and re-loads its subject.
func (s *AuthService) resolve(ctx context.Context, token string, class TokenClass) (*domain.User, error) {
	subject, err := s.tokens.Validate(token, class)
	if err != nil {
		var tokenErr *TokenError
		if errors.As(err, &tokenErr) {
			return nil, apperr.Unauthorized(tokenErr.Message)
		}
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperr.Unauthorized(msgUserNotFound)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !user.IsActive {
		return nil, apperr.Unauthorized(msgUserInactive)
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func conflictEmail(email string) *apperr.Error {
	return apperr.Conflict(fmt.Sprintf("User with email '%s' already exists", email))
}

func validateRegistration(email, password string, fullName *string) []apperr.FieldError {
	var fields []apperr.FieldError
	if err := validate.Var(email, "required,email"); err != nil {
		fields = append(fields, apperr.FieldError{Field: "email", Message: "invalid email format"})
	}
	switch {
	case len(password) < minPasswordLength:
		fields = append(fields, apperr.FieldError{
			Field:   "password",
			Message: fmt.Sprintf("password must be at least %d characters", minPasswordLength),
		})
	case len(password) > MaxPasswordBytes:
		fields = append(fields, apperr.FieldError{
			Field:   "password",
			Message: fmt.Sprintf("password must be at most %d characters", MaxPasswordBytes),
		})
	}
	if fullName != nil && len(*fullName) > maxFullNameLength {
		fields = append(fields, apperr.FieldError{
			Field:   "full_name",
			Message: fmt.Sprintf("full_name must be at most %d characters", maxFullNameLength),
		})
	}
	return fields
}
