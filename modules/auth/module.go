package auth

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/task-tracker/config"
	"github.com/example/task-tracker/database"
	"github.com/example/task-tracker/domain/apperr"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/gorm"
)

// AuthModule provides the credential store and the token service.
type AuthModule struct {
	db      *gorm.DB
	jwt     config.JWTConfig
	hasher  *PasswordHasher
	service *AuthService
	logger  types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*AuthModule)(nil)
var _ mono.ServiceProviderModule = (*AuthModule)(nil)
var _ mono.HealthCheckableModule = (*AuthModule)(nil)

// Option configures an AuthModule.
type Option func(*AuthModule)

// WithPasswordHasher overrides the bcrypt hasher (tests use a low cost).
func WithPasswordHasher(h *PasswordHasher) Option {
	return func(m *AuthModule) { m.hasher = h }
}

// NewModule creates a new AuthModule over the shared database.
func NewModule(db *gorm.DB, jwtConfig config.JWTConfig, logger types.Logger, opts ...Option) *AuthModule {
	m := &AuthModule{
		db:     db,
		jwt:    jwtConfig,
		hasher: NewPasswordHasher(),
		logger: logger.WithModule("auth"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns the module name.
func (m *AuthModule) Name() string {
	return "auth"
}

// Start wires the repository, hasher and token service.
func (m *AuthModule) Start(_ context.Context) error {
	if m.db == nil {
		return fmt.Errorf("auth: database not set")
	}
	m.service = NewAuthService(NewUserRepository(m.db), m.hasher, NewTokenService(m.jwt), m.logger)

	m.logger.Info("Module started",
		"algorithm", m.jwt.Algorithm,
		"access_ttl", m.jwt.AccessTokenDuration,
		"refresh_ttl", m.jwt.RefreshTokenDuration)
	return nil
}

// Stop shuts down the module. The database is owned by main.
func (m *AuthModule) Stop(_ context.Context) error {
	m.logger.Info("Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *AuthModule) Health(ctx context.Context) mono.HealthStatus {
	if err := database.Ping(ctx, m.db); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"algorithm": m.jwt.Algorithm,
		},
	}
}

// Service returns the auth service once the module has started.
func (m *AuthModule) Service() *AuthService {
	return m.service
}

// RegisterServices registers request-reply services in the service container.
func (m *AuthModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceRegister, json.Unmarshal, json.Marshal, m.handleRegister,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceRegister, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceLogin, json.Unmarshal, json.Marshal, m.handleLogin,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceLogin, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceRefreshToken, json.Unmarshal, json.Marshal, m.handleRefresh,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceRefreshToken, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceAuthenticate, json.Unmarshal, json.Marshal, m.handleAuthenticate,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceAuthenticate, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGetUser, json.Unmarshal, json.Marshal, m.handleGetUser,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetUser, err)
	}

	m.logger.Info("Registered services",
		"services", []string{ServiceRegister, ServiceLogin, ServiceRefreshToken, ServiceAuthenticate, ServiceGetUser})
	return nil
}

func (m *AuthModule) handleRegister(ctx context.Context, req RegisterRequest, _ *mono.Msg) (TokenResponse, error) {
	user, tokens, err := m.service.Register(ctx, RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		appErr, err := apperr.Split(err)
		return TokenResponse{Error: appErr}, err
	}
	return TokenResponse{UserID: user.ID, Tokens: tokens}, nil
}

func (m *AuthModule) handleLogin(ctx context.Context, req LoginRequest, _ *mono.Msg) (TokenResponse, error) {
	user, tokens, err := m.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		appErr, err := apperr.Split(err)
		return TokenResponse{Error: appErr}, err
	}
	return TokenResponse{UserID: user.ID, Tokens: tokens}, nil
}

func (m *AuthModule) handleRefresh(ctx context.Context, req RefreshRequest, _ *mono.Msg) (TokenResponse, error) {
	tokens, err := m.service.Refresh(ctx, req.RefreshToken)
	if err != nil {
		appErr, err := apperr.Split(err)
		return TokenResponse{Error: appErr}, err
	}
	return TokenResponse{Tokens: tokens}, nil
}

func (m *AuthModule) handleAuthenticate(ctx context.Context, req AuthenticateRequest, _ *mono.Msg) (UserResponse, error) {
	user, err := m.service.Authenticate(ctx, req.Token)
	if err != nil {
		appErr, err := apperr.Split(err)
		return UserResponse{Error: appErr}, err
	}
	return UserResponse{User: toUserInfo(user)}, nil
}

func (m *AuthModule) handleGetUser(ctx context.Context, req GetUserRequest, _ *mono.Msg) (UserResponse, error) {
	user, err := m.service.GetUser(ctx, req.UserID)
	if err != nil {
		appErr, err := apperr.Split(err)
		return UserResponse{Error: appErr}, err
	}
	return UserResponse{User: toUserInfo(user)}, nil
}
