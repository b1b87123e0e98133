package auth

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/task-tracker/domain/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// AuthPort defines the interface other modules use to reach the auth module.
// Domain failures come back as *apperr.Error.
type AuthPort interface {
	Register(ctx context.Context, req RegisterRequest) (*domain.TokenPair, error)
	Login(ctx context.Context, email, password string) (*domain.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	Authenticate(ctx context.Context, accessToken string) (*UserInfo, error)
	GetUser(ctx context.Context, userID uint) (*UserInfo, error)
}

// AuthAdapter implements AuthPort using the service container.
type AuthAdapter struct {
	container mono.ServiceContainer
}

var _ AuthPort = (*AuthAdapter)(nil)

// NewAuthAdapter creates a new AuthAdapter.
func NewAuthAdapter(container mono.ServiceContainer) *AuthAdapter {
	return &AuthAdapter{container: container}
}

// Register creates an account and returns its first token pair.
func (a *AuthAdapter) Register(ctx context.Context, req RegisterRequest) (*domain.TokenPair, error) {
	var resp TokenResponse
	if err := call(ctx, a.container, ServiceRegister, &req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp.Tokens, nil
}

// Login exchanges credentials for a token pair.
func (a *AuthAdapter) Login(ctx context.Context, email, password string) (*domain.TokenPair, error) {
	req := LoginRequest{Email: email, Password: password}
	var resp TokenResponse
	if err := call(ctx, a.container, ServiceLogin, &req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp.Tokens, nil
}

// Refresh exchanges a refresh token for a new pair.
func (a *AuthAdapter) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	req := RefreshRequest{RefreshToken: refreshToken}
	var resp TokenResponse
	if err := call(ctx, a.container, ServiceRefreshToken, &req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp.Tokens, nil
}

// Authenticate resolves an access token to an active identity.
func (a *AuthAdapter) Authenticate(ctx context.Context, accessToken string) (*UserInfo, error) {
	req := AuthenticateRequest{Token: accessToken}
	var resp UserResponse
	if err := call(ctx, a.container, ServiceAuthenticate, &req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp.User, nil
}

// GetUser retrieves a user by ID.
func (a *AuthAdapter) GetUser(ctx context.Context, userID uint) (*UserInfo, error) {
	req := GetUserRequest{UserID: userID}
	var resp UserResponse
	if err := call(ctx, a.container, ServiceGetUser, &req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp.User, nil
}

func call[Req, Resp any](ctx context.Context, container mono.ServiceContainer, service string, req *Req, resp *Resp) error {
	if err := helper.CallRequestReplyService(
		ctx,
		container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return fmt.Errorf("%s request failed: %w", service, err)
	}
	return nil
}
