package auth

import (
	"time"

	"github.com/example/task-tracker/domain/apperr"
	domain "github.com/example/task-tracker/domain/user"
)

// Service names registered by the auth module.
const (
	ServiceRegister     = "register"
	ServiceLogin        = "login"
	ServiceRefreshToken = "refresh-token"
	ServiceAuthenticate = "authenticate"
	ServiceGetUser      = "get-user"
)

// Every response carries domain failures in Error; a transport error means
// something unexpected happened.

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	FullName *string `json:"full_name,omitempty"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries a token pair for register, login and refresh.
type TokenResponse struct {
	UserID uint              `json:"user_id,omitempty"`
	Tokens *domain.TokenPair `json:"tokens,omitempty"`
	Error  *apperr.Error     `json:"error,omitempty"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// AuthenticateRequest asks for the identity behind an access token.
type AuthenticateRequest struct {
	Token string `json:"token"`
}

// UserResponse carries an identity.
type UserResponse struct {
	User  *UserInfo     `json:"user,omitempty"`
	Error *apperr.Error `json:"error,omitempty"`
}

// GetUserRequest represents a get user request.
type GetUserRequest struct {
	UserID uint `json:"user_id"`
}

// UserInfo is the public view of a user.
type UserInfo struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	FullName  *string   `json:"full_name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserInfo(u *domain.User) *UserInfo {
	return &UserInfo{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}
