package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/example/task-tracker/config"
	"github.com/example/task-tracker/domain/user"
	"github.com/golang-jwt/jwt/v5"
)

// TokenClass distinguishes short-lived access tokens from refresh tokens.
type TokenClass string

const (
	AccessToken  TokenClass = "access"
	RefreshToken TokenClass = "refresh"
)

var (
	// ErrInvalidToken is returned when the token is malformed or badly signed.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("token has expired")
	// ErrWrongTokenClass is returned when a token of the other class is presented.
	ErrWrongTokenClass = errors.New("wrong token type")
)

// TokenError is returned by Validate for every rejected token. It wraps one
// of ErrInvalidToken, ErrExpiredToken or ErrWrongTokenClass.
type TokenError struct {
	Err     error
	Message string
}

func (e *TokenError) Error() string {
	return e.Message
}

func (e *TokenError) Unwrap() error {
	return e.Err
}

// tokenClaims is the JWT payload: sub, exp, iat and the token class.
type tokenClaims struct {
	Type TokenClass `json:"type"`
	jwt.RegisteredClaims
}

// TokenService issues and validates signed session tokens. It holds no
// state besides its configuration and is safe for concurrent use.
type TokenService struct {
	config config.JWTConfig
	method jwt.SigningMethod
	now    func() time.Time
}

// NewTokenService creates a TokenService. The configuration must already be
// validated (see config.Config.Validate).
func NewTokenService(cfg config.JWTConfig) *TokenService {
	method := jwt.GetSigningMethod(cfg.Algorithm)
	if method == nil {
		method = jwt.SigningMethodHS256
	}
	return &TokenService{
		config: cfg,
		method: method,
		now:    time.Now,
	}
}

// Issue creates a signed token for subject that expires after ttl.
func (s *TokenService) Issue(subject uint, class TokenClass, ttl time.Duration) (string, error) {
	now := s.now()
	claims := tokenClaims{
		Type: class,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(subject), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(s.method, claims)
	signed, err := token.SignedString([]byte(s.config.SecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", class, err)
	}
	return signed, nil
}

// IssuePair creates an access and a refresh token for subject using the
// configured lifetimes.
func (s *TokenService) IssuePair(subject uint) (*user.TokenPair, error) {
	access, err := s.Issue(subject, AccessToken, s.config.AccessTokenDuration)
	if err != nil {
		return nil, err
	}
	refresh, err := s.Issue(subject, RefreshToken, s.config.RefreshTokenDuration)
	if err != nil {
		return nil, err
	}
	return &user.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(s.config.AccessTokenDuration.Seconds()),
	}, nil
}

// Validate checks the signature, expiry and class of token and returns its
// subject. Any failure is a *TokenError.
func (s *TokenService) Validate(tokenString string, expected TokenClass) (uint, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)

	var claims tokenClaims
	token, err := parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return []byte(s.config.SecretKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, &TokenError{Err: ErrExpiredToken, Message: "Token has expired"}
		}
		return 0, &TokenError{Err: ErrInvalidToken, Message: "Invalid token"}
	}
	if !token.Valid {
		return 0, &TokenError{Err: ErrInvalidToken, Message: "Invalid token"}
	}

	if claims.Type != expected {
		msg := "Not a refresh token"
		if expected == AccessToken {
			msg = "Not an access token"
		}
		return 0, &TokenError{Err: ErrWrongTokenClass, Message: msg}
	}

	subject, err := strconv.ParseUint(claims.Subject, 10, strconv.IntSize)
	if err != nil || subject == 0 {
		return 0, &TokenError{Err: ErrInvalidToken, Message: "Invalid token payload"}
	}
	return uint(subject), nil
}

// AccessTokenDuration returns the access token lifetime in seconds.
func (s *TokenService) AccessTokenDuration() int64 {
	return int64(s.config.AccessTokenDuration.Seconds())
}
