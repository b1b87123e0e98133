package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/example/task-tracker/config"
	"github.com/golang-jwt/jwt/v5"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		SecretKey:            "test-secret-key",
		Algorithm:            "HS256",
		AccessTokenDuration:  30 * time.Minute,
		RefreshTokenDuration: 7 * 24 * time.Hour,
	}
}

func TestTokenService_IssueAndValidate(t *testing.T) {
	svc := NewTokenService(testJWTConfig())

	for _, class := range []TokenClass{AccessToken, RefreshToken} {
		t.Run(string(class), func(t *testing.T) {
			token, err := svc.Issue(42, class, time.Minute)
			if err != nil {
				t.Fatalf("Issue() error = %v", err)
			}
			if token == "" {
				t.Fatal("Issue() returned empty token")
			}

			subject, err := svc.Validate(token, class)
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if subject != 42 {
				t.Errorf("subject = %d, want 42", subject)
			}
		})
	}
}

func TestTokenService_ClaimsCarrySubjectAsString(t *testing.T) {
	svc := NewTokenService(testJWTConfig())

	token, err := svc.Issue(7, AccessToken, time.Minute)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		t.Fatalf("ParseUnverified() error = %v", err)
	}
	if sub, ok := claims["sub"].(string); !ok || sub != "7" {
		t.Errorf("sub = %#v, want \"7\"", claims["sub"])
	}
	if claims["type"] != "access" {
		t.Errorf("type = %#v, want \"access\"", claims["type"])
	}
	if _, ok := claims["exp"]; !ok {
		t.Error("exp claim missing")
	}
}

func TestTokenService_WrongClass(t *testing.T) {
	svc := NewTokenService(testJWTConfig())

	tests := []struct {
		name     string
		issued   TokenClass
		expected TokenClass
		message  string
	}{
		{"refresh presented as access", RefreshToken, AccessToken, "Not an access token"},
		{"access presented as refresh", AccessToken, RefreshToken, "Not a refresh token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := svc.Issue(1, tt.issued, time.Minute)
			if err != nil {
				t.Fatalf("Issue() error = %v", err)
			}

			_, err = svc.Validate(token, tt.expected)
			if !errors.Is(err, ErrWrongTokenClass) {
				t.Fatalf("Validate() error = %v, want ErrWrongTokenClass", err)
			}
			if err.Error() != tt.message {
				t.Errorf("message = %q, want %q", err.Error(), tt.message)
			}
		})
	}
}

func TestTokenService_Expired(t *testing.T) {
	svc := NewTokenService(testJWTConfig())
	issuedAt := time.Now().Add(-time.Hour)
	svc.now = func() time.Time { return issuedAt }

	token, err := svc.Issue(1, AccessToken, time.Minute)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	svc.now = time.Now
	_, err = svc.Validate(token, AccessToken)
	if !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("Validate() error = %v, want ErrExpiredToken", err)
	}
	if err.Error() != "Token has expired" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestTokenService_InvalidSignature(t *testing.T) {
	svc := NewTokenService(testJWTConfig())

	other := testJWTConfig()
	other.SecretKey = "another-secret"
	token, err := NewTokenService(other).Issue(1, AccessToken, time.Minute)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if _, err := svc.Validate(token, AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Validate() error = %v, want ErrInvalidToken", err)
	}
}

func TestTokenService_Malformed(t *testing.T) {
	svc := NewTokenService(testJWTConfig())

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := svc.Validate(token, AccessToken); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Validate(%q) error = %v, want ErrInvalidToken", token, err)
		}
	}
}

func TestTokenService_RejectsOtherAlgorithm(t *testing.T) {
	svc := NewTokenService(testJWTConfig())

	claims := tokenClaims{
		Type: AccessToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret-key"))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	if _, err := svc.Validate(token, AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Validate() error = %v, want ErrInvalidToken", err)
	}
}

func TestTokenService_BadSubject(t *testing.T) {
	svc := NewTokenService(testJWTConfig())

	claims := tokenClaims{
		Type: AccessToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret-key"))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	_, err = svc.Validate(token, AccessToken)
	if !errors.Is(err, ErrInvalidToken) || err.Error() != "Invalid token payload" {
		t.Errorf("Validate() error = %v, want invalid payload", err)
	}
}

func TestTokenService_IssuePair(t *testing.T) {
	svc := NewTokenService(testJWTConfig())

	pair, err := svc.IssuePair(9)
	if err != nil {
		t.Fatalf("IssuePair() error = %v", err)
	}
	if pair.TokenType != "bearer" {
		t.Errorf("TokenType = %q, want bearer", pair.TokenType)
	}
	if pair.ExpiresIn != 1800 {
		t.Errorf("ExpiresIn = %d, want 1800", pair.ExpiresIn)
	}
	if _, err := svc.Validate(pair.AccessToken, AccessToken); err != nil {
		t.Errorf("access token invalid: %v", err)
	}
	if _, err := svc.Validate(pair.RefreshToken, RefreshToken); err != nil {
		t.Errorf("refresh token invalid: %v", err)
	}
}
