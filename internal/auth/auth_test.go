package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

func TestUserID_ValidToken(t *testing.T) {
	v := NewVerifier("secreto", "authenticated")
	token := signToken(t, "secreto", jwt.MapClaims{
		"sub": "user-123",
		"aud": "authenticated",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	got, err := v.UserID("Bearer " + token)
	if err != nil {
		t.Fatalf("verification failed: %v", err)
	}
	if got != "user-123" {
		t.Errorf("expected user-123, got %q", got)
	}
}

func TestUserID_BareTokenWithoutPrefix(t *testing.T) {
	v := NewVerifier("secreto", "authenticated")
	token := signToken(t, "secreto", jwt.MapClaims{
		"sub": "user-123",
		"aud": "authenticated",
	})

	if _, err := v.UserID(token); err != nil {
		t.Errorf("bare token should verify too: %v", err)
	}
}

func TestUserID_Failures(t *testing.T) {
	v := NewVerifier("secreto", "authenticated")

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "Bearer no.es.jwt"},
		{"wrong secret", signToken(t, "otro", jwt.MapClaims{"sub": "u", "aud": "authenticated"})},
		{"wrong audience", signToken(t, "secreto", jwt.MapClaims{"sub": "u", "aud": "anon"})},
		{"missing subject", signToken(t, "secreto", jwt.MapClaims{"aud": "authenticated"})},
		{"expired", signToken(t, "secreto", jwt.MapClaims{
			"sub": "u", "aud": "authenticated", "exp": time.Now().Add(-time.Hour).Unix(),
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := v.UserID(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}
