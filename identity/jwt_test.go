package identity

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

func TestJWTProviderValidateSession(t *testing.T) {
	provider := NewJWTProvider("test-secret")
	ctx := context.Background()

	token := signToken(t, "test-secret", jwt.MapClaims{
		"sub":    "user-1",
		"handle": "alice",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})

	sess, err := provider.ValidateSession(ctx, token)
	if err != nil {
		t.Fatalf("ValidateSession: %v", err)
	}
	if sess.UserID != "user-1" || sess.Handle != "alice" {
		t.Errorf("session = %+v", sess)
	}
}

func TestJWTProviderRejectsBadTokens(t *testing.T) {
	provider := NewJWTProvider("test-secret")
	ctx := context.Background()

	cases := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-jwt"},
		{"wrong secret", signToken(t, "other-secret", jwt.MapClaims{"sub": "user-1"})},
		{"expired", signToken(t, "test-secret", jwt.MapClaims{
			"sub": "user-1",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})},
		{"no subject", signToken(t, "test-secret", jwt.MapClaims{"handle": "alice"})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := provider.ValidateSession(ctx, tc.token); err == nil {
				t.Error("expected validation failure")
			}
		})
	}
}

func TestJWTProviderHasNoDirectory(t *testing.T) {
	provider := NewJWTProvider("test-secret")

	user, err := provider.GetUserByHandle(context.Background(), "alice")
	if err != nil || user != nil {
		t.Errorf("GetUserByHandle = %v, %v, want nil miss", user, err)
	}
	if err := provider.DeleteUser(context.Background(), "user-1"); err != nil {
		t.Errorf("DeleteUser: %v", err)
	}
}
