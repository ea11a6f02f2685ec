package security_test

import (
	"testing"
	"time"

	"github.com/Rrens/teamhub/internal/security"
	"github.com/golang-jwt/jwt/v5"
)

func signed(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("someone-elses-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return raw
}

func TestJWTExpiry_ReadsUnverifiedClaim(t *testing.T) {
	exp := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	raw := signed(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)})

	got, ok, err := security.JWTExpiry(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected exp claim to be present")
	}
	if !got.Equal(exp) {
		t.Errorf("exp mismatch: got %v, want %v", got, exp)
	}
}

func TestJWTExpired(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	fresh := signed(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))})
	if security.JWTExpired(fresh, now, time.Minute) {
		t.Error("token valid for an hour reported as expired")
	}

	closing := signed(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(30 * time.Second))})
	if !security.JWTExpired(closing, now, time.Minute) {
		t.Error("token expiring inside the leeway reported as valid")
	}

	noExp := signed(t, jwt.RegisteredClaims{Subject: "svc"})
	if !security.JWTExpired(noExp, now, 0) {
		t.Error("token without exp reported as valid")
	}

	if !security.JWTExpired("not-a-jwt", now, 0) {
		t.Error("garbage reported as valid")
	}
}
