package security

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTExpiry reads the exp claim of a token without verifying its signature.
// It is meant for tokens issued to us by another service, where we only need
// to know when to log in again. ok is false when the token carries no exp.
func JWTExpiry(raw string) (exp time.Time, ok bool, err error) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return time.Time{}, false, fmt.Errorf("failed to parse token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false, nil
	}
	return claims.ExpiresAt.Time, true, nil
}

// JWTExpired reports whether raw is unreadable, has no exp claim, or expires
// within leeway of now
func JWTExpired(raw string, now time.Time, leeway time.Duration) bool {
	exp, ok, err := JWTExpiry(raw)
	if err != nil || !ok {
		return true
	}
	return !now.Add(leeway).Before(exp)
}
