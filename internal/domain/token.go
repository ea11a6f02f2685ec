package domain

import "time"

// Token is an expiring bearer credential. A user holds at most one.
type Token struct {
	Key       string    `json:"key"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the token's age at now has reached ttl
func (t *Token) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(t.CreatedAt) >= ttl
}
