package verification

import (
	"strings"
	"time"
)

// Token is a one-shot email verification token.
type Token struct {
	Email     string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

func New(email, token string, createdAt time.Time, ttl time.Duration) *Token {
	return &Token{
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Token:     token,
		ExpiresAt: createdAt.Add(ttl),
		CreatedAt: createdAt,
	}
}

func (t *Token) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
