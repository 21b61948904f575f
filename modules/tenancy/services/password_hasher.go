package services

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Compare(hash, password string) error
}

// BcryptHasher hashes with bcrypt, allowing at most concurrency hashes at once
// so a burst of registrations cannot starve request handling of CPU.
type BcryptHasher struct {
	cost int
	sem  *semaphore.Weighted
}

func NewBcryptHasher(cost int, concurrency int64) *BcryptHasher {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &BcryptHasher{
		cost: cost,
		sem:  semaphore.NewWeighted(concurrency),
	}
}

func (h *BcryptHasher) Hash(ctx context.Context, password string) (string, error) {
	start := time.Now()
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", errors.Wrap(err, "waiting for a hash slot")
	}
	defer h.sem.Release(1)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	getMetrics().hashLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return "", errors.Wrap(err, "failed to hash password")
	}
	return string(hash), nil
}

func (h *BcryptHasher) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
