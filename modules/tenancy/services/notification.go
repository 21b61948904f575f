package services

import (
	"context"
	"time"
)

type VerificationMessage struct {
	To         string
	Name       string
	TenantSlug string
	Link       string
	ExpiresAt  time.Time
}

// NotificationDispatcher delivers outbound mail. Provisioning treats its
// failures as non-fatal.
type NotificationDispatcher interface {
	SendVerification(ctx context.Context, msg VerificationMessage) error
}
