package services

import (
	"context"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/businessprofile"
	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/verification"
	"github.com/orderly-pos/orderly/pkg/composables"
)

type VerificationOptions struct {
	TTL time.Duration
	// LinkBaseURL is the page that consumes ?token=.
	LinkBaseURL string
}

type VerificationService struct {
	tokens     verification.Repository
	profiles   businessprofile.Repository
	dispatcher NotificationDispatcher
	opts       VerificationOptions
	now        func() time.Time
	newToken   func() (string, error)
}

func NewVerificationService(
	tokens verification.Repository,
	profiles businessprofile.Repository,
	dispatcher NotificationDispatcher,
	opts VerificationOptions,
) *VerificationService {
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	return &VerificationService{
		tokens:     tokens,
		profiles:   profiles,
		dispatcher: dispatcher,
		opts:       opts,
		now:        time.Now,
		newToken:   GenerateToken,
	}
}

// Issue stores a fresh token for p and sends the verification link.
func (s *VerificationService) Issue(ctx context.Context, p *businessprofile.BusinessProfile) error {
	raw, err := s.newToken()
	if err != nil {
		return errors.Wrap(err, "failed to generate verification token")
	}
	token, err := s.tokens.Create(ctx, verification.New(p.Email(), raw, s.now(), s.opts.TTL))
	if err != nil {
		return errors.Wrap(err, "failed to store verification token")
	}
	if s.dispatcher == nil {
		return nil
	}
	msg := VerificationMessage{
		To:         p.Email(),
		Name:       p.Name(),
		TenantSlug: p.TenantSlug(),
		Link:       s.link(token.Token),
		ExpiresAt:  token.ExpiresAt,
	}
	if err := s.dispatcher.SendVerification(ctx, msg); err != nil {
		return errors.Wrap(err, "failed to dispatch verification email")
	}
	return nil
}

func (s *VerificationService) link(token string) string {
	u, err := url.Parse(s.opts.LinkBaseURL)
	if err != nil {
		return s.opts.LinkBaseURL + "?token=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

// Verify consumes token and marks the owning profile verified.
func (s *VerificationService) Verify(ctx context.Context, token string) (*businessprofile.BusinessProfile, error) {
	if token == "" {
		return nil, ErrVerificationTokenInvalid
	}
	t, err := s.tokens.GetByToken(ctx, token)
	if errors.Is(err, verification.ErrNotFound) {
		return nil, ErrVerificationTokenInvalid
	}
	if err != nil {
		return nil, ErrDependencyFailure.WithCause(err)
	}

	// Deleting first makes the token one-shot even under concurrent use.
	if err := s.tokens.Delete(ctx, token); err != nil {
		if errors.Is(err, verification.ErrNotFound) {
			return nil, ErrVerificationTokenInvalid
		}
		return nil, ErrDependencyFailure.WithCause(err)
	}
	now := s.now()
	if t.IsExpired(now) {
		return nil, ErrVerificationTokenExpired
	}

	p, err := s.profiles.GetByEmail(ctx, t.Email)
	if errors.Is(err, businessprofile.ErrNotFound) {
		return nil, ErrVerificationTokenInvalid
	}
	if err != nil {
		return nil, ErrDependencyFailure.WithCause(err)
	}
	if err := s.profiles.MarkEmailVerified(ctx, p.ID(), now); err != nil {
		return nil, ErrDependencyFailure.WithCause(err)
	}
	return s.profiles.GetByID(ctx, p.ID())
}

// Resend replaces outstanding tokens of an unverified profile. Unknown or
// already verified addresses succeed silently so the endpoint cannot be used
// to probe which emails are registered.
func (s *VerificationService) Resend(ctx context.Context, email string) error {
	p, err := s.profiles.GetByEmail(ctx, email)
	if errors.Is(err, businessprofile.ErrNotFound) {
		return nil
	}
	if err != nil {
		return ErrDependencyFailure.WithCause(err)
	}
	if p.IsEmailVerified() {
		return nil
	}
	// Past the lookup every failure is logged and the caller gets nil.
	logger := composables.UseLogger(ctx).WithField("tenant_slug", p.TenantSlug())
	if err := s.tokens.DeleteByEmail(ctx, p.Email()); err != nil {
		logger.WithError(err).Warn("failed to clear outstanding verification tokens")
		return nil
	}
	if err := s.Issue(ctx, p); err != nil {
		logger.WithError(err).Warn("failed to resend verification email")
	}
	return nil
}
