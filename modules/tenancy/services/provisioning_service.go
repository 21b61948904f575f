package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/businessprofile"
	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/settings"
	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/subscription"
	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/tenant"
	"github.com/orderly-pos/orderly/pkg/composables"
	"github.com/orderly-pos/orderly/pkg/eventbus"
	"github.com/orderly-pos/orderly/pkg/repo"
)

const (
	defaultTrialDays           = 14
	defaultMaxCreateAttempts   = 3
	defaultPeripheryTimeout    = 5 * time.Second
	defaultCompensationTimeout = 5 * time.Second

	registrationMessage = "Registration successful. Check your inbox to verify your email address."
)

type ProvisioningOptions struct {
	TrialDays int
	// MaxCreateAttempts bounds re-allocations after a slug unique violation.
	MaxCreateAttempts   int
	PeripheryTimeout    time.Duration
	CompensationTimeout time.Duration
	StarterPrice        decimal.Decimal
	// ProtectedSlugs are never deleted by compensation.
	ProtectedSlugs map[string]struct{}
}

// VerificationIssuer starts email verification for a freshly created profile.
type VerificationIssuer interface {
	Issue(ctx context.Context, p *businessprofile.BusinessProfile) error
}

type TenantSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Slug  string    `json:"tenant_slug"`
}

type RegistrationResult struct {
	Tenant  TenantSummary
	Message string
}

type ProvisioningService struct {
	tenants       tenant.Repository
	profiles      businessprofile.Repository
	settings      settings.Repository
	subscriptions subscription.Repository
	allocator     *SlugAllocator
	hasher        PasswordHasher
	verifier      VerificationIssuer
	publisher     eventbus.EventBus
	opts          ProvisioningOptions
	now           func() time.Time
}

func NewProvisioningService(
	tenants tenant.Repository,
	profiles businessprofile.Repository,
	settingsRepo settings.Repository,
	subscriptions subscription.Repository,
	allocator *SlugAllocator,
	hasher PasswordHasher,
	verifier VerificationIssuer,
	publisher eventbus.EventBus,
	opts ProvisioningOptions,
) *ProvisioningService {
	if opts.TrialDays <= 0 {
		opts.TrialDays = defaultTrialDays
	}
	if opts.MaxCreateAttempts <= 0 {
		opts.MaxCreateAttempts = defaultMaxCreateAttempts
	}
	if opts.PeripheryTimeout <= 0 {
		opts.PeripheryTimeout = defaultPeripheryTimeout
	}
	if opts.CompensationTimeout <= 0 {
		opts.CompensationTimeout = defaultCompensationTimeout
	}
	return &ProvisioningService{
		tenants:       tenants,
		profiles:      profiles,
		settings:      settingsRepo,
		subscriptions: subscriptions,
		allocator:     allocator,
		hasher:        hasher,
		verifier:      verifier,
		publisher:     publisher,
		opts:          opts,
		now:           time.Now,
	}
}

func (s *ProvisioningService) IsProtected(slug string) bool {
	_, ok := s.opts.ProtectedSlugs[slug]
	return ok
}

// Register onboards a business. Only the tenant and its owner profile form
// the critical core; settings, subscription and the verification email are
// attempted afterwards and never turn a created tenant into a failure.
func (s *ProvisioningService) Register(ctx context.Context, dto *RegistrationDTO) (*RegistrationResult, error) {
	result, err := s.register(ctx, dto)
	getMetrics().registrations.WithLabelValues(registrationOutcome(err)).Inc()
	return result, err
}

func (s *ProvisioningService) register(ctx context.Context, dto *RegistrationDTO) (*RegistrationResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	logger := composables.UseLogger(ctx).WithField("email_domain", emailDomain(dto.Email))

	taken, err := s.tenants.ExistsByEmail(ctx, dto.Email)
	if err != nil {
		return nil, &ProvisioningStepError{Step: StepCheckEmail, Err: err}
	}
	if taken {
		return nil, ErrEmailAlreadyInUse
	}

	session := s.allocator.NewSession()
	slug, err := s.allocate(ctx, session, dto.BusinessName)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(ctx, dto.Password)
	if err != nil {
		return nil, &ProvisioningStepError{Step: StepHashPassword, Slug: slug, Err: err}
	}

	var (
		t *tenant.Tenant
		p *businessprofile.BusinessProfile
	)
	for attempt := 1; ; attempt++ {
		t, p, err = s.createCore(ctx, slug, dto, hash)
		if err == nil {
			break
		}
		if repo.IsConflict(err, "email") {
			return nil, ErrEmailAlreadyInUse.WithCause(err)
		}
		if !repo.IsConflict(err, "slug") && !repo.IsConflict(err, "tenant_slug") {
			return nil, err
		}
		if attempt >= s.opts.MaxCreateAttempts {
			logger.WithError(err).WithField("attempts", attempt).Warn("giving up on slug after repeated unique violations")
			return nil, ErrSlugConflict.WithCause(err)
		}
		getMetrics().slugRetries.Inc()
		logger.WithField("tenant_slug", slug).Info("slug taken concurrently, allocating another")
		if slug, err = s.allocate(ctx, session, dto.BusinessName); err != nil {
			return nil, err
		}
	}

	logger = logger.WithField("tenant_slug", t.Slug())
	logger.Info("tenant provisioned")

	s.runPeriphery(ctx, logger, t, p)

	params, _ := composables.UseParams(ctx)
	ev := tenant.RegisteredEvent{
		TenantID:   t.ID(),
		Slug:       t.Slug(),
		Name:       t.Name(),
		Email:      t.Email(),
		OccurredAt: s.now(),
	}
	if params != nil {
		ev.IP = params.IP
		ev.UserAgent = params.UserAgent
	}
	s.publish(logger, &ev)

	return &RegistrationResult{
		Tenant: TenantSummary{
			ID:    t.ID(),
			Name:  t.Name(),
			Email: t.Email(),
			Slug:  t.Slug(),
		},
		Message: registrationMessage,
	}, nil
}

func (s *ProvisioningService) allocate(ctx context.Context, session *SlugSession, businessName string) (string, error) {
	slug, err := session.Allocate(ctx, businessName)
	if errors.Is(err, ErrSlugAllocationExhausted) {
		return "", err
	}
	if err != nil {
		return "", &ProvisioningStepError{Step: StepAllocateSlug, Err: err}
	}
	return slug, nil
}

// createCore writes the tenant and its owner profile. A failed profile write
// removes the tenant again before returning. Unique violations are returned
// unwrapped so the caller can tell them apart.
func (s *ProvisioningService) createCore(
	ctx context.Context,
	slug string,
	dto *RegistrationDTO,
	hash string,
) (*tenant.Tenant, *businessprofile.BusinessProfile, error) {
	now := s.now()
	t, err := s.tenants.Create(ctx, tenant.New(
		slug,
		dto.BusinessName,
		dto.Email,
		tenant.WithPhone(dto.Phone),
		tenant.WithPlan(tenant.PlanStarter),
		tenant.WithSubscriptionStatus(tenant.StatusTrial),
		tenant.WithTrialEndsAt(now.AddDate(0, 0, s.opts.TrialDays)),
		tenant.WithCreatedAt(now),
		tenant.WithUpdatedAt(now),
	))
	if err != nil {
		if repo.IsConflict(err, "") {
			return nil, nil, err
		}
		return nil, nil, &ProvisioningStepError{Step: StepCreateTenant, Slug: slug, Err: err}
	}

	p, err := s.profiles.Create(ctx, businessprofile.New(
		dto.BusinessName,
		dto.Email,
		hash,
		t.Slug(),
		businessprofile.WithPhone(dto.Phone),
		businessprofile.WithCreatedAt(now),
		businessprofile.WithUpdatedAt(now),
	))
	if err != nil {
		s.compensate(ctx, t, err)
		if repo.IsConflict(err, "") {
			return nil, nil, err
		}
		return nil, nil, &ProvisioningStepError{Step: StepCreateProfile, Slug: t.Slug(), Err: err}
	}
	return t, p, nil
}

// compensate deletes t after its owner profile could not be written. The
// delete runs detached from ctx so a cancelled request still cleans up.
// A failed delete is logged and published; the caller keeps the original error.
func (s *ProvisioningService) compensate(ctx context.Context, t *tenant.Tenant, cause error) {
	logger := composables.UseLogger(ctx).WithFields(logrus.Fields{
		"tenant_slug": t.Slug(),
		"tenant_id":   t.ID().String(),
	})
	if s.IsProtected(t.Slug()) {
		getMetrics().compensations.WithLabelValues("protected").Inc()
		logger.WithError(cause).Warn("business profile creation failed, protected tenant kept")
		return
	}

	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.CompensationTimeout)
	defer cancel()
	err := s.tenants.Delete(cctx, t.ID())
	if err == nil {
		getMetrics().compensations.WithLabelValues("deleted").Inc()
		logger.WithError(cause).Info("business profile creation failed, tenant removed")
		return
	}

	getMetrics().compensations.WithLabelValues("failed").Inc()
	logger.WithError(err).WithField("cause", cause.Error()).Error("compensation failed, orphaned tenant left behind")
	s.publish(logger, &tenant.CompensationFailedEvent{
		TenantID:   t.ID(),
		Slug:       t.Slug(),
		Email:      t.Email(),
		Cause:      fmt.Sprintf("%v; delete: %v", cause, err),
		OccurredAt: s.now(),
	})
}

func (s *ProvisioningService) runPeriphery(
	ctx context.Context,
	logger *logrus.Entry,
	t *tenant.Tenant,
	p *businessprofile.BusinessProfile,
) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.PeripheryTimeout)
	defer cancel()

	s.bestEffort(pctx, logger, "settings", func(ctx context.Context) error {
		_, err := s.settings.Upsert(ctx, settings.Default(t.Slug(), t.Name(), t.Email(), t.Phone()))
		return err
	})
	s.bestEffort(pctx, logger, "subscription", func(ctx context.Context) error {
		started := s.now()
		_, err := s.subscriptions.Create(ctx, subscription.NewTrial(
			t.Slug(), t.Plan(), s.opts.StarterPrice, started, t.TrialEndsAt(),
		))
		return err
	})
	if s.verifier != nil {
		s.bestEffort(pctx, logger, "verification", func(ctx context.Context) error {
			return s.verifier.Issue(ctx, p)
		})
	}
}

func (s *ProvisioningService) bestEffort(
	ctx context.Context,
	logger *logrus.Entry,
	step string,
	fn func(ctx context.Context) error,
) {
	defer func() {
		if r := recover(); r != nil {
			getMetrics().peripheryFailures.WithLabelValues(step).Inc()
			logger.WithField("step", step).Errorf("provisioning step panicked: %v", r)
		}
	}()
	if err := fn(ctx); err != nil {
		getMetrics().peripheryFailures.WithLabelValues(step).Inc()
		logger.WithError(err).WithField("step", step).Warn("optional provisioning step failed")
	}
}

func (s *ProvisioningService) publish(logger *logrus.Entry, ev any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishE(ev); err != nil && !errors.Is(err, eventbus.ErrNoSubscribers) {
		logger.WithError(err).Warn("failed to publish tenancy event")
	}
}

func registrationOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.Is(err, ErrEmailAlreadyInUse):
		return "email_in_use"
	case errors.Is(err, ErrSlugAllocationExhausted), errors.Is(err, ErrSlugConflict):
		return "slug_unavailable"
	case errors.Is(err, ErrDependencyFailure):
		return "dependency_failure"
	default:
		return "error"
	}
}

func emailDomain(email string) string {
	if i := strings.LastIndexByte(email, '@'); i >= 0 {
		return email[i+1:]
	}
	return ""
}
