package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/orderly-pos/orderly/modules/tenancy/domain/entities/subscription"
	"github.com/orderly-pos/orderly/modules/tenancy/infrastructure/persistence/models"
	"github.com/orderly-pos/orderly/pkg/composables"
	"github.com/orderly-pos/orderly/pkg/repo"
)

type SubscriptionRepository struct{}

func NewSubscriptionRepository() subscription.Repository {
	return &SubscriptionRepository{}
}

func (r *SubscriptionRepository) GetByTenantSlug(ctx context.Context, slug string) (*subscription.Subscription, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	var (
		m     models.Subscription
		price string
	)
	err = tx.QueryRow(ctx, `
		SELECT id, tenant_slug, plan, status, price_monthly::text, trial_started_at, trial_ends_at, created_at
		FROM subscriptions WHERE tenant_slug = $1
	`, slug).Scan(
		&m.ID,
		&m.TenantSlug,
		&m.Plan,
		&m.Status,
		&price,
		&m.TrialStartedAt,
		&m.TrialEndsAt,
		&m.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, subscription.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to query subscription")
	}
	if m.PriceMonthly, err = decimal.NewFromString(price); err != nil {
		return nil, errors.Wrap(err, "failed to parse subscription price")
	}
	return toDomainSubscription(&m)
}

func (r *SubscriptionRepository) Create(ctx context.Context, s *subscription.Subscription) (*subscription.Subscription, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO subscriptions (id, tenant_slug, plan, status, price_monthly, trial_started_at, trial_ends_at, created_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8)
	`,
		s.ID.String(),
		s.TenantSlug,
		string(s.Plan),
		string(s.Status),
		s.PriceMonthly.StringFixed(2),
		s.TrialStartedAt,
		s.TrialEndsAt,
		s.CreatedAt,
	); err != nil {
		return nil, repo.TranslateUniqueViolation(err, map[string]string{
			"subscriptions_tenant_slug_key": "tenant_slug",
		})
	}
	return r.GetByTenantSlug(ctx, s.TenantSlug)
}
