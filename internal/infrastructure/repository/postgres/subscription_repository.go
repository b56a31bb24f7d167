package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ausmasters/carnivalhub/internal/domain/subscription"
	"github.com/ausmasters/carnivalhub/internal/domain/user"
	qb "github.com/ausmasters/carnivalhub/internal/platform/querybuilder"
)

type SubscriptionRepository struct {
	db *sqlx.DB
}

func NewSubscriptionRepository(db *sqlx.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) Upsert(ctx context.Context, s subscription.Subscription, now time.Time) (subscription.Subscription, error) {
	query := `INSERT INTO subscriptions (email, state_codes, is_active, subscribed_at, unsubscribe_token)
VALUES ($1, $2, TRUE, $3, $4)
ON CONFLICT (email)
DO UPDATE SET
    state_codes = EXCLUDED.state_codes,
    is_active = TRUE,
    unsubscribed_at = NULL,
    updated_at = NOW()
RETURNING *`

	var row subscriptionTableModel
	err := r.db.GetContext(ctx, &row, query,
		user.NormalizeEmail(s.Email), pq.StringArray(s.StateCodes), now, s.UnsubscribeToken)
	if err != nil {
		return subscription.Subscription{}, fmt.Errorf("upsert subscription: %w", err)
	}

	return subscriptionFromRow(row), nil
}

func (r *SubscriptionRepository) GetByEmail(ctx context.Context, email string) (subscription.Subscription, bool, error) {
	return r.getOne(ctx, qb.Eq("email", user.NormalizeEmail(email)))
}

func (r *SubscriptionRepository) GetByToken(ctx context.Context, token string) (subscription.Subscription, bool, error) {
	if token == "" {
		return subscription.Subscription{}, false, nil
	}
	return r.getOne(ctx, qb.Eq("unsubscribe_token", token))
}

func (r *SubscriptionRepository) Deactivate(ctx context.Context, subscriptionID int64, now time.Time) error {
	query, args, err := qb.Update("subscriptions").
		Set("is_active", false).
		Set("unsubscribed_at", now).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", subscriptionID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build deactivate subscription query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("deactivate subscription: %w", err)
	}
	return nil
}

func (r *SubscriptionRepository) ListActiveByState(ctx context.Context, stateCode string) ([]subscription.Subscription, error) {
	query, args, err := qb.Select("*").From("subscriptions").
		Where(
			qb.Eq("is_active", true),
			qb.Expr("? = ANY(state_codes)", stateCode),
		).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list subscriptions by state query: %w", err)
	}

	var rows []subscriptionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list subscriptions by state: %w", err)
	}

	out := make([]subscription.Subscription, 0, len(rows))
	for _, row := range rows {
		out = append(out, subscriptionFromRow(row))
	}
	return out, nil
}

func (r *SubscriptionRepository) getOne(ctx context.Context, conditions ...qb.Condition) (subscription.Subscription, bool, error) {
	query, args, err := qb.Select("*").From("subscriptions").Where(conditions...).Limit(1).ToSQL()
	if err != nil {
		return subscription.Subscription{}, false, fmt.Errorf("build get subscription query: %w", err)
	}

	var row subscriptionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return subscription.Subscription{}, false, nil
		}
		return subscription.Subscription{}, false, fmt.Errorf("get subscription: %w", err)
	}

	return subscriptionFromRow(row), true, nil
}
