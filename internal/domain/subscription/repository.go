package subscription

import (
	"context"
	"time"
)

// Repository describes subscription persistence needs from use cases.
type Repository interface {
	// Upsert creates the row or reactivates an unsubscribed one, replacing
	// its states of interest and clearing unsubscribed_at.
	Upsert(ctx context.Context, s Subscription, now time.Time) (Subscription, error)
	GetByEmail(ctx context.Context, email string) (Subscription, bool, error)
	GetByToken(ctx context.Context, token string) (Subscription, bool, error)
	// Deactivate marks the row unsubscribed at now.
	Deactivate(ctx context.Context, subscriptionID int64, now time.Time) error
	ListActiveByState(ctx context.Context, stateCode string) ([]Subscription, error)
}
