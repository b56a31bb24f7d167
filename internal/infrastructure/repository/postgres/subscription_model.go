package postgres

import (
	"time"

	"github.com/lib/pq"

	"github.com/ausmasters/carnivalhub/internal/domain/subscription"
)

type subscriptionTableModel struct {
	ID               int64          `db:"id"`
	Email            string         `db:"email"`
	StateCodes       pq.StringArray `db:"state_codes"`
	IsActive         bool           `db:"is_active"`
	SubscribedAt     time.Time      `db:"subscribed_at"`
	UnsubscribedAt   *time.Time     `db:"unsubscribed_at"`
	UnsubscribeToken string         `db:"unsubscribe_token"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

func subscriptionFromRow(row subscriptionTableModel) subscription.Subscription {
	return subscription.Subscription{
		ID:               row.ID,
		Email:            row.Email,
		StateCodes:       append([]string(nil), row.StateCodes...),
		IsActive:         row.IsActive,
		SubscribedAt:     row.SubscribedAt,
		UnsubscribedAt:   row.UnsubscribedAt,
		UnsubscribeToken: row.UnsubscribeToken,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
}
