package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ausmasters/carnivalhub/internal/domain/subscription"
	"github.com/ausmasters/carnivalhub/internal/domain/user"
)

type SubscriptionRepository struct {
	mu     sync.RWMutex
	items  map[int64]subscription.Subscription
	nextID int64
}

func NewSubscriptionRepository() *SubscriptionRepository {
	return &SubscriptionRepository{items: make(map[int64]subscription.Subscription), nextID: 1}
}

func (r *SubscriptionRepository) Upsert(_ context.Context, s subscription.Subscription, now time.Time) (subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s.Email = user.NormalizeEmail(s.Email)
	for id, existing := range r.items {
		if existing.Email != s.Email {
			continue
		}
		existing.StateCodes = append([]string(nil), s.StateCodes...)
		existing.IsActive = true
		existing.UnsubscribedAt = nil
		existing.UpdatedAt = now
		if s.UnsubscribeToken != "" {
			existing.UnsubscribeToken = s.UnsubscribeToken
		}
		r.items[id] = existing
		return cloneSubscription(existing), nil
	}

	s.ID = r.nextID
	r.nextID++
	s.IsActive = true
	s.SubscribedAt = now
	s.CreatedAt = now
	s.UpdatedAt = now
	r.items[s.ID] = cloneSubscription(s)

	return s, nil
}

func (r *SubscriptionRepository) GetByEmail(_ context.Context, email string) (subscription.Subscription, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email = user.NormalizeEmail(email)
	for _, s := range r.items {
		if s.Email == email {
			return cloneSubscription(s), true, nil
		}
	}

	return subscription.Subscription{}, false, nil
}

func (r *SubscriptionRepository) GetByToken(_ context.Context, token string) (subscription.Subscription, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if token == "" {
		return subscription.Subscription{}, false, nil
	}
	for _, s := range r.items {
		if s.UnsubscribeToken == token {
			return cloneSubscription(s), true, nil
		}
	}

	return subscription.Subscription{}, false, nil
}

func (r *SubscriptionRepository) Deactivate(_ context.Context, subscriptionID int64, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.items[subscriptionID]
	if !ok {
		return nil
	}
	s.IsActive = false
	s.UnsubscribedAt = &now
	s.UpdatedAt = now
	r.items[subscriptionID] = s

	return nil
}

func (r *SubscriptionRepository) ListActiveByState(_ context.Context, stateCode string) ([]subscription.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]subscription.Subscription, 0)
	for _, s := range r.items {
		if s.IsActive && s.WantsState(stateCode) {
			out = append(out, cloneSubscription(s))
		}
	}

	return out, nil
}

func cloneSubscription(s subscription.Subscription) subscription.Subscription {
	copied := s
	copied.StateCodes = append([]string(nil), s.StateCodes...)
	return copied
}
