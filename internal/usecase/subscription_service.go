package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ausmasters/carnivalhub/internal/domain/subscription"
	"github.com/ausmasters/carnivalhub/internal/domain/user"
	"github.com/ausmasters/carnivalhub/internal/platform/ratelimit"
	"github.com/ausmasters/carnivalhub/internal/platform/token"
)

// SubscriptionService manages the public announcement mailing list. Both
// endpoints are unauthenticated, so subscribe is rate limited per client IP
// and unsubscribe works off the opaque token alone.
type SubscriptionService struct {
	subsRepo subscription.Repository
	tokens   token.Generator
	limiter  *ratelimit.Limiter
	logger   *slog.Logger
	now      func() time.Time
}

func NewSubscriptionService(subsRepo subscription.Repository, tokens token.Generator, limiter *ratelimit.Limiter, logger *slog.Logger) *SubscriptionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubscriptionService{
		subsRepo: subsRepo,
		tokens:   tokens,
		limiter:  limiter,
		logger:   logger,
		now:      time.Now,
	}
}

// Subscribe creates or reactivates a subscription for the email. Repeat
// submissions replace the states of interest rather than erroring, so the
// endpoint leaks nothing about existing subscribers.
func (s *SubscriptionService) Subscribe(ctx context.Context, clientIP, email string, stateCodes []string) (subscription.Subscription, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SubscriptionService.Subscribe")
	defer span.End()

	if s.limiter != nil && !s.limiter.Allow(clientIP) {
		return subscription.Subscription{}, fmt.Errorf("%w: too many subscribe attempts", ErrRateLimited)
	}

	sub := subscription.Subscription{
		Email:      user.NormalizeEmail(email),
		StateCodes: stateCodes,
	}
	if err := sub.Validate(); err != nil {
		return subscription.Subscription{}, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	unsubToken, err := s.tokens.NewToken(token.UnsubscribeBytes)
	if err != nil {
		return subscription.Subscription{}, fmt.Errorf("generate unsubscribe token: %w", err)
	}
	sub.UnsubscribeToken = unsubToken

	saved, err := s.subsRepo.Upsert(ctx, sub, s.now().UTC())
	if err != nil {
		return subscription.Subscription{}, fmt.Errorf("upsert subscription: %w", err)
	}
	s.logger.InfoContext(ctx, "subscription saved",
		slog.Int64("subscriptionId", saved.ID), slog.Int("states", len(saved.StateCodes)))
	return saved, nil
}

// Unsubscribe deactivates the subscription behind the emailed token.
// Unsubscribing twice with the same token is a no-op success.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, unsubToken string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.SubscriptionService.Unsubscribe")
	defer span.End()

	if unsubToken == "" {
		return fmt.Errorf("%w: unsubscribe token is required", ErrInvalidInput)
	}

	sub, exists, err := s.subsRepo.GetByToken(ctx, unsubToken)
	if err != nil {
		return fmt.Errorf("lookup subscription: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: subscription", ErrNotFound)
	}
	if !sub.IsActive {
		return nil
	}

	if err := s.subsRepo.Deactivate(ctx, sub.ID, s.now().UTC()); err != nil {
		return fmt.Errorf("deactivate subscription: %w", err)
	}
	return nil
}
