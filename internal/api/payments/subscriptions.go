package payments

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/subscription"

	"github.com/gritfit/gritfit-api/config"
)

// SubscriptionUpdater mutates a Stripe subscription. Wrapped so tests can
// stub the Stripe API.
type SubscriptionUpdater func(id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error)

// StripeSubscriptions drives subscription lifecycle changes against Stripe
// on behalf of the membership service.
type StripeSubscriptions struct {
	logger             *slog.Logger
	updateSubscription SubscriptionUpdater
}

func NewStripeSubscriptions(cfg config.StripeConfig, logger *slog.Logger) *StripeSubscriptions {
	stripe.Key = cfg.SecretKey
	return &StripeSubscriptions{
		logger:             logger,
		updateSubscription: subscription.Update,
	}
}

// FlagSubscriptionCancel marks the subscription to end at the close of the
// current billing period. Stripe then emits customer.subscription.deleted,
// which retires the membership through the webhook.
func (s *StripeSubscriptions) FlagSubscriptionCancel(ctx context.Context, subscriptionID string) error {
	l := s.logger.With(slog.String("method", "FlagSubscriptionCancel"),
		slog.String("subscription_id", subscriptionID))

	if _, err := s.updateSubscription(subscriptionID, &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	}); err != nil {
		return fmt.Errorf("flagging subscription %s for cancellation: %w", subscriptionID, err)
	}
	l.InfoContext(ctx, "Subscription flagged to cancel at period end")
	return nil
}
