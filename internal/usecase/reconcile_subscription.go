package usecase

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/envelope"
	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/model"
	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/provider"
)

// HandleSubscriptionUpsert mirrors a created or updated provider subscription
func (r *Reconciler) HandleSubscriptionUpsert(ctx context.Context, event *provider.Event) error {
	sub := event.Subscription
	if sub == nil {
		return missingObject(event.Type)
	}

	user, err := r.subscriptionOwner(ctx, sub)
	if err != nil {
		return err
	}
	if user == nil {
		r.logger.Info("No user for subscription, skipping",
			zap.String("subscription_id", sub.ID),
			zap.String("customer_id", sub.CustomerID))
		return nil
	}

	return r.saveSubscription(ctx, user.ID, sub)
}

// HandleSubscriptionDeleted cancels every row of the subscription and clears the user's stamp when it still points at it
func (r *Reconciler) HandleSubscriptionDeleted(ctx context.Context, event *provider.Event) error {
	sub := event.Subscription
	if sub == nil {
		return missingObject(event.Type)
	}

	user, err := r.repos.User.GetByStripeCustomerID(ctx, sub.CustomerID)
	if err != nil {
		return err
	}
	if user == nil {
		r.logger.Info("No user for deleted subscription, skipping",
			zap.String("subscription_id", sub.ID),
			zap.String("customer_id", sub.CustomerID))
		return nil
	}

	canceled, err := r.repos.Subscription.CancelByStripeSubscriptionID(ctx, sub.ID, r.now().UTC())
	if err != nil {
		return err
	}
	// a newer subscription may already own the stamp
	if user.StripeSubscriptionID != nil && *user.StripeSubscriptionID == sub.ID {
		if err := r.repos.User.SetStripeSubscriptionID(ctx, user.ID, nil); err != nil {
			return err
		}
	}

	r.logger.Info("Subscription canceled",
		zap.String("subscription_id", sub.ID),
		zap.String("user_id", user.ID),
		zap.Int64("rows", canceled))
	return nil
}

// subscriptionOwner resolves the user from metadata first, then from the customer id
func (r *Reconciler) subscriptionOwner(ctx context.Context, sub *provider.Subscription) (*model.User, error) {
	if userID := sub.Metadata[envelope.KeyUserID]; userID != "" {
		user, err := r.repos.User.GetByID(ctx, userID)
		if err != nil || user != nil {
			return user, err
		}
	}
	if sub.CustomerID == "" {
		return nil, nil
	}
	return r.repos.User.GetByStripeCustomerID(ctx, sub.CustomerID)
}

// saveSubscription upserts the subscription row by external id and stamps the user
func (r *Reconciler) saveSubscription(ctx context.Context, userID string, sub *provider.Subscription) error {
	status := model.MapSubscriptionStatus(sub.Status)

	existing, err := r.repos.Subscription.GetByStripeSubscriptionID(ctx, sub.ID)
	if err != nil {
		return err
	}

	if existing == nil {
		err = r.repos.Subscription.Create(ctx, &model.Subscription{
			ID:                   uuid.NewString(),
			UserID:               userID,
			StripeSubscriptionID: sub.ID,
			StripePriceID:        sub.PriceID,
			Status:               status,
			CurrentPeriodStart:   sub.CurrentPeriodStart,
			CurrentPeriodEnd:     sub.CurrentPeriodEnd,
			CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
			CanceledAt:           sub.CanceledAt,
		})
	} else {
		updates := map[string]interface{}{
			"status":               status,
			"current_period_start": sub.CurrentPeriodStart,
			"current_period_end":   sub.CurrentPeriodEnd,
			"cancel_at_period_end": sub.CancelAtPeriodEnd,
			"canceled_at":          sub.CanceledAt,
		}
		if sub.PriceID != "" {
			updates["stripe_price_id"] = sub.PriceID
		}
		err = r.repos.Subscription.Update(ctx, existing.ID, updates)
	}
	if err != nil {
		return err
	}

	subscriptionID := sub.ID
	if err := r.repos.User.SetStripeSubscriptionID(ctx, userID, &subscriptionID); err != nil {
		return err
	}

	r.logger.Info("Subscription saved",
		zap.String("subscription_id", sub.ID),
		zap.String("user_id", userID),
		zap.String("status", string(status)))
	return nil
}
