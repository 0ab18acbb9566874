package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/envelope"
	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/model"
	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/provider"
)

func subscriptionEvent(eventType, subscriptionID, status string, metadata map[string]string) *provider.Event {
	end := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	return &provider.Event{
		ID:   "evt_" + subscriptionID + "_" + status,
		Type: eventType,
		Subscription: &provider.Subscription{
			ID:               subscriptionID,
			CustomerID:       "cus_123",
			Status:           status,
			PriceID:          testPriceID,
			CurrentPeriodEnd: &end,
			Metadata:         metadata,
		},
	}
}

func TestSubscriptionUpsert_MapsStatus(t *testing.T) {
	tests := []struct {
		providerStatus string
		expected       model.SubscriptionStatus
	}{
		{"active", model.SubscriptionStatusActive},
		{"canceled", model.SubscriptionStatusCanceled},
		{"past_due", model.SubscriptionStatusPastDue},
		{"unpaid", model.SubscriptionStatusUnpaid},
		{"trialing", model.SubscriptionStatusTrialing},
		{"incomplete", model.SubscriptionStatusTrialing},
	}

	ctx := context.Background()
	env := newTestEnv(t)
	user := env.seedUser(t, "cus_123")

	for _, tt := range tests {
		t.Run(tt.providerStatus, func(t *testing.T) {
			event := subscriptionEvent(provider.EventCustomerSubscriptionUpdated, "sub_1", tt.providerStatus, nil)
			require.NoError(t, env.reconciler.HandleSubscriptionUpsert(ctx, event))

			sub, err := env.repos.Subscription.GetByStripeSubscriptionID(ctx, "sub_1")
			require.NoError(t, err)
			require.NotNil(t, sub)
			assert.Equal(t, tt.expected, sub.Status)
			assert.Equal(t, user.ID, sub.UserID)
		})
	}

	assert.Equal(t, int64(1), env.count(t, &model.Subscription{}))
}

func TestSubscriptionUpsert_ResolvesUserFromMetadata(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.seedUser(t, "")

	event := subscriptionEvent(provider.EventCustomerSubscriptionCreated, "sub_2", "active", map[string]string{
		envelope.KeyUserID: user.ID,
	})
	require.NoError(t, env.reconciler.HandleSubscriptionUpsert(ctx, event))

	got, err := env.repos.User.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.StripeSubscriptionID)
	assert.Equal(t, "sub_2", *got.StripeSubscriptionID)
}

func TestSubscriptionUpsert_UnknownUserIsNoop(t *testing.T) {
	env := newTestEnv(t)

	event := subscriptionEvent(provider.EventCustomerSubscriptionCreated, "sub_3", "active", nil)
	require.NoError(t, env.reconciler.HandleSubscriptionUpsert(context.Background(), event))
	assert.Equal(t, int64(0), env.count(t, &model.Subscription{}))
}

func TestSubscriptionDeleted_CancelsAndClearsStamp(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.seedUser(t, "cus_123")

	require.NoError(t, env.reconciler.HandleSubscriptionUpsert(ctx,
		subscriptionEvent(provider.EventCustomerSubscriptionCreated, "sub_4", "active", nil)))
	require.NoError(t, env.reconciler.HandleSubscriptionDeleted(ctx,
		subscriptionEvent(provider.EventCustomerSubscriptionDeleted, "sub_4", "canceled", nil)))

	sub, err := env.repos.Subscription.GetByStripeSubscriptionID(ctx, "sub_4")
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionStatusCanceled, sub.Status)
	assert.NotNil(t, sub.CanceledAt)

	got, err := env.repos.User.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, got.StripeSubscriptionID)
}

func TestSubscriptionDeleted_KeepsStampOfNewerSubscription(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.seedUser(t, "cus_123")

	require.NoError(t, env.reconciler.HandleSubscriptionUpsert(ctx,
		subscriptionEvent(provider.EventCustomerSubscriptionCreated, "sub_old", "active", nil)))
	require.NoError(t, env.reconciler.HandleSubscriptionUpsert(ctx,
		subscriptionEvent(provider.EventCustomerSubscriptionCreated, "sub_new", "active", nil)))
	require.NoError(t, env.reconciler.HandleSubscriptionDeleted(ctx,
		subscriptionEvent(provider.EventCustomerSubscriptionDeleted, "sub_old", "canceled", nil)))

	old, err := env.repos.Subscription.GetByStripeSubscriptionID(ctx, "sub_old")
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionStatusCanceled, old.Status)

	current, err := env.repos.Subscription.GetByStripeSubscriptionID(ctx, "sub_new")
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionStatusActive, current.Status)

	got, err := env.repos.User.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.StripeSubscriptionID)
	assert.Equal(t, "sub_new", *got.StripeSubscriptionID)
}
