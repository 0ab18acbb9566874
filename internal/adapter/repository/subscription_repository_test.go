package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/model"
)

func TestSubscriptionRepository_CurrentAndCancel(t *testing.T) {
	ctx := context.Background()
	repo := NewSubscriptionRepository(newTestDB(t), zap.NewNop())

	require.NoError(t, repo.Create(ctx, &model.Subscription{
		ID:                   "sub-row-1",
		UserID:               "user-1",
		StripeSubscriptionID: "sub_1",
		Status:               model.SubscriptionStatusTrialing,
	}))
	require.NoError(t, repo.Create(ctx, &model.Subscription{
		ID:                   "sub-row-2",
		UserID:               "user-2",
		StripeSubscriptionID: "sub_2",
		Status:               model.SubscriptionStatusPastDue,
	}))

	current, err := repo.HasCurrentForUser(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, current)

	current, err = repo.HasCurrentForUser(ctx, "user-2")
	require.NoError(t, err)
	assert.False(t, current)

	canceledAt := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	n, err := repo.CancelByStripeSubscriptionID(ctx, "sub_1", canceledAt)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	sub, err := repo.GetByStripeSubscriptionID(ctx, "sub_1")
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, model.SubscriptionStatusCanceled, sub.Status)
	require.NotNil(t, sub.CanceledAt)
	assert.True(t, sub.CanceledAt.Equal(canceledAt))

	current, err = repo.HasCurrentForUser(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, current)

	n, err = repo.CancelByStripeSubscriptionID(ctx, "sub_unknown", canceledAt)
	require.NoError(t, err)
	assert.Zero(t, n)

	missing, err := repo.GetByStripeSubscriptionID(ctx, "sub_unknown")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
