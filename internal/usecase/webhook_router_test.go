package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/envelope"
	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/model"
	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/provider"
	"github.com/AllanBUSI/Fairpay-sub000/internal/usecase"
)

func TestWebhookRouter_IgnoresUnknownTypes(t *testing.T) {
	env := newTestEnv(t)

	outcome, err := env.router.Dispatch(context.Background(), &provider.Event{ID: "evt_x", Type: "invoice.created"})
	require.NoError(t, err)
	assert.Equal(t, usecase.OutcomeIgnored, outcome)
	assert.False(t, env.router.Routes("invoice.created"))
	assert.True(t, env.router.Routes(provider.EventCheckoutSessionAsyncPaymentSucceeded))
}

func TestWebhookRouter_SkipsCompletedEvents(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.seedUser(t, "cus_123")

	event := intentEvent("evt_dup", provider.EventPaymentIntentSucceeded, "pi_dup", map[string]string{
		envelope.KeyUserID:        user.ID,
		envelope.KeyProcedureData: snapshotJSON(t, testSnapshot("12345678901234", 0)),
	})
	event.Payload = []byte(`{"id":"evt_dup","type":"payment_intent.succeeded"}`)

	outcome, err := env.router.Dispatch(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, usecase.OutcomeProcessed, outcome)

	outcome, err = env.router.Dispatch(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, usecase.OutcomeDuplicate, outcome)

	var stored model.StripeWebhookEvent
	require.NoError(t, env.db.First(&stored, "stripe_event_id = ?", "evt_dup").Error)
	assert.Equal(t, model.WebhookStatusCompleted, stored.Status)
	assert.Equal(t, int64(1), env.count(t, &model.Procedure{}))
}

func TestWebhookRouter_AcknowledgesMalformedMetadata(t *testing.T) {
	env := newTestEnv(t)

	event := intentEvent("evt_bad", provider.EventPaymentIntentSucceeded, "pi_bad", map[string]string{
		envelope.KeyUserID:  "u1",
		envelope.KeyIsRetry: "yes",
	})
	outcome, err := env.router.Dispatch(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, usecase.OutcomeProcessed, outcome)
	assert.Equal(t, int64(0), env.count(t, &model.Payment{}))
}

func TestWebhookRouter_ReturnsHandlerFailures(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	event := intentEvent("evt_fail", provider.EventPaymentIntentSucceeded, "pi_fail", map[string]string{
		envelope.KeyUserID: "u1",
	})

	sqlDB, err := env.db.DB()
	require.NoError(t, err)

	// a router without ledger still reports the failure once storage is gone
	router := usecase.NewWebhookRouter(env.reconciler, nil, zap.NewNop())
	require.NoError(t, sqlDB.Close())

	outcome, err := router.Dispatch(ctx, event)
	assert.Error(t, err)
	assert.Equal(t, usecase.OutcomeFailed, outcome)
}

func TestWebhookRouter_RecordsFailureInLedger(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	// the payment table is gone, so reconciling fails after the ledger saw the event
	require.NoError(t, env.db.Migrator().DropTable(&model.Payment{}))

	event := intentEvent("evt_retry", provider.EventPaymentIntentSucceeded, "pi_retry", map[string]string{
		envelope.KeyUserID: "u1",
	})
	event.Payload = []byte(`{"id":"evt_retry"}`)

	outcome, err := env.router.Dispatch(ctx, event)
	require.Error(t, err)
	assert.Equal(t, usecase.OutcomeFailed, outcome)

	var stored model.StripeWebhookEvent
	require.NoError(t, env.db.First(&stored, "stripe_event_id = ?", "evt_retry").Error)
	assert.Equal(t, model.WebhookStatusFailed, stored.Status)
	assert.Equal(t, 1, stored.ProcessingAttempts)
	assert.NotNil(t, stored.NextRetryAt)
}
