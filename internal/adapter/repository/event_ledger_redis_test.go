package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/repository"
)

// Runs against a real server when FAIRPAY_TEST_REDIS_ADDR is set
func TestRedisEventLedger(t *testing.T) {
	addr := os.Getenv("FAIRPAY_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("FAIRPAY_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())

	ledger := NewRedisEventLedger(client, time.Minute, zap.NewNop())
	entry := repository.LedgerEntry{EventID: "evt_" + uuid.NewString(), EventType: "payment_intent.succeeded"}
	t.Cleanup(func() { client.Del(ctx, redisLedgerPrefix+entry.EventID) })

	done, err := ledger.Begin(ctx, entry)
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, ledger.Fail(ctx, entry.EventID, errors.New("boom")))
	done, err = ledger.Begin(ctx, entry)
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, ledger.Complete(ctx, entry.EventID))
	done, err = ledger.Begin(ctx, entry)
	require.NoError(t, err)
	assert.True(t, done)

	ttl, err := client.TTL(ctx, redisLedgerPrefix+entry.EventID).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
