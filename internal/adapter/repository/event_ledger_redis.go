package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/model"
	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/repository"
)

const redisLedgerPrefix = "fairpay:webhook:event:"

// redisEventLedger keeps one key per event id with a TTL. It stores no
// payload, so it cannot feed replays.
type redisEventLedger struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisEventLedger creates an event ledger on redis
func NewRedisEventLedger(client *redis.Client, ttl time.Duration, logger *zap.Logger) repository.EventLedger {
	return &redisEventLedger{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func (l *redisEventLedger) key(eventID string) string {
	return redisLedgerPrefix + eventID
}

func (l *redisEventLedger) Begin(ctx context.Context, entry repository.LedgerEntry) (bool, error) {
	key := l.key(entry.EventID)

	created, err := l.client.SetNX(ctx, key, string(model.WebhookStatusProcessing), l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record event in redis: %w", err)
	}
	if created {
		return false, nil
	}

	status, err := l.client.Get(ctx, key).Result()
	if err != nil && err != redis.Nil {
		return false, fmt.Errorf("failed to read event from redis: %w", err)
	}
	if status == string(model.WebhookStatusCompleted) {
		return true, nil
	}

	// processing or failed: a redelivery takes over
	if err := l.client.Set(ctx, key, string(model.WebhookStatusProcessing), l.ttl).Err(); err != nil {
		return false, fmt.Errorf("failed to record event in redis: %w", err)
	}
	return false, nil
}

func (l *redisEventLedger) Complete(ctx context.Context, eventID string) error {
	return l.set(ctx, eventID, model.WebhookStatusCompleted)
}

func (l *redisEventLedger) Fail(ctx context.Context, eventID string, cause error) error {
	l.logger.Debug("Recording failed event in redis ledger",
		zap.String("event_id", eventID),
		zap.Error(cause))
	return l.set(ctx, eventID, model.WebhookStatusFailed)
}

func (l *redisEventLedger) set(ctx context.Context, eventID string, status model.WebhookStatus) error {
	if err := l.client.Set(ctx, l.key(eventID), string(status), l.ttl).Err(); err != nil {
		return fmt.Errorf("failed to update event in redis: %w", err)
	}
	return nil
}
