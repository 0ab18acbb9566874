package repository

import (
	"context"
	"time"

	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/model"
)

// LedgerEntry is what the ledger records when an event is received
type LedgerEntry struct {
	EventID   string
	EventType string
	Payload   []byte
	CreatedAt time.Time
}

// EventLedger remembers which provider events were already processed
type EventLedger interface {
	// Begin records the event as processing. It reports true when the event
	// was already completed and must not be dispatched again.
	Begin(ctx context.Context, entry LedgerEntry) (bool, error)
	Complete(ctx context.Context, eventID string) error
	Fail(ctx context.Context, eventID string, cause error) error
}

// ReplayableLedger is a ledger that keeps payloads and can hand back events to retry
type ReplayableLedger interface {
	EventLedger
	ListReplayable(ctx context.Context, limit int) ([]*model.StripeWebhookEvent, error)
}
