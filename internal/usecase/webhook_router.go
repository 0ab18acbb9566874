package usecase

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	domainErrors "github.com/AllanBUSI/Fairpay-sub000/internal/domain/errors"
	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/provider"
	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/repository"
	"github.com/AllanBUSI/Fairpay-sub000/internal/infrastructure/metrics"
	apperrors "github.com/AllanBUSI/Fairpay-sub000/pkg/errors"
)

// EventHandler reconciles one verified provider event
type EventHandler func(ctx context.Context, event *provider.Event) error

// Outcome reports what the router did with an event
type Outcome string

const (
	OutcomeProcessed Outcome = metrics.OutcomeProcessed
	OutcomeIgnored   Outcome = metrics.OutcomeIgnored
	OutcomeDuplicate Outcome = metrics.OutcomeDuplicate
	// OutcomeFailed comes with a non-nil error; the provider should redeliver
	OutcomeFailed Outcome = metrics.OutcomeFailed
)

// WebhookRouter dispatches events to their reconciliation handler through the event ledger
type WebhookRouter struct {
	handlers map[string]EventHandler
	ledger   repository.EventLedger
	logger   *zap.Logger
}

// NewWebhookRouter builds the routing table on top of reconciler. ledger may be nil.
func NewWebhookRouter(reconciler *Reconciler, ledger repository.EventLedger, logger *zap.Logger) *WebhookRouter {
	return &WebhookRouter{
		handlers: map[string]EventHandler{
			provider.EventCheckoutSessionCompleted:             reconciler.HandleCheckoutCompleted,
			provider.EventCheckoutSessionAsyncPaymentSucceeded: reconciler.HandleCheckoutCompleted,
			provider.EventCheckoutSessionAsyncPaymentFailed:    reconciler.HandleAsyncPaymentFailed,
			provider.EventPaymentIntentSucceeded:               reconciler.HandlePaymentSucceeded,
			provider.EventPaymentIntentPaymentFailed:           reconciler.HandlePaymentFailed,
			provider.EventCustomerSubscriptionCreated:          reconciler.HandleSubscriptionUpsert,
			provider.EventCustomerSubscriptionUpdated:          reconciler.HandleSubscriptionUpsert,
			provider.EventCustomerSubscriptionDeleted:          reconciler.HandleSubscriptionDeleted,
		},
		ledger: ledger,
		logger: logger,
	}
}

// Dispatch runs the handler registered for event.Type. Unknown types and
// events with unusable metadata are acknowledged; a handler failure is
// returned so the provider redelivers.
func (r *WebhookRouter) Dispatch(ctx context.Context, event *provider.Event) (outcome Outcome, err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveWebhookEvent(event.Type, string(outcome), time.Since(start))
	}()

	logger := r.logger.With(
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type),
	)

	handler, ok := r.handlers[event.Type]
	if !ok {
		logger.Info("Ignoring unhandled event type")
		return OutcomeIgnored, nil
	}

	if r.ledger != nil {
		completed, err := r.ledger.Begin(ctx, repository.LedgerEntry{
			EventID:   event.ID,
			EventType: event.Type,
			Payload:   event.Payload,
			CreatedAt: event.Created,
		})
		if err != nil {
			logger.Warn("Event ledger unavailable, processing without it", zap.Error(err))
		} else if completed {
			logger.Info("Event already processed")
			return OutcomeDuplicate, nil
		}
	}

	if err := handler(ctx, event); err != nil {
		if errors.Is(err, domainErrors.ErrMalformedMetadata) {
			apperrors.LogWarn(logger, err, "Acknowledging event with unusable metadata")
			metrics.IncMalformedMetadata(event.Type)
			r.complete(ctx, logger, event.ID)
			return OutcomeProcessed, nil
		}

		apperrors.LogError(logger, err, "Failed to reconcile event")
		if r.ledger != nil {
			if ferr := r.ledger.Fail(ctx, event.ID, err); ferr != nil {
				logger.Warn("Failed to record event failure", zap.Error(ferr))
			}
		}
		return OutcomeFailed, err
	}

	r.complete(ctx, logger, event.ID)
	logger.Info("Event processed", zap.Duration("elapsed", time.Since(start)))
	return OutcomeProcessed, nil
}

func (r *WebhookRouter) complete(ctx context.Context, logger *zap.Logger, eventID string) {
	if r.ledger == nil {
		return
	}
	if err := r.ledger.Complete(ctx, eventID); err != nil {
		logger.Warn("Failed to mark event completed", zap.Error(err))
	}
}

// Routes reports whether the router has a handler for eventType
func (r *WebhookRouter) Routes(eventType string) bool {
	_, ok := r.handlers[eventType]
	return ok
}
