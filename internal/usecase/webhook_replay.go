package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/provider"
	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/repository"
	stripeProvider "github.com/AllanBUSI/Fairpay-sub000/internal/infrastructure/provider/stripe"
)

// ReplayReport summarizes one replay run
type ReplayReport struct {
	Listed    int `json:"listed"`
	Processed int `json:"processed"`
	Ignored   int `json:"ignored"`
	Duplicate int `json:"duplicate"`
	Failed    int `json:"failed"`
	// Undecodable counts stored payloads that no longer parse as events
	Undecodable int `json:"undecodable"`
}

// WebhookReplayer pushes stored events that did not complete back through the router
type WebhookReplayer struct {
	ledger repository.ReplayableLedger
	router *WebhookRouter
	logger *zap.Logger
}

func NewWebhookReplayer(ledger repository.ReplayableLedger, router *WebhookRouter, logger *zap.Logger) *WebhookReplayer {
	return &WebhookReplayer{
		ledger: ledger,
		router: router,
		logger: logger,
	}
}

// Replay dispatches up to limit due events, oldest first. A failing event
// does not stop the run.
func (r *WebhookReplayer) Replay(ctx context.Context, limit int) (*ReplayReport, error) {
	events, err := r.ledger.ListReplayable(ctx, limit)
	if err != nil {
		return nil, err
	}

	report := &ReplayReport{Listed: len(events)}
	for _, stored := range events {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		logger := r.logger.With(
			zap.String("event_id", stored.StripeEventID),
			zap.String("event_type", stored.EventType),
			zap.Int("attempts", stored.ProcessingAttempts))

		event, err := decodeStored(stored.Payload)
		if err != nil {
			report.Undecodable++
			logger.Error("Stored webhook event cannot be decoded", zap.Error(err))
			if ferr := r.ledger.Fail(ctx, stored.StripeEventID, err); ferr != nil {
				logger.Warn("Failed to record replay failure", zap.Error(ferr))
			}
			continue
		}

		outcome, err := r.router.Dispatch(ctx, event)
		if err != nil {
			report.Failed++
			continue
		}
		switch outcome {
		case OutcomeProcessed:
			report.Processed++
		case OutcomeDuplicate:
			report.Duplicate++
		case OutcomeIgnored:
			report.Ignored++
		}
		logger.Info("Webhook event replayed", zap.String("outcome", string(outcome)))
	}
	return report, nil
}

func decodeStored(payload map[string]interface{}) (*provider.Event, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("stored event has no payload")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode stored payload: %w", err)
	}
	return stripeProvider.ParseStoredEvent(raw)
}
