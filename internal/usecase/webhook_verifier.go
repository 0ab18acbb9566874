package usecase

import (
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v79/webhook"

	domainErrors "github.com/AllanBUSI/Fairpay-sub000/internal/domain/errors"
	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/provider"
	stripeProvider "github.com/AllanBUSI/Fairpay-sub000/internal/infrastructure/provider/stripe"
)

// WebhookVerifier authenticates provider callbacks with the endpoint signing secret
type WebhookVerifier struct {
	secret    string
	tolerance time.Duration
}

// NewWebhookVerifier creates a verifier bound to secret
func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{
		secret:    secret,
		tolerance: webhook.DefaultTolerance,
	}
}

// Verify checks the signature header against payload and decodes the event.
// A missing header is rejected before the payload is looked at.
func (v *WebhookVerifier) Verify(payload []byte, signatureHeader string) (*provider.Event, error) {
	if signatureHeader == "" {
		return nil, domainErrors.ErrMissingSignature
	}

	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, v.secret, webhook.ConstructEventOptions{
		Tolerance:                v.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainErrors.ErrInvalidSignature, err)
	}

	decoded, err := stripeProvider.DecodeEvent(event, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainErrors.ErrInvalidSignature, err)
	}
	return decoded, nil
}
