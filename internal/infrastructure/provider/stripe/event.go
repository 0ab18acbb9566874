package stripe

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v79"

	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/provider"
)

// DecodeEvent turns a verified Stripe event into a provider.Event, decoding
// the data object for the event types the service routes.
func DecodeEvent(event stripe.Event, payload []byte) (*provider.Event, error) {
	out := &provider.Event{
		ID:      event.ID,
		Type:    string(event.Type),
		Created: time.Unix(event.Created, 0).UTC(),
		Payload: payload,
	}
	if event.Data == nil {
		return out, nil
	}

	switch out.Type {
	case provider.EventCheckoutSessionCompleted,
		provider.EventCheckoutSessionAsyncPaymentSucceeded,
		provider.EventCheckoutSessionAsyncPaymentFailed:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, fmt.Errorf("failed to parse checkout session: %w", err)
		}
		out.CheckoutSession = CheckoutSessionFromStripe(&session)

	case provider.EventPaymentIntentSucceeded, provider.EventPaymentIntentPaymentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("failed to parse payment intent: %w", err)
		}
		out.PaymentIntent = PaymentIntentFromStripe(&pi)

	case provider.EventCustomerSubscriptionCreated,
		provider.EventCustomerSubscriptionUpdated,
		provider.EventCustomerSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("failed to parse subscription: %w", err)
		}
		out.Subscription = SubscriptionFromStripe(&sub)
	}

	return out, nil
}

// ParseStoredEvent decodes an event payload kept by the ledger. The payload
// was verified when it was received, so no signature is checked.
func ParseStoredEvent(payload []byte) (*provider.Event, error) {
	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to parse stored event: %w", err)
	}
	if event.ID == "" {
		return nil, fmt.Errorf("stored event has no id")
	}
	return DecodeEvent(event, payload)
}
