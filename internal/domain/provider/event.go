package provider

import "time"

// Event types routed by the service
const (
	EventCheckoutSessionCompleted             = "checkout.session.completed"
	EventCheckoutSessionAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
	EventCheckoutSessionAsyncPaymentFailed    = "checkout.session.async_payment_failed"
	EventPaymentIntentSucceeded               = "payment_intent.succeeded"
	EventPaymentIntentPaymentFailed           = "payment_intent.payment_failed"
	EventCustomerSubscriptionCreated          = "customer.subscription.created"
	EventCustomerSubscriptionUpdated          = "customer.subscription.updated"
	EventCustomerSubscriptionDeleted          = "customer.subscription.deleted"
)

// Event is a verified provider event. At most one of the object fields is set,
// depending on Type; unknown types carry none.
type Event struct {
	ID      string
	Type    string
	Created time.Time
	// Payload is the raw event body as received
	Payload []byte

	CheckoutSession *CheckoutSession
	PaymentIntent   *PaymentIntent
	Subscription    *Subscription
}
