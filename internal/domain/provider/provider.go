package provider

import (
	"context"
	"time"
)

// PaymentGateway is the subset of the payment provider API the service relies on.
// Amounts are in the currency's minor unit.
type PaymentGateway interface {
	CreateCustomer(ctx context.Context, req *CreateCustomerRequest) (string, error)

	CreatePaymentIntent(ctx context.Context, req *CreatePaymentIntentRequest) (*PaymentIntent, error)
	RetrievePaymentIntent(ctx context.Context, id string) (*PaymentIntent, error)

	CreateCheckoutSession(ctx context.Context, req *CreateCheckoutSessionRequest) (*CheckoutSession, error)
	ListCheckoutLineItems(ctx context.Context, sessionID string) ([]LineItem, error)

	// CreateInvoice creates a draft invoice and returns its id
	CreateInvoice(ctx context.Context, req *CreateInvoiceRequest) (string, error)
	AddInvoiceItem(ctx context.Context, invoiceID, customerID string, item LineItem) error
	FinalizeInvoice(ctx context.Context, invoiceID string) error
	// PayInvoiceOutOfBand marks the invoice paid without charging again
	PayInvoiceOutOfBand(ctx context.Context, invoiceID string) error

	CreateSubscription(ctx context.Context, req *CreateSubscriptionRequest) (*Subscription, error)

	GetProviderName() string
}

type CreateCustomerRequest struct {
	UserID string
	Email  string
}

type CreatePaymentIntentRequest struct {
	Amount      int64
	Currency    string
	CustomerID  string
	Description string
	Metadata    map[string]string
	// IdempotencyKey is forwarded to the provider when set
	IdempotencyKey string
}

type CreateCheckoutSessionRequest struct {
	CustomerID  string
	Amount      int64
	Currency    string
	ProductName string
	SuccessURL  string
	CancelURL   string
	// Metadata is attached to both the session and its payment intent
	Metadata map[string]string
}

type CreateInvoiceRequest struct {
	CustomerID  string
	Currency    string
	Description string
	Metadata    map[string]string
}

type CreateSubscriptionRequest struct {
	CustomerID string
	PriceID    string
	Metadata   map[string]string
}

// PaymentIntent mirrors the provider payment intent fields the service reads
type PaymentIntent struct {
	ID             string
	ClientSecret   string
	Status         string
	Amount         int64
	Currency       string
	Description    string
	CustomerID     string
	LatestChargeID string
	Metadata       map[string]string
}

// CheckoutSession mirrors the provider checkout session fields the service reads
type CheckoutSession struct {
	ID              string
	URL             string
	PaymentStatus   string
	PaymentIntentID string
	CustomerID      string
	AmountTotal     int64
	Currency        string
	Metadata        map[string]string
}

// IsPaid reports whether the provider considers the session paid
func (s *CheckoutSession) IsPaid() bool {
	return s.PaymentStatus == CheckoutPaymentStatusPaid
}

const CheckoutPaymentStatusPaid = "paid"

// Subscription mirrors the provider subscription fields the service reads
type Subscription struct {
	ID                 string
	CustomerID         string
	Status             string
	PriceID            string
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CancelAtPeriodEnd  bool
	CanceledAt         *time.Time
	Metadata           map[string]string
}

type LineItem struct {
	Description string
	Quantity    int64
	// Amount is the line total
	Amount   int64
	Currency string
}
