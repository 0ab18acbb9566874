package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"go.uber.org/zap"

	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/provider"
	apperrors "github.com/AllanBUSI/Fairpay-sub000/pkg/errors"
)

const providerName = "stripe"

// Config configures the Stripe gateway
type Config struct {
	SecretKey string
	// Backends overrides the API endpoint, used by tests
	Backends *stripe.Backends
	// Timeout bounds each API call; zero means no extra deadline
	Timeout time.Duration

	BreakerMaxFailures  uint32
	BreakerOpenDuration time.Duration
	// OnBreakerStateChange is notified on every breaker transition
	OnBreakerStateChange func(from, to gobreaker.State)
}

// Gateway implements provider.PaymentGateway on an injected Stripe client.
// Every call goes through one circuit breaker so an outage fails fast.
type Gateway struct {
	api     *client.API
	breaker *gobreaker.CircuitBreaker[any]
	timeout time.Duration
	logger  *zap.Logger
}

var _ provider.PaymentGateway = (*Gateway)(nil)

// NewGateway creates a Stripe gateway
func NewGateway(cfg Config, logger *zap.Logger) *Gateway {
	maxFailures := cfg.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	openDuration := cfg.BreakerOpenDuration
	if openDuration == 0 {
		openDuration = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        providerName,
		MaxRequests: 1,
		Timeout:     openDuration,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: isBreakerSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Payment provider circuit breaker state changed",
				zap.String("provider", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			if cfg.OnBreakerStateChange != nil {
				cfg.OnBreakerStateChange(from, to)
			}
		},
	}

	return &Gateway{
		api:     client.New(cfg.SecretKey, cfg.Backends),
		breaker: gobreaker.NewCircuitBreaker[any](settings),
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

// isBreakerSuccess keeps client errors (declined cards, bad params) from tripping the breaker
func isBreakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return stripeErr.HTTPStatusCode > 0 && stripeErr.HTTPStatusCode < http.StatusInternalServerError &&
			stripeErr.HTTPStatusCode != http.StatusTooManyRequests
	}
	return false
}

func (g *Gateway) GetProviderName() string {
	return providerName
}

// call runs fn under the breaker with a bounded context
func (g *Gateway) call(ctx context.Context, op string, fn func(ctx context.Context) (any, error)) (any, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	result, err := g.breaker.Execute(func() (any, error) {
		return fn(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			g.logger.Warn("Payment provider call rejected by circuit breaker",
				zap.String("operation", op))
			return nil, apperrors.NewAppError(apperrors.ErrProviderFailure, "payment provider unavailable", err)
		}
		g.logger.Error("Payment provider call failed",
			zap.String("operation", op),
			zap.Error(err))
		return nil, apperrors.NewAppError(apperrors.ErrProviderFailure, fmt.Sprintf("stripe %s failed", op), err)
	}
	return result, nil
}

func (g *Gateway) CreateCustomer(ctx context.Context, req *provider.CreateCustomerRequest) (string, error) {
	result, err := g.call(ctx, "create customer", func(ctx context.Context) (any, error) {
		params := &stripe.CustomerParams{
			Email:    optionalString(req.Email),
			Metadata: map[string]string{"userId": req.UserID},
		}
		params.Context = ctx
		return g.api.Customers.New(params)
	})
	if err != nil {
		return "", err
	}
	return result.(*stripe.Customer).ID, nil
}

func (g *Gateway) CreatePaymentIntent(ctx context.Context, req *provider.CreatePaymentIntentRequest) (*provider.PaymentIntent, error) {
	result, err := g.call(ctx, "create payment intent", func(ctx context.Context) (any, error) {
		params := &stripe.PaymentIntentParams{
			Amount:      stripe.Int64(req.Amount),
			Currency:    stripe.String(req.Currency),
			Customer:    optionalString(req.CustomerID),
			Description: optionalString(req.Description),
			Metadata:    req.Metadata,
			AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
				Enabled: stripe.Bool(true),
			},
		}
		params.Context = ctx
		if req.IdempotencyKey != "" {
			params.SetIdempotencyKey(req.IdempotencyKey)
		}
		return g.api.PaymentIntents.New(params)
	})
	if err != nil {
		return nil, err
	}
	return PaymentIntentFromStripe(result.(*stripe.PaymentIntent)), nil
}

func (g *Gateway) RetrievePaymentIntent(ctx context.Context, id string) (*provider.PaymentIntent, error) {
	result, err := g.call(ctx, "retrieve payment intent", func(ctx context.Context) (any, error) {
		params := &stripe.PaymentIntentParams{}
		params.Context = ctx
		return g.api.PaymentIntents.Get(id, params)
	})
	if err != nil {
		return nil, err
	}
	return PaymentIntentFromStripe(result.(*stripe.PaymentIntent)), nil
}

func (g *Gateway) CreateCheckoutSession(ctx context.Context, req *provider.CreateCheckoutSessionRequest) (*provider.CheckoutSession, error) {
	result, err := g.call(ctx, "create checkout session", func(ctx context.Context) (any, error) {
		params := &stripe.CheckoutSessionParams{
			Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
			Customer:   optionalString(req.CustomerID),
			SuccessURL: stripe.String(req.SuccessURL),
			CancelURL:  stripe.String(req.CancelURL),
			LineItems: []*stripe.CheckoutSessionLineItemParams{
				{
					PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
						Currency:   stripe.String(req.Currency),
						UnitAmount: stripe.Int64(req.Amount),
						ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
							Name: stripe.String(req.ProductName),
						},
					},
					Quantity: stripe.Int64(1),
				},
			},
			Metadata: req.Metadata,
			PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
				Metadata: req.Metadata,
			},
		}
		params.Context = ctx
		return g.api.CheckoutSessions.New(params)
	})
	if err != nil {
		return nil, err
	}
	return CheckoutSessionFromStripe(result.(*stripe.CheckoutSession)), nil
}

func (g *Gateway) ListCheckoutLineItems(ctx context.Context, sessionID string) ([]provider.LineItem, error) {
	result, err := g.call(ctx, "list checkout line items", func(ctx context.Context) (any, error) {
		params := &stripe.CheckoutSessionListLineItemsParams{
			Session: stripe.String(sessionID),
		}
		params.Context = ctx

		var items []provider.LineItem
		iter := g.api.CheckoutSessions.ListLineItems(params)
		for iter.Next() {
			li := iter.LineItem()
			items = append(items, provider.LineItem{
				Description: li.Description,
				Quantity:    li.Quantity,
				Amount:      li.AmountTotal,
				Currency:    string(li.Currency),
			})
		}
		return items, iter.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.([]provider.LineItem), nil
}

func (g *Gateway) CreateInvoice(ctx context.Context, req *provider.CreateInvoiceRequest) (string, error) {
	result, err := g.call(ctx, "create invoice", func(ctx context.Context) (any, error) {
		params := &stripe.InvoiceParams{
			Customer:                    stripe.String(req.CustomerID),
			Currency:                    optionalString(req.Currency),
			Description:                 optionalString(req.Description),
			AutoAdvance:                 stripe.Bool(false),
			PendingInvoiceItemsBehavior: stripe.String("exclude"),
			Metadata:                    req.Metadata,
		}
		params.Context = ctx
		return g.api.Invoices.New(params)
	})
	if err != nil {
		return "", err
	}
	return result.(*stripe.Invoice).ID, nil
}

func (g *Gateway) AddInvoiceItem(ctx context.Context, invoiceID, customerID string, item provider.LineItem) error {
	_, err := g.call(ctx, "add invoice item", func(ctx context.Context) (any, error) {
		params := &stripe.InvoiceItemParams{
			Customer:    stripe.String(customerID),
			Invoice:     stripe.String(invoiceID),
			Amount:      stripe.Int64(item.Amount),
			Currency:    stripe.String(item.Currency),
			Description: optionalString(item.Description),
		}
		params.Context = ctx
		return g.api.InvoiceItems.New(params)
	})
	return err
}

func (g *Gateway) FinalizeInvoice(ctx context.Context, invoiceID string) error {
	_, err := g.call(ctx, "finalize invoice", func(ctx context.Context) (any, error) {
		params := &stripe.InvoiceFinalizeInvoiceParams{
			AutoAdvance: stripe.Bool(false),
		}
		params.Context = ctx
		return g.api.Invoices.FinalizeInvoice(invoiceID, params)
	})
	return err
}

func (g *Gateway) PayInvoiceOutOfBand(ctx context.Context, invoiceID string) error {
	_, err := g.call(ctx, "pay invoice", func(ctx context.Context) (any, error) {
		params := &stripe.InvoicePayParams{
			PaidOutOfBand: stripe.Bool(true),
		}
		params.Context = ctx
		return g.api.Invoices.Pay(invoiceID, params)
	})
	return err
}

func (g *Gateway) CreateSubscription(ctx context.Context, req *provider.CreateSubscriptionRequest) (*provider.Subscription, error) {
	result, err := g.call(ctx, "create subscription", func(ctx context.Context) (any, error) {
		params := &stripe.SubscriptionParams{
			Customer: stripe.String(req.CustomerID),
			Items: []*stripe.SubscriptionItemsParams{
				{Price: stripe.String(req.PriceID)},
			},
			Metadata: req.Metadata,
		}
		params.Context = ctx
		return g.api.Subscriptions.New(params)
	})
	if err != nil {
		return nil, err
	}
	return SubscriptionFromStripe(result.(*stripe.Subscription)), nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return stripe.String(s)
}
