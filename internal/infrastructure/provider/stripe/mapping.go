package stripe

import (
	"time"

	"github.com/stripe/stripe-go/v79"

	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/provider"
)

func PaymentIntentFromStripe(pi *stripe.PaymentIntent) *provider.PaymentIntent {
	if pi == nil {
		return nil
	}
	out := &provider.PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Description:  pi.Description,
		Metadata:     pi.Metadata,
	}
	if pi.Customer != nil {
		out.CustomerID = pi.Customer.ID
	}
	if pi.LatestCharge != nil {
		out.LatestChargeID = pi.LatestCharge.ID
	}
	return out
}

func CheckoutSessionFromStripe(s *stripe.CheckoutSession) *provider.CheckoutSession {
	if s == nil {
		return nil
	}
	out := &provider.CheckoutSession{
		ID:            s.ID,
		URL:           s.URL,
		PaymentStatus: string(s.PaymentStatus),
		AmountTotal:   s.AmountTotal,
		Currency:      string(s.Currency),
		Metadata:      s.Metadata,
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	return out
}

func SubscriptionFromStripe(s *stripe.Subscription) *provider.Subscription {
	if s == nil {
		return nil
	}
	out := &provider.Subscription{
		ID:                 s.ID,
		Status:             string(s.Status),
		CurrentPeriodStart: unixTime(s.CurrentPeriodStart),
		CurrentPeriodEnd:   unixTime(s.CurrentPeriodEnd),
		CancelAtPeriodEnd:  s.CancelAtPeriodEnd,
		CanceledAt:         unixTime(s.CanceledAt),
		Metadata:           s.Metadata,
	}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	if s.Items != nil && len(s.Items.Data) > 0 && s.Items.Data[0].Price != nil {
		out.PriceID = s.Items.Data[0].Price.ID
	}
	return out
}

func unixTime(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
