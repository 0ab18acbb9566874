package model

import "time"

// SubscriptionStatus represents the status of a subscription
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "ACTIVE"
	SubscriptionStatusTrialing SubscriptionStatus = "TRIALING"
	SubscriptionStatusPastDue  SubscriptionStatus = "PAST_DUE"
	SubscriptionStatusUnpaid   SubscriptionStatus = "UNPAID"
	SubscriptionStatusCanceled SubscriptionStatus = "CANCELED"
)

var providerSubscriptionStatuses = map[string]SubscriptionStatus{
	"active":   SubscriptionStatusActive,
	"trialing": SubscriptionStatusTrialing,
	"past_due": SubscriptionStatusPastDue,
	"unpaid":   SubscriptionStatusUnpaid,
	"canceled": SubscriptionStatusCanceled,
}

// MapSubscriptionStatus translates a provider status. Unknown values map to TRIALING.
func MapSubscriptionStatus(providerStatus string) SubscriptionStatus {
	if s, ok := providerSubscriptionStatuses[providerStatus]; ok {
		return s
	}
	return SubscriptionStatusTrialing
}

// IsCurrent reports whether the subscription still grants access
func (s SubscriptionStatus) IsCurrent() bool {
	return s == SubscriptionStatusActive || s == SubscriptionStatusTrialing
}

// Subscription represents a user's recurring billing agreement
type Subscription struct {
	ID                   string             `gorm:"primaryKey;size:36" json:"id"`
	UserID               string             `gorm:"size:36;not null;index" json:"user_id"`
	StripeSubscriptionID string             `gorm:"column:stripe_subscription_id;uniqueIndex;not null;size:100" json:"stripe_subscription_id"`
	StripePriceID        string             `gorm:"column:stripe_price_id;size:100" json:"stripe_price_id"`
	Status               SubscriptionStatus `gorm:"size:20;not null" json:"status"`
	CurrentPeriodStart   *time.Time         `json:"current_period_start,omitempty"`
	CurrentPeriodEnd     *time.Time         `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd    bool               `gorm:"not null;default:false" json:"cancel_at_period_end"`
	CanceledAt           *time.Time         `json:"canceled_at,omitempty"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Subscription) TableName() string {
	return "subscriptions"
}
