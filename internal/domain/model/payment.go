package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// PaymentStatus is the lifecycle state of a payment attempt
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusSucceeded PaymentStatus = "SUCCEEDED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// Ptr returns a pointer to a copy of s
func (s PaymentStatus) Ptr() *PaymentStatus {
	return &s
}

// CanTransitionTo reports whether a payment in s may move to next.
// SUCCEEDED is terminal; FAILED may be re-opened by a retry (PENDING) or
// confirmed by the provider for the same intent (SUCCEEDED).
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case PaymentStatusPending:
		return next == PaymentStatusSucceeded || next == PaymentStatusFailed
	case PaymentStatusFailed:
		return next == PaymentStatusPending || next == PaymentStatusSucceeded
	default:
		return false
	}
}

// Payment represents one attempted or completed charge
type Payment struct {
	ID                      string            `gorm:"primaryKey;size:36" json:"id"`
	UserID                  string            `gorm:"size:36;not null;index" json:"user_id"`
	ProcedureID             *string           `gorm:"size:36;index" json:"procedure_id,omitempty"`
	StripePaymentIntentID   *string           `gorm:"column:stripe_payment_intent_id;uniqueIndex;size:100" json:"stripe_payment_intent_id,omitempty"`
	StripeCheckoutSessionID *string           `gorm:"column:stripe_checkout_session_id;uniqueIndex;size:100" json:"stripe_checkout_session_id,omitempty"`
	StripeChargeID          *string           `gorm:"column:stripe_charge_id;size:100" json:"stripe_charge_id,omitempty"`
	Amount                  decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency                string            `gorm:"size:3;not null" json:"currency"`
	Status                  PaymentStatus     `gorm:"size:20;not null;index" json:"status"`
	Description             string            `json:"description"`
	Metadata                datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt               time.Time         `json:"created_at"`
	UpdatedAt               time.Time         `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Payment) TableName() string {
	return "payments"
}
