package model

import "time"

// User is the account owning procedures, payments and subscriptions
type User struct {
	ID                   string    `gorm:"primaryKey;size:36" json:"id"`
	Email                string    `gorm:"size:255;index" json:"email"`
	StripeCustomerID     *string   `gorm:"column:stripe_customer_id;uniqueIndex;size:100" json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID *string   `gorm:"column:stripe_subscription_id;size:100" json:"stripe_subscription_id,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}
