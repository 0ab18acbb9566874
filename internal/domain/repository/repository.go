package repository

import (
	"context"
	"time"

	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/model"
)

// Lookups return (nil, nil) when the row does not exist.

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByStripeCustomerID(ctx context.Context, customerID string) (*model.User, error)
	SetStripeCustomerID(ctx context.Context, userID, customerID string) error
	// SetStripeSubscriptionID stamps the current subscription; nil clears it
	SetStripeSubscriptionID(ctx context.Context, userID string, subscriptionID *string) error
}

type ClientRepository interface {
	Create(ctx context.Context, client *model.Client) error
	GetByID(ctx context.Context, id string) (*model.Client, error)
	FindByUserAndSiret(ctx context.Context, userID, siret string) (*model.Client, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) error
}

type DocumentRepository interface {
	ListByProcedureID(ctx context.Context, procedureID string) ([]*model.Document, error)
	// ReplaceForProcedure deletes every document of the procedure and inserts docs
	ReplaceForProcedure(ctx context.Context, procedureID string, docs []model.Document) error
}

// ProcedureStatusUpdate is the payment-driven part of a procedure
type ProcedureStatusUpdate struct {
	Status        model.ProcedureStatus
	PaymentStatus model.PaymentStatus
	// PaymentID is left untouched when nil
	PaymentID *string
}

type ProcedureRepository interface {
	Create(ctx context.Context, procedure *model.Procedure) error
	GetByID(ctx context.Context, id string) (*model.Procedure, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) error
	// ForceStatus overwrites status and payment fields whatever the stored status is.
	// It reports false when no procedure has that id.
	ForceStatus(ctx context.Context, id string, update ProcedureStatusUpdate) (bool, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	GetByID(ctx context.Context, id string) (*model.Payment, error)
	GetByStripePaymentIntentID(ctx context.Context, intentID string) (*model.Payment, error)
	GetByStripeCheckoutSessionID(ctx context.Context, sessionID string) (*model.Payment, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) error
}

type SubscriptionRepository interface {
	Create(ctx context.Context, subscription *model.Subscription) error
	GetByStripeSubscriptionID(ctx context.Context, subscriptionID string) (*model.Subscription, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) error
	// HasCurrentForUser reports whether the user holds an ACTIVE or TRIALING subscription
	HasCurrentForUser(ctx context.Context, userID string) (bool, error)
	// CancelByStripeSubscriptionID marks every row with that external id CANCELED
	CancelByStripeSubscriptionID(ctx context.Context, subscriptionID string, canceledAt time.Time) (int64, error)
}

// Repositories groups the persistence gateway used by the reconciliation flows
type Repositories struct {
	User         UserRepository
	Client       ClientRepository
	Document     DocumentRepository
	Procedure    ProcedureRepository
	Payment      PaymentRepository
	Subscription SubscriptionRepository
}

// Transactor runs fn against repositories bound to a single database transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) error
}
