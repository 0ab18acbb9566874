package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/envelope"
	domainErrors "github.com/AllanBUSI/Fairpay-sub000/internal/domain/errors"
	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/model"
	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/provider"
	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/repository"
	"github.com/AllanBUSI/Fairpay-sub000/internal/infrastructure/metrics"
)

// PaymentIntentResult is returned to the client to confirm a payment intent
type PaymentIntentResult struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
	PaymentID       string `json:"paymentId"`
}

// RetryPaymentService starts a new provider attempt for a payment that did not succeed
type RetryPaymentService struct {
	repos   *repository.Repositories
	gateway provider.PaymentGateway
	logger  *zap.Logger
}

// NewRetryPaymentService creates a new retry service
func NewRetryPaymentService(repos *repository.Repositories, gateway provider.PaymentGateway, logger *zap.Logger) *RetryPaymentService {
	return &RetryPaymentService{
		repos:   repos,
		gateway: gateway,
		logger:  logger,
	}
}

// RetryPayment creates a new payment intent for paymentID and points the same
// payment row at it. Missing, foreign and settled payments are all reported
// as ErrNotFound.
func (s *RetryPaymentService) RetryPayment(ctx context.Context, userID, paymentID string) (*PaymentIntentResult, error) {
	payment, err := s.repos.Payment.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil || payment.UserID != userID || !payment.Status.CanTransitionTo(model.PaymentStatusPending) {
		return nil, domainErrors.ErrNotFound
	}

	user, err := s.repos.User.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.StripeCustomerID == nil || *user.StripeCustomerID == "" {
		return nil, domainErrors.ErrNotFound
	}

	env, err := s.retryEnvelope(ctx, payment)
	if err != nil {
		return nil, err
	}
	if err := env.Validate(); err != nil {
		return nil, err
	}
	metadata, err := env.Encode()
	if err != nil {
		return nil, err
	}

	pi, err := s.gateway.CreatePaymentIntent(ctx, &provider.CreatePaymentIntentRequest{
		Amount:         provider.ToMinorUnits(payment.Amount, payment.Currency),
		Currency:       payment.Currency,
		CustomerID:     *user.StripeCustomerID,
		Description:    payment.Description,
		Metadata:       metadata,
		IdempotencyKey: fmt.Sprintf("retry:%s:%s", payment.ID, env.OriginalPaymentIntentID),
	})
	if err != nil {
		return nil, err
	}

	stored := toJSONMap(metadata)
	stored[envelope.KeyNewPaymentIntentID] = pi.ID
	if err := s.repos.Payment.Update(ctx, payment.ID, map[string]interface{}{
		"stripe_payment_intent_id": pi.ID,
		"status":                   model.PaymentStatusPending,
		"metadata":                 stored,
	}); err != nil {
		return nil, err
	}
	metrics.IncPaymentInitiated("retry")

	s.logger.Info("Payment retry started",
		zap.String("payment_id", payment.ID),
		zap.String("original_payment_intent_id", env.OriginalPaymentIntentID),
		zap.String("payment_intent_id", pi.ID))

	return &PaymentIntentResult{
		ClientSecret:    pi.ClientSecret,
		PaymentIntentID: pi.ID,
		PaymentID:       payment.ID,
	}, nil
}

// retryEnvelope carries forward the original metadata and derives the flags
// from the procedure's current state
func (s *RetryPaymentService) retryEnvelope(ctx context.Context, payment *model.Payment) (*envelope.Envelope, error) {
	env := &envelope.Envelope{
		Kind:   envelope.KindRetry,
		UserID: payment.UserID,
	}
	if original, err := envelope.Parse(stringMetadata(payment.Metadata)); err == nil {
		env.ProcedureID = original.ProcedureID
		env.ProcedureData = original.ProcedureData
		env.IsInjonction = original.IsInjonction
		env.HasEcheancier = original.HasEcheancier
		env.HasFacturation = original.HasFacturation
	} else {
		s.logger.Warn("Ignoring unreadable metadata of payment",
			zap.String("payment_id", payment.ID),
			zap.Error(err))
	}
	env.IsRetry = true
	if payment.StripePaymentIntentID != nil {
		env.OriginalPaymentIntentID = *payment.StripePaymentIntentID
	}

	if payment.ProcedureID != nil {
		env.ProcedureID = *payment.ProcedureID
	}
	if env.ProcedureID == "" {
		return env, nil
	}

	procedure, err := s.repos.Procedure.GetByID(ctx, env.ProcedureID)
	if err != nil {
		return nil, err
	}
	if procedure != nil {
		// the procedure row is the source of truth once it exists
		env.ProcedureData = nil
		env.IsInjonction = procedure.Status == model.ProcedureStatusInjonctionDePaiement
		env.HasEcheancier = len(procedure.Echeancier) > 0
		env.HasFacturation = procedure.HasFacturation
	}
	return env, nil
}

func stringMetadata(m map[string]interface{}) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}
