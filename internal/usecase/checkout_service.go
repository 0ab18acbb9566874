package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/envelope"
	domainErrors "github.com/AllanBUSI/Fairpay-sub000/internal/domain/errors"
	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/model"
	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/provider"
	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/repository"
	"github.com/AllanBUSI/Fairpay-sub000/internal/infrastructure/metrics"
	apperrors "github.com/AllanBUSI/Fairpay-sub000/pkg/errors"
)

// CheckoutConfig holds pricing and redirect settings for the initiators
type CheckoutConfig struct {
	Currency        string
	DossierPrice    decimal.Decimal
	InjonctionPrice decimal.Decimal
	// ClientURL is the front-end base used for checkout redirects
	ClientURL string
}

// DossierCheckoutRequest pays either an existing draft or a draft snapshot
type DossierCheckoutRequest struct {
	ProcedureID    string                      `json:"procedureId"`
	ProcedureData  *envelope.ProcedureSnapshot `json:"procedureData"`
	HasFacturation bool                        `json:"hasFacturation"`
	HasEcheancier  bool                        `json:"hasEcheancier"`
}

// DossierCheckoutResult points the client at the hosted checkout page
type DossierCheckoutResult struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// CheckoutService starts dossier and court-injunction payments
type CheckoutService struct {
	repos   *repository.Repositories
	gateway provider.PaymentGateway
	config  CheckoutConfig
	logger  *zap.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(repos *repository.Repositories, gateway provider.PaymentGateway, config CheckoutConfig, logger *zap.Logger) *CheckoutService {
	config.ClientURL = strings.TrimRight(config.ClientURL, "/")
	return &CheckoutService{
		repos:   repos,
		gateway: gateway,
		config:  config,
		logger:  logger,
	}
}

// CreateDossierCheckout opens a hosted checkout for a dossier. The session
// metadata tells the webhook which procedure to settle or create.
func (s *CheckoutService) CreateDossierCheckout(ctx context.Context, userID string, req *DossierCheckoutRequest) (*DossierCheckoutResult, error) {
	env := &envelope.Envelope{
		UserID:         userID,
		HasFacturation: req.HasFacturation,
		HasEcheancier:  req.HasEcheancier,
	}

	switch {
	case req.ProcedureID != "":
		procedure, err := s.repos.Procedure.GetByID(ctx, req.ProcedureID)
		if err != nil {
			return nil, err
		}
		if procedure == nil || procedure.UserID != userID || procedure.Status != model.ProcedureStatusBrouillons {
			return nil, domainErrors.ErrNotFound
		}
		env.Kind = envelope.KindUpdateExistingDraft
		env.ProcedureID = procedure.ID
		env.HasEcheancier = env.HasEcheancier || len(procedure.Echeancier) > 0
	case req.ProcedureData != nil:
		if err := req.ProcedureData.Validate(); err != nil {
			return nil, apperrors.InvalidArgument("invalid procedure data", err)
		}
		env.Kind = envelope.KindFreshDraft
		env.ProcedureData = req.ProcedureData
		env.HasEcheancier = env.HasEcheancier || len(req.ProcedureData.Echeancier) > 0
	}

	if err := env.Validate(); err != nil {
		return nil, err
	}
	metadata, err := env.Encode()
	if err != nil {
		return nil, err
	}

	customerID, err := s.EnsureCustomer(ctx, userID)
	if err != nil {
		return nil, err
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, &provider.CreateCheckoutSessionRequest{
		CustomerID:  customerID,
		Amount:      provider.ToMinorUnits(s.config.DossierPrice, s.config.Currency),
		Currency:    s.config.Currency,
		ProductName: "Dossier de recouvrement",
		SuccessURL:  s.config.ClientURL + "/dossiers?checkout=success&session_id={CHECKOUT_SESSION_ID}",
		CancelURL:   s.config.ClientURL + "/dossiers?checkout=cancel",
		Metadata:    metadata,
	})
	if err != nil {
		return nil, err
	}
	metrics.IncPaymentInitiated("dossier")

	s.logger.Info("Dossier checkout created",
		zap.String("user_id", userID),
		zap.String("session_id", session.ID),
		zap.String("kind", string(env.Kind)))

	return &DossierCheckoutResult{
		SessionID: session.ID,
		URL:       session.URL,
	}, nil
}

// CreateInjonctionPayment starts the payment of the court injunction stage of a procedure
func (s *CheckoutService) CreateInjonctionPayment(ctx context.Context, userID, procedureID string) (*PaymentIntentResult, error) {
	procedure, err := s.repos.Procedure.GetByID(ctx, procedureID)
	if err != nil {
		return nil, err
	}
	if procedure == nil || procedure.UserID != userID || procedure.Status != model.ProcedureStatusInjonctionDePaiement {
		return nil, domainErrors.ErrNotFound
	}

	env := &envelope.Envelope{
		Kind:           envelope.KindUpdateExistingDraft,
		UserID:         userID,
		ProcedureID:    procedure.ID,
		IsInjonction:   true,
		HasEcheancier:  len(procedure.Echeancier) > 0,
		HasFacturation: procedure.HasFacturation,
	}
	if err := env.Validate(); err != nil {
		return nil, err
	}
	metadata, err := env.Encode()
	if err != nil {
		return nil, err
	}

	customerID, err := s.EnsureCustomer(ctx, userID)
	if err != nil {
		return nil, err
	}

	description := "Injonction de payer"
	pi, err := s.gateway.CreatePaymentIntent(ctx, &provider.CreatePaymentIntentRequest{
		Amount:      provider.ToMinorUnits(s.config.InjonctionPrice, s.config.Currency),
		Currency:    s.config.Currency,
		CustomerID:  customerID,
		Description: description,
		Metadata:    metadata,
	})
	if err != nil {
		return nil, err
	}

	payment := &model.Payment{
		ID:                    uuid.NewString(),
		UserID:                userID,
		StripePaymentIntentID: &pi.ID,
		Amount:                s.config.InjonctionPrice,
		Currency:              s.config.Currency,
		Status:                model.PaymentStatusPending,
		Description:           description,
		Metadata:              toJSONMap(metadata),
	}
	if err := s.repos.Payment.Create(ctx, payment); err != nil {
		return nil, err
	}
	metrics.IncPaymentInitiated("injonction")

	s.logger.Info("Injunction payment created",
		zap.String("procedure_id", procedure.ID),
		zap.String("payment_id", payment.ID),
		zap.String("payment_intent_id", pi.ID))

	return &PaymentIntentResult{
		ClientSecret:    pi.ClientSecret,
		PaymentIntentID: pi.ID,
		PaymentID:       payment.ID,
	}, nil
}

// EnsureCustomer returns the user's provider customer, creating it on first use
func (s *CheckoutService) EnsureCustomer(ctx context.Context, userID string) (string, error) {
	user, err := s.repos.User.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", domainErrors.ErrNotFound
	}
	if user.StripeCustomerID != nil && *user.StripeCustomerID != "" {
		return *user.StripeCustomerID, nil
	}

	customerID, err := s.gateway.CreateCustomer(ctx, &provider.CreateCustomerRequest{
		UserID: user.ID,
		Email:  user.Email,
	})
	if err != nil {
		return "", err
	}
	if err := s.repos.User.SetStripeCustomerID(ctx, user.ID, customerID); err != nil {
		return "", err
	}

	s.logger.Info("Provider customer created",
		zap.String("user_id", user.ID),
		zap.String("customer_id", customerID))
	return customerID, nil
}
