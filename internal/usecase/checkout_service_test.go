package usecase_test

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/envelope"
	domainErrors "github.com/AllanBUSI/Fairpay-sub000/internal/domain/errors"
	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/model"
	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/provider"
	"github.com/AllanBUSI/Fairpay-sub000/internal/usecase"
	apperrors "github.com/AllanBUSI/Fairpay-sub000/pkg/errors"
)

func newCheckoutService(env *testEnv) *usecase.CheckoutService {
	return usecase.NewCheckoutService(&env.repos.Repositories, env.gateway, usecase.CheckoutConfig{
		Currency:        "eur",
		DossierPrice:    decimal.RequireFromString("49.00"),
		InjonctionPrice: decimal.RequireFromString("89.50"),
		ClientURL:       "https://app.example.com/",
	}, zap.NewNop())
}

func TestCreateDossierCheckout_FromSnapshot(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.seedUser(t, "")

	env.gateway.On("CreateCustomer", mock.Anything, mock.MatchedBy(func(req *provider.CreateCustomerRequest) bool {
		return req.UserID == user.ID
	})).Return("cus_new", nil).Once()

	var captured *provider.CreateCheckoutSessionRequest
	env.gateway.On("CreateCheckoutSession", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(*provider.CreateCheckoutSessionRequest)
		}).
		Return(&provider.CheckoutSession{ID: "cs_new", URL: "https://checkout.example.com/cs_new"}, nil).Once()

	service := newCheckoutService(env)
	result, err := service.CreateDossierCheckout(ctx, user.ID, &usecase.DossierCheckoutRequest{
		ProcedureData:  testSnapshot("12345678901234", 1),
		HasFacturation: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_new", result.SessionID)
	assert.Equal(t, "https://checkout.example.com/cs_new", result.URL)

	require.NotNil(t, captured)
	assert.Equal(t, int64(4900), captured.Amount)
	assert.Equal(t, "cus_new", captured.CustomerID)
	assert.True(t, strings.HasPrefix(captured.SuccessURL, "https://app.example.com/dossiers"))
	assert.Equal(t, user.ID, captured.Metadata[envelope.KeyUserID])
	assert.Equal(t, "true", captured.Metadata[envelope.KeyHasFacturation])
	assert.Equal(t, "true", captured.Metadata[envelope.KeyHasEcheancier])

	parsed, err := envelope.Parse(captured.Metadata)
	require.NoError(t, err)
	assert.Equal(t, envelope.KindFreshDraft, parsed.Kind)

	stored, err := env.repos.User.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "cus_new", *stored.StripeCustomerID)
	env.gateway.AssertExpectations(t)
}

func TestCreateDossierCheckout_RejectsBadInput(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.seedUser(t, "cus_123")
	other := env.seedUser(t, "cus_other")
	paid := env.seedProcedure(t, user.ID, model.ProcedureStatusNouveau, model.PaymentStatusSucceeded.Ptr())
	foreign := env.seedProcedure(t, other.ID, model.ProcedureStatusBrouillons, nil)
	service := newCheckoutService(env)

	t.Run("neither id nor data", func(t *testing.T) {
		_, err := service.CreateDossierCheckout(ctx, user.ID, &usecase.DossierCheckoutRequest{})
		assert.True(t, apperrors.HasCode(err, apperrors.ErrInvalidArgument))
	})

	t.Run("invalid siret", func(t *testing.T) {
		_, err := service.CreateDossierCheckout(ctx, user.ID, &usecase.DossierCheckoutRequest{
			ProcedureData: testSnapshot("123", 0),
		})
		assert.True(t, apperrors.HasCode(err, apperrors.ErrInvalidArgument))
	})

	t.Run("procedure already paid", func(t *testing.T) {
		_, err := service.CreateDossierCheckout(ctx, user.ID, &usecase.DossierCheckoutRequest{ProcedureID: paid.ID})
		assert.ErrorIs(t, err, domainErrors.ErrNotFound)
	})

	t.Run("procedure of another user", func(t *testing.T) {
		_, err := service.CreateDossierCheckout(ctx, user.ID, &usecase.DossierCheckoutRequest{ProcedureID: foreign.ID})
		assert.ErrorIs(t, err, domainErrors.ErrNotFound)
	})

	env.gateway.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
}

func TestCreateInjonctionPayment(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.seedUser(t, "cus_123")
	procedure := env.seedProcedure(t, user.ID, model.ProcedureStatusInjonctionDePaiement, nil)

	env.gateway.On("CreatePaymentIntent", mock.Anything, mock.MatchedBy(func(req *provider.CreatePaymentIntentRequest) bool {
		return req.Amount == 8950 &&
			req.CustomerID == "cus_123" &&
			req.Metadata[envelope.KeyIsInjonction] == "true" &&
			req.Metadata[envelope.KeyProcedureID] == procedure.ID
	})).Return(&provider.PaymentIntent{ID: "pi_inj", ClientSecret: "pi_inj_secret"}, nil).Once()

	service := newCheckoutService(env)
	result, err := service.CreateInjonctionPayment(ctx, user.ID, procedure.ID)
	require.NoError(t, err)
	assert.Equal(t, "pi_inj", result.PaymentIntentID)

	payment := env.payment(t, result.PaymentID)
	assert.Equal(t, model.PaymentStatusPending, payment.Status)
	assert.Equal(t, "pi_inj", *payment.StripePaymentIntentID)
	assert.True(t, payment.Amount.Equal(decimal.RequireFromString("89.50")))

	_, err = service.CreateInjonctionPayment(ctx, user.ID, "unknown")
	assert.ErrorIs(t, err, domainErrors.ErrNotFound)
	env.gateway.AssertExpectations(t)
}
