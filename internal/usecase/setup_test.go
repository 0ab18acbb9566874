package usecase_test

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AllanBUSI/Fairpay-sub000/internal/config"
	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/envelope"
	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/model"
	"github.com/AllanBUSI/Fairpay-sub000/internal/infrastructure/database"
	"github.com/AllanBUSI/Fairpay-sub000/internal/usecase"
)

const testPriceID = "price_facturation"

type testEnv struct {
	db         *gorm.DB
	repos      *database.Repositories
	gateway    *MockPaymentGateway
	reconciler *usecase.Reconciler
	router     *usecase.WebhookRouter
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()

	db, err := database.NewConnection(&config.DatabaseConfig{
		Driver:   config.DriverSQLite,
		Path:     ":memory:",
		LogLevel: "silent",
	}, logger)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, logger))
	t.Cleanup(func() { _ = database.Close(db, logger) })

	repos := database.NewRepositories(db, logger)
	gateway := new(MockPaymentGateway)
	reconciler := usecase.NewReconciler(&repos.Repositories, repos.Tx, gateway, usecase.ReconcilerConfig{
		SubscriptionPriceID: testPriceID,
	}, logger)

	return &testEnv{
		db:         db,
		repos:      repos,
		gateway:    gateway,
		reconciler: reconciler,
		router:     usecase.NewWebhookRouter(reconciler, repos.Webhook, logger),
	}
}

func (e *testEnv) seedUser(t *testing.T, customerID string) *model.User {
	t.Helper()
	user := &model.User{ID: uuid.NewString(), Email: "owner@example.com"}
	if customerID != "" {
		user.StripeCustomerID = &customerID
	}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) seedProcedure(t *testing.T, userID string, status model.ProcedureStatus, paymentStatus *model.PaymentStatus) *model.Procedure {
	t.Helper()
	client := &model.Client{ID: uuid.NewString(), UserID: userID, Siret: model.PlaceholderSiret}
	require.NoError(t, e.db.Create(client).Error)

	procedure := &model.Procedure{
		ID:            uuid.NewString(),
		UserID:        userID,
		ClientID:      &client.ID,
		Status:        status,
		PaymentStatus: paymentStatus,
		MontantDu:     decimal.NewFromInt(1500),
	}
	require.NoError(t, e.db.Omit("Client", "Documents").Create(procedure).Error)
	return procedure
}

func (e *testEnv) seedPayment(t *testing.T, userID string, procedureID *string, intentID string, status model.PaymentStatus) *model.Payment {
	t.Helper()
	payment := &model.Payment{
		ID:                    uuid.NewString(),
		UserID:                userID,
		ProcedureID:           procedureID,
		StripePaymentIntentID: &intentID,
		Amount:                decimal.RequireFromString("49.00"),
		Currency:              "eur",
		Status:                status,
		Description:           "Dossier de recouvrement",
	}
	require.NoError(t, e.db.Create(payment).Error)
	return payment
}

func (e *testEnv) procedure(t *testing.T, id string) *model.Procedure {
	t.Helper()
	var procedure model.Procedure
	require.NoError(t, e.db.First(&procedure, "id = ?", id).Error)
	return &procedure
}

func (e *testEnv) payment(t *testing.T, id string) *model.Payment {
	t.Helper()
	var payment model.Payment
	require.NoError(t, e.db.First(&payment, "id = ?", id).Error)
	return &payment
}

func (e *testEnv) count(t *testing.T, table interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(table).Count(&n).Error)
	return n
}

func testSnapshot(siret string, installments int) *envelope.ProcedureSnapshot {
	snapshot := &envelope.ProcedureSnapshot{
		Client: envelope.ClientSnapshot{
			Siret:         siret,
			RaisonSociale: "ACME SAS",
			Ville:         "Lyon",
		},
		Documents: []envelope.DocumentSnapshot{
			{Type: "FACTURE", Numero: "F-2024-001", Montant: decimal.NewFromInt(1200), DateEmission: "2024-01-15"},
			{Type: "BON_DE_COMMANDE", Numero: "BC-77", Montant: decimal.NewFromInt(300)},
		},
		MontantDu:   decimal.NewFromInt(1500),
		Description: "Facture impayée",
	}
	for i := 0; i < installments; i++ {
		snapshot.Echeancier = append(snapshot.Echeancier, envelope.InstallmentSnapshot{
			Date:    "2024-0" + string(rune('1'+i)) + "-01",
			Montant: decimal.NewFromInt(100),
		})
	}
	return snapshot
}

func snapshotJSON(t *testing.T, snapshot *envelope.ProcedureSnapshot) string {
	t.Helper()
	raw, err := json.Marshal(snapshot)
	require.NoError(t, err)
	return string(raw)
}
