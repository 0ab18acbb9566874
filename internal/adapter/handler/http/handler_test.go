package http_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	handlers "github.com/AllanBUSI/Fairpay-sub000/internal/adapter/handler/http"
	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/provider"
	"github.com/AllanBUSI/Fairpay-sub000/internal/middleware/auth"
	"github.com/AllanBUSI/Fairpay-sub000/internal/usecase"
)

const jwtSecret = "handler-test-secret"

type mockVerifier struct{ mock.Mock }

func (m *mockVerifier) Verify(payload []byte, header string) (*provider.Event, error) {
	args := m.Called(payload, header)
	event, _ := args.Get(0).(*provider.Event)
	return event, args.Error(1)
}

type mockDispatcher struct{ mock.Mock }

func (m *mockDispatcher) Dispatch(ctx context.Context, event *provider.Event) (usecase.Outcome, error) {
	args := m.Called(ctx, event)
	return args.Get(0).(usecase.Outcome), args.Error(1)
}

type mockPayments struct{ mock.Mock }

func (m *mockPayments) RetryPayment(ctx context.Context, userID, paymentID string) (*usecase.PaymentIntentResult, error) {
	args := m.Called(ctx, userID, paymentID)
	result, _ := args.Get(0).(*usecase.PaymentIntentResult)
	return result, args.Error(1)
}

func (m *mockPayments) CreateInjonctionPayment(ctx context.Context, userID, procedureID string) (*usecase.PaymentIntentResult, error) {
	args := m.Called(ctx, userID, procedureID)
	result, _ := args.Get(0).(*usecase.PaymentIntentResult)
	return result, args.Error(1)
}

func (m *mockPayments) CreateDossierCheckout(ctx context.Context, userID string, req *usecase.DossierCheckoutRequest) (*usecase.DossierCheckoutResult, error) {
	args := m.Called(ctx, userID, req)
	result, _ := args.Get(0).(*usecase.DossierCheckoutResult)
	return result, args.Error(1)
}

// newProtected mounts h behind the JWT middleware at path
func newProtected(path string, h echo.HandlerFunc) *echo.Echo {
	e := echo.New()
	e.Validator = handlers.NewRequestValidator()
	e.POST(path, h, auth.JWTMiddleware(auth.JWTConfig{Secret: jwtSecret, Logger: zap.NewNop()}))
	return e
}

func bearer(t *testing.T, userID string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func doJSON(e *echo.Echo, path, authHeader, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}
