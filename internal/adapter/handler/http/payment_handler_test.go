package http_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	handlers "github.com/AllanBUSI/Fairpay-sub000/internal/adapter/handler/http"
	domainErrors "github.com/AllanBUSI/Fairpay-sub000/internal/domain/errors"
	"github.com/AllanBUSI/Fairpay-sub000/internal/usecase"
	apperrors "github.com/AllanBUSI/Fairpay-sub000/pkg/errors"
)

func TestPaymentHandler_RetryPayment(t *testing.T) {
	result := &usecase.PaymentIntentResult{ClientSecret: "pi_new_secret", PaymentIntentID: "pi_new", PaymentID: "pay_1"}

	tests := []struct {
		name       string
		auth       bool
		body       string
		serviceErr error
		wantStatus int
		wantBody   string
	}{
		{name: "unauthenticated", body: `{"paymentId":"pay_1"}`, wantStatus: http.StatusUnauthorized},
		{name: "missing payment id", auth: true, body: `{}`, wantStatus: http.StatusBadRequest, wantBody: "paymentId is required"},
		{name: "malformed body", auth: true, body: `{"paymentId":`, wantStatus: http.StatusBadRequest},
		{name: "not found", auth: true, body: `{"paymentId":"pay_1"}`, serviceErr: domainErrors.ErrNotFound, wantStatus: http.StatusNotFound},
		{name: "provider failure", auth: true, body: `{"paymentId":"pay_1"}`,
			serviceErr: apperrors.NewAppError(apperrors.ErrProviderFailure, "provider unavailable", errors.New("circuit breaker is open")),
			wantStatus: http.StatusInternalServerError, wantBody: "Failed to retry payment"},
		{name: "success", auth: true, body: `{"paymentId":"pay_1"}`, wantStatus: http.StatusOK,
			wantBody: `"clientSecret":"pi_new_secret","paymentIntentId":"pi_new","paymentId":"pay_1"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(mockPayments)
			service.On("RetryPayment", mock.Anything, "user-1", "pay_1").Return(result, tt.serviceErr).Maybe()

			h := handlers.NewPaymentHandler(service, service, zap.NewNop())
			e := newProtected("/api/v1/payments/retry", h.RetryPayment)

			authHeader := ""
			if tt.auth {
				authHeader = bearer(t, "user-1")
			}
			rec := doJSON(e, "/api/v1/payments/retry", authHeader, tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
			assert.NotContains(t, rec.Body.String(), "circuit breaker")
		})
	}
}

func TestPaymentHandler_CreateInjonctionPayment(t *testing.T) {
	service := new(mockPayments)
	service.On("CreateInjonctionPayment", mock.Anything, "user-1", "proc_1").
		Return(&usecase.PaymentIntentResult{ClientSecret: "secret", PaymentIntentID: "pi_inj", PaymentID: "pay_2"}, nil).Once()

	h := handlers.NewPaymentHandler(service, service, zap.NewNop())
	e := newProtected("/api/v1/payments/injonction", h.CreateInjonctionPayment)

	rec := doJSON(e, "/api/v1/payments/injonction", bearer(t, "user-1"), `{"procedureId":"proc_1"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"paymentIntentId":"pi_inj"`)

	rec = doJSON(e, "/api/v1/payments/injonction", bearer(t, "user-1"), `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	service.AssertExpectations(t)
}
