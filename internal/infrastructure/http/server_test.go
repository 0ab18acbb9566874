package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	handlers "github.com/AllanBUSI/Fairpay-sub000/internal/adapter/handler/http"
	"github.com/AllanBUSI/Fairpay-sub000/internal/config"
	domainErrors "github.com/AllanBUSI/Fairpay-sub000/internal/domain/errors"
	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/provider"
	"github.com/AllanBUSI/Fairpay-sub000/internal/usecase"
)

type rejectAll struct{}

func (rejectAll) Verify([]byte, string) (*provider.Event, error) {
	return nil, domainErrors.ErrMissingSignature
}

func (rejectAll) Dispatch(context.Context, *provider.Event) (usecase.Outcome, error) {
	return usecase.OutcomeIgnored, nil
}

func newTestServer() *Server {
	cfg := &config.Config{
		Service: config.ServiceConfig{Name: "fairpay", ClientURL: "http://localhost:3000"},
		JWT:     config.JWTConfig{Secret: "secret"},
	}
	log := zap.NewNop()
	return NewServer(cfg, log, Handlers{
		Webhook:  handlers.NewWebhookHandler(rejectAll{}, rejectAll{}, log),
		Payment:  handlers.NewPaymentHandler(nil, nil, log),
		Checkout: handlers.NewCheckoutHandler(nil, log),
	})
}

func TestServerRoutes(t *testing.T) {
	s := newTestServer()

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodPost, "/webhook", http.StatusBadRequest},
		{http.MethodPost, "/api/v1/webhooks/stripe", http.StatusBadRequest},
		{http.MethodPost, "/api/v1/payments/retry", http.StatusUnauthorized},
		{http.MethodPost, "/api/v1/payments/injonction", http.StatusUnauthorized},
		{http.MethodPost, "/api/v1/checkout/dossier", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.Echo().ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
