package http_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	handlers "github.com/AllanBUSI/Fairpay-sub000/internal/adapter/handler/http"
	"github.com/AllanBUSI/Fairpay-sub000/internal/usecase"
	apperrors "github.com/AllanBUSI/Fairpay-sub000/pkg/errors"
)

func TestCheckoutHandler_CreateDossierCheckout(t *testing.T) {
	service := new(mockPayments)
	service.On("CreateDossierCheckout", mock.Anything, "user-1", mock.MatchedBy(func(req *usecase.DossierCheckoutRequest) bool {
		return req.ProcedureID == "proc_1" && req.HasFacturation
	})).Return(&usecase.DossierCheckoutResult{SessionID: "cs_1", URL: "https://checkout.example.com/cs_1"}, nil).Once()

	h := handlers.NewCheckoutHandler(service, zap.NewNop())
	e := newProtected("/api/v1/checkout/dossier", h.CreateDossierCheckout)

	rec := doJSON(e, "/api/v1/checkout/dossier", bearer(t, "user-1"), `{"procedureId":"proc_1","hasFacturation":true}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"sessionId":"cs_1","url":"https://checkout.example.com/cs_1"}`, rec.Body.String())
	service.AssertExpectations(t)
}

func TestCheckoutHandler_RejectsEmptyRequest(t *testing.T) {
	service := new(mockPayments)
	h := handlers.NewCheckoutHandler(service, zap.NewNop())
	e := newProtected("/api/v1/checkout/dossier", h.CreateDossierCheckout)

	rec := doJSON(e, "/api/v1/checkout/dossier", bearer(t, "user-1"), `{"hasFacturation":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	service.AssertNotCalled(t, "CreateDossierCheckout", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckoutHandler_InvalidSnapshot(t *testing.T) {
	service := new(mockPayments)
	service.On("CreateDossierCheckout", mock.Anything, "user-1", mock.Anything).
		Return(nil, apperrors.InvalidArgument("invalid procedure data", nil)).Once()

	h := handlers.NewCheckoutHandler(service, zap.NewNop())
	e := newProtected("/api/v1/checkout/dossier", h.CreateDossierCheckout)

	rec := doJSON(e, "/api/v1/checkout/dossier", bearer(t, "user-1"), `{"procedureData":{"client":{"siret":"1"}}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid procedure data")
}
