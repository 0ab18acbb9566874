package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/AllanBUSI/Fairpay-sub000/internal/middleware/auth"
	"github.com/AllanBUSI/Fairpay-sub000/internal/usecase"
)

type DossierCheckouter interface {
	CreateDossierCheckout(ctx context.Context, userID string, req *usecase.DossierCheckoutRequest) (*usecase.DossierCheckoutResult, error)
}

type CheckoutHandler struct {
	checkout DossierCheckouter
	logger   *zap.Logger
}

func NewCheckoutHandler(checkout DossierCheckouter, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		logger:   logger,
	}
}

// CreateDossierCheckout opens a hosted checkout for a saved draft or a draft snapshot
func (h *CheckoutHandler) CreateDossierCheckout(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if user == nil {
		return err
	}

	var req usecase.DossierCheckoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if req.ProcedureID == "" && req.ProcedureData == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "procedureId or procedureData is required"})
	}

	h.logger.Info("Creating dossier checkout",
		zap.String("user_id", user.UserID),
		zap.String("procedure_id", req.ProcedureID),
		zap.Bool("has_procedure_data", req.ProcedureData != nil))

	result, err := h.checkout.CreateDossierCheckout(c.Request().Context(), user.UserID, &req)
	if err != nil {
		return writeError(c, h.logger.With(zap.String("user_id", user.UserID)), err, "Failed to create checkout session")
	}

	return c.JSON(http.StatusCreated, result)
}
