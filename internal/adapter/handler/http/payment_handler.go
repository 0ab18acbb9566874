package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/AllanBUSI/Fairpay-sub000/internal/middleware/auth"
	"github.com/AllanBUSI/Fairpay-sub000/internal/usecase"
)

type PaymentRetrier interface {
	RetryPayment(ctx context.Context, userID, paymentID string) (*usecase.PaymentIntentResult, error)
}

type InjonctionPayer interface {
	CreateInjonctionPayment(ctx context.Context, userID, procedureID string) (*usecase.PaymentIntentResult, error)
}

type PaymentHandler struct {
	retrier PaymentRetrier
	payer   InjonctionPayer
	logger  *zap.Logger
}

func NewPaymentHandler(retrier PaymentRetrier, payer InjonctionPayer, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		retrier: retrier,
		payer:   payer,
		logger:  logger,
	}
}

type RetryPaymentRequest struct {
	PaymentID string `json:"paymentId" validate:"required"`
}

type InjonctionPaymentRequest struct {
	ProcedureID string `json:"procedureId" validate:"required"`
}

// RetryPayment starts a new attempt for one of the caller's unpaid payments
func (h *PaymentHandler) RetryPayment(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if user == nil {
		return err
	}

	var req RetryPaymentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "paymentId is required"})
	}

	result, err := h.retrier.RetryPayment(c.Request().Context(), user.UserID, req.PaymentID)
	if err != nil {
		return writeError(c, h.logger.With(zap.String("user_id", user.UserID), zap.String("payment_id", req.PaymentID)),
			err, "Failed to retry payment")
	}

	return c.JSON(http.StatusOK, result)
}

// CreateInjonctionPayment starts the court-injunction payment of a procedure
func (h *PaymentHandler) CreateInjonctionPayment(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if user == nil {
		return err
	}

	var req InjonctionPaymentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "procedureId is required"})
	}

	result, err := h.payer.CreateInjonctionPayment(c.Request().Context(), user.UserID, req.ProcedureID)
	if err != nil {
		return writeError(c, h.logger.With(zap.String("user_id", user.UserID), zap.String("procedure_id", req.ProcedureID)),
			err, "Failed to create injunction payment")
	}

	return c.JSON(http.StatusCreated, result)
}
