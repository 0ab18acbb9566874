package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	domainErrors "github.com/AllanBUSI/Fairpay-sub000/internal/domain/errors"
	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/provider"
	"github.com/AllanBUSI/Fairpay-sub000/internal/infrastructure/metrics"
	"github.com/AllanBUSI/Fairpay-sub000/internal/usecase"
)

// MaxWebhookBody is the largest delivery accepted from the provider
const MaxWebhookBody = 1 << 20

const signatureHeader = "Stripe-Signature"

type EventVerifier interface {
	Verify(payload []byte, signatureHeader string) (*provider.Event, error)
}

type EventDispatcher interface {
	Dispatch(ctx context.Context, event *provider.Event) (usecase.Outcome, error)
}

// WebhookHandler receives provider deliveries
type WebhookHandler struct {
	verifier   EventVerifier
	dispatcher EventDispatcher
	logger     *zap.Logger
}

func NewWebhookHandler(verifier EventVerifier, dispatcher EventDispatcher, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		verifier:   verifier,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// HandleWebhook verifies the raw body, then hands the event to the router.
// A 500 asks the provider to redeliver.
func (h *WebhookHandler) HandleWebhook(c echo.Context) error {
	req := c.Request()
	body, err := io.ReadAll(http.MaxBytesReader(c.Response(), req.Body, MaxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.Warn("Webhook body too large", zap.Int64("limit", tooLarge.Limit))
			return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "Request body too large"})
		}
		h.logger.Error("Error reading request body", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Error reading request body"})
	}

	event, err := h.verifier.Verify(body, req.Header.Get(signatureHeader))
	if err != nil {
		reason := "invalid"
		message := "Webhook signature verification failed"
		if errors.Is(err, domainErrors.ErrMissingSignature) {
			reason = "missing"
			message = "Missing Stripe-Signature header"
		}
		metrics.IncSignatureFailure(reason)
		h.logger.Warn("Webhook rejected",
			zap.String("reason", reason),
			zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": message})
	}

	h.logger.Info("Webhook event received",
		zap.String("event_id", event.ID),
		zap.String("type", event.Type),
		zap.Time("created", event.Created))

	outcome, err := h.dispatcher.Dispatch(req.Context(), event)
	if err != nil {
		// already logged with event context by the router
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Webhook processing failed"})
	}

	h.logger.Debug("Webhook event acknowledged",
		zap.String("event_id", event.ID),
		zap.String("outcome", string(outcome)))
	return c.JSON(http.StatusOK, echo.Map{"received": true})
}
