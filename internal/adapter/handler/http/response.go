package http

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "github.com/AllanBUSI/Fairpay-sub000/pkg/errors"
)

// RequestValidator plugs validator v10 into echo's c.Validate
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

func (v *RequestValidator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return apperrors.InvalidArgument("invalid request body", err)
	}
	return nil
}

// writeError renders err as {"error": message}. Anything mapped to a 5xx is
// reported as a plain 500 without its cause.
func writeError(c echo.Context, logger *zap.Logger, err error, msg string) error {
	status := apperrors.ToHTTPStatus(apperrors.CodeOf(err))
	if status >= http.StatusInternalServerError {
		apperrors.LogError(logger, err, msg, zap.String("path", c.Request().URL.Path))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": msg})
	}

	apperrors.LogWarn(logger, err, msg, zap.String("path", c.Request().URL.Path))
	message := http.StatusText(status)
	if httpErr := apperrors.ToHTTPError(err); httpErr != nil {
		if m, ok := httpErr.Message.(string); ok && m != "" {
			message = m
		}
	}
	return c.JSON(status, echo.Map{"error": message})
}
