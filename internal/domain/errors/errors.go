package errors

import (
	apperrors "github.com/AllanBUSI/Fairpay-sub000/pkg/errors"
)

var (
	// ErrMissingSignature is returned when a webhook arrives without a signature header
	ErrMissingSignature = apperrors.NewAppError(apperrors.ErrMissingSignature, "missing signature header", nil)

	// ErrInvalidSignature is returned when the signature does not match the payload
	ErrInvalidSignature = apperrors.NewAppError(apperrors.ErrInvalidSignature, "invalid signature", nil)

	// ErrMalformedMetadata marks an event whose metadata envelope cannot be acted on
	ErrMalformedMetadata = apperrors.NewAppError(apperrors.ErrMalformedMetadata, "malformed event metadata", nil)

	// ErrNotFound covers both missing and foreign resources in user-facing flows
	ErrNotFound = apperrors.NewAppError(apperrors.ErrNotFound, "not found", nil)

	// ErrInvalidTransition is returned when a payment or procedure cannot move to the requested state
	ErrInvalidTransition = apperrors.NewAppError(apperrors.ErrConflict, "invalid state transition", nil)

	// ErrNoCustomer indicates that the user has no associated Stripe customer
	ErrNoCustomer = apperrors.NewAppError(apperrors.ErrNotFound, "no provider customer for user", nil)
)
