package errors

// Shared error codes
const (
	ErrInternal        = "INTERNAL"
	ErrNotFound        = "NOT_FOUND"
	ErrInvalidArgument = "INVALID_ARGUMENT"
	ErrUnauthenticated = "UNAUTHENTICATED"
	ErrUnauthorized    = "UNAUTHORIZED"
	ErrConflict        = "CONFLICT"
	ErrTimeout         = "TIMEOUT"
	ErrNotImplemented  = "NOT_IMPLEMENTED"

	// Webhook boundary
	ErrMissingSignature  = "MISSING_SIGNATURE"
	ErrInvalidSignature  = "INVALID_SIGNATURE"
	ErrMalformedMetadata = "MALFORMED_METADATA"
	ErrProviderFailure   = "PROVIDER_FAILURE"
)
