package errors

// CodePair maps an error code onto transport status codes
type CodePair struct {
	HTTPStatus int
	GRPCCode   int
}

var codeMapping = map[string]CodePair{
	ErrInternal:          {500, 13}, // Internal Server Error, INTERNAL
	ErrNotFound:          {404, 5},  // Not Found, NOT_FOUND
	ErrInvalidArgument:   {400, 3},  // Bad Request, INVALID_ARGUMENT
	ErrUnauthenticated:   {401, 16}, // Unauthorized, UNAUTHENTICATED
	ErrUnauthorized:      {403, 7},  // Forbidden, PERMISSION_DENIED
	ErrConflict:          {409, 6},  // Conflict, ALREADY_EXISTS
	ErrTimeout:           {504, 4},  // Gateway Timeout, DEADLINE_EXCEEDED
	ErrNotImplemented:    {501, 12}, // Not Implemented, UNIMPLEMENTED
	ErrMissingSignature:  {400, 3},
	ErrInvalidSignature:  {400, 3},
	ErrMalformedMetadata: {422, 3},
	ErrProviderFailure:   {502, 14}, // Bad Gateway, UNAVAILABLE
}

// GetCodeMapping returns the HTTP and gRPC codes for an error code
func GetCodeMapping(code string) (int, int) {
	if pair, ok := codeMapping[code]; ok {
		return pair.HTTPStatus, pair.GRPCCode
	}
	return 500, 13
}
