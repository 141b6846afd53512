package constants

import "errors"

// CLI configuration errors.
var (
	ErrNoTokenConfigured   = errors.New("no access token configured, use 'graph login' or --token")
	ErrEmptyToken          = errors.New("token must not be empty")
	ErrInvalidHeader       = errors.New("invalid header, expected key:value")
	ErrInvalidQuery        = errors.New("invalid query parameter, expected key=value")
	ErrUnknownOutput       = errors.New("unknown output format")
	ErrUnknownMethod       = errors.New("unknown HTTP method")
	ErrUnknownCacheType    = errors.New("unknown cache type")
	ErrUnknownResponseType = errors.New("unknown response type")
	ErrMissingData         = errors.New("request body required, use --data or --file")
)
