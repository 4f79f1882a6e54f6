package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and the query helpers so
// callers can use errors.Is() while users still get a readable message.
var (
	// ErrNoAPIURL is returned when the API endpoint is empty.
	ErrNoAPIURL = errors.New("no API URL configured")

	// ErrMissingAPIKey is returned when RAPIDAPI_KEY is not set.
	ErrMissingAPIKey = errors.New("RAPIDAPI_KEY not set in environment")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidRateLimit is returned when the rate limit is not positive.
	ErrInvalidRateLimit = errors.New("invalid rate limit: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is not positive.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be positive")

	// ErrInvalidLimits is returned when the offer window or a top-N limit is not positive.
	ErrInvalidLimits = errors.New("invalid offer limits: offer window and top counts must be positive")

	// ErrInvalidHistoryBackend is returned for a history backend other than csv or sqlite.
	ErrInvalidHistoryBackend = errors.New("invalid history backend: must be csv or sqlite")

	// ErrInvalidTimezone is returned when the timezone is not a known IANA zone.
	ErrInvalidTimezone = errors.New("invalid timezone: must be an IANA zone name such as Asia/Kolkata")

	// ErrInvalidAlertThreshold is returned when the alert threshold is negative.
	ErrInvalidAlertThreshold = errors.New("invalid alert threshold: must be non-negative")

	// ErrQueryNotFound is returned when the query parameter file does not exist.
	ErrQueryNotFound = errors.New("query file not found: create config/query_params.json or run 'flightdash init'")

	// ErrInvalidQuery is returned when the query file fails schema validation.
	ErrInvalidQuery = errors.New("invalid query")
)
