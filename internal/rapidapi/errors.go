package rapidapi

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingAPIKey is returned by NewClient when no API key is given.
	// It is reported before any network traffic happens.
	ErrMissingAPIKey = errors.New("RAPIDAPI_KEY not set in environment")

	// ErrMissingHost is returned by NewClient when the x-rapidapi-host value is empty.
	ErrMissingHost = errors.New("RapidAPI host is empty")

	// ErrInvalidURL is returned by NewClient when the endpoint is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid API URL: must be an absolute http or https URL")

	// ErrResponseTooLarge is returned when the response body exceeds the configured limit.
	ErrResponseTooLarge = errors.New("API response exceeds maximum body size")

	// ErrInvalidJSON is returned when the response body is not valid JSON.
	ErrInvalidJSON = errors.New("API response is not valid JSON")
)

// maxErrorBody is how much of a non-2xx body is kept in a StatusError.
const maxErrorBody = 512

// StatusError is returned when the API answers with a non-2xx status.
// Body holds the beginning of the response so quota and auth errors
// ("You are not subscribed to this API.") show up in the log.
type StatusError struct {
	StatusCode int
	Body       string
}

// Error implements error.
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("API returned status %d: %s", e.StatusCode, e.Body)
}

// Unauthorized reports whether the key was rejected or lacks a subscription.
func (e *StatusError) Unauthorized() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// RateLimited reports whether the quota was exhausted.
func (e *StatusError) RateLimited() bool {
	return e.StatusCode == 429
}
