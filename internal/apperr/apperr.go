// Package apperr defines the error taxonomy shared across the service,
// provider client and repositories. Callers classify failures with errors.Is
// and wrap these sentinels with fmt.Errorf to attach context (query, city id,
// coordinates) without leaking raw upstream payloads.
package apperr

import "errors"

var (
	// ErrNotFound means a referenced city id does not exist. Never retried.
	ErrNotFound = errors.New("not found")

	// ErrProviderUnavailable means the upstream weather API could not be
	// reached (network error, timeout, 5xx). Retried once inside the client.
	ErrProviderUnavailable = errors.New("weather provider unavailable")

	// ErrProviderBadResponse means the upstream payload could not be parsed
	// into the expected shape. Never retried.
	ErrProviderBadResponse = errors.New("weather provider returned malformed response")

	// ErrConcurrencyConflict means the history upsert could not be applied
	// after bounded retries.
	ErrConcurrencyConflict = errors.New("concurrent update conflict")
)
