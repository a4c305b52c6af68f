package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. inverted time window, reorder set mismatch).
// Handlers should map this to HTTP 400.
var ErrValidation = errors.New("validation error")

// ErrForbidden is returned when the caller is not a member of the trip that
// owns the resource, or lacks the required role. Also covers moving an
// activity to a day of a different trip, which is a boundary violation
// rather than a not-found. Handlers should map this to HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a unique constraint rejects a write, e.g.
// adding a member who already belongs to the trip.
// Handlers should map this to HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrNotConnected is returned by the import pipeline when the user has no
// Gmail connection. The scan fails fast before any message processing.
// Handlers should map this to HTTP 400.
var ErrNotConnected = errors.New("gmail not connected")

// ErrUpstream is returned when an external collaborator (token refresh,
// Gmail, the extraction service) fails in a way that aborts the whole
// operation. Handlers should map this to HTTP 503.
var ErrUpstream = errors.New("upstream error")
