package domain

import "errors"

// ErrExtraction is returned when every model tier failed to produce a valid
// candidate payload. Callers show a "couldn't understand this link" message.
var ErrExtraction = errors.New("extraction failed")

// ErrPersistenceConflict is returned by item stores when a write would violate
// the (trip, provider place id) uniqueness invariant.
var ErrPersistenceConflict = errors.New("persistence conflict")

// ErrPrecondition aborts an import: the trip's existing items could not be read.
var ErrPrecondition = errors.New("import precondition failed")

// ErrTripNotFound is returned by item stores when the trip does not exist.
var ErrTripNotFound = errors.New("trip not found")

// ErrNotFound is returned when a saved item does not exist.
var ErrNotFound = errors.New("not found")

// ErrValidation marks input that fails business rules.
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")
