// Package admission owns the relationship between an event's capacity and
// its registrations: seating or waitlisting on admit, FIFO promotion when a
// counted seat frees up, and admin status changes on the roster.
package admission

import "errors"

// ErrEventNotFound is returned when the event id does not resolve.
var ErrEventNotFound = errors.New("event not found")

// ErrRegistrationNotFound is returned when the registration id does not resolve.
var ErrRegistrationNotFound = errors.New("registration not found")

// ErrForbidden is returned when the actor lacks permission for the mutation.
var ErrForbidden = errors.New("forbidden")

// ErrCapacityExceeded is returned when promoting would overshoot capacity.
var ErrCapacityExceeded = errors.New("event is at capacity")

// ErrAlreadyRegistered is returned when the user already holds a
// non-cancelled registration for the event.
var ErrAlreadyRegistered = errors.New("already registered for this event")

// ErrInvalidTransition is returned for status changes outside the defined
// state machine.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrStoreUnavailable wraps transient storage failures. The caller decides
// whether to retry; this package never retries internally.
var ErrStoreUnavailable = errors.New("store unavailable")
