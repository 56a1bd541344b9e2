package services

import "errors"

// Error taxonomy surfaced at the HTTP boundary. Handlers map
// ErrValidation to 400 and everything else to 500; ErrSession never
// escapes a send directly, it only shows up on the group listing.
var (
	ErrValidation  = errors.New("validation failed")
	ErrDelivery    = errors.New("delivery failed")
	ErrPersistence = errors.New("persistence failed")
	ErrSession     = errors.New("session unavailable")
)
