package models

import "errors"

// Error kinds surfaced by the token store. Handlers map these to HTTP
// status codes with errors.Is; anything unrecognized is a remote-store
// failure.
var (
	ErrValidation = errors.New("validation error")
	ErrDuplicate  = errors.New("duplicate value")
	ErrNotFound   = errors.New("token not found")
)
