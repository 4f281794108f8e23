package intent

import "errors"

var (
	// ErrPrimaryUnavailable tags a primary-path result that must not be used.
	ErrPrimaryUnavailable = errors.New("primary intent classification unavailable")
	ErrModelNotTrained    = errors.New("intent model not trained")
)
