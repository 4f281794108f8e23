// Package reasoning holds what every reasoning provider shares: the
// prompts, the decoding of structured answers and the error taxonomy.
package reasoning

import "errors"

var (
	ErrProviderUnavailable = errors.New("reasoning provider unavailable")
	ErrInferenceTimeout    = errors.New("reasoning inference timeout")
	ErrInvalidResponse     = errors.New("reasoning provider returned invalid response")
)
