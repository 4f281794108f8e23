package ai

import "github.com/kiranshivaraju/qualitylens/internal/ai/reasoning"

// Provider errors. They are the reasoning package's sentinels, so errors
// returned by any provider match them with errors.Is.
var (
	ErrProviderUnavailable = reasoning.ErrProviderUnavailable
	ErrInferenceTimeout    = reasoning.ErrInferenceTimeout
	ErrInvalidResponse     = reasoning.ErrInvalidResponse
)
