package ai

import (
	"context"
	"fmt"

	"github.com/kiranshivaraju/qualitylens/internal/ai/gemini"
	"github.com/kiranshivaraju/qualitylens/internal/ai/ollama"
	"github.com/kiranshivaraju/qualitylens/internal/config"
	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

// NewProvider constructs the appropriate reasoning provider based on config.
// Called once at server startup.
func NewProvider(ctx context.Context, cfg config.AIConfig) (models.ReasoningProvider, error) {
	switch cfg.Provider {
	case "gemini":
		return gemini.NewProvider(ctx, cfg.Gemini)
	case "ollama":
		return ollama.NewProvider(cfg.Ollama), nil
	case "none":
		return NewDisabledProvider(), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q: must be one of gemini, ollama, none", cfg.Provider)
	}
}

// DisabledProvider fails every call with ErrProviderUnavailable. It lets
// the service run on its local fallbacks alone.
type DisabledProvider struct{}

func NewDisabledProvider() *DisabledProvider { return &DisabledProvider{} }

func (DisabledProvider) Name() string { return "none" }

func (DisabledProvider) ClassifyIntent(context.Context, string) ([]string, error) {
	return nil, fmt.Errorf("%w: reasoning disabled", ErrProviderUnavailable)
}

func (DisabledProvider) AnalyzeTopics(context.Context, []models.Observation, string) (models.TopicAnalysis, error) {
	return models.TopicAnalysis{}, fmt.Errorf("%w: reasoning disabled", ErrProviderUnavailable)
}

func (DisabledProvider) SummarizeInsight(context.Context, []models.Topic) (string, error) {
	return "", fmt.Errorf("%w: reasoning disabled", ErrProviderUnavailable)
}

var _ models.ReasoningProvider = (*DisabledProvider)(nil)
