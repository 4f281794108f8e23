package ai_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiranshivaraju/qualitylens/internal/ai"
	"github.com/kiranshivaraju/qualitylens/internal/config"
)

func TestNewProvider_Ollama(t *testing.T) {
	cfg := config.AIConfig{
		Provider: "ollama",
		Ollama:   config.OllamaConfig{BaseURL: "http://localhost:11434", Model: "llama3"},
	}
	p, err := ai.NewProvider(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "ollama", p.Name())
}

func TestNewProvider_Gemini(t *testing.T) {
	cfg := config.AIConfig{
		Provider: "gemini",
		Gemini:   config.GeminiConfig{APIKey: "test-key", Model: "gemini-2.5-flash"},
	}
	p, err := ai.NewProvider(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "gemini", p.Name())
}

func TestNewProvider_GeminiWithoutKey(t *testing.T) {
	cfg := config.AIConfig{Provider: "gemini"}
	_, err := ai.NewProvider(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestNewProvider_None(t *testing.T) {
	p, err := ai.NewProvider(context.Background(), config.AIConfig{Provider: "none"})
	require.NoError(t, err)
	assert.Equal(t, "none", p.Name())

	_, err = p.ClassifyIntent(context.Background(), "q")
	assert.ErrorIs(t, err, ai.ErrProviderUnavailable)
	_, err = p.AnalyzeTopics(context.Background(), nil, "q")
	assert.ErrorIs(t, err, ai.ErrProviderUnavailable)
	_, err = p.SummarizeInsight(context.Background(), nil)
	assert.ErrorIs(t, err, ai.ErrProviderUnavailable)
}

func TestNewProvider_Unknown(t *testing.T) {
	cfg := config.AIConfig{Provider: "unknown-provider"}
	_, err := ai.NewProvider(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown AI provider")
	assert.Contains(t, err.Error(), "unknown-provider")
}

func TestNewProvider_Empty(t *testing.T) {
	cfg := config.AIConfig{Provider: ""}
	_, err := ai.NewProvider(context.Background(), cfg)
	require.Error(t, err)
}
