// Package ollama implements models.ReasoningProvider on a local Ollama
// server through its non-streaming chat endpoint.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kiranshivaraju/qualitylens/internal/ai/reasoning"
	"github.com/kiranshivaraju/qualitylens/internal/config"
	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
	Stream   bool      `json:"stream"`
	Format   any       `json:"format,omitempty"`
}

type chatResponse struct {
	Message message `json:"message"`
}

var intentFormat = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"intents": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string", "enum": reasoning.IntentTags},
		},
	},
	"required": []string{"intents"},
}

var topicFormat = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"summary": map[string]any{"type": "string"},
		"topics": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":  map[string]any{"type": "string"},
					"count": map[string]any{"type": "integer"},
				},
				"required": []string{"name", "count"},
			},
		},
	},
	"required": []string{"summary", "topics"},
}

var insightFormat = map[string]any{
	"type":       "object",
	"properties": map[string]any{"insight": map[string]any{"type": "string"}},
	"required":   []string{"insight"},
}

// Provider implements models.ReasoningProvider using Ollama.
type Provider struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewProvider(cfg config.OllamaConfig) *Provider {
	return &Provider{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		httpClient: &http.Client{},
	}
}

func (p *Provider) Name() string { return "ollama" }

func (p *Provider) ClassifyIntent(ctx context.Context, query string) ([]string, error) {
	text, err := p.chat(ctx, reasoning.IntentPrompt(query), intentFormat)
	if err != nil {
		return nil, err
	}
	return reasoning.DecodeIntents(text)
}

func (p *Provider) AnalyzeTopics(ctx context.Context, sample []models.Observation, query string) (models.TopicAnalysis, error) {
	text, err := p.chat(ctx, reasoning.TopicPrompt(sample, query), topicFormat)
	if err != nil {
		return models.TopicAnalysis{}, err
	}
	return reasoning.DecodeTopics(text)
}

func (p *Provider) SummarizeInsight(ctx context.Context, topics []models.Topic) (string, error) {
	text, err := p.chat(ctx, reasoning.InsightPrompt(topics), insightFormat)
	if err != nil {
		return "", err
	}
	return reasoning.DecodeInsight(text)
}

func (p *Provider) chat(ctx context.Context, prompt string, format any) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:    p.model,
		Messages: []message{{Role: "user", Content: prompt}},
		Stream:   false,
		Format:   format,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: ollama status %d: %s", reasoning.ErrProviderUnavailable, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("%w: decoding chat response: %v", reasoning.ErrInvalidResponse, err)
	}
	if strings.TrimSpace(cr.Message.Content) == "" {
		return "", fmt.Errorf("%w: empty ollama response", reasoning.ErrInvalidResponse)
	}
	return cr.Message.Content, nil
}

func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", reasoning.ErrInferenceTimeout, err)
	}
	return fmt.Errorf("%w: ollama: %v", reasoning.ErrProviderUnavailable, err)
}

var _ models.ReasoningProvider = (*Provider)(nil)
