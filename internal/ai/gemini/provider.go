// Package gemini implements models.ReasoningProvider on the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/kiranshivaraju/qualitylens/internal/ai/reasoning"
	"github.com/kiranshivaraju/qualitylens/internal/config"
	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

var intentSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"intents": {
			Type:        genai.TypeArray,
			Description: "Intenções detectadas na consulta do usuário.",
			Items:       &genai.Schema{Type: genai.TypeString, Enum: reasoning.IntentTags},
		},
	},
	Required: []string{"intents"},
}

var topicSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"summary": {Type: genai.TypeString, Description: "Resumo de 2 a 3 frases dos principais achados."},
		"topics": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name":  {Type: genai.TypeString},
					"count": {Type: genai.TypeInteger},
				},
				Required: []string{"name", "count"},
			},
		},
	},
	Required: []string{"summary", "topics"},
}

var insightSchema = &genai.Schema{
	Type:       genai.TypeObject,
	Properties: map[string]*genai.Schema{"insight": {Type: genai.TypeString}},
	Required:   []string{"insight"},
}

// Provider implements models.ReasoningProvider using Gemini.
type Provider struct {
	client *genai.Client
	model  string
}

// NewProvider creates a Gemini client for the configured API key.
func NewProvider(ctx context.Context, cfg config.GeminiConfig) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Provider{client: client, model: cfg.Model}, nil
}

func (p *Provider) Name() string { return "gemini" }

func (p *Provider) ClassifyIntent(ctx context.Context, query string) ([]string, error) {
	text, err := p.generate(ctx, reasoning.IntentPrompt(query), intentSchema)
	if err != nil {
		return nil, err
	}
	return reasoning.DecodeIntents(text)
}

func (p *Provider) AnalyzeTopics(ctx context.Context, sample []models.Observation, query string) (models.TopicAnalysis, error) {
	text, err := p.generate(ctx, reasoning.TopicPrompt(sample, query), topicSchema)
	if err != nil {
		return models.TopicAnalysis{}, err
	}
	return reasoning.DecodeTopics(text)
}

func (p *Provider) SummarizeInsight(ctx context.Context, topics []models.Topic) (string, error) {
	text, err := p.generate(ctx, reasoning.InsightPrompt(topics), insightSchema)
	if err != nil {
		return "", err
	}
	return reasoning.DecodeInsight(text)
}

func (p *Provider) generate(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	})
	if err != nil {
		return "", classifyError(err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: empty gemini response", reasoning.ErrInvalidResponse)
	}
	return text, nil
}

func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", reasoning.ErrInferenceTimeout, err)
	}
	return fmt.Errorf("%w: gemini: %v", reasoning.ErrProviderUnavailable, err)
}

var _ models.ReasoningProvider = (*Provider)(nil)
