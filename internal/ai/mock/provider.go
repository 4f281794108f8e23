package mock

import (
	"context"
	"sync/atomic"

	"github.com/kiranshivaraju/qualitylens/internal/ai"
	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

// MockProvider satisfies models.ReasoningProvider for testing.
type MockProvider struct {
	Name_        string
	ClassifyFunc func(ctx context.Context, query string) ([]string, error)
	TopicsFunc   func(ctx context.Context, sample []models.Observation, query string) (models.TopicAnalysis, error)
	InsightFunc  func(ctx context.Context, topics []models.Topic) (string, error)

	classifyCalls atomic.Int64
	topicCalls    atomic.Int64
	insightCalls  atomic.Int64
}

func (m *MockProvider) Name() string { return m.Name_ }

func (m *MockProvider) ClassifyIntent(ctx context.Context, query string) ([]string, error) {
	m.classifyCalls.Add(1)
	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, query)
	}
	return nil, nil
}

func (m *MockProvider) AnalyzeTopics(ctx context.Context, sample []models.Observation, query string) (models.TopicAnalysis, error) {
	m.topicCalls.Add(1)
	if m.TopicsFunc != nil {
		return m.TopicsFunc(ctx, sample, query)
	}
	return models.TopicAnalysis{}, nil
}

func (m *MockProvider) SummarizeInsight(ctx context.Context, topics []models.Topic) (string, error) {
	m.insightCalls.Add(1)
	if m.InsightFunc != nil {
		return m.InsightFunc(ctx, topics)
	}
	return "", nil
}

// ClassifyCalls returns how many times ClassifyIntent was called.
func (m *MockProvider) ClassifyCalls() int { return int(m.classifyCalls.Load()) }

// TopicCalls returns how many times AnalyzeTopics was called.
func (m *MockProvider) TopicCalls() int { return int(m.topicCalls.Load()) }

// InsightCalls returns how many times SummarizeInsight was called.
func (m *MockProvider) InsightCalls() int { return int(m.insightCalls.Load()) }

// TotalCalls returns the number of calls across all operations.
func (m *MockProvider) TotalCalls() int {
	return m.ClassifyCalls() + m.TopicCalls() + m.InsightCalls()
}

// NewMockProvider returns a MockProvider with sensible default responses.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock",
		ClassifyFunc: func(_ context.Context, _ string) ([]string, error) {
			return []string{string(models.IntentGeneral)}, nil
		},
		TopicsFunc: func(_ context.Context, sample []models.Observation, _ string) (models.TopicAnalysis, error) {
			return models.TopicAnalysis{
				Summary: "Resumo simulado das observações",
				Topics: []models.Topic{
					{Name: "Solda fria", Count: len(sample)},
					{Name: "Componente ausente", Count: 1},
				},
			}, nil
		},
		InsightFunc: func(_ context.Context, _ []models.Topic) (string, error) {
			return "Priorize a revisão do perfil do forno de refusão.", nil
		},
	}
}

// NewIntentProvider returns a MockProvider whose ClassifyIntent answers with
// the given tags. Other operations keep the defaults.
func NewIntentProvider(intents ...string) *MockProvider {
	m := NewMockProvider()
	m.ClassifyFunc = func(_ context.Context, _ string) ([]string, error) {
		return intents, nil
	}
	return m
}

// NewFailingProvider returns a MockProvider that always returns the given error.
func NewFailingProvider(err error) *MockProvider {
	return &MockProvider{
		Name_: "mock-failing",
		ClassifyFunc: func(_ context.Context, _ string) ([]string, error) {
			return nil, err
		},
		TopicsFunc: func(_ context.Context, _ []models.Observation, _ string) (models.TopicAnalysis, error) {
			return models.TopicAnalysis{}, err
		},
		InsightFunc: func(_ context.Context, _ []models.Topic) (string, error) {
			return "", err
		},
	}
}

// NewTimeoutProvider returns a MockProvider that blocks until the context is
// done and then reports ai.ErrInferenceTimeout.
func NewTimeoutProvider() *MockProvider {
	wait := func(ctx context.Context) error {
		<-ctx.Done()
		return ai.ErrInferenceTimeout
	}
	return &MockProvider{
		Name_: "mock-timeout",
		ClassifyFunc: func(ctx context.Context, _ string) ([]string, error) {
			return nil, wait(ctx)
		},
		TopicsFunc: func(ctx context.Context, _ []models.Observation, _ string) (models.TopicAnalysis, error) {
			return models.TopicAnalysis{}, wait(ctx)
		},
		InsightFunc: func(ctx context.Context, _ []models.Topic) (string, error) {
			return "", wait(ctx)
		},
	}
}

// Compile-time interface check.
var _ models.ReasoningProvider = (*MockProvider)(nil)
