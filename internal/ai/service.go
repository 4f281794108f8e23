package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kiranshivaraju/qualitylens/internal/cache"
	"github.com/kiranshivaraju/qualitylens/internal/config"
	"github.com/kiranshivaraju/qualitylens/internal/metrics"
	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

// Operation names, used in cache keys and metric labels.
const (
	OpClassifyIntent   = "intent"
	OpAnalyzeTopics    = "topics"
	OpSummarizeInsight = "insight"
)

// Call outcomes recorded in metrics.
const (
	outcomeOK       = "ok"
	outcomeCacheHit = "cache_hit"
	outcomeTimeout  = "timeout"
	outcomeError    = "error"
)

// Service wraps a provider with per-operation timeouts, memoization and
// metrics. It is itself a models.ReasoningProvider.
type Service struct {
	provider models.ReasoningProvider
	cache    cache.Cache
	ttl      time.Duration
	timeouts map[string]time.Duration
	logger   *slog.Logger
}

// NewService creates a Service. ca may be nil, which disables memoization.
func NewService(provider models.ReasoningProvider, ca cache.Cache, cfg config.AIConfig) *Service {
	return &Service{
		provider: provider,
		cache:    ca,
		ttl:      cfg.CacheTTL,
		timeouts: map[string]time.Duration{
			OpClassifyIntent:   cfg.IntentTimeout,
			OpAnalyzeTopics:    cfg.TopicTimeout,
			OpSummarizeInsight: cfg.InsightTimeout,
		},
		logger: slog.Default().With("component", "ai", "provider", provider.Name()),
	}
}

func (s *Service) Name() string { return s.provider.Name() }

// ClassifyIntent returns the provider's raw intent tags. An empty answer is
// an ErrInvalidResponse.
func (s *Service) ClassifyIntent(ctx context.Context, query string) ([]string, error) {
	return call(ctx, s, OpClassifyIntent, query, func(ctx context.Context) ([]string, error) {
		tags, err := s.provider.ClassifyIntent(ctx, query)
		if err != nil {
			return nil, err
		}
		if len(tags) == 0 {
			return nil, fmt.Errorf("%w: no intents returned", ErrInvalidResponse)
		}
		return tags, nil
	})
}

// AnalyzeTopics extracts topics from the sample. A result without topics
// is an ErrInvalidResponse.
func (s *Service) AnalyzeTopics(ctx context.Context, sample []models.Observation, query string) (models.TopicAnalysis, error) {
	input := struct {
		Sample []models.Observation `json:"sample"`
		Query  string               `json:"query"`
	}{sample, query}

	return call(ctx, s, OpAnalyzeTopics, input, func(ctx context.Context) (models.TopicAnalysis, error) {
		res, err := s.provider.AnalyzeTopics(ctx, sample, query)
		if err != nil {
			return models.TopicAnalysis{}, err
		}
		if len(res.Topics) == 0 {
			return models.TopicAnalysis{}, fmt.Errorf("%w: no topics returned", ErrInvalidResponse)
		}
		return res, nil
	})
}

// SummarizeInsight returns a strategic paragraph for the topics.
func (s *Service) SummarizeInsight(ctx context.Context, topics []models.Topic) (string, error) {
	return call(ctx, s, OpSummarizeInsight, topics, func(ctx context.Context) (string, error) {
		insight, err := s.provider.SummarizeInsight(ctx, topics)
		if err != nil {
			return "", err
		}
		if insight == "" {
			return "", fmt.Errorf("%w: empty insight", ErrInvalidResponse)
		}
		return insight, nil
	})
}

// call runs fn under the operation's timeout, serving and filling the
// cache around it. Cache failures are logged and otherwise ignored.
func call[T any](ctx context.Context, s *Service, op string, input any, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	key := s.cacheKey(op, input)
	if key != "" {
		if data, found, err := s.cache.Get(ctx, key); err != nil {
			s.logger.Warn("reasoning cache read failed", "operation", op, "error", err)
		} else if found {
			var cached T
			if err := json.Unmarshal(data, &cached); err == nil {
				metrics.ReasoningCalls.WithLabelValues(op, outcomeCacheHit).Inc()
				return cached, nil
			}
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout(op))
	defer cancel()

	start := time.Now()
	out, err := fn(callCtx)
	metrics.ReasoningLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if err != nil {
		outcome := outcomeError
		if errors.Is(err, ErrInferenceTimeout) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			outcome = outcomeTimeout
			if !errors.Is(err, ErrInferenceTimeout) {
				err = fmt.Errorf("%w: %s: %v", ErrInferenceTimeout, op, err)
			}
		}
		metrics.ReasoningCalls.WithLabelValues(op, outcome).Inc()
		s.logger.Warn("reasoning call failed", "operation", op, "outcome", outcome, "error", err)
		return zero, err
	}
	metrics.ReasoningCalls.WithLabelValues(op, outcomeOK).Inc()

	if key != "" {
		if data, err := json.Marshal(out); err == nil {
			if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
				s.logger.Warn("reasoning cache write failed", "operation", op, "error", err)
			}
		}
	}
	return out, nil
}

func (s *Service) timeout(op string) time.Duration {
	if d := s.timeouts[op]; d > 0 {
		return d
	}
	return 30 * time.Second
}

func (s *Service) cacheKey(op string, input any) string {
	if s.cache == nil || s.ttl <= 0 {
		return ""
	}
	data, err := json.Marshal(input)
	if err != nil {
		return ""
	}
	return cache.ReasoningKey(op, cache.Hash([]byte(s.provider.Name()), data))
}

var _ models.ReasoningProvider = (*Service)(nil)
