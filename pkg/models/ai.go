// Package models contains shared data models used across the QualityLens codebase.
package models

import "context"

// ReasoningProvider is the boundary to the external reasoning service (an LLM).
// Never call specific providers directly; always inject this interface.
// Any method may fail, time out or return malformed output; callers treat all
// three the same way.
type ReasoningProvider interface {
	// ClassifyIntent returns raw intent tags for a free-text query. Tags are
	// not guaranteed to belong to the closed Intent enumeration.
	ClassifyIntent(ctx context.Context, query string) ([]string, error)
	// AnalyzeTopics extracts the recurring topics of a sample of observations.
	AnalyzeTopics(ctx context.Context, sample []Observation, query string) (TopicAnalysis, error)
	// SummarizeInsight turns topic data into a strategic-insight paragraph.
	SummarizeInsight(ctx context.Context, topics []Topic) (string, error)
	// Name returns the provider identifier (e.g., "gemini", "ollama").
	Name() string
}

// Observation is one free-text note sent for topic analysis.
type Observation struct {
	DocumentID string `json:"document_id"`
	Text       string `json:"text"`
}

// Topic is a recurring theme with its number of mentions.
type Topic struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// TopicAnalysis is the output of a topic analysis call.
type TopicAnalysis struct {
	Summary string  `json:"summary"`
	Topics  []Topic `json:"topics"`
}
