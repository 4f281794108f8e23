// Package analysis implements the domain analyzers run by the orchestrator
// and the dependency-free resilience answer used when they all fail.
// Every analyzer reads a normalized table and never mutates it, so any
// number of them may run concurrently on the same slice.
package analysis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/kiranshivaraju/qualitylens/internal/domain"
	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

// ErrNoData is returned when a computation has no rows to work on.
var ErrNoData = errors.New("no data to analyze")

// Analyzer names, used for logging and metrics.
const (
	NameQuality           = "quality"
	NameRootCause         = "root_cause"
	NameIndividual        = "individual"
	NameSector            = "sector"
	NameSectorDeepDive    = "sector_deep_dive"
	NameSMTTrend          = "smt_trend"
	NameTopics            = "topics"
	NameStructuredDefault = "structured_default"
	NameResilience        = "resilience"
)

// Func is the analyzer contract.
type Func func(ctx context.Context, rows []models.FailureRecord, query string) (models.AnalysisResult, error)

// TopicReasoner extracts recurring topics from observation text.
type TopicReasoner interface {
	AnalyzeTopics(ctx context.Context, sample []models.Observation, query string) (models.TopicAnalysis, error)
}

// LocalClassifier predicts a single intent without network access.
type LocalClassifier interface {
	Predict(query string) models.Intent
}

// Config configures an Engine. Zero values select defaults.
type Config struct {
	Tables          *domain.Tables
	Topics          TopicReasoner
	Local           LocalClassifier
	TopicSampleSize int
	TopicMinRows    int
	Now             func() time.Time
}

// Engine holds the analyzers' shared, read-only dependencies.
type Engine struct {
	tables       *domain.Tables
	topics       TopicReasoner
	local        LocalClassifier
	sampleSize   int
	minTopicRows int
	now          func() time.Time
	logger       *slog.Logger
}

// NewEngine creates an Engine.
func NewEngine(cfg Config) *Engine {
	e := &Engine{
		tables:       cfg.Tables,
		topics:       cfg.Topics,
		local:        cfg.Local,
		sampleSize:   cfg.TopicSampleSize,
		minTopicRows: cfg.TopicMinRows,
		now:          cfg.Now,
		logger:       slog.Default().With("component", "analysis"),
	}
	if e.tables == nil {
		e.tables = domain.Default()
	}
	if e.sampleSize <= 0 {
		e.sampleSize = 100
	}
	if e.minTopicRows <= 0 {
		e.minTopicRows = 30
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Tables returns the domain tables the engine was built with.
func (e *Engine) Tables() *domain.Tables {
	return e.tables
}

func failResult(summary string) models.AnalysisResult {
	return models.AnalysisResult{
		Status:  models.StatusFail,
		Summary: summary,
		Charts:  []models.Chart{},
		Tips:    []models.Tip{},
	}
}

func barChart(title, label string, groups []Group, color string) models.Chart {
	return models.Chart{
		Title:  title,
		Labels: keys(groups),
		Datasets: []models.Dataset{{
			Label:           label,
			Data:            values(groups),
			Type:            models.ChartBar,
			BackgroundColor: []string{color},
		}},
		ChartType: models.ChartBar,
	}
}

func pieChart(title, label string, groups []Group, colors []string) models.Chart {
	return models.Chart{
		Title:  title,
		Labels: keys(groups),
		Datasets: []models.Dataset{{
			Label:           label,
			Data:            values(groups),
			Type:            models.ChartPie,
			BackgroundColor: colors,
		}},
		ChartType: models.ChartPie,
	}
}

func lineChart(title, label string, groups []Group, border, fill string) models.Chart {
	return models.Chart{
		Title:  title,
		Labels: keys(groups),
		Datasets: []models.Dataset{{
			Label:           label,
			Data:            values(groups),
			Type:            models.ChartLine,
			BorderColor:     border,
			BackgroundColor: []string{fill},
		}},
		ChartType: models.ChartLine,
	}
}
