// Package orchestrator answers a free-text analytic query over raw
// checklist records. It detects the query's intents, selects analyzers
// through a fixed priority ladder, runs them concurrently and merges what
// succeeded. When nothing succeeds it falls back to the resilience answer.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kiranshivaraju/qualitylens/internal/analysis"
	"github.com/kiranshivaraju/qualitylens/internal/metrics"
	"github.com/kiranshivaraju/qualitylens/internal/normalize"
	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

// ErrEmptyQuery is returned by Answer for a blank query.
var ErrEmptyQuery = errors.New("query is empty")

// statusError labels analyzer runs that returned an error or panicked.
const statusError = "ERROR"

// IntentDetector returns the active intents of a query. It never fails.
type IntentDetector interface {
	Detect(ctx context.Context, query string) models.IntentSet
}

// InsightSummarizer turns topic data into a strategic paragraph.
type InsightSummarizer interface {
	SummarizeInsight(ctx context.Context, topics []models.Topic) (string, error)
}

// Config holds the orchestrator's collaborators. Engine and Detector are
// required; Insight may be nil.
type Config struct {
	Normalizer *normalize.Normalizer
	Detector   IntentDetector
	Engine     *analysis.Engine
	Insight    InsightSummarizer
	Now        func() time.Time
}

// Orchestrator is safe for concurrent use; all mutable state lives in the
// Memory passed to Answer.
type Orchestrator struct {
	normalizer *normalize.Normalizer
	detector   IntentDetector
	engine     *analysis.Engine
	insight    InsightSummarizer
	now        func() time.Time
	logger     *slog.Logger
}

// New creates an Orchestrator.
func New(cfg Config) *Orchestrator {
	o := &Orchestrator{
		normalizer: cfg.Normalizer,
		detector:   cfg.Detector,
		engine:     cfg.Engine,
		insight:    cfg.Insight,
		now:        cfg.Now,
		logger:     slog.Default().With("component", "orchestrator"),
	}
	if o.normalizer == nil {
		o.normalizer = normalize.New(cfg.Engine.Tables())
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// Normalize flattens raw records the same way Answer does.
func (o *Orchestrator) Normalize(raw []models.RawRecord) []models.FailureRecord {
	return o.normalizer.Flatten(raw, normalize.Options{FlattenMultiFailure: true})
}

// Answer runs the composite analysis. Analyzer and reasoning failures are
// absorbed; the only error is ErrEmptyQuery. mem may be nil.
func (o *Orchestrator) Answer(ctx context.Context, query string, raw []models.RawRecord, mem *Memory) (models.AnalysisResult, error) {
	if strings.TrimSpace(query) == "" {
		return models.AnalysisResult{}, ErrEmptyQuery
	}
	if mem == nil {
		mem = NewMemory(DefaultMemoryCapacity)
	}

	if analysis.IsGreeting(query) {
		return analysis.Greeting(o.now()), nil
	}
	if analysis.IsDefinition(query) {
		return analysis.Definition(), nil
	}

	rows := o.Normalize(raw)
	if len(rows) == 0 {
		o.logger.Info("no usable records", "raw_records", len(raw))
		return analysis.NoData(), nil
	}

	if analysis.IsContinuation(query) {
		if last, ok := mem.Last(); ok {
			return analysis.Continuation(last.Query, last.Summary), nil
		}
	}

	return o.AnswerRows(ctx, query, rows, mem), nil
}

// AnswerRows runs intent detection and the analyzer ladder over an already
// normalized, non-empty table and records the answer in mem.
func (o *Orchestrator) AnswerRows(ctx context.Context, query string, rows []models.FailureRecord, mem *Memory) models.AnalysisResult {
	intents := o.detector.Detect(ctx, query)
	selected := o.plan(query, intents)
	o.logger.Info("analysis plan", "intents", intents.List(), "analyzers", selected.names())

	survivors := o.run(ctx, rows, query, selected)
	if len(survivors) == 0 {
		metrics.Fallbacks.WithLabelValues(metrics.ReasonAllAnalyzers).Inc()
		o.logger.Warn("no analyzer produced a usable result, answering in resilience mode", "analyzers", selected.names())
		res, _ := o.engine.Resilience(ctx, rows, query)
		mem.Add(query, res.Summary)
		return res
	}

	final := merge(survivors)

	if next, ok := analysis.Forecast(rows); ok && next > 0 {
		final.Summary += fmt.Sprintf("\n\n📈 **Previsão de Risco:** Se o padrão se mantiver, "+
			"o próximo período pode registrar cerca de **%.0f falhas**.", next)
		final.Tips = append(final.Tips, models.Tip{
			Title:  "Ação Preventiva",
			Detail: "Avalie planos de mitigação para o próximo ciclo.",
		})
	}

	if tip, ok := o.strategicInsight(ctx, survivors); ok {
		final.Tips = append(final.Tips, tip)
	}

	mem.Add(query, final.Summary)
	return final
}

func (o *Orchestrator) strategicInsight(ctx context.Context, results []models.AnalysisResult) (models.Tip, bool) {
	if o.insight == nil {
		return models.Tip{}, false
	}
	var topics []models.Topic
	for _, r := range results {
		if len(r.Topics) > 0 {
			topics = r.Topics
			break
		}
	}
	if len(topics) == 0 {
		return models.Tip{}, false
	}

	insight, err := o.insight.SummarizeInsight(ctx, topics)
	if err != nil {
		o.logger.Warn("strategic insight unavailable", "error", err)
		return models.Tip{}, false
	}
	insight = strings.TrimSpace(insight)
	if insight == "" {
		return models.Tip{}, false
	}
	return models.Tip{Title: "Insight Estratégico da IA", Detail: insight}, true
}

// run executes the plan concurrently and returns the usable results in
// plan order, regardless of completion order.
func (o *Orchestrator) run(ctx context.Context, rows []models.FailureRecord, query string, p plan) []models.AnalysisResult {
	slots := make([]*models.AnalysisResult, len(p))

	g, gctx := errgroup.WithContext(ctx)
	for i, step := range p {
		g.Go(func() error {
			res, err := analysis.Safe(step.name, step.run)(gctx, rows, query)
			if err != nil {
				metrics.AnalyzerResults.WithLabelValues(step.name, statusError).Inc()
				var pe *analysis.PanicError
				if errors.As(err, &pe) {
					o.logger.Error("analyzer panicked", "analyzer", step.name, "panic", pe.Value, "stack", string(pe.Stack))
				} else {
					o.logger.Debug("analyzer discarded", "analyzer", step.name, "reason", err)
				}
				return nil
			}
			metrics.AnalyzerResults.WithLabelValues(step.name, string(res.Status)).Inc()
			if !res.Usable() {
				o.logger.Debug("analyzer discarded", "analyzer", step.name, "reason", "status FAIL")
				return nil
			}
			slots[i] = &res
			return nil
		})
	}
	_ = g.Wait()

	out := make([]models.AnalysisResult, 0, len(slots))
	for _, s := range slots {
		if s != nil {
			out = append(out, *s)
		}
	}
	return out
}

func merge(results []models.AnalysisResult) models.AnalysisResult {
	summaries := make([]string, 0, len(results))
	final := models.AnalysisResult{
		Status: models.StatusOK,
		Charts: []models.Chart{},
		Tips:   []models.Tip{},
	}
	for _, r := range results {
		summaries = append(summaries, r.Summary)
		final.Charts = append(final.Charts, r.Charts...)
		final.Tips = append(final.Tips, r.Tips...)
		final.Topics = append(final.Topics, r.Topics...)
	}
	final.Summary = strings.Join(summaries, "\n\n")
	return final
}
