// Package intelligence is the entry point for free-text questions. It
// routes each query to a background report job, a risk estimate or the
// composite analysis, and inspects checklists as they are registered.
package intelligence

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kiranshivaraju/qualitylens/internal/orchestrator"
	"github.com/kiranshivaraju/qualitylens/internal/store"
	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

// Route names the layer that answered a query.
type Route string

const (
	RouteReport   Route = "report"
	RouteRisk     Route = "risk"
	RouteAnalysis Route = "analysis"
)

var (
	reportPatterns = []string{"gerar relatório", "relatório completo", "analisar lote inteiro"}
	riskPatterns   = []string{"prever falha", "risco", "probabilidade"}
)

// RouteFor picks the layer for a query. Report keywords win over risk ones.
func RouteFor(query string) Route {
	q := strings.ToLower(strings.TrimSpace(query))
	for _, p := range reportPatterns {
		if strings.Contains(q, p) {
			return RouteReport
		}
	}
	for _, p := range riskPatterns {
		if strings.Contains(q, p) {
			return RouteRisk
		}
	}
	return RouteAnalysis
}

// Records supplies the analysis dataset.
type Records interface {
	ListAnalysisRecords(ctx context.Context) ([]models.RawRecord, error)
}

// Reports persists report jobs.
type Reports interface {
	CreateReport(ctx context.Context, r *models.Report) error
	UpdateReportStatus(ctx context.Context, id uuid.UUID, status string, opts ...store.ReportUpdateOption) error
}

// StatusMirror publishes report status for cheap polling.
type StatusMirror interface {
	SetReportStatus(ctx context.Context, reportID uuid.UUID, status string, ttl time.Duration) error
}

// Reply is the answer to Ask.
type Reply struct {
	Route    Route
	Result   models.AnalysisResult
	ReportID uuid.UUID
}

// Config holds the Service collaborators. Status and Now are optional.
type Config struct {
	Orchestrator *orchestrator.Orchestrator
	Records      Records
	Reports      Reports
	Status       StatusMirror
	Now          func() time.Time
}

// Service routes queries. Report jobs run on background goroutines; call
// Wait before shutting down.
type Service struct {
	orch    *orchestrator.Orchestrator
	records Records
	reports Reports
	status  StatusMirror
	now     func() time.Time
	logger  *slog.Logger
	jobs    sync.WaitGroup
}

// NewService creates a Service.
func NewService(cfg Config) *Service {
	s := &Service{
		orch:    cfg.Orchestrator,
		records: cfg.Records,
		reports: cfg.Reports,
		status:  cfg.Status,
		now:     cfg.Now,
		logger:  slog.Default().With("component", "intelligence"),
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Ask answers query. raw overrides the stored dataset when non-nil; report
// jobs always analyze the stored dataset. mem may be nil.
func (s *Service) Ask(ctx context.Context, query string, raw []models.RawRecord, mem *orchestrator.Memory) (Reply, error) {
	if strings.TrimSpace(query) == "" {
		return Reply{}, orchestrator.ErrEmptyQuery
	}

	route := RouteFor(query)
	s.logger.Info("routing query", "route", route)

	if route == RouteReport {
		id, err := s.StartReport(ctx, query)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Route: route, Result: reportAccepted(id), ReportID: id}, nil
	}

	if raw == nil {
		var err error
		raw, err = s.records.ListAnalysisRecords(ctx)
		if err != nil {
			return Reply{}, fmt.Errorf("load analysis records: %w", err)
		}
	}

	if route == RouteRisk {
		return Reply{Route: route, Result: EstimateRisk(s.orch.Normalize(raw), s.now())}, nil
	}

	res, err := s.orch.Answer(ctx, query, raw, mem)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Route: route, Result: res}, nil
}

// Wait blocks until every background report job has finished.
func (s *Service) Wait() {
	s.jobs.Wait()
}

func reportAccepted(id uuid.UUID) models.AnalysisResult {
	return models.AnalysisResult{
		Status:  models.StatusInfo,
		Summary: "Relatório de **Análise Completa do Lote** em processamento no background.",
		Charts:  []models.Chart{},
		Tips: []models.Tip{{
			Title:  "Aguardando",
			Detail: fmt.Sprintf("Acompanhe o status da tarefa com ID: %s", id),
		}},
	}
}
