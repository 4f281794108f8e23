package intelligence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kiranshivaraju/qualitylens/internal/metrics"
	"github.com/kiranshivaraju/qualitylens/internal/orchestrator"
	"github.com/kiranshivaraju/qualitylens/internal/store"
	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

// reportStatusTTL bounds how long a mirrored report status stays in the cache.
const reportStatusTTL = 24 * time.Hour

// StartReport persists a pending report for query and runs the composite
// analysis over the stored dataset in the background. The job outlives ctx.
func (s *Service) StartReport(ctx context.Context, query string) (uuid.UUID, error) {
	now := s.now().UTC()
	report := &models.Report{
		ID:        uuid.New(),
		Query:     query,
		Status:    models.ReportStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.reports.CreateReport(ctx, report); err != nil {
		return uuid.Nil, fmt.Errorf("create report: %w", err)
	}
	s.mirror(ctx, report.ID, models.ReportStatusPending)

	jobCtx := context.WithoutCancel(ctx)
	s.jobs.Add(1)
	go func() {
		defer s.jobs.Done()
		s.runReport(jobCtx, report.ID, query)
	}()

	s.logger.Info("report job dispatched", "report_id", report.ID)
	return report.ID, nil
}

func (s *Service) runReport(ctx context.Context, id uuid.UUID, query string) {
	logger := s.logger.With("report_id", id)

	if err := s.transition(ctx, id, models.ReportStatusRunning); err != nil {
		logger.Error("report job could not start", "error", err)
		return
	}

	res, err := s.buildReport(ctx, query)
	if err != nil {
		logger.Warn("report job failed", "error", err)
		if err := s.transition(ctx, id, models.ReportStatusFailed, store.WithErrorMessage(err.Error())); err != nil {
			logger.Error("recording report failure", "error", err)
		}
		return
	}

	if err := s.transition(ctx, id, models.ReportStatusCompleted, store.WithResult(res)); err != nil {
		logger.Error("recording report result", "error", err)
		return
	}
	logger.Info("report job completed", "status", res.Status)
}

func (s *Service) buildReport(ctx context.Context, query string) (res models.AnalysisResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("report panicked: %v", r)
		}
	}()

	raw, err := s.records.ListAnalysisRecords(ctx)
	if err != nil {
		return models.AnalysisResult{}, fmt.Errorf("load analysis records: %w", err)
	}
	return s.orch.Answer(ctx, query, raw, orchestrator.NewMemory(1))
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, status string, opts ...store.ReportUpdateOption) error {
	if err := s.reports.UpdateReportStatus(ctx, id, status, opts...); err != nil {
		return err
	}
	if status == models.ReportStatusCompleted || status == models.ReportStatusFailed {
		metrics.ReportJobs.WithLabelValues(status).Inc()
	}
	s.mirror(ctx, id, status)
	return nil
}

func (s *Service) mirror(ctx context.Context, id uuid.UUID, status string) {
	if s.status == nil {
		return
	}
	if err := s.status.SetReportStatus(ctx, id, status, reportStatusTTL); err != nil {
		s.logger.Warn("report status mirror failed", "report_id", id, "error", err)
	}
}
