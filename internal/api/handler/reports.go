package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kiranshivaraju/qualitylens/internal/api/response"
	"github.com/kiranshivaraju/qualitylens/internal/store"
	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

// ReportReader loads persisted reports.
type ReportReader interface {
	GetReport(ctx context.Context, id uuid.UUID) (*models.Report, error)
}

// ReportStatusReader reads the cached status of a running report.
type ReportStatusReader interface {
	GetReportStatus(ctx context.Context, reportID uuid.UUID) (string, bool, error)
}

type reportStatus struct {
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

// NewGetReportHandler returns an http.HandlerFunc for GET /api/v1/reports/{reportID}.
// While a report is pending or running the cached status answers without
// touching the database.
func NewGetReportHandler(reports ReportReader, status ReportStatusReader) http.HandlerFunc {
	logger := slog.Default().With("component", "report_handler")

	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "reportID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_ID", "reportID must be a UUID", nil)
			return
		}

		if status != nil {
			s, ok, err := status.GetReportStatus(r.Context(), id)
			switch {
			case err != nil:
				logger.Warn("report status cache unavailable", "report_id", id, "error", err)
			case ok && (s == models.ReportStatusPending || s == models.ReportStatusRunning):
				response.JSON(w, reportStatus{ID: id, Status: s})
				return
			}
		}

		rep, err := reports.GetReport(r.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "REPORT_NOT_FOUND", "Report not found", nil)
				return
			}
			logger.Error("load report", "report_id", id, "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}
		response.JSON(w, newReportView(rep))
	}
}

type reportView struct {
	ID           uuid.UUID                `json:"id"`
	Query        string                   `json:"query"`
	Status       string                   `json:"status"`
	Result       *models.AnalysisResponse `json:"result,omitempty"`
	ErrorMessage *string                  `json:"error_message,omitempty"`
	CreatedAt    time.Time                `json:"created_at"`
	CompletedAt  *time.Time               `json:"completed_at,omitempty"`
}

func newReportView(rep *models.Report) reportView {
	v := reportView{
		ID:           rep.ID,
		Query:        rep.Query,
		Status:       rep.Status,
		ErrorMessage: rep.ErrorMessage,
		CreatedAt:    rep.CreatedAt,
		CompletedAt:  rep.CompletedAt,
	}
	if rep.Result != nil {
		res := models.NewAnalysisResponse(rep.Query, *rep.Result)
		v.Result = &res
	}
	return v
}
