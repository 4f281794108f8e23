package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ReportStatusPending   = "pending"
	ReportStatusRunning   = "running"
	ReportStatusCompleted = "completed"
	ReportStatusFailed    = "failed"
)

// Report tracks an asynchronous full-dataset analysis. The API returns the
// report ID on POST /api/v1/analysis; the client polls GET /api/v1/reports/{id}
// until status is completed or failed.
type Report struct {
	ID           uuid.UUID       `db:"id"            json:"id"`
	Query        string          `db:"query"         json:"query"`
	Status       string          `db:"status"        json:"status"`
	Result       *AnalysisResult `db:"result"        json:"result,omitempty"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	StartedAt    *time.Time      `db:"started_at"    json:"started_at,omitempty"`
	CompletedAt  *time.Time      `db:"completed_at"  json:"completed_at,omitempty"`
	CreatedAt    time.Time       `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"    json:"updated_at"`
}
