package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")
var ErrInvalidTransition = errors.New("invalid status transition")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID) error

	CreateChecklist(ctx context.Context, c *models.Checklist) error
	GetChecklist(ctx context.Context, id int64) (*models.Checklist, error)
	ListChecklists(ctx context.Context, filter ChecklistFilter) ([]*models.Checklist, int, error)
	CompleteChecklist(ctx context.Context, id int64, assistanceResponsible string, note *string) (*models.Checklist, error)
	SetInspection(ctx context.Context, id int64, inspection []models.Inspection) error

	CreateProductionEntry(ctx context.Context, e *models.ProductionEntry) error
	ListProductionEntries(ctx context.Context, filter ProductionFilter) ([]*models.ProductionEntry, error)

	// ListAnalysisRecords returns every completed checklist joined with the
	// daily production of its finalization date, as raw analysis records.
	ListAnalysisRecords(ctx context.Context) ([]models.RawRecord, error)

	CreateReport(ctx context.Context, r *models.Report) error
	GetReport(ctx context.Context, id uuid.UUID) (*models.Report, error)
	UpdateReportStatus(ctx context.Context, id uuid.UUID, status string, opts ...ReportUpdateOption) error
}

type ChecklistFilter struct {
	Status string
	Page   int
	Limit  int
}

type ProductionFilter struct {
	Kind  string
	Since time.Time
	Until time.Time
}

// ReportUpdate holds the optional fields of a report status change.
type ReportUpdate struct {
	ErrorMessage *string
	Result       *models.AnalysisResult
}

type ReportUpdateOption func(*ReportUpdate)

// ResolveReportUpdate applies opts to an empty ReportUpdate.
func ResolveReportUpdate(opts ...ReportUpdateOption) ReportUpdate {
	var u ReportUpdate
	for _, opt := range opts {
		opt(&u)
	}
	return u
}

func WithErrorMessage(msg string) ReportUpdateOption {
	return func(p *ReportUpdate) {
		p.ErrorMessage = &msg
	}
}

func WithResult(r models.AnalysisResult) ReportUpdateOption {
	return func(p *ReportUpdate) {
		p.Result = &r
	}
}

// DocumentID formats the public identifier of a checklist.
func DocumentID(id int64) string {
	return fmt.Sprintf("NC%05d", id)
}

// Page size bounds for list queries.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// NormalizePage clamps a requested page and page size to valid values.
func NormalizePage(page, limit int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	limit = min(limit, MaxPageLimit)
	if page <= 0 {
		page = 1
	}
	return page, limit
}
