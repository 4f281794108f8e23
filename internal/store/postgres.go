package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kiranshivaraju/qualitylens/internal/normalize"
	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// Option configures a PostgresStore.
type Option func(*PostgresStore)

// WithClock overrides the clock used for timestamps set by the store.
func WithClock(now func() time.Time) Option {
	return func(s *PostgresStore) {
		s.now = now
	}
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool, opts ...Option) *PostgresStore {
	s := &PostgresStore{pool: pool, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- API Keys ---

const apiKeyColumns = `id, name, key_hash, key_prefix, scopes, last_used_at, deleted_at, created_at, updated_at`

func scanAPIKey(row pgx.Row) (*models.APIKey, error) {
	var k models.APIKey
	err := row.Scan(&k.ID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Scopes,
		&k.LastUsedAt, &k.DeletedAt, &k.CreatedAt, &k.UpdatedAt)
	return &k, err
}

func (s *PostgresStore) GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE key_prefix = $1 AND deleted_at IS NULL`, prefix)
	if err != nil {
		return nil, fmt.Errorf("get api key by prefix: %w", err)
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		k, err := scanAPIKey(rows)
		if err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET last_used_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("update api key last used: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_keys (id, name, key_hash, key_prefix, scopes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		key.ID, key.Name, key.KeyHash, key.KeyPrefix, key.Scopes, key.CreatedAt, key.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create api key: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAPIKeys(ctx context.Context) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE deleted_at IS NULL ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	keys := []*models.APIKey{}
	for rows.Next() {
		k, err := scanAPIKey(rows)
		if err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) RevokeAPIKey(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET deleted_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Checklists ---

const checklistColumns = `id, document_id, product, quantity, responsible, assistance_responsible, status,
	failure, sector, component_location, board_side, COALESCE(failures, '[]'::jsonb),
	production_note, assistance_note, COALESCE(inspection, '[]'::jsonb), created_at, finalized_at`

func scanChecklist(row pgx.Row) (*models.Checklist, error) {
	var c models.Checklist
	var docID *string
	err := row.Scan(&c.ID, &docID, &c.Product, &c.Quantity, &c.Responsible, &c.AssistanceResponsible,
		&c.Status, &c.Failure, &c.Sector, &c.ComponentLocation, &c.BoardSide, &c.Failures,
		&c.ProductionNote, &c.AssistanceNote, &c.Inspection, &c.CreatedAt, &c.FinalizedAt)
	if docID != nil {
		c.DocumentID = *docID
	}
	return &c, err
}

// CreateChecklist inserts c and fills in its ID, DocumentID and CreatedAt.
// A COMPLETO checklist is finalized at creation time.
func (s *PostgresStore) CreateChecklist(ctx context.Context, c *models.Checklist) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create checklist: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := s.now().UTC()
	c.CreatedAt = now
	if c.Status == models.ChecklistStatusComplete && c.FinalizedAt == nil {
		c.FinalizedAt = &now
	}

	var failures any
	if len(c.Failures) > 0 {
		failures = c.Failures
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO checklists (product, quantity, responsible, assistance_responsible, status,
		   failure, sector, component_location, board_side, failures, production_note, assistance_note,
		   created_at, finalized_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING id`,
		c.Product, c.Quantity, c.Responsible, c.AssistanceResponsible, c.Status,
		c.Failure, c.Sector, c.ComponentLocation, c.BoardSide, failures, c.ProductionNote, c.AssistanceNote,
		c.CreatedAt, c.FinalizedAt,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("create checklist: %w", err)
	}

	c.DocumentID = DocumentID(c.ID)
	if _, err := tx.Exec(ctx, `UPDATE checklists SET document_id = $2 WHERE id = $1`, c.ID, c.DocumentID); err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("assign document id: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create checklist: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetChecklist(ctx context.Context, id int64) (*models.Checklist, error) {
	c, err := scanChecklist(s.pool.QueryRow(ctx,
		`SELECT `+checklistColumns+` FROM checklists WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get checklist: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) ListChecklists(ctx context.Context, filter ChecklistFilter) ([]*models.Checklist, int, error) {
	where := "TRUE"
	args := []any{}
	argIdx := 1
	if filter.Status != "" {
		where = fmt.Sprintf("status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM checklists WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count checklists: %w", err)
	}

	limit, offset := paginate(filter.Page, filter.Limit)
	query := fmt.Sprintf(`SELECT %s FROM checklists WHERE %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		checklistColumns, where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list checklists: %w", err)
	}
	defer rows.Close()

	out := []*models.Checklist{}
	for rows.Next() {
		c, err := scanChecklist(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan checklist: %w", err)
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

// CompleteChecklist moves a PENDENTE checklist to COMPLETO. Completing a
// checklist in any other state returns ErrInvalidTransition.
func (s *PostgresStore) CompleteChecklist(ctx context.Context, id int64, assistanceResponsible string, note *string) (*models.Checklist, error) {
	c, err := scanChecklist(s.pool.QueryRow(ctx,
		`UPDATE checklists
		 SET status = $2, assistance_responsible = $3, assistance_note = COALESCE($4, assistance_note), finalized_at = $5
		 WHERE id = $1 AND status = $6
		 RETURNING `+checklistColumns,
		id, models.ChecklistStatusComplete, assistanceResponsible, note, s.now().UTC(), models.ChecklistStatusPending))
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("complete checklist: %w", err)
	}

	if _, err := s.GetChecklist(ctx, id); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: checklist %d is not %s", ErrInvalidTransition, id, models.ChecklistStatusPending)
}

func (s *PostgresStore) SetInspection(ctx context.Context, id int64, inspection []models.Inspection) error {
	tag, err := s.pool.Exec(ctx, `UPDATE checklists SET inspection = $2 WHERE id = $1`, id, inspection)
	if err != nil {
		return fmt.Errorf("set inspection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Production ---

func (s *PostgresStore) CreateProductionEntry(ctx context.Context, e *models.ProductionEntry) error {
	e.CreatedAt = s.now().UTC()
	err := s.pool.QueryRow(ctx,
		`INSERT INTO production_entries (record_date, kind, daily_quantity, monthly_quantity,
		   daily_note, monthly_note, responsible, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		e.Date, e.Kind, e.DailyQuantity, e.MonthlyQuantity, e.DailyNote, e.MonthlyNote, e.Responsible, e.CreatedAt,
	).Scan(&e.ID)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create production entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListProductionEntries(ctx context.Context, filter ProductionFilter) ([]*models.ProductionEntry, error) {
	conditions := []string{"TRUE"}
	args := []any{}
	argIdx := 1

	if filter.Kind != "" {
		conditions = append(conditions, fmt.Sprintf("kind = $%d", argIdx))
		args = append(args, filter.Kind)
		argIdx++
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, fmt.Sprintf("record_date >= $%d", argIdx))
		args = append(args, filter.Since)
		argIdx++
	}
	if !filter.Until.IsZero() {
		conditions = append(conditions, fmt.Sprintf("record_date <= $%d", argIdx))
		args = append(args, filter.Until)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, record_date, kind, daily_quantity, monthly_quantity, daily_note, monthly_note, responsible, created_at
		 FROM production_entries WHERE `+strings.Join(conditions, " AND ")+` ORDER BY record_date DESC, kind`, args...)
	if err != nil {
		return nil, fmt.Errorf("list production entries: %w", err)
	}
	defer rows.Close()

	out := []*models.ProductionEntry{}
	for rows.Next() {
		var e models.ProductionEntry
		if err := rows.Scan(&e.ID, &e.Date, &e.Kind, &e.DailyQuantity, &e.MonthlyQuantity,
			&e.DailyNote, &e.MonthlyNote, &e.Responsible, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan production entry: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// --- Analysis data source ---

// ListAnalysisRecords returns completed checklists joined with the daily
// production of their finalization date. A failures value that is JSON null
// or an empty list is treated as absent, so the record keeps its single
// top-level failure.
func (s *PostgresStore) ListAnalysisRecords(ctx context.Context) ([]models.RawRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT c.id, c.document_id, c.product, c.quantity, c.responsible, c.failure, c.sector,
		        c.component_location, c.board_side,
		        NULLIF(NULLIF(c.failures, 'null'::jsonb), '[]'::jsonb),
		        c.production_note, c.assistance_note, c.created_at, c.finalized_at, p.daily_quantity
		 FROM checklists c
		 LEFT JOIN production_entries p
		   ON p.kind = 'D' AND p.record_date = (c.finalized_at AT TIME ZONE 'UTC')::date
		 WHERE c.status = $1
		 ORDER BY c.finalized_at, c.id`, models.ChecklistStatusComplete)
	if err != nil {
		return nil, fmt.Errorf("list analysis records: %w", err)
	}
	defer rows.Close()

	out := []models.RawRecord{}
	for rows.Next() {
		var (
			id                              int64
			docID                           *string
			product, responsible            string
			quantity                        int
			failure, sector, location, side *string
			failures                        []byte
			productionNote, assistanceNote  *string
			createdAt                       time.Time
			finalizedAt                     *time.Time
			produced                        *int
		)
		if err := rows.Scan(&id, &docID, &product, &quantity, &responsible, &failure, &sector,
			&location, &side, &failures, &productionNote, &assistanceNote,
			&createdAt, &finalizedAt, &produced); err != nil {
			return nil, fmt.Errorf("scan analysis record: %w", err)
		}

		rec := models.RawRecord{
			normalize.KeyID:                id,
			normalize.KeyProduct:           product,
			normalize.KeyQuantity:          quantity,
			normalize.KeyResponsible:       responsible,
			normalize.KeyFailure:           failure,
			normalize.KeySector:            sector,
			normalize.KeyComponentLocation: location,
			normalize.KeyBoardSide:         side,
			normalize.KeyProductionNote:    productionNote,
			normalize.KeyAssistanceNote:    assistanceNote,
			normalize.KeyCreatedAt:         createdAt,
		}
		if docID != nil {
			rec[normalize.KeyDocumentID] = *docID
		}
		if len(failures) > 0 {
			rec[normalize.KeyFailures] = string(failures)
		}
		if finalizedAt != nil {
			rec[normalize.KeyFinalizedAt] = *finalizedAt
			rec[normalize.KeyRecordDate] = *finalizedAt
		}
		if produced != nil {
			rec[normalize.KeyQuantityProduced] = *produced
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// --- Reports ---

func (s *PostgresStore) CreateReport(ctx context.Context, r *models.Report) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO analysis_reports (id, query, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		r.ID, r.Query, r.Status, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetReport(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	var r models.Report
	err := s.pool.QueryRow(ctx,
		`SELECT id, query, status, result, error_message, started_at, completed_at, created_at, updated_at
		 FROM analysis_reports WHERE id = $1`, id,
	).Scan(&r.ID, &r.Query, &r.Status, &r.Result, &r.ErrorMessage,
		&r.StartedAt, &r.CompletedAt, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return &r, nil
}

var validTransitions = map[string][]string{
	models.ReportStatusPending: {models.ReportStatusRunning, models.ReportStatusFailed},
	models.ReportStatusRunning: {models.ReportStatusCompleted, models.ReportStatusFailed},
}

// ValidTransition reports whether a report may move from one status to another.
func ValidTransition(from, to string) bool {
	for _, a := range validTransitions[from] {
		if a == to {
			return true
		}
	}
	return false
}

func (s *PostgresStore) UpdateReportStatus(ctx context.Context, id uuid.UUID, status string, opts ...ReportUpdateOption) error {
	params := ResolveReportUpdate(opts...)

	var currentStatus string
	err := s.pool.QueryRow(ctx, `SELECT status FROM analysis_reports WHERE id = $1`, id).Scan(&currentStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get report status: %w", err)
	}

	if !ValidTransition(currentStatus, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, currentStatus, status)
	}

	now := s.now().UTC()
	query := `UPDATE analysis_reports SET status = $2, updated_at = $3`
	args := []any{id, status, now}
	argIdx := 4

	if status == models.ReportStatusRunning {
		query += fmt.Sprintf(", started_at = $%d", argIdx)
		args = append(args, now)
		argIdx++
	}
	if status == models.ReportStatusCompleted || status == models.ReportStatusFailed {
		query += fmt.Sprintf(", completed_at = $%d", argIdx)
		args = append(args, now)
		argIdx++
	}
	if params.ErrorMessage != nil {
		query += fmt.Sprintf(", error_message = $%d", argIdx)
		args = append(args, *params.ErrorMessage)
		argIdx++
	}
	if params.Result != nil {
		query += fmt.Sprintf(", result = $%d", argIdx)
		args = append(args, *params.Result)
		argIdx++
	}

	// Guard against a concurrent transition since the read above.
	query += fmt.Sprintf(" WHERE id = $1 AND status = $%d", argIdx)
	args = append(args, currentStatus)

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update report status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s changed concurrently", ErrInvalidTransition, currentStatus)
	}
	return nil
}

func paginate(page, limit int) (int, int) {
	page, limit = NormalizePage(page, limit)
	return limit, (page - 1) * limit
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
