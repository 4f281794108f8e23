package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kiranshivaraju/qualitylens/internal/normalize"
	"github.com/kiranshivaraju/qualitylens/internal/store"
	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

// setupTestDB spins up a Postgres container, runs migrations, and returns a pool.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("qualitylens_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, store.RunMigrations(connStr))
	// A second run is a no-op.
	require.NoError(t, store.RunMigrations(connStr))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	return pool
}

func newTestStore(t *testing.T, now time.Time) *store.PostgresStore {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	return store.NewPostgresStore(setupTestDB(t), store.WithClock(func() time.Time { return now }))
}

func ptr[T any](v T) *T { return &v }

// --- Pure helpers ---

func TestDocumentID(t *testing.T) {
	assert.Equal(t, "NC00001", store.DocumentID(1))
	assert.Equal(t, "NC12345", store.DocumentID(12345))
	assert.Equal(t, "NC123456", store.DocumentID(123456))
}

func TestValidTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{models.ReportStatusPending, models.ReportStatusRunning, true},
		{models.ReportStatusPending, models.ReportStatusFailed, true},
		{models.ReportStatusRunning, models.ReportStatusCompleted, true},
		{models.ReportStatusRunning, models.ReportStatusFailed, true},
		{models.ReportStatusPending, models.ReportStatusCompleted, false},
		{models.ReportStatusCompleted, models.ReportStatusRunning, false},
		{models.ReportStatusFailed, models.ReportStatusPending, false},
	}
	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			assert.Equal(t, tt.want, store.ValidTransition(tt.from, tt.to))
		})
	}
}

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		name                string
		page, limit         int
		wantPage, wantLimit int
	}{
		{"defaults", 0, 0, 1, store.DefaultPageLimit},
		{"negative", -3, -1, 1, store.DefaultPageLimit},
		{"in range", 3, 50, 3, 50},
		{"capped", 2, 1000, 2, store.MaxPageLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, limit := store.NormalizePage(tt.page, tt.limit)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantLimit, limit)
		})
	}
}

// --- API Key Tests ---

func newKey(prefix string) *models.APIKey {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.APIKey{
		ID:        uuid.New(),
		Name:      "key-" + prefix,
		KeyHash:   "bcrypt-hash-" + prefix,
		KeyPrefix: prefix,
		Scopes:    []string{"read", "write"},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestAPIKey_Lifecycle(t *testing.T) {
	s := newTestStore(t, time.Now())
	ctx := context.Background()

	key := newKey("ql_abcd")
	require.NoError(t, s.CreateAPIKey(ctx, key))
	require.NoError(t, s.CreateAPIKey(ctx, newKey("ql_efgh")))

	keys, err := s.GetAPIKeyByPrefix(ctx, "ql_abcd")
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, key.ID, keys[0].ID)
	assert.Equal(t, []string{"read", "write"}, keys[0].Scopes)
	assert.Nil(t, keys[0].LastUsedAt)

	require.NoError(t, s.UpdateAPIKeyLastUsed(ctx, key.ID))
	keys, err = s.GetAPIKeyByPrefix(ctx, "ql_abcd")
	require.NoError(t, err)
	assert.NotNil(t, keys[0].LastUsedAt)

	all, err := s.ListAPIKeys(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, s.RevokeAPIKey(ctx, key.ID))
	keys, err = s.GetAPIKeyByPrefix(ctx, "ql_abcd")
	require.NoError(t, err)
	assert.Empty(t, keys)

	assert.ErrorIs(t, s.RevokeAPIKey(ctx, key.ID), store.ErrNotFound)
}

func TestAPIKey_DuplicatePrefix(t *testing.T) {
	s := newTestStore(t, time.Now())
	ctx := context.Background()

	require.NoError(t, s.CreateAPIKey(ctx, newKey("ql_dup1")))
	err := s.CreateAPIKey(ctx, newKey("ql_dup1"))
	assert.ErrorIs(t, err, store.ErrDuplicateKey)
}

// --- Checklist Tests ---

func TestChecklist_CreateSingleFailure(t *testing.T) {
	now := time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC)
	s := newTestStore(t, now)
	ctx := context.Background()

	c := &models.Checklist{
		Product:     "TRD 2016",
		Quantity:    3,
		Responsible: "Maria",
		Status:      models.ChecklistStatusComplete,
		Failure:     ptr("Solda fria"),
		Sector:      ptr("SMT"),
	}
	require.NoError(t, s.CreateChecklist(ctx, c))

	assert.NotZero(t, c.ID)
	assert.Equal(t, store.DocumentID(c.ID), c.DocumentID)
	require.NotNil(t, c.FinalizedAt)
	assert.True(t, now.Equal(*c.FinalizedAt))

	got, err := s.GetChecklist(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.DocumentID, got.DocumentID)
	assert.Equal(t, "Solda fria", *got.Failure)
	assert.Empty(t, got.Failures)
	assert.Empty(t, got.Inspection)
}

func TestChecklist_CreateMultiFailure(t *testing.T) {
	s := newTestStore(t, time.Now())
	ctx := context.Background()

	c := &models.Checklist{
		Product:     "RTP 01",
		Quantity:    2,
		Responsible: "João",
		Status:      models.ChecklistStatusPending,
		Failures: []models.Failure{
			{Failure: "Curto de solda", Sector: "SMT", ComponentLocation: "U3"},
			{Failure: "Componente faltando", Sector: "PTH"},
		},
	}
	require.NoError(t, s.CreateChecklist(ctx, c))
	assert.Nil(t, c.FinalizedAt)

	got, err := s.GetChecklist(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Failures, got.Failures)
	assert.Equal(t, models.ChecklistStatusPending, got.Status)
}

func TestChecklist_GetNotFound(t *testing.T) {
	s := newTestStore(t, time.Now())

	_, err := s.GetChecklist(context.Background(), 999)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestChecklist_ListFiltersAndPaginates(t *testing.T) {
	s := newTestStore(t, time.Now())
	ctx := context.Background()

	for i := range 5 {
		status := models.ChecklistStatusComplete
		if i%2 == 0 {
			status = models.ChecklistStatusPending
		}
		require.NoError(t, s.CreateChecklist(ctx, &models.Checklist{
			Product: "TRD", Quantity: 1, Responsible: "r", Status: status, Failure: ptr("X"),
		}))
	}

	pending, total, err := s.ListChecklists(ctx, store.ChecklistFilter{Status: models.ChecklistStatusPending})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, pending, 3)

	page, total, err := s.ListChecklists(ctx, store.ChecklistFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, page, 2)
}

func TestChecklist_Complete(t *testing.T) {
	s := newTestStore(t, time.Now())
	ctx := context.Background()

	c := &models.Checklist{Product: "TRD", Quantity: 1, Responsible: "r", Status: models.ChecklistStatusPending, Failure: ptr("X")}
	require.NoError(t, s.CreateChecklist(ctx, c))

	done, err := s.CompleteChecklist(ctx, c.ID, "Técnico", ptr("trocado o componente"))
	require.NoError(t, err)
	assert.Equal(t, models.ChecklistStatusComplete, done.Status)
	assert.Equal(t, "Técnico", *done.AssistanceResponsible)
	assert.Equal(t, "trocado o componente", *done.AssistanceNote)
	assert.NotNil(t, done.FinalizedAt)

	_, err = s.CompleteChecklist(ctx, c.ID, "Técnico", nil)
	assert.ErrorIs(t, err, store.ErrInvalidTransition)

	_, err = s.CompleteChecklist(ctx, 999, "Técnico", nil)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestChecklist_SetInspection(t *testing.T) {
	s := newTestStore(t, time.Now())
	ctx := context.Background()

	c := &models.Checklist{Product: "TRD", Quantity: 1, Responsible: "r", Status: models.ChecklistStatusComplete, Failure: ptr("X")}
	require.NoError(t, s.CreateChecklist(ctx, c))

	inspection := []models.Inspection{{
		ID:          uuid.New(),
		Failure:     "X",
		Status:      "Análise de Domínio",
		RootCause:   "Causa Indeterminada",
		ProductLine: "Tempo",
		Message:     "ok",
		AnalyzedAt:  time.Now().UTC().Truncate(time.Second),
	}}
	require.NoError(t, s.SetInspection(ctx, c.ID, inspection))

	got, err := s.GetChecklist(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, got.Inspection, 1)
	assert.Equal(t, inspection[0].ID, got.Inspection[0].ID)
	assert.True(t, inspection[0].AnalyzedAt.Equal(got.Inspection[0].AnalyzedAt))

	assert.ErrorIs(t, s.SetInspection(ctx, 999, inspection), store.ErrNotFound)
}

// --- Production Tests ---

func TestProduction_CreateListAndDuplicate(t *testing.T) {
	s := newTestStore(t, time.Now())
	ctx := context.Background()
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	daily := &models.ProductionEntry{Date: day, Kind: models.ProductionDaily, DailyQuantity: 500, Responsible: "PCP"}
	require.NoError(t, s.CreateProductionEntry(ctx, daily))
	assert.NotZero(t, daily.ID)

	monthly := &models.ProductionEntry{Date: day, Kind: models.ProductionMonthly, MonthlyQuantity: 12000, Responsible: "PCP"}
	require.NoError(t, s.CreateProductionEntry(ctx, monthly))

	err := s.CreateProductionEntry(ctx, &models.ProductionEntry{Date: day, Kind: models.ProductionDaily, DailyQuantity: 1, Responsible: "x"})
	assert.ErrorIs(t, err, store.ErrDuplicateKey)

	entries, err := s.ListProductionEntries(ctx, store.ProductionFilter{Kind: models.ProductionDaily})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 500, entries[0].DailyQuantity)
	assert.True(t, day.Equal(entries[0].Date))

	entries, err = s.ListProductionEntries(ctx, store.ProductionFilter{Since: day.AddDate(0, 0, 1)})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// --- Analysis records ---

func TestListAnalysisRecords_JoinsDailyProduction(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)
	s := newTestStore(t, now)
	ctx := context.Background()

	require.NoError(t, s.CreateProductionEntry(ctx, &models.ProductionEntry{
		Date: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), Kind: models.ProductionDaily, DailyQuantity: 400, Responsible: "PCP",
	}))
	multi := &models.Checklist{
		Product: "TRD 2016", Quantity: 2, Responsible: "Maria", Status: models.ChecklistStatusComplete,
		Failures: []models.Failure{{Failure: "Curto de solda", Sector: "SMT"}, {Failure: "Trilha rompida", Sector: "PTH"}},
	}
	require.NoError(t, s.CreateChecklist(ctx, multi))
	require.NoError(t, s.CreateChecklist(ctx, &models.Checklist{
		Product: "TRD 2016", Quantity: 1, Responsible: "Maria", Status: models.ChecklistStatusPending, Failure: ptr("X"),
	}))

	raw, err := s.ListAnalysisRecords(ctx)
	require.NoError(t, err)
	require.Len(t, raw, 1)
	assert.Equal(t, multi.DocumentID, raw[0][normalize.KeyDocumentID])
	assert.Equal(t, 400, raw[0][normalize.KeyQuantityProduced])

	rows := normalize.New(nil).Flatten(raw, normalize.Options{FlattenMultiFailure: true})
	require.Len(t, rows, 2)
	assert.Equal(t, "SMT", rows[0].Sector)
	assert.Equal(t, "PTH", rows[1].Sector)
	assert.Equal(t, 400, rows[0].QuantityProduced)
	assert.True(t, now.Equal(rows[0].RecordDate))
}

// --- Report Tests ---

func TestListAnalysisRecords_EmptyFailuresFallBackToSingleFailure(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	for _, literal := range []string{"null", "[]"} {
		c := &models.Checklist{
			Product: "TRD 2016", Quantity: 1, Responsible: "Maria", Status: models.ChecklistStatusComplete,
			Failure: ptr("Solda fria"), Sector: ptr("SMT"),
		}
		require.NoError(t, s.CreateChecklist(ctx, c))
		_, err := pool.Exec(ctx, `UPDATE checklists SET failures = $2::jsonb WHERE id = $1`, c.ID, literal)
		require.NoError(t, err)
	}

	raw, err := s.ListAnalysisRecords(ctx)
	require.NoError(t, err)
	require.Len(t, raw, 2)
	for _, rec := range raw {
		assert.NotContains(t, rec, normalize.KeyFailures)
	}

	rows := normalize.New(nil).Flatten(raw, normalize.Options{FlattenMultiFailure: true})
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.Equal(t, "Solda fria", r.FailureLabel)
		assert.Equal(t, "SMT", r.Sector)
	}
}

func TestReport_Lifecycle(t *testing.T) {
	s := newTestStore(t, time.Now())
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	r := &models.Report{ID: uuid.New(), Query: "gerar relatório", Status: models.ReportStatusPending, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateReport(ctx, r))

	require.NoError(t, s.UpdateReportStatus(ctx, r.ID, models.ReportStatusRunning))
	got, err := s.GetReport(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusRunning, got.Status)
	assert.NotNil(t, got.StartedAt)
	assert.Nil(t, got.Result)

	result := models.AnalysisResult{Status: models.StatusOK, Summary: "tudo certo", Charts: []models.Chart{}, Tips: []models.Tip{}}
	require.NoError(t, s.UpdateReportStatus(ctx, r.ID, models.ReportStatusCompleted, store.WithResult(result)))

	got, err = s.GetReport(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusCompleted, got.Status)
	assert.NotNil(t, got.CompletedAt)
	require.NotNil(t, got.Result)
	assert.Equal(t, "tudo certo", got.Result.Summary)
}

func TestReport_Failed(t *testing.T) {
	s := newTestStore(t, time.Now())
	ctx := context.Background()
	now := time.Now().UTC()

	r := &models.Report{ID: uuid.New(), Query: "q", Status: models.ReportStatusPending, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateReport(ctx, r))
	require.NoError(t, s.UpdateReportStatus(ctx, r.ID, models.ReportStatusRunning))
	require.NoError(t, s.UpdateReportStatus(ctx, r.ID, models.ReportStatusFailed, store.WithErrorMessage("no data")))

	got, err := s.GetReport(ctx, r.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ErrorMessage)
	assert.Equal(t, "no data", *got.ErrorMessage)
}

func TestReport_InvalidTransitionAndNotFound(t *testing.T) {
	s := newTestStore(t, time.Now())
	ctx := context.Background()
	now := time.Now().UTC()

	r := &models.Report{ID: uuid.New(), Query: "q", Status: models.ReportStatusPending, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateReport(ctx, r))

	err := s.UpdateReportStatus(ctx, r.ID, models.ReportStatusCompleted)
	assert.ErrorIs(t, err, store.ErrInvalidTransition)

	err = s.UpdateReportStatus(ctx, uuid.New(), models.ReportStatusRunning)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.GetReport(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, s.CreateReport(ctx, r), store.ErrDuplicateKey)
}

func TestPing(t *testing.T) {
	s := newTestStore(t, time.Now())
	require.NoError(t, s.Ping(context.Background()))
}
