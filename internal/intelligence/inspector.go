package intelligence

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kiranshivaraju/qualitylens/internal/domain"
	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

// Inspection statuses.
const (
	InspectionRecommended = "Recomendação Encontrada"
	InspectionDomain      = "Análise de Domínio"
)

// InspectionStore saves inspection results on a checklist.
type InspectionStore interface {
	SetInspection(ctx context.Context, id int64, inspection []models.Inspection) error
}

// Inspector attaches a per-failure domain analysis to completed checklists.
type Inspector struct {
	tables *domain.Tables
	store  InspectionStore
	now    func() time.Time
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewInspector creates an Inspector. A nil tables argument selects domain.Default().
func NewInspector(tables *domain.Tables, st InspectionStore, now func() time.Time) *Inspector {
	if tables == nil {
		tables = domain.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Inspector{
		tables: tables,
		store:  st,
		now:    now,
		logger: slog.Default().With("component", "inspector"),
	}
}

// Inspect analyzes every failure of c. It does not touch the store.
func (i *Inspector) Inspect(c *models.Checklist) []models.Inspection {
	failures := checklistFailures(c)
	out := make([]models.Inspection, 0, len(failures))
	at := i.now().UTC()

	for idx, f := range failures {
		cause := i.tables.RootCause(f.Failure)
		line := i.tables.ProductLine(c.Product)
		msg := fmt.Sprintf("**Causa Raiz Sugerida (Domínio):** %s. **Linha de Produto:** %s.", cause, line)

		ins := models.Inspection{
			ID:           uuid.New(),
			FailureIndex: idx,
			Failure:      f.Failure,
			Status:       InspectionDomain,
			RootCause:    cause,
			ProductLine:  line,
			Message:      msg,
			AnalyzedAt:   at,
		}
		if rec, ok := i.tables.Recommend(f.Failure, f.Sector); ok {
			ins.Status = InspectionRecommended
			ins.Recommendation = rec
			ins.Message = msg + " **RECOMENDAÇÃO DE AÇÃO:** " + rec
		}
		out = append(out, ins)
	}
	return out
}

// InspectAsync inspects a completed checklist with failures on a background
// goroutine and stores the result. Other checklists are ignored.
func (i *Inspector) InspectAsync(ctx context.Context, c *models.Checklist) bool {
	if c.Status != models.ChecklistStatusComplete || len(checklistFailures(c)) == 0 {
		return false
	}

	snapshot := *c
	ctx = context.WithoutCancel(ctx)
	i.wg.Add(1)
	go func() {
		defer i.wg.Done()
		inspection := i.Inspect(&snapshot)
		if err := i.store.SetInspection(ctx, snapshot.ID, inspection); err != nil {
			i.logger.Warn("saving inspection failed", "checklist_id", snapshot.ID, "error", err)
			return
		}
		i.logger.Debug("checklist inspected", "checklist_id", snapshot.ID, "failures", len(inspection))
	}()
	return true
}

// Wait blocks until every background inspection has finished.
func (i *Inspector) Wait() {
	i.wg.Wait()
}

func checklistFailures(c *models.Checklist) []models.Failure {
	if len(c.Failures) > 0 {
		return c.Failures
	}
	if c.Failure == nil || strings.TrimSpace(*c.Failure) == "" {
		return nil
	}
	f := models.Failure{Failure: *c.Failure}
	if c.Sector != nil {
		f.Sector = *c.Sector
	}
	return []models.Failure{f}
}
