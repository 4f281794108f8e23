package intelligence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

type fakeInspectionStore struct {
	mu    sync.Mutex
	saved map[int64][]models.Inspection
	err   error
}

func (f *fakeInspectionStore) SetInspection(_ context.Context, id int64, inspection []models.Inspection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.saved == nil {
		f.saved = make(map[int64][]models.Inspection)
	}
	f.saved[id] = inspection
	return nil
}

func strPtr(s string) *string { return &s }

func TestInspect_KnowledgeBaseMatch(t *testing.T) {
	i := NewInspector(nil, nil, func() time.Time { return fixedNow })
	c := &models.Checklist{
		Product: "P0939 PLACA MONTADA (SMD + PTH) 7348V2 TRD 2016 MODELO 01 MK 110VCA",
		Failures: []models.Failure{
			{Failure: "Falha de solda", Sector: "smt"},
			{Failure: "Trilha rompida", Sector: "PTH"},
		},
	}

	got := i.Inspect(c)
	require.Len(t, got, 2)

	assert.Equal(t, InspectionRecommended, got[0].Status)
	assert.Equal(t, "Revisar o perfil de temperatura do forno e a pasta de solda utilizada.", got[0].Recommendation)
	assert.Contains(t, got[0].Message, "**RECOMENDAÇÃO DE AÇÃO:**")
	assert.Equal(t, "Falha no Processo (Máquina de Solda/Pallet/Revisão)", got[0].RootCause)
	assert.Equal(t, "Tempo", got[0].ProductLine)

	assert.Equal(t, InspectionDomain, got[1].Status)
	assert.Empty(t, got[1].Recommendation)
	assert.Equal(t, 1, got[1].FailureIndex)
	assert.Equal(t, "Dano Físico (Acidente/Ajuste/Queima)", got[1].RootCause)
	assert.True(t, fixedNow.Equal(got[1].AnalyzedAt))
	assert.NotEqual(t, got[0].ID, got[1].ID)
}

func TestInspect_SingleFailure(t *testing.T) {
	i := NewInspector(nil, nil, nil)
	c := &models.Checklist{Product: "desconhecido", Failure: strPtr("Falha inventada"), Sector: strPtr("PTH")}

	got := i.Inspect(c)
	require.Len(t, got, 1)
	assert.Equal(t, models.CauseUndetermined, got[0].RootCause)
	assert.Equal(t, models.LineOther, got[0].ProductLine)
	assert.Equal(t, InspectionDomain, got[0].Status)
}

func TestInspectAsync(t *testing.T) {
	st := &fakeInspectionStore{}
	i := NewInspector(nil, st, nil)

	complete := &models.Checklist{ID: 7, Status: models.ChecklistStatusComplete, Failure: strPtr("Solda fria")}
	pending := &models.Checklist{ID: 8, Status: models.ChecklistStatusPending, Failure: strPtr("Solda fria")}
	empty := &models.Checklist{ID: 9, Status: models.ChecklistStatusComplete}

	assert.True(t, i.InspectAsync(context.Background(), complete))
	assert.False(t, i.InspectAsync(context.Background(), pending))
	assert.False(t, i.InspectAsync(context.Background(), empty))
	i.Wait()

	require.Len(t, st.saved, 1)
	assert.Len(t, st.saved[7], 1)
}

func TestInspectAsync_StoreErrorIsLogged(t *testing.T) {
	st := &fakeInspectionStore{err: errors.New("db gone")}
	i := NewInspector(nil, st, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.True(t, i.InspectAsync(ctx, &models.Checklist{ID: 1, Status: models.ChecklistStatusComplete, Failure: strPtr("X")}))
	i.Wait()
	assert.Empty(t, st.saved)
}
