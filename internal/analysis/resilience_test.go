package analysis

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

func resilienceRows() []models.FailureRecord {
	return []models.FailureRecord{
		{FailureLabel: "A", Sector: "SMT", RootCauseDetailed: "c1", Quantity: 5},
		{FailureLabel: "B", Sector: "PTH", RootCauseDetailed: "c2", Quantity: 3},
		{FailureLabel: "C", Sector: "SMT", RootCauseDetailed: "c1", Quantity: 1},
		{FailureLabel: "D", Sector: "Tempo", RootCauseDetailed: "c3", Quantity: 1},
	}
}

func TestResilience_ExplanationByIntent(t *testing.T) {
	tests := []struct {
		intent    models.Intent
		kind      string
		chartType string
		title     string
		text      string
	}{
		{models.IntentQuality, "FALHAS", models.ChartPie, "Top 3 Falhas", "**A, B, C**, totalizando **9** ocorrências"},
		{models.IntentSector, "SETORES", models.ChartBar, "Top 3 Setores", "**SMT, PTH, Tempo**. Concentre a auditoria"},
		{models.IntentIndividual, "SETORES", models.ChartBar, "Top 3 Setores", "**SMT, PTH, Tempo**"},
		{models.IntentRootCause, "CAUSAS", models.ChartPie, "Top 3 Causas", "**c1, c2, c3**. Isso requer"},
		{models.IntentSMTFocus, "CAUSAS", models.ChartPie, "Top 3 Causas", "**c1, c2, c3**"},
	}
	for _, tt := range tests {
		t.Run(string(tt.intent), func(t *testing.T) {
			e := newTestEngine(nil, fakeLocal(tt.intent))
			res, err := e.Resilience(context.Background(), resilienceRows(), "qualquer")
			require.NoError(t, err)

			assert.Equal(t, models.StatusInfo, res.Status)
			assert.Contains(t, res.Summary, "**Análise de Resiliência (Fallback Local Ativado)**")
			assert.Contains(t, res.Summary, "**'"+tt.kind+"'**")
			assert.Contains(t, res.Summary, tt.text)
			require.Len(t, res.Charts, 1)
			assert.Equal(t, tt.chartType, res.Charts[0].ChartType)
			assert.Equal(t, tt.title, res.Charts[0].Title)
			require.Len(t, res.Tips, 1)
			assert.Equal(t, "Modo Autônomo", res.Tips[0].Title)
		})
	}
}

func TestResilience_GeneralShowsEveryDimension(t *testing.T) {
	for _, local := range []LocalClassifier{nil, fakeLocal(models.IntentGeneral), fakeLocal(models.IntentNLP)} {
		e := newTestEngine(nil, local)
		res, err := e.Resilience(context.Background(), resilienceRows(), "olá")
		require.NoError(t, err)

		assert.Contains(t, res.Summary, "**'GENERAL'**")
		assert.Contains(t, res.Summary, "**10** falhas no total")
		require.Len(t, res.Charts, 3)
		assert.Equal(t, "Top 3 Falhas", res.Charts[0].Title)
		assert.Equal(t, "Top 3 Setores", res.Charts[1].Title)
		assert.Equal(t, "Top 3 Causas", res.Charts[2].Title)
		assert.True(t, strings.HasSuffix(res.Tips[0].Detail, "Intenção classificada como 'general'."))
	}
}

func TestResilience_NoQuantity(t *testing.T) {
	e := newTestEngine(nil, fakeLocal(models.IntentQuality))
	rows := []models.FailureRecord{{FailureLabel: "A"}}

	res, err := e.Resilience(context.Background(), rows, "taxa de rejeição")
	require.NoError(t, err)

	assert.Equal(t, models.StatusInfo, res.Status)
	assert.Contains(t, res.Summary, "**'GENERAL'**")
	assert.Contains(t, res.Summary, "Sem dados válidos para análise no período selecionado.")
	assert.Empty(t, res.Charts)
}
