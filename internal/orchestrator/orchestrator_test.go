package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/kiranshivaraju/qualitylens/internal/ai/mock"
	"github.com/kiranshivaraju/qualitylens/internal/analysis"
	"github.com/kiranshivaraju/qualitylens/internal/intent"
	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var fixedNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

type fixedIntents struct {
	intents []models.Intent
	calls   atomic.Int64
}

func detect(intents ...models.Intent) *fixedIntents {
	return &fixedIntents{intents: intents}
}

func (f *fixedIntents) Detect(context.Context, string) models.IntentSet {
	f.calls.Add(1)
	return models.NewIntentSet(f.intents...)
}

func newTestOrchestrator(d IntentDetector, reasoner *mock.MockProvider) *Orchestrator {
	cfg := analysis.Config{Now: func() time.Time { return fixedNow }}
	var insight InsightSummarizer
	if reasoner != nil {
		cfg.Topics = reasoner
		insight = reasoner
	}
	return New(Config{
		Detector: d,
		Engine:   analysis.NewEngine(cfg),
		Insight:  insight,
		Now:      func() time.Time { return fixedNow },
	})
}

func staffRecords() []models.RawRecord {
	return []models.RawRecord{
		{"document_id": "NC00001", "operator_id": "Maria", "quantity": 5, "failure": "Solda fria", "sector": "PTH"},
		{"document_id": "NC00002", "operator_id": "João", "quantity": 3, "failure": "Curto de solda", "sector": "PTH"},
		{"document_id": "NC00003", "operator_id": "Maria", "quantity": 3, "failure": "Solda fria", "sector": "PTH"},
	}
}

func TestAnswer_IndividualRunsAlone(t *testing.T) {
	reasoner := mock.NewMockProvider()
	o := newTestOrchestrator(detect(models.IntentIndividual, models.IntentQuality), reasoner)

	res, err := o.Answer(context.Background(), "qual operador tem mais falhas?", staffRecords(), nil)
	require.NoError(t, err)

	assert.Equal(t, models.StatusOK, res.Status)
	assert.Contains(t, res.Summary, "**Maria** com **8** falhas")
	require.Len(t, res.Charts, 1)
	assert.Equal(t, []string{"Maria", "João"}, res.Charts[0].Labels)
	assert.Zero(t, reasoner.TopicCalls())
}

func TestAnswer_StrategicInsightTip(t *testing.T) {
	reasoner := mock.NewMockProvider()
	o := newTestOrchestrator(detect(models.IntentIndividual), reasoner)

	res, err := o.Answer(context.Background(), "qual operador tem mais falhas?", staffRecords(), nil)
	require.NoError(t, err)

	require.NotEmpty(t, res.Tips)
	last := res.Tips[len(res.Tips)-1]
	assert.Equal(t, "Insight Estratégico da IA", last.Title)
	assert.Equal(t, "Priorize a revisão do perfil do forno de refusão.", last.Detail)
	assert.Equal(t, 1, reasoner.InsightCalls())
}

func TestAnswer_InsightFailureIsSwallowed(t *testing.T) {
	reasoner := mock.NewFailingProvider(errors.New("quota exceeded"))
	o := newTestOrchestrator(detect(models.IntentIndividual), reasoner)

	res, err := o.Answer(context.Background(), "qual operador tem mais falhas?", staffRecords(), nil)
	require.NoError(t, err)

	assert.Equal(t, models.StatusOK, res.Status)
	for _, tip := range res.Tips {
		assert.NotEqual(t, "Insight Estratégico da IA", tip.Title)
	}
	assert.Equal(t, 1, reasoner.InsightCalls())
}

func TestAnswer_IndividualIgnoresRowsWithoutOperator(t *testing.T) {
	raw := append(staffRecords()[:2],
		models.RawRecord{"document_id": "NC00009", "quantity": 9, "failure": "Solda fria", "sector": "PTH"})
	o := newTestOrchestrator(detect(models.IntentIndividual), nil)

	res, err := o.Answer(context.Background(), "qual o operador com mais falhas?", raw, nil)
	require.NoError(t, err)

	require.Len(t, res.Charts, 1)
	assert.Equal(t, []string{"Maria", "João"}, res.Charts[0].Labels)
	assert.Equal(t, []float64{5, 3}, res.Charts[0].Datasets[0].Data)
	assert.Contains(t, res.Summary, "**Maria** com **5** falhas")
	assert.NotContains(t, res.Summary, "**PTH**")
}

func TestAnswer_SectorDeepDive(t *testing.T) {
	may := func(day int) time.Time { return time.Date(2024, 5, day, 0, 0, 0, 0, time.UTC) }
	raw := []models.RawRecord{
		{"document_id": "NC00001", "sector": "SMT", "failure": "Curto de solda", "quantity": 2, "operator_id": "Ana", "quantity_produced": 100, "record_date": may(3)},
		{"document_id": "NC00002", "sector": "SMT", "failure": "Solda fria", "quantity": 1, "operator_id": "Rui", "quantity_produced": 100, "record_date": may(4)},
		{"document_id": "NC00003", "sector": "PTH", "failure": "Trilha rompida", "quantity": 7, "operator_id": "Bia", "quantity_produced": 100, "record_date": may(4)},
	}
	o := newTestOrchestrator(detect(models.IntentQuality), nil)

	res, err := o.Answer(context.Background(), "como está o setor de SMT?", raw, nil)
	require.NoError(t, err)

	assert.Equal(t, models.StatusOK, res.Status)
	sections := []string{
		"**Análise Setorial Detalhada: SMT** (2 registros)",
		"**Análise de Qualidade: Taxa de Rejeição e Tendência (Mensal)**",
		"**Análise de Prioridade (Conhecimento de Processo)**",
		"**Análise de Performance Individual**",
	}
	last := -1
	for _, section := range sections {
		i := strings.Index(res.Summary, section)
		require.GreaterOrEqual(t, i, 0, "missing %q", section)
		assert.Greater(t, i, last, "%q out of order", section)
		last = i
	}
	// Only the SMT rows: 3 failures over 200 produced in 2024-05.
	assert.Contains(t, res.Summary, "A **média de Rejeição** no período analisado é de **1.50%**.")
	assert.Contains(t, res.Summary, "**Ana** com **2** falhas")
	assert.NotContains(t, res.Summary, "Bia")
	assert.Len(t, res.Charts, 4)
}

func TestAnswer_GreetingSkipsTable(t *testing.T) {
	d := detect(models.IntentQuality)
	o := newTestOrchestrator(d, mock.NewMockProvider())

	res, err := o.Answer(context.Background(), "Olá!", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, models.StatusOK, res.Status)
	assert.True(t, strings.HasPrefix(res.Summary, "Bom dia!"))
	assert.Zero(t, d.calls.Load())
}

func TestAnswer_Definition(t *testing.T) {
	o := newTestOrchestrator(detect(), nil)

	res, err := o.Answer(context.Background(), "O que é DPPM?", nil, nil)
	require.NoError(t, err)
	assert.Contains(t, res.Summary, "**Defeitos Por Milhão**")
}

func TestAnswer_NoDataMakesNoCalls(t *testing.T) {
	d := detect(models.IntentQuality)
	reasoner := mock.NewMockProvider()
	o := newTestOrchestrator(d, reasoner)

	raw := []models.RawRecord{{"failure": "sem identificação"}}
	res, err := o.Answer(context.Background(), "qual a taxa de rejeição?", raw, nil)
	require.NoError(t, err)

	assert.Equal(t, models.StatusFail, res.Status)
	assert.Equal(t, "Base de Dados Vazia", res.Tips[0].Title)
	assert.Zero(t, d.calls.Load())
	assert.Zero(t, reasoner.TotalCalls())
}

func TestAnswer_EmptyQuery(t *testing.T) {
	o := newTestOrchestrator(detect(), nil)

	_, err := o.Answer(context.Background(), "   ", staffRecords(), nil)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestAnswer_FailingReasonerNeverFails(t *testing.T) {
	reasoner := mock.NewFailingProvider(errors.New("service unavailable"))
	local, err := intent.TrainDefault()
	require.NoError(t, err)
	d := intent.NewDetector(reasoner, local)
	o := newTestOrchestrator(d, reasoner)

	queries := []string{
		"qual a taxa de rejeição mensal?",
		"quais as principais causas de falha?",
		"resuma as observações dos técnicos",
		"me dê uma visão geral",
	}
	for _, q := range queries {
		res, err := o.Answer(context.Background(), q, staffRecords(), nil)
		require.NoError(t, err, q)
		assert.NotEqual(t, models.StatusFail, res.Status, q)
		assert.NotEmpty(t, res.Summary, q)
	}
}

func TestAnswer_AllAnalyzersFailFallsBackToResilience(t *testing.T) {
	// No reviewer rows, so the individual analyzer reports FAIL.
	o := newTestOrchestrator(detect(models.IntentIndividual), nil)
	mem := NewMemory(3)

	res, err := o.Answer(context.Background(), "quais revisores têm mais falhas?", staffRecords(), mem)
	require.NoError(t, err)

	assert.Equal(t, models.StatusInfo, res.Status)
	assert.Contains(t, res.Summary, "**Análise de Resiliência (Fallback Local Ativado)**")
	last, ok := mem.Last()
	require.True(t, ok)
	assert.Equal(t, res.Summary, last.Summary)
}

func TestAnswer_ForecastSentence(t *testing.T) {
	var raw []models.RawRecord
	for i, qty := range []int{10, 12, 14, 16} {
		raw = append(raw, models.RawRecord{
			"document_id": fmt.Sprintf("NC%05d", i+1),
			"failure":     "Trilha rompida",
			"sector":      "PTH",
			"quantity":    qty,
			"record_date": fmt.Sprintf("2024-%02d-10", i+1),
		})
	}
	o := newTestOrchestrator(detect(models.IntentRootCause), nil)

	res, err := o.Answer(context.Background(), "quais as principais causas?", raw, nil)
	require.NoError(t, err)

	assert.Contains(t, res.Summary, "📈 **Previsão de Risco:**")
	assert.Contains(t, res.Summary, "cerca de **18 falhas**")
	assert.Equal(t, "Ação Preventiva", res.Tips[len(res.Tips)-1].Title)
}

func TestAnswer_NoForecastWithoutHistory(t *testing.T) {
	o := newTestOrchestrator(detect(models.IntentRootCause), nil)

	res, err := o.Answer(context.Background(), "quais as principais causas?", staffRecords(), nil)
	require.NoError(t, err)
	assert.NotContains(t, res.Summary, "Previsão de Risco")
}

func TestAnswer_Continuation(t *testing.T) {
	o := newTestOrchestrator(detect(models.IntentRootCause), nil)
	mem := NewMemory(DefaultMemoryCapacity)

	first, err := o.Answer(context.Background(), "quais as principais causas?", staffRecords(), mem)
	require.NoError(t, err)

	res, err := o.Answer(context.Background(), "Agora me mostre mais", staffRecords(), mem)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInfo, res.Status)
	assert.Contains(t, res.Summary, "(quais as principais causas?)")
	assert.Contains(t, res.Summary, first.Summary)
}

func TestAnswer_ContinuationWithoutHistoryRunsAnalysis(t *testing.T) {
	o := newTestOrchestrator(detect(models.IntentRootCause), nil)

	res, err := o.Answer(context.Background(), "Agora me mostre mais", staffRecords(), NewMemory(2))
	require.NoError(t, err)
	assert.NotContains(t, res.Summary, "Continuando a partir")
}

func TestRun_KeepsPlanOrderAndSurvivesPanics(t *testing.T) {
	o := newTestOrchestrator(detect(), nil)
	result := func(summary string, delay time.Duration) analysis.Func {
		return func(ctx context.Context, _ []models.FailureRecord, _ string) (models.AnalysisResult, error) {
			time.Sleep(delay)
			return models.AnalysisResult{Status: models.StatusOK, Summary: summary}, nil
		}
	}
	p := plan{
		{"slow", result("first", 30*time.Millisecond)},
		{"boom", func(context.Context, []models.FailureRecord, string) (models.AnalysisResult, error) {
			panic("nil map")
		}},
		{"err", func(context.Context, []models.FailureRecord, string) (models.AnalysisResult, error) {
			return models.AnalysisResult{}, errors.New("bad input")
		}},
		{"fail", func(context.Context, []models.FailureRecord, string) (models.AnalysisResult, error) {
			return models.AnalysisResult{Status: models.StatusFail}, nil
		}},
		{"fast", result("second", 0)},
	}

	got := o.run(context.Background(), nil, "q", p)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Summary)
	assert.Equal(t, "second", got[1].Summary)
}

func TestMerge(t *testing.T) {
	got := merge([]models.AnalysisResult{
		{Status: models.StatusInfo, Summary: "a", Charts: []models.Chart{{Title: "c1"}}, Topics: []models.Topic{{Name: "t", Count: 1}}},
		{Status: models.StatusOK, Summary: "b", Tips: []models.Tip{{Title: "tip"}}},
	})

	assert.Equal(t, models.StatusOK, got.Status)
	assert.Equal(t, "a\n\nb", got.Summary)
	assert.Len(t, got.Charts, 1)
	assert.Len(t, got.Tips, 1)
	assert.Len(t, got.Topics, 1)
}

func TestPlan(t *testing.T) {
	o := newTestOrchestrator(detect(), nil)
	I := func(intents ...models.Intent) models.IntentSet { return models.NewIntentSet(intents...) }

	tests := []struct {
		name    string
		query   string
		intents models.IntentSet
		want    []string
	}{
		{"individual wins", "falhas no smt por operador", I(models.IntentIndividual, models.IntentQuality), []string{analysis.NameIndividual}},
		{"named sector", "rejeição do pth", I(models.IntentQuality), []string{analysis.NameSectorDeepDive}},
		{"sector ranking", "ranking por setor", I(models.IntentSector), []string{analysis.NameSector}},
		{"batch", "rejeição e causas", I(models.IntentQuality, models.IntentRootCause), []string{analysis.NameQuality, analysis.NameRootCause}},
		{"solder words add smt trend", "defeitos de solda", I(models.IntentRootCause), []string{analysis.NameRootCause, analysis.NameSMTTrend}},
		{"nlp", "resumo das observações", I(models.IntentNLP), []string{analysis.NameTopics}},
		{"general", "como vamos?", I(models.IntentGeneral), []string{analysis.NameResilience}},
		{"general appended", "rejeição", I(models.IntentQuality, models.IntentGeneral), []string{analysis.NameQuality, analysis.NameResilience}},
		{"default", "como vamos?", I(models.IntentDefault), []string{analysis.NameStructuredDefault}},
		{"default appended", "rejeição", I(models.IntentQuality, models.IntentDefault), []string{analysis.NameQuality, analysis.NameStructuredDefault}},
		{"nothing matched", "como vamos?", I(), []string{analysis.NameStructuredDefault}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, o.plan(tt.query, tt.intents).names())
		})
	}
}
