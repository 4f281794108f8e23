package intent_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiranshivaraju/qualitylens/internal/intent"
	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

type reasonerFunc func(ctx context.Context, query string) ([]string, error)

func (f reasonerFunc) ClassifyIntent(ctx context.Context, query string) ([]string, error) {
	return f(ctx, query)
}

func trained(t *testing.T) *intent.Classifier {
	t.Helper()
	c, err := intent.TrainDefault()
	require.NoError(t, err)
	return c
}

func TestDefaultSamples_ExpandsSectorTemplates(t *testing.T) {
	samples, err := intent.DefaultSamples()
	require.NoError(t, err)

	var sector int
	for _, s := range samples {
		if s.Label == models.IntentSector {
			sector++
		}
	}
	assert.Equal(t, 64, sector)
	assert.Contains(t, samples, intent.Sample{Text: "análise do setor de Proteção 1", Label: models.IntentSector})
}

func TestClassifier_RecallsTrainingPhrases(t *testing.T) {
	c := trained(t)
	samples, err := intent.DefaultSamples()
	require.NoError(t, err)

	for _, s := range samples {
		assert.Equal(t, s.Label, c.Predict(s.Text), "phrase %q", s.Text)
	}
}

func TestClassifier_Paraphrases(t *testing.T) {
	c := trained(t)

	tests := []struct {
		query string
		want  models.Intent
	}{
		{"Pareto das falhas do mês", models.IntentRootCause},
		{"qual a taxa de rejeição mensal?", models.IntentQuality},
		{"resumo das observações de hoje", models.IntentNLP},
		{"análise do setor de PTH!", models.IntentSector},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Predict(tt.query))
		})
	}
}

func TestClassifier_UnknownTextIsGeneral(t *testing.T) {
	c := trained(t)

	intentGot, score := c.PredictScore("xyzzy plugh")
	assert.Equal(t, models.IntentGeneral, intentGot)
	assert.Zero(t, score)
	assert.Equal(t, models.IntentGeneral, c.Predict(""))
}

func TestClassifier_Untrained(t *testing.T) {
	var c *intent.Classifier
	assert.False(t, c.Trained())
	assert.Equal(t, models.IntentGeneral, c.Predict("pareto das falhas"))

	_, err := intent.Train(nil, intent.DefaultThreshold)
	assert.ErrorIs(t, err, intent.ErrModelNotTrained)

	_, err = intent.Train([]intent.Sample{{Text: "x", Label: "bogus"}}, intent.DefaultThreshold)
	assert.ErrorIs(t, err, intent.ErrModelNotTrained)
}

func TestClassifier_SaveLoad(t *testing.T) {
	c := trained(t)

	var buf bytes.Buffer
	require.NoError(t, c.Save(&buf))

	loaded, err := intent.Load(&buf)
	require.NoError(t, err)
	assert.Equal(t, c.Labels(), loaded.Labels())

	for _, q := range []string{"pareto das falhas", "falhas smt", "tudo bem?", "desempenho operadores"} {
		assert.Equal(t, c.Predict(q), loaded.Predict(q), q)
	}
}

func TestLoad_Invalid(t *testing.T) {
	_, err := intent.Load(bytes.NewBufferString("not json"))
	assert.Error(t, err)

	_, err = intent.Load(bytes.NewBufferString(`{"version":2}`))
	assert.Error(t, err)

	_, err = intent.Load(bytes.NewBufferString(`{"version":1,"examples":[]}`))
	assert.ErrorIs(t, err, intent.ErrModelNotTrained)

	_, err = intent.Load(bytes.NewBufferString(`{"version":1,"examples":[{"label":"weather","vector":{"a":1}}]}`))
	assert.Error(t, err)
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		in     string
		want   models.Intent
		wantOK bool
	}{
		{"Setor", models.IntentSector, true},
		{"produção", models.IntentSector, true},
		{"causa_raiz", models.IntentRootCause, true},
		{"causa raiz", models.IntentRootCause, true},
		{"qualidade", models.IntentQuality, true},
		{"smt_foco", models.IntentSMTFocus, true},
		{"Revisores", models.IntentIndividual, true},
		{"funcionário", models.IntentIndividual, true},
		{"nlp", models.IntentNLP, true},
		{"default", models.IntentDefault, true},
		{"weather", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := intent.Canonical(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetector_PrimaryPath(t *testing.T) {
	d := intent.NewDetector(reasonerFunc(func(context.Context, string) ([]string, error) {
		return []string{"setor", "qualidade", "setor", "banana"}, nil
	}), trained(t))

	res := d.Primary(context.Background(), "como está a produção?")
	require.NoError(t, res.Err)
	assert.Equal(t, []models.Intent{models.IntentSector, models.IntentQuality}, res.Intents.List())

	got := d.Detect(context.Background(), "como está a produção?")
	assert.Equal(t, []models.Intent{models.IntentSector, models.IntentQuality}, got.List())
}

func TestDetector_FallsBackToLocal(t *testing.T) {
	tests := []struct {
		name     string
		reasoner intent.Reasoner
	}{
		{"transport error", reasonerFunc(func(context.Context, string) ([]string, error) {
			return nil, errors.New("connection refused")
		})},
		{"no valid intents", reasonerFunc(func(context.Context, string) ([]string, error) {
			return []string{"weather"}, nil
		})},
		{"no reasoner", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := intent.NewDetector(tt.reasoner, trained(t))

			res := d.Primary(context.Background(), "pareto das falhas")
			assert.ErrorIs(t, res.Err, intent.ErrPrimaryUnavailable)

			got := d.Detect(context.Background(), "pareto das falhas")
			assert.Equal(t, []models.Intent{models.IntentRootCause}, got.List())
		})
	}
}

func TestDetector_LocalGeneralBecomesDefault(t *testing.T) {
	d := intent.NewDetector(nil, trained(t))

	got := d.Detect(context.Background(), "olá, me ajude")
	assert.Equal(t, []models.Intent{models.IntentDefault}, got.List())
}

func TestDetector_UntrainedLocalStillAnswers(t *testing.T) {
	d := intent.NewDetector(nil, nil)

	got := d.Detect(context.Background(), "qualquer coisa")
	assert.Equal(t, []models.Intent{models.IntentDefault}, got.List())
}

func TestDetector_KeywordOverrideAddsIndividual(t *testing.T) {
	d := intent.NewDetector(reasonerFunc(func(context.Context, string) ([]string, error) {
		return []string{"quality"}, nil
	}), trained(t))

	got := d.Detect(context.Background(), "qual revisor tem a maior rejeição?")
	assert.True(t, got.Has(models.IntentIndividual))
	assert.True(t, got.Has(models.IntentQuality))
}
