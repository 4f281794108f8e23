package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiranshivaraju/qualitylens/internal/apikey"
	"github.com/kiranshivaraju/qualitylens/internal/intent"
	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeRecords(t *testing.T, records []models.RawRecord) string {
	t.Helper()
	data, err := json.Marshal(records)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func lotRecords() []models.RawRecord {
	return []models.RawRecord{
		{"document_id": "NC00001", "failure": "Trilha rompida", "sector": "PTH", "quantity": 2, "quantity_produced": 100, "record_date": "2024-05-20"},
		{"document_id": "NC00002", "failure": "Solda fria", "sector": "SMT", "quantity": 3, "quantity_produced": 100, "record_date": "2024-05-25"},
	}
}

func TestAsk_Risk(t *testing.T) {
	path := writeRecords(t, lotRecords())

	out, err := execute(t, "", "ask", "--records", path, "--now", "2024-06-01T10:00:00Z", "qual", "o", "risco", "do", "lote?")
	require.NoError(t, err, out)

	assert.Contains(t, out, "Análise de Risco Concluída.")
	assert.Contains(t, out, "- Risco Calculado: Probabilidade de falha no lote: **1.75%**.")
}

func TestAsk_JSONFromStdin(t *testing.T) {
	data, err := json.Marshal(lotRecords())
	require.NoError(t, err)

	out, err := execute(t, string(data), "ask", "-r", "-", "-f", "json", "--now", "2024-06-01T10:00:00Z", "quais as principais falhas?")
	require.NoError(t, err, out)

	var resp models.AnalysisResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "quais as principais falhas?", resp.Query)
	assert.NotEmpty(t, resp.Summary)
	assert.NotNil(t, resp.VisualizationData)
}

func TestAsk_NoRecords(t *testing.T) {
	path := writeRecords(t, []models.RawRecord{})

	out, err := execute(t, "", "ask", "--records", path, "top falhas")
	require.NoError(t, err)
	assert.Contains(t, out, "Nenhum dado encontrado para análise")
}

func TestAsk_Errors(t *testing.T) {
	path := writeRecords(t, lotRecords())

	tests := []struct {
		name string
		args []string
	}{
		{"missing records flag", []string{"ask", "top falhas"}},
		{"missing query", []string{"ask", "--records", path}},
		{"bad format", []string{"ask", "--records", path, "--format", "xml", "top falhas"}},
		{"bad now", []string{"ask", "--records", path, "--now", "ontem", "top falhas"}},
		{"absent file", []string{"ask", "--records", filepath.Join(t.TempDir(), "x.json"), "top falhas"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "", tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestIntents_TrainThenClassify(t *testing.T) {
	model := filepath.Join(t.TempDir(), "model.json")

	out, err := execute(t, "", "intents", "train", "--out", model)
	require.NoError(t, err, out)
	assert.Contains(t, out, "-> "+model)

	f, err := os.Open(model)
	require.NoError(t, err)
	defer f.Close()
	loaded, err := intent.Load(f)
	require.NoError(t, err)

	out, err = execute(t, "", "intents", "classify", "--model", model, "quais", "os", "defeitos", "mais", "frequentes?")
	require.NoError(t, err, out)

	label, _, ok := strings.Cut(strings.TrimSpace(out), "\t")
	require.True(t, ok, out)
	assert.Equal(t, string(loaded.Predict("quais os defeitos mais frequentes?")), label)
}

func TestIntents_TrainCustomCorpus(t *testing.T) {
	dir := t.TempDir()
	corpus := filepath.Join(dir, "corpus.yaml")
	require.NoError(t, os.WriteFile(corpus, []byte(`
examples:
  quality:
    - "taxa de defeitos do mês"
    - "qualidade da produção"
  root_cause:
    - "causa raiz das falhas"
    - "por que a solda falhou"
`), 0o600))
	model := filepath.Join(dir, "model.json")

	out, err := execute(t, "", "intents", "train", "--corpus", corpus, "--out", model)
	require.NoError(t, err, out)
	assert.Contains(t, out, "trained on 4 samples, 2 intents")
}

func TestKeysCreate_PrintsHash(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	out, err := execute(t, "", "keys", "create", "--name", "bootstrap", "--scope", "admin")
	require.NoError(t, err, out)

	var minted mintedKey
	require.NoError(t, json.Unmarshal([]byte(out), &minted))
	assert.Equal(t, "bootstrap", minted.Name)
	assert.Equal(t, []string{apikey.ScopeAdmin}, minted.Scopes)
	assert.Equal(t, apikey.Prefix(minted.Key), minted.KeyPrefix)
	assert.False(t, minted.Stored)
	assert.True(t, apikey.Matches(&models.APIKey{KeyHash: minted.KeyHash}, minted.Key))
}

func TestKeysCreate_UnknownScope(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := execute(t, "", "keys", "create", "--name", "x", "--scope", "root")
	assert.ErrorIs(t, err, apikey.ErrUnknownScope)
}
