package analysis

import (
	"context"
	"fmt"

	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

// StructuredDefault summarizes the top root causes, product lines and the
// most common failure. It succeeds for any non-empty table.
func (e *Engine) StructuredDefault(_ context.Context, rows []models.FailureRecord, _ string) (models.AnalysisResult, error) {
	if len(rows) == 0 {
		return failResult("Não há dados válidos para realizar a Análise Estruturada Padrão."), nil
	}

	causes := top(countRows(rows, func(r models.FailureRecord) string { return r.RootCauseDetailed }), 3)
	lines := top(countRows(rows, func(r models.FailureRecord) string { return r.ProductLine }), 3)
	topFailure, _ := mode(rows, func(r models.FailureRecord) string { return r.FailureLabel })

	summary := fmt.Sprintf("**Análise Estruturada Padrão**\n"+
		"Principais prioridades de foco com base nos dados brutos (%d registros):\n\n"+
		"1. **Prioridade de Processo (Causa Raiz):** A causa mais comum é **'%s'**.\n"+
		"2. **Prioridade de Produção (Linha):** A linha de produto **'%s'** tem a maior incidência de falhas.\n"+
		"3. **Falha de Componente:** A falha mais registrada é **'%s'**.",
		len(rows), causes[0].Key, lines[0].Key, topFailure)

	return models.AnalysisResult{
		Status:  models.StatusOK,
		Summary: summary,
		Charts: []models.Chart{
			pieChart("Top 3 Causas Raiz de Processo", "Ocorrências", causes, []string{"#4bc0c0", "#ff6384", "#ffcd56"}),
			pieChart("Top 3 Linhas de Produto com Falha", "Ocorrências", lines, []string{"#36a2eb", "#9966ff", "#ff9f40"}),
		},
		Tips: []models.Tip{
			{Title: "Foco Imediato", Detail: fmt.Sprintf("Concentre a investigação na causa **'%s'**.", causes[0].Key)},
			{Title: "Sugestão de Busca", Detail: "Para detalhes, pergunte: 'Qual a tendência de rejeição mensal?' ou 'Análise do tópico das observações.'"},
		},
		Topics: []models.Topic{{Name: "Análise Estruturada Padrão", Count: len(rows)}},
	}, nil
}
