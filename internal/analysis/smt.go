package analysis

import (
	"context"
	"fmt"

	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

// SMTTrend reports the monthly trend and the top individual failures among
// solder/SMT-related root causes. No such rows yields INFO, not FAIL.
func (e *Engine) SMTTrend(_ context.Context, rows []models.FailureRecord, _ string) (models.AnalysisResult, error) {
	smt := filterRows(rows, func(r models.FailureRecord) bool { return e.tables.IsSMTRelated(r.RootCauseDetailed) })
	if len(smt) == 0 {
		return infoResult("Nenhuma falha de solda ou SMT encontrada no dataset atual para análise detalhada."), nil
	}

	trend := series(smt, Monthly, func(r models.FailureRecord) float64 { return float64(r.Quantity) })
	if len(trend) == 0 {
		return infoResult("Dados de tendência SMT insuficientes."), nil
	}

	failures := top(countRows(smt, func(r models.FailureRecord) string { return r.FailureLabel }), 5)
	leader := failures[0]

	var total float64
	for _, p := range trend {
		total += p.Value
	}

	summary := fmt.Sprintf("**Análise Focada: Risco e Tendência de Falhas de Solda/SMT**\n\n"+
		"No período, foram registradas **%d falhas** relacionadas diretamente a processos SMT ou Solda.\n\n"+
		"**Tendência:** A tendência de falhas por mês é mostrada no gráfico de linha abaixo. "+
		"Uma investigação é necessária se a tendência for crescente.\n\n"+
		"**Principal Causa Tática:** A falha mais comum neste grupo é **'%s'**.",
		int(total), leader.Key)

	return models.AnalysisResult{
		Status:  models.StatusOK,
		Summary: summary,
		Charts: []models.Chart{
			lineChart("1. Tendência Mensal de Falhas SMT/Solda (Contagem)", "Total de Falhas SMT", trend,
				"rgb(255, 165, 0)", "rgba(255, 165, 0, 0.5)"),
			barChart("2. Top 5 Falhas Individuais dentro do Processo SMT", "Contagem", failures, "rgba(0, 150, 255, 0.7)"),
		},
		Tips: []models.Tip{
			{Title: "Foco de Processo SMT", Detail: fmt.Sprintf("O time de SMT deve auditar imediatamente o processo e insumos relacionados à falha **'%s'**.", leader.Key)},
			{Title: "Monitoramento", Detail: "Use o gráfico de tendência para determinar se as ações corretivas recentes estão surtindo efeito."},
		},
		Topics: []models.Topic{{Name: "Foco SMT: " + leader.Key, Count: int(leader.Value)}},
	}, nil
}

func infoResult(summary string) models.AnalysisResult {
	return models.AnalysisResult{
		Status:  models.StatusInfo,
		Summary: summary,
		Charts:  []models.Chart{},
		Tips:    []models.Tip{},
	}
}
