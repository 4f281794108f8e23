package analysis

import (
	"context"
	"fmt"

	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

var reviewerTerms = []string{"revisao", "revisores", "pessoas da revisao"}

// Individual sums failures per operator, machine or responsible person.
// Rows with an unknown identity are left out of the ranking. Queries about
// reviewers are restricted to the review stations and grouped by station.
func (e *Engine) Individual(_ context.Context, rows []models.FailureRecord, query string) (models.AnalysisResult, error) {
	reviewers := mentionsAny(query, reviewerTerms)

	key := func(r models.FailureRecord) string { return r.Identity }
	if reviewers {
		rows = filterRows(rows, func(r models.FailureRecord) bool { return e.tables.IsReviewer(r.Sector) })
		key = func(r models.FailureRecord) string { return r.Sector }
	} else {
		// Rows without a value in the table's identity column are not ranked.
		rows = filterRows(rows, func(r models.FailureRecord) bool { return r.Identity != models.UnknownIdentity })
	}
	if len(rows) == 0 {
		return failResult("Nenhum dado encontrado para revisão ou colaboradores."), nil
	}

	groups := sumQuantity(rows, key)
	leader := groups[0]

	focus, title := "Foco: Operadores/Setores", "Falhas por Operador/Máquina"
	if reviewers {
		focus, title = "Foco: Revisores da Revisão", "Falhas por Revisor da Revisão"
	}

	summary := fmt.Sprintf("**Análise de Performance Individual**\n\n%s.\n"+
		"O total de falhas foi somado por responsável. "+
		"O principal destaque é **%s** com **%d** falhas registradas.",
		focus, leader.Key, int(leader.Value))

	return models.AnalysisResult{
		Status:  models.StatusOK,
		Summary: summary,
		Charts: []models.Chart{
			barChart(title, "Total de Falhas", groups, "rgba(255, 99, 132, 0.7)"),
		},
		Tips: []models.Tip{
			{Title: "Atenção ao Top Falhador", Detail: fmt.Sprintf("Verifique o processo de %s.", leader.Key)},
			{Title: "Comparativo", Detail: "Analise o desempenho dos demais como referência."},
		},
		Topics: topicsFrom(groups),
	}, nil
}
