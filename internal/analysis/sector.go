package analysis

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kiranshivaraju/qualitylens/internal/domain"
	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

// Sector breaks failures down by detection sector. Unlike the other
// analyzers it returns the complete breakdown as a table alongside the chart.
func (e *Engine) Sector(_ context.Context, rows []models.FailureRecord, _ string) (models.AnalysisResult, error) {
	if len(rows) == 0 {
		return failResult("Nenhum dado disponível para análise por setor."), nil
	}

	groups := sumQuantity(rows, func(r models.FailureRecord) string { return r.Sector })
	leader := groups[0]
	total := totalQuantity(rows)

	share := 0.0
	if total > 0 {
		share = leader.Value / float64(total) * 100
	}

	tableRows := make([][]any, len(groups))
	for i, g := range groups {
		tableRows[i] = []any{g.Key, int(g.Value)}
	}

	summary := fmt.Sprintf("**Análise de Falhas por Setor**\n\n"+
		"O setor com maior incidência de falhas é **%s**, com **%d** registros, "+
		"representando aproximadamente %.1f%% do total de %d falhas.",
		leader.Key, int(leader.Value), share, total)

	return models.AnalysisResult{
		Status:  models.StatusOK,
		Summary: summary,
		Charts: []models.Chart{
			barChart("Distribuição de Falhas por Setor", "Total de Falhas", groups, "rgba(54, 162, 235, 0.7)"),
			{
				Title:     "Tabela de Falhas por Setor",
				Labels:    []string{"Setor", "Total de Falhas"},
				Datasets:  []models.Dataset{{Label: "Falhas", Rows: tableRows, Type: models.ChartTable}},
				ChartType: models.ChartTable,
			},
		},
		Tips: []models.Tip{
			{Title: "Foco de Melhoria", Detail: fmt.Sprintf("Investigue as causas no setor **%s**.", leader.Key)},
			{Title: "Análise Completa", Detail: "Considere os setores de menor falha como referência de boas práticas."},
		},
		Topics: topicsFrom(groups),
	}, nil
}

// SectorDeepDive runs quality, root-cause and individual analyses (plus
// topics when there is enough observation text) on the rows of the sector
// named in the query, and concatenates them in that order.
func (e *Engine) SectorDeepDive(ctx context.Context, rows []models.FailureRecord, query string) (models.AnalysisResult, error) {
	sector, ok := e.tables.SectorInQuery(query)
	if !ok {
		return failResult("Não foi possível identificar o setor específico (SMT, PTH, Revisão, Proteção 1, etc.) na sua pergunta. Por favor, especifique."), nil
	}

	needle := domain.NormalizeText(sector)
	subset := filterRows(rows, func(r models.FailureRecord) bool {
		return strings.Contains(domain.NormalizeText(r.Sector), needle)
	})
	if len(subset) == 0 {
		return models.AnalysisResult{
			Status:  models.StatusOK,
			Summary: fmt.Sprintf("**Análise Setorial - %s:** Sem registros de falha encontrados para este setor no período selecionado.", sector),
			Charts:  []models.Chart{},
			Tips:    []models.Tip{},
		}, nil
	}

	type task struct {
		name  string
		run   Func
		query string
	}
	tasks := []task{
		{NameQuality, e.Quality, "qualidade do setor " + sector},
		{NameRootCause, e.RootCause, "causas do setor " + sector},
		{NameIndividual, e.Individual, "top operadores do setor " + sector},
	}
	if len(subset) > e.minTopicRows && hasObservations(subset) {
		tasks = append(tasks, task{NameTopics, e.Topics, "análise de tópicos das observações do setor " + sector})
	}

	results := make([]*models.AnalysisResult, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range tasks {
		g.Go(func() error {
			res, err := Safe(t.name, t.run)(gctx, subset, t.query)
			if err != nil {
				e.logger.Warn("sector sub-analysis failed", "analyzer", t.name, "sector", sector, "error", err)
				return nil
			}
			results[i] = &res
			return nil
		})
	}
	_ = g.Wait()

	var b strings.Builder
	fmt.Fprintf(&b, "**Análise Setorial Detalhada: %s** (%d registros)\n\n", sector, len(subset))
	merged := models.AnalysisResult{Status: models.StatusOK, Charts: []models.Chart{}, Tips: []models.Tip{}}
	for _, res := range results {
		if res == nil || !res.Usable() {
			continue
		}
		b.WriteString(res.Summary)
		b.WriteString("\n\n")
		merged.Charts = append(merged.Charts, res.Charts...)
		merged.Tips = append(merged.Tips, res.Tips...)
		merged.Topics = append(merged.Topics, res.Topics...)
	}
	merged.Summary = strings.TrimRight(b.String(), "\n")
	return merged, nil
}

func hasObservations(rows []models.FailureRecord) bool {
	for _, r := range rows {
		if strings.TrimSpace(r.CombinedObservation) != "" {
			return true
		}
	}
	return false
}
