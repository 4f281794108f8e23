package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

type explanation string

const (
	explainFailures explanation = "falhas"
	explainSectors  explanation = "setores"
	explainCauses   explanation = "causas"
	explainGeneral  explanation = "general"
)

var explanationByIntent = map[models.Intent]explanation{
	models.IntentQuality:    explainFailures,
	models.IntentSector:     explainSectors,
	models.IntentIndividual: explainSectors,
	models.IntentRootCause:  explainCauses,
	models.IntentSMTFocus:   explainCauses,
}

var (
	warmPalette = []string{"#ff6384", "#36a2eb", "#ffcd56"}
	coolPalette = []string{"#4bc0c0", "#ff9f40", "#9966ff"}
)

// Resilience answers without the reasoning service or the domain analyzers.
// It classifies the query locally, explains the matching top-3 grouping and
// always returns INFO with a banner marking the degraded mode.
func (e *Engine) Resilience(_ context.Context, rows []models.FailureRecord, query string) (models.AnalysisResult, error) {
	intent := models.IntentGeneral
	if e.local != nil {
		intent = e.local.Predict(query)
	}
	kind, ok := explanationByIntent[intent]
	if !ok {
		kind = explainGeneral
	}

	text, charts := explain(rows, kind)
	if len(charts) == 0 && kind != explainGeneral {
		kind = explainGeneral
		text, charts = explain(rows, kind)
	}

	summary := fmt.Sprintf("**Análise de Resiliência (Fallback Local Ativado)**\n\n"+
		"A IA Principal encontrou um erro de comunicação ou parsing.\n"+
		"O sistema ativou o modo Resiliência, analisando a intenção **'%s'** localmente.\n\n"+
		"**Resumo Técnico:** %s",
		strings.ToUpper(string(kind)), text)

	return models.AnalysisResult{
		Status:  models.StatusInfo,
		Summary: summary,
		Charts:  charts,
		Tips: []models.Tip{{
			Title:  "Modo Autônomo",
			Detail: fmt.Sprintf("O sistema respondeu sem depender de LLM externo. Intenção classificada como '%s'.", kind),
		}},
	}, nil
}

// explain groups the table by the dimension kind asks for and describes the
// top three groups. The general kind reports every dimension.
func explain(rows []models.FailureRecord, kind explanation) (string, []models.Chart) {
	total := totalQuantity(rows)
	if total == 0 {
		return "Sem dados válidos para análise no período selecionado.", []models.Chart{}
	}

	charts := []models.Chart{}
	general := kind == explainGeneral

	if kind == explainFailures || general {
		groups := top(sumQuantity(rows, func(r models.FailureRecord) string { return r.FailureLabel }), 3)
		charts = append(charts, pieChart("Top 3 Falhas", "Contagem", groups, warmPalette))
		if !general {
			var sum float64
			for _, g := range groups {
				sum += g.Value
			}
			return fmt.Sprintf("As falhas mais frequentes são **%s**, totalizando **%.0f** ocorrências neste período.",
				strings.Join(keys(groups), ", "), sum), charts
		}
	}

	if kind == explainSectors || general {
		groups := top(sumQuantity(rows, func(r models.FailureRecord) string { return r.Sector }), 3)
		charts = append(charts, barChart("Top 3 Setores", "Contagem", groups, coolPalette[0]))
		charts[len(charts)-1].Datasets[0].BackgroundColor = coolPalette
		if !general {
			return fmt.Sprintf("Os setores com mais falhas reportadas são **%s**. Concentre a auditoria de processo nestas áreas.",
				strings.Join(keys(groups), ", ")), charts
		}
	}

	if kind == explainCauses || general {
		groups := top(sumQuantity(rows, func(r models.FailureRecord) string { return r.RootCauseDetailed }), 3)
		charts = append(charts, pieChart("Top 3 Causas", "Contagem", groups, warmPalette))
		if !general {
			return fmt.Sprintf("As principais causas-raiz no período são **%s**. Isso requer uma ação corretiva imediata do time de Engenharia.",
				strings.Join(keys(groups), ", ")), charts
		}
	}

	return fmt.Sprintf("A análise estatística padrão mostra **%d** falhas no total. "+
		"O sistema está exibindo os dados primários encontrados para o período.", total), charts
}
