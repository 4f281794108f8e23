package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/kiranshivaraju/qualitylens/internal/domain"
	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

var productTerms = []string{"placa", "produto", "componente", "item", "modelo"}

var productPalette = []string{"#00b37c", "#24a4ff", "#ffcd56", "#9966ff", "#ff9f40"}

// RootCause ranks the top products when the query is about products, and
// otherwise the top detailed root causes and product lines.
func (e *Engine) RootCause(_ context.Context, rows []models.FailureRecord, query string) (models.AnalysisResult, error) {
	if len(rows) == 0 {
		return failResult("Análise de causa raiz não executada: não há registros."), nil
	}
	if mentionsAny(query, productTerms) {
		return productRanking(rows), nil
	}

	causes := top(shares(countRows(rows, func(r models.FailureRecord) string { return r.RootCauseDetailed })), 5)
	lines := top(shares(countRows(rows, func(r models.FailureRecord) string { return r.ProductLine })), 5)

	topCause, topLine := causes[0], lines[0]
	summary := fmt.Sprintf("**Análise de Prioridade (Conhecimento de Processo)**\n"+
		"A principal causa de falhas é **%s**, representando **%.2f%%** do total.\n"+
		"A linha de produtos com maior incidência de falhas é a **Linha %s** (**%.2f%%** das ocorrências).",
		topCause.Key, topCause.Value, topLine.Key, topLine.Value)

	return models.AnalysisResult{
		Status:  models.StatusOK,
		Summary: summary,
		Charts: []models.Chart{
			barChart("Distribuição Top 5 de Falhas por Causa Raiz Detalhada", "Percentual de Falhas", causes, "rgba(75, 192, 192, 0.7)"),
			barChart("Distribuição Top 5 de Falhas por Linha de Produto", "Percentual de Falhas", lines, "rgba(255, 159, 64, 0.7)"),
		},
		Tips: []models.Tip{
			{Title: "Ação Prioritária (Causa)", Detail: fmt.Sprintf("Concentre esforços na causa **'%s'**.", topCause.Key)},
			{Title: "Ação Prioritária (Produto)", Detail: fmt.Sprintf("Realize auditorias nos procedimentos de montagem e teste dos produtos da Linha de %s.", topLine.Key)},
		},
		Topics: []models.Topic{{Name: topCause.Key, Count: int(topCause.Value)}},
	}, nil
}

func productRanking(rows []models.FailureRecord) models.AnalysisResult {
	counts := countRows(rows, func(r models.FailureRecord) string {
		if r.Product == "" {
			return models.UnknownIdentity
		}
		return r.Product
	})
	products := top(shares(counts), 5)
	topProduct := products[0]

	summary := fmt.Sprintf("**Análise de Prioridade de Produto (Causa Raiz)**\n"+
		"O produto/item com maior incidência de falhas é **%s**, representando **%.2f%%** do total.\n"+
		"Recomenda-se uma investigação aprofundada neste item específico.",
		topProduct.Key, topProduct.Value)

	return models.AnalysisResult{
		Status:  models.StatusOK,
		Summary: summary,
		Charts: []models.Chart{
			pieChart("Distribuição Top 5 de Falhas por Produto", "Percentual de Falhas", products, productPalette),
		},
		Tips: []models.Tip{
			{Title: "Foco de Engenharia", Detail: fmt.Sprintf("Concentre a investigação no design e montagem do item **%s**.", topProduct.Key)},
			{Title: "Auditoria de Processo", Detail: "Verifique o processo produtivo que leva à falha deste item."},
		},
		Topics: []models.Topic{{Name: "Falha do Produto " + topProduct.Key, Count: int(counts[0].Value)}},
	}
}

// mentionsAny reports whether the normalized query contains any term as a
// substring.
func mentionsAny(query string, terms []string) bool {
	q := domain.NormalizeText(query)
	for _, t := range terms {
		if strings.Contains(q, t) {
			return true
		}
	}
	return false
}
