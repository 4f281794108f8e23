package analysis

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

var reGreeting = regexp.MustCompile(`^(oi|olá|ola|bom dia|boa tarde|boa noite|tudo bem|e aí|e ai)[\s.,!?]*$`)

var definitionPatterns = []string{
	"o que é dppm", "dppm o que é", "o que significa dppm",
	"definição de dppm", "o que e dppm",
}

var continuationPatterns = []string{"continuar", "agora me mostre"}

// IsGreeting reports whether the whole query is a greeting.
func IsGreeting(query string) bool {
	return reGreeting.MatchString(strings.ToLower(strings.TrimSpace(query)))
}

// IsDefinition reports whether the query asks what DPPM means.
func IsDefinition(query string) bool {
	return containsAnyLower(query, definitionPatterns)
}

// IsContinuation reports whether the query asks to continue the last analysis.
func IsContinuation(query string) bool {
	return containsAnyLower(query, continuationPatterns)
}

func containsAnyLower(query string, patterns []string) bool {
	q := strings.ToLower(query)
	for _, p := range patterns {
		if strings.Contains(q, p) {
			return true
		}
	}
	return false
}

// Greeting returns the canned greeting for the time of day of now.
func Greeting(now time.Time) models.AnalysisResult {
	var salute string
	switch h := now.Hour(); {
	case h >= 5 && h < 12:
		salute = "Bom dia!"
	case h >= 12 && h < 18:
		salute = "Boa tarde!"
	default:
		salute = "Boa noite!"
	}

	return models.AnalysisResult{
		Status: models.StatusOK,
		Summary: salute + " Eu sou o assistente de qualidade do **QualityLens**. Em que posso te ajudar hoje?" +
			"\n\nPara começar, você pode me perguntar sobre:",
		Charts: []models.Chart{},
		Tips: []models.Tip{
			{Title: "Tendência de Qualidade", Detail: "Pergunte: 'Qual é a taxa de rejeição mensal da produção?'"},
			{Title: "Foco Geográfico", Detail: "Pergunte: 'Quais são as falhas mais comuns no setor de SMT?'"},
			{Title: "Desvio de Processo", Detail: "Pergunte: 'Análise do tópico das observações.'"},
		},
	}
}

// Definition explains the DPPM metric.
func Definition() models.AnalysisResult {
	return models.AnalysisResult{
		Status: models.StatusOK,
		Summary: "**DPPM** significa **Defeitos Por Milhão**.\n\n" +
			"É uma métrica de qualidade que mede a quantidade de peças defeituosas ou falhas encontradas " +
			"a cada 1 milhão de unidades produzidas.\n\n" +
			"**Por que é importante?**\n" +
			"- **Padronização:** Permite comparar a qualidade de diferentes processos ou fábricas.\n" +
			"- **Alta Precisão:** É ideal para processos de alta qualidade, onde a taxa de defeitos é muito baixa (ex: 0,05%).",
		Charts: []models.Chart{},
		Tips: []models.Tip{
			{Title: "Cálculo Rápido", Detail: "DPPM = (Total de Defeitos / Total Produzido) * 1.000.000"},
			{Title: "Meta 6 Sigma", Detail: "O objetivo final da metodologia 6 Sigma é atingir um DPPM de apenas 3,4."},
		},
	}
}

// NoData is the answer for an empty table.
func NoData() models.AnalysisResult {
	return models.AnalysisResult{
		Status:  models.StatusFail,
		Summary: "Nenhum dado encontrado para análise ou dados inválidos. Verifique a seleção de dados.",
		Charts:  []models.Chart{},
		Tips:    []models.Tip{{Title: "Base de Dados Vazia", Detail: "Verifique a fonte de dados e o filtro inicial."}},
	}
}

// Continuation replays the previous answer.
func Continuation(lastQuery, lastSummary string) models.AnalysisResult {
	return models.AnalysisResult{
		Status:  models.StatusInfo,
		Summary: fmt.Sprintf("Continuando a partir da última análise (%s):\n\n%s", lastQuery, lastSummary),
		Charts:  []models.Chart{},
		Tips:    []models.Tip{{Title: "Contexto", Detail: "Reutilizei o resumo da análise anterior para dar continuidade à sua exploração."}},
	}
}
