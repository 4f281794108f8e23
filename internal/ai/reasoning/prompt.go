package reasoning

import (
	"fmt"
	"strings"

	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

// IntentTags are the tags a provider may answer with. default is left out;
// a query that fits nothing is general.
var IntentTags = []string{
	string(models.IntentQuality),
	string(models.IntentRootCause),
	string(models.IntentIndividual),
	string(models.IntentSector),
	string(models.IntentSMTFocus),
	string(models.IntentNLP),
	string(models.IntentGeneral),
}

// IntentPrompt asks for the analysis categories a query belongs to.
func IntentPrompt(query string) string {
	return fmt.Sprintf(`Sua tarefa é classificar a intenção da consulta do usuário, usando APENAS as categorias pré-definidas.

Categorias:
- quality: métricas de qualidade (dppm, rejeição, taxa, tendência, percentual).
- root_cause: processos, linhas de produto, produtos específicos (placas, componentes) ou a raiz do problema.
- individual: desempenho de operadores, revisores, máquinas ou responsáveis.
- sector: áreas, departamentos, setores de origem ou detecção.
- smt_focus: processo SMT, solda, pasta, estêncil ou forno de refusão.
- nlp: análise de texto livre, observações, comentários ou tópicos.
- general: saudações ou pedidos genéricos que não se encaixam nas demais.

Retorne APENAS um objeto JSON {"intents": [...]} com UMA OU MAIS categorias.

Consulta do Usuário: %q`, query)
}

// TopicPrompt asks for the five main topics of the observation sample.
func TopicPrompt(sample []models.Observation, query string) string {
	var b strings.Builder
	b.WriteString("Lista de Observações de Falhas (ID: Texto):\n")
	for _, o := range sample {
		text := strings.TrimSpace(strings.ReplaceAll(o.Text, "\n", " "))
		fmt.Fprintf(&b, "%s: %q\n", o.DocumentID, text)
	}

	return fmt.Sprintf(`Você é um especialista em Análise de Causa Raiz de Manufatura.
Com base na lista de observações abaixo, realize uma Análise de Tópicos para identificar as 5 principais causas raiz ou temas relatados nos comentários.

1. GERE uma análise concisa (summary) de 2 a 3 frases.
2. CLASSIFIQUE os 5 tópicos mais relevantes (topics) e conte quantas vezes cada tópico ou sinônimo é mencionado (count).

Dados de Observação:
---
%s---

Consulta do Usuário (Para Contexto): %s

Retorne o resultado estritamente no formato JSON {"summary": "...", "topics": [{"name": "...", "count": 0}]}.`,
		b.String(), query)
}

// InsightPrompt asks for a strategic paragraph over topic data.
func InsightPrompt(topics []models.Topic) string {
	var b strings.Builder
	for _, t := range topics {
		fmt.Fprintf(&b, "- Tópico: %s (Contagem: %d)\n", t.Name, t.Count)
	}

	return fmt.Sprintf(`Você é um Consultor Estratégico de Qualidade.
Com base nos dados da análise de tópicos, forneça um único parágrafo de 3 a 4 frases de Insight Estratégico.

Foco do Insight:
1. CONECTE a causa raiz mais frequente com a necessidade de ação imediata.
2. SUGIRA o departamento ou processo que deve ser auditado.
3. CRIE um tom de urgência e clareza.

Dados da Análise de Tópicos:
---
%s---

Retorne APENAS um objeto JSON {"insight": "..."}.`, b.String())
}
