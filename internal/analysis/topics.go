package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kiranshivaraju/qualitylens/internal/metrics"
	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

const maxObservationRunes = 200

var topicPalette = []string{"#4bc0c0", "#ff6384", "#ffcd56", "#36a2eb", "#9966ff"}

var errNoTopics = errors.New("reasoning service returned no topics")

// Topics asks the reasoning service for the recurring topics of the
// observation text. Any failure there degrades to a keyword-based focus
// guess returned as INFO.
func (e *Engine) Topics(ctx context.Context, rows []models.FailureRecord, query string) (models.AnalysisResult, error) {
	sample := e.observationSample(rows)
	if len(sample) == 0 {
		return failResult("Análise de Tópicos não executada: A maioria das observações está vazia ou nula."), nil
	}

	analysis, err := e.analyzeTopics(ctx, sample, query)
	if err != nil {
		metrics.Fallbacks.WithLabelValues(metrics.ReasonTopicAnalysis).Inc()
		e.logger.Warn("topic analysis unavailable, using keyword focus", "error", err, "sample_size", len(sample))
		return e.topicFallback(rows, query, err), nil
	}

	topics := analysis.Topics
	if len(topics) > 5 {
		topics = topics[:5]
	}
	names := make([]string, len(topics))
	counts := make([]float64, len(topics))
	for i, t := range topics {
		names[i] = t.Name
		counts[i] = float64(t.Count)
	}

	return models.AnalysisResult{
		Status:  models.StatusOK,
		Summary: "**Análise de Tópicos via IA:**\n" + analysis.Summary,
		Charts: []models.Chart{{
			Title:  "Contagem por Tópico (Análise IA do Texto Livre)",
			Labels: names,
			Datasets: []models.Dataset{{
				Label:           "Menções",
				Data:            counts,
				Type:            models.ChartPie,
				BackgroundColor: topicPalette,
			}},
			ChartType: models.ChartPie,
		}},
		Tips: []models.Tip{
			{Title: "Ação por Tópico", Detail: fmt.Sprintf("Se a principal causa é '%s', revise as instruções ou materiais para a prevenção.", topics[0].Name)},
			{Title: "Validação", Detail: "A classificação foi feita sobre o texto livre das observações. Use esta informação para refinar processos."},
		},
		Topics: topics,
	}, nil
}

func (e *Engine) analyzeTopics(ctx context.Context, sample []models.Observation, query string) (models.TopicAnalysis, error) {
	if e.topics == nil {
		return models.TopicAnalysis{}, errors.New("no reasoning service configured")
	}
	analysis, err := e.topics.AnalyzeTopics(ctx, sample, query)
	if err != nil {
		return models.TopicAnalysis{}, err
	}
	if len(analysis.Topics) == 0 {
		return models.TopicAnalysis{}, errNoTopics
	}
	return analysis, nil
}

// observationSample returns up to sampleSize non-empty observations, each
// truncated to keep the prompt bounded.
func (e *Engine) observationSample(rows []models.FailureRecord) []models.Observation {
	sample := make([]models.Observation, 0, e.sampleSize)
	for _, r := range rows {
		text := strings.TrimSpace(r.CombinedObservation)
		if text == "" {
			continue
		}
		sample = append(sample, models.Observation{
			DocumentID: r.DocumentID,
			Text:       truncateRunes(text, maxObservationRunes),
		})
		if len(sample) == e.sampleSize {
			break
		}
	}
	return sample
}

func (e *Engine) topicFallback(rows []models.FailureRecord, query string, cause error) models.AnalysisResult {
	focus := e.tables.TopicFocus(query)
	topFailure, ok := mode(rows, func(r models.FailureRecord) string { return r.FailureLabel })
	if !ok {
		topFailure = "N/A"
	}

	summary := fmt.Sprintf("**Análise de Tópicos (Modo de Resiliência Ativado)**\n\n"+
		"A análise avançada da IA falhou devido a um erro de comunicação ou parsing (%v).\n\n"+
		"**Foco Detectado:** Sua pergunta sugere foco em **%s**.\n\n"+
		"Como alternativa, o dado mais relevante no momento é a falha **'%s'**, que domina a incidência no conjunto de dados.\n\n"+
		"Por favor, ajuste a granularidade da pergunta (ex: \"apenas as observações de hoje\") e tente novamente.",
		cause, focus, topFailure)

	return models.AnalysisResult{
		Status:  models.StatusInfo,
		Summary: summary,
		Charts:  []models.Chart{},
		Tips: []models.Tip{
			{Title: "Resiliência da IA", Detail: fmt.Sprintf("O serviço de IA falhou, mas o sistema sugeriu foco em: **%s** e na falha **%s**.", focus, topFailure)},
		},
	}
}
