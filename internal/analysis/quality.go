package analysis

import (
	"context"
	"fmt"

	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

// Quality reports the rejection percentage per period bucket, its mean,
// the worst bucket and the dominant failure inside it.
func (e *Engine) Quality(_ context.Context, rows []models.FailureRecord, query string) (models.AnalysisResult, error) {
	period := ParsePeriod(query, e.now())
	filtered, g, name, err := period.window(rows)
	if err != nil {
		return failResult(fmt.Sprintf("Não há dados para o período solicitado: **%s**.", name)), nil
	}

	failures := series(filtered, g, func(r models.FailureRecord) float64 { return float64(r.Quantity) })
	produced := series(filtered, g, func(r models.FailureRecord) float64 { return float64(r.QuantityProduced) })

	rates := make([]Group, len(failures))
	var sum float64
	for i, f := range failures {
		volume := produced[i].Value
		if volume <= 0 {
			volume = 1
		}
		rates[i] = Group{Key: f.Key, Value: f.Value / volume * 100}
		sum += rates[i].Value
	}
	mean := sum / float64(len(rates))

	worst := rates[0]
	for _, r := range rates[1:] {
		if r.Value > worst.Value {
			worst = r
		}
	}

	peakRows := filterRows(filtered, func(r models.FailureRecord) bool { return bucketKey(r.RecordDate, g) == worst.Key })
	peakFailure, ok := mode(peakRows, func(r models.FailureRecord) string { return r.FailureLabel })
	if !ok {
		peakFailure = "N/A"
	}

	summary := fmt.Sprintf("**Análise de Qualidade: Taxa de Rejeição e Tendência (%s)**\n\n"+
		"A **média de Rejeição** no período analisado é de **%.2f%%**.\n"+
		"O período com a **maior taxa de rejeição** foi **%s**, com **%.2f%%**.\n\n"+
		"**Foco:** A principal falha neste período de pico foi: **%s**.",
		name, mean, worst.Key, worst.Value, peakFailure)

	return models.AnalysisResult{
		Status:  models.StatusOK,
		Summary: summary,
		Charts: []models.Chart{
			lineChart(fmt.Sprintf("Tendência da Taxa de Rejeição (%%) - Agregação %s", name),
				"Taxa de Rejeição (%)", rates, "rgb(255, 99, 132)", "rgba(255, 99, 132, 0.5)"),
		},
		Tips: []models.Tip{
			{Title: "Foco no Desvio", Detail: fmt.Sprintf("O processo de controle de qualidade deve analisar o período de pico (%s) e a falha **%s**.", worst.Key, peakFailure)},
			{Title: "Meta Estratégica", Detail: fmt.Sprintf("Busque reduzir a taxa média geral para **%.2f%%** no próximo ciclo.", mean*0.9)},
		},
		Topics: []models.Topic{{Name: "Rejeição Alta", Count: 1}},
	}, nil
}
