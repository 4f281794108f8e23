package intelligence

import (
	"fmt"
	"time"

	"github.com/kiranshivaraju/qualitylens/internal/analysis"
	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

const (
	riskWindow = 30 * 24 * time.Hour
	maxRisk    = 0.95
	trendShare = 0.3
)

// EstimateRisk blends the recent defect ratio with the monthly forecast
// trend into a failure probability for the next lot, capped at 95%.
//
// The ratio covers the last 30 days, or every row when none is that recent.
// The trend is the forecast growth over the last month, clamped to [0, 1].
func EstimateRisk(rows []models.FailureRecord, now time.Time) models.AnalysisResult {
	if len(rows) == 0 {
		return models.AnalysisResult{
			Status:  models.StatusInfo,
			Summary: "Nenhum dado para predição.",
			Charts:  []models.Chart{},
			Tips:    []models.Tip{},
		}
	}

	ratio := defectRatio(recent(rows, now))
	growth := forecastGrowth(rows)
	risk := (1-trendShare)*ratio + trendShare*growth
	risk = min(max(risk, 0), maxRisk)

	return models.AnalysisResult{
		Status:  models.StatusOK,
		Summary: "Análise de Risco Concluída.",
		Charts:  []models.Chart{},
		Tips: []models.Tip{
			{Title: "Risco Calculado", Detail: fmt.Sprintf("Probabilidade de falha no lote: **%.2f%%**.", risk*100)},
			{Title: "Ação Sugerida", Detail: "Ajustar o perfil de temperatura do forno de refusão."},
		},
	}
}

func recent(rows []models.FailureRecord, now time.Time) []models.FailureRecord {
	cutoff := now.Add(-riskWindow)
	var out []models.FailureRecord
	for _, r := range rows {
		if !r.RecordDate.IsZero() && !r.RecordDate.Before(cutoff) && !r.RecordDate.After(now) {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return rows
	}
	return out
}

// defectRatio is failures over produced units. Production counters repeat
// on every row of a document, so each document's volume counts once.
func defectRatio(rows []models.FailureRecord) float64 {
	var defects, produced float64
	seen := make(map[string]bool)
	for _, r := range rows {
		defects += float64(r.Quantity)
		if seen[r.DocumentID] {
			continue
		}
		seen[r.DocumentID] = true
		switch {
		case r.QuantityProduced > 0:
			produced += float64(r.QuantityProduced)
		case r.QuantityDaily > 0:
			produced += float64(r.QuantityDaily)
		}
	}
	if produced == 0 {
		return 0
	}
	return min(defects/produced, 1)
}

func forecastGrowth(rows []models.FailureRecord) float64 {
	next, ok := analysis.Forecast(rows)
	if !ok {
		return 0
	}
	monthly := analysis.MonthlyVolumes(rows)
	last := monthly[len(monthly)-1].Value
	if last <= 0 {
		return 0
	}
	return min(max((next-last)/last, 0), 1)
}
