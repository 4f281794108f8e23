package analysis

import (
	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

// minForecastPoints is the number of monthly buckets a forecast needs.
const minForecastPoints = 4

// MonthlyVolumes returns the failure quantity per month in chronological
// order. Months without records are absent rather than zero.
func MonthlyVolumes(rows []models.FailureRecord) []Group {
	return series(rows, Monthly, func(r models.FailureRecord) float64 { return float64(r.Quantity) })
}

// Forecast fits a least-squares line over the monthly volumes and projects
// one period ahead: last value plus slope, clamped at zero. ok is false
// with fewer than four monthly buckets.
func Forecast(rows []models.FailureRecord) (float64, bool) {
	monthly := MonthlyVolumes(rows)
	return ForecastSeries(values(monthly))
}

// ForecastSeries is Forecast over an explicit series.
func ForecastSeries(ys []float64) (float64, bool) {
	if len(ys) < minForecastPoints {
		return 0, false
	}
	next := ys[len(ys)-1] + slope(ys)
	if next < 0 {
		next = 0
	}
	return next, true
}

// slope is the least-squares slope of ys over x = 0..n-1.
func slope(ys []float64) float64 {
	n := float64(len(ys))
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}
