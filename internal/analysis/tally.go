package analysis

import (
	"math"
	"sort"
	"unicode/utf8"

	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

// Group is one bucket of a tally.
type Group struct {
	Key   string
	Value float64
}

// tally groups rows by key and accumulates value per row. Groups are
// returned sorted by Value DESC; ties keep first-appearance order.
// Returns empty slice for empty input (never nil).
func tally(rows []models.FailureRecord, key func(models.FailureRecord) string, value func(models.FailureRecord) float64) []Group {
	if len(rows) == 0 {
		return []Group{}
	}

	index := make(map[string]int)
	groups := make([]Group, 0)
	for _, r := range rows {
		k := key(r)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{Key: k})
		}
		groups[i].Value += value(r)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Value > groups[j].Value
	})
	return groups
}

// countRows tallies one per row.
func countRows(rows []models.FailureRecord, key func(models.FailureRecord) string) []Group {
	return tally(rows, key, func(models.FailureRecord) float64 { return 1 })
}

// sumQuantity tallies the failure quantity.
func sumQuantity(rows []models.FailureRecord, key func(models.FailureRecord) string) []Group {
	return tally(rows, key, func(r models.FailureRecord) float64 { return float64(r.Quantity) })
}

// shares converts counts into percentages of the total, rounded to two
// decimals.
func shares(groups []Group) []Group {
	var total float64
	for _, g := range groups {
		total += g.Value
	}
	out := make([]Group, len(groups))
	for i, g := range groups {
		pct := 0.0
		if total > 0 {
			pct = round2(g.Value / total * 100)
		}
		out[i] = Group{Key: g.Key, Value: pct}
	}
	return out
}

func top(groups []Group, n int) []Group {
	if len(groups) > n {
		return groups[:n]
	}
	return groups
}

func keys(groups []Group) []string {
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.Key
	}
	return out
}

func values(groups []Group) []float64 {
	out := make([]float64, len(groups))
	for i, g := range groups {
		out[i] = g.Value
	}
	return out
}

func topicsFrom(groups []Group) []models.Topic {
	out := make([]models.Topic, len(groups))
	for i, g := range groups {
		out[i] = models.Topic{Name: g.Key, Count: int(math.Round(g.Value))}
	}
	return out
}

// mode returns the most frequent value of key, breaking ties by the
// lexically smallest value. ok is false for empty input.
func mode(rows []models.FailureRecord, key func(models.FailureRecord) string) (string, bool) {
	counts := make(map[string]int)
	for _, r := range rows {
		counts[key(r)]++
	}
	best, bestCount := "", 0
	for k, c := range counts {
		if c > bestCount || (c == bestCount && k < best) {
			best, bestCount = k, c
		}
	}
	return best, bestCount > 0
}

func filterRows(rows []models.FailureRecord, keep func(models.FailureRecord) bool) []models.FailureRecord {
	out := make([]models.FailureRecord, 0, len(rows))
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func totalQuantity(rows []models.FailureRecord) int {
	total := 0
	for _, r := range rows {
		total += r.Quantity
	}
	return total
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// truncateRunes shortens s to at most n runes.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
