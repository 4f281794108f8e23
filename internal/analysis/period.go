package analysis

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/kiranshivaraju/qualitylens/internal/domain"
	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

// Granularity is the bucket size of a time series.
type Granularity string

const (
	Daily   Granularity = "D"
	Weekly  Granularity = "W"
	Monthly Granularity = "M"
	Yearly  Granularity = "Y"
	Overall Granularity = "G"
)

var granularityNames = map[Granularity]string{
	Daily:   "Diária",
	Weekly:  "Semanal",
	Monthly: "Mensal",
	Yearly:  "Anual",
	Overall: "Geral",
}

var granularityWords = []struct {
	g     Granularity
	words []string
}{
	{Daily, []string{"diaria", "diario", "dia", "dias", "hoje"}},
	{Monthly, []string{"mensal", "mes", "meses"}},
	{Yearly, []string{"anual", "ano", "anos"}},
	{Weekly, []string{"semanal", "semana", "semanas"}},
}

var months = map[string]time.Month{
	"janeiro": time.January, "fevereiro": time.February, "marco": time.March,
	"abril": time.April, "maio": time.May, "junho": time.June,
	"julho": time.July, "agosto": time.August, "setembro": time.September,
	"outubro": time.October, "novembro": time.November, "dezembro": time.December,
}

var reDate = regexp.MustCompile(`\b(\d{1,2})[/\-](\d{1,2})(?:[/\-](\d{2,4}))?\b`)

// Period is the time window a query asks about.
type Period struct {
	Granularity Granularity
	Name        string
	// Date is set when the query names a specific date or month.
	Date *time.Time
	// HasDay reports whether Date carries a day of month.
	HasDay bool
}

// ParsePeriod extracts the granularity and an optional specific date from
// a query. Dates are day-first; a bare month name refers to the year of now.
func ParsePeriod(query string, now time.Time) Period {
	tokens := domain.Tokens(query)
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}

	p := Period{Granularity: Overall}
	for _, gw := range granularityWords {
		if containsToken(set, gw.words) {
			p.Granularity = gw.g
			break
		}
	}
	p.Name = granularityNames[p.Granularity]

	if m := reDate.FindStringSubmatch(query); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year := now.Year()
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
			if year < 100 {
				year += 2000
			}
		}
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location())
			if d.Day() == day {
				p.Date = &d
				p.HasDay = true
			}
		}
		return p
	}

	for _, t := range tokens {
		if month, ok := months[t]; ok {
			d := time.Date(now.Year(), month, 1, 0, 0, 0, 0, now.Location())
			p.Date = &d
			break
		}
	}
	return p
}

func containsToken(set map[string]bool, words []string) bool {
	for _, w := range words {
		if set[w] {
			return true
		}
	}
	return false
}

// window narrows rows to the period's specific date and returns the
// granularity to bucket by. Rows without a date are never kept.
func (p Period) window(rows []models.FailureRecord) ([]models.FailureRecord, Granularity, string, error) {
	g, name := p.Granularity, p.Name
	dated := filterRows(rows, func(r models.FailureRecord) bool { return !r.RecordDate.IsZero() })

	if p.Date != nil {
		target := *p.Date
		if p.HasDay && (g == Daily || g == Overall) {
			dated = filterRows(dated, func(r models.FailureRecord) bool {
				y, m, d := r.RecordDate.Date()
				return y == target.Year() && m == target.Month() && d == target.Day()
			})
			g, name = Daily, granularityNames[Daily]
		} else {
			dated = filterRows(dated, func(r models.FailureRecord) bool {
				return r.RecordDate.Year() == target.Year() && r.RecordDate.Month() == target.Month()
			})
			g, name = Daily, fmt.Sprintf("Mensal (%s)", target.Format("01/2006"))
		}
	}

	if len(dated) == 0 {
		return nil, g, name, ErrNoData
	}
	if g == Overall {
		g, name = Monthly, granularityNames[Monthly]
	}
	return dated, g, name, nil
}

// bucketKey formats t as the label of its bucket. Weeks run Monday to Sunday.
func bucketKey(t time.Time, g Granularity) string {
	switch g {
	case Daily:
		return t.Format("2006-01-02")
	case Weekly:
		offset := (int(t.Weekday()) + 6) % 7
		start := time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, t.Location())
		return start.Format("2006-01-02") + "/" + start.AddDate(0, 0, 6).Format("2006-01-02")
	case Yearly:
		return t.Format("2006")
	default:
		return t.Format("2006-01")
	}
}

// series aggregates value per bucket in chronological order.
func series(rows []models.FailureRecord, g Granularity, value func(models.FailureRecord) float64) []Group {
	sums := make(map[string]float64)
	for _, r := range rows {
		if r.RecordDate.IsZero() {
			continue
		}
		sums[bucketKey(r.RecordDate, g)] += value(r)
	}
	out := make([]Group, 0, len(sums))
	for k, v := range sums {
		out = append(out, Group{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
