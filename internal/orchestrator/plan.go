package orchestrator

import (
	"github.com/kiranshivaraju/qualitylens/internal/analysis"
	"github.com/kiranshivaraju/qualitylens/internal/metrics"
	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

type step struct {
	name string
	run  analysis.Func
}

// plan is the ordered analyzer selection for one query.
type plan []step

func (p plan) names() []string {
	out := make([]string, len(p))
	for i, s := range p {
		out[i] = s.name
	}
	return out
}

// plan applies the priority ladder. Individual performance runs alone;
// otherwise a sector query runs alone, as a deep-dive when a specific
// sector is named; otherwise the generic analyzers run together, with a
// catch-all appended when none matched or the query is general.
func (o *Orchestrator) plan(query string, intents models.IntentSet) plan {
	e := o.engine
	tables := e.Tables()

	if intents.Has(models.IntentIndividual) {
		return plan{{analysis.NameIndividual, e.Individual}}
	}

	if _, named := tables.SectorInQuery(query); named {
		return plan{{analysis.NameSectorDeepDive, e.SectorDeepDive}}
	}
	if intents.Has(models.IntentSector) {
		return plan{{analysis.NameSector, e.Sector}}
	}

	var p plan
	if intents.Has(models.IntentQuality) {
		p = append(p, step{analysis.NameQuality, e.Quality})
	}
	if intents.Has(models.IntentRootCause) {
		p = append(p, step{analysis.NameRootCause, e.RootCause})
	}
	if intents.Has(models.IntentSMTFocus) || tables.IsSMTRelated(query) {
		p = append(p, step{analysis.NameSMTTrend, e.SMTTrend})
	}
	if intents.Has(models.IntentNLP) {
		p = append(p, step{analysis.NameTopics, e.Topics})
	}

	general := intents.Has(models.IntentGeneral)
	if len(p) == 0 || general || intents.Has(models.IntentDefault) {
		if general {
			metrics.Fallbacks.WithLabelValues(metrics.ReasonGeneralIntent).Inc()
			p = append(p, step{analysis.NameResilience, e.Resilience})
		} else {
			p = append(p, step{analysis.NameStructuredDefault, e.StructuredDefault})
		}
	}
	return p
}
