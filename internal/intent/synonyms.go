package intent

import (
	"strings"

	"github.com/kiranshivaraju/qualitylens/internal/domain"
	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

// synonyms maps normalized intent spellings (spaces replaced by
// underscores) to canonical intents.
var synonyms = map[string]models.Intent{
	"sector":   models.IntentSector,
	"setor":    models.IntentSector,
	"setores":  models.IntentSector,
	"linha":    models.IntentSector,
	"producao": models.IntentSector,

	"root_cause": models.IntentRootCause,
	"causa":      models.IntentRootCause,
	"causas":     models.IntentRootCause,
	"causa_raiz": models.IntentRootCause,
	"processo":   models.IntentRootCause,
	"process":    models.IntentRootCause,

	"quality":   models.IntentQuality,
	"qualidade": models.IntentQuality,
	"rejeicao":  models.IntentQuality,

	"smt_focus": models.IntentSMTFocus,
	"smt_foco":  models.IntentSMTFocus,
	"smt":       models.IntentSMTFocus,
	"solda":     models.IntentSMTFocus,
	"stencil":   models.IntentSMTFocus,
	"pasta":     models.IntentSMTFocus,
	"fluxo":     models.IntentSMTFocus,

	"individual":   models.IntentIndividual,
	"pessoa":       models.IntentIndividual,
	"operador":     models.IntentIndividual,
	"colaborador":  models.IntentIndividual,
	"funcionario":  models.IntentIndividual,
	"funcionarios": models.IntentIndividual,
	"revisor":      models.IntentIndividual,
	"revisores":    models.IntentIndividual,
	"responsavel":  models.IntentIndividual,
	"responsaveis": models.IntentIndividual,
	"avaliador":    models.IntentIndividual,
	"avaliadores":  models.IntentIndividual,

	"nlp":     models.IntentNLP,
	"texto":   models.IntentNLP,
	"topicos": models.IntentNLP,

	"general": models.IntentGeneral,
	"geral":   models.IntentGeneral,

	"default": models.IntentDefault,
	"padrao":  models.IntentDefault,
}

// individualKeywords force the individual intent when present in a query.
var individualKeywords = []string{
	"revisor", "revisores", "pessoa da revisao",
	"funcionario", "colaborador", "avaliador",
}

// Canonical maps an intent spelling to the closed enumeration.
func Canonical(s string) (models.Intent, bool) {
	key := strings.ReplaceAll(domain.NormalizeText(s), " ", "_")
	intent, ok := synonyms[key]
	return intent, ok
}

// CanonicalSet canonicalizes every spelling, dropping unknown ones.
func CanonicalSet(values []string) models.IntentSet {
	set := models.NewIntentSet()
	for _, v := range values {
		if intent, ok := Canonical(v); ok {
			set.Add(intent)
		}
	}
	return set
}

// mentionsIndividual reports whether the query names reviewers or staff.
func mentionsIndividual(query string) bool {
	q := domain.NormalizeText(query)
	for _, kw := range individualKeywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}
