package models

// Intent is a normalized tag describing what kind of analysis a query asks for.
type Intent string

const (
	IntentQuality    Intent = "quality"
	IntentRootCause  Intent = "root_cause"
	IntentIndividual Intent = "individual"
	IntentSector     Intent = "sector"
	IntentSMTFocus   Intent = "smt_focus"
	IntentNLP        Intent = "nlp"
	IntentGeneral    Intent = "general"
	IntentDefault    Intent = "default"
)

// AllIntents lists the closed enumeration in declaration order.
var AllIntents = []Intent{
	IntentQuality, IntentRootCause, IntentIndividual, IntentSector,
	IntentSMTFocus, IntentNLP, IntentGeneral, IntentDefault,
}

// Valid reports whether i belongs to the closed enumeration.
func (i Intent) Valid() bool {
	for _, known := range AllIntents {
		if i == known {
			return true
		}
	}
	return false
}

// IntentSet is an insertion-ordered set of intents.
type IntentSet struct {
	order []Intent
	seen  map[Intent]bool
}

// NewIntentSet builds a set from the given intents, dropping duplicates.
func NewIntentSet(intents ...Intent) IntentSet {
	s := IntentSet{seen: make(map[Intent]bool)}
	for _, i := range intents {
		s.Add(i)
	}
	return s
}

// Add inserts i if absent.
func (s *IntentSet) Add(i Intent) {
	if s.seen == nil {
		s.seen = make(map[Intent]bool)
	}
	if s.seen[i] {
		return
	}
	s.seen[i] = true
	s.order = append(s.order, i)
}

// Has reports whether i is in the set.
func (s IntentSet) Has(i Intent) bool {
	return s.seen[i]
}

// Len returns the number of intents.
func (s IntentSet) Len() int {
	return len(s.order)
}

// List returns the intents in insertion order.
func (s IntentSet) List() []Intent {
	out := make([]Intent, len(s.order))
	copy(out, s.order)
	return out
}
