// Package domain holds the plant reference data consulted by normalization
// and analysis: product lines, root-cause lookups, sector aliases and the
// maintenance knowledge base. Tables are embedded and immutable after load,
// so a *Tables is safe for concurrent reads.
package domain

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

//go:embed domain.yaml
var domainYAML []byte

var productCodeRe = regexp.MustCompile(`P\d{4,5}\s+`)

type productLine struct {
	Name     string   `yaml:"name"`
	Products []string `yaml:"products"`
}

type solderRules struct {
	Sectors     []string `yaml:"sectors"`
	SolderTerms []string `yaml:"solder_terms"`
	ShortTerms  []string `yaml:"short_terms"`
	ShortCause  string   `yaml:"short_cause"`
	OtherCause  string   `yaml:"other_cause"`
}

// SectorAlias maps a normalized query fragment to a canonical sector name.
type SectorAlias struct {
	Alias  string `yaml:"alias"`
	Sector string `yaml:"sector"`
}

type topicKeywords struct {
	Focus    string   `yaml:"focus"`
	Keywords []string `yaml:"keywords"`
}

type knowledgeEntry struct {
	Failure        string `yaml:"failure"`
	Sector         string `yaml:"sector"`
	Recommendation string `yaml:"recommendation"`
}

type tablesFile struct {
	ProductLines      []productLine     `yaml:"product_lines"`
	RootCauses        map[string]string `yaml:"root_causes"`
	SolderRules       solderRules       `yaml:"solder_rules"`
	SectorAliases     []SectorAlias     `yaml:"sector_aliases"`
	Reviewers         []string          `yaml:"reviewers"`
	TopicKeywords     []topicKeywords   `yaml:"topic_keywords"`
	TopicDefaultFocus string            `yaml:"topic_default_focus"`
	SMTTerms          []string          `yaml:"smt_terms"`
	KnowledgeBase     []knowledgeEntry  `yaml:"knowledge_base"`
}

// Tables is the loaded, indexed form of the reference data.
type Tables struct {
	lineByProduct map[string]string
	causeByLabel  map[string]string
	solder        solderRules
	aliases       []SectorAlias
	reviewers     map[string]bool
	topics        []topicKeywords
	topicDefault  string
	smtTerms      []string
	knowledge     map[string]string
}

var (
	defaultOnce   sync.Once
	defaultTables *Tables
)

// Default returns the embedded tables. It panics if the embedded file is
// malformed, which can only happen at build time.
func Default() *Tables {
	defaultOnce.Do(func() {
		t, err := Parse(domainYAML)
		if err != nil {
			panic(fmt.Sprintf("load domain.yaml: %v", err))
		}
		defaultTables = t
	})
	return defaultTables
}

// Parse builds Tables from a YAML document in the domain.yaml layout.
func Parse(data []byte) (*Tables, error) {
	var f tablesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing domain tables: %w", err)
	}

	t := &Tables{
		lineByProduct: make(map[string]string),
		causeByLabel:  make(map[string]string, len(f.RootCauses)),
		solder:        f.SolderRules,
		aliases:       f.SectorAliases,
		reviewers:     make(map[string]bool, len(f.Reviewers)),
		topics:        f.TopicKeywords,
		topicDefault:  f.TopicDefaultFocus,
		smtTerms:      f.SMTTerms,
		knowledge:     make(map[string]string, len(f.KnowledgeBase)),
	}

	// First listed line wins when a product appears twice.
	for _, pl := range f.ProductLines {
		for _, p := range pl.Products {
			key := CleanProductName(p)
			if _, ok := t.lineByProduct[key]; !ok {
				t.lineByProduct[key] = pl.Name
			}
		}
	}
	for label, cause := range f.RootCauses {
		t.causeByLabel[NormalizeText(label)] = cause
	}
	for _, r := range f.Reviewers {
		t.reviewers[r] = true
	}
	for _, k := range f.KnowledgeBase {
		t.knowledge[knowledgeKey(k.Failure, k.Sector)] = k.Recommendation
	}
	for i := range t.aliases {
		t.aliases[i].Alias = NormalizeText(t.aliases[i].Alias)
	}

	return t, nil
}

// CleanProductName strips product-code tokens (P followed by 4 or 5 digits)
// and surrounding whitespace.
func CleanProductName(product string) string {
	return strings.TrimSpace(productCodeRe.ReplaceAllString(product, ""))
}

// ProductLine returns the product line a board belongs to, or models.LineOther.
func (t *Tables) ProductLine(product string) string {
	if line, ok := t.lineByProduct[CleanProductName(product)]; ok {
		return line
	}
	return models.LineOther
}

// RootCause maps a failure label to its basic process root cause.
func (t *Tables) RootCause(failureLabel string) string {
	if cause, ok := t.causeByLabel[NormalizeText(failureLabel)]; ok {
		return cause
	}
	return models.CauseUndetermined
}

// DetailedRootCause refines basic using the failure label and the sector
// where it was detected. Solder defects caught at SMT or visual inspection
// are split into printing and reflow/placement causes; everything else
// keeps the basic cause.
func (t *Tables) DetailedRootCause(failureLabel, sector, basic string) string {
	label := NormalizeText(failureLabel)
	if !containsAny(label, t.solder.SolderTerms) {
		return basic
	}
	if !containsAny(NormalizeText(sector), t.solder.Sectors) {
		return basic
	}
	if containsAny(label, t.solder.ShortTerms) {
		return t.solder.ShortCause
	}
	return t.solder.OtherCause
}

// SectorInQuery returns the first sector whose alias occurs in the query.
func (t *Tables) SectorInQuery(query string) (string, bool) {
	q := NormalizeText(query)
	for _, a := range t.aliases {
		if strings.Contains(q, a.Alias) {
			return a.Sector, true
		}
	}
	return "", false
}

// IsReviewer reports whether sector is one of the named review stations.
func (t *Tables) IsReviewer(sector string) bool {
	return t.reviewers[sector]
}

// TopicFocus guesses the subject of a query from the keyword table.
func (t *Tables) TopicFocus(query string) string {
	q := NormalizeText(query)
	for _, tk := range t.topics {
		if containsAny(q, tk.Keywords) {
			return tk.Focus
		}
	}
	return t.topicDefault
}

// IsSMTRelated reports whether a root cause belongs to the SMT/solder process.
func (t *Tables) IsSMTRelated(rootCause string) bool {
	return containsAny(NormalizeText(rootCause), t.smtTerms)
}

// Recommend looks up the knowledge base for a (failure, sector) pair.
func (t *Tables) Recommend(failure, sector string) (string, bool) {
	rec, ok := t.knowledge[knowledgeKey(failure, sector)]
	return rec, ok
}

func knowledgeKey(failure, sector string) string {
	return NormalizeText(failure) + "|" + NormalizeText(sector)
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if term != "" && strings.Contains(s, term) {
			return true
		}
	}
	return false
}
