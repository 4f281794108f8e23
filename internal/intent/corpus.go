package intent

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

//go:embed corpus.yaml
var corpusYAML []byte

type corpusFile struct {
	Examples        map[models.Intent][]string `yaml:"examples"`
	SectorTemplates struct {
		Label   models.Intent `yaml:"label"`
		Sectors []string      `yaml:"sectors"`
		Phrases []string      `yaml:"phrases"`
	} `yaml:"sector_templates"`
}

// DefaultSamples returns the embedded training corpus with the per-sector
// phrasings expanded.
func DefaultSamples() ([]Sample, error) {
	return ParseCorpus(corpusYAML)
}

// ParseCorpus reads a corpus in the corpus.yaml layout.
func ParseCorpus(data []byte) ([]Sample, error) {
	var f corpusFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing intent corpus: %w", err)
	}

	labels := make([]models.Intent, 0, len(f.Examples))
	for label := range f.Examples {
		if !label.Valid() {
			return nil, fmt.Errorf("intent corpus: unknown label %q", label)
		}
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })

	var samples []Sample
	for _, label := range labels {
		for _, text := range f.Examples[label] {
			samples = append(samples, Sample{Text: text, Label: label})
		}
	}

	st := f.SectorTemplates
	if len(st.Sectors) > 0 {
		if !st.Label.Valid() {
			return nil, fmt.Errorf("intent corpus: unknown sector template label %q", st.Label)
		}
		for _, sector := range st.Sectors {
			for _, phrase := range st.Phrases {
				samples = append(samples, Sample{Text: fmt.Sprintf(phrase, sector), Label: st.Label})
			}
		}
	}
	return samples, nil
}

// TrainDefault trains a classifier on the embedded corpus.
func TrainDefault() (*Classifier, error) {
	samples, err := DefaultSamples()
	if err != nil {
		return nil, err
	}
	return Train(samples, DefaultThreshold)
}
