package intent

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/kiranshivaraju/qualitylens/internal/domain"
	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

// DefaultThreshold is the minimum cosine similarity for a confident prediction.
const DefaultThreshold = 0.3

// Sample is one labelled training phrase.
type Sample struct {
	Text  string        `json:"text"`
	Label models.Intent `json:"label"`
}

type example struct {
	Label  models.Intent      `json:"label"`
	Vector map[string]float64 `json:"vector"`
}

// Classifier is a TF-IDF nearest-neighbour text classifier over unigrams
// and bigrams of normalized text. It is immutable after Train or Load and
// safe for concurrent use.
type Classifier struct {
	idf       map[string]float64
	examples  []example
	threshold float64
}

type persistedModel struct {
	Version   int                `json:"version"`
	Threshold float64            `json:"threshold"`
	IDF       map[string]float64 `json:"idf"`
	Examples  []example          `json:"examples"`
}

// Train fits a classifier on samples. Samples with an invalid label or no
// usable terms are ignored.
func Train(samples []Sample, threshold float64) (*Classifier, error) {
	docs := make([]map[string]float64, 0, len(samples))
	labels := make([]models.Intent, 0, len(samples))
	df := make(map[string]int)

	for _, s := range samples {
		if !s.Label.Valid() {
			continue
		}
		tf := termFrequencies(s.Text)
		if len(tf) == 0 {
			continue
		}
		for term := range tf {
			df[term]++
		}
		docs = append(docs, tf)
		labels = append(labels, s.Label)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("training classifier: %w", ErrModelNotTrained)
	}

	n := float64(len(docs))
	idf := make(map[string]float64, len(df))
	for term, count := range df {
		idf[term] = math.Log((1+n)/(1+float64(count))) + 1
	}

	c := &Classifier{idf: idf, threshold: threshold}
	for i, tf := range docs {
		c.examples = append(c.examples, example{Label: labels[i], Vector: c.weigh(tf)})
	}
	return c, nil
}

// Trained reports whether the classifier can make predictions.
func (c *Classifier) Trained() bool {
	return c != nil && len(c.examples) > 0
}

// Predict returns the best intent for text, or general when the text is
// not close enough to any training phrase.
func (c *Classifier) Predict(text string) models.Intent {
	intent, _ := c.PredictScore(text)
	return intent
}

// PredictScore is Predict plus the similarity of the winning example.
func (c *Classifier) PredictScore(text string) (models.Intent, float64) {
	if !c.Trained() {
		return models.IntentGeneral, 0
	}
	vec := c.weigh(termFrequencies(text))
	if len(vec) == 0 {
		return models.IntentGeneral, 0
	}

	best := models.IntentGeneral
	bestScore := 0.0
	for _, ex := range c.examples {
		if score := dot(vec, ex.Vector); score > bestScore {
			best, bestScore = ex.Label, score
		}
	}
	if bestScore < c.threshold {
		return models.IntentGeneral, bestScore
	}
	return best, bestScore
}

// Labels lists the distinct intents the classifier was trained on.
func (c *Classifier) Labels() []models.Intent {
	seen := make(map[models.Intent]bool)
	var out []models.Intent
	for _, ex := range c.examples {
		if !seen[ex.Label] {
			seen[ex.Label] = true
			out = append(out, ex.Label)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Save writes the model as JSON.
func (c *Classifier) Save(w io.Writer) error {
	if !c.Trained() {
		return ErrModelNotTrained
	}
	enc := json.NewEncoder(w)
	return enc.Encode(persistedModel{
		Version:   1,
		Threshold: c.threshold,
		IDF:       c.idf,
		Examples:  c.examples,
	})
}

// Load reads a model written by Save.
func Load(r io.Reader) (*Classifier, error) {
	var m persistedModel
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decoding intent model: %w", err)
	}
	if m.Version != 1 {
		return nil, fmt.Errorf("unsupported intent model version %d", m.Version)
	}
	if len(m.Examples) == 0 {
		return nil, ErrModelNotTrained
	}
	for _, ex := range m.Examples {
		if !ex.Label.Valid() {
			return nil, errors.New("intent model contains unknown label " + string(ex.Label))
		}
	}
	return &Classifier{idf: m.IDF, examples: m.Examples, threshold: m.Threshold}, nil
}

// weigh applies sublinear tf-idf and L2 normalization. Terms unseen in
// training are dropped.
func (c *Classifier) weigh(tf map[string]float64) map[string]float64 {
	vec := make(map[string]float64, len(tf))
	var norm float64
	for term, count := range tf {
		idf, ok := c.idf[term]
		if !ok {
			continue
		}
		w := (1 + math.Log(count)) * idf
		vec[term] = w
		norm += w * w
	}
	if norm == 0 {
		return nil
	}
	norm = math.Sqrt(norm)
	for term := range vec {
		vec[term] /= norm
	}
	return vec
}

func termFrequencies(text string) map[string]float64 {
	tokens := domain.Tokens(text)
	tf := make(map[string]float64, 2*len(tokens))
	for i, tok := range tokens {
		tf[tok]++
		if i > 0 {
			tf[tokens[i-1]+" "+tok]++
		}
	}
	return tf
}

func dot(a, b map[string]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var sum float64
	for term, w := range a {
		sum += w * b[term]
	}
	return sum
}
