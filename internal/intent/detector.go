// Package intent detects which analyses a free-text query asks for. The
// primary path asks the reasoning service; the local classifier answers
// whenever that path is unavailable.
package intent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kiranshivaraju/qualitylens/internal/metrics"
	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

// Reasoner is the primary classification path.
type Reasoner interface {
	ClassifyIntent(ctx context.Context, query string) ([]string, error)
}

// PrimaryResult is the outcome of the primary path. Err is non-nil, and
// wraps ErrPrimaryUnavailable, whenever Intents must not be used.
type PrimaryResult struct {
	Intents models.IntentSet
	Err     error
}

// Detector combines both classification paths. It never returns an error.
type Detector struct {
	reasoner Reasoner
	local    *Classifier
	logger   *slog.Logger
}

// NewDetector creates a Detector. reasoner may be nil, in which case only
// the local classifier is used.
func NewDetector(reasoner Reasoner, local *Classifier) *Detector {
	return &Detector{
		reasoner: reasoner,
		local:    local,
		logger:   slog.Default().With("component", "intent"),
	}
}

// Local returns the local classifier.
func (d *Detector) Local() *Classifier {
	return d.local
}

// Primary asks the reasoning service and validates its answer against the
// closed intent enumeration.
func (d *Detector) Primary(ctx context.Context, query string) PrimaryResult {
	if d.reasoner == nil {
		return PrimaryResult{Err: fmt.Errorf("%w: no reasoning service configured", ErrPrimaryUnavailable)}
	}
	raw, err := d.reasoner.ClassifyIntent(ctx, query)
	if err != nil {
		return PrimaryResult{Err: fmt.Errorf("%w: %v", ErrPrimaryUnavailable, err)}
	}
	set := CanonicalSet(raw)
	if set.Len() == 0 {
		return PrimaryResult{Err: fmt.Errorf("%w: no valid intents in %q", ErrPrimaryUnavailable, raw)}
	}
	return PrimaryResult{Intents: set}
}

// Detect returns the active intents for query. When the primary path fails
// the local classifier's single best intent is used, with general mapped
// to default. Staff and reviewer keywords always add the individual intent.
func (d *Detector) Detect(ctx context.Context, query string) models.IntentSet {
	var set models.IntentSet

	res := d.Primary(ctx, query)
	if res.Err == nil {
		set = res.Intents
		d.logger.Debug("intents from reasoning service", "intents", set.List())
	} else {
		metrics.Fallbacks.WithLabelValues(metrics.ReasonIntentPrimary).Inc()
		local := d.local.Predict(query)
		d.logger.Warn("primary intent path failed, using local classifier",
			"error", res.Err, "local_intent", local)
		if local == models.IntentGeneral {
			local = models.IntentDefault
		}
		set = models.NewIntentSet(local)
	}

	if mentionsIndividual(query) {
		set.Add(models.IntentIndividual)
	}
	return set
}
