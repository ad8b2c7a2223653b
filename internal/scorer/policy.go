// Package scorer turns a thread's reason history into an importance score
// and a set of descriptive badges. It performs no I/O and keeps no state.
package scorer

import (
	"time"

	"github.com/spiffcs/ghinbox/internal/model"
)

// Policy is the tunable scoring configuration. Weights are versioned policy,
// not correctness-critical constants, so callers always pass one explicitly.
type Policy struct {
	// Weights maps each reason to its base weight. Reasons missing from
	// the map fall back to the weight of model.ReasonOther.
	Weights map[model.Reason]int

	// A reason equal to the previous event's reason scores
	// max(ceil(weight/RepeatDivisor), RepeatFloor).
	RepeatDivisor int
	RepeatFloor   int

	// hot: at least HotMinReasons events, the newest younger than HotRecency,
	// and the newest HotMinReasons events spanning at most HotWindow.
	HotMinReasons int
	HotRecency    time.Duration
	HotWindow     time.Duration

	// comments: more than CommentsOver events.
	CommentsOver int

	// old: a review_requested event and the newest event older than OldAfter.
	OldAfter time.Duration
}

// DefaultWeights returns the canonical weight table.
func DefaultWeights() map[model.Reason]int {
	return map[model.Reason]int{
		model.ReasonReviewRequested: 29,
		model.ReasonAssign:          21,
		model.ReasonMention:         17,
		model.ReasonAuthor:          11,
		model.ReasonTeamMention:     11,
		model.ReasonComment:         6,
		model.ReasonStateChange:     5,
		model.ReasonOther:           4,
		model.ReasonSubscribed:      3,
	}
}

// DefaultPolicy returns the default scoring policy.
func DefaultPolicy() Policy {
	return Policy{
		Weights:       DefaultWeights(),
		RepeatDivisor: 3,
		RepeatFloor:   2,
		HotMinReasons: 4,
		HotRecency:    30 * time.Minute,
		HotWindow:     time.Hour,
		CommentsOver:  6,
		OldAfter:      4 * time.Hour,
	}
}

// Weight returns the base weight for a reason.
func (p Policy) Weight(r model.Reason) int {
	if w, ok := p.Weights[r]; ok {
		return w
	}
	return p.Weights[model.ReasonOther]
}

// RepeatWeight returns the degraded weight awarded to an immediate repeat.
func (p Policy) RepeatWeight(r model.Reason) int {
	divisor := p.RepeatDivisor
	if divisor < 1 {
		divisor = 1
	}
	w := p.Weight(r)
	// ceil for non-negative weights
	degraded := (w + divisor - 1) / divisor
	return max(degraded, p.RepeatFloor)
}
