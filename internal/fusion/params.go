package fusion

import (
	"fmt"
	"math"
)

// Anchor is the (valence, arousal) prototype point of a category.
type Anchor struct {
	Valence float64
	Arousal float64
}

// Params holds the tunable constants of the fusion.
type Params struct {
	Anchors         [NumLabels]Anchor // indexed like Labels
	ArousalK        float64           // text magnitude scale in A_text = 1 - exp(-magnitude/k)
	Epsilon         float64           // keeps weight denominators non-zero
	SurpriseDamping float64           // multiplier on the raw surprise similarity
	SurpriseCapBps  int               // upper bound on the final surprise share
}

// DefaultParams returns the empirically tuned production constants.
func DefaultParams() Params {
	return Params{
		Anchors: [NumLabels]Anchor{
			{Valence: 0.80, Arousal: 0.60},   // happy
			{Valence: -0.70, Arousal: -0.40}, // sad
			{Valence: 0, Arousal: 0},         // neutral
			{Valence: -0.70, Arousal: 0.80},  // angry
			{Valence: -0.60, Arousal: 0.70},  // fear
			{Valence: 0, Arousal: 0.85},      // surprise
		},
		ArousalK:        3.0,
		Epsilon:         1e-8,
		SurpriseDamping: 0.3,
		SurpriseCapBps:  1000,
	}
}

// Anchor returns the anchor configured for l.
func (p Params) Anchor(l Label) Anchor {
	if i, ok := l.Index(); ok {
		return p.Anchors[i]
	}
	return Anchor{}
}

// WithAnchor returns a copy of p with the anchor for l replaced.
func (p Params) WithAnchor(l Label, a Anchor) Params {
	if i, ok := l.Index(); ok {
		p.Anchors[i] = a
	}
	return p
}

// Validate reports the first constant outside its usable range.
func (p Params) Validate() error {
	for i, a := range p.Anchors {
		if !finite(a.Valence) || !finite(a.Arousal) {
			return fmt.Errorf("anchor %s is not finite", Labels[i])
		}
	}
	switch {
	case !(p.ArousalK > 0) || math.IsInf(p.ArousalK, 0):
		return fmt.Errorf("arousal k must be positive and finite, got %v", p.ArousalK)
	case !(p.Epsilon > 0):
		return fmt.Errorf("epsilon must be positive, got %v", p.Epsilon)
	case p.SurpriseDamping < 0 || p.SurpriseDamping > 1 || math.IsNaN(p.SurpriseDamping):
		return fmt.Errorf("surprise damping must be within [0, 1], got %v", p.SurpriseDamping)
	case p.SurpriseCapBps < 0 || p.SurpriseCapBps > TotalBps:
		return fmt.Errorf("surprise cap must be within [0, %d], got %d", TotalBps, p.SurpriseCapBps)
	}
	return nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
