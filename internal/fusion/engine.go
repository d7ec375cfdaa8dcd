package fusion

import "math"

// Result is the outcome of one fusion.
type Result struct {
	// Intermediate projections, kept for diagnostics.
	AudioValence float64
	AudioArousal float64
	TextValence  float64
	TextArousal  float64

	Alpha float64 // audio weight on valence
	Beta  float64 // audio weight on arousal

	Valence   float64
	Arousal   float64
	Intensity float64

	Distribution  Distribution
	TopEmotion    Label
	TopConfidence int // share of TopEmotion in bps
}

// Engine fuses audio and text signals with a fixed set of Params.
type Engine struct {
	params Params
}

// NewEngine returns an engine using p.
func NewEngine(p Params) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Engine{params: p}, nil
}

// Params returns the constants the engine was built with.
func (e *Engine) Params() Params {
	return e.params
}

// Fuse combines audio probabilities with a text sentiment score and
// magnitude. Non-finite inputs are treated as zero.
func (e *Engine) Fuse(audio AudioProbs, textScore, textMagnitude float64) Result {
	p := e.params
	audio = sanitizeProbs(audio)
	if !finite(textScore) {
		textScore = 0
	}
	if !finite(textMagnitude) {
		textMagnitude = 0
	}

	var r Result

	for i, prob := range audio {
		r.AudioValence += prob * p.Anchors[i].Valence
		r.AudioArousal += prob * p.Anchors[i].Arousal
	}

	r.TextValence = clamp(textScore, -1, 1)
	r.TextArousal = magnitudeToArousal(textMagnitude, p.ArousalK)

	confAudioV := audio.Max()
	confTextV := math.Abs(r.TextValence) * r.TextArousal
	r.Alpha = clamp(confAudioV/(confAudioV+confTextV+p.Epsilon), 0, 1)

	confAudioA := math.Abs(r.AudioArousal)
	r.Beta = clamp(confAudioA/(confAudioA+r.TextArousal+p.Epsilon), 0, 1)

	r.Valence = r.Alpha*r.AudioValence + (1-r.Alpha)*r.TextValence
	r.Arousal = r.Beta*r.AudioArousal + (1-r.Beta)*r.TextArousal
	r.Intensity = math.Hypot(r.Valence, r.Arousal)

	var sims [NumLabels]float64
	anyPositive := false
	for i, anchor := range p.Anchors {
		if audio[i] == 0 {
			continue
		}
		sims[i] = cosine(r.Valence, r.Arousal, anchor.Valence, anchor.Arousal)
		if sims[i] > 0 {
			anyPositive = true
		}
	}
	if !anyPositive {
		sims = [NumLabels]float64{}
		n, _ := Neutral.Index()
		sims[n] = 1
	}

	s, _ := Surprise.Index()
	sims[s] *= p.SurpriseDamping

	r.Distribution = capShare(NormalizeBps(sims), s, p.SurpriseCapBps)
	r.TopEmotion, r.TopConfidence = r.Distribution.Top()
	return r
}

// magnitudeToArousal maps a non-negative text magnitude into [0, 1].
func magnitudeToArousal(magnitude, k float64) float64 {
	if !(magnitude > 0) {
		return 0
	}
	return clamp(1-math.Exp(-magnitude/k), 0, 1)
}

// cosine returns the cosine similarity of two 2-D vectors with negatives
// clipped to 0. A zero vector has similarity 0 with everything.
func cosine(x1, y1, x2, y2 float64) float64 {
	den := math.Hypot(x1, y1) * math.Hypot(x2, y2)
	if den == 0 {
		return 0
	}
	return math.Max(0, (x1*x2+y1*y2)/den)
}

// sanitizeProbs zeroes negative and non-finite probabilities. Values above 1
// are kept: their size is the audio confidence.
func sanitizeProbs(p AudioProbs) AudioProbs {
	for i, v := range p {
		if !finite(v) || v < 0 {
			p[i] = 0
		}
	}
	return p
}
