// Package fusion maps audio emotion probabilities and text sentiment into a
// shared valence-arousal space and derives a six-category basis-point
// distribution from the fused point.
//
// Everything in this package is a pure function of its inputs: the same
// probabilities, score and magnitude always produce bit-identical results.
package fusion

import "strings"

// Label is an emotion category.
type Label string

const (
	Happy    Label = "happy"
	Sad      Label = "sad"
	Neutral  Label = "neutral"
	Angry    Label = "angry"
	Fear     Label = "fear"
	Surprise Label = "surprise"
)

// NumLabels is the number of emotion categories.
const NumLabels = 6

// Labels lists the categories in declaration order. Ties are always broken
// in favour of the earlier entry.
var Labels = [NumLabels]Label{Happy, Sad, Neutral, Angry, Fear, Surprise}

// Index returns the position of l in Labels.
func (l Label) Index() (int, bool) {
	for i, candidate := range Labels {
		if candidate == l {
			return i, true
		}
	}
	return -1, false
}

// ParseLabel accepts a category name in any case.
func ParseLabel(s string) (Label, bool) {
	l := Label(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := l.Index(); !ok {
		return "", false
	}
	return l, true
}

// AudioProbs holds one probability per category, indexed like Labels.
type AudioProbs [NumLabels]float64

// Get returns the probability for l, or 0 for an unknown label.
func (p AudioProbs) Get(l Label) float64 {
	if i, ok := l.Index(); ok {
		return p[i]
	}
	return 0
}

// Set stores the probability for l. Unknown labels are ignored.
func (p *AudioProbs) Set(l Label, v float64) {
	if i, ok := l.Index(); ok {
		p[i] = v
	}
}

// Max returns the largest probability, never below 0.
func (p AudioProbs) Max() float64 {
	m := 0.0
	for _, v := range p {
		if v > m {
			m = v
		}
	}
	return m
}

// Distribution holds basis-point shares indexed like Labels.
type Distribution [NumLabels]int

// Get returns the share for l, or 0 for an unknown label.
func (d Distribution) Get(l Label) int {
	if i, ok := l.Index(); ok {
		return d[i]
	}
	return 0
}

// Sum returns the total of all shares.
func (d Distribution) Sum() int {
	total := 0
	for _, v := range d {
		total += v
	}
	return total
}

// Top returns the category with the largest share. Ties go to the first
// declared label.
func (d Distribution) Top() (Label, int) {
	i := d.topIndex()
	return Labels[i], d[i]
}

func (d Distribution) topIndex() int {
	best := 0
	for i := 1; i < NumLabels; i++ {
		if d[i] > d[best] {
			best = i
		}
	}
	return best
}

// DisplayLabel returns the user-facing name of a category. Fear is shown as "anxiety".
func DisplayLabel(l Label) string {
	if l == Fear {
		return "anxiety"
	}
	return string(l)
}
