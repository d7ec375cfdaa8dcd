package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeBps_RemainderGoesToLargest(t *testing.T) {
	t.Parallel()

	d := NormalizeBps([NumLabels]float64{1, 1, 1})

	assert.Equal(t, Distribution{3334, 3333, 3333, 0, 0, 0}, d)
	assert.Equal(t, TotalBps, d.Sum())
}

func TestNormalizeBps_AllZeroAssignsNeutral(t *testing.T) {
	t.Parallel()

	d := NormalizeBps([NumLabels]float64{})
	assert.Equal(t, TotalBps, d.Get(Neutral))
	assert.Equal(t, TotalBps, d.Sum())
}

func TestNormalizeBps_IgnoresNegativeWeights(t *testing.T) {
	t.Parallel()

	d := NormalizeBps([NumLabels]float64{0.5, -3, 0, 0, 0.5, 0})
	assert.Equal(t, Distribution{5000, 0, 0, 0, 5000, 0}, d)
}

func TestCapShare(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		in    Distribution
		limit int
		want  Distribution
	}{
		{
			name:  "under cap untouched",
			in:    Distribution{6000, 0, 3500, 0, 0, 500},
			limit: 1000,
			want:  Distribution{6000, 0, 3500, 0, 0, 500},
		},
		{
			name:  "excess spread proportionally",
			in:    Distribution{4000, 0, 2000, 0, 0, 4000},
			limit: 1000,
			want:  Distribution{6000, 0, 3000, 0, 0, 1000},
		},
		{
			name:  "rounding drift corrected on largest",
			in:    Distribution{1, 1, 1, 0, 0, 9997},
			limit: 998,
			want:  Distribution{3000, 3001, 3001, 0, 0, 998},
		},
		{
			name:  "drift never pushes the capped share over its limit",
			in:    Distribution{1, 1, 1, 0, 0, 9997},
			limit: 5000,
			want:  Distribution{1666, 1667, 1667, 0, 0, 5000},
		},
		{
			name:  "no other share falls back to neutral",
			in:    Distribution{0, 0, 0, 0, 0, 10000},
			limit: 1000,
			want:  Distribution{0, 0, 9000, 0, 0, 1000},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := capShare(tt.in, NumLabels-1, tt.limit)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, TotalBps, got.Sum())
		})
	}
}

func TestUnitToBps(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want int
	}{
		{-1, 0},
		{0, 5000},
		{1, 10000},
		{0.5, 7500},
		{-0.25, 3750},
		{3, 10000},
		{-7, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, UnitToBps(tt.in), "x=%v", tt.in)
	}
	assert.InDelta(t, 0.5, BpsToUnit(7500), 1e-12)
	assert.InDelta(t, -1.0, BpsToUnit(-20), 1e-12)
}

func TestToX1000(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 619, ToX1000(0.6191))
	assert.Equal(t, 2500, ToX1000(2.5))
	assert.Equal(t, -250, ToX1000(-0.25))
	assert.InDelta(t, 0.619, FromX1000(619), 1e-12)
}

func TestToBps(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 8495, ToBps(0.84949))
	assert.Equal(t, 0, ToBps(-0.1))
	assert.Equal(t, TotalBps, ToBps(1.3))
}

func TestDistributionTopPrefersFirstDeclared(t *testing.T) {
	t.Parallel()

	label, share := Distribution{0, 5000, 0, 5000, 0, 0}.Top()
	assert.Equal(t, Sad, label)
	assert.Equal(t, 5000, share)
}
