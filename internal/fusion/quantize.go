package fusion

import "math"

// TotalBps is the sum every distribution must reach exactly.
const TotalBps = 10000

// NormalizeBps scales non-negative weights to integer shares summing to
// exactly TotalBps. Rounding drift is added to the currently largest share.
// When all weights are zero the whole total goes to Neutral.
func NormalizeBps(weights [NumLabels]float64) Distribution {
	var d Distribution

	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if !(total > 0) || math.IsInf(total, 0) {
		i, _ := Neutral.Index()
		d[i] = TotalBps
		return d
	}

	for i, w := range weights {
		if w > 0 {
			d[i] = int(math.Round(w * TotalBps / total))
		}
	}
	correctRemainder(&d, -1)
	return d
}

// correctRemainder adds TotalBps - sum to the largest share other than skip,
// clamped to [0, TotalBps]. Pass -1 to consider every share.
func correctRemainder(d *Distribution, skip int) {
	diff := TotalBps - d.Sum()
	if diff == 0 {
		return
	}
	i := -1
	for j, v := range d {
		if j != skip && (i < 0 || v > d[i]) {
			i = j
		}
	}
	d[i] = clampInt(d[i]+diff, 0, TotalBps)
}

// capShare limits the share at idx to limit. The excess is spread over the
// other non-zero shares in proportion to their size, falling back to Neutral
// when no other share is non-zero. Rounding drift never lands on idx.
func capShare(d Distribution, idx, limit int) Distribution {
	if d[idx] <= limit {
		return d
	}
	over := d[idx] - limit
	d[idx] = limit

	others := 0
	for i, v := range d {
		if i != idx && v > 0 {
			others += v
		}
	}

	if others == 0 {
		target, _ := Neutral.Index()
		if target == idx {
			target = 0
		}
		d[target] += over
		return d
	}

	snapshot := d
	for i, v := range snapshot {
		if i != idx && v > 0 {
			d[i] += int(math.Round(float64(over) * float64(v) / float64(others)))
		}
	}
	correctRemainder(&d, idx)
	return d
}

// UnitToBps maps x in [-1, 1] onto [0, 10000]. Values outside the range are clamped.
func UnitToBps(x float64) int {
	if math.IsNaN(x) {
		return TotalBps / 2
	}
	return int(math.Round((clamp(x, -1, 1) + 1) * 5000))
}

// BpsToUnit is the inverse of UnitToBps.
func BpsToUnit(bps int) float64 {
	return clamp(float64(bps)/5000-1, -1, 1)
}

// ToX1000 scales x by 1000 with rounding.
func ToX1000(x float64) int {
	if !finite(x) {
		return 0
	}
	return int(math.Round(x * 1000))
}

// FromX1000 is the inverse of ToX1000.
func FromX1000(v int) float64 {
	return float64(v) / 1000
}

// ToBps scales a fraction in [0, 1] to basis points.
func ToBps(x float64) int {
	if !finite(x) {
		return 0
	}
	return clampInt(int(math.Round(x*TotalBps)), 0, TotalBps)
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

func clampInt(x, lo, hi int) int {
	return max(lo, min(hi, x))
}
