package clock

import "math/rand/v2"

const (
	minTilt = 1.0
	maxTilt = 4.0
)

// GenerateBalancedRotations returns resting tilts for the five slots: two
// positive and two negative values in [1,4] shuffled over the digit slots, and
// a separator value that brings the sum to zero. Draws that would push the
// separator outside [1,4] are discarded.
func GenerateBalancedRotations(rng *rand.Rand) [SlotCount]float64 {
	for {
		four := [4]float64{
			uniform(rng, minTilt, maxTilt),
			uniform(rng, minTilt, maxTilt),
			-uniform(rng, minTilt, maxTilt),
			-uniform(rng, minTilt, maxTilt),
		}
		rng.Shuffle(len(four), func(i, j int) { four[i], four[j] = four[j], four[i] })

		var out [SlotCount]float64
		sum := 0.0
		for i, slot := range [4]int{0, 1, 3, 4} {
			out[slot] = four[i]
			sum += four[i]
		}
		mid := -sum
		if abs(mid) >= minTilt && abs(mid) <= maxTilt {
			out[SeparatorSlot] = mid
			return out
		}
	}
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// symmetric draws from U(-r, r); a zero range yields zero.
func symmetric(rng *rand.Rand, r float64) float64 {
	if r <= 0 {
		return 0
	}
	return uniform(rng, -r, r)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
