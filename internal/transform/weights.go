package transform

import (
	"fmt"
	"math"
)

// WeightEpsilon is the tolerance used when comparing a normalized weight
// sum against 1.0.
const WeightEpsilon = 1e-6

// normalizeWeights converts transition probabilities into selection weights
// summing to exactly 1.0. Rounding drift in the input (e.g. probabilities
// summing to 0.999) is resolved by proportional normalization, never by
// truncation, so the runtime selection ratios stay faithful to the model.
func normalizeWeights(probs []float64) ([]float64, error) {
	if len(probs) == 0 {
		return nil, fmt.Errorf("%w: no transitions", ErrInconsistentWeights)
	}

	sum := 0.0
	for i, p := range probs {
		if p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			return nil, fmt.Errorf("%w: probability[%d]=%v",
				ErrInconsistentWeights, i, p)
		}
		sum += p
	}
	if sum <= 0 {
		return nil, fmt.Errorf("%w: probabilities sum to %v",
			ErrInconsistentWeights, sum)
	}

	weights := make([]float64, len(probs))
	for i, p := range probs {
		weights[i] = p / sum
	}
	return weights, nil
}
