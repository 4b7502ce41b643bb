// Package composite aggregates normalized indicator scores into category
// scores and the weighted 0-100 Index value.
package composite

import (
	"fmt"
	"math"

	"github.com/pxilabs/pxi/internal/domain"
)

// WeightSumTolerance bounds the accepted drift of Σweights from 1.0.
const WeightSumTolerance = 1e-6

// Weights maps each category to its share of the composite.
type Weights map[domain.Category]float64

// DefaultWeights returns the v1.1 category weight set.
func DefaultWeights() Weights {
	return Weights{
		domain.CategoryPositioning: 0.15,
		domain.CategoryCredit:      0.20,
		domain.CategoryVolatility:  0.20,
		domain.CategoryBreadth:     0.15,
		domain.CategoryMacro:       0.10,
		domain.CategoryGlobal:      0.10,
		domain.CategoryCrypto:      0.10,
	}
}

// Validate checks that every fixed category carries a positive weight and
// that the weights sum to 1.0 within tolerance.
func (w Weights) Validate() error {
	var sum float64
	for _, cat := range domain.Categories() {
		weight, ok := w[cat]
		if !ok {
			return fmt.Errorf("category %s has no weight", cat)
		}
		if weight <= 0 || weight > 1 {
			return fmt.Errorf("category %s weight %.4f out of (0,1]", cat, weight)
		}
		sum += weight
	}
	if math.Abs(sum-1.0) > WeightSumTolerance {
		return fmt.Errorf("category weights sum to %.6f, want 1.0", sum)
	}
	return nil
}
