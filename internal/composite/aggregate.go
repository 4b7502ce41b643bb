package composite

import (
	"time"

	"github.com/pxilabs/pxi/internal/domain"
	"github.com/pxilabs/pxi/internal/normalize"
)

// AggregateCategories folds normalized indicator scores into one score
// per category. Indicators excluded upstream by staleness simply do not
// appear in scores; a category left with no indicators defaults to the
// neutral 50 so the composite formula stays well-defined.
func AggregateCategories(date time.Time, scores []domain.NormalizedScore, defs map[string]domain.IndicatorDefinition, weights Weights) []domain.CategoryScore {
	sums := make(map[domain.Category]float64)
	counts := make(map[domain.Category]int)
	for _, s := range scores {
		def, ok := defs[s.IndicatorID]
		if !ok {
			continue
		}
		sums[def.Category] += s.Normalized
		counts[def.Category]++
	}

	out := make([]domain.CategoryScore, 0, len(domain.Categories()))
	for _, cat := range domain.Categories() {
		score := normalize.NeutralScore
		if counts[cat] > 0 {
			score = sums[cat] / float64(counts[cat])
		}
		weight := weights[cat]
		out = append(out, domain.CategoryScore{
			Category:      cat,
			Date:          date,
			Score:         score,
			Weight:        weight,
			WeightedScore: score * weight,
			Indicators:    counts[cat],
		})
	}
	return out
}
