// Package signal derives the risk-allocation recommendation from the
// composite score, regime, short-term momentum, and volatility backdrop.
package signal

import (
	"fmt"
	"math"

	"github.com/pxilabs/pxi/internal/domain"
	"github.com/pxilabs/pxi/internal/normalize"
)

// Config holds the policy's adjustment table.
type Config struct {
	BaseFloor            float64 `yaml:"base_floor"`             // default 0.30
	BaseSpan             float64 `yaml:"base_span"`              // default 0.70
	RiskOffMultiplier    float64 `yaml:"risk_off_multiplier"`    // default 0.50
	TransitionMultiplier float64 `yaml:"transition_multiplier"`  // default 0.75
	Delta7Threshold      float64 `yaml:"delta7_threshold"`       // default -10
	Delta7Multiplier     float64 `yaml:"delta7_multiplier"`      // default 0.80
	VolPctileThreshold   float64 `yaml:"vol_pctile_threshold"`   // default 80
	VolPctileMultiplier  float64 `yaml:"vol_pctile_multiplier"`  // default 0.70
}

// DefaultConfig returns the production adjustment table.
func DefaultConfig() Config {
	return Config{
		BaseFloor:            0.30,
		BaseSpan:             0.70,
		RiskOffMultiplier:    0.50,
		TransitionMultiplier: 0.75,
		Delta7Threshold:      -10,
		Delta7Multiplier:     0.80,
		VolPctileThreshold:   80,
		VolPctileMultiplier:  0.70,
	}
}

// Inputs feeds one policy evaluation. Nil fields are absent data: the
// corresponding adjustment simply does not apply.
type Inputs struct {
	Score                float64
	Regime               *domain.RegimeClassification
	Delta7               *float64
	VolatilityPercentile *float64
	Categories           []domain.CategoryScore
}

// Engine evaluates the allocation policy.
type Engine struct {
	config Config
}

// NewEngine builds an engine; a zero config is replaced with defaults.
func NewEngine(config Config) *Engine {
	if config.BaseSpan == 0 {
		config = DefaultConfig()
	}
	return &Engine{config: config}
}

// Evaluate computes the risk allocation. Multipliers compose against the
// original base allocation (base × ∏multipliers), never chained through
// intermediate results, so their order carries no meaning. The final
// allocation is clamped to [0,1].
func (e *Engine) Evaluate(in Inputs) domain.SignalState {
	cfg := e.config
	base := cfg.BaseFloor + (in.Score/100)*cfg.BaseSpan

	// Always an array in the output record, even when nothing applied.
	adjustments := []domain.Adjustment{}
	if in.Regime != nil {
		switch in.Regime.Type {
		case domain.RegimeRiskOff:
			adjustments = append(adjustments, domain.Adjustment{
				Name:       "regime_risk_off",
				Multiplier: cfg.RiskOffMultiplier,
				Reason:     "regime classified RISK_OFF",
			})
		case domain.RegimeTransition:
			adjustments = append(adjustments, domain.Adjustment{
				Name:       "regime_transition",
				Multiplier: cfg.TransitionMultiplier,
				Reason:     "regime classified TRANSITION",
			})
		}
	}
	if in.Delta7 != nil && *in.Delta7 < cfg.Delta7Threshold {
		adjustments = append(adjustments, domain.Adjustment{
			Name:       "momentum_break",
			Multiplier: cfg.Delta7Multiplier,
			Reason:     fmt.Sprintf("7d delta %.1f below %.1f", *in.Delta7, cfg.Delta7Threshold),
		})
	}
	if in.VolatilityPercentile != nil && *in.VolatilityPercentile > cfg.VolPctileThreshold {
		adjustments = append(adjustments, domain.Adjustment{
			Name:       "volatility_spike",
			Multiplier: cfg.VolPctileMultiplier,
			Reason:     fmt.Sprintf("volatility percentile %.0f above %.0f", *in.VolatilityPercentile, cfg.VolPctileThreshold),
		})
	}

	allocation := base
	for _, a := range adjustments {
		allocation *= a.Multiplier
	}
	allocation = normalize.Clamp(allocation, 0, 1)

	return domain.SignalState{
		Type:                 domain.SignalForAllocation(allocation),
		RiskAllocation:       allocation,
		BaseAllocation:       base,
		VolatilityPercentile: in.VolatilityPercentile,
		CategoryDispersion:   CategoryDispersion(in.Categories),
		Adjustments:          adjustments,
	}
}

// CategoryDispersion is the population standard deviation of category
// scores: a cross-sectional disagreement measure for the output record.
func CategoryDispersion(categories []domain.CategoryScore) float64 {
	if len(categories) == 0 {
		return 0
	}
	var sum float64
	for _, c := range categories {
		sum += c.Score
	}
	mean := sum / float64(len(categories))
	var sq float64
	for _, c := range categories {
		d := c.Score - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(categories)))
}
