// Package divergence flags disagreement patterns between the Index, the
// regime classification, and short-term momentum.
package divergence

import (
	"fmt"

	"github.com/pxilabs/pxi/internal/domain"
)

// Alert type identifiers.
const (
	TypeStealthWeakness    = "STEALTH_WEAKNESS"
	TypeResilientStrength  = "RESILIENT_STRENGTH"
	TypeRapidDeterioration = "RAPID_DETERIORATION"
	TypeHiddenRisk         = "HIDDEN_RISK"
)

// Config holds the catalogue thresholds. The volatility levels here are
// raw VIX-style readings, deliberately independent from the regime
// classifier's percentile thresholds.
type Config struct {
	WeakScoreBelow     float64 `yaml:"weak_score_below"`     // default 30
	StrongScoreAbove   float64 `yaml:"strong_score_above"`   // default 70
	CalmVolBelow       float64 `yaml:"calm_vol_below"`       // default 15
	ElevatedVolAbove   float64 `yaml:"elevated_vol_above"`   // default 25
	DeteriorationDelta float64 `yaml:"deterioration_delta"`  // default -15
	HiddenRiskScore    float64 `yaml:"hidden_risk_score"`    // default 40
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		WeakScoreBelow:     30,
		StrongScoreAbove:   70,
		CalmVolBelow:       15,
		ElevatedVolAbove:   25,
		DeteriorationDelta: -15,
		HiddenRiskScore:    40,
	}
}

// Inputs is the day's evidence. Nil fields disable the rules needing them.
type Inputs struct {
	Score      float64
	Regime     *domain.RegimeClassification
	Delta7     *float64
	Volatility *float64 // raw volatility proxy level, not a percentile
}

// historicalMetrics is the precomputed base-rate lookup per pattern,
// refreshed offline with the ML training data exports.
var historicalMetrics = map[string]domain.AlertMetrics{
	TypeStealthWeakness:    {HistoricalFrequency: 0.031, AvgForwardReturn30d: -4.2, Occurrences: 47},
	TypeResilientStrength:  {HistoricalFrequency: 0.044, AvgForwardReturn30d: 3.1, Occurrences: 66},
	TypeRapidDeterioration: {HistoricalFrequency: 0.018, AvgForwardReturn30d: -6.8, Occurrences: 27},
	TypeHiddenRisk:         {HistoricalFrequency: 0.025, AvgForwardReturn30d: -2.9, Occurrences: 38},
}

// Detector evaluates the fixed rule catalogue.
type Detector struct {
	config Config
}

// NewDetector builds a detector; a zero config is replaced with defaults.
func NewDetector(config Config) *Detector {
	if config.WeakScoreBelow == 0 && config.StrongScoreAbove == 0 {
		config = DefaultConfig()
	}
	return &Detector{config: config}
}

// Detect runs every rule independently. Zero, one, or many alerts may
// fire for the same date.
func (d *Detector) Detect(in Inputs) []domain.DivergenceAlert {
	var alerts []domain.DivergenceAlert
	cfg := d.config
	regimeOn := in.Regime != nil && in.Regime.Type == domain.RegimeRiskOn

	if in.Volatility != nil && in.Score < cfg.WeakScoreBelow && *in.Volatility < cfg.CalmVolBelow {
		alerts = append(alerts, alert(TypeStealthWeakness, domain.SeverityHigh, true,
			"Stealth Weakness",
			fmt.Sprintf("Index at %.0f while volatility sits at a calm %.1f: weakness the vol market has not priced", in.Score, *in.Volatility)))
	}

	if in.Volatility != nil && in.Score > cfg.StrongScoreAbove && *in.Volatility > cfg.ElevatedVolAbove {
		alerts = append(alerts, alert(TypeResilientStrength, domain.SeverityMedium, false,
			"Resilient Strength",
			fmt.Sprintf("Index holds %.0f despite elevated volatility at %.1f", in.Score, *in.Volatility)))
	}

	if in.Delta7 != nil && *in.Delta7 < cfg.DeteriorationDelta && regimeOn {
		alerts = append(alerts, alert(TypeRapidDeterioration, domain.SeverityHigh, true,
			"Rapid Deterioration",
			fmt.Sprintf("Index dropped %.1f points in 7 days while the regime still reads RISK_ON", *in.Delta7)))
	}

	if regimeOn && in.Score < cfg.HiddenRiskScore {
		alerts = append(alerts, alert(TypeHiddenRisk, domain.SeverityMedium, true,
			"Hidden Risk",
			fmt.Sprintf("Regime reads RISK_ON but the Index sits at a weak %.0f", in.Score)))
	}

	return alerts
}

func alert(alertType string, severity domain.Severity, actionable bool, title, description string) domain.DivergenceAlert {
	a := domain.DivergenceAlert{
		Type:        alertType,
		Severity:    severity,
		Title:       title,
		Description: description,
		Actionable:  actionable,
	}
	if m, ok := historicalMetrics[alertType]; ok {
		metrics := m
		a.Metrics = &metrics
	}
	return a
}
