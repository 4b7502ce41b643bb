// Package sla resolves per-indicator staleness policies and evaluates
// data freshness against them. Resolution and evaluation are pure: static
// override tables plus a timestamp in, a policy or evaluation record out.
package sla

import (
	"github.com/pxilabs/pxi/internal/domain"
)

// Class is the staleness-tolerance category of an indicator.
type Class string

const (
	ClassDaily        Class = "daily"
	ClassWeekly       Class = "weekly"
	ClassMonthly      Class = "monthly"
	ClassSourceLagged Class = "source_lagged"
)

// Policy is the resolved staleness policy for one indicator.
type Policy struct {
	IndicatorID string  `json:"indicator_id"`
	Class       Class   `json:"sla_class"`
	MaxAgeDays  float64 `json:"max_age_days"`
	Critical    bool    `json:"critical"`
}

// ChronicThresholdDays is the age past which staleness stops looking like
// weekend/holiday lag and starts looking like a broken pipeline.
func (p Policy) ChronicThresholdDays() float64 {
	t := p.MaxAgeDays * 2
	if p.MaxAgeDays+1 > t {
		t = p.MaxAgeDays + 1
	}
	return t
}

// Tables holds the static configuration the resolver works from. The
// zero value resolves everything as daily/non-critical; Defaults returns
// the production tables.
type Tables struct {
	// SourceLagged lists indicators known to report with a fixed
	// multi-day lag; membership wins over every other rule.
	SourceLagged map[string]float64 `yaml:"source_lagged"`
	// Frequencies overrides the update-frequency hint per indicator.
	Frequencies map[string]domain.Frequency `yaml:"frequencies"`
	// MaxAgeOverrides replaces the frequency-derived max age.
	MaxAgeOverrides map[string]float64 `yaml:"max_age_overrides"`
	// Critical marks indicators whose staleness escalates.
	Critical map[string]bool `yaml:"critical"`
}

// Defaults returns the built-in override tables.
func Defaults() Tables {
	return Tables{
		SourceLagged: map[string]float64{
			"commodity_index": 7,
			"baltic_dry":      7,
		},
		Frequencies: map[string]domain.Frequency{
			"initial_claims":    domain.FreqWeekly,
			"fed_balance_sheet": domain.FreqWeekly,
			"cot_positioning":   domain.FreqWeekly,
			"ism_pmi":           domain.FreqMonthly,
			"global_liquidity":  domain.FreqMonthly,
			"lei_composite":     domain.FreqMonthly,
		},
		MaxAgeOverrides: map[string]float64{
			"lei_composite":    120,
			"global_liquidity": 120,
		},
		Critical: map[string]bool{
			"vix":            true,
			"hy_oas":         true,
			"yield_curve":    true,
			"spx_breadth":    true,
			"dollar_index":   true,
			"initial_claims": true,
		},
	}
}

// defaultMaxAge maps an update frequency to its default staleness budget.
func defaultMaxAge(f domain.Frequency) float64 {
	switch f {
	case domain.FreqWeekly:
		return 10
	case domain.FreqMonthly:
		return 45
	default:
		return 4
	}
}

// Resolver maps indicator ids to staleness policies.
type Resolver struct {
	tables Tables
}

// NewResolver builds a resolver over the given tables.
func NewResolver(tables Tables) *Resolver {
	return &Resolver{tables: tables}
}

// Resolve computes the policy for an indicator. freqHint is the
// definition's configured frequency and may be empty; the static
// frequency table wins over it, and unknown indicators default to daily.
func (r *Resolver) Resolve(indicatorID string, freqHint domain.Frequency) Policy {
	p := Policy{IndicatorID: indicatorID, Critical: r.tables.Critical[indicatorID]}

	if lag, ok := r.tables.SourceLagged[indicatorID]; ok {
		p.Class = ClassSourceLagged
		p.MaxAgeDays = lag
		if override, ok := r.tables.MaxAgeOverrides[indicatorID]; ok {
			p.MaxAgeDays = override
		}
		return p
	}

	freq := freqHint
	if hinted, ok := r.tables.Frequencies[indicatorID]; ok {
		freq = hinted
	}
	if freq == "" {
		freq = domain.FreqDaily
	}

	switch freq {
	case domain.FreqWeekly:
		p.Class = ClassWeekly
	case domain.FreqMonthly:
		p.Class = ClassMonthly
	default:
		p.Class = ClassDaily
	}
	p.MaxAgeDays = defaultMaxAge(freq)

	if override, ok := r.tables.MaxAgeOverrides[indicatorID]; ok {
		p.MaxAgeDays = override
	}
	return p
}
