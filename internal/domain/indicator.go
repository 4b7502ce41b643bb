package domain

import (
	"fmt"
	"time"
)

// DateLayout is the canonical day key used across persistence and outputs.
const DateLayout = "2006-01-02"

// DateKey truncates a timestamp to its UTC day key.
func DateKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ParseDate parses a day key. Unparsable dates are reported, not fatal:
// callers treat them as missing data.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparsable date %q: %w", s, err)
	}
	return t, nil
}

// Frequency is an indicator's expected update cadence.
type Frequency string

const (
	FreqDaily   Frequency = "daily"
	FreqWeekly  Frequency = "weekly"
	FreqMonthly Frequency = "monthly"
)

// ParseFrequency maps a config string to a Frequency, defaulting to daily
// when the hint is unknown.
func ParseFrequency(s string) Frequency {
	switch Frequency(s) {
	case FreqWeekly:
		return FreqWeekly
	case FreqMonthly:
		return FreqMonthly
	default:
		return FreqDaily
	}
}

// NormalizationMethod selects how a raw indicator value maps onto [0,100].
type NormalizationMethod string

const (
	MethodPercentile         NormalizationMethod = "percentile"
	MethodPercentileInverted NormalizationMethod = "percentile_inverted"
	MethodZScore             NormalizationMethod = "zscore"
	MethodBellCurve          NormalizationMethod = "bellcurve"
	MethodDirect             NormalizationMethod = "direct"
	// MethodPMI is the survey sub-case of direct scaling: readings on the
	// [30,70] diffusion band are remapped linearly onto [0,100].
	MethodPMI NormalizationMethod = "pmi"
)

// ParseNormalizationMethod validates a config string.
func ParseNormalizationMethod(s string) (NormalizationMethod, error) {
	m := NormalizationMethod(s)
	switch m {
	case MethodPercentile, MethodPercentileInverted, MethodZScore, MethodBellCurve, MethodDirect, MethodPMI:
		return m, nil
	}
	return "", fmt.Errorf("unknown normalization method %q", s)
}

// Category is one of the seven weighted indicator groupings.
type Category string

const (
	CategoryPositioning Category = "positioning"
	CategoryCredit      Category = "credit"
	CategoryVolatility  Category = "volatility"
	CategoryBreadth     Category = "breadth"
	CategoryMacro       Category = "macro"
	CategoryGlobal      Category = "global"
	CategoryCrypto      Category = "crypto"
)

// Categories returns the fixed category set in output order.
func Categories() []Category {
	return []Category{
		CategoryPositioning,
		CategoryCredit,
		CategoryVolatility,
		CategoryBreadth,
		CategoryMacro,
		CategoryGlobal,
		CategoryCrypto,
	}
}

// ParseCategory validates a config string.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	for _, known := range Categories() {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// IndicatorDefinition is the immutable configuration of one indicator.
// Loaded once at process start; never mutated.
type IndicatorDefinition struct {
	ID        string              `yaml:"id" json:"id"`
	Name      string              `yaml:"name" json:"name"`
	Category  Category            `yaml:"category" json:"category"`
	Source    string              `yaml:"source" json:"source"`
	Method    NormalizationMethod `yaml:"method" json:"method"`
	Inverted  bool                `yaml:"inverted" json:"inverted"`
	Frequency Frequency           `yaml:"frequency" json:"frequency"`
}

// IndicatorValue is one observed raw value. Immutable once written;
// superseded, not deleted, by later writes for the same (indicator, date).
type IndicatorValue struct {
	IndicatorID string    `json:"indicator_id" db:"indicator_id"`
	Date        time.Time `json:"date" db:"date"`
	Value       float64   `json:"value" db:"value"`
	Source      string    `json:"source" db:"source"`
}

// NormalizedScore is one indicator's [0,100] score for a date.
type NormalizedScore struct {
	IndicatorID string    `json:"indicator_id" db:"indicator_id"`
	Date        time.Time `json:"date" db:"date"`
	RawValue    float64   `json:"raw_value" db:"raw_value"`
	Normalized  float64   `json:"normalized" db:"normalized"`
}
