// Package regime classifies the market as RISK_ON, RISK_OFF, or
// TRANSITION through independent voting over a fixed macro panel.
package regime

import (
	"fmt"

	"github.com/pxilabs/pxi/internal/domain"
	"github.com/pxilabs/pxi/internal/normalize"
)

// Voter names the five panel seats.
const (
	VoterVolatility = "volatility"
	VoterCredit     = "credit"
	VoterBreadth    = "breadth"
	VoterYieldCurve = "yield_curve"
	VoterDollar     = "dollar"
)

// Config holds the panel's voting thresholds. Percentile thresholds are
// evaluated over a 5-year rolling window; the breadth seat votes on the
// direct value instead.
type Config struct {
	// Indicators maps each voter seat to the indicator id feeding it.
	Indicators map[string]string `yaml:"indicators"`

	VolatilityOnBelow  float64 `yaml:"volatility_on_below"`   // pctile, default 30
	VolatilityOffAbove float64 `yaml:"volatility_off_above"`  // pctile, default 70
	CreditOnBelow      float64 `yaml:"credit_on_below"`       // pctile, default 30
	CreditOffAbove     float64 `yaml:"credit_off_above"`      // pctile, default 70
	BreadthOnAbove     float64 `yaml:"breadth_on_above"`      // percent, default 60
	BreadthOffBelow    float64 `yaml:"breadth_off_below"`     // percent, default 40
	YieldCurveOnAbove  float64 `yaml:"yield_curve_on_above"`  // pctile, default 60
	YieldCurveOffBelow float64 `yaml:"yield_curve_off_below"` // pctile, default 20
	DollarOnBelow      float64 `yaml:"dollar_on_below"`       // pctile, default 40
	DollarOffAbove     float64 `yaml:"dollar_off_above"`      // pctile, default 70
}

// DefaultConfig returns the production panel wiring.
func DefaultConfig() Config {
	return Config{
		Indicators: map[string]string{
			VoterVolatility: "vix",
			VoterCredit:     "hy_oas",
			VoterBreadth:    "spx_breadth",
			VoterYieldCurve: "yield_curve",
			VoterDollar:     "dollar_index",
		},
		VolatilityOnBelow:  30,
		VolatilityOffAbove: 70,
		CreditOnBelow:      30,
		CreditOffAbove:     70,
		BreadthOnAbove:     60,
		BreadthOffBelow:    40,
		YieldCurveOnAbove:  60,
		YieldCurveOffBelow: 20,
		DollarOnBelow:      40,
		DollarOffAbove:     70,
	}
}

// Observation is one voter's input: the current raw value and its 5-year
// reference window for percentile voting.
type Observation struct {
	Value  float64
	Window []float64
}

// Classifier runs the voting panel.
type Classifier struct {
	config Config
}

// NewClassifier builds a classifier; a zero-threshold config is replaced
// with defaults.
func NewClassifier(config Config) *Classifier {
	if config.Indicators == nil {
		config = DefaultConfig()
	}
	return &Classifier{config: config}
}

// Classify tallies the panel for one date. Observations are keyed by
// voter seat; a missing seat simply casts no vote. Returns nil when no
// seat could vote at all.
func (c *Classifier) Classify(observations map[string]Observation) *domain.RegimeClassification {
	votes := make(map[string]domain.RegimeVote)
	for seat, obs := range observations {
		if vote, ok := c.vote(seat, obs); ok {
			votes[seat] = vote
		}
	}
	if len(votes) == 0 {
		return nil
	}

	var on, off int
	for _, v := range votes {
		switch v {
		case domain.VoteRiskOn:
			on++
		case domain.VoteRiskOff:
			off++
		}
	}

	regimeType := domain.RegimeTransition
	switch {
	case on >= 3 || (on >= 2 && off == 0):
		regimeType = domain.RegimeRiskOn
	case off >= 3 || (off >= 2 && on == 0):
		regimeType = domain.RegimeRiskOff
	}

	// Confidence is the winning vote share over seats that voted.
	winning := on
	if off > winning {
		winning = off
	}
	confidence := float64(winning) / float64(len(votes))

	return &domain.RegimeClassification{
		Type:        regimeType,
		Confidence:  confidence,
		Description: describe(regimeType, on, off, len(votes)),
		Votes:       votes,
	}
}

func (c *Classifier) vote(seat string, obs Observation) (domain.RegimeVote, bool) {
	switch seat {
	case VoterVolatility:
		return percentileVote(obs, c.config.VolatilityOnBelow, c.config.VolatilityOffAbove, true)
	case VoterCredit:
		return percentileVote(obs, c.config.CreditOnBelow, c.config.CreditOffAbove, true)
	case VoterBreadth:
		// Direct value thresholds, no percentile needed.
		switch {
		case obs.Value > c.config.BreadthOnAbove:
			return domain.VoteRiskOn, true
		case obs.Value < c.config.BreadthOffBelow:
			return domain.VoteRiskOff, true
		}
		return domain.VoteNeutral, true
	case VoterYieldCurve:
		return percentileVote(obs, c.config.YieldCurveOffBelow, c.config.YieldCurveOnAbove, false)
	case VoterDollar:
		return percentileVote(obs, c.config.DollarOnBelow, c.config.DollarOffAbove, true)
	}
	return domain.VoteNeutral, false
}

// percentileVote votes on the observation's rank within its window.
// lowIsOn selects the orientation: volatility/credit/dollar favor risk
// when low, the yield curve favors risk when high.
func percentileVote(obs Observation, lowThreshold, highThreshold float64, lowIsOn bool) (domain.RegimeVote, bool) {
	if len(obs.Window) == 0 {
		return domain.VoteNeutral, false
	}
	pct := normalize.PercentileRank(obs.Value, obs.Window)

	if lowIsOn {
		switch {
		case pct < lowThreshold:
			return domain.VoteRiskOn, true
		case pct > highThreshold:
			return domain.VoteRiskOff, true
		}
		return domain.VoteNeutral, true
	}
	switch {
	case pct > highThreshold:
		return domain.VoteRiskOn, true
	case pct < lowThreshold:
		return domain.VoteRiskOff, true
	}
	return domain.VoteNeutral, true
}

func describe(t domain.RegimeType, on, off, voters int) string {
	switch t {
	case domain.RegimeRiskOn:
		return fmt.Sprintf("Risk-on: %d of %d voters favor risk assets (%d against)", on, voters, off)
	case domain.RegimeRiskOff:
		return fmt.Sprintf("Risk-off: %d of %d voters favor defensives (%d against)", off, voters, on)
	default:
		return fmt.Sprintf("Transition: no clear majority (%d on, %d off, %d voters)", on, off, voters)
	}
}
