package domain

// SignalType classifies the risk-allocation recommendation.
type SignalType string

const (
	SignalFullRisk    SignalType = "FULL_RISK"
	SignalReducedRisk SignalType = "REDUCED_RISK"
	SignalRiskOff     SignalType = "RISK_OFF"
	SignalDefensive   SignalType = "DEFENSIVE"
)

// SignalForAllocation maps a final allocation onto its signal class.
func SignalForAllocation(alloc float64) SignalType {
	switch {
	case alloc >= 0.80:
		return SignalFullRisk
	case alloc >= 0.50:
		return SignalReducedRisk
	case alloc >= 0.30:
		return SignalRiskOff
	default:
		return SignalDefensive
	}
}

// Adjustment records one multiplicative allocation adjustment for
// explainability. Multipliers compose against the original base, so the
// list order carries no semantics.
type Adjustment struct {
	Name       string  `json:"name"`
	Multiplier float64 `json:"multiplier"`
	Reason     string  `json:"reason"`
}

// SignalState is the signal policy engine's output.
type SignalState struct {
	Type                 SignalType   `json:"type"`
	RiskAllocation       float64      `json:"risk_allocation"`
	BaseAllocation       float64      `json:"base_allocation"`
	VolatilityPercentile *float64     `json:"volatility_percentile"`
	CategoryDispersion   float64      `json:"category_dispersion"`
	Adjustments          []Adjustment `json:"adjustments"`
}

// Stance is the consumer-facing direction summary of regime and signal.
type Stance string

const (
	StanceRiskOn  Stance = "RISK_ON"
	StanceRiskOff Stance = "RISK_OFF"
	StanceMixed   Stance = "MIXED"
)

// ConflictState reports whether regime and signal disagree in direction.
type ConflictState string

const (
	ConflictNone     ConflictState = "NONE"
	ConflictConflict ConflictState = "CONFLICT"
)
