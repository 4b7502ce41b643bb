package domain

// RegimeType is the market regime classification.
type RegimeType string

const (
	RegimeRiskOn     RegimeType = "RISK_ON"
	RegimeRiskOff    RegimeType = "RISK_OFF"
	RegimeTransition RegimeType = "TRANSITION"
)

// RegimeVote is one panel indicator's vote.
type RegimeVote string

const (
	VoteRiskOn  RegimeVote = "RISK_ON"
	VoteRiskOff RegimeVote = "RISK_OFF"
	VoteNeutral RegimeVote = "NEUTRAL"
)

// RegimeClassification is the voting panel's output for a date. Not
// independently versioned: always recomputed from that date's inputs.
type RegimeClassification struct {
	Type        RegimeType            `json:"type"`
	Confidence  float64               `json:"confidence"`
	Description string                `json:"description"`
	Votes       map[string]RegimeVote `json:"votes,omitempty"`
}
