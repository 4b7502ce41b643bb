package domain

// Severity grades a divergence alert.
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// AlertMetrics is precomputed historical base-rate metadata for a
// divergence pattern. Looked up, never derived live.
type AlertMetrics struct {
	HistoricalFrequency float64 `json:"historical_frequency"`
	AvgForwardReturn30d float64 `json:"avg_forward_return_30d"`
	Occurrences         int     `json:"occurrences"`
}

// DivergenceAlert is one fired disagreement pattern.
type DivergenceAlert struct {
	Type        string        `json:"type"`
	Severity    Severity      `json:"severity"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Actionable  bool          `json:"actionable"`
	Metrics     *AlertMetrics `json:"metrics,omitempty"`
}
