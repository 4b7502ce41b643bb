package domain

import "time"

// Status buckets the composite score, monotonically more bullish as the
// score rises.
type Status string

const (
	StatusMaxPamp Status = "MAX_PAMP"
	StatusPamping Status = "PAMPING"
	StatusNeutral Status = "NEUTRAL"
	StatusSoft    Status = "SOFT"
	StatusDumping Status = "DUMPING"
)

// StatusForScore maps a composite score onto its status bucket.
func StatusForScore(score float64) Status {
	switch {
	case score >= 80:
		return StatusMaxPamp
	case score >= 65:
		return StatusPamping
	case score >= 50:
		return StatusNeutral
	case score >= 35:
		return StatusSoft
	default:
		return StatusDumping
	}
}

// Label returns the human-readable label for a status bucket.
func (s Status) Label() string {
	switch s {
	case StatusMaxPamp:
		return "Maximum Pamp"
	case StatusPamping:
		return "Pamping"
	case StatusNeutral:
		return "Neutral"
	case StatusSoft:
		return "Softening"
	case StatusDumping:
		return "Dumping"
	default:
		return "Unknown"
	}
}

// CategoryScore is one category's aggregated score for a date.
type CategoryScore struct {
	Category      Category  `json:"name" db:"category"`
	Date          time.Time `json:"-" db:"date"`
	Score         float64   `json:"score" db:"score"`
	Weight        float64   `json:"weight" db:"weight"`
	WeightedScore float64   `json:"weighted_score" db:"weighted_score"`
	// Indicators counts the indicator scores that survived staleness
	// gating; zero means the category fell back to neutral.
	Indicators int `json:"indicators" db:"indicators"`
}

// Deltas are calendar-day changes of the composite score. A nil entry
// means one side of the difference was unavailable.
type Deltas struct {
	D1  *float64 `json:"d1"`
	D7  *float64 `json:"d7"`
	D30 *float64 `json:"d30"`
}

// CompositeScore is the Index record, globally unique by date.
type CompositeScore struct {
	Date   time.Time `json:"date" db:"date"`
	Score  float64   `json:"score" db:"score"`
	Label  string    `json:"label" db:"label"`
	Status Status    `json:"status" db:"status"`
	Delta  Deltas    `json:"delta"`
}
