package sla

import (
	"time"

	"github.com/pxilabs/pxi/internal/domain"
)

// Evaluation is the freshness verdict for one indicator at one instant.
// Computed fresh on every call; never persisted.
type Evaluation struct {
	IndicatorID string     `json:"indicator_id"`
	LatestDate  *time.Time `json:"latest_date"`
	DaysOld     *float64   `json:"days_old"`
	Missing     bool       `json:"missing"`
	Stale       bool       `json:"stale"`
	// Chronic flags age beyond max(max_age+1, max_age*2): genuine
	// pipeline failure rather than ordinary weekend/holiday lag.
	Chronic bool   `json:"chronic"`
	Policy  Policy `json:"policy"`
}

// Included reports whether the indicator's value may enter aggregation.
func (e Evaluation) Included() bool {
	return !e.Missing && !e.Stale
}

// Evaluate checks the latest known value date against the policy. A nil
// latest date means no value exists at all.
func Evaluate(latest *time.Time, now time.Time, policy Policy) Evaluation {
	ev := Evaluation{IndicatorID: policy.IndicatorID, Policy: policy}

	if latest == nil {
		ev.Missing = true
		ev.Stale = true
		return ev
	}

	daysOld := now.Sub(*latest).Hours() / 24
	ev.LatestDate = latest
	ev.DaysOld = &daysOld
	ev.Stale = daysOld > policy.MaxAgeDays
	ev.Chronic = daysOld >= policy.ChronicThresholdDays()
	return ev
}

// EvaluateRaw is Evaluate over a string-keyed date as delivered by
// upstream fetchers. An unparsable date is treated as missing data, not a
// fatal error.
func EvaluateRaw(latestDate string, now time.Time, policy Policy) Evaluation {
	if latestDate == "" {
		return Evaluate(nil, now, policy)
	}
	t, err := domain.ParseDate(latestDate)
	if err != nil {
		return Evaluate(nil, now, policy)
	}
	return Evaluate(&t, now, policy)
}
