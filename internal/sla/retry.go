package sla

// RetryPolicy is the escalation contract for a stale indicator. The core
// pipeline never retries; this resolution feeds the fetcher layer's
// scheduler and the alerting surface.
type RetryPolicy struct {
	Attempts       int    `json:"attempts"`
	BackoffMinutes int    `json:"backoff_minutes"`
	EscalationTier string `json:"escalation_tier"`
	OwningTeam     string `json:"owning_team"`
}

var retryByClass = map[Class]RetryPolicy{
	ClassDaily:        {Attempts: 3, BackoffMinutes: 30, EscalationTier: "page", OwningTeam: "data-platform"},
	ClassWeekly:       {Attempts: 2, BackoffMinutes: 120, EscalationTier: "ticket", OwningTeam: "data-platform"},
	ClassMonthly:      {Attempts: 1, BackoffMinutes: 720, EscalationTier: "ticket", OwningTeam: "macro-research"},
	ClassSourceLagged: {Attempts: 1, BackoffMinutes: 1440, EscalationTier: "none", OwningTeam: "macro-research"},
}

var retryOverrides = map[string]RetryPolicy{
	// VIX feeds the regime panel and the signal policy; losing it is a
	// page regardless of class defaults.
	"vix": {Attempts: 5, BackoffMinutes: 10, EscalationTier: "page", OwningTeam: "data-platform"},
}

// ResolveRetry returns the retry/escalation policy for an indicator.
// Indicator-specific overrides win over the class default.
func ResolveRetry(indicatorID string, class Class) RetryPolicy {
	if p, ok := retryOverrides[indicatorID]; ok {
		return p
	}
	if p, ok := retryByClass[class]; ok {
		return p
	}
	return retryByClass[ClassDaily]
}
