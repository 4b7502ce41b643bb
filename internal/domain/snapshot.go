package domain

// IndicatorQuality reports why an indicator was excluded from a run.
// Callers can distinguish "neutral because markets are quiet" from
// "neutral because the pipeline is broken".
type IndicatorQuality struct {
	IndicatorID string   `json:"indicator_id"`
	DaysOld     *float64 `json:"days_old"`
	Missing     bool     `json:"missing"`
	Stale       bool     `json:"stale"`
	Chronic     bool     `json:"chronic"`
	Critical    bool     `json:"critical"`
}

// RunQuality aggregates per-indicator data-quality findings for a run.
type RunQuality struct {
	IndicatorsTotal    int                `json:"indicators_total"`
	IndicatorsIncluded int                `json:"indicators_included"`
	Excluded           []IndicatorQuality `json:"excluded,omitempty"`
}

// Snapshot is the one-record-per-date output consumed by the API/UI layer.
type Snapshot struct {
	Date       string                `json:"date"`
	Score      float64               `json:"score"`
	Label      string                `json:"label"`
	Status     Status                `json:"status"`
	Delta      Deltas                `json:"delta"`
	Categories []CategoryScore       `json:"categories"`
	Regime     *RegimeClassification `json:"regime"`
	Signal     SignalState           `json:"signal"`
	Divergence DivergenceReport      `json:"divergence"`
	Stance     Stance                `json:"stance"`
	Conflict   ConflictState         `json:"conflict_state"`
	Quality    RunQuality            `json:"quality"`
}

// DivergenceReport wraps the day's fired alerts.
type DivergenceReport struct {
	Alerts []DivergenceAlert `json:"alerts"`
}
