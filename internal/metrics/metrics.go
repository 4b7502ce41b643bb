// Package metrics exposes pipeline health to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Pipeline holds the collectors one pipeline instance reports through.
type Pipeline struct {
	RunDuration        prometheus.Histogram
	RunsTotal          *prometheus.CounterVec
	IndicatorsExcluded prometheus.Gauge
	IndicatorsChronic  prometheus.Gauge
	CompositeScore     prometheus.Gauge
	RiskAllocation     prometheus.Gauge
}

// NewPipeline builds and registers the pipeline collectors.
func NewPipeline(reg prometheus.Registerer) *Pipeline {
	m := &Pipeline{
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pxi",
			Name:      "pipeline_run_duration_seconds",
			Help:      "Wall time of one scoring pipeline run.",
			Buckets:   prometheus.DefBuckets,
		}),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pxi",
			Name:      "pipeline_runs_total",
			Help:      "Completed pipeline runs by outcome.",
		}, []string{"outcome"}),
		IndicatorsExcluded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pxi",
			Name:      "indicators_excluded",
			Help:      "Indicators excluded by staleness gating in the last run.",
		}),
		IndicatorsChronic: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pxi",
			Name:      "indicators_chronically_stale",
			Help:      "Indicators past the chronic staleness threshold in the last run.",
		}),
		CompositeScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pxi",
			Name:      "composite_score",
			Help:      "Most recent composite index score.",
		}),
		RiskAllocation: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pxi",
			Name:      "risk_allocation",
			Help:      "Most recent recommended risk allocation.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.RunDuration, m.RunsTotal,
			m.IndicatorsExcluded, m.IndicatorsChronic,
			m.CompositeScore, m.RiskAllocation,
		)
	}
	return m
}
