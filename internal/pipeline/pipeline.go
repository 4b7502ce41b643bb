// Package pipeline orchestrates one scoring run: staleness gating,
// parallel normalization, category and composite aggregation, regime
// voting, signal derivation, and divergence detection, ending in an
// upserted, cached snapshot.
package pipeline

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pxilabs/pxi/internal/composite"
	"github.com/pxilabs/pxi/internal/config"
	"github.com/pxilabs/pxi/internal/divergence"
	"github.com/pxilabs/pxi/internal/domain"
	"github.com/pxilabs/pxi/internal/metrics"
	"github.com/pxilabs/pxi/internal/normalize"
	"github.com/pxilabs/pxi/internal/persistence"
	"github.com/pxilabs/pxi/internal/regime"
	"github.com/pxilabs/pxi/internal/signal"
	"github.com/pxilabs/pxi/internal/sla"
)

// normalizeWorkers bounds the per-indicator fan-out.
const normalizeWorkers = 8

// SnapshotStore receives the finished output record; the Redis cache
// implements it. Nil disables caching.
type SnapshotStore interface {
	Store(ctx context.Context, snap domain.Snapshot) error
}

// Pipeline wires the scoring components over the persistence layer.
type Pipeline struct {
	defs       map[string]domain.IndicatorDefinition
	weights    composite.Weights
	resolver   *sla.Resolver
	classifier *regime.Classifier
	regimeCfg  regime.Config
	signals    *signal.Engine
	detector   *divergence.Detector

	values persistence.ValuesRepo
	scores persistence.ScoresRepo

	snapshots SnapshotStore
	metrics   *metrics.Pipeline

	// runMu serializes runs: concurrent recomputation of the same date
	// is not safe, and a single in-flight run is all the cron ever needs.
	runMu sync.Mutex
}

// New assembles a pipeline from configuration and storage. snapshots and
// m may be nil.
func New(cfg *config.Config, values persistence.ValuesRepo, scores persistence.ScoresRepo, snapshots SnapshotStore, m *metrics.Pipeline) *Pipeline {
	return &Pipeline{
		defs:       cfg.Definitions(),
		weights:    cfg.CategoryWeights(),
		resolver:   sla.NewResolver(cfg.SLA),
		classifier: regime.NewClassifier(cfg.Regime),
		regimeCfg:  cfg.Regime,
		signals:    signal.NewEngine(cfg.Signal),
		detector:   divergence.NewDetector(cfg.Divergence),
		values:     values,
		scores:     scores,
		snapshots:  snapshots,
		metrics:    m,
	}
}

// indicatorResult is one indicator's gated, normalized outcome.
type indicatorResult struct {
	score    *domain.NormalizedScore // nil when excluded
	quality  domain.IndicatorQuality
	excluded bool
}

// Run computes the snapshot for one date. Reruns with unchanged raw
// values reproduce identical output: staleness is evaluated against the
// end of the target day, not the wall clock.
func (p *Pipeline) Run(ctx context.Context, date time.Time) (*domain.Snapshot, error) {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	started := time.Now()
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	asOf := date.Add(24 * time.Hour)
	runID := uuid.NewString()

	logger := log.With().Str("run_id", runID).Str("date", domain.DateKey(date)).Logger()
	logger.Info().Int("indicators", len(p.defs)).Msg("pipeline run started")

	results := p.normalizeAll(ctx, date, asOf)

	var scores []domain.NormalizedScore
	quality := domain.RunQuality{IndicatorsTotal: len(p.defs)}
	for _, r := range results {
		if r.excluded {
			quality.Excluded = append(quality.Excluded, r.quality)
			continue
		}
		scores = append(scores, *r.score)
	}
	quality.IndicatorsIncluded = len(scores)
	sort.Slice(quality.Excluded, func(i, j int) bool {
		return quality.Excluded[i].IndicatorID < quality.Excluded[j].IndicatorID
	})

	for _, s := range scores {
		if err := p.scores.UpsertNormalized(ctx, s); err != nil {
			return nil, p.fail(fmt.Errorf("persist normalized scores: %w", err))
		}
	}

	categories := composite.AggregateCategories(date, scores, p.defs, p.weights)
	for _, c := range categories {
		if err := p.scores.UpsertCategory(ctx, c); err != nil {
			return nil, p.fail(fmt.Errorf("persist category scores: %w", err))
		}
	}

	history := func(d time.Time) (float64, bool) {
		cs, err := p.scores.CompositeAt(ctx, d)
		if err != nil {
			logger.Warn().Err(err).Str("lookup", domain.DateKey(d)).Msg("delta lookup failed")
			return 0, false
		}
		if cs == nil {
			return 0, false
		}
		return cs.Score, true
	}
	compositeScore := composite.Compose(date, categories, history)
	if err := p.scores.UpsertComposite(ctx, compositeScore); err != nil {
		return nil, p.fail(fmt.Errorf("persist composite score: %w", err))
	}

	observations, volValue, volPctile := p.panelObservations(ctx, date, asOf)
	regimeResult := p.classifier.Classify(observations)

	signalState := p.signals.Evaluate(signal.Inputs{
		Score:                compositeScore.Score,
		Regime:               regimeResult,
		Delta7:               compositeScore.Delta.D7,
		VolatilityPercentile: volPctile,
		Categories:           categories,
	})

	alerts := p.detector.Detect(divergence.Inputs{
		Score:      compositeScore.Score,
		Regime:     regimeResult,
		Delta7:     compositeScore.Delta.D7,
		Volatility: volValue,
	})

	stance, conflict := signal.Coherence(regimeResult, signalState)

	snap := domain.Snapshot{
		Date:       domain.DateKey(date),
		Score:      compositeScore.Score,
		Label:      compositeScore.Label,
		Status:     compositeScore.Status,
		Delta:      compositeScore.Delta,
		Categories: categories,
		Regime:     regimeResult,
		Signal:     signalState,
		Divergence: domain.DivergenceReport{Alerts: alerts},
		Stance:     stance,
		Conflict:   conflict,
		Quality:    quality,
	}

	if p.snapshots != nil {
		if err := p.snapshots.Store(ctx, snap); err != nil {
			// The store of record already holds the run; a cache miss
			// is degraded service, not a failed run.
			logger.Warn().Err(err).Msg("snapshot cache store failed")
		}
	}

	p.report(snap, started)
	logger.Info().
		Float64("score", snap.Score).
		Str("status", string(snap.Status)).
		Float64("allocation", signalState.RiskAllocation).
		Int("alerts", len(alerts)).
		Int("excluded", len(quality.Excluded)).
		Msg("pipeline run finished")
	return &snap, nil
}

// normalizeAll fans indicator normalization out across workers. Each
// indicator is independent; aggregation waits on the full join.
func (p *Pipeline) normalizeAll(ctx context.Context, date, asOf time.Time) []indicatorResult {
	ids := make([]string, 0, len(p.defs))
	for id := range p.defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	results := make([]indicatorResult, len(ids))
	sem := make(chan struct{}, normalizeWorkers)
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, def domain.IndicatorDefinition) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = p.normalizeOne(ctx, def, date, asOf)
		}(i, p.defs[id])
	}
	wg.Wait()
	return results
}

func (p *Pipeline) normalizeOne(ctx context.Context, def domain.IndicatorDefinition, date, asOf time.Time) indicatorResult {
	policy := p.resolver.Resolve(def.ID, def.Frequency)

	latest, err := p.values.Latest(ctx, def.ID, asOf)
	if err != nil {
		log.Warn().Err(err).Str("indicator", def.ID).Msg("latest value lookup failed; treating as missing")
		latest = nil
	}
	if latest != nil && !finite(latest.Value) {
		log.Warn().Str("indicator", def.ID).Msg("non-finite raw value; treating as missing")
		latest = nil
	}

	var latestDate *time.Time
	if latest != nil {
		latestDate = &latest.Date
	}
	eval := sla.Evaluate(latestDate, asOf, policy)
	if !eval.Included() {
		if eval.Chronic {
			log.Warn().Str("indicator", def.ID).
				Float64("max_age_days", policy.MaxAgeDays).
				Msg("indicator chronically stale")
		}
		return indicatorResult{excluded: true, quality: domain.IndicatorQuality{
			IndicatorID: def.ID,
			DaysOld:     eval.DaysOld,
			Missing:     eval.Missing,
			Stale:       eval.Stale,
			Chronic:     eval.Chronic,
			Critical:    policy.Critical,
		}}
	}

	window, err := p.values.Window(ctx, def.ID, date, persistence.WindowDays)
	if err != nil {
		log.Warn().Err(err).Str("indicator", def.ID).Msg("window fetch failed; normalizing without history")
		window = nil
	}

	// Forward-fill: the latest value within tolerance stands in for the
	// target date even when it was observed earlier.
	score := normalize.Normalize(def, latest.Value, window)
	return indicatorResult{score: &domain.NormalizedScore{
		IndicatorID: def.ID,
		Date:        date,
		RawValue:    latest.Value,
		Normalized:  score,
	}}
}

// panelObservations gathers the regime voters' inputs over the 5-year
// window, plus the volatility seat's raw value and percentile for the
// signal policy and divergence detector.
func (p *Pipeline) panelObservations(ctx context.Context, date, asOf time.Time) (map[string]regime.Observation, *float64, *float64) {
	observations := make(map[string]regime.Observation, len(p.regimeCfg.Indicators))
	var volValue, volPctile *float64

	for seat, indicatorID := range p.regimeCfg.Indicators {
		def, ok := p.defs[indicatorID]
		if !ok {
			continue
		}
		policy := p.resolver.Resolve(indicatorID, def.Frequency)

		latest, err := p.values.Latest(ctx, indicatorID, asOf)
		if err != nil || latest == nil || !finite(latest.Value) {
			continue
		}
		eval := sla.Evaluate(&latest.Date, asOf, policy)
		if !eval.Included() {
			// Absent voter: the seat simply casts no vote.
			continue
		}

		window, err := p.values.Window(ctx, indicatorID, date, persistence.RegimeWindowDays)
		if err != nil {
			window = nil
		}
		observations[seat] = regime.Observation{Value: latest.Value, Window: window}

		if seat == regime.VoterVolatility {
			v := latest.Value
			volValue = &v
			if len(window) > 0 {
				pct := normalize.PercentileRank(latest.Value, window)
				volPctile = &pct
			}
		}
	}
	return observations, volValue, volPctile
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (p *Pipeline) fail(err error) error {
	if p.metrics != nil {
		p.metrics.RunsTotal.WithLabelValues("error").Inc()
	}
	return err
}

func (p *Pipeline) report(snap domain.Snapshot, started time.Time) {
	if p.metrics == nil {
		return
	}
	p.metrics.RunsTotal.WithLabelValues("ok").Inc()
	p.metrics.RunDuration.Observe(time.Since(started).Seconds())
	p.metrics.CompositeScore.Set(snap.Score)
	p.metrics.RiskAllocation.Set(snap.Signal.RiskAllocation)
	p.metrics.IndicatorsExcluded.Set(float64(len(snap.Quality.Excluded)))
	chronic := 0
	for _, q := range snap.Quality.Excluded {
		if q.Chronic {
			chronic++
		}
	}
	p.metrics.IndicatorsChronic.Set(float64(chronic))
}
