package pipeline

import (
	"context"
	"math"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pxilabs/pxi/internal/config"
	"github.com/pxilabs/pxi/internal/divergence"
	"github.com/pxilabs/pxi/internal/domain"
	"github.com/pxilabs/pxi/internal/persistence"
	"github.com/pxilabs/pxi/internal/regime"
	"github.com/pxilabs/pxi/internal/signal"
	"github.com/pxilabs/pxi/internal/sla"
)

// memStore is an in-memory stand-in for both repositories.
type memStore struct {
	mu         sync.Mutex
	values     map[string][]domain.IndicatorValue // ascending by date
	normalized map[string]domain.NormalizedScore
	categories map[string]domain.CategoryScore
	composites map[string]domain.CompositeScore
}

func newMemStore() *memStore {
	return &memStore{
		values:     make(map[string][]domain.IndicatorValue),
		normalized: make(map[string]domain.NormalizedScore),
		categories: make(map[string]domain.CategoryScore),
		composites: make(map[string]domain.CompositeScore),
	}
}

func (m *memStore) Upsert(ctx context.Context, v domain.IndicatorValue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	series := m.values[v.IndicatorID]
	for i, existing := range series {
		if existing.Date.Equal(v.Date) {
			series[i] = v
			return nil
		}
	}
	series = append(series, v)
	sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })
	m.values[v.IndicatorID] = series
	return nil
}

func (m *memStore) UpsertBatch(ctx context.Context, vs []domain.IndicatorValue) error {
	for _, v := range vs {
		if err := m.Upsert(ctx, v); err != nil {
			return err
		}
	}
	return nil
}

func (m *memStore) Latest(ctx context.Context, id string, asOf time.Time) (*domain.IndicatorValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	series := m.values[id]
	for i := len(series) - 1; i >= 0; i-- {
		if !series[i].Date.After(asOf) {
			v := series[i]
			return &v, nil
		}
	}
	return nil, nil
}

func (m *memStore) Window(ctx context.Context, id string, end time.Time, maxPoints int) ([]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []float64
	for _, v := range m.values[id] {
		if !v.Date.After(end) {
			out = append(out, v.Value)
		}
	}
	if len(out) > maxPoints {
		out = out[len(out)-maxPoints:]
	}
	return out, nil
}

func (m *memStore) UpsertNormalized(ctx context.Context, s domain.NormalizedScore) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.normalized[s.IndicatorID+"|"+domain.DateKey(s.Date)] = s
	return nil
}

func (m *memStore) UpsertCategory(ctx context.Context, s domain.CategoryScore) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[string(s.Category)+"|"+domain.DateKey(s.Date)] = s
	return nil
}

func (m *memStore) UpsertComposite(ctx context.Context, s domain.CompositeScore) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.composites[domain.DateKey(s.Date)] = s
	return nil
}

func (m *memStore) CompositeAt(ctx context.Context, date time.Time) (*domain.CompositeScore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.composites[domain.DateKey(date)]; ok {
		return &s, nil
	}
	return nil, nil
}

var (
	_ persistence.ValuesRepo = (*memStore)(nil)
	_ persistence.ScoresRepo = (*memStore)(nil)
)

// capturingSnapshots records what the pipeline hands the cache.
type capturingSnapshots struct {
	mu    sync.Mutex
	snaps []domain.Snapshot
}

func (c *capturingSnapshots) Store(ctx context.Context, snap domain.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snaps = append(c.snaps, snap)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Indicators: []config.IndicatorConfig{
			{ID: "vix", Category: "volatility", Source: "cboe", Method: "percentile_inverted", Frequency: "daily"},
			{ID: "hy_oas", Category: "credit", Source: "fred", Method: "percentile_inverted", Frequency: "daily"},
			{ID: "spx_breadth", Category: "breadth", Source: "yahoo", Method: "direct", Frequency: "daily"},
			{ID: "cot_positioning", Category: "positioning", Source: "cftc", Method: "percentile", Frequency: "weekly"},
			{ID: "ism_pmi", Category: "macro", Source: "ism", Method: "pmi", Frequency: "monthly"},
			{ID: "dollar_index", Category: "global", Source: "yahoo", Method: "percentile_inverted", Frequency: "daily"},
			{ID: "btc_funding", Category: "crypto", Source: "coinglass", Method: "bellcurve", Frequency: "daily"},
		},
		Weights: map[string]float64{
			"positioning": 0.15, "credit": 0.20, "volatility": 0.20,
			"breadth": 0.15, "macro": 0.10, "global": 0.10, "crypto": 0.10,
		},
		SLA: sla.Tables{
			Frequencies: map[string]domain.Frequency{
				"cot_positioning": domain.FreqWeekly,
				"ism_pmi":         domain.FreqMonthly,
			},
		},
		Regime: regime.Config{
			Indicators: map[string]string{
				regime.VoterVolatility: "vix",
				regime.VoterCredit:     "hy_oas",
				regime.VoterBreadth:    "spx_breadth",
				regime.VoterDollar:     "dollar_index",
			},
			VolatilityOnBelow: 30, VolatilityOffAbove: 70,
			CreditOnBelow: 30, CreditOffAbove: 70,
			BreadthOnAbove: 60, BreadthOffBelow: 40,
			YieldCurveOnAbove: 60, YieldCurveOffBelow: 20,
			DollarOnBelow: 40, DollarOffAbove: 70,
		},
		Signal:     signal.DefaultConfig(),
		Divergence: divergence.DefaultConfig(),
	}
}

var runDate = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

// seedSeries writes a daily history ending the day before runDate, then
// a fresh value on runDate itself.
func seedSeries(t *testing.T, store *memStore, id, source string, history []float64, today float64) {
	t.Helper()
	ctx := context.Background()
	for i, v := range history {
		date := runDate.AddDate(0, 0, -(len(history) - i))
		require.NoError(t, store.Upsert(ctx, domain.IndicatorValue{
			IndicatorID: id, Date: date, Value: v, Source: source,
		}))
	}
	require.NoError(t, store.Upsert(ctx, domain.IndicatorValue{
		IndicatorID: id, Date: runDate, Value: today, Source: source,
	}))
}

func ramp(from, to float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + (to-from)*float64(i)/float64(n-1)
	}
	return out
}

func seedStore(t *testing.T) *memStore {
	store := newMemStore()
	// Calm vol, tight credit, strong breadth, weak dollar: risk-on tape.
	seedSeries(t, store, "vix", "cboe", ramp(12, 40, 200), 13)
	seedSeries(t, store, "hy_oas", "fred", ramp(3, 8, 200), 3.2)
	seedSeries(t, store, "spx_breadth", "yahoo", ramp(35, 75, 200), 68)
	seedSeries(t, store, "dollar_index", "yahoo", ramp(95, 115, 200), 96)
	seedSeries(t, store, "cot_positioning", "cftc", ramp(-50000, 80000, 200), 60000)
	seedSeries(t, store, "btc_funding", "coinglass", ramp(0.001, 0.02, 200), 0.015)
	// ism_pmi last reported far beyond even the monthly budget.
	require.NoError(t, store.Upsert(context.Background(), domain.IndicatorValue{
		IndicatorID: "ism_pmi", Date: runDate.AddDate(0, 0, -200), Value: 52, Source: "ism",
	}))
	return store
}

func TestRun_EndToEnd(t *testing.T) {
	store := seedStore(t)
	snaps := &capturingSnapshots{}
	p := New(testConfig(), store, store, snaps, nil)

	snap, err := p.Run(context.Background(), runDate)
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.Equal(t, "2026-03-10", snap.Date)
	assert.GreaterOrEqual(t, snap.Score, 0.0)
	assert.LessOrEqual(t, snap.Score, 100.0)
	assert.Len(t, snap.Categories, 7)

	// The stale PMI drops out and leaves macro at neutral.
	require.Len(t, snap.Quality.Excluded, 1)
	assert.Equal(t, "ism_pmi", snap.Quality.Excluded[0].IndicatorID)
	assert.True(t, snap.Quality.Excluded[0].Chronic)
	for _, c := range snap.Categories {
		if c.Category == domain.CategoryMacro {
			assert.Equal(t, 50.0, c.Score)
			assert.Equal(t, 0, c.Indicators)
		}
	}

	// Calm-and-strong tape classifies risk-on with four voters seated.
	require.NotNil(t, snap.Regime)
	assert.Equal(t, domain.RegimeRiskOn, snap.Regime.Type)
	assert.Len(t, snap.Regime.Votes, 4)

	assert.NotNil(t, snap.Signal.VolatilityPercentile)
	assert.Greater(t, snap.Signal.RiskAllocation, 0.0)
	assert.Equal(t, domain.ConflictNone, snap.Conflict)
	assert.Equal(t, domain.StanceRiskOn, snap.Stance)

	// The snapshot reached the cache and the store of record.
	require.Len(t, snaps.snaps, 1)
	persisted, err := store.CompositeAt(context.Background(), runDate)
	require.NoError(t, err)
	require.NotNil(t, persisted)
	assert.Equal(t, snap.Score, persisted.Score)
}

func TestRun_IdempotentForSameInputs(t *testing.T) {
	store := seedStore(t)
	p := New(testConfig(), store, store, nil, nil)

	first, err := p.Run(context.Background(), runDate)
	require.NoError(t, err)
	second, err := p.Run(context.Background(), runDate)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRun_DeltasUsePersistedHistory(t *testing.T) {
	store := seedStore(t)
	require.NoError(t, store.UpsertComposite(context.Background(), domain.CompositeScore{
		Date: runDate.AddDate(0, 0, -7), Score: 40, Label: "Softening", Status: domain.StatusSoft,
	}))
	p := New(testConfig(), store, store, nil, nil)

	snap, err := p.Run(context.Background(), runDate)
	require.NoError(t, err)

	require.NotNil(t, snap.Delta.D7)
	assert.InDelta(t, snap.Score-40, *snap.Delta.D7, 1e-9)
	assert.Nil(t, snap.Delta.D1)
	assert.Nil(t, snap.Delta.D30)
}

func TestRun_NonFiniteValueTreatedAsMissing(t *testing.T) {
	store := seedStore(t)
	require.NoError(t, store.Upsert(context.Background(), domain.IndicatorValue{
		IndicatorID: "vix", Date: runDate, Value: math.NaN(), Source: "cboe",
	}))
	p := New(testConfig(), store, store, nil, nil)

	snap, err := p.Run(context.Background(), runDate)
	require.NoError(t, err)

	// The poisoned reading drops out instead of flowing into the scores.
	assert.False(t, math.IsNaN(snap.Score))
	excluded := make([]string, 0, len(snap.Quality.Excluded))
	for _, q := range snap.Quality.Excluded {
		excluded = append(excluded, q.IndicatorID)
	}
	assert.Contains(t, excluded, "vix")
	for _, c := range snap.Categories {
		assert.False(t, math.IsNaN(c.Score), "category %s", c.Category)
		if c.Category == domain.CategoryVolatility {
			assert.Equal(t, 50.0, c.Score)
		}
	}

	// The volatility seat casts no vote and feeds no percentile downstream.
	require.NotNil(t, snap.Regime)
	assert.Len(t, snap.Regime.Votes, 3)
	assert.Nil(t, snap.Signal.VolatilityPercentile)
}

func TestRun_EmptyStoreStaysDefined(t *testing.T) {
	store := newMemStore()
	p := New(testConfig(), store, store, nil, nil)

	snap, err := p.Run(context.Background(), runDate)
	require.NoError(t, err)

	// Everything missing: all categories neutral, composite neutral,
	// no regime, but never an error.
	assert.Equal(t, 50.0, snap.Score)
	assert.Nil(t, snap.Regime)
	assert.Equal(t, len(testConfig().Indicators), len(snap.Quality.Excluded))
	assert.Equal(t, 0, snap.Quality.IndicatorsIncluded)
	for _, c := range snap.Categories {
		assert.Equal(t, 50.0, c.Score)
	}
	// Base allocation from a neutral score, no volatility reading.
	assert.InDelta(t, 0.65, snap.Signal.RiskAllocation, 1e-9)
}
