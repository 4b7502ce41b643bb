package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pxilabs/pxi/internal/domain"
)

func TestResolve_SourceLaggedWinsOutright(t *testing.T) {
	r := NewResolver(Defaults())

	p := r.Resolve("commodity_index", domain.FreqDaily)
	assert.Equal(t, ClassSourceLagged, p.Class)
	assert.Equal(t, 7.0, p.MaxAgeDays)
}

func TestResolve_FrequencyDefaults(t *testing.T) {
	r := NewResolver(Defaults())

	tests := []struct {
		id     string
		hint   domain.Frequency
		class  Class
		maxAge float64
	}{
		{"vix", domain.FreqDaily, ClassDaily, 4},
		{"initial_claims", "", ClassWeekly, 10},
		{"ism_pmi", "", ClassMonthly, 45},
		{"totally_unknown", "", ClassDaily, 4},
	}
	for _, tt := range tests {
		p := r.Resolve(tt.id, tt.hint)
		assert.Equal(t, tt.class, p.Class, tt.id)
		assert.Equal(t, tt.maxAge, p.MaxAgeDays, tt.id)
	}
}

func TestResolve_MaxAgeOverrideForLaggedComposites(t *testing.T) {
	r := NewResolver(Defaults())

	p := r.Resolve("lei_composite", "")
	assert.Equal(t, ClassMonthly, p.Class)
	assert.Equal(t, 120.0, p.MaxAgeDays)
}

func TestResolve_CriticalFlag(t *testing.T) {
	r := NewResolver(Defaults())

	assert.True(t, r.Resolve("vix", domain.FreqDaily).Critical)
	assert.False(t, r.Resolve("commodity_index", domain.FreqDaily).Critical)
}

func TestEvaluate_StalenessBoundaries(t *testing.T) {
	policy := Policy{IndicatorID: "vix", Class: ClassDaily, MaxAgeDays: 4}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	fresh := now.Add(-time.Duration(3.9 * 24 * float64(time.Hour)))
	ev := Evaluate(&fresh, now, policy)
	require.NotNil(t, ev.DaysOld)
	assert.InDelta(t, 3.9, *ev.DaysOld, 1e-9)
	assert.False(t, ev.Stale)
	assert.False(t, ev.Chronic)

	stale := now.Add(-time.Duration(4.1 * 24 * float64(time.Hour)))
	ev = Evaluate(&stale, now, policy)
	assert.True(t, ev.Stale)
	assert.False(t, ev.Chronic)

	chronic := now.Add(-8 * 24 * time.Hour)
	ev = Evaluate(&chronic, now, policy)
	assert.True(t, ev.Stale)
	assert.True(t, ev.Chronic)
}

func TestEvaluate_MissingValue(t *testing.T) {
	policy := Policy{IndicatorID: "vix", Class: ClassDaily, MaxAgeDays: 4}
	ev := Evaluate(nil, time.Now().UTC(), policy)

	assert.True(t, ev.Missing)
	assert.True(t, ev.Stale)
	assert.Nil(t, ev.DaysOld)
	assert.False(t, ev.Included())
}

func TestEvaluateRaw_UnparsableDateTreatedAsMissing(t *testing.T) {
	policy := Policy{IndicatorID: "vix", Class: ClassDaily, MaxAgeDays: 4}

	ev := EvaluateRaw("not-a-date", time.Now().UTC(), policy)
	assert.True(t, ev.Missing)

	ev = EvaluateRaw("", time.Now().UTC(), policy)
	assert.True(t, ev.Missing)

	ev = EvaluateRaw("2026-03-09", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), policy)
	assert.False(t, ev.Missing)
	assert.False(t, ev.Stale)
}

func TestChronicThreshold_ShortAndLongBudgets(t *testing.T) {
	// max(max_age+1, max_age*2): doubling wins for any budget over a day.
	assert.Equal(t, 8.0, Policy{MaxAgeDays: 4}.ChronicThresholdDays())
	assert.Equal(t, 20.0, Policy{MaxAgeDays: 10}.ChronicThresholdDays())
	assert.Equal(t, 2.0, Policy{MaxAgeDays: 1}.ChronicThresholdDays())
}

func TestResolveRetry_OverrideBeatsClassDefault(t *testing.T) {
	p := ResolveRetry("vix", ClassDaily)
	assert.Equal(t, 5, p.Attempts)
	assert.Equal(t, "page", p.EscalationTier)

	p = ResolveRetry("hy_oas", ClassDaily)
	assert.Equal(t, 3, p.Attempts)

	p = ResolveRetry("ism_pmi", ClassMonthly)
	assert.Equal(t, "macro-research", p.OwningTeam)
}
