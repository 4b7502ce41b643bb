package divergence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pxilabs/pxi/internal/domain"
)

func fp(v float64) *float64 { return &v }

func alertTypes(alerts []domain.DivergenceAlert) []string {
	out := make([]string, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, a.Type)
	}
	return out
}

func TestDetect_StealthWeaknessFires(t *testing.T) {
	d := NewDetector(DefaultConfig())

	alerts := d.Detect(Inputs{Score: 25, Volatility: fp(10)})
	require.Len(t, alerts, 1)
	a := alerts[0]
	assert.Equal(t, TypeStealthWeakness, a.Type)
	assert.Equal(t, domain.SeverityHigh, a.Severity)
	assert.True(t, a.Actionable)
	require.NotNil(t, a.Metrics)
	assert.Equal(t, 47, a.Metrics.Occurrences)
}

func TestDetect_HiddenRiskNeedsWeakScore(t *testing.T) {
	d := NewDetector(DefaultConfig())
	riskOn := &domain.RegimeClassification{Type: domain.RegimeRiskOn}

	// Score 75 with RISK_ON is healthy, not hidden risk.
	alerts := d.Detect(Inputs{Score: 75, Regime: riskOn})
	assert.NotContains(t, alertTypes(alerts), TypeHiddenRisk)

	alerts = d.Detect(Inputs{Score: 35, Regime: riskOn})
	assert.Contains(t, alertTypes(alerts), TypeHiddenRisk)
}

func TestDetect_ResilientStrength(t *testing.T) {
	d := NewDetector(DefaultConfig())

	alerts := d.Detect(Inputs{Score: 75, Volatility: fp(28)})
	require.Len(t, alerts, 1)
	assert.Equal(t, TypeResilientStrength, alerts[0].Type)
	assert.False(t, alerts[0].Actionable)
}

func TestDetect_RapidDeteriorationRequiresRiskOnRegime(t *testing.T) {
	d := NewDetector(DefaultConfig())

	in := Inputs{Score: 55, Delta7: fp(-18)}
	assert.Empty(t, d.Detect(in))

	in.Regime = &domain.RegimeClassification{Type: domain.RegimeRiskOn}
	alerts := d.Detect(in)
	require.Len(t, alerts, 1)
	assert.Equal(t, TypeRapidDeterioration, alerts[0].Type)

	in.Regime = &domain.RegimeClassification{Type: domain.RegimeRiskOff}
	assert.Empty(t, d.Detect(in))
}

func TestDetect_RulesAreIndependent(t *testing.T) {
	d := NewDetector(DefaultConfig())

	// Weak score, calm vol, sharp drop, regime still on: three alerts.
	alerts := d.Detect(Inputs{
		Score:      25,
		Volatility: fp(11),
		Delta7:     fp(-20),
		Regime:     &domain.RegimeClassification{Type: domain.RegimeRiskOn},
	})
	types := alertTypes(alerts)
	assert.ElementsMatch(t, []string{TypeStealthWeakness, TypeRapidDeterioration, TypeHiddenRisk}, types)
}

func TestDetect_MissingVolatilityDisablesVolRules(t *testing.T) {
	d := NewDetector(DefaultConfig())
	assert.Empty(t, d.Detect(Inputs{Score: 25}))
}
