// Package normalize converts raw indicator values onto the common [0,100]
// score scale, using a trailing historical window as the reference
// distribution where the method needs one.
package normalize

import (
	"math"

	"github.com/pxilabs/pxi/internal/domain"
)

// NeutralScore is the fallback when no reference history exists.
const NeutralScore = 50.0

// Funding-band constants for bellcurve scaling. Values are daily funding
// rates in percent; the optimal band center scores 100 and the edges 70.
const (
	bellBandLow    = 0.005
	bellBandCenter = 0.015
	bellBandHigh   = 0.03
	bellExcessSpan = 0.1
)

// Normalize maps a raw value onto [0,100] using the indicator's
// configured method. window is the trailing raw-value history ending at
// the evaluation date (nominal 504 trading days); percentile and zscore
// methods fall back to NeutralScore when it is empty. Every method's
// output is clamped to [0,100].
func Normalize(def domain.IndicatorDefinition, value float64, window []float64) float64 {
	// A NaN or Inf value would ride through every arithmetic path and
	// past Clamp; score it neutral like any other absent observation.
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return NeutralScore
	}
	var score float64
	switch def.Method {
	case domain.MethodPercentile:
		score = percentileOrNeutral(value, window)
	case domain.MethodPercentileInverted:
		score = 100 - percentileOrNeutral(value, window)
	case domain.MethodZScore:
		score = zscore(value, window)
		if def.Inverted {
			score = 100 - score
		}
	case domain.MethodBellCurve:
		score = bellcurve(value)
	case domain.MethodDirect:
		score = value
	case domain.MethodPMI:
		score = pmiScale(value)
	default:
		score = NeutralScore
	}
	return Clamp(score, 0, 100)
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func percentileOrNeutral(value float64, window []float64) float64 {
	if len(window) == 0 {
		return NeutralScore
	}
	return PercentileRank(value, window)
}

// PercentileRank returns the rank of value among window values on a
// 0-100 scale, counting ties at half weight. Monotonically non-decreasing
// in value for a fixed window.
func PercentileRank(value float64, window []float64) float64 {
	if len(window) == 0 {
		return math.NaN()
	}
	var less, equal float64
	n := 0
	for _, v := range window {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		n++
		switch {
		case v < value:
			less++
		case v == value:
			equal++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return (less + 0.5*equal) / float64(n) * 100
}

// zscore standardizes against the window, clamps to ±3 sigma, and
// rescales linearly so z=0 lands on 50 and z=±3 on 0/100. Degenerate
// windows (empty, or zero variance) score neutral.
func zscore(value float64, window []float64) float64 {
	mean, stddev, n := meanStddev(window)
	if n < 2 || stddev == 0 {
		return NeutralScore
	}
	z := Clamp((value-mean)/stddev, -3, 3)
	return 50 + z/3*50
}

func meanStddev(window []float64) (mean, stddev float64, n int) {
	var sum float64
	for _, v := range window {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0, 0, 0
	}
	mean = sum / float64(n)
	var sq float64
	for _, v := range window {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		d := v - mean
		sq += d * d
	}
	if n > 1 {
		stddev = math.Sqrt(sq / float64(n-1))
	}
	return mean, stddev, n
}

// bellcurve scores funding-rate-like magnitudes where the healthy zone is
// a band, not a direction. Inside [0.005,0.03] the score runs 100 at the
// center down to 70 at either edge; below the band it climbs from 50
// toward 70; above it decays from 70 to 0 over a 0.1 excess.
func bellcurve(value float64) float64 {
	mag := math.Abs(value)
	switch {
	case mag < bellBandLow:
		if bellBandLow == 0 {
			return 70
		}
		return 50 + 20*(mag/bellBandLow)
	case mag <= bellBandHigh:
		var span float64
		if mag <= bellBandCenter {
			span = bellBandCenter - bellBandLow
		} else {
			span = bellBandHigh - bellBandCenter
		}
		return 100 - 30*(math.Abs(mag-bellBandCenter)/span)
	default:
		excess := mag - bellBandHigh
		if excess >= bellExcessSpan {
			return 0
		}
		return 70 * (1 - excess/bellExcessSpan)
	}
}

// pmiScale remaps diffusion-survey readings from the [30,70] band onto
// [0,100]: 30 is deeply contractionary, 50 neutral, 70 expansionary.
func pmiScale(value float64) float64 {
	return (value - 30) / 40 * 100
}
