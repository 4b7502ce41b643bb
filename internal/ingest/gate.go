// Package ingest is the boundary where upstream fetcher output enters
// the store. Per-source circuit-breaker and rate-limit state is owned
// explicitly by the gate rather than hiding in package globals, so two
// gates never share state by accident.
package ingest

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/pxilabs/pxi/internal/domain"
	"github.com/pxilabs/pxi/internal/persistence"
)

// GateConfig tunes the per-source protections.
type GateConfig struct {
	// RatePerSecond caps upserts per source; bursts of BurstSize pass.
	RatePerSecond float64 `yaml:"rate_per_second"`
	BurstSize     int     `yaml:"burst_size"`
	// BreakerFailures trips a source's breaker after this many
	// consecutive write failures.
	BreakerFailures uint32        `yaml:"breaker_failures"`
	BreakerCooldown time.Duration `yaml:"breaker_cooldown"`
}

// DefaultGateConfig returns the production gate settings.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		RatePerSecond:   50,
		BurstSize:       100,
		BreakerFailures: 5,
		BreakerCooldown: 2 * time.Minute,
	}
}

// Gate admits (indicator, date, value, source) tuples into the values
// store idempotently.
type Gate struct {
	config GateConfig
	values persistence.ValuesRepo

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
	limiters map[string]*rate.Limiter
}

// NewGate builds an ingest gate over the values repository.
func NewGate(values persistence.ValuesRepo, config GateConfig) *Gate {
	if config.RatePerSecond == 0 {
		config = DefaultGateConfig()
	}
	return &Gate{
		config:   config,
		values:   values,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
		limiters: make(map[string]*rate.Limiter),
	}
}

// Ingest upserts one observation through the source's breaker and rate
// limiter. A tripped breaker surfaces as an error the caller schedules
// around; the core pipeline itself never retries.
func (g *Gate) Ingest(ctx context.Context, value domain.IndicatorValue) error {
	if value.IndicatorID == "" {
		return fmt.Errorf("ingest: empty indicator id")
	}
	if math.IsNaN(value.Value) || math.IsInf(value.Value, 0) {
		return fmt.Errorf("ingest %s from %s: non-finite value", value.IndicatorID, value.Source)
	}

	if err := g.limiter(value.Source).Wait(ctx); err != nil {
		return fmt.Errorf("ingest rate wait for %s: %w", value.Source, err)
	}

	_, err := g.breaker(value.Source).Execute(func() (interface{}, error) {
		return nil, g.values.Upsert(ctx, value)
	})
	if err != nil {
		return fmt.Errorf("ingest %s from %s: %w", value.IndicatorID, value.Source, err)
	}
	return nil
}

// IngestBatch admits a batch, stopping at the first gate rejection.
func (g *Gate) IngestBatch(ctx context.Context, values []domain.IndicatorValue) error {
	for _, v := range values {
		if err := g.Ingest(ctx, v); err != nil {
			return err
		}
	}
	return nil
}

func (g *Gate) breaker(source string) *gobreaker.CircuitBreaker {
	g.mu.Lock()
	defer g.mu.Unlock()
	if cb, ok := g.breakers[source]; ok {
		return cb
	}
	cfg := g.config
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "ingest:" + source,
		Timeout: cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).
				Str("from", from.String()).Str("to", to.String()).
				Msg("ingest breaker state change")
		},
	})
	g.breakers[source] = cb
	return cb
}

func (g *Gate) limiter(source string) *rate.Limiter {
	g.mu.Lock()
	defer g.mu.Unlock()
	if l, ok := g.limiters[source]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Limit(g.config.RatePerSecond), g.config.BurstSize)
	g.limiters[source] = l
	return l
}
