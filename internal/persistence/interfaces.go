// Package persistence defines the storage contracts of the scoring
// pipeline. Everything is an idempotent upsert keyed by entity and date:
// the last writer for a key wins, and reruns for a date are safe.
package persistence

import (
	"context"
	"time"

	"github.com/pxilabs/pxi/internal/domain"
)

// WindowDays is the nominal trailing history used for normalization
// reference statistics (two trading years).
const WindowDays = 504

// RegimeWindowDays is the longer window behind the regime panel's
// percentile votes (five trading years).
const RegimeWindowDays = 1260

// ValuesRepo stores raw indicator observations.
type ValuesRepo interface {
	// Upsert writes one observation, superseding any earlier write for
	// the same (indicator_id, date).
	Upsert(ctx context.Context, value domain.IndicatorValue) error

	// UpsertBatch writes a batch atomically.
	UpsertBatch(ctx context.Context, values []domain.IndicatorValue) error

	// Latest returns the most recent observation at or before asOf, or
	// nil when the indicator has no values at all.
	Latest(ctx context.Context, indicatorID string, asOf time.Time) (*domain.IndicatorValue, error)

	// Window returns up to maxPoints trailing raw values ending at
	// end (inclusive), oldest first.
	Window(ctx context.Context, indicatorID string, end time.Time, maxPoints int) ([]float64, error)
}

// ScoresRepo stores the pipeline's computed outputs.
type ScoresRepo interface {
	UpsertNormalized(ctx context.Context, score domain.NormalizedScore) error
	UpsertCategory(ctx context.Context, score domain.CategoryScore) error
	UpsertComposite(ctx context.Context, score domain.CompositeScore) error

	// CompositeAt returns the composite record for a date, or nil when
	// none has been computed.
	CompositeAt(ctx context.Context, date time.Time) (*domain.CompositeScore, error)
}
