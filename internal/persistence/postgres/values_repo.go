package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pxilabs/pxi/internal/domain"
	"github.com/pxilabs/pxi/internal/persistence"
)

// valuesRepo implements persistence.ValuesRepo for PostgreSQL.
type valuesRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewValuesRepo creates a PostgreSQL-backed values repository.
func NewValuesRepo(db *sqlx.DB, timeout time.Duration) persistence.ValuesRepo {
	return &valuesRepo{db: db, timeout: timeout}
}

const upsertValueQuery = `
	INSERT INTO indicator_values (indicator_id, date, value, source, updated_at)
	VALUES ($1, $2, $3, $4, NOW())
	ON CONFLICT (indicator_id, date) DO UPDATE SET
		value = EXCLUDED.value,
		source = EXCLUDED.source,
		updated_at = NOW()`

// Upsert writes one observation; last writer for (indicator_id, date) wins.
func (r *valuesRepo) Upsert(ctx context.Context, value domain.IndicatorValue) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, upsertValueQuery,
		value.IndicatorID, value.Date, value.Value, value.Source); err != nil {
		return fmt.Errorf("upsert value %s@%s: %w", value.IndicatorID, domain.DateKey(value.Date), err)
	}
	return nil
}

// UpsertBatch writes a batch in one transaction.
func (r *valuesRepo) UpsertBatch(ctx context.Context, values []domain.IndicatorValue) error {
	if len(values) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch upsert: %w", err)
	}
	defer tx.Rollback()

	for _, v := range values {
		if _, err := tx.ExecContext(ctx, upsertValueQuery, v.IndicatorID, v.Date, v.Value, v.Source); err != nil {
			return fmt.Errorf("batch upsert %s@%s: %w", v.IndicatorID, domain.DateKey(v.Date), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch upsert: %w", err)
	}
	return nil
}

// Latest returns the freshest observation at or before asOf.
func (r *valuesRepo) Latest(ctx context.Context, indicatorID string, asOf time.Time) (*domain.IndicatorValue, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var v domain.IndicatorValue
	err := r.db.GetContext(ctx, &v, `
		SELECT indicator_id, date, value, source
		FROM indicator_values
		WHERE indicator_id = $1 AND date <= $2
		ORDER BY date DESC
		LIMIT 1`, indicatorID, asOf)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest value for %s: %w", indicatorID, err)
	}
	return &v, nil
}

// Window returns up to maxPoints trailing values ending at end, oldest
// first, for normalization reference statistics.
func (r *valuesRepo) Window(ctx context.Context, indicatorID string, end time.Time, maxPoints int) ([]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var desc []float64
	err := r.db.SelectContext(ctx, &desc, `
		SELECT value
		FROM indicator_values
		WHERE indicator_id = $1 AND date <= $2
		ORDER BY date DESC
		LIMIT $3`, indicatorID, end, maxPoints)
	if err != nil {
		return nil, fmt.Errorf("window for %s: %w", indicatorID, err)
	}

	asc := make([]float64, len(desc))
	for i, v := range desc {
		asc[len(desc)-1-i] = v
	}
	return asc, nil
}
