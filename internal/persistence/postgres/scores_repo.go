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

// scoresRepo implements persistence.ScoresRepo for PostgreSQL.
type scoresRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewScoresRepo creates a PostgreSQL-backed scores repository.
func NewScoresRepo(db *sqlx.DB, timeout time.Duration) persistence.ScoresRepo {
	return &scoresRepo{db: db, timeout: timeout}
}

func (r *scoresRepo) UpsertNormalized(ctx context.Context, score domain.NormalizedScore) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if score.Normalized < 0 || score.Normalized > 100 {
		return fmt.Errorf("normalized score out of range: %f", score.Normalized)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO normalized_scores (indicator_id, date, raw_value, normalized, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (indicator_id, date) DO UPDATE SET
			raw_value = EXCLUDED.raw_value,
			normalized = EXCLUDED.normalized,
			updated_at = NOW()`,
		score.IndicatorID, score.Date, score.RawValue, score.Normalized)
	if err != nil {
		return fmt.Errorf("upsert normalized %s@%s: %w", score.IndicatorID, domain.DateKey(score.Date), err)
	}
	return nil
}

func (r *scoresRepo) UpsertCategory(ctx context.Context, score domain.CategoryScore) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO category_scores (category, date, score, weight, weighted_score, indicators, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (category, date) DO UPDATE SET
			score = EXCLUDED.score,
			weight = EXCLUDED.weight,
			weighted_score = EXCLUDED.weighted_score,
			indicators = EXCLUDED.indicators,
			updated_at = NOW()`,
		string(score.Category), score.Date, score.Score, score.Weight, score.WeightedScore, score.Indicators)
	if err != nil {
		return fmt.Errorf("upsert category %s@%s: %w", score.Category, domain.DateKey(score.Date), err)
	}
	return nil
}

func (r *scoresRepo) UpsertComposite(ctx context.Context, score domain.CompositeScore) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO composite_scores (date, score, label, status, delta_1d, delta_7d, delta_30d, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (date) DO UPDATE SET
			score = EXCLUDED.score,
			label = EXCLUDED.label,
			status = EXCLUDED.status,
			delta_1d = EXCLUDED.delta_1d,
			delta_7d = EXCLUDED.delta_7d,
			delta_30d = EXCLUDED.delta_30d,
			updated_at = NOW()`,
		score.Date, score.Score, score.Label, string(score.Status),
		score.Delta.D1, score.Delta.D7, score.Delta.D30)
	if err != nil {
		return fmt.Errorf("upsert composite @%s: %w", domain.DateKey(score.Date), err)
	}
	return nil
}

type compositeRow struct {
	Date    time.Time       `db:"date"`
	Score   float64         `db:"score"`
	Label   string          `db:"label"`
	Status  string          `db:"status"`
	Delta1  sql.NullFloat64 `db:"delta_1d"`
	Delta7  sql.NullFloat64 `db:"delta_7d"`
	Delta30 sql.NullFloat64 `db:"delta_30d"`
}

func (r *scoresRepo) CompositeAt(ctx context.Context, date time.Time) (*domain.CompositeScore, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var row compositeRow
	err := r.db.GetContext(ctx, &row, `
		SELECT date, score, label, status, delta_1d, delta_7d, delta_30d
		FROM composite_scores
		WHERE date = $1`, date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("composite @%s: %w", domain.DateKey(date), err)
	}

	cs := domain.CompositeScore{
		Date:   row.Date,
		Score:  row.Score,
		Label:  row.Label,
		Status: domain.Status(row.Status),
	}
	if row.Delta1.Valid {
		cs.Delta.D1 = &row.Delta1.Float64
	}
	if row.Delta7.Valid {
		cs.Delta.D7 = &row.Delta7.Float64
	}
	if row.Delta30.Valid {
		cs.Delta.D30 = &row.Delta30.Float64
	}
	return &cs, nil
}
