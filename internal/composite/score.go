package composite

import (
	"time"

	"github.com/pxilabs/pxi/internal/domain"
	"github.com/pxilabs/pxi/internal/normalize"
)

// ScoreAt looks up a previously computed composite score for a date; the
// second return reports whether one exists.
type ScoreAt func(date time.Time) (float64, bool)

// Compose computes the Index record for a date from its category scores.
// history supplies earlier composite scores for the delta columns and may
// be nil. Re-running with identical inputs reproduces identical output.
func Compose(date time.Time, categories []domain.CategoryScore, history ScoreAt) domain.CompositeScore {
	var weighted, weightSum float64
	for _, c := range categories {
		weighted += c.Score * c.Weight
		weightSum += c.Weight
	}
	score := normalize.NeutralScore
	if weightSum > 0 {
		score = weighted / weightSum
	}
	score = normalize.Clamp(score, 0, 100)

	status := domain.StatusForScore(score)
	return domain.CompositeScore{
		Date:   date,
		Score:  score,
		Label:  status.Label(),
		Status: status,
		Delta:  deltas(score, date, history),
	}
}

func deltas(score float64, date time.Time, history ScoreAt) domain.Deltas {
	if history == nil {
		return domain.Deltas{}
	}
	return domain.Deltas{
		D1:  deltaAgainst(score, date, 1, history),
		D7:  deltaAgainst(score, date, 7, history),
		D30: deltaAgainst(score, date, 30, history),
	}
}

func deltaAgainst(score float64, date time.Time, calendarDays int, history ScoreAt) *float64 {
	prev, ok := history(date.AddDate(0, 0, -calendarDays))
	if !ok {
		return nil
	}
	d := score - prev
	return &d
}
