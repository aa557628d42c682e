package srs

import (
	"testing"
	"time"

	"vocabsrs/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reviewNow = time.Date(2024, 4, 10, 14, 20, 0, 0, time.UTC)

func TestCalculateNextReview_EaseUpdate(t *testing.T) {
	tests := []struct {
		name         string
		rating       domain.Rating
		ease         float64
		expectedEase float64
	}{
		{name: "easy raises ease", rating: domain.RatingEasy, ease: 2.5, expectedEase: 2.6},
		{name: "good keeps ease", rating: domain.RatingGood, ease: 2.5, expectedEase: 2.5},
		{name: "hard lowers ease", rating: domain.RatingHard, ease: 2.5, expectedEase: 2.36},
		{name: "again lowers ease", rating: domain.RatingAgain, ease: 2.5, expectedEase: 1.96},
		{name: "floor on again", rating: domain.RatingAgain, ease: 1.4, expectedEase: 1.3},
		{name: "floor on hard", rating: domain.RatingHard, ease: 1.3, expectedEase: 1.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := CalculateNextReview(tt.rating, tt.ease, 6, 2, reviewNow)
			require.NoError(t, err)
			assert.InDelta(t, tt.expectedEase, r.EaseFactor, 1e-9)
		})
	}
}

func TestCalculateNextReview_EaseNeverBelowFloor(t *testing.T) {
	for _, rating := range domain.Ratings {
		for _, ease := range []float64{0.5, 1.0, 1.3, 1.31, 2.5, 4.0} {
			r, err := CalculateNextReview(rating, ease, 3, 3, reviewNow)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, r.EaseFactor, domain.MinEaseFactor, "rating=%v ease=%v", rating, ease)
		}
	}
}

func TestCalculateNextReview_GoodStreakFromFresh(t *testing.T) {
	p := domain.DefaultProgress(1, "v1", reviewNow)
	ease, interval, reps := p.EaseFactor, p.IntervalDays, p.Repetitions

	var intervals, repetitions []int
	var easeAfterSecond float64
	for i := 0; i < 3; i++ {
		r, err := CalculateNextReview(domain.RatingGood, ease, interval, reps, reviewNow)
		require.NoError(t, err)
		ease, interval, reps = r.EaseFactor, r.IntervalDays, r.Repetitions
		intervals = append(intervals, interval)
		repetitions = append(repetitions, reps)
		if i == 1 {
			easeAfterSecond = ease
		}
	}

	assert.Equal(t, []int{1, 6, roundHalfUp(6 * easeAfterSecond)}, intervals)
	assert.Equal(t, []int{1, 6, 15}, intervals)
	assert.Equal(t, []int{1, 2, 3}, repetitions)
}

func TestCalculateNextReview_LapseResets(t *testing.T) {
	states := []struct {
		ease     float64
		interval int
		reps     int
	}{
		{2.5, 0, 0},
		{2.5, 1, 1},
		{2.8, 6, 2},
		{1.3, 120, 9},
	}

	for _, s := range states {
		r, err := CalculateNextReview(domain.RatingAgain, s.ease, s.interval, s.reps, reviewNow)
		require.NoError(t, err)
		assert.Equal(t, 0, r.Repetitions)
		assert.Equal(t, 1, r.IntervalDays)
		assert.Equal(t, time.Date(2024, 4, 11, 0, 0, 0, 0, time.UTC), r.NextReviewDate)
	}
}

func TestCalculateNextReview_RoundsHalfUp(t *testing.T) {
	// 5 * 2.5 = 12.5 rounds to 13.
	r, err := CalculateNextReview(domain.RatingGood, 2.5, 5, 2, reviewNow)
	require.NoError(t, err)
	assert.Equal(t, 13, r.IntervalDays)

	// 10 * 2.35 = 23.5 rounds to 24 despite binary noise.
	r, err = CalculateNextReview(domain.RatingGood, 2.35, 10, 4, reviewNow)
	require.NoError(t, err)
	assert.Equal(t, 24, r.IntervalDays)
}

func TestCalculateNextReview_NextReviewDateIsDateOnly(t *testing.T) {
	r, err := CalculateNextReview(domain.RatingGood, 2.5, 1, 1, reviewNow)
	require.NoError(t, err)
	assert.Equal(t, 6, r.IntervalDays)
	assert.Equal(t, time.Date(2024, 4, 16, 0, 0, 0, 0, time.UTC), r.NextReviewDate)
}

func TestCalculateNextReview_InvalidInput(t *testing.T) {
	for _, rating := range []domain.Rating{0, 2, 6, -1} {
		_, err := CalculateNextReview(rating, 2.5, 0, 0, reviewNow)
		assert.ErrorIs(t, err, ErrInvalidRating, "rating %d", rating)
	}

	_, err := CalculateNextReview(domain.RatingGood, 2.5, -1, 0, reviewNow)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = CalculateNextReview(domain.RatingGood, 2.5, 0, -3, reviewNow)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestScheduler_LapseFreezeEase(t *testing.T) {
	s := Scheduler{LapsePolicy: LapseFreezeEase}

	r, err := s.Next(domain.RatingAgain, 2.2, 15, 3, reviewNow)
	require.NoError(t, err)
	assert.Equal(t, 2.2, r.EaseFactor)
	assert.Equal(t, 0, r.Repetitions)
	assert.Equal(t, 1, r.IntervalDays)

	r, err = s.Next(domain.RatingEasy, 2.2, 15, 3, reviewNow)
	require.NoError(t, err)
	assert.InDelta(t, 2.3, r.EaseFactor, 1e-9)
}

func TestScheduler_Apply(t *testing.T) {
	fresh := domain.DefaultProgress(42, "v1", reviewNow)

	updated, err := Scheduler{}.Apply(fresh, domain.RatingGood, reviewNow)
	require.NoError(t, err)

	assert.Equal(t, int64(42), updated.LearnerID)
	assert.Equal(t, "v1", updated.VocabularyID)
	assert.InDelta(t, 2.5, updated.EaseFactor, 1e-9)
	assert.Equal(t, 1, updated.IntervalDays)
	assert.Equal(t, 1, updated.Repetitions)
	assert.Equal(t, domain.StartOfDay(reviewNow).AddDate(0, 0, 1), updated.NextReviewDate)
	require.NotNil(t, updated.LastReviewedAt)
	assert.Equal(t, reviewNow, *updated.LastReviewedAt)

	// The input is left untouched.
	assert.Nil(t, fresh.LastReviewedAt)

	_, err = Scheduler{}.Apply(fresh, domain.Rating(2), reviewNow)
	assert.ErrorIs(t, err, ErrInvalidRating)
}

func TestParseLapsePolicy(t *testing.T) {
	for _, p := range []LapsePolicy{LapseStrict, LapseFreezeEase} {
		parsed, err := ParseLapsePolicy(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, parsed)
	}

	parsed, err := ParseLapsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, LapseStrict, parsed)

	_, err = ParseLapsePolicy("lenient")
	assert.Error(t, err)
}
