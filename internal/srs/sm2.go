// Package srs implements SM-2 scheduling and due-queue selection.
package srs

import (
	"errors"
	"fmt"
	"math"
	"time"

	"vocabsrs/internal/domain"
)

// ErrInvalidRating is returned for ratings outside {1, 3, 4, 5}
var ErrInvalidRating = domain.ErrInvalidRating

// ErrInvalidState is returned when the prior state cannot come from a valid review history
var ErrInvalidState = errors.New("invalid progress state")

// First two intervals of a successful streak
const (
	firstInterval  = 1
	secondInterval = 6
)

// LapsePolicy decides what happens to the ease factor on a failed recall
type LapsePolicy int

const (
	// LapseStrict always applies the SM-2 ease update, pass or fail
	LapseStrict LapsePolicy = iota
	// LapseFreezeEase keeps the ease factor unchanged on a lapse
	LapseFreezeEase
)

func (p LapsePolicy) String() string {
	if p == LapseFreezeEase {
		return "freeze_ease"
	}
	return "strict"
}

// ParseLapsePolicy reads a policy name as written by String
func ParseLapsePolicy(name string) (LapsePolicy, error) {
	switch name {
	case "", "strict":
		return LapseStrict, nil
	case "freeze_ease":
		return LapseFreezeEase, nil
	}
	return LapseStrict, fmt.Errorf("unknown lapse policy %q", name)
}

// Review is the scheduling state produced by one rating
type Review struct {
	EaseFactor     float64
	IntervalDays   int
	Repetitions    int
	NextReviewDate time.Time
}

// Scheduler computes SM-2 updates. The zero value is strict SM-2.
type Scheduler struct {
	LapsePolicy LapsePolicy
}

// CalculateNextReview applies strict SM-2 to the prior state
func CalculateNextReview(rating domain.Rating, easeFactor float64, intervalDays, repetitions int, now time.Time) (Review, error) {
	return Scheduler{}.Next(rating, easeFactor, intervalDays, repetitions, now)
}

// Next computes the state that follows a review rated at now
func (s Scheduler) Next(rating domain.Rating, easeFactor float64, intervalDays, repetitions int, now time.Time) (Review, error) {
	if !rating.IsValid() {
		return Review{}, fmt.Errorf("%w: %d", ErrInvalidRating, int(rating))
	}
	if intervalDays < 0 || repetitions < 0 || math.IsNaN(easeFactor) || easeFactor <= 0 {
		return Review{}, fmt.Errorf("%w: ease=%v interval=%d repetitions=%d",
			ErrInvalidState, easeFactor, intervalDays, repetitions)
	}

	ease := nextEase(easeFactor, rating)

	var r Review
	if rating.IsCorrect() {
		r.Repetitions = repetitions + 1
		switch r.Repetitions {
		case 1:
			r.IntervalDays = firstInterval
		case 2:
			r.IntervalDays = secondInterval
		default:
			r.IntervalDays = roundHalfUp(float64(intervalDays) * ease)
		}
	} else {
		r.Repetitions = 0
		r.IntervalDays = firstInterval
		if s.LapsePolicy == LapseFreezeEase {
			ease = math.Max(easeFactor, domain.MinEaseFactor)
		}
	}

	// An interval of zero can only come from a corrupted streak; keep the
	// item moving forward.
	if r.IntervalDays < firstInterval {
		r.IntervalDays = firstInterval
	}

	r.EaseFactor = ease
	r.NextReviewDate = domain.StartOfDay(now).AddDate(0, 0, r.IntervalDays)
	return r, nil
}

// Apply returns record advanced by rating at now
func (s Scheduler) Apply(record domain.ProgressRecord, rating domain.Rating, now time.Time) (domain.ProgressRecord, error) {
	r, err := s.Next(rating, record.EaseFactor, record.IntervalDays, record.Repetitions, now)
	if err != nil {
		return record, err
	}

	reviewedAt := now
	record.EaseFactor = r.EaseFactor
	record.IntervalDays = r.IntervalDays
	record.Repetitions = r.Repetitions
	record.NextReviewDate = r.NextReviewDate
	record.LastReviewedAt = &reviewedAt
	return record, nil
}

// nextEase is EF' = EF + (0.1 - (5-q) * (0.08 + (5-q) * 0.02)), floored at 1.3
func nextEase(ease float64, rating domain.Rating) float64 {
	q := 5 - float64(rating)
	return math.Max(ease+(0.1-q*(0.08+q*0.02)), domain.MinEaseFactor)
}

// roundHalfUp rounds x.5 upwards; the epsilon absorbs binary noise in
// products such as 10 * 2.35.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5 + 1e-9))
}
