package session

import (
	"math"
	"time"

	"vocabsrs/internal/domain"
)

// Stats aggregates one session.
// Correct+Incorrect and the per-rating counters both sum to Reviewed.
type Stats struct {
	Reviewed  int
	Correct   int
	Incorrect int
	Again     int
	Hard      int
	Good      int
	Easy      int
	StartTime time.Time
	EndTime   time.Time
}

// Accuracy is the rounded percentage of correct cards, 0 before any review
func (s Stats) Accuracy() int {
	if s.Reviewed == 0 {
		return 0
	}
	return int(math.Round(float64(s.Correct) / float64(s.Reviewed) * 100))
}

// Count returns how many cards received rating r
func (s Stats) Count(r domain.Rating) int {
	switch r {
	case domain.RatingAgain:
		return s.Again
	case domain.RatingHard:
		return s.Hard
	case domain.RatingGood:
		return s.Good
	case domain.RatingEasy:
		return s.Easy
	}
	return 0
}

// Duration is the elapsed session time; zero while the session runs
func (s Stats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

func (s Stats) record(r domain.Rating, correct bool) Stats {
	s.Reviewed++
	if correct {
		s.Correct++
	} else {
		s.Incorrect++
	}
	switch r {
	case domain.RatingAgain:
		s.Again++
	case domain.RatingHard:
		s.Hard++
	case domain.RatingGood:
		s.Good++
	case domain.RatingEasy:
		s.Easy++
	}
	return s
}
