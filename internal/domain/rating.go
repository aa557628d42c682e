package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidRating is returned for ratings outside the accepted set
var ErrInvalidRating = errors.New("invalid rating")

// Rating is the learner's recall quality on the SM-2 0-5 scale.
// Only the four-point subset below is accepted.
type Rating int

const (
	RatingAgain Rating = 1
	RatingHard  Rating = 3
	RatingGood  Rating = 4
	RatingEasy  Rating = 5
)

// PassThreshold is the lowest rating that counts as a correct recall
const PassThreshold = RatingHard

// Ratings lists the accepted ratings in ascending order
var Ratings = []Rating{RatingAgain, RatingHard, RatingGood, RatingEasy}

var ratingNames = map[Rating]string{
	RatingAgain: "again",
	RatingHard:  "hard",
	RatingGood:  "good",
	RatingEasy:  "easy",
}

// IsValid reports whether r belongs to the accepted set
func (r Rating) IsValid() bool {
	_, ok := ratingNames[r]
	return ok
}

// IsCorrect reports whether r is a successful recall
func (r Rating) IsCorrect() bool {
	return r >= PassThreshold
}

func (r Rating) String() string {
	if name, ok := ratingNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Rating(%d)", int(r))
}

// ParseRating accepts either the numeric value or the name ("good", "EASY")
func ParseRating(s string) (Rating, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		r := Rating(n)
		if !r.IsValid() {
			return 0, fmt.Errorf("%w: %d", ErrInvalidRating, n)
		}
		return r, nil
	}
	for r, name := range ratingNames {
		if strings.EqualFold(name, s) {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidRating, s)
}
