package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRating(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		expected      Rating
		expectedError bool
	}{
		{name: "numeric good", input: "4", expected: RatingGood},
		{name: "numeric again", input: "1", expected: RatingAgain},
		{name: "name", input: "easy", expected: RatingEasy},
		{name: "name mixed case", input: " Hard ", expected: RatingHard},
		{name: "skipped value", input: "2", expectedError: true},
		{name: "zero", input: "0", expectedError: true},
		{name: "out of range", input: "6", expectedError: true},
		{name: "unknown name", input: "perfect", expectedError: true},
		{name: "empty", input: "", expectedError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseRating(tt.input)
			if tt.expectedError {
				assert.ErrorIs(t, err, ErrInvalidRating)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, r)
		})
	}
}

func TestRating_IsCorrect(t *testing.T) {
	assert.False(t, RatingAgain.IsCorrect())
	assert.True(t, RatingHard.IsCorrect())
	assert.True(t, RatingGood.IsCorrect())
	assert.True(t, RatingEasy.IsCorrect())
	assert.Equal(t, "good", RatingGood.String())
	assert.Equal(t, "Rating(2)", Rating(2).String())
}

func TestDefaultProgress(t *testing.T) {
	now := time.Date(2024, 5, 1, 18, 45, 0, 0, time.UTC)

	p := DefaultProgress(7, "v1", now)

	assert.Equal(t, int64(7), p.LearnerID)
	assert.Equal(t, "v1", p.VocabularyID)
	assert.Equal(t, 2.5, p.EaseFactor)
	assert.Equal(t, 0, p.IntervalDays)
	assert.Equal(t, 0, p.Repetitions)
	assert.Nil(t, p.LastReviewedAt)
	assert.False(t, p.Reviewed())
	assert.True(t, p.IsDue(now))
}

func TestVocabularyItem_AcceptedForms(t *testing.T) {
	item := VocabularyItem{ID: "v1", Term: "水", Reading: "みず", Romanization: "mizu", Translation: "water"}
	assert.Equal(t, []string{"水", "みず", "mizu"}, item.AcceptedForms())

	partial := VocabularyItem{ID: "v2", Term: "hello", Translation: "hola"}
	assert.Equal(t, []string{"hello"}, partial.AcceptedForms())
}

func TestVocabularyItem_MatchesLevel(t *testing.T) {
	item := VocabularyItem{ID: "v1", Level: "N5"}

	assert.True(t, item.MatchesLevel(nil))
	assert.True(t, item.MatchesLevel([]string{"n5"}))
	assert.True(t, item.MatchesLevel([]string{"N4", "N5"}))
	assert.False(t, item.MatchesLevel([]string{"N4"}))
}
