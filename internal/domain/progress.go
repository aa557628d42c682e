package domain

import "time"

// Default SM-2 state for an item that has never been reviewed
const (
	DefaultEaseFactor = 2.5
	MinEaseFactor     = 1.3
)

// ProgressRecord is the scheduling state of one item for one learner
type ProgressRecord struct {
	LearnerID      int64      `json:"learner_id"`
	VocabularyID   string     `json:"vocabulary_id"`
	EaseFactor     float64    `json:"ease_factor"`
	IntervalDays   int        `json:"interval_days"`
	Repetitions    int        `json:"repetitions"`
	NextReviewDate time.Time  `json:"next_review_date"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
}

// DefaultProgress returns the never-reviewed state. It is the only place
// where defaults are decided; an item in this state is due immediately.
func DefaultProgress(learnerID int64, vocabularyID string, now time.Time) ProgressRecord {
	return ProgressRecord{
		LearnerID:      learnerID,
		VocabularyID:   vocabularyID,
		EaseFactor:     DefaultEaseFactor,
		IntervalDays:   0,
		Repetitions:    0,
		NextReviewDate: StartOfDay(now),
	}
}

// IsDue reports whether the record's next review date has arrived
func (p ProgressRecord) IsDue(now time.Time) bool {
	return !p.NextReviewDate.After(now)
}

// Reviewed reports whether the record has ever been reviewed
func (p ProgressRecord) Reviewed() bool {
	return p.LastReviewedAt != nil
}

// StartOfDay truncates t to midnight in t's location
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ProgressStats summarizes a learner's progress over the catalog
type ProgressStats struct {
	DueToday int `json:"due_today"`
	Mastered int `json:"mastered"`
	Learning int `json:"learning"`
	New      int `json:"new"`
	Total    int `json:"total"`
}
