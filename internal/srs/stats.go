package srs

import (
	"time"

	"vocabsrs/internal/domain"
)

// Class is the learning stage of one item
type Class int

const (
	ClassNew Class = iota
	ClassLearning
	ClassMastered
)

func (c Class) String() string {
	switch c {
	case ClassLearning:
		return "learning"
	case ClassMastered:
		return "mastered"
	}
	return "new"
}

// MasteryPolicy holds the product thresholds for "mastered".
// An item is mastered once it has at least MinRepetitions consecutive
// successes and an ease factor strictly above MinEaseFactor.
type MasteryPolicy struct {
	MinRepetitions int
	MinEaseFactor  float64
}

// DefaultMasteryPolicy is used when configuration does not override it
func DefaultMasteryPolicy() MasteryPolicy {
	return MasteryPolicy{MinRepetitions: 3, MinEaseFactor: domain.DefaultEaseFactor}
}

// Classify places a record in a learning stage. A nil record is new.
func Classify(record *domain.ProgressRecord, policy MasteryPolicy) Class {
	if record == nil || !record.Reviewed() {
		return ClassNew
	}
	if record.Repetitions >= policy.MinRepetitions && record.EaseFactor > policy.MinEaseFactor {
		return ClassMastered
	}
	return ClassLearning
}

// Summarize counts the learner's items within the catalog scope.
// DueToday counts reviewed items falling due before the end of now's day.
func Summarize(records []domain.ProgressRecord, catalog []domain.VocabularyItem, now time.Time, policy MasteryPolicy, levels []string) domain.ProgressStats {
	byID := make(map[string]*domain.ProgressRecord, len(records))
	for i := range records {
		byID[records[i].VocabularyID] = &records[i]
	}

	endOfDay := domain.StartOfDay(now).AddDate(0, 0, 1)

	var stats domain.ProgressStats
	for _, it := range catalog {
		if !it.MatchesLevel(levels) {
			continue
		}
		stats.Total++

		rec := byID[it.ID]
		switch Classify(rec, policy) {
		case ClassNew:
			stats.New++
			continue
		case ClassMastered:
			stats.Mastered++
		default:
			stats.Learning++
		}

		if rec.NextReviewDate.Before(endOfDay) {
			stats.DueToday++
		}
	}

	return stats
}
