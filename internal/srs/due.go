package srs

import (
	"sort"
	"time"

	"vocabsrs/internal/domain"
)

// DueOptions narrows and caps a due queue
type DueOptions struct {
	// Limit caps the queue after ordering; zero or negative means no cap.
	Limit int
	// Levels keeps only items tagged with one of these levels.
	Levels []string
	// ExcludeNew drops items that have never been reviewed.
	ExcludeNew bool
}

// DueItem is a catalog item joined with its progress.
// Progress is nil when the learner has never reviewed the item.
type DueItem struct {
	Item     domain.VocabularyItem   `json:"item"`
	Progress *domain.ProgressRecord `json:"progress,omitempty"`
}

// IsNew reports whether the item has never been reviewed
func (d DueItem) IsNew() bool {
	return d.Progress == nil
}

// CalculateDueItems builds the review queue for one learner.
//
// Reviewed items come first, most overdue first, ties broken by vocabulary ID.
// Items of the catalog without a record follow in catalog order. Records that
// have no catalog entry are skipped since they cannot be shown.
func CalculateDueItems(records []domain.ProgressRecord, catalog []domain.VocabularyItem, now time.Time, opts DueOptions) []DueItem {
	items := make(map[string]domain.VocabularyItem, len(catalog))
	for _, it := range catalog {
		if it.MatchesLevel(opts.Levels) {
			items[it.ID] = it
		}
	}

	seen := make(map[string]struct{}, len(records))
	due := make([]DueItem, 0)

	for i := range records {
		rec := records[i]
		if _, dup := seen[rec.VocabularyID]; dup {
			continue
		}
		seen[rec.VocabularyID] = struct{}{}

		it, ok := items[rec.VocabularyID]
		if !ok || !rec.IsDue(now) {
			continue
		}
		due = append(due, DueItem{Item: it, Progress: &rec})
	}

	sort.SliceStable(due, func(i, j int) bool {
		a, b := due[i].Progress, due[j].Progress
		if !a.NextReviewDate.Equal(b.NextReviewDate) {
			return a.NextReviewDate.Before(b.NextReviewDate)
		}
		return a.VocabularyID < b.VocabularyID
	})

	if !opts.ExcludeNew {
		for _, it := range catalog {
			if _, ok := seen[it.ID]; ok {
				continue
			}
			if _, ok := items[it.ID]; !ok {
				continue
			}
			seen[it.ID] = struct{}{}
			due = append(due, DueItem{Item: it})
		}
	}

	if opts.Limit > 0 && len(due) > opts.Limit {
		due = due[:opts.Limit]
	}

	return due
}
