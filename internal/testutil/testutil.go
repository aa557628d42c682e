package testutil

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"vocabsrs/internal/domain"
	"vocabsrs/internal/repository"

	"go.uber.org/zap"
)

// NewTestLogger creates a no-op logger for tests
func NewTestLogger() *zap.Logger {
	return zap.NewNop()
}

// NewTestItem creates a catalog item
func NewTestItem(id, level string) domain.VocabularyItem {
	return domain.VocabularyItem{
		ID:           id,
		Term:         "term-" + id,
		Reading:      "reading-" + id,
		Romanization: "roman-" + id,
		Translation:  "translation-" + id,
		Level:        level,
	}
}

// NewTestRecord creates a reviewed progress record due dueInDays after now
func NewTestRecord(learnerID int64, vocabularyID string, now time.Time, dueInDays int) domain.ProgressRecord {
	reviewed := now.Add(-time.Hour)
	return domain.ProgressRecord{
		LearnerID:      learnerID,
		VocabularyID:   vocabularyID,
		EaseFactor:     domain.DefaultEaseFactor,
		IntervalDays:   1,
		Repetitions:    1,
		NextReviewDate: domain.StartOfDay(now).AddDate(0, 0, dueInDays),
		LastReviewedAt: &reviewed,
	}
}

// MemoryProgressRepository is a map-backed ProgressRepository for tests.
// FailNext makes the next call return the given error.
type MemoryProgressRepository struct {
	mu       sync.Mutex
	records  map[string]domain.ProgressRecord
	FailNext error
}

// NewMemoryProgressRepository creates an empty in-memory store
func NewMemoryProgressRepository() *MemoryProgressRepository {
	return &MemoryProgressRepository{records: make(map[string]domain.ProgressRecord)}
}

func memKey(learnerID int64, vocabularyID string) string {
	return strconv.FormatInt(learnerID, 10) + "/" + vocabularyID
}

func (m *MemoryProgressRepository) fail() error {
	err := m.FailNext
	m.FailNext = nil
	return err
}

func (m *MemoryProgressRepository) Get(_ context.Context, learnerID int64, vocabularyID string) (*domain.ProgressRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return nil, err
	}

	p, ok := m.records[memKey(learnerID, vocabularyID)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (m *MemoryProgressRepository) Upsert(_ context.Context, record *domain.ProgressRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return err
	}

	key := memKey(record.LearnerID, record.VocabularyID)
	if old, ok := m.records[key]; ok && old.LastReviewedAt != nil {
		if record.LastReviewedAt == nil || !record.LastReviewedAt.After(*old.LastReviewedAt) {
			return repository.ErrConflict
		}
	}
	m.records[key] = *record
	return nil
}

func (m *MemoryProgressRepository) ListDue(_ context.Context, learnerID int64, now time.Time, filter repository.ProgressFilter) ([]domain.ProgressRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return nil, err
	}
	return m.list(learnerID, &now, filter), nil
}

func (m *MemoryProgressRepository) List(_ context.Context, learnerID int64, filter repository.ProgressFilter) ([]domain.ProgressRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return nil, err
	}
	return m.list(learnerID, nil, filter), nil
}

func (m *MemoryProgressRepository) list(learnerID int64, dueBy *time.Time, filter repository.ProgressFilter) []domain.ProgressRecord {
	var allowed map[string]bool
	if filter.VocabularyIDs != nil {
		allowed = make(map[string]bool, len(filter.VocabularyIDs))
		for _, id := range filter.VocabularyIDs {
			allowed[id] = true
		}
	}

	out := []domain.ProgressRecord{}
	for _, p := range m.records {
		if p.LearnerID != learnerID {
			continue
		}
		if dueBy != nil && p.NextReviewDate.After(*dueBy) {
			continue
		}
		if allowed != nil && !allowed[p.VocabularyID] {
			continue
		}
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].NextReviewDate.Equal(out[j].NextReviewDate) {
			return out[i].NextReviewDate.Before(out[j].NextReviewDate)
		}
		return out[i].VocabularyID < out[j].VocabularyID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out
}

func (m *MemoryProgressRepository) Delete(_ context.Context, learnerID int64, vocabularyID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return err
	}

	key := memKey(learnerID, vocabularyID)
	if _, ok := m.records[key]; !ok {
		return repository.ErrNotFound
	}
	delete(m.records, key)
	return nil
}

var _ repository.ProgressRepository = (*MemoryProgressRepository)(nil)
