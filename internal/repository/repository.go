package repository

import (
	"context"
	"errors"
	"time"

	"vocabsrs/internal/domain"
)

var (
	// ErrNotFound is returned when a progress record or catalog item does not exist
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write is not newer than the stored state
	ErrConflict = errors.New("stale write: stored review is not older")
)

// ProgressFilter narrows a progress listing
type ProgressFilter struct {
	// VocabularyIDs restricts the listing to these items when non-nil.
	// A non-nil empty slice matches nothing.
	VocabularyIDs []string
	// Limit caps the number of records; zero means no cap.
	Limit int
}

// ProgressRepository persists per-(learner, item) scheduling state
type ProgressRepository interface {
	Get(ctx context.Context, learnerID int64, vocabularyID string) (*domain.ProgressRecord, error)
	// Upsert creates or fully replaces the record. It is atomic per key and
	// rejects with ErrConflict any record whose LastReviewedAt is not strictly
	// newer than the stored one.
	Upsert(ctx context.Context, record *domain.ProgressRecord) error
	// ListDue returns records with NextReviewDate <= now ordered by
	// NextReviewDate then VocabularyID.
	ListDue(ctx context.Context, learnerID int64, now time.Time, filter ProgressFilter) ([]domain.ProgressRecord, error)
	List(ctx context.Context, learnerID int64, filter ProgressFilter) ([]domain.ProgressRecord, error)
	Delete(ctx context.Context, learnerID int64, vocabularyID string) error
}

// VocabularyRepository reads the content catalog
type VocabularyRepository interface {
	Get(ctx context.Context, vocabularyID string) (*domain.VocabularyItem, error)
	// List returns catalog items in catalog order, optionally filtered by level
	List(ctx context.Context, levels []string) ([]domain.VocabularyItem, error)
}

// LearnerRepository defines learner access operations for the bot
type LearnerRepository interface {
	IsAuthorized(ctx context.Context, learnerID int64) (bool, error)
	AuthorizeLearner(ctx context.Context, learnerID int64) error
	EnsureLearnerExists(ctx context.Context, learnerID int64) error
	ListAuthorized(ctx context.Context) ([]int64, error)
}
