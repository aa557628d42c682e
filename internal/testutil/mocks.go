package testutil

import (
	"context"
	"time"

	"vocabsrs/internal/domain"
	"vocabsrs/internal/repository"

	"github.com/stretchr/testify/mock"
)

// MockLearnerRepository is a mock for LearnerRepository
type MockLearnerRepository struct {
	mock.Mock
}

func (m *MockLearnerRepository) IsAuthorized(ctx context.Context, learnerID int64) (bool, error) {
	args := m.Called(ctx, learnerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLearnerRepository) AuthorizeLearner(ctx context.Context, learnerID int64) error {
	args := m.Called(ctx, learnerID)
	return args.Error(0)
}

func (m *MockLearnerRepository) EnsureLearnerExists(ctx context.Context, learnerID int64) error {
	args := m.Called(ctx, learnerID)
	return args.Error(0)
}

func (m *MockLearnerRepository) ListAuthorized(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// MockProgressRepository is a mock for ProgressRepository
type MockProgressRepository struct {
	mock.Mock
}

func (m *MockProgressRepository) Get(ctx context.Context, learnerID int64, vocabularyID string) (*domain.ProgressRecord, error) {
	args := m.Called(ctx, learnerID, vocabularyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProgressRecord), args.Error(1)
}

func (m *MockProgressRepository) Upsert(ctx context.Context, record *domain.ProgressRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockProgressRepository) ListDue(ctx context.Context, learnerID int64, now time.Time, filter repository.ProgressFilter) ([]domain.ProgressRecord, error) {
	args := m.Called(ctx, learnerID, now, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProgressRecord), args.Error(1)
}

func (m *MockProgressRepository) List(ctx context.Context, learnerID int64, filter repository.ProgressFilter) ([]domain.ProgressRecord, error) {
	args := m.Called(ctx, learnerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProgressRecord), args.Error(1)
}

func (m *MockProgressRepository) Delete(ctx context.Context, learnerID int64, vocabularyID string) error {
	args := m.Called(ctx, learnerID, vocabularyID)
	return args.Error(0)
}

// MockVocabularyRepository is a mock for VocabularyRepository
type MockVocabularyRepository struct {
	mock.Mock
}

func (m *MockVocabularyRepository) Get(ctx context.Context, vocabularyID string) (*domain.VocabularyItem, error) {
	args := m.Called(ctx, vocabularyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VocabularyItem), args.Error(1)
}

func (m *MockVocabularyRepository) List(ctx context.Context, levels []string) ([]domain.VocabularyItem, error) {
	args := m.Called(ctx, levels)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.VocabularyItem), args.Error(1)
}
