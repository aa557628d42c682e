package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"vocabsrs/internal/domain"
	"vocabsrs/internal/repository"
	"vocabsrs/internal/srs"
	"vocabsrs/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestStatsService_Stats(t *testing.T) {
	store := testutil.NewMemoryProgressRepository()
	ctx := context.Background()

	mastered := testutil.NewTestRecord(1, "V1", fixedNow, 10)
	mastered.Repetitions = 4
	mastered.EaseFactor = 2.7

	dueLearning := testutil.NewTestRecord(1, "V3", fixedNow, 0)
	lapsed := testutil.NewTestRecord(1, "V4", fixedNow, 1)
	lapsed.Repetitions = 0

	for _, r := range []domain.ProgressRecord{mastered, dueLearning, lapsed} {
		r := r
		require.NoError(t, store.Upsert(ctx, &r))
	}

	svc := NewStatsService(store, newTestCatalog(t), new(testutil.MockLearnerRepository), srs.DefaultMasteryPolicy(), time.UTC, testutil.NewTestLogger())
	svc.now = func() time.Time { return fixedNow }

	t.Run("all levels", func(t *testing.T) {
		stats, err := svc.Stats(ctx, 1, nil)
		require.NoError(t, err)
		assert.Equal(t, domain.ProgressStats{DueToday: 1, Mastered: 1, Learning: 2, New: 2, Total: 5}, stats)
	})

	t.Run("level scoped", func(t *testing.T) {
		stats, err := svc.Stats(ctx, 1, []string{"n4"})
		require.NoError(t, err)
		assert.Equal(t, domain.ProgressStats{DueToday: 1, Learning: 2, Total: 2}, stats)
	})

	t.Run("unknown learner sees everything new", func(t *testing.T) {
		stats, err := svc.Stats(ctx, 99, nil)
		require.NoError(t, err)
		assert.Equal(t, domain.ProgressStats{New: 5, Total: 5}, stats)
	})

	t.Run("invalid learner", func(t *testing.T) {
		_, err := svc.Stats(ctx, 0, nil)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("store failure", func(t *testing.T) {
		store.FailNext = errors.New("down")
		_, err := svc.Stats(ctx, 1, nil)
		assert.ErrorIs(t, err, ErrStoreUnavailable)
	})
}

func TestStatsService_DueDigest(t *testing.T) {
	progress := new(testutil.MockProgressRepository)
	learners := new(testutil.MockLearnerRepository)

	endOfDay := time.Date(2024, 11, 4, 23, 59, 59, 999999999, time.UTC)
	learners.On("ListAuthorized", mock.Anything).Return([]int64{1, 2, 3}, nil)
	progress.On("ListDue", mock.Anything, int64(1), endOfDay, repository.ProgressFilter{}).
		Return([]domain.ProgressRecord{{VocabularyID: "V1"}, {VocabularyID: "V2"}}, nil)
	progress.On("ListDue", mock.Anything, int64(2), endOfDay, repository.ProgressFilter{}).
		Return([]domain.ProgressRecord{}, nil)
	progress.On("ListDue", mock.Anything, int64(3), endOfDay, repository.ProgressFilter{}).
		Return(nil, errors.New("timeout"))

	svc := NewStatsService(progress, new(testutil.MockVocabularyRepository), learners, srs.DefaultMasteryPolicy(), time.UTC, testutil.NewTestLogger())
	svc.now = func() time.Time { return fixedNow }

	digest, err := svc.DueDigest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{1: 2}, digest)
	progress.AssertExpectations(t)
	learners.AssertExpectations(t)
}

func TestStatsService_DueDigest_ListFails(t *testing.T) {
	learners := new(testutil.MockLearnerRepository)
	learners.On("ListAuthorized", mock.Anything).Return(nil, errors.New("db error"))

	svc := NewStatsService(new(testutil.MockProgressRepository), new(testutil.MockVocabularyRepository), learners, srs.DefaultMasteryPolicy(), time.UTC, testutil.NewTestLogger())

	_, err := svc.DueDigest(context.Background())
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestStatsService_Forecast(t *testing.T) {
	store := testutil.NewMemoryProgressRepository()
	ctx := context.Background()

	for _, r := range []domain.ProgressRecord{
		testutil.NewTestRecord(1, "V1", fixedNow, -2),
		testutil.NewTestRecord(1, "V2", fixedNow, 0),
		testutil.NewTestRecord(1, "V3", fixedNow, 1),
		testutil.NewTestRecord(1, "V4", fixedNow, 1),
		testutil.NewTestRecord(1, "V5", fixedNow, 7),
		testutil.NewTestRecord(1, "GONE", fixedNow, -1),
	} {
		r := r
		require.NoError(t, store.Upsert(ctx, &r))
	}

	svc := NewStatsService(store, newTestCatalog(t), new(testutil.MockLearnerRepository), srs.DefaultMasteryPolicy(), time.UTC, testutil.NewTestLogger())
	svc.now = func() time.Time { return fixedNow }

	days, err := svc.Forecast(ctx, 1, 7)
	require.NoError(t, err)
	require.Len(t, days, 2)

	today := domain.StartOfDay(fixedNow)
	assert.Equal(t, today, days[0].Date)
	assert.Equal(t, 2, days[0].CardCount)
	assert.Equal(t, today.AddDate(0, 0, 1), days[1].Date)
	assert.Equal(t, 2, days[1].CardCount)

	days, err = svc.Forecast(ctx, 1, 8)
	require.NoError(t, err)
	require.Len(t, days, 3)
	assert.Equal(t, "11 Nov 2024", days[2].DisplayString(fixedNow))
	assert.Equal(t, "tomorrow", days[1].DisplayString(fixedNow))

	_, err = svc.Forecast(ctx, 1, 0)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Forecast(ctx, 1, 61)
	assert.ErrorIs(t, err, ErrValidation)
}
