package badger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"vocabsrs/internal/domain"
	"vocabsrs/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

var testNow = time.Date(2024, 8, 15, 10, 0, 0, 0, time.UTC)

func reviewedRecord(learnerID int64, id string, dueInDays int, reviewedAt time.Time) *domain.ProgressRecord {
	return &domain.ProgressRecord{
		LearnerID:      learnerID,
		VocabularyID:   id,
		EaseFactor:     2.5,
		IntervalDays:   1,
		Repetitions:    1,
		NextReviewDate: domain.StartOfDay(testNow).AddDate(0, 0, dueInDays),
		LastReviewedAt: &reviewedAt,
	}
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}

func TestProgressRepo_GetMissing(t *testing.T) {
	repo := NewProgressRepo(openTestDB(t))

	p, err := repo.Get(context.Background(), 1, "nope")

	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Nil(t, p)
}

func TestProgressRepo_UpsertAndGet(t *testing.T) {
	repo := NewProgressRepo(openTestDB(t))
	ctx := context.Background()

	rec := reviewedRecord(1, "v1", 1, testNow)
	require.NoError(t, repo.Upsert(ctx, rec))

	got, err := repo.Get(ctx, 1, "v1")
	require.NoError(t, err)
	assert.Equal(t, rec.EaseFactor, got.EaseFactor)
	assert.Equal(t, rec.IntervalDays, got.IntervalDays)
	assert.True(t, rec.NextReviewDate.Equal(got.NextReviewDate))
	require.NotNil(t, got.LastReviewedAt)
	assert.True(t, testNow.Equal(*got.LastReviewedAt))

	// Full replacement with a newer review.
	newer := reviewedRecord(1, "v1", 6, testNow.Add(time.Hour))
	newer.Repetitions = 2
	newer.IntervalDays = 6
	require.NoError(t, repo.Upsert(ctx, newer))

	got, err = repo.Get(ctx, 1, "v1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Repetitions)
	assert.Equal(t, 6, got.IntervalDays)
}

func TestProgressRepo_UpsertRejectsStaleWrites(t *testing.T) {
	repo := NewProgressRepo(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, reviewedRecord(1, "v1", 1, testNow)))

	same := reviewedRecord(1, "v1", 6, testNow)
	same.Repetitions = 2
	assert.ErrorIs(t, repo.Upsert(ctx, same), repository.ErrConflict)

	older := reviewedRecord(1, "v1", 6, testNow.Add(-time.Minute))
	assert.ErrorIs(t, repo.Upsert(ctx, older), repository.ErrConflict)

	got, err := repo.Get(ctx, 1, "v1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Repetitions)
}

func TestProgressRepo_ListDue(t *testing.T) {
	repo := NewProgressRepo(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, reviewedRecord(1, "b", -1, testNow)))
	require.NoError(t, repo.Upsert(ctx, reviewedRecord(1, "a", -1, testNow)))
	require.NoError(t, repo.Upsert(ctx, reviewedRecord(1, "c", -3, testNow)))
	require.NoError(t, repo.Upsert(ctx, reviewedRecord(1, "future", 2, testNow)))
	require.NoError(t, repo.Upsert(ctx, reviewedRecord(2, "other", -5, testNow)))

	due, err := repo.ListDue(ctx, 1, testNow, repository.ProgressFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, vocabularyIDs(due))

	limited, err := repo.ListDue(ctx, 1, testNow, repository.ProgressFilter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, vocabularyIDs(limited))

	filtered, err := repo.ListDue(ctx, 1, testNow, repository.ProgressFilter{VocabularyIDs: []string{"b", "future"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, vocabularyIDs(filtered))

	none, err := repo.ListDue(ctx, 1, testNow, repository.ProgressFilter{VocabularyIDs: []string{}})
	require.NoError(t, err)
	assert.Empty(t, none)

	all, err := repo.List(ctx, 1, repository.ProgressFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b", "future"}, vocabularyIDs(all))
}

func TestProgressRepo_ListDueFollowsReschedule(t *testing.T) {
	repo := NewProgressRepo(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, reviewedRecord(1, "v1", -1, testNow)))
	require.NoError(t, repo.Upsert(ctx, reviewedRecord(1, "v1", 5, testNow.Add(time.Minute))))

	due, err := repo.ListDue(ctx, 1, testNow, repository.ProgressFilter{})
	require.NoError(t, err)
	assert.Empty(t, due)

	all, err := repo.List(ctx, 1, repository.ProgressFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestProgressRepo_Delete(t *testing.T) {
	repo := NewProgressRepo(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, reviewedRecord(1, "v1", -1, testNow)))
	require.NoError(t, repo.Delete(ctx, 1, "v1"))

	_, err := repo.Get(ctx, 1, "v1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	due, err := repo.ListDue(ctx, 1, testNow, repository.ProgressFilter{})
	require.NoError(t, err)
	assert.Empty(t, due)

	assert.ErrorIs(t, repo.Delete(ctx, 1, "v1"), repository.ErrNotFound)
}

func TestProgressRepo_ConcurrentLearners(t *testing.T) {
	repo := NewProgressRepo(openTestDB(t))
	ctx := context.Background()

	var wg sync.WaitGroup
	for learner := int64(1); learner <= 8; learner++ {
		wg.Add(1)
		go func(learner int64) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				rec := reviewedRecord(learner, fmt.Sprintf("v%02d", i), -1, testNow)
				assert.NoError(t, repo.Upsert(ctx, rec))
			}
		}(learner)
	}
	wg.Wait()

	for learner := int64(1); learner <= 8; learner++ {
		all, err := repo.List(ctx, learner, repository.ProgressFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 20)
	}
}

func TestProgressRepo_ConcurrentSameKeyKeepsNewest(t *testing.T) {
	repo := NewProgressRepo(openTestDB(t))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := reviewedRecord(1, "v1", i, testNow.Add(time.Duration(i)*time.Second))
			rec.Repetitions = i
			_ = repo.Upsert(ctx, rec)
		}(i)
	}
	wg.Wait()

	got, err := repo.Get(ctx, 1, "v1")
	require.NoError(t, err)
	assert.Equal(t, 9, got.Repetitions)

	all, err := repo.List(ctx, 1, repository.ProgressFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestLearnerRepo(t *testing.T) {
	repo := NewLearnerRepo(openTestDB(t))
	ctx := context.Background()

	authorized, err := repo.IsAuthorized(ctx, 10)
	require.NoError(t, err)
	assert.False(t, authorized)

	require.NoError(t, repo.EnsureLearnerExists(ctx, 10))
	require.NoError(t, repo.EnsureLearnerExists(ctx, 10))
	require.NoError(t, repo.EnsureLearnerExists(ctx, 11))

	authorized, err = repo.IsAuthorized(ctx, 10)
	require.NoError(t, err)
	assert.False(t, authorized)

	require.NoError(t, repo.AuthorizeLearner(ctx, 11))
	require.NoError(t, repo.AuthorizeLearner(ctx, 3))

	authorized, err = repo.IsAuthorized(ctx, 11)
	require.NoError(t, err)
	assert.True(t, authorized)

	ids, err := repo.ListAuthorized(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 11}, ids)
}

func vocabularyIDs(records []domain.ProgressRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.VocabularyID)
	}
	return out
}
