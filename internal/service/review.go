package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"vocabsrs/internal/domain"
	"vocabsrs/internal/metrics"
	"vocabsrs/internal/repository"
	"vocabsrs/internal/srs"

	"go.uber.org/zap"
)

// ReviewConfig tunes the review service
type ReviewConfig struct {
	Scheduler srs.Scheduler
	// Location decides where calendar days start
	Location *time.Location
	// DefaultLimit applies when a due query does not set one
	DefaultLimit int
	// MaxLimit caps any due query
	MaxLimit int
}

// DefaultReviewConfig returns strict SM-2 in UTC with a 20 item queue
func DefaultReviewConfig() ReviewConfig {
	return ReviewConfig{
		Location:     time.UTC,
		DefaultLimit: 20,
		MaxLimit:     500,
	}
}

// ReviewInput is one entry of a batch submission
type ReviewInput struct {
	VocabularyID string
	Rating       domain.Rating
	// ReviewedAt defaults to the current time when zero
	ReviewedAt time.Time
}

// BatchResult is the outcome of one batch entry; exactly one field is set
type BatchResult struct {
	VocabularyID string
	Record       *domain.ProgressRecord
	Err          error
}

// ReviewService applies reviews and builds due queues
type ReviewService struct {
	progress repository.ProgressRepository
	catalog  repository.VocabularyRepository
	cfg      ReviewConfig
	logger   *zap.Logger
	locks    *keyedMutex
	now      func() time.Time
}

// NewReviewService creates a new review service
func NewReviewService(
	progress repository.ProgressRepository,
	catalog repository.VocabularyRepository,
	cfg ReviewConfig,
	logger *zap.Logger,
) *ReviewService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = DefaultReviewConfig().DefaultLimit
	}
	if cfg.MaxLimit < cfg.DefaultLimit {
		cfg.MaxLimit = cfg.DefaultLimit
	}

	return &ReviewService{
		progress: progress,
		catalog:  catalog,
		cfg:      cfg,
		logger:   logger,
		locks:    newKeyedMutex(),
		now:      time.Now,
	}
}

// Now returns the current time in the configured location
func (s *ReviewService) Now() time.Time {
	return s.now().In(s.cfg.Location)
}

// SubmitReview rates one item for a learner and stores the new schedule.
// The first review of an item starts from domain.DefaultProgress.
func (s *ReviewService) SubmitReview(ctx context.Context, learnerID int64, vocabularyID string, rating domain.Rating, reviewedAt time.Time) (*domain.ProgressRecord, error) {
	record, err := s.submit(ctx, learnerID, vocabularyID, rating, reviewedAt)
	if err != nil {
		metrics.ReviewFailures.WithLabelValues(failureReason(err)).Inc()
		if errors.Is(err, ErrStoreUnavailable) {
			s.logger.Error("Failed to apply review",
				zap.Int64("learner_id", learnerID),
				zap.String("vocabulary_id", vocabularyID),
				zap.Error(err),
			)
		}
		return nil, err
	}

	metrics.ReviewsTotal.WithLabelValues(rating.String()).Inc()
	s.logger.Debug("Review applied",
		zap.Int64("learner_id", learnerID),
		zap.String("vocabulary_id", vocabularyID),
		zap.Stringer("rating", rating),
		zap.Int("interval_days", record.IntervalDays),
		zap.Int("repetitions", record.Repetitions),
		zap.Float64("ease_factor", record.EaseFactor),
	)
	return record, nil
}

func (s *ReviewService) submit(ctx context.Context, learnerID int64, vocabularyID string, rating domain.Rating, reviewedAt time.Time) (*domain.ProgressRecord, error) {
	vocabularyID = strings.TrimSpace(vocabularyID)
	if learnerID <= 0 {
		return nil, validationError("learner id is required")
	}
	if vocabularyID == "" {
		return nil, validationError("vocabulary id is required")
	}
	if !rating.IsValid() {
		return nil, fmt.Errorf("%w: %w", ErrValidation, fmt.Errorf("%w: %d", domain.ErrInvalidRating, int(rating)))
	}

	if reviewedAt.IsZero() {
		reviewedAt = s.now()
	}
	// Postgres keeps microseconds; truncating keeps retries byte-identical.
	reviewedAt = reviewedAt.In(s.cfg.Location).Truncate(time.Microsecond)

	if _, err := s.catalog.Get(ctx, vocabularyID); err != nil {
		return nil, storeError("get vocabulary", err)
	}

	unlock := s.locks.Lock(fmt.Sprintf("%d/%s", learnerID, vocabularyID))
	defer unlock()

	current, err := s.timedGet(ctx, learnerID, vocabularyID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		fresh := domain.DefaultProgress(learnerID, vocabularyID, reviewedAt)
		current = &fresh
	case err != nil:
		return nil, storeError("get progress", err)
	}

	if current.LastReviewedAt != nil && !reviewedAt.After(*current.LastReviewedAt) {
		return nil, ErrConflict
	}

	next, err := s.cfg.Scheduler.Apply(*current, rating, reviewedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	start := time.Now()
	err = s.progress.Upsert(ctx, &next)
	metrics.StoreLatency.WithLabelValues("upsert").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, storeError("upsert progress", err)
	}

	return &next, nil
}

func (s *ReviewService) timedGet(ctx context.Context, learnerID int64, vocabularyID string) (*domain.ProgressRecord, error) {
	start := time.Now()
	defer func() {
		metrics.StoreLatency.WithLabelValues("get").Observe(time.Since(start).Seconds())
	}()
	return s.progress.Get(ctx, learnerID, vocabularyID)
}

// SubmitBatch applies each review independently: one failing entry does
// not undo or block the others
func (s *ReviewService) SubmitBatch(ctx context.Context, learnerID int64, reviews []ReviewInput) ([]BatchResult, error) {
	if len(reviews) == 0 {
		return nil, validationError("batch is empty")
	}
	if len(reviews) > s.cfg.MaxLimit {
		return nil, validationError("batch exceeds %d reviews", s.cfg.MaxLimit)
	}

	results := make([]BatchResult, 0, len(reviews))
	for _, r := range reviews {
		record, err := s.SubmitReview(ctx, learnerID, r.VocabularyID, r.Rating, r.ReviewedAt)
		results = append(results, BatchResult{VocabularyID: r.VocabularyID, Record: record, Err: err})
	}
	return results, nil
}

// ListDue returns the learner's due queue ordered for review
func (s *ReviewService) ListDue(ctx context.Context, learnerID int64, opts srs.DueOptions) ([]srs.DueItem, error) {
	if learnerID <= 0 {
		return nil, validationError("learner id is required")
	}
	opts.Limit = s.clampLimit(opts.Limit)
	now := s.Now()

	items, err := s.catalog.List(ctx, opts.Levels)
	if err != nil {
		return nil, storeError("list vocabulary", err)
	}

	// Records of items gone from the catalog must not take up the limit.
	scope := itemIDs(items)

	start := time.Now()
	records, err := s.progress.ListDue(ctx, learnerID, now, repository.ProgressFilter{VocabularyIDs: scope, Limit: opts.Limit})
	metrics.StoreLatency.WithLabelValues("list_due").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, storeError("list due progress", err)
	}

	// New items are only told apart from reviewed-but-not-due ones by
	// looking at every record, so read them only when they can matter.
	if !opts.ExcludeNew && len(records) < opts.Limit {
		records, err = s.progress.List(ctx, learnerID, repository.ProgressFilter{VocabularyIDs: scope})
		if err != nil {
			return nil, storeError("list progress", err)
		}
	}

	due := srs.CalculateDueItems(records, items, now, opts)
	metrics.DueQueueSize.Observe(float64(len(due)))
	return due, nil
}

// CramQueue returns every catalog item in scope, in catalog order, joined
// with existing progress. Due dates are ignored.
func (s *ReviewService) CramQueue(ctx context.Context, learnerID int64, levels []string, limit int) ([]srs.DueItem, error) {
	if learnerID <= 0 {
		return nil, validationError("learner id is required")
	}
	limit = s.clampLimit(limit)

	items, err := s.catalog.List(ctx, levels)
	if err != nil {
		return nil, storeError("list vocabulary", err)
	}
	if len(items) > limit {
		items = items[:limit]
	}

	records, err := s.progress.List(ctx, learnerID, repository.ProgressFilter{VocabularyIDs: itemIDs(items)})
	if err != nil {
		return nil, storeError("list progress", err)
	}
	byID := make(map[string]domain.ProgressRecord, len(records))
	for _, r := range records {
		byID[r.VocabularyID] = r
	}

	queue := make([]srs.DueItem, 0, len(items))
	for _, it := range items {
		entry := srs.DueItem{Item: it}
		if r, ok := byID[it.ID]; ok {
			entry.Progress = &r
		}
		queue = append(queue, entry)
	}
	return queue, nil
}

// GetProgress returns one progress record
func (s *ReviewService) GetProgress(ctx context.Context, learnerID int64, vocabularyID string) (*domain.ProgressRecord, error) {
	if learnerID <= 0 || strings.TrimSpace(vocabularyID) == "" {
		return nil, validationError("learner id and vocabulary id are required")
	}

	p, err := s.timedGet(ctx, learnerID, strings.TrimSpace(vocabularyID))
	if err != nil {
		return nil, storeError("get progress", err)
	}
	return p, nil
}

// ResetProgress forgets a learner's history on one item
func (s *ReviewService) ResetProgress(ctx context.Context, learnerID int64, vocabularyID string) error {
	vocabularyID = strings.TrimSpace(vocabularyID)
	if learnerID <= 0 || vocabularyID == "" {
		return validationError("learner id and vocabulary id are required")
	}

	unlock := s.locks.Lock(fmt.Sprintf("%d/%s", learnerID, vocabularyID))
	defer unlock()

	if err := s.progress.Delete(ctx, learnerID, vocabularyID); err != nil {
		return storeError("delete progress", err)
	}

	s.logger.Info("Progress reset",
		zap.Int64("learner_id", learnerID),
		zap.String("vocabulary_id", vocabularyID),
	)
	return nil
}

func (s *ReviewService) clampLimit(limit int) int {
	if limit <= 0 {
		return s.cfg.DefaultLimit
	}
	if limit > s.cfg.MaxLimit {
		return s.cfg.MaxLimit
	}
	return limit
}

func itemIDs(items []domain.VocabularyItem) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids
}
