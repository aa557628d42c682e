package service

import (
	"context"
	"time"

	"vocabsrs/internal/domain"
	"vocabsrs/internal/repository"
	"vocabsrs/internal/srs"

	"go.uber.org/zap"
)

const maxForecastDays = 60

// StatsService reports learner progress and due-card digests
type StatsService struct {
	progress repository.ProgressRepository
	catalog  repository.VocabularyRepository
	learners repository.LearnerRepository
	policy   srs.MasteryPolicy
	location *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

// NewStatsService creates a new stats service
func NewStatsService(
	progress repository.ProgressRepository,
	catalog repository.VocabularyRepository,
	learners repository.LearnerRepository,
	policy srs.MasteryPolicy,
	location *time.Location,
	logger *zap.Logger,
) *StatsService {
	if location == nil {
		location = time.UTC
	}
	return &StatsService{
		progress: progress,
		catalog:  catalog,
		learners: learners,
		policy:   policy,
		location: location,
		logger:   logger,
		now:      time.Now,
	}
}

// Stats counts the learner's items by learning stage
func (s *StatsService) Stats(ctx context.Context, learnerID int64, levels []string) (domain.ProgressStats, error) {
	if learnerID <= 0 {
		return domain.ProgressStats{}, validationError("learner id is required")
	}

	items, err := s.catalog.List(ctx, levels)
	if err != nil {
		return domain.ProgressStats{}, storeError("list vocabulary", err)
	}

	records, err := s.progress.List(ctx, learnerID, repository.ProgressFilter{VocabularyIDs: itemIDs(items)})
	if err != nil {
		return domain.ProgressStats{}, storeError("list progress", err)
	}

	return srs.Summarize(records, items, s.now().In(s.location), s.policy, levels), nil
}

// Forecast groups the learner's reviewed cards by the day they fall due,
// from today up to horizon days ahead. Overdue cards count towards today.
// Days without cards are omitted.
func (s *StatsService) Forecast(ctx context.Context, learnerID int64, horizon int) ([]domain.Day, error) {
	if learnerID <= 0 {
		return nil, validationError("learner id is required")
	}
	if horizon <= 0 || horizon > maxForecastDays {
		return nil, validationError("horizon must be between 1 and %d days", maxForecastDays)
	}

	today := domain.StartOfDay(s.now().In(s.location))
	until := today.AddDate(0, 0, horizon).Add(-time.Nanosecond)

	items, err := s.catalog.List(ctx, nil)
	if err != nil {
		return nil, storeError("list vocabulary", err)
	}
	records, err := s.progress.ListDue(ctx, learnerID, until, repository.ProgressFilter{VocabularyIDs: itemIDs(items)})
	if err != nil {
		return nil, storeError("list due progress", err)
	}

	counts := make([]int, horizon)
	for _, r := range records {
		offset := domain.DaysBetween(today, r.NextReviewDate)
		if offset < 0 {
			offset = 0
		}
		if offset < horizon {
			counts[offset]++
		}
	}

	days := make([]domain.Day, 0, horizon)
	for i, n := range counts {
		if n > 0 {
			days = append(days, domain.Day{Date: today.AddDate(0, 0, i), CardCount: n})
		}
	}
	return days, nil
}

// DueDigest returns, for every authorized learner with work waiting, the
// number of reviewed cards due today
func (s *StatsService) DueDigest(ctx context.Context) (map[int64]int, error) {
	learners, err := s.learners.ListAuthorized(ctx)
	if err != nil {
		return nil, storeError("list learners", err)
	}

	endOfDay := domain.StartOfDay(s.now().In(s.location)).AddDate(0, 0, 1).Add(-time.Nanosecond)
	digest := make(map[int64]int, len(learners))

	for _, id := range learners {
		due, err := s.progress.ListDue(ctx, id, endOfDay, repository.ProgressFilter{})
		if err != nil {
			s.logger.Error("Failed to count due cards",
				zap.Int64("learner_id", id),
				zap.Error(err),
			)
			continue
		}
		if len(due) > 0 {
			digest[id] = len(due)
		}
	}

	s.logger.Info("Due digest computed",
		zap.Int("learners", len(learners)),
		zap.Int("with_due_cards", len(digest)),
	)
	return digest, nil
}
