// Package api exposes the review engine over HTTP.
package api

import (
	"context"
	"time"

	"vocabsrs/internal/domain"
	"vocabsrs/internal/service"
	"vocabsrs/internal/srs"

	"go.uber.org/zap"
)

// Reviews is the review surface the API depends on
type Reviews interface {
	ListDue(ctx context.Context, learnerID int64, opts srs.DueOptions) ([]srs.DueItem, error)
	SubmitReview(ctx context.Context, learnerID int64, vocabularyID string, rating domain.Rating, reviewedAt time.Time) (*domain.ProgressRecord, error)
	SubmitBatch(ctx context.Context, learnerID int64, reviews []service.ReviewInput) ([]service.BatchResult, error)
	GetProgress(ctx context.Context, learnerID int64, vocabularyID string) (*domain.ProgressRecord, error)
	ResetProgress(ctx context.Context, learnerID int64, vocabularyID string) error
	Now() time.Time
}

// Stats reports learner progress counts
type Stats interface {
	Stats(ctx context.Context, learnerID int64, levels []string) (domain.ProgressStats, error)
	Forecast(ctx context.Context, learnerID int64, horizon int) ([]domain.Day, error)
}

// Handler serves the HTTP API
type Handler struct {
	reviews Reviews
	stats   Stats
	logger  *zap.Logger
}

// NewHandler creates a new API handler
func NewHandler(reviews Reviews, stats Stats, logger *zap.Logger) *Handler {
	return &Handler{
		reviews: reviews,
		stats:   stats,
		logger:  logger,
	}
}
