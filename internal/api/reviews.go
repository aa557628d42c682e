package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"vocabsrs/internal/domain"
	"vocabsrs/internal/service"
	"vocabsrs/internal/srs"

	"github.com/gin-gonic/gin"
)

type dueItemResponse struct {
	VocabularyID   string    `json:"vocabulary_id"`
	Term           string    `json:"term"`
	Reading        string    `json:"reading,omitempty"`
	Romanization   string    `json:"romanization,omitempty"`
	Translation    string    `json:"translation"`
	Level          string    `json:"level,omitempty"`
	EaseFactor     float64   `json:"ease_factor"`
	IntervalDays   int       `json:"interval_days"`
	Repetitions    int       `json:"repetitions"`
	NextReviewDate time.Time `json:"next_review_date"`
	New            bool      `json:"new"`
}

type reviewRequest struct {
	VocabularyID string     `json:"vocabulary_id" binding:"required"`
	Rating       int        `json:"rating" binding:"required"`
	ReviewedAt   *time.Time `json:"reviewed_at"`
}

type batchRequest struct {
	Reviews []reviewRequest `json:"reviews" binding:"required,min=1,dive"`
}

type batchResult struct {
	VocabularyID string                 `json:"vocabulary_id"`
	Status       int                    `json:"status"`
	Record       *domain.ProgressRecord `json:"record,omitempty"`
	Error        string                 `json:"error,omitempty"`
}

// ListDue handles GET /v1/reviews/due
func (h *Handler) ListDue(c *gin.Context) {
	opts := srs.DueOptions{Levels: levelsFromQuery(c)}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			badRequest(c, "limit must be a non-negative integer")
			return
		}
		opts.Limit = limit
	}
	if raw := c.Query("exclude_new"); raw != "" {
		exclude, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "exclude_new must be a boolean")
			return
		}
		opts.ExcludeNew = exclude
	}

	id := learnerID(c)
	due, err := h.reviews.ListDue(c.Request.Context(), id, opts)
	if err != nil {
		abortWithError(c, err)
		return
	}

	now := h.reviews.Now()
	items := make([]dueItemResponse, 0, len(due))
	for _, d := range due {
		p := domain.DefaultProgress(id, d.Item.ID, now)
		if d.Progress != nil {
			p = *d.Progress
		}
		items = append(items, dueItemResponse{
			VocabularyID:   d.Item.ID,
			Term:           d.Item.Term,
			Reading:        d.Item.Reading,
			Romanization:   d.Item.Romanization,
			Translation:    d.Item.Translation,
			Level:          d.Item.Level,
			EaseFactor:     p.EaseFactor,
			IntervalDays:   p.IntervalDays,
			Repetitions:    p.Repetitions,
			NextReviewDate: p.NextReviewDate,
			New:            d.IsNew(),
		})
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// SubmitReview handles POST /v1/reviews
func (h *Handler) SubmitReview(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}

	record, err := h.reviews.SubmitReview(c.Request.Context(), learnerID(c), req.VocabularyID, domain.Rating(req.Rating), req.reviewedAt())
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// SubmitBatch handles POST /v1/reviews/batch
func (h *Handler) SubmitBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}

	inputs := make([]service.ReviewInput, 0, len(req.Reviews))
	for _, r := range req.Reviews {
		inputs = append(inputs, service.ReviewInput{
			VocabularyID: r.VocabularyID,
			Rating:       domain.Rating(r.Rating),
			ReviewedAt:   r.reviewedAt(),
		})
	}

	results, err := h.reviews.SubmitBatch(c.Request.Context(), learnerID(c), inputs)
	if err != nil {
		abortWithError(c, err)
		return
	}

	out := make([]batchResult, 0, len(results))
	for _, r := range results {
		res := batchResult{VocabularyID: r.VocabularyID, Status: http.StatusOK, Record: r.Record}
		if r.Err != nil {
			res.Status = statusFor(r.Err)
			res.Error = r.Err.Error()
		}
		out = append(out, res)
	}

	c.JSON(http.StatusOK, gin.H{"results": out})
}

func (r reviewRequest) reviewedAt() time.Time {
	if r.ReviewedAt == nil {
		return time.Time{}
	}
	return *r.ReviewedAt
}

// levelsFromQuery accepts both ?level=N5&level=N4 and ?level=N5,N4
func levelsFromQuery(c *gin.Context) []string {
	var levels []string
	for _, raw := range c.QueryArray("level") {
		for _, l := range strings.Split(raw, ",") {
			if l = strings.TrimSpace(l); l != "" {
				levels = append(levels, l)
			}
		}
	}
	return levels
}
