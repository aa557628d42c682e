package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"vocabsrs/internal/domain"
	"vocabsrs/internal/repository"

	"github.com/lib/pq"
)

const progressColumns = `learner_id, vocabulary_id, ease_factor, interval_days, repetitions, next_review_date, last_reviewed_at`

// ProgressRepo implements repository.ProgressRepository
type ProgressRepo struct {
	db *sql.DB
}

// NewProgressRepo creates a new progress repository
func NewProgressRepo(db *sql.DB) *ProgressRepo {
	return &ProgressRepo{db: db}
}

// Get returns the learner's progress on one item
func (r *ProgressRepo) Get(ctx context.Context, learnerID int64, vocabularyID string) (*domain.ProgressRecord, error) {
	query := `SELECT ` + progressColumns + ` FROM progress WHERE learner_id = $1 AND vocabulary_id = $2`

	p, err := scanProgress(r.db.QueryRowContext(ctx, query, learnerID, vocabularyID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Upsert inserts or replaces a record in a single statement.
// The conflict branch only fires when the stored review is strictly older.
func (r *ProgressRepo) Upsert(ctx context.Context, p *domain.ProgressRecord) error {
	if p.LastReviewedAt == nil {
		return fmt.Errorf("upsert %s: last_reviewed_at is required", p.VocabularyID)
	}

	query := `
		INSERT INTO progress (` + progressColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (learner_id, vocabulary_id) DO UPDATE SET
			ease_factor = EXCLUDED.ease_factor,
			interval_days = EXCLUDED.interval_days,
			repetitions = EXCLUDED.repetitions,
			next_review_date = EXCLUDED.next_review_date,
			last_reviewed_at = EXCLUDED.last_reviewed_at
		WHERE progress.last_reviewed_at IS NULL
			OR progress.last_reviewed_at < EXCLUDED.last_reviewed_at
	`
	res, err := r.db.ExecContext(ctx, query,
		p.LearnerID,
		p.VocabularyID,
		p.EaseFactor,
		p.IntervalDays,
		p.Repetitions,
		p.NextReviewDate,
		p.LastReviewedAt.Truncate(time.Microsecond),
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrConflict
	}
	return nil
}

// ListDue returns due records, most overdue first
func (r *ProgressRepo) ListDue(ctx context.Context, learnerID int64, now time.Time, filter repository.ProgressFilter) ([]domain.ProgressRecord, error) {
	return r.list(ctx, learnerID, &now, filter)
}

// List returns all of the learner's records ordered like ListDue
func (r *ProgressRepo) List(ctx context.Context, learnerID int64, filter repository.ProgressFilter) ([]domain.ProgressRecord, error) {
	return r.list(ctx, learnerID, nil, filter)
}

func (r *ProgressRepo) list(ctx context.Context, learnerID int64, dueBy *time.Time, filter repository.ProgressFilter) ([]domain.ProgressRecord, error) {
	if filter.VocabularyIDs != nil && len(filter.VocabularyIDs) == 0 {
		return []domain.ProgressRecord{}, nil
	}

	conds := []string{"learner_id = $1"}
	args := []interface{}{learnerID}

	if dueBy != nil {
		args = append(args, *dueBy)
		conds = append(conds, fmt.Sprintf("next_review_date <= $%d", len(args)))
	}
	if filter.VocabularyIDs != nil {
		args = append(args, pq.Array(filter.VocabularyIDs))
		conds = append(conds, fmt.Sprintf("vocabulary_id = ANY($%d)", len(args)))
	}

	query := `SELECT ` + progressColumns + ` FROM progress WHERE ` + strings.Join(conds, " AND ") +
		` ORDER BY next_review_date, vocabulary_id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []domain.ProgressRecord{}
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *p)
	}

	return records, rows.Err()
}

// Delete removes the record, returning the item to "never reviewed"
func (r *ProgressRepo) Delete(ctx context.Context, learnerID int64, vocabularyID string) error {
	query := `DELETE FROM progress WHERE learner_id = $1 AND vocabulary_id = $2`

	res, err := r.db.ExecContext(ctx, query, learnerID, vocabularyID)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProgress(s scanner) (*domain.ProgressRecord, error) {
	var p domain.ProgressRecord
	var lastReviewed sql.NullTime

	err := s.Scan(
		&p.LearnerID, &p.VocabularyID, &p.EaseFactor, &p.IntervalDays,
		&p.Repetitions, &p.NextReviewDate, &lastReviewed,
	)
	if err != nil {
		return nil, err
	}

	if lastReviewed.Valid {
		p.LastReviewedAt = &lastReviewed.Time
	}
	return &p, nil
}
