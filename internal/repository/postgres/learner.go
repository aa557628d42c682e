package postgres

import (
	"context"
	"database/sql"
)

// LearnerRepo implements repository.LearnerRepository
type LearnerRepo struct {
	db *sql.DB
}

// NewLearnerRepo creates a new learner repository
func NewLearnerRepo(db *sql.DB) *LearnerRepo {
	return &LearnerRepo{db: db}
}

// IsAuthorized checks if learner is authorized
func (r *LearnerRepo) IsAuthorized(ctx context.Context, learnerID int64) (bool, error) {
	var authorized bool
	query := `SELECT authorized FROM learners WHERE learner_id = $1`
	err := r.db.QueryRowContext(ctx, query, learnerID).Scan(&authorized)

	if err == sql.ErrNoRows {
		// Learner doesn't exist yet
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return authorized, nil
}

// AuthorizeLearner marks learner as authorized
func (r *LearnerRepo) AuthorizeLearner(ctx context.Context, learnerID int64) error {
	query := `
		INSERT INTO learners (learner_id, authorized)
		VALUES ($1, TRUE)
		ON CONFLICT (learner_id)
		DO UPDATE SET authorized = TRUE
	`
	_, err := r.db.ExecContext(ctx, query, learnerID)
	return err
}

// EnsureLearnerExists creates learner if not exists
func (r *LearnerRepo) EnsureLearnerExists(ctx context.Context, learnerID int64) error {
	query := `
		INSERT INTO learners (learner_id, authorized)
		VALUES ($1, FALSE)
		ON CONFLICT (learner_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, learnerID)
	return err
}

// ListAuthorized returns IDs of all authorized learners
func (r *LearnerRepo) ListAuthorized(ctx context.Context) ([]int64, error) {
	query := `SELECT learner_id FROM learners WHERE authorized = TRUE ORDER BY learner_id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
