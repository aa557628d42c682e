package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"vocabsrs/internal/domain"
	"vocabsrs/internal/repository"

	"github.com/lib/pq"
)

const vocabularyColumns = `vocabulary_id, term, reading, romanization, translation, level`

// VocabularyRepo implements repository.VocabularyRepository over the vocabulary table
type VocabularyRepo struct {
	db *sql.DB
}

// NewVocabularyRepo creates a new vocabulary repository
func NewVocabularyRepo(db *sql.DB) *VocabularyRepo {
	return &VocabularyRepo{db: db}
}

// Get returns one catalog item
func (r *VocabularyRepo) Get(ctx context.Context, vocabularyID string) (*domain.VocabularyItem, error) {
	query := `SELECT ` + vocabularyColumns + ` FROM vocabulary WHERE vocabulary_id = $1`

	var v domain.VocabularyItem
	err := r.db.QueryRowContext(ctx, query, vocabularyID).Scan(
		&v.ID, &v.Term, &v.Reading, &v.Romanization, &v.Translation, &v.Level,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// List returns catalog items in catalog order
func (r *VocabularyRepo) List(ctx context.Context, levels []string) ([]domain.VocabularyItem, error) {
	query := `SELECT ` + vocabularyColumns + ` FROM vocabulary`
	args := []interface{}{}

	if len(levels) > 0 {
		lowered := make([]string, len(levels))
		for i, l := range levels {
			lowered[i] = strings.ToLower(l)
		}
		query += ` WHERE LOWER(level) = ANY($1)`
		args = append(args, pq.Array(lowered))
	}
	query += ` ORDER BY position, vocabulary_id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.VocabularyItem{}
	for rows.Next() {
		var v domain.VocabularyItem
		if err := rows.Scan(&v.ID, &v.Term, &v.Reading, &v.Romanization, &v.Translation, &v.Level); err != nil {
			return nil, err
		}
		items = append(items, v)
	}

	return items, rows.Err()
}

// SaveItems makes the table match the catalog: items are upserted with their
// order in position and items no longer listed are removed. Progress rows of
// removed items are left alone and ignored until the item comes back.
func (r *VocabularyRepo) SaveItems(ctx context.Context, items []domain.VocabularyItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO vocabulary (` + vocabularyColumns + `, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (vocabulary_id) DO UPDATE SET
			term = EXCLUDED.term,
			reading = EXCLUDED.reading,
			romanization = EXCLUDED.romanization,
			translation = EXCLUDED.translation,
			level = EXCLUDED.level,
			position = EXCLUDED.position
	`
	for i, v := range items {
		if _, err := tx.ExecContext(ctx, query, v.ID, v.Term, v.Reading, v.Romanization, v.Translation, v.Level, i); err != nil {
			return err
		}
	}

	ids := make([]string, 0, len(items))
	for _, v := range items {
		ids = append(ids, v.ID)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM vocabulary WHERE NOT (vocabulary_id = ANY($1))`, pq.Array(ids)); err != nil {
		return err
	}

	return tx.Commit()
}
