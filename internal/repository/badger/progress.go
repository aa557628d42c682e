package badger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"vocabsrs/internal/domain"
	"vocabsrs/internal/repository"

	"github.com/dgraph-io/badger/v4"
)

// Key layout:
//
//	p/<learner>/<vocabulary>                 -> JSON record
//	d/<learner>/<due, 8 bytes>/<vocabulary>  -> empty, due-date index
const (
	progressPrefix = "p/"
	duePrefix      = "d/"
)

// ProgressRepo implements repository.ProgressRepository on badger
type ProgressRepo struct {
	db *DB
}

// NewProgressRepo creates a new progress repository
func NewProgressRepo(db *DB) *ProgressRepo {
	return &ProgressRepo{db: db}
}

func progressKey(learnerID int64, vocabularyID string) []byte {
	return []byte(fmt.Sprintf("%s%d/%s", progressPrefix, learnerID, vocabularyID))
}

func learnerDuePrefix(learnerID int64) []byte {
	return []byte(fmt.Sprintf("%s%d/", duePrefix, learnerID))
}

// dueKey sorts by due time: the sign bit is flipped so that big-endian byte
// order matches numeric order.
func dueKey(learnerID int64, due time.Time, vocabularyID string) []byte {
	key := learnerDuePrefix(learnerID)
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(due.UnixNano())^(1<<63))
	key = append(key, ts[:]...)
	key = append(key, '/')
	return append(key, vocabularyID...)
}

func dueKeyTime(key, prefix []byte) time.Time {
	raw := binary.BigEndian.Uint64(key[len(prefix) : len(prefix)+8])
	return time.Unix(0, int64(raw^(1<<63)))
}

func getRecord(txn *badger.Txn, key []byte) (*domain.ProgressRecord, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var p domain.ProgressRecord
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &p)
	})
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return &p, nil
}

// Get returns the learner's progress on one item
func (r *ProgressRepo) Get(ctx context.Context, learnerID int64, vocabularyID string) (*domain.ProgressRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var p *domain.ProgressRecord
	err := r.db.db.View(func(txn *badger.Txn) error {
		var err error
		p, err = getRecord(txn, progressKey(learnerID, vocabularyID))
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Upsert stores the record and its due index entry in one transaction
func (r *ProgressRepo) Upsert(ctx context.Context, p *domain.ProgressRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.LastReviewedAt == nil {
		return fmt.Errorf("upsert %s: last_reviewed_at is required", p.VocabularyID)
	}

	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	key := progressKey(p.LearnerID, p.VocabularyID)

	return r.db.update(func(txn *badger.Txn) error {
		old, err := getRecord(txn, key)
		switch {
		case errors.Is(err, repository.ErrNotFound):
		case err != nil:
			return err
		default:
			if old.LastReviewedAt != nil && !p.LastReviewedAt.After(*old.LastReviewedAt) {
				return repository.ErrConflict
			}
			if err := txn.Delete(dueKey(old.LearnerID, old.NextReviewDate, old.VocabularyID)); err != nil {
				return err
			}
		}

		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set(dueKey(p.LearnerID, p.NextReviewDate, p.VocabularyID), nil)
	})
}

// ListDue walks the due index up to now, so only due records are read
func (r *ProgressRepo) ListDue(ctx context.Context, learnerID int64, now time.Time, filter repository.ProgressFilter) ([]domain.ProgressRecord, error) {
	records := []domain.ProgressRecord{}
	if filter.VocabularyIDs != nil && len(filter.VocabularyIDs) == 0 {
		return records, nil
	}
	allowed := toSet(filter.VocabularyIDs)
	prefix := learnerDuePrefix(learnerID)

	err := r.db.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			key := it.Item().KeyCopy(nil)
			if len(key) < len(prefix)+9 {
				continue
			}
			if dueKeyTime(key, prefix).After(now) {
				break
			}

			vocabularyID := string(key[len(prefix)+9:])
			if allowed != nil {
				if _, ok := allowed[vocabularyID]; !ok {
					continue
				}
			}

			p, err := getRecord(txn, progressKey(learnerID, vocabularyID))
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			records = append(records, *p)

			if filter.Limit > 0 && len(records) >= filter.Limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// List returns every record of the learner ordered like ListDue
func (r *ProgressRepo) List(ctx context.Context, learnerID int64, filter repository.ProgressFilter) ([]domain.ProgressRecord, error) {
	return r.ListDue(ctx, learnerID, time.Unix(0, 1<<63-1), filter)
}

// Delete removes the record and its index entry
func (r *ProgressRepo) Delete(ctx context.Context, learnerID int64, vocabularyID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := progressKey(learnerID, vocabularyID)

	return r.db.update(func(txn *badger.Txn) error {
		old, err := getRecord(txn, key)
		if err != nil {
			return err
		}
		if err := txn.Delete(dueKey(old.LearnerID, old.NextReviewDate, old.VocabularyID)); err != nil {
			return err
		}
		return txn.Delete(key)
	})
}

func toSet(ids []string) map[string]struct{} {
	if ids == nil {
		return nil
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

var _ repository.ProgressRepository = (*ProgressRepo)(nil)
