package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"vocabsrs/internal/domain"
	"vocabsrs/internal/repository"

	"github.com/dgraph-io/badger/v4"
)

const learnerPrefix = "l/"

// LearnerRepo implements repository.LearnerRepository on badger
type LearnerRepo struct {
	db  *DB
	now func() time.Time
}

// NewLearnerRepo creates a new learner repository
func NewLearnerRepo(db *DB) *LearnerRepo {
	return &LearnerRepo{db: db, now: time.Now}
}

func learnerKey(learnerID int64) []byte {
	return []byte(learnerPrefix + strconv.FormatInt(learnerID, 10))
}

func getLearner(txn *badger.Txn, learnerID int64) (*domain.Learner, error) {
	item, err := txn.Get(learnerKey(learnerID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var l domain.Learner
	if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &l) }); err != nil {
		return nil, fmt.Errorf("decode learner %d: %w", learnerID, err)
	}
	return &l, nil
}

func putLearner(txn *badger.Txn, l *domain.Learner) error {
	data, err := json.Marshal(l)
	if err != nil {
		return err
	}
	return txn.Set(learnerKey(l.ID), data)
}

// IsAuthorized checks if learner is authorized
func (r *LearnerRepo) IsAuthorized(ctx context.Context, learnerID int64) (bool, error) {
	var authorized bool
	err := r.db.db.View(func(txn *badger.Txn) error {
		l, err := getLearner(txn, learnerID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		authorized = l.Authorized
		return nil
	})
	return authorized, err
}

// AuthorizeLearner marks learner as authorized
func (r *LearnerRepo) AuthorizeLearner(ctx context.Context, learnerID int64) error {
	return r.db.update(func(txn *badger.Txn) error {
		l, err := getLearner(txn, learnerID)
		if errors.Is(err, repository.ErrNotFound) {
			l = &domain.Learner{ID: learnerID, CreatedAt: r.now()}
		} else if err != nil {
			return err
		}
		l.Authorized = true
		return putLearner(txn, l)
	})
}

// EnsureLearnerExists creates learner if not exists
func (r *LearnerRepo) EnsureLearnerExists(ctx context.Context, learnerID int64) error {
	return r.db.update(func(txn *badger.Txn) error {
		_, err := getLearner(txn, learnerID)
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return putLearner(txn, &domain.Learner{ID: learnerID, CreatedAt: r.now()})
	})
}

// ListAuthorized returns IDs of all authorized learners
func (r *LearnerRepo) ListAuthorized(ctx context.Context) ([]int64, error) {
	var ids []int64
	prefix := []byte(learnerPrefix)

	err := r.db.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var l domain.Learner
			if err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &l) }); err != nil {
				return err
			}
			if l.Authorized {
				ids = append(ids, l.ID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

var _ repository.LearnerRepository = (*LearnerRepo)(nil)
