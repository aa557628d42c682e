// Package badger stores progress and learners in an embedded BadgerDB.
package badger

import (
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// Config controls how the database is opened
type Config struct {
	// Path is the data directory. Ignored when InMemory is set.
	Path       string
	InMemory   bool
	SyncWrites bool
	Logger     *zap.Logger
}

// DB wraps the badger handle; it is opened at start-up and closed on shutdown
type DB struct {
	db     *badger.DB
	logger *zap.Logger
}

// Open opens (creating if needed) the database described by cfg
func Open(cfg Config) (*DB, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("badger path is required for a persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
		opts = opts.WithLogger(nil)
	} else {
		opts = opts.WithLogger(zapLogger{logger.Sugar()})
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	return &DB{db: db, logger: logger}, nil
}

// OpenInMemory opens a throwaway database, used by tests
func OpenInMemory() (*DB, error) {
	return Open(Config{InMemory: true})
}

// Close flushes and closes the database
func (d *DB) Close() error {
	return d.db.Close()
}

// RunGC reclaims value log space. It is safe to call periodically.
func (d *DB) RunGC() error {
	err := d.db.RunValueLogGC(0.5)
	if err == nil || errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
		return nil
	}
	return err
}

// update retries the transaction when badger detects a concurrent write
func (d *DB) update(fn func(txn *badger.Txn) error) error {
	const attempts = 16

	var err error
	for i := 0; i < attempts; i++ {
		err = d.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		d.logger.Debug("badger transaction conflict, retrying", zap.Int("attempt", i+1))
	}
	return err
}

type zapLogger struct {
	s *zap.SugaredLogger
}

func (l zapLogger) Errorf(format string, args ...interface{})   { l.s.Errorf(format, args...) }
func (l zapLogger) Warningf(format string, args ...interface{}) { l.s.Warnf(format, args...) }
func (l zapLogger) Infof(format string, args ...interface{})    { l.s.Infof(format, args...) }
func (l zapLogger) Debugf(format string, args ...interface{})   { l.s.Debugf(format, args...) }
