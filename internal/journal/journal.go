// Package journal records sync runs in a local Badger database.
//
// The journal is a report: nothing in it feeds reconciliation. Runs are
// keyed by start time so prefix iteration yields them in start order.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/shelfsync/shelfsync/internal/domain"
	domainerrors "github.com/shelfsync/shelfsync/internal/errors"
	"github.com/shelfsync/shelfsync/internal/id"
)

const (
	runPrefix     = "run:"
	runByIDPrefix = "idx:run:id:"
)

// Journal wraps a Badger database holding run records.
type Journal struct {
	db     *badger.DB
	logger *slog.Logger
	now    func() time.Time
}

// Open opens or creates the journal at path.
func Open(path string, logger *slog.Logger) (*Journal, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.SyncWrites = true
	opts.CompactL0OnClose = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	logger.Debug("journal opened", "path", path)
	return &Journal{db: db, logger: logger, now: time.Now}, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// runKey sorts lexicographically by start time, then id.
func runKey(r *domain.Run) []byte {
	return fmt.Appendf(nil, "%s%020d:%s", runPrefix, r.StartedAt.UnixNano(), r.ID)
}

// Begin records the start of a run of kind.
func (j *Journal) Begin(ctx context.Context, kind domain.SyncKind) (*domain.Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, domainerrors.Validation(fmt.Sprintf("unknown sync kind %q", kind))
	}
	runID, err := id.Generate(id.PrefixRun)
	if err != nil {
		return nil, err
	}
	run := &domain.Run{
		ID:        runID,
		Kind:      kind,
		StartedAt: j.now().UTC(),
	}
	if err := j.put(run); err != nil {
		return nil, err
	}
	j.logger.Debug("run started", "run_id", run.ID, "kind", kind)
	return run, nil
}

// Finish stamps the run with its end time, stats and error and stores it.
func (j *Journal) Finish(ctx context.Context, run *domain.Run, stats domain.SyncStats, runErr error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	finished := j.now().UTC()
	run.FinishedAt = &finished
	run.Stats = stats
	if runErr != nil {
		run.Error = runErr.Error()
	}
	return j.put(run)
}

func (j *Journal) put(run *domain.Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}
	key := runKey(run)
	return j.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set([]byte(runByIDPrefix+run.ID), key)
	})
}

// Get returns the run with the given id.
func (j *Journal) Get(ctx context.Context, runID string) (*domain.Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var run domain.Run
	err := j.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(runByIDPrefix + runID))
		if err != nil {
			return err
		}
		key, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		item, err = txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &run)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domainerrors.NotFoundf("run %s", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	return &run, nil
}

// Recent returns up to limit runs, newest first. A limit of zero or less
// returns every run.
func (j *Journal) Recent(ctx context.Context, limit int) ([]domain.Run, error) {
	var runs []domain.Run
	err := j.scan(ctx, func(r domain.Run) bool {
		runs = append(runs, r)
		return limit <= 0 || len(runs) < limit
	})
	if err != nil {
		return nil, err
	}
	return runs, nil
}

// LastSuccess returns the newest run that finished without error.
func (j *Journal) LastSuccess(ctx context.Context) (*domain.Run, error) {
	var found *domain.Run
	err := j.scan(ctx, func(r domain.Run) bool {
		if r.Succeeded() {
			found = &r
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, domainerrors.NotFound("no successful run")
	}
	return found, nil
}

// scan visits runs newest first until fn returns false.
func (j *Journal) scan(ctx context.Context, fn func(domain.Run) bool) error {
	prefix := []byte(runPrefix)
	return j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var run domain.Run
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &run)
			})
			if err != nil {
				j.logger.Warn("skipping unreadable run", "key", string(it.Item().Key()), "error", err)
				continue
			}
			if !fn(run) {
				return nil
			}
		}
		return nil
	})
}
