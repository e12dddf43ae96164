package badger

import (
	"bytes"
	"context"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/devscout/core"
	"github.com/poiesic/devscout/storage"
)

// RunRepository implements storage.RunStore for BadgerDB.
type RunRepository struct {
	backend *Backend
}

var _ storage.RunStore = (*RunRepository)(nil)

// NewRunRepository creates a new RunRepository.
func NewRunRepository(backend *Backend) (*RunRepository, error) {
	return &RunRepository{
		backend: backend,
	}, nil
}

// Close releases resources. RunRepository has no resources to release.
func (r *RunRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *RunRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// SaveRun persists a run summary, overwriting any previous version.
func (r *RunRepository) SaveRun(ctx context.Context, record *core.RunRecord) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeRunKey(record.Id)
		value := storage.MarshalRunRecord(record)
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetRun retrieves a single run summary by ID.
func (r *RunRepository) GetRun(ctx context.Context, id core.RunID) (*core.RunRecord, error) {
	var result *core.RunRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeRunKey(id)
		var err error
		result, err = readRunRecord(tx, key)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// LatestRun returns the most recently started run summary.
func (r *RunRepository) LatestRun(ctx context.Context) (*core.RunRecord, error) {
	var result *core.RunRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// Run keys embed the start timestamp, so the latest run owns the
		// largest key under the prefix.
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true

		iter := tx.NewIterator(opts)
		defer iter.Close()

		prefix := []byte(runRecordPrefix + ":")
		startKey := append(slices.Clone(prefix), 0xff)

		iter.Seek(startKey)
		if !iter.Valid() || !bytes.HasPrefix(iter.Item().Key(), prefix) {
			return storage.ErrNotFound
		}
		return iter.Item().Value(func(val []byte) error {
			var unmarshalErr error
			result, unmarshalErr = storage.UnmarshalRunRecord(val)
			return unmarshalErr
		})
	}, false)
	return result, err
}

// ListRuns returns all run summaries, most recent first.
func (r *RunRepository) ListRuns(ctx context.Context) ([]*core.RunRecord, error) {
	var results []*core.RunRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true

		iter := tx.NewIterator(opts)
		defer iter.Close()

		prefix := []byte(runRecordPrefix + ":")
		startKey := append(slices.Clone(prefix), 0xff)

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			if !bytes.HasPrefix(iter.Item().Key(), prefix) {
				break
			}

			var record *core.RunRecord
			err := iter.Item().Value(func(val []byte) error {
				var unmarshalErr error
				record, unmarshalErr = storage.UnmarshalRunRecord(val)
				return unmarshalErr
			})
			if err != nil {
				return err
			}
			results = append(results, record)
		}
		return nil
	}, false)
	return results, err
}

// SaveProfiles stores a run's profile snapshot for a stage, replacing
// any previous snapshot for that run and stage.
func (r *RunRepository) SaveProfiles(ctx context.Context, id core.RunID, stage storage.Stage, profiles []*core.Profile) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := deletePrefix(tx, makePartialProfileKey(id, stage)); err != nil {
			return err
		}

		// Positions preserve the caller's ordering across the round trip
		for i, profile := range profiles {
			key := makeProfileKey(id, stage, uint32(i))
			value := storage.MarshalProfile(profile)
			if err := tx.Set(key, value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetProfiles retrieves a run's profile snapshot for a stage, in stored order.
func (r *RunRepository) GetProfiles(ctx context.Context, id core.RunID, stage storage.Stage) ([]*core.Profile, error) {
	var results []*core.Profile
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialProfileKey(id, stage)

		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var profile *core.Profile
			err := iter.Item().Value(func(val []byte) error {
				var unmarshalErr error
				profile, unmarshalErr = storage.UnmarshalProfile(val)
				return unmarshalErr
			})
			if err != nil {
				return err
			}
			results = append(results, profile)
		}

		if len(results) == 0 {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return results, err
}

// SaveEnriched stores a run's enriched profile snapshot, replacing any
// previous one.
func (r *RunRepository) SaveEnriched(ctx context.Context, id core.RunID, profiles []*core.EnrichedProfile) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := deletePrefix(tx, makePartialEnrichedKey(id)); err != nil {
			return err
		}

		for i, profile := range profiles {
			key := makeEnrichedKey(id, uint32(i))
			value := storage.MarshalEnrichedProfile(profile)
			if err := tx.Set(key, value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetEnriched retrieves a run's enriched profile snapshot in stored order.
func (r *RunRepository) GetEnriched(ctx context.Context, id core.RunID) ([]*core.EnrichedProfile, error) {
	var results []*core.EnrichedProfile
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialEnrichedKey(id)

		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var profile *core.EnrichedProfile
			err := iter.Item().Value(func(val []byte) error {
				var unmarshalErr error
				profile, unmarshalErr = storage.UnmarshalEnrichedProfile(val)
				return unmarshalErr
			})
			if err != nil {
				return err
			}
			results = append(results, profile)
		}

		if len(results) == 0 {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return results, err
}

// DeleteRun removes a run summary and all of its snapshots.
func (r *RunRepository) DeleteRun(ctx context.Context, id core.RunID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeRunKey(id)

		// Read the summary first so a missing run surfaces as ErrNotFound
		record, err := readRunRecord(tx, key)
		if err != nil {
			return err
		}
		if record == nil {
			return storage.ErrNotFound
		}

		for _, stage := range []storage.Stage{storage.StageDiscovered, storage.StageRanked} {
			if err := deletePrefix(tx, makePartialProfileKey(id, stage)); err != nil {
				return err
			}
		}
		if err := deletePrefix(tx, makePartialEnrichedKey(id)); err != nil {
			return err
		}

		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Helper methods

// readRunRecord reads a run summary from the transaction.
func readRunRecord(tx *badger.Txn, key []byte) (*core.RunRecord, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var record *core.RunRecord
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalRunRecord(val)
		return unmarshalErr
	})
	return record, err
}

// deletePrefix removes every key under a prefix. Keys are copied out
// before deleting because iterator keys are only valid until Next.
func deletePrefix(tx *badger.Txn, prefix []byte) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false

	iter := tx.NewIterator(opts)
	var keys [][]byte
	for iter.Rewind(); iter.Valid(); iter.Next() {
		keys = append(keys, iter.Item().KeyCopy(nil))
	}
	iter.Close()

	for _, key := range keys {
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	return nil
}
