package store

import (
	"bytes"

	"github.com/cockroachdb/errors"
	badger "github.com/dgraph-io/badger/v4"
)

type badgerKV struct {
	db *badger.DB
}

func openBadger(dir string, sync bool) (*badgerKV, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(nil).
		WithSyncWrites(sync)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "open badger at %s", dir)
	}
	return &badgerKV{db: db}, nil
}

func (s *badgerKV) Get(key []byte) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	return out, err
}

func (s *badgerKV) Scan(prefix []byte, fn func(key, value []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := item.KeyCopy(nil)
			if !bytes.HasPrefix(key, prefix) {
				break
			}
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := fn(key, val); err != nil {
				return err
			}
		}
		return nil
	})
}

// Commit applies the batch in one transaction. Badger bounds transaction
// size; a batch holds one command's effects, and sweeps are capped at
// swap.MaxSweep requests to stay under that bound.
func (s *badgerKV) Commit(b *Batch) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for _, o := range b.ops {
			var err error
			if o.delete {
				err = txn.Delete(o.key)
			} else {
				err = txn.Set(o.key, o.value)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *badgerKV) Close() error {
	return s.db.Close()
}
