package store

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
)

type pebbleKV struct {
	db   *pebble.DB
	sync *pebble.WriteOptions
}

func openPebble(dir string, sync bool) (*pebbleKV, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "open pebble at %s", dir)
	}
	wo := pebble.NoSync
	if sync {
		wo = pebble.Sync
	}
	return &pebbleKV{db: db, sync: wo}, nil
}

func (p *pebbleKV) Get(key []byte) ([]byte, error) {
	val, closer, err := p.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return append([]byte(nil), val...), nil
}

func (p *pebbleKV) Scan(prefix []byte, fn func(key, value []byte) error) error {
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixEnd(prefix),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		if err := fn(iter.Key(), iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

func (p *pebbleKV) Commit(b *Batch) error {
	batch := p.db.NewBatch()
	defer batch.Close()

	for _, o := range b.ops {
		var err error
		if o.delete {
			err = batch.Delete(o.key, nil)
		} else {
			err = batch.Set(o.key, o.value, nil)
		}
		if err != nil {
			return err
		}
	}
	return batch.Commit(p.sync)
}

func (p *pebbleKV) Close() error {
	return p.db.Close()
}
