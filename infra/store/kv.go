package store

import (
	"github.com/cockroachdb/errors"
)

var ErrNotFound = errors.New("key not found")

// KV is the minimal ordered key-value surface the store needs. Both
// engines commit a Batch atomically.
type KV interface {
	Get(key []byte) ([]byte, error)
	// Scan visits keys with the given prefix in ascending order.
	Scan(prefix []byte, fn func(key, value []byte) error) error
	Commit(b *Batch) error
	Close() error
}

type op struct {
	key    []byte
	value  []byte
	delete bool
}

type Batch struct {
	ops []op
}

func (b *Batch) Set(key, value []byte) {
	b.ops = append(b.ops, op{key: key, value: value})
}

func (b *Batch) Delete(key []byte) {
	b.ops = append(b.ops, op{key: key, delete: true})
}

func (b *Batch) Len() int { return len(b.ops) }

const (
	EnginePebble = "pebble"
	EngineBadger = "badger"
)

type Options struct {
	Engine string
	Dir    string
	// Sync makes every Commit durable before it returns.
	Sync bool
}

func OpenKV(opts Options) (KV, error) {
	switch opts.Engine {
	case EnginePebble, "":
		return openPebble(opts.Dir, opts.Sync)
	case EngineBadger:
		return openBadger(opts.Dir, opts.Sync)
	default:
		return nil, errors.Newf("unknown store engine %q", opts.Engine)
	}
}

// prefixEnd returns the smallest key greater than every key with prefix.
func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
