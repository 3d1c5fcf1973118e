package sequence

import (
	"math"
	"sync/atomic"

	"github.com/cockroachdb/errors"
)

// ErrExhausted is returned once every uint64 id has been handed out.
var ErrExhausted = errors.New("sequence exhausted")

// Sequencer generates strictly monotonic ids starting at 1.
// It is deterministic and replay-safe.
type Sequencer struct {
	last atomic.Uint64
}

// New creates a sequencer whose last issued id is start.
// On fresh start → start = 0
// On recovery → start = highest id found in the store
func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.last.Store(start)
	return s
}

// Next returns the next id. It never wraps: at the top of the range it
// fails and keeps failing.
func (s *Sequencer) Next() (uint64, error) {
	for {
		cur := s.last.Load()
		if cur == math.MaxUint64 {
			return 0, errors.WithStack(ErrExhausted)
		}
		if s.last.CompareAndSwap(cur, cur+1) {
			return cur + 1, nil
		}
	}
}

// Current returns the last issued id, 0 if none.
func (s *Sequencer) Current() uint64 {
	return s.last.Load()
}

// Reset sets the last issued id.
// This is ONLY used when restoring state.
func (s *Sequencer) Reset(v uint64) {
	s.last.Store(v)
}
