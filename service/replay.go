package service

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"junction/infra/codec"
	"junction/infra/wal"
)

// ReplayStats summarizes a startup recovery.
type ReplayStats struct {
	Applied  uint64 // seq already reflected in the store
	Replayed int    // journal records re-executed on top of it
	LastSeq  uint64
}

/*
Replay rebuilds in-memory state from the store and the journal.

IMPORTANT:
- This MUST run before accepting traffic
- Records at or below the store's applied seq are skipped
- Every replayed record is committed, so a crash during replay only
  repeats work
*/
func (s *SwapService) Replay() (ReplayStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, applied, err := s.store.Load()
	if err != nil {
		return ReplayStats{}, errors.Wrap(err, "load store")
	}
	if err := s.engine.Restore(st); err != nil {
		return ReplayStats{}, errors.Wrap(err, "restore engine")
	}

	stats := ReplayStats{Applied: applied}
	last, err := wal.Replay(s.journalDir, func(rec *wal.Record) error {
		if rec.Seq <= applied {
			return nil
		}
		cmd, err := codec.Commands.Decode(rec.Data)
		if err != nil {
			return errors.Wrapf(err, "decode seq %d", rec.Seq)
		}
		if cmd.Time == 0 {
			cmd.Time = rec.Time
		}

		// Domain errors were reported to the caller the first time round;
		// replay only needs the effects.
		res, _ := s.engine.Apply(cmd)
		if err := s.commit(rec.Seq, res.Effects, eventsFor(rec.Seq, cmd, res.Effects)); err != nil {
			return errors.Wrapf(err, "commit seq %d", rec.Seq)
		}
		stats.Replayed++
		return nil
	})
	if err != nil {
		return stats, errors.Wrap(err, "replay journal")
	}

	// Resume sequencing AFTER replay
	stats.LastSeq = max(applied, last)
	if s.journal != nil {
		stats.LastSeq = max(stats.LastSeq, s.journal.LastSeq())
	}
	s.seq.Reset(stats.LastSeq)
	s.metrics.SetPending(s.engine.PendingCount())

	s.log.WithFields(logrus.Fields{
		"applied":  stats.Applied,
		"replayed": stats.Replayed,
		"last_seq": stats.LastSeq,
	}).Info("replay completed")
	return stats, nil
}
