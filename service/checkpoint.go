package service

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"junction/domain/swap"
	"junction/snapshot"
)

// Checkpoint writes a snapshot of the current state and drops journal
// segments the store no longer needs. It returns the seq the snapshot
// was taken at.
func (s *SwapService) Checkpoint(w *snapshot.Writer) (uint64, error) {
	seq, st := s.capture()

	if w != nil {
		if err := w.Write(seq, st); err != nil {
			return 0, errors.Wrapf(err, "snapshot at seq %d", seq)
		}
	}

	// Everything up to seq is committed to the store.
	removed, err := s.journal.TruncateBefore(seq)
	if err != nil {
		return seq, errors.Wrapf(err, "truncate journal before %d", seq)
	}
	s.log.WithFields(logrus.Fields{"seq": seq, "segments_removed": removed}).Info("checkpoint")
	return seq, nil
}

// capture reads seq and state under the write lock so they agree.
func (s *SwapService) capture() (uint64, swap.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq.Current(), s.engine.Export()
}

// RunCheckpoints checkpoints every interval until ctx is done.
func (s *SwapService) RunCheckpoints(ctx context.Context, dir string, interval time.Duration) error {
	w := &snapshot.Writer{Dir: dir}

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if _, err := s.Checkpoint(w); err != nil {
				s.log.WithError(err).Warn("checkpoint failed")
			}
		}
	}
}

// Seed initializes an empty store from a snapshot. It must run before
// Replay.
func (s *SwapService) Seed(snap snapshot.Snapshot) error {
	empty, err := s.store.Empty()
	if err != nil {
		return err
	}
	if !empty {
		return errors.New("store already holds state; refusing to seed from snapshot")
	}
	if err := s.store.SaveState(snap.Seq, snap.State); err != nil {
		return errors.Wrap(err, "seed store")
	}
	s.log.WithField("seq", snap.Seq).Info("store seeded from snapshot")
	return nil
}
