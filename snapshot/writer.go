package snapshot

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"

	"junction/domain/swap"
)

type Writer struct {
	Dir string
}

// Write stores the state as of journal seq. The file is replaced
// atomically, so a crash leaves either the old snapshot or the new one.
func (w *Writer) Write(seq uint64, st swap.State) error {
	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return errors.Wrap(err, "create snapshot dir")
	}

	path := filepath.Join(w.Dir, FileName)
	f, err := os.CreateTemp(w.Dir, FileName+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create snapshot")
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	s := Snapshot{
		Seq:     seq,
		Created: time.Now().UTC(),
		State:   st,
	}
	if err := gob.NewEncoder(f).Encode(&s); err != nil {
		f.Close()
		return errors.Wrap(err, "encode snapshot")
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return errors.Wrap(err, "sync snapshot")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "close snapshot")
	}
	return errors.Wrap(os.Rename(tmp, path), "publish snapshot")
}
