package snapshot

import (
	"encoding/gob"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

// ErrNoSnapshot is returned by Load when the directory holds no snapshot.
var ErrNoSnapshot = errors.New("no snapshot")

func Load(dir string) (Snapshot, error) {
	f, err := os.Open(filepath.Join(dir, FileName))
	if errors.Is(err, os.ErrNotExist) {
		return Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "open snapshot")
	}
	defer f.Close()

	var s Snapshot
	if err := gob.NewDecoder(f).Decode(&s); err != nil {
		return Snapshot{}, errors.Wrap(err, "decode snapshot")
	}
	return s, nil
}
