package wal

import (
	"bufio"
	"io"
	"os"

	"github.com/cockroachdb/errors"
)

type ReplayHandler func(*Record) error

// Replay feeds every record in dir to fn in sequence order and returns the
// last sequence seen. Sequences must increase strictly across segments.
// A frame cut short at the end of the newest segment is the remnant of a
// crash mid-append and ends replay without error.
func Replay(dir string, fn ReplayHandler) (lastSeq uint64, err error) {
	files, err := segments(dir)
	if err != nil {
		return 0, err
	}

	for i, path := range files {
		last := i == len(files)-1
		lastSeq, err = replaySegment(path, last, lastSeq, fn)
		if err != nil {
			return lastSeq, err
		}
	}
	return lastSeq, nil
}

func replaySegment(path string, last bool, lastSeq uint64, fn ReplayHandler) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return lastSeq, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	for {
		rec, _, err := readRecord(br)
		if err != nil {
			if err == io.EOF {
				return lastSeq, nil
			}
			if last && errors.Is(err, errTorn) {
				return lastSeq, nil
			}
			return lastSeq, errors.Wrapf(err, "read %s", path)
		}

		if rec.Seq <= lastSeq {
			return lastSeq, errors.Newf("non-monotonic seq %d after %d in %s", rec.Seq, lastSeq, path)
		}
		lastSeq = rec.Seq

		if err := fn(rec); err != nil {
			return lastSeq, err
		}
	}
}
