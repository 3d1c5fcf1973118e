package wal

import (
	"encoding/binary"
	"os"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
)

type Config struct {
	Dir             string
	SegmentSize     int64
	SegmentDuration time.Duration
	// SyncEveryAppend fsyncs each frame before Append returns.
	SyncEveryAppend bool
}

// WAL is the command journal. Every accepted command is appended here
// before it is applied.
type WAL struct {
	mu sync.Mutex

	dir             string
	segSize         int64
	segDuration     time.Duration
	syncEveryAppend bool

	current    *segment
	lastSeq    uint64
	lastRotate time.Time
	closed     bool
}

// Open resumes the highest existing segment, cutting off a torn tail left
// by a crash, or starts segment 0 in an empty directory. A corrupt frame
// anywhere fails Open and leaves the files untouched.
func Open(cfg Config) (*WAL, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create journal dir")
	}
	if cfg.SegmentSize <= 0 {
		cfg.SegmentSize = 64 << 20
	}

	files, err := segments(cfg.Dir)
	if err != nil {
		return nil, err
	}

	w := &WAL{
		dir:             cfg.Dir,
		segSize:         cfg.SegmentSize,
		segDuration:     cfg.SegmentDuration,
		syncEveryAppend: cfg.SyncEveryAppend,
		lastRotate:      time.Now(),
	}

	index := 0
	var offset int64
	for i, path := range files {
		last := i == len(files)-1
		maxSeq, valid, torn, err := scanSegment(path)
		if err != nil {
			return nil, errors.Wrapf(err, "scan %s", path)
		}
		if torn && !last {
			return nil, errors.Newf("scan %s: closed segment ends mid-frame", path)
		}
		if maxSeq > w.lastSeq {
			w.lastSeq = maxSeq
		}
		if last {
			if index, err = parseIndex(path); err != nil {
				return nil, errors.Wrapf(err, "parse %s", path)
			}
			if torn {
				if err := os.Truncate(path, valid); err != nil {
					return nil, errors.Wrap(err, "truncate torn tail")
				}
			}
			offset = valid
		}
	}

	seg, err := openSegment(cfg.Dir, index, offset)
	if err != nil {
		return nil, err
	}
	w.current = seg
	return w, nil
}

// LastSeq is the highest sequence written to the journal.
func (w *WAL) LastSeq() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSeq
}

func (w *WAL) Append(r *Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return errors.New("journal closed")
	}
	if r.Seq <= w.lastSeq {
		return errors.Newf("non-monotonic seq %d after %d", r.Seq, w.lastSeq)
	}
	if len(r.Data) > MaxPayload {
		return errors.Newf("payload of %d bytes exceeds frame limit", len(r.Data))
	}

	payloadLen := uint32(len(r.Data))
	buf := make([]byte, headerSize+payloadLen+trailerSize)

	buf[0] = byte(r.Type)
	binary.BigEndian.PutUint64(buf[1:9], r.Seq)
	binary.BigEndian.PutUint64(buf[9:17], r.Time)
	binary.BigEndian.PutUint32(buf[17:21], payloadLen)
	copy(buf[headerSize:], r.Data)

	crc := CRC32(buf[:headerSize+payloadLen])
	binary.BigEndian.PutUint32(buf[headerSize+payloadLen:], crc)

	if err := w.current.append(buf); err != nil {
		return err
	}
	w.lastSeq = r.Seq

	if w.syncEveryAppend {
		if err := w.current.sync(); err != nil {
			return errors.Wrap(err, "sync journal")
		}
	}

	if w.shouldRotate() {
		return w.rotate()
	}
	return nil
}

func (w *WAL) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	return w.current.sync()
}

func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.current.close()
}

func (w *WAL) shouldRotate() bool {
	if w.current.offset >= w.segSize {
		return true
	}
	return w.segDuration > 0 && time.Since(w.lastRotate) >= w.segDuration
}

func (w *WAL) rotate() error {
	if err := w.current.close(); err != nil {
		return errors.Wrap(err, "close segment")
	}

	seg, err := openSegment(w.dir, w.current.index+1, 0)
	if err != nil {
		return err
	}

	w.current = seg
	w.lastRotate = time.Now()
	return nil
}

// TruncateBefore deletes closed segments whose every record has seq <= seq.
// The segment being written is never removed.
func (w *WAL) TruncateBefore(seq uint64) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	files, err := segments(w.dir)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, path := range files {
		idx, err := parseIndex(path)
		if err != nil || idx >= w.current.index {
			continue
		}
		maxSeq, _, torn, err := scanSegment(path)
		if err != nil || torn {
			continue
		}
		if maxSeq <= seq {
			if err := os.Remove(path); err != nil {
				return removed, errors.Wrapf(err, "remove %s", path)
			}
			removed++
		}
	}
	return removed, nil
}
