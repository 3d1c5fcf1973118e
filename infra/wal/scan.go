package wal

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/cockroachdb/errors"
)

var errTorn = errors.New("torn frame")

// readRecord reads one frame. It returns io.EOF at a clean end of input and
// errTorn when the input ends mid-frame.
func readRecord(r io.Reader) (*Record, int64, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, 0, errTorn
		}
		return nil, 0, err
	}

	t := RecordType(header[0])
	seq := binary.BigEndian.Uint64(header[1:9])
	ts := binary.BigEndian.Uint64(header[9:17])
	l := binary.BigEndian.Uint32(header[17:21])
	if l > MaxPayload {
		return nil, 0, errors.Newf("frame seq %d claims %d byte payload", seq, l)
	}

	data := make([]byte, l+trailerSize)
	if _, err := io.ReadFull(r, data); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, 0, errTorn
		}
		return nil, 0, err
	}

	payload := data[:l]
	crc := binary.BigEndian.Uint32(data[l:])
	if !CRC32Valid(append(header, payload...), crc) {
		return nil, 0, errors.Newf("crc mismatch at seq %d", seq)
	}

	return &Record{
		Type: t,
		Seq:  seq,
		Time: ts,
		Data: payload,
	}, int64(headerSize + len(data)), nil
}

// scanSegment walks the frames of a segment and returns the highest
// sequence and the byte length of the readable prefix. torn reports a frame
// cut short at the end of the file. A complete frame that fails its checks
// is an error: only a crash mid-append may be cut off.
func scanSegment(path string) (maxSeq uint64, valid int64, torn bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, false, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	for {
		rec, n, err := readRecord(br)
		switch {
		case err == io.EOF:
			return maxSeq, valid, false, nil
		case errors.Is(err, errTorn):
			return maxSeq, valid, true, nil
		case err != nil:
			return maxSeq, valid, false, errors.Wrapf(err, "at offset %d", valid)
		}
		if rec.Seq > maxSeq {
			maxSeq = rec.Seq
		}
		valid += n
	}
}
