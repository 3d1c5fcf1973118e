package wal

// RecordType mirrors the command kind carried in the payload so a segment
// can be inspected without decoding it.
type RecordType uint8

type Record struct {
	Type RecordType
	Seq  uint64
	Time uint64 // ns since epoch; the instant the command executes at
	Data []byte
}

// Frame:
// [type:1][seq:8][time:8][len:4][payload][crc:4]
const (
	headerSize  = 1 + 8 + 8 + 4
	trailerSize = 4

	// MaxPayload bounds a single frame so a corrupt length cannot trigger a
	// huge allocation during replay.
	MaxPayload = 16 << 20
)
