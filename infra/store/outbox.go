package store

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"

	"junction/infra/codec"
)

// -------------------- State --------------------

type OutboxState uint8

const (
	StateNew OutboxState = iota
	StateSent
	StateAcked
	StateFailed
)

func (s OutboxState) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateSent:
		return "SENT"
	case StateAcked:
		return "ACKED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// -------------------- Record --------------------

// ErrStopScan ends a ScanOutbox early.
var ErrStopScan = errors.New("stop scan")

// Route names the logical destination of a message; the broadcaster maps
// it to a broker topic.
type Route string

const (
	RouteEvents     Route = "events"
	RouteSettlement Route = "settlement"
)

type Message struct {
	Route   Route
	Key     []byte
	Payload []byte
}

// OutboxID orders messages by the journal sequence that produced them.
type OutboxID struct {
	Seq uint64
	N   uint32
}

func (id OutboxID) String() string {
	return fmt.Sprintf("%d/%d", id.Seq, id.N)
}

type OutboxRecord struct {
	ID          OutboxID
	State       OutboxState
	Retries     uint32
	LastAttempt int64
	Message     Message
}

// binary encoding:
// [state:1][retries:4][lastAttempt:8][routeLen:1][route][keyLen:2][key][payload]
const outboxHeader = 1 + 4 + 8

func encodeOutbox(r OutboxRecord) []byte {
	buf := make([]byte, outboxHeader, outboxHeader+1+len(r.Message.Route)+2+len(r.Message.Key)+len(r.Message.Payload))
	buf[0] = byte(r.State)
	binary.BigEndian.PutUint32(buf[1:5], r.Retries)
	binary.BigEndian.PutUint64(buf[5:13], uint64(r.LastAttempt))

	buf = append(buf, byte(len(r.Message.Route)))
	buf = append(buf, r.Message.Route...)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(r.Message.Key)))
	buf = append(buf, r.Message.Key...)
	return append(buf, r.Message.Payload...)
}

func decodeOutbox(b []byte) (OutboxRecord, error) {
	bad := errors.Mark(errors.New("invalid outbox record"), codec.ErrMalformed)
	if len(b) < outboxHeader+1 {
		return OutboxRecord{}, bad
	}
	r := OutboxRecord{
		State:       OutboxState(b[0]),
		Retries:     binary.BigEndian.Uint32(b[1:5]),
		LastAttempt: int64(binary.BigEndian.Uint64(b[5:13])),
	}
	rest := b[outboxHeader:]

	n := int(rest[0])
	if len(rest) < 1+n+2 {
		return OutboxRecord{}, bad
	}
	r.Message.Route = Route(rest[1 : 1+n])
	rest = rest[1+n:]

	k := int(binary.BigEndian.Uint16(rest[:2]))
	if len(rest) < 2+k {
		return OutboxRecord{}, bad
	}
	r.Message.Key = append([]byte(nil), rest[2:2+k]...)
	r.Message.Payload = append([]byte(nil), rest[2+k:]...)
	return r, nil
}

// -------------------- API --------------------

// UpdateOutbox rewrites the delivery state of a message. Acked messages
// are deleted instead of kept.
func (s *Store) UpdateOutbox(rec OutboxRecord, state OutboxState, retries uint32) error {
	var b Batch
	key := outboxKey(rec.ID)
	if state == StateAcked {
		b.Delete(key)
		return s.kv.Commit(&b)
	}
	rec.State = state
	rec.Retries = retries
	rec.LastAttempt = time.Now().UnixNano()
	b.Set(key, encodeOutbox(rec))
	return s.kv.Commit(&b)
}

// ScanOutbox visits messages in any of the given states in production
// order. This is used by the Broadcaster.
// Returning ErrStopScan from fn ends the scan without an error.
func (s *Store) ScanOutbox(fn func(OutboxRecord) error, states ...OutboxState) error {
	err := s.kv.Scan(prefixOutbox, func(k, v []byte) error {
		rec, err := decodeOutbox(v)
		if err != nil {
			return err
		}
		match := false
		for _, st := range states {
			if rec.State == st {
				match = true
				break
			}
		}
		if !match {
			return nil
		}

		id, err := parseOutboxKey(k)
		if err != nil {
			return err
		}
		rec.ID = id
		return fn(rec)
	})
	if errors.Is(err, ErrStopScan) {
		return nil
	}
	return err
}

// OutboxDepth counts undelivered messages.
func (s *Store) OutboxDepth() (int, error) {
	n := 0
	err := s.kv.Scan(prefixOutbox, func(_, _ []byte) error {
		n++
		return nil
	})
	return n, err
}

// -------------------- Helpers --------------------

func outboxKey(id OutboxID) []byte {
	return []byte(fmt.Sprintf("%s%020d/%010d", prefixOutbox, id.Seq, id.N))
}

func parseOutboxKey(b []byte) (OutboxID, error) {
	var id OutboxID
	_, err := fmt.Sscanf(string(b[len(prefixOutbox):]), "%d/%d", &id.Seq, &id.N)
	return id, errors.Wrapf(err, "parse outbox key %q", b)
}
