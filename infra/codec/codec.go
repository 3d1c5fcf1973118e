// Package codec holds the byte encodings shared by the journal and the
// state store. Each persisted entity has exactly one Codec.
package codec

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
)

type Codec[T any] interface {
	Encode(T) ([]byte, error)
	Decode([]byte) (T, error)
}

// JSON encodes any value with encoding/json. It is used for outbox events,
// which leave the process and are read by other services.
type JSON[T any] struct{}

func (JSON[T]) Encode(v T) ([]byte, error) {
	b, err := json.Marshal(v)
	return b, errors.Wrap(err, "json encode")
}

func (JSON[T]) Decode(b []byte) (T, error) {
	var v T
	err := json.Unmarshal(b, &v)
	return v, errors.Wrap(err, "json decode")
}

var ErrMalformed = errors.New("malformed record")
