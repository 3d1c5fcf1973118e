package codec

import (
	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// The entity codecs write protobuf wire format by hand: fields are
// numbered, zero values are omitted and unknown fields are skipped, so
// records written by an older binary stay readable.

type field struct {
	num    protowire.Number
	varint uint64
	bytes  []byte
}

func (f field) str() string { return string(f.bytes) }

func walk(b []byte, fn func(field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return errors.Mark(errors.Wrap(protowire.ParseError(n), "tag"), ErrMalformed)
		}
		b = b[n:]

		f := field{num: num}
		switch typ {
		case protowire.VarintType:
			f.varint, n = protowire.ConsumeVarint(b)
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return errors.Mark(errors.Wrapf(protowire.ParseError(n), "field %d", num), ErrMalformed)
			}
			b = b[n:]
			continue
		}
		if n < 0 {
			return errors.Mark(errors.Wrapf(protowire.ParseError(n), "field %d", num), ErrMalformed)
		}
		b = b[n:]

		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}
