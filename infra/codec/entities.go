package codec

import (
	"junction/domain/swap"
)

var (
	SwapRequests Codec[swap.SwapRequest] = swapRequestCodec{}
	Commands     Codec[swap.Command]     = commandCodec{}
	Settlements  Codec[swap.Settlement]  = settlementCodec{}
	Supplies     Codec[swap.Supply]      = supplyCodec{}
)

// -------------------- SwapRequest --------------------

type swapRequestCodec struct{}

func (swapRequestCodec) Encode(r swap.SwapRequest) ([]byte, error) {
	b := make([]byte, 0, 96)
	b = appendVarint(b, 1, r.ID)
	b = appendString(b, 2, string(r.Owner))
	b = appendVarint(b, 3, uint64(r.Offered.Chain))
	b = appendString(b, 4, r.Offered.Symbol)
	b = appendVarint(b, 5, r.Offered.Amount)
	b = appendString(b, 6, r.WantedSymbol)
	b = appendVarint(b, 7, uint64(r.WantedChain))
	b = appendVarint(b, 8, r.Deadline)
	b = appendVarint(b, 9, r.CreatedAt)
	b = appendVarint(b, 10, uint64(r.Status))
	return b, nil
}

func (swapRequestCodec) Decode(b []byte) (swap.SwapRequest, error) {
	var r swap.SwapRequest
	err := walk(b, func(f field) error {
		switch f.num {
		case 1:
			r.ID = f.varint
		case 2:
			r.Owner = swap.Identity(f.str())
		case 3:
			r.Offered.Chain = swap.Chain(f.varint)
		case 4:
			r.Offered.Symbol = f.str()
		case 5:
			r.Offered.Amount = f.varint
		case 6:
			r.WantedSymbol = f.str()
		case 7:
			r.WantedChain = swap.Chain(f.varint)
		case 8:
			r.Deadline = f.varint
		case 9:
			r.CreatedAt = f.varint
		case 10:
			r.Status = swap.Status(f.varint)
		}
		return nil
	})
	return r, err
}

// -------------------- Command --------------------

type commandCodec struct{}

func (commandCodec) Encode(c swap.Command) ([]byte, error) {
	b := make([]byte, 0, 96)
	b = appendVarint(b, 1, uint64(c.Kind))
	b = appendVarint(b, 2, c.Time)
	b = appendString(b, 3, string(c.Caller))
	b = appendString(b, 4, c.Ref)
	b = appendString(b, 5, c.Symbol)
	b = appendVarint(b, 6, uint64(c.Chain))
	b = appendVarint(b, 7, c.Amount)
	b = appendString(b, 8, c.WantedSymbol)
	b = appendVarint(b, 9, uint64(c.WantedChain))
	b = appendVarint(b, 10, c.Duration)
	b = appendVarint(b, 11, c.SwapID)
	b = appendVarint(b, 12, c.OtherID)
	b = appendString(b, 13, c.Address)
	return b, nil
}

func (commandCodec) Decode(b []byte) (swap.Command, error) {
	var c swap.Command
	err := walk(b, func(f field) error {
		switch f.num {
		case 1:
			c.Kind = swap.CommandKind(f.varint)
		case 2:
			c.Time = f.varint
		case 3:
			c.Caller = swap.Identity(f.str())
		case 4:
			c.Ref = f.str()
		case 5:
			c.Symbol = f.str()
		case 6:
			c.Chain = swap.Chain(f.varint)
		case 7:
			c.Amount = f.varint
		case 8:
			c.WantedSymbol = f.str()
		case 9:
			c.WantedChain = swap.Chain(f.varint)
		case 10:
			c.Duration = f.varint
		case 11:
			c.SwapID = f.varint
		case 12:
			c.OtherID = f.varint
		case 13:
			c.Address = f.str()
		}
		return nil
	})
	return c, err
}

// -------------------- Settlement --------------------

type settlementCodec struct{}

func (settlementCodec) Encode(s swap.Settlement) ([]byte, error) {
	b := make([]byte, 0, 32)
	b = appendVarint(b, 1, s.ID)
	b = appendString(b, 2, string(s.Owner))
	b = appendVarint(b, 3, uint64(s.Status))
	return b, nil
}

func (settlementCodec) Decode(b []byte) (swap.Settlement, error) {
	var s swap.Settlement
	err := walk(b, func(f field) error {
		switch f.num {
		case 1:
			s.ID = f.varint
		case 2:
			s.Owner = swap.Identity(f.str())
		case 3:
			s.Status = swap.Status(f.varint)
		}
		return nil
	})
	return s, err
}

// -------------------- Supply --------------------

type supplyCodec struct{}

func (supplyCodec) Encode(s swap.Supply) ([]byte, error) {
	b := make([]byte, 0, 32)
	b = appendString(b, 1, s.Symbol)
	b = appendVarint(b, 2, s.Deposited)
	b = appendVarint(b, 3, s.Withdrawn)
	return b, nil
}

func (supplyCodec) Decode(b []byte) (swap.Supply, error) {
	var s swap.Supply
	err := walk(b, func(f field) error {
		switch f.num {
		case 1:
			s.Symbol = f.str()
		case 2:
			s.Deposited = f.varint
		case 3:
			s.Withdrawn = f.varint
		}
		return nil
	})
	return s, err
}
