package swap

import (
	"strings"

	"github.com/cockroachdb/errors"
)

type Chain uint8

const (
	ChainUnknown Chain = iota
	ChainICP
	ChainBitcoin
	ChainEthereum
)

func (c Chain) String() string {
	switch c {
	case ChainICP:
		return "ICP"
	case ChainBitcoin:
		return "Bitcoin"
	case ChainEthereum:
		return "Ethereum"
	default:
		return "Unknown"
	}
}

func (c Chain) Valid() bool {
	return c >= ChainICP && c <= ChainEthereum
}

// ParseChain accepts the chain name in any case, plus the common tickers.
func ParseChain(s string) (Chain, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "icp":
		return ChainICP, nil
	case "bitcoin", "btc":
		return ChainBitcoin, nil
	case "ethereum", "eth":
		return ChainEthereum, nil
	default:
		return ChainUnknown, errors.Wrapf(ErrInvalidInput, "unknown chain %q", s)
	}
}

// Asset is an amount of one symbol on one chain, in the symbol's smallest unit.
type Asset struct {
	Chain  Chain
	Symbol string
	Amount uint64
}

// Identity is an opaque caller reference that has already been verified
// by the transport.
type Identity string

// AnonymousPrincipal is the well-known anonymous caller.
const AnonymousPrincipal Identity = "2vxsx-fae"

func (id Identity) IsAnonymous() bool {
	return id == "" || id == AnonymousPrincipal
}

func (id Identity) String() string {
	return string(id)
}
