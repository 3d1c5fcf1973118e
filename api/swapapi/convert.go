package swapapi

import (
	"strings"

	"junction/domain/swap"
)

// ChainName is the wire form of a chain; ChainUnknown is "".
func ChainName(c swap.Chain) string {
	if c == swap.ChainUnknown {
		return ""
	}
	return strings.ToLower(c.String())
}

// ParseChain accepts "" as ChainUnknown, leaving resolution to the
// server's asset catalog.
func ParseChain(s string) (swap.Chain, error) {
	if s == "" {
		return swap.ChainUnknown, nil
	}
	return swap.ParseChain(s)
}

func FromSwap(r swap.SwapRequest) Swap {
	return Swap{
		ID:            r.ID,
		Owner:         string(r.Owner),
		OfferedSymbol: r.Offered.Symbol,
		OfferedChain:  ChainName(r.Offered.Chain),
		OfferedAmount: r.Offered.Amount,
		WantedSymbol:  r.WantedSymbol,
		WantedChain:   ChainName(r.WantedChain),
		Deadline:      r.Deadline,
		CreatedAt:     r.CreatedAt,
		Status:        r.Status.String(),
	}
}
