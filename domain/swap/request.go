package swap

type Status uint8

const (
	StatusPending Status = iota
	StatusMatched
	StatusExpired
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusMatched:
		return "MATCHED"
	case StatusExpired:
		return "EXPIRED"
	case StatusCancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether no further transition is permitted.
func (s Status) Terminal() bool {
	return s != StatusPending
}

// SwapRequest is one side of a bilateral swap. Offered is held in escrow
// for as long as the request is pending.
type SwapRequest struct {
	ID           uint64
	Owner        Identity
	Offered      Asset
	WantedSymbol string
	WantedChain  Chain
	Deadline     uint64 // ns since epoch
	CreatedAt    uint64
	Status       Status
}

// Matches reports whether r offers exactly what o wants. It is one half of
// the symmetric compatibility rule.
func (r SwapRequest) Matches(o SwapRequest) bool {
	return r.Offered.Symbol == o.WantedSymbol && r.Offered.Chain == o.WantedChain
}

// Compatible is the symmetric pairing rule used by ExecuteSwap.
func Compatible(a, b SwapRequest) bool {
	return a.Matches(b) && b.Matches(a)
}

// ExpiredAt reports whether the deadline has passed at now.
func (r SwapRequest) ExpiredAt(now uint64) bool {
	return now > r.Deadline
}

// Settlement is the terminal record kept for an id once it leaves the registry.
type Settlement struct {
	ID     uint64
	Owner  Identity
	Status Status
}
