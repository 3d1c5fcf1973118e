package swap

// CommandKind identifies a mutating operation. The numeric values are
// persisted in the journal and must not be reordered.
type CommandKind uint8

const (
	CmdDeposit CommandKind = iota + 1
	CmdWithdraw
	CmdCreate
	CmdExecute
	CmdCancel
	CmdSweep
)

func (k CommandKind) String() string {
	switch k {
	case CmdDeposit:
		return "deposit"
	case CmdWithdraw:
		return "withdraw"
	case CmdCreate:
		return "create"
	case CmdExecute:
		return "execute"
	case CmdCancel:
		return "cancel"
	case CmdSweep:
		return "sweep"
	default:
		return "unknown"
	}
}

// Command is a self-contained description of one mutating call, including
// the instant it executes at. Applying the same command sequence to the same
// starting state always yields the same result, which is what makes journal
// replay possible.
type Command struct {
	Kind   CommandKind
	Time   uint64
	Caller Identity
	Ref    string // deposit reference or withdrawal ticket

	Symbol string
	Chain  Chain
	Amount uint64

	WantedSymbol string
	WantedChain  Chain
	Duration     uint64

	SwapID  uint64
	OtherID uint64

	Address string // withdrawal target on Chain
}

// Transfer is a movement across the system boundary.
type Transfer struct {
	Ref     string
	Owner   Identity
	Symbol  string
	Amount  uint64
	Chain   Chain
	Address string
}

// Supply tracks what has entered and left the system for one symbol.
type Supply struct {
	Symbol    string
	Deposited uint64
	Withdrawn uint64
}

// Effects lists the post-transaction value of everything a command touched.
type Effects struct {
	Balances   []Balance
	Created    *SwapRequest
	Closed     []SwapRequest // requests that reached a terminal status, with that status set
	LastID     uint64        // non-zero when an id was allocated
	Supply     []Supply
	Deposit    *Transfer
	Withdrawal *Transfer
}

func (e Effects) Empty() bool {
	return len(e.Balances) == 0 && e.Created == nil && len(e.Closed) == 0 &&
		e.LastID == 0 && len(e.Supply) == 0 && e.Deposit == nil && e.Withdrawal == nil
}

func (e *Effects) merge(o Effects) {
	e.Balances = append(e.Balances, o.Balances...)
	e.Closed = append(e.Closed, o.Closed...)
	e.Supply = append(e.Supply, o.Supply...)
}

type Result struct {
	SwapID    uint64 // create
	Swept     int    // sweep
	Duplicate bool   // deposit whose reference was already applied
	Effects   Effects
}
