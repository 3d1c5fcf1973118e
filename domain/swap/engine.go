package swap

import (
	"fmt"
	"math"
	"math/bits"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
)

// Clock returns the current time in nanoseconds since the Unix epoch.
type Clock interface {
	Now() uint64
}

type ClockFunc func() uint64

func (f ClockFunc) Now() uint64 { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(func() uint64 { return uint64(time.Now().UnixNano()) })

// IDAllocator issues swap ids. Next must fail rather than wrap once the id
// space is exhausted.
type IDAllocator interface {
	Next() (uint64, error)
	Current() uint64
	Reset(last uint64)
}

type Option func(*Engine)

func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// Engine is the escrow ledger and swap matching state machine.
//
// Every mutating operation runs under the write lock and verifies all of
// its preconditions before the first mutation, so a failed call leaves no
// trace. Queries take the read lock and never see a half-applied
// transaction.
type Engine struct {
	mu sync.RWMutex

	ledger   *Ledger
	registry *Registry
	ids      IDAllocator
	clock    Clock

	settled  map[uint64]Settlement
	supply   map[string]Supply
	deposits map[string]struct{}
}

func NewEngine(ids IDAllocator, opts ...Option) *Engine {
	e := &Engine{
		ledger:   NewLedger(),
		registry: NewRegistry(),
		ids:      ids,
		clock:    SystemClock,
		settled:  make(map[uint64]Settlement),
		supply:   make(map[string]Supply),
		deposits: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

//
// ──────────────────────────────────────────────────────────
// Commands
// ──────────────────────────────────────────────────────────
//

func (e *Engine) CreateSwapRequest(
	owner Identity,
	offeredSymbol string,
	offeredChain Chain,
	offeredAmount uint64,
	wantedSymbol string,
	wantedChain Chain,
	durationNanos uint64,
) (uint64, error) {
	res, err := e.Apply(Command{
		Kind:         CmdCreate,
		Time:         e.clock.Now(),
		Caller:       owner,
		Symbol:       offeredSymbol,
		Chain:        offeredChain,
		Amount:       offeredAmount,
		WantedSymbol: wantedSymbol,
		WantedChain:  wantedChain,
		Duration:     durationNanos,
	})
	return res.SwapID, err
}

func (e *Engine) ExecuteSwap(caller Identity, id1, id2 uint64) error {
	_, err := e.Apply(Command{Kind: CmdExecute, Time: e.clock.Now(), Caller: caller, SwapID: id1, OtherID: id2})
	return err
}

func (e *Engine) CancelSwapRequest(id uint64, caller Identity) error {
	_, err := e.Apply(Command{Kind: CmdCancel, Time: e.clock.Now(), Caller: caller, SwapID: id})
	return err
}

func (e *Engine) Deposit(owner Identity, symbol string, amount uint64) error {
	_, err := e.Apply(Command{Kind: CmdDeposit, Time: e.clock.Now(), Caller: owner, Symbol: symbol, Amount: amount})
	return err
}

func (e *Engine) Withdraw(owner Identity, symbol string, amount uint64, target Chain, address string) error {
	_, err := e.Apply(Command{
		Kind:    CmdWithdraw,
		Time:    e.clock.Now(),
		Caller:  owner,
		Symbol:  symbol,
		Amount:  amount,
		Chain:   target,
		Address: address,
	})
	return err
}

// MaxSweep bounds how many requests one sweep command expires, which keeps
// the store batch of a single command small.
const MaxSweep = 4096

// SweepExpired refunds every pending request whose deadline has passed and
// returns how many were expired.
func (e *Engine) SweepExpired() int {
	now := e.clock.Now()
	total := 0
	for {
		res, _ := e.Apply(Command{Kind: CmdSweep, Time: now})
		total += res.Swept
		if res.Swept < MaxSweep {
			return total
		}
	}
}

// Apply executes one command. Effects may be non-empty even when an error
// is returned: an execute or cancel that finds an expired request refunds
// it and still reports ErrExpired.
func (e *Engine) Apply(cmd Command) (Result, error) {
	if err := Validate(cmd); err != nil {
		return Result{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	switch cmd.Kind {
	case CmdDeposit:
		return e.deposit(cmd)
	case CmdWithdraw:
		return e.withdraw(cmd)
	case CmdCreate:
		return e.create(cmd)
	case CmdExecute:
		return e.execute(cmd)
	case CmdCancel:
		return e.cancel(cmd)
	default:
		return e.sweep(cmd.Time), nil
	}
}

// Validate rejects malformed and unauthenticated commands. It needs no
// state, so callers may run it before journaling a command.
func Validate(cmd Command) error {
	if cmd.Kind < CmdDeposit || cmd.Kind > CmdSweep {
		return errors.Wrapf(ErrInvalidInput, "unknown command kind %d", cmd.Kind)
	}
	if cmd.Kind == CmdSweep {
		return nil
	}
	if cmd.Caller.IsAnonymous() {
		return errors.Wrapf(ErrUnauthenticated, "%s requires an identity", cmd.Kind)
	}

	switch cmd.Kind {
	case CmdDeposit:
		if cmd.Symbol == "" || cmd.Amount == 0 {
			return errors.Wrap(ErrInvalidInput, "deposit needs a symbol and a positive amount")
		}
	case CmdWithdraw:
		if cmd.Symbol == "" || cmd.Amount == 0 {
			return errors.Wrap(ErrInvalidInput, "withdraw needs a symbol and a positive amount")
		}
		if !cmd.Chain.Valid() || cmd.Address == "" {
			return errors.Wrap(ErrInvalidInput, "withdraw needs a target chain and address")
		}
	case CmdCreate:
		if cmd.Amount == 0 {
			return errors.Wrap(ErrInvalidInput, "offered amount must be positive")
		}
		if cmd.Duration == 0 {
			return errors.Wrap(ErrInvalidInput, "duration must be positive")
		}
		if cmd.Symbol == "" || cmd.WantedSymbol == "" {
			return errors.Wrap(ErrInvalidInput, "offered and wanted symbols are required")
		}
		if !cmd.Chain.Valid() || !cmd.WantedChain.Valid() {
			return errors.Wrap(ErrInvalidInput, "offered and wanted chains are required")
		}
	case CmdExecute:
		if cmd.SwapID == cmd.OtherID {
			return errors.Wrapf(ErrInvalidInput, "swap %d cannot be matched with itself", cmd.SwapID)
		}
	}
	return nil
}

func (e *Engine) deposit(cmd Command) (Result, error) {
	if cmd.Ref != "" {
		if _, seen := e.deposits[cmd.Ref]; seen {
			return Result{Duplicate: true}, nil
		}
	}

	sup := e.supplyOf(cmd.Symbol)
	total, carry := bits.Add64(sup.Deposited, cmd.Amount, 0)
	if carry != 0 || !e.ledger.CanCredit(cmd.Caller, cmd.Symbol, cmd.Amount) {
		return Result{}, errors.Wrapf(ErrOverflow, "deposit of %d %s", cmd.Amount, cmd.Symbol)
	}

	e.mustCredit(cmd.Caller, cmd.Symbol, cmd.Amount)
	sup.Deposited = total
	e.supply[cmd.Symbol] = sup
	if cmd.Ref != "" {
		e.deposits[cmd.Ref] = struct{}{}
	}

	return Result{Effects: Effects{
		Balances: []Balance{e.ledger.entry(cmd.Caller, cmd.Symbol)},
		Supply:   []Supply{sup},
		Deposit: &Transfer{
			Ref:    cmd.Ref,
			Owner:  cmd.Caller,
			Symbol: cmd.Symbol,
			Amount: cmd.Amount,
			Chain:  cmd.Chain,
		},
	}}, nil
}

func (e *Engine) withdraw(cmd Command) (Result, error) {
	sup := e.supplyOf(cmd.Symbol)
	total, carry := bits.Add64(sup.Withdrawn, cmd.Amount, 0)
	if carry != 0 {
		return Result{}, errors.Wrapf(ErrOverflow, "withdrawal of %d %s", cmd.Amount, cmd.Symbol)
	}
	if err := e.ledger.Debit(cmd.Caller, cmd.Symbol, cmd.Amount); err != nil {
		return Result{}, err
	}
	sup.Withdrawn = total
	e.supply[cmd.Symbol] = sup

	return Result{Effects: Effects{
		Balances: []Balance{e.ledger.entry(cmd.Caller, cmd.Symbol)},
		Supply:   []Supply{sup},
		Withdrawal: &Transfer{
			Ref:     cmd.Ref,
			Owner:   cmd.Caller,
			Symbol:  cmd.Symbol,
			Amount:  cmd.Amount,
			Chain:   cmd.Chain,
			Address: cmd.Address,
		},
	}}, nil
}

func (e *Engine) create(cmd Command) (Result, error) {
	deadline, carry := bits.Add64(cmd.Time, cmd.Duration, 0)
	if carry != 0 {
		return Result{}, errors.Wrapf(ErrOverflow, "deadline %d+%d exceeds the timestamp range", cmd.Time, cmd.Duration)
	}
	if e.ids.Current() == math.MaxUint64 {
		return Result{}, errors.Wrap(ErrOverflow, "swap id space exhausted")
	}
	if bal := e.ledger.BalanceOf(cmd.Caller, cmd.Symbol); bal < cmd.Amount {
		return Result{}, errors.Wrapf(ErrInsufficientFunds, "%s has %d %s, offers %d", cmd.Caller, bal, cmd.Symbol, cmd.Amount)
	}

	// Nothing below can fail: the debit is covered and the id space is open.
	if err := e.ledger.Debit(cmd.Caller, cmd.Symbol, cmd.Amount); err != nil {
		return Result{}, err
	}
	id, err := e.ids.Next()
	if err != nil {
		e.mustCredit(cmd.Caller, cmd.Symbol, cmd.Amount)
		return Result{}, errors.Mark(errors.Wrap(err, "allocate swap id"), ErrOverflow)
	}

	req := SwapRequest{
		ID:           id,
		Owner:        cmd.Caller,
		Offered:      Asset{Chain: cmd.Chain, Symbol: cmd.Symbol, Amount: cmd.Amount},
		WantedSymbol: cmd.WantedSymbol,
		WantedChain:  cmd.WantedChain,
		Deadline:     deadline,
		CreatedAt:    cmd.Time,
		Status:       StatusPending,
	}
	if err := e.registry.Insert(req); err != nil {
		e.mustCredit(cmd.Caller, cmd.Symbol, cmd.Amount)
		return Result{}, err
	}

	return Result{SwapID: id, Effects: Effects{
		Balances: []Balance{e.ledger.entry(cmd.Caller, cmd.Symbol)},
		Created:  &req,
		LastID:   id,
	}}, nil
}

func (e *Engine) execute(cmd Command) (Result, error) {
	r1, err := e.pending(cmd.SwapID)
	if err != nil {
		return Result{}, err
	}
	r2, err := e.pending(cmd.OtherID)
	if err != nil {
		return Result{}, err
	}

	if !Compatible(r1, r2) {
		return Result{}, errors.Wrapf(ErrIncompatible,
			"swap %d offers %s/%s wants %s/%s, swap %d offers %s/%s wants %s/%s",
			r1.ID, r1.Offered.Symbol, r1.Offered.Chain, r1.WantedSymbol, r1.WantedChain,
			r2.ID, r2.Offered.Symbol, r2.Offered.Chain, r2.WantedSymbol, r2.WantedChain)
	}

	var expired []SwapRequest
	for _, r := range []SwapRequest{r1, r2} {
		if r.ExpiredAt(cmd.Time) {
			expired = append(expired, r)
		}
	}
	if len(expired) > 0 {
		res, err := e.close(expired, StatusExpired)
		if err != nil {
			return Result{}, err
		}
		return res, errors.Wrapf(ErrExpired, "executing swaps %d and %d", r1.ID, r2.ID)
	}

	credits := []credit{
		{owner: r1.Owner, symbol: r2.Offered.Symbol, amount: r2.Offered.Amount},
		{owner: r2.Owner, symbol: r1.Offered.Symbol, amount: r1.Offered.Amount},
	}
	if err := e.checkCredits(credits); err != nil {
		return Result{}, err
	}

	balances := e.applyCredits(credits)
	e.registry.Remove(r1.ID)
	e.registry.Remove(r2.ID)
	r1.Status, r2.Status = StatusMatched, StatusMatched
	e.settle(r1)
	e.settle(r2)

	return Result{Effects: Effects{Balances: balances, Closed: []SwapRequest{r1, r2}}}, nil
}

func (e *Engine) cancel(cmd Command) (Result, error) {
	req, ok := e.registry.Get(cmd.SwapID)
	if !ok {
		s, done := e.settled[cmd.SwapID]
		if !done {
			return Result{}, errors.Wrapf(ErrNotFound, "swap %d", cmd.SwapID)
		}
		if s.Owner != cmd.Caller {
			return Result{}, errors.Wrapf(ErrUnauthorized, "swap %d belongs to another owner", cmd.SwapID)
		}
		return Result{}, errors.Wrapf(ErrAlreadyProcessed, "swap %d is %s", cmd.SwapID, s.Status)
	}
	if req.Owner != cmd.Caller {
		return Result{}, errors.Wrapf(ErrUnauthorized, "swap %d belongs to another owner", cmd.SwapID)
	}
	if req.ExpiredAt(cmd.Time) {
		res, err := e.close([]SwapRequest{req}, StatusExpired)
		if err != nil {
			return Result{}, err
		}
		return res, errors.Wrapf(ErrExpired, "cancelling swap %d", req.ID)
	}
	return e.close([]SwapRequest{req}, StatusCancelled)
}

func (e *Engine) sweep(now uint64) Result {
	var res Result
	for _, req := range e.registry.ListPending() {
		if !req.ExpiredAt(now) {
			continue
		}
		one, err := e.close([]SwapRequest{req}, StatusExpired)
		if err != nil {
			// Refund would overflow the owner's balance; leave it pending.
			continue
		}
		res.Effects.merge(one.Effects)
		res.Swept++
		if res.Swept == MaxSweep {
			break
		}
	}
	return res
}

// close refunds the escrow of every request and moves it to status. Either
// all of them are closed or, if a refund would overflow, none.
func (e *Engine) close(reqs []SwapRequest, status Status) (Result, error) {
	credits := make([]credit, 0, len(reqs))
	for _, r := range reqs {
		credits = append(credits, credit{owner: r.Owner, symbol: r.Offered.Symbol, amount: r.Offered.Amount})
	}
	if err := e.checkCredits(credits); err != nil {
		return Result{}, err
	}

	balances := e.applyCredits(credits)
	closed := make([]SwapRequest, 0, len(reqs))
	for _, r := range reqs {
		e.registry.Remove(r.ID)
		r.Status = status
		e.settle(r)
		closed = append(closed, r)
	}
	return Result{Effects: Effects{Balances: balances, Closed: closed}}, nil
}

func (e *Engine) pending(id uint64) (SwapRequest, error) {
	req, ok := e.registry.Get(id)
	if ok {
		return req, nil
	}
	if s, done := e.settled[id]; done {
		return SwapRequest{}, errors.Wrapf(ErrNotFound, "swap %d is no longer pending (%s)", id, s.Status)
	}
	return SwapRequest{}, errors.Wrapf(ErrNotFound, "swap %d", id)
}

func (e *Engine) settle(r SwapRequest) {
	e.settled[r.ID] = Settlement{ID: r.ID, Owner: r.Owner, Status: r.Status}
}

func (e *Engine) supplyOf(symbol string) Supply {
	sup, ok := e.supply[symbol]
	if !ok {
		sup.Symbol = symbol
	}
	return sup
}

type credit struct {
	owner  Identity
	symbol string
	amount uint64
}

// checkCredits verifies that every credit fits, counting repeated
// (owner, symbol) pairs together.
func (e *Engine) checkCredits(cs []credit) error {
	sums := make(map[balanceKey]uint64, len(cs))
	for _, c := range cs {
		k := balanceKey{c.owner, c.symbol}
		base, seen := sums[k]
		if !seen {
			base = e.ledger.BalanceOf(c.owner, c.symbol)
		}
		sum, carry := bits.Add64(base, c.amount, 0)
		if carry != 0 {
			return errors.Wrapf(ErrOverflow, "crediting %d %s to %s", c.amount, c.symbol, c.owner)
		}
		sums[k] = sum
	}
	return nil
}

func (e *Engine) applyCredits(cs []credit) []Balance {
	out := make([]Balance, 0, len(cs))
	seen := make(map[balanceKey]int, len(cs))
	for _, c := range cs {
		e.mustCredit(c.owner, c.symbol, c.amount)
		k := balanceKey{c.owner, c.symbol}
		entry := e.ledger.entry(c.owner, c.symbol)
		if i, ok := seen[k]; ok {
			out[i] = entry
			continue
		}
		seen[k] = len(out)
		out = append(out, entry)
	}
	return out
}

// mustCredit is only called for credits verified under the same lock.
func (e *Engine) mustCredit(owner Identity, symbol string, amount uint64) {
	if err := e.ledger.Credit(owner, symbol, amount); err != nil {
		panic(fmt.Sprintf("LEDGER_INVARIANT: verified credit failed: %v", err))
	}
}

//
// ──────────────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────────────
//

func (e *Engine) BalanceOf(owner Identity, symbol string) uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.BalanceOf(owner, symbol)
}

func (e *Engine) Balances(owner Identity) map[string]uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.Balances(owner)
}

// GetSwapRequest returns a pending request. Requests that reached a
// terminal status are no longer visible here.
func (e *Engine) GetSwapRequest(id uint64) (SwapRequest, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	req, ok := e.registry.Get(id)
	if !ok {
		return SwapRequest{}, errors.Wrapf(ErrNotFound, "swap %d", id)
	}
	return req, nil
}

func (e *Engine) ListPendingSwaps() []SwapRequest {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.registry.ListPending()
}

func (e *Engine) PendingCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.registry.Len()
}
