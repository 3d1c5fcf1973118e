package service

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"junction/domain/swap"
	"junction/infra/assets"
	"junction/infra/chain"
	"junction/infra/codec"
	"junction/infra/metrics"
	"junction/infra/sequence"
	"junction/infra/store"
	"junction/infra/wal"
)

// ErrUnavailable is returned after a journal or store failure has left
// memory ahead of disk. The process must restart and replay.
var ErrUnavailable = errors.New("service unavailable")

/*
SwapService is the ONLY write entry point into the system.

Every mutating call follows the same path, serialized by one mutex:
- validate (identity, catalog, addresses)
- append the command to the journal
- apply it to the engine
- commit the effects and outbox messages to the store in one batch
- publish the events on the in-process bus
*/
type SwapService struct {
	mu     sync.Mutex
	broken error

	engine  *swap.Engine
	journal *wal.WAL
	store   *store.Store
	seq     *sequence.Sequencer

	clock   swap.Clock
	catalog *assets.Catalog
	chains  *chain.Validator
	deriver chain.Deriver
	bus     *Bus
	metrics *metrics.Metrics
	log     *logrus.Entry

	outbox     bool
	journalDir string
}

type Deps struct {
	Engine     *swap.Engine
	Journal    *wal.WAL
	JournalDir string
	Store      *store.Store
	Clock      swap.Clock
	Catalog    *assets.Catalog
	Chains     *chain.Validator
	Deriver    chain.Deriver
	Bus        *Bus
	Metrics    *metrics.Metrics
	Log        *logrus.Entry
	// Outbox enables writing events to the outbox for the broadcaster.
	Outbox bool
}

// NewSwapService wires all dependencies.
// No globals. No magic.
func NewSwapService(d Deps) *SwapService {
	if d.Clock == nil {
		d.Clock = swap.SystemClock
	}
	if d.Catalog == nil {
		d.Catalog = assets.New(nil)
	}
	if d.Deriver == nil {
		d.Deriver = chain.Simulated{}
	}
	if d.Bus == nil {
		d.Bus = NewBus()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	if d.Log == nil {
		d.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &SwapService{
		engine:     d.Engine,
		journal:    d.Journal,
		journalDir: d.JournalDir,
		store:      d.Store,
		seq:        sequence.New(0),
		clock:      d.Clock,
		catalog:    d.Catalog,
		chains:     d.Chains,
		deriver:    d.Deriver,
		bus:        d.Bus,
		metrics:    d.Metrics,
		log:        d.Log,
		outbox:     d.Outbox,
	}
}

//
// ──────────────────────────────────────────────────────────
// Commands
// ──────────────────────────────────────────────────────────
//

// CreateSwap escrows the offered amount and returns the new swap id. The
// request expires durationNanos after it is applied.
func (s *SwapService) CreateSwap(
	ctx context.Context,
	owner swap.Identity,
	offeredSymbol string,
	offeredChain swap.Chain,
	offeredAmount uint64,
	wantedSymbol string,
	wantedChain swap.Chain,
	durationNanos uint64,
) (uint64, error) {
	offeredChain, err := s.catalog.Check(offeredSymbol, offeredChain)
	if err != nil {
		return 0, err
	}
	wantedChain, err = s.catalog.Check(wantedSymbol, wantedChain)
	if err != nil {
		return 0, err
	}

	res, err := s.submit(ctx, swap.Command{
		Kind:         swap.CmdCreate,
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

func (s *SwapService) ExecuteSwap(ctx context.Context, caller swap.Identity, id1, id2 uint64) error {
	_, err := s.submit(ctx, swap.Command{Kind: swap.CmdExecute, Caller: caller, SwapID: id1, OtherID: id2})
	return err
}

func (s *SwapService) CancelSwap(ctx context.Context, caller swap.Identity, id uint64) error {
	_, err := s.submit(ctx, swap.Command{Kind: swap.CmdCancel, Caller: caller, SwapID: id})
	return err
}

// Deposit credits funds that arrived from outside. A non-empty ref makes
// the call idempotent: repeating it reports duplicate and credits nothing.
func (s *SwapService) Deposit(
	ctx context.Context,
	ref string,
	owner swap.Identity,
	symbol string,
	c swap.Chain,
	amount uint64,
) (duplicate bool, err error) {
	c, err = s.catalog.Check(symbol, c)
	if err != nil {
		return false, err
	}
	res, err := s.submit(ctx, swap.Command{
		Kind:   swap.CmdDeposit,
		Caller: owner,
		Ref:    ref,
		Symbol: symbol,
		Chain:  c,
		Amount: amount,
	})
	return res.Duplicate, err
}

// Withdraw debits the owner and queues a settlement request for the
// external chain. It returns the ticket that identifies the request.
func (s *SwapService) Withdraw(
	ctx context.Context,
	owner swap.Identity,
	symbol string,
	amount uint64,
	target swap.Chain,
	address string,
) (string, error) {
	target, err := s.catalog.Check(symbol, target)
	if err != nil {
		return "", err
	}
	if s.chains != nil {
		if err := s.chains.Validate(target, address); err != nil {
			return "", err
		}
	}

	ticket := uuid.NewString()
	_, err = s.submit(ctx, swap.Command{
		Kind:    swap.CmdWithdraw,
		Caller:  owner,
		Ref:     ticket,
		Symbol:  symbol,
		Chain:   target,
		Amount:  amount,
		Address: address,
	})
	if err != nil {
		return "", err
	}
	return ticket, nil
}

// SweepExpired expires every pending swap past its deadline, at most
// swap.MaxSweep per journaled command. Nothing is journaled when there is
// nothing to expire.
func (s *SwapService) SweepExpired(ctx context.Context) (int, error) {
	now := s.clock.Now()
	due := false
	for _, r := range s.engine.ListPendingSwaps() {
		if r.ExpiredAt(now) {
			due = true
			break
		}
	}
	if !due {
		return 0, nil
	}

	total := 0
	for {
		res, err := s.submit(ctx, swap.Command{Kind: swap.CmdSweep, Time: now})
		if err != nil {
			return total, err
		}
		s.metrics.Swept(res.Swept)
		total += res.Swept
		if res.Swept < swap.MaxSweep {
			return total, nil
		}
	}
}

// submit runs one command through journal, engine and store. Domain
// failures come back as the engine reported them; anything else is an
// infrastructure failure.
func (s *SwapService) submit(ctx context.Context, cmd swap.Command) (swap.Result, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return swap.Result{}, err
	}
	if err := swap.Validate(cmd); err != nil {
		s.observe(cmd.Kind, start, err)
		return swap.Result{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.broken != nil {
		return swap.Result{}, errors.Mark(errors.Wrap(s.broken, "refusing writes"), ErrUnavailable)
	}
	if cmd.Time == 0 {
		cmd.Time = s.clock.Now()
	}

	seq, err := s.seq.Next()
	if err != nil {
		return swap.Result{}, errors.Mark(err, ErrUnavailable)
	}

	payload, err := codec.Commands.Encode(cmd)
	if err != nil {
		return swap.Result{}, errors.Wrap(err, "encode command")
	}
	if err := s.journal.Append(&wal.Record{Type: wal.RecordType(cmd.Kind), Seq: seq, Time: cmd.Time, Data: payload}); err != nil {
		s.metrics.JournalError()
		return swap.Result{}, s.fail(errors.Wrapf(err, "journal seq %d", seq))
	}

	res, applyErr := s.engine.Apply(cmd)
	events := eventsFor(seq, cmd, res.Effects)

	if err := s.commit(seq, res.Effects, events); err != nil {
		return swap.Result{}, s.fail(err)
	}

	s.bus.Publish(events...)
	s.metrics.SetPending(s.engine.PendingCount())
	s.observe(cmd.Kind, start, applyErr)

	entry := s.log.WithFields(logrus.Fields{"seq": seq, "cmd": cmd.Kind.String(), "caller": cmd.Caller})
	if applyErr != nil {
		entry.WithField("reason", swap.KindName(applyErr)).Debug(applyErr)
	} else {
		entry.Debug("applied")
	}
	return res, applyErr
}

func (s *SwapService) commit(seq uint64, fx swap.Effects, events []Event) error {
	var msgs []store.Message
	if s.outbox {
		var err error
		if msgs, err = outboxMessages(events); err != nil {
			return errors.Wrap(err, "encode events")
		}
	}
	return s.store.Commit(seq, fx, msgs)
}

// fail stops the service from accepting further writes. The engine may
// already hold effects that are not on disk; only a restart and replay
// can reconcile them.
func (s *SwapService) fail(err error) error {
	s.broken = err
	s.log.WithError(err).Error("write path failed, refusing further writes until restart")
	return errors.Mark(err, ErrUnavailable)
}

func (s *SwapService) observe(kind swap.CommandKind, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = swap.KindName(err)
	}
	s.metrics.ObserveCommand(kind.String(), outcome, time.Since(start))
}

//
// ──────────────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────────────
//

func (s *SwapService) BalanceOf(owner swap.Identity, symbol string) uint64 {
	return s.engine.BalanceOf(owner, symbol)
}

func (s *SwapService) Balances(owner swap.Identity) map[string]uint64 {
	return s.engine.Balances(owner)
}

func (s *SwapService) GetSwap(id uint64) (swap.SwapRequest, error) {
	return s.engine.GetSwapRequest(id)
}

func (s *SwapService) ListPendingSwaps() []swap.SwapRequest {
	return s.engine.ListPendingSwaps()
}

func (s *SwapService) Audit() []swap.SupplyReport {
	return s.engine.Audit()
}

func (s *SwapService) Assets() []assets.Asset {
	return s.catalog.List()
}

func (s *SwapService) Catalog() *assets.Catalog {
	return s.catalog
}

func (s *SwapService) Bus() *Bus {
	return s.bus
}

// DepositAddress returns the owner's deposit address on c, deriving and
// recording one on first use.
func (s *SwapService) DepositAddress(owner swap.Identity, c swap.Chain) (string, error) {
	if owner.IsAnonymous() {
		return "", errors.Wrap(swap.ErrUnauthenticated, "deposit address requires an identity")
	}
	if !c.Valid() {
		return "", errors.Wrapf(swap.ErrInvalidInput, "unsupported chain %s", c)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	addr, ok, err := s.store.Address(owner, c)
	if err != nil {
		return "", errors.Wrap(err, "look up deposit address")
	}
	if ok {
		return addr, nil
	}
	if addr, err = s.deriver.Derive(owner, c); err != nil {
		return "", err
	}
	if err := s.store.PutAddress(owner, c, addr); err != nil {
		return "", errors.Wrap(err, "record deposit address")
	}
	return addr, nil
}

// AppliedSeq is the journal sequence of the last command applied.
func (s *SwapService) AppliedSeq() uint64 {
	return s.seq.Current()
}
