package swap_test

import (
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"junction/domain/swap"
	"junction/infra/sequence"
)

const hour = uint64(time.Hour)

type manualClock struct{ now atomic.Uint64 }

func (c *manualClock) Now() uint64      { return c.now.Load() }
func (c *manualClock) Advance(d uint64) { c.now.Add(d) }
func (c *manualClock) Set(t uint64)     { c.now.Store(t) }

func newClock(start uint64) *manualClock {
	c := &manualClock{}
	c.Set(start)
	return c
}

func newEngine(c swap.Clock) *swap.Engine {
	return swap.NewEngine(sequence.New(0), swap.WithClock(c))
}

const (
	alice swap.Identity = "alice"
	bob   swap.Identity = "bob"
	carol swap.Identity = "carol"
)

// setupPair runs scenarios A and B: alice escrows 50 of 100 ICP for BTC,
// bob escrows 10 BTC for ICP.
func setupPair(t *testing.T, e *swap.Engine) (uint64, uint64) {
	t.Helper()
	require.NoError(t, e.Deposit(alice, "ICP", 100))
	id1, err := e.CreateSwapRequest(alice, "ICP", swap.ChainICP, 50, "BTC", swap.ChainBitcoin, hour)
	require.NoError(t, err)

	require.NoError(t, e.Deposit(bob, "BTC", 10))
	id2, err := e.CreateSwapRequest(bob, "BTC", swap.ChainBitcoin, 10, "ICP", swap.ChainICP, hour)
	require.NoError(t, err)
	return id1, id2
}

func requireBalanced(t *testing.T, e *swap.Engine) {
	t.Helper()
	for _, rep := range e.Audit() {
		require.Truef(t, rep.Balanced, "%s not conserved: %+v", rep.Symbol, rep)
	}
}

func TestEngine_CreateEscrowsOffer(t *testing.T) {
	clk := newClock(1_000)
	e := newEngine(clk)

	require.NoError(t, e.Deposit(alice, "ICP", 100))
	id, err := e.CreateSwapRequest(alice, "ICP", swap.ChainICP, 50, "BTC", swap.ChainBitcoin, hour)
	require.NoError(t, err)
	require.Equal(t, uint64(1), id)
	require.Equal(t, uint64(50), e.BalanceOf(alice, "ICP"))

	req, err := e.GetSwapRequest(id)
	require.NoError(t, err)
	assert.Equal(t, alice, req.Owner)
	assert.Equal(t, swap.Asset{Chain: swap.ChainICP, Symbol: "ICP", Amount: 50}, req.Offered)
	assert.Equal(t, 1_000+hour, req.Deadline)
	assert.Equal(t, swap.StatusPending, req.Status)

	requireBalanced(t, e)
}

func TestEngine_ExecuteTransfersEscrow(t *testing.T) {
	e := newEngine(newClock(1))
	id1, id2 := setupPair(t, e)
	require.Equal(t, uint64(2), id2)

	require.NoError(t, e.ExecuteSwap(carol, id1, id2))

	assert.Equal(t, uint64(10), e.BalanceOf(alice, "BTC"))
	assert.Equal(t, uint64(50), e.BalanceOf(alice, "ICP"))
	assert.Equal(t, uint64(50), e.BalanceOf(bob, "ICP"))
	assert.Equal(t, uint64(0), e.BalanceOf(bob, "BTC"))

	_, err := e.GetSwapRequest(id1)
	require.True(t, errors.Is(err, swap.ErrNotFound))
	_, err = e.GetSwapRequest(id2)
	require.True(t, errors.Is(err, swap.ErrNotFound))
	require.Empty(t, e.ListPendingSwaps())

	// A second execution of the same pair finds nothing and changes nothing.
	err = e.ExecuteSwap(carol, id1, id2)
	require.True(t, errors.Is(err, swap.ErrNotFound))
	assert.Equal(t, uint64(10), e.BalanceOf(alice, "BTC"))

	requireBalanced(t, e)
}

func TestEngine_CreateInsufficientFunds(t *testing.T) {
	e := newEngine(newClock(1))
	require.NoError(t, e.Deposit(alice, "ICP", 5))

	_, err := e.CreateSwapRequest(alice, "ICP", swap.ChainICP, 10, "BTC", swap.ChainBitcoin, hour)
	require.True(t, errors.Is(err, swap.ErrInsufficientFunds))
	require.Equal(t, uint64(5), e.BalanceOf(alice, "ICP"))
	require.Empty(t, e.ListPendingSwaps())

	// The failed call did not burn an id.
	id, err := e.CreateSwapRequest(alice, "ICP", swap.ChainICP, 5, "BTC", swap.ChainBitcoin, hour)
	require.NoError(t, err)
	require.Equal(t, uint64(1), id)
}

func TestEngine_ExecuteIncompatible(t *testing.T) {
	e := newEngine(newClock(1))
	require.NoError(t, e.Deposit(alice, "ICP", 100))
	require.NoError(t, e.Deposit(bob, "BTC", 10))

	id1, err := e.CreateSwapRequest(alice, "ICP", swap.ChainICP, 50, "BTC", swap.ChainBitcoin, hour)
	require.NoError(t, err)
	id2, err := e.CreateSwapRequest(bob, "BTC", swap.ChainBitcoin, 10, "ETH", swap.ChainEthereum, hour)
	require.NoError(t, err)

	err = e.ExecuteSwap(carol, id1, id2)
	require.True(t, errors.Is(err, swap.ErrIncompatible))
	require.Len(t, e.ListPendingSwaps(), 2)
	assert.Equal(t, uint64(50), e.BalanceOf(alice, "ICP"))
	assert.Equal(t, uint64(0), e.BalanceOf(bob, "BTC"))
	assert.Equal(t, uint64(0), e.BalanceOf(alice, "BTC"))
}

func TestEngine_CompatibilityChecksChain(t *testing.T) {
	e := newEngine(newClock(1))
	require.NoError(t, e.Deposit(alice, "USDC", 100))
	require.NoError(t, e.Deposit(bob, "ICP", 100))

	// Same symbol, wrong chain.
	id1, err := e.CreateSwapRequest(alice, "USDC", swap.ChainEthereum, 100, "ICP", swap.ChainICP, hour)
	require.NoError(t, err)
	id2, err := e.CreateSwapRequest(bob, "ICP", swap.ChainICP, 100, "USDC", swap.ChainICP, hour)
	require.NoError(t, err)

	require.True(t, errors.Is(e.ExecuteSwap(carol, id1, id2), swap.ErrIncompatible))
}

func TestEngine_ExecuteExpiredRefunds(t *testing.T) {
	clk := newClock(1)
	e := newEngine(clk)
	require.NoError(t, e.Deposit(alice, "ICP", 100))
	require.NoError(t, e.Deposit(bob, "BTC", 10))

	short, err := e.CreateSwapRequest(alice, "ICP", swap.ChainICP, 50, "BTC", swap.ChainBitcoin, 10)
	require.NoError(t, err)
	long, err := e.CreateSwapRequest(bob, "BTC", swap.ChainBitcoin, 10, "ICP", swap.ChainICP, hour)
	require.NoError(t, err)

	// The deadline itself is still live.
	clk.Set(11)
	_, err = e.GetSwapRequest(short)
	require.NoError(t, err)

	clk.Set(12)
	err = e.ExecuteSwap(carol, short, long)
	require.True(t, errors.Is(err, swap.ErrExpired))

	assert.Equal(t, uint64(100), e.BalanceOf(alice, "ICP"), "escrow returned")
	assert.Equal(t, uint64(0), e.BalanceOf(bob, "BTC"), "live request keeps its escrow")

	_, err = e.GetSwapRequest(short)
	require.True(t, errors.Is(err, swap.ErrNotFound))
	pending := e.ListPendingSwaps()
	require.Len(t, pending, 1)
	require.Equal(t, long, pending[0].ID)

	// Refund happens exactly once.
	err = e.ExecuteSwap(carol, short, long)
	require.True(t, errors.Is(err, swap.ErrNotFound))
	require.True(t, errors.Is(e.CancelSwapRequest(short, alice), swap.ErrAlreadyProcessed))
	assert.Equal(t, uint64(100), e.BalanceOf(alice, "ICP"))

	requireBalanced(t, e)
}

func TestEngine_IncompatiblePairWithExpiredRequestStaysPending(t *testing.T) {
	clk := newClock(1)
	e := newEngine(clk)
	require.NoError(t, e.Deposit(alice, "ICP", 100))
	require.NoError(t, e.Deposit(bob, "BTC", 10))

	id1, err := e.CreateSwapRequest(alice, "ICP", swap.ChainICP, 100, "BTC", swap.ChainBitcoin, 5)
	require.NoError(t, err)
	id2, err := e.CreateSwapRequest(bob, "BTC", swap.ChainBitcoin, 10, "ETH", swap.ChainEthereum, hour)
	require.NoError(t, err)

	clk.Advance(100)
	require.True(t, errors.Is(e.ExecuteSwap(carol, id1, id2), swap.ErrIncompatible))
	assert.Equal(t, uint64(0), e.BalanceOf(alice, "ICP"))
	assert.Equal(t, uint64(0), e.BalanceOf(bob, "BTC"))
	require.Len(t, e.ListPendingSwaps(), 2)

	// The sweep still collects the stale request.
	require.Equal(t, 1, e.SweepExpired())
	assert.Equal(t, uint64(100), e.BalanceOf(alice, "ICP"))
	pending := e.ListPendingSwaps()
	require.Len(t, pending, 1)
	require.Equal(t, id2, pending[0].ID)
	requireBalanced(t, e)
}

func TestEngine_ExecuteSameIDRejected(t *testing.T) {
	e := newEngine(newClock(1))
	id1, _ := setupPair(t, e)
	require.True(t, errors.Is(e.ExecuteSwap(carol, id1, id1), swap.ErrInvalidInput))
	require.Len(t, e.ListPendingSwaps(), 2)
}

func TestEngine_ExecuteMissing(t *testing.T) {
	e := newEngine(newClock(1))
	id1, _ := setupPair(t, e)
	require.True(t, errors.Is(e.ExecuteSwap(carol, id1, 99), swap.ErrNotFound))
	require.True(t, errors.Is(e.ExecuteSwap(carol, 99, id1), swap.ErrNotFound))
	require.Len(t, e.ListPendingSwaps(), 2)
}

func TestEngine_Cancel(t *testing.T) {
	e := newEngine(newClock(1))
	id1, id2 := setupPair(t, e)

	require.True(t, errors.Is(e.CancelSwapRequest(id1, bob), swap.ErrUnauthorized))
	require.True(t, errors.Is(e.CancelSwapRequest(42, alice), swap.ErrNotFound))
	require.Equal(t, uint64(50), e.BalanceOf(alice, "ICP"))

	require.NoError(t, e.CancelSwapRequest(id1, alice))
	require.Equal(t, uint64(100), e.BalanceOf(alice, "ICP"))
	require.Len(t, e.ListPendingSwaps(), 1)

	require.True(t, errors.Is(e.CancelSwapRequest(id1, alice), swap.ErrAlreadyProcessed))
	require.True(t, errors.Is(e.CancelSwapRequest(id1, bob), swap.ErrUnauthorized))
	require.Equal(t, uint64(100), e.BalanceOf(alice, "ICP"))

	// A cancelled request can no longer be matched.
	require.True(t, errors.Is(e.ExecuteSwap(carol, id1, id2), swap.ErrNotFound))
	requireBalanced(t, e)
}

func TestEngine_CancelAfterMatch(t *testing.T) {
	e := newEngine(newClock(1))
	id1, id2 := setupPair(t, e)
	require.NoError(t, e.ExecuteSwap(carol, id1, id2))
	require.True(t, errors.Is(e.CancelSwapRequest(id1, alice), swap.ErrAlreadyProcessed))
	require.Equal(t, uint64(50), e.BalanceOf(alice, "ICP"))
}

func TestEngine_CancelExpiredPending(t *testing.T) {
	clk := newClock(1)
	e := newEngine(clk)
	require.NoError(t, e.Deposit(alice, "ICP", 10))
	id, err := e.CreateSwapRequest(alice, "ICP", swap.ChainICP, 10, "BTC", swap.ChainBitcoin, 5)
	require.NoError(t, err)

	clk.Advance(100)
	require.True(t, errors.Is(e.CancelSwapRequest(id, bob), swap.ErrUnauthorized))
	require.Len(t, e.ListPendingSwaps(), 1)

	require.True(t, errors.Is(e.CancelSwapRequest(id, alice), swap.ErrExpired))
	require.Equal(t, uint64(10), e.BalanceOf(alice, "ICP"))
	require.Empty(t, e.ListPendingSwaps())

	// Refunded once; the request is now terminal as Expired.
	err = e.CancelSwapRequest(id, alice)
	require.True(t, errors.Is(err, swap.ErrAlreadyProcessed))
	require.Contains(t, err.Error(), "EXPIRED")
	require.Equal(t, uint64(10), e.BalanceOf(alice, "ICP"))
	requireBalanced(t, e)
}

func TestEngine_RejectsAnonymous(t *testing.T) {
	e := newEngine(newClock(1))
	for _, anon := range []swap.Identity{"", swap.AnonymousPrincipal} {
		require.True(t, errors.Is(e.Deposit(anon, "ICP", 1), swap.ErrUnauthenticated))
		_, err := e.CreateSwapRequest(anon, "ICP", swap.ChainICP, 1, "BTC", swap.ChainBitcoin, hour)
		require.True(t, errors.Is(err, swap.ErrUnauthenticated))
		require.True(t, errors.Is(e.ExecuteSwap(anon, 1, 2), swap.ErrUnauthenticated))
		require.True(t, errors.Is(e.CancelSwapRequest(1, anon), swap.ErrUnauthenticated))
		require.True(t, errors.Is(e.Withdraw(anon, "ICP", 1, swap.ChainICP, "x"), swap.ErrUnauthenticated))
	}
	require.Empty(t, e.Audit())
}

func TestEngine_InvalidInput(t *testing.T) {
	e := newEngine(newClock(1))
	require.NoError(t, e.Deposit(alice, "ICP", 10))

	cases := map[string]func() error{
		"zero amount": func() error {
			_, err := e.CreateSwapRequest(alice, "ICP", swap.ChainICP, 0, "BTC", swap.ChainBitcoin, hour)
			return err
		},
		"zero duration": func() error {
			_, err := e.CreateSwapRequest(alice, "ICP", swap.ChainICP, 1, "BTC", swap.ChainBitcoin, 0)
			return err
		},
		"unknown chain": func() error {
			_, err := e.CreateSwapRequest(alice, "ICP", swap.ChainUnknown, 1, "BTC", swap.ChainBitcoin, hour)
			return err
		},
		"zero deposit":    func() error { return e.Deposit(alice, "ICP", 0) },
		"no address":      func() error { return e.Withdraw(alice, "ICP", 1, swap.ChainICP, "") },
		"zero withdrawal": func() error { return e.Withdraw(alice, "ICP", 0, swap.ChainICP, "addr") },
	}
	for name, call := range cases {
		t.Run(name, func(t *testing.T) {
			require.True(t, errors.Is(call(), swap.ErrInvalidInput))
		})
	}
	require.Equal(t, uint64(10), e.BalanceOf(alice, "ICP"))
}

func TestEngine_DeadlineOverflow(t *testing.T) {
	clk := newClock(math.MaxUint64 - 10)
	e := newEngine(clk)
	require.NoError(t, e.Deposit(alice, "ICP", 10))

	_, err := e.CreateSwapRequest(alice, "ICP", swap.ChainICP, 10, "BTC", swap.ChainBitcoin, 11)
	require.True(t, errors.Is(err, swap.ErrOverflow))
	require.Equal(t, uint64(10), e.BalanceOf(alice, "ICP"))
	require.Empty(t, e.ListPendingSwaps())

	_, err = e.CreateSwapRequest(alice, "ICP", swap.ChainICP, 10, "BTC", swap.ChainBitcoin, 10)
	require.NoError(t, err)
}

func TestEngine_IDExhaustion(t *testing.T) {
	e := swap.NewEngine(sequence.New(math.MaxUint64), swap.WithClock(newClock(1)))
	require.NoError(t, e.Deposit(alice, "ICP", 10))

	_, err := e.CreateSwapRequest(alice, "ICP", swap.ChainICP, 10, "BTC", swap.ChainBitcoin, hour)
	require.True(t, errors.Is(err, swap.ErrOverflow))
	require.Equal(t, uint64(10), e.BalanceOf(alice, "ICP"))
}

func TestEngine_ExecuteCreditOverflowChangesNothing(t *testing.T) {
	e := newEngine(newClock(1))
	require.NoError(t, e.Restore(swap.State{
		Balances: []swap.Balance{{Owner: alice, Symbol: "BTC", Amount: math.MaxUint64}},
		Pending: []swap.SwapRequest{
			{ID: 1, Owner: alice, Offered: swap.Asset{Chain: swap.ChainICP, Symbol: "ICP", Amount: 5},
				WantedSymbol: "BTC", WantedChain: swap.ChainBitcoin, Deadline: hour},
			{ID: 2, Owner: bob, Offered: swap.Asset{Chain: swap.ChainBitcoin, Symbol: "BTC", Amount: 1},
				WantedSymbol: "ICP", WantedChain: swap.ChainICP, Deadline: hour},
		},
		LastID: 2,
	}))

	err := e.ExecuteSwap(carol, 1, 2)
	require.True(t, errors.Is(err, swap.ErrOverflow))
	require.Len(t, e.ListPendingSwaps(), 2)
	require.Equal(t, uint64(0), e.BalanceOf(bob, "ICP"))
	require.Equal(t, uint64(math.MaxUint64), e.BalanceOf(alice, "BTC"))
}

func TestEngine_DepositDuplicateRef(t *testing.T) {
	e := newEngine(newClock(1))
	cmd := swap.Command{Kind: swap.CmdDeposit, Time: 1, Caller: alice, Ref: "tx-1", Symbol: "ICP", Amount: 7}

	res, err := e.Apply(cmd)
	require.NoError(t, err)
	require.False(t, res.Duplicate)
	require.NotNil(t, res.Effects.Deposit)

	res, err = e.Apply(cmd)
	require.NoError(t, err)
	require.True(t, res.Duplicate)
	require.True(t, res.Effects.Empty())
	require.Equal(t, uint64(7), e.BalanceOf(alice, "ICP"))
}

func TestEngine_Withdraw(t *testing.T) {
	e := newEngine(newClock(1))
	require.NoError(t, e.Deposit(alice, "ETH", 30))

	res, err := e.Apply(swap.Command{
		Kind: swap.CmdWithdraw, Time: 2, Caller: alice, Ref: "w-1",
		Symbol: "ETH", Amount: 20, Chain: swap.ChainEthereum, Address: "0xabc",
	})
	require.NoError(t, err)
	require.NotNil(t, res.Effects.Withdrawal)
	assert.Equal(t, "0xabc", res.Effects.Withdrawal.Address)
	assert.Equal(t, uint64(10), e.BalanceOf(alice, "ETH"))

	err = e.Withdraw(alice, "ETH", 11, swap.ChainEthereum, "0xabc")
	require.True(t, errors.Is(err, swap.ErrInsufficientFunds))
	assert.Equal(t, uint64(10), e.BalanceOf(alice, "ETH"))

	rep := e.Audit()
	require.Len(t, rep, 1)
	assert.Equal(t, swap.SupplyReport{Symbol: "ETH", Spendable: 10, Deposited: 30, Withdrawn: 20, Balanced: true}, rep[0])
}

func TestEngine_SweepExpired(t *testing.T) {
	clk := newClock(1)
	e := newEngine(clk)
	require.NoError(t, e.Deposit(alice, "ICP", 100))

	_, err := e.CreateSwapRequest(alice, "ICP", swap.ChainICP, 10, "BTC", swap.ChainBitcoin, 10)
	require.NoError(t, err)
	_, err = e.CreateSwapRequest(alice, "ICP", swap.ChainICP, 20, "BTC", swap.ChainBitcoin, 10)
	require.NoError(t, err)
	live, err := e.CreateSwapRequest(alice, "ICP", swap.ChainICP, 30, "BTC", swap.ChainBitcoin, hour)
	require.NoError(t, err)

	require.Equal(t, 0, e.SweepExpired())
	clk.Advance(100)
	require.Equal(t, 2, e.SweepExpired())
	require.Equal(t, 0, e.SweepExpired())

	require.Equal(t, uint64(70), e.BalanceOf(alice, "ICP"))
	pending := e.ListPendingSwaps()
	require.Len(t, pending, 1)
	require.Equal(t, live, pending[0].ID)
	requireBalanced(t, e)
}

func TestEngine_SweepIsBatched(t *testing.T) {
	clk := newClock(1)
	e := newEngine(clk)
	const n = swap.MaxSweep + 5
	require.NoError(t, e.Deposit(alice, "ICP", n))
	for i := 0; i < n; i++ {
		_, err := e.CreateSwapRequest(alice, "ICP", swap.ChainICP, 1, "BTC", swap.ChainBitcoin, 10)
		require.NoError(t, err)
	}
	clk.Advance(100)

	res, err := e.Apply(swap.Command{Kind: swap.CmdSweep, Time: clk.Now()})
	require.NoError(t, err)
	require.Equal(t, swap.MaxSweep, res.Swept)
	require.Len(t, res.Effects.Closed, swap.MaxSweep)
	require.Len(t, e.ListPendingSwaps(), 5)

	require.Equal(t, 5, e.SweepExpired())
	require.Empty(t, e.ListPendingSwaps())
	require.Equal(t, uint64(n), e.BalanceOf(alice, "ICP"))
	requireBalanced(t, e)
}

func TestEngine_BalancesAndIDsIncrease(t *testing.T) {
	e := newEngine(newClock(1))
	require.NoError(t, e.Deposit(alice, "ICP", 5))
	require.NoError(t, e.Deposit(alice, "BTC", 6))
	require.Equal(t, map[string]uint64{"ICP": 5, "BTC": 6}, e.Balances(alice))
	require.Empty(t, e.Balances(bob))
	require.Equal(t, uint64(0), e.BalanceOf(bob, "ICP"))

	var last uint64
	for i := 0; i < 5; i++ {
		id, err := e.CreateSwapRequest(alice, "ICP", swap.ChainICP, 1, "BTC", swap.ChainBitcoin, hour)
		require.NoError(t, err)
		require.Greater(t, id, last)
		last = id
	}
}

func TestEngine_ExportRestoreRoundTrip(t *testing.T) {
	clk := newClock(1)
	e := newEngine(clk)
	id1, id2 := setupPair(t, e)
	require.NoError(t, e.ExecuteSwap(carol, id1, id2))
	require.NoError(t, e.Deposit(carol, "ETH", 3))
	_, err := e.CreateSwapRequest(carol, "ETH", swap.ChainEthereum, 2, "ICP", swap.ChainICP, hour)
	require.NoError(t, err)

	st := e.Export()
	other := newEngine(clk)
	require.NoError(t, other.Restore(st))
	require.Equal(t, st, other.Export())

	// Tombstones survive: the matched id is still processed.
	require.True(t, errors.Is(other.CancelSwapRequest(id1, alice), swap.ErrAlreadyProcessed))
	id, err := other.CreateSwapRequest(carol, "ETH", swap.ChainEthereum, 1, "ICP", swap.ChainICP, hour)
	require.NoError(t, err)
	require.Equal(t, uint64(4), id)
}

func TestEngine_ConcurrentTrafficConserves(t *testing.T) {
	e := newEngine(newClock(1))
	owners := []swap.Identity{"u0", "u1", "u2", "u3", "u4", "u5"}
	for _, o := range owners {
		require.NoError(t, e.Deposit(o, "ICP", 1_000))
		require.NoError(t, e.Deposit(o, "BTC", 1_000))
	}

	var wg sync.WaitGroup
	for i, o := range owners {
		wg.Add(1)
		go func(i int, o swap.Identity) {
			defer wg.Done()
			offer, want := "ICP", "BTC"
			offerChain, wantChain := swap.ChainICP, swap.ChainBitcoin
			if i%2 == 1 {
				offer, want = want, offer
				offerChain, wantChain = wantChain, offerChain
			}
			for n := 0; n < 200; n++ {
				id, err := e.CreateSwapRequest(o, offer, offerChain, 3, want, wantChain, hour)
				if err != nil {
					continue
				}
				switch n % 3 {
				case 0:
					_ = e.CancelSwapRequest(id, o)
				default:
					for _, other := range e.ListPendingSwaps() {
						if other.Owner != o && e.ExecuteSwap(o, id, other.ID) == nil {
							break
						}
					}
				}
			}
		}(i, o)
	}
	wg.Wait()

	requireBalanced(t, e)
	for _, rep := range e.Audit() {
		require.Equal(t, uint64(len(owners)*1_000), rep.Spendable+rep.Escrowed)
	}
}
