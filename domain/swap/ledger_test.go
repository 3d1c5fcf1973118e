package swap

import (
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestLedger_CreditDebit(t *testing.T) {
	l := NewLedger()
	require.Equal(t, uint64(0), l.BalanceOf("a", "ICP"))

	require.NoError(t, l.Credit("a", "ICP", 10))
	require.NoError(t, l.Debit("a", "ICP", 4))
	require.Equal(t, uint64(6), l.BalanceOf("a", "ICP"))

	err := l.Debit("a", "ICP", 7)
	require.True(t, errors.Is(err, ErrInsufficientFunds))
	require.Equal(t, uint64(6), l.BalanceOf("a", "ICP"))

	// Other owners and symbols are untouched.
	require.Equal(t, uint64(0), l.BalanceOf("b", "ICP"))
	require.Equal(t, uint64(0), l.BalanceOf("a", "BTC"))
}

func TestLedger_CreditOverflow(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.Credit("a", "ICP", math.MaxUint64))
	require.False(t, l.CanCredit("a", "ICP", 1))

	err := l.Credit("a", "ICP", 1)
	require.True(t, errors.Is(err, ErrOverflow))
	require.Equal(t, uint64(math.MaxUint64), l.BalanceOf("a", "ICP"))
}

func TestLedger_ZeroBalanceKept(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.Credit("a", "ICP", 3))
	require.NoError(t, l.Debit("a", "ICP", 3))
	require.Equal(t, map[string]uint64{"ICP": 0}, l.Balances("a"))
	require.Equal(t, []Balance{{Owner: "a", Symbol: "ICP"}}, l.Entries())
}

func TestLedger_Total(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.Credit("a", "ICP", 3))
	require.NoError(t, l.Credit("b", "ICP", 4))
	require.NoError(t, l.Credit("b", "BTC", 100))

	total, ok := l.Total("ICP")
	require.True(t, ok)
	require.Equal(t, uint64(7), total)

	require.NoError(t, l.Credit("c", "ICP", math.MaxUint64))
	_, ok = l.Total("ICP")
	require.False(t, ok)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	for _, id := range []uint64{3, 1, 2} {
		require.NoError(t, r.Insert(SwapRequest{ID: id}))
	}
	require.True(t, errors.Is(r.Insert(SwapRequest{ID: 2}), ErrAlreadyProcessed))

	list := r.ListPending()
	require.Len(t, list, 3)
	for i, req := range list {
		require.Equal(t, uint64(i+1), req.ID)
	}

	got, ok := r.Remove(2)
	require.True(t, ok)
	require.Equal(t, uint64(2), got.ID)
	_, ok = r.Remove(2)
	require.False(t, ok)
	_, ok = r.Get(2)
	require.False(t, ok)
	require.Equal(t, 2, r.Len())
}

func TestCompatible(t *testing.T) {
	a := SwapRequest{Offered: Asset{Chain: ChainICP, Symbol: "ICP"}, WantedSymbol: "BTC", WantedChain: ChainBitcoin}
	b := SwapRequest{Offered: Asset{Chain: ChainBitcoin, Symbol: "BTC"}, WantedSymbol: "ICP", WantedChain: ChainICP}
	require.True(t, Compatible(a, b))
	require.True(t, Compatible(b, a))

	b.WantedSymbol = "ETH"
	require.True(t, b.Matches(a))
	require.False(t, a.Matches(b))
	require.False(t, Compatible(a, b))
}

func TestKindName(t *testing.T) {
	require.Equal(t, "NOT_FOUND", KindName(errors.Wrap(ErrNotFound, "swap 7")))
	require.Equal(t, "OVERFLOW", KindName(errors.Mark(errors.New("exhausted"), ErrOverflow)))
	require.Equal(t, "INTERNAL", KindName(errors.New("disk on fire")))
	require.Nil(t, KindOf(nil))
}

func TestParseChain(t *testing.T) {
	for in, want := range map[string]Chain{"ICP": ChainICP, "btc": ChainBitcoin, " Ethereum ": ChainEthereum} {
		got, err := ParseChain(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := ParseChain("doge")
	require.True(t, errors.Is(err, ErrInvalidInput))
}
