package swap

import (
	"math/bits"
	"sort"

	"github.com/cockroachdb/errors"
)

type balanceKey struct {
	owner  Identity
	symbol string
}

// Balance is one (owner, symbol) entry of the ledger.
type Balance struct {
	Owner  Identity
	Symbol string
	Amount uint64
}

// Ledger maps (owner, symbol) to a spendable amount.
//
// Ledger is not safe for concurrent use on its own; the Engine serializes
// every access under its lock, which makes each Debit a single
// check-and-decrement critical section.
type Ledger struct {
	balances map[balanceKey]uint64
}

func NewLedger() *Ledger {
	return &Ledger{balances: make(map[balanceKey]uint64)}
}

// Credit increases the balance, failing with ErrOverflow instead of saturating.
func (l *Ledger) Credit(owner Identity, symbol string, amount uint64) error {
	k := balanceKey{owner, symbol}
	sum, carry := bits.Add64(l.balances[k], amount, 0)
	if carry != 0 {
		return errors.Wrapf(ErrOverflow, "credit %d %s to %s", amount, symbol, owner)
	}
	l.balances[k] = sum
	return nil
}

// Debit decreases the balance or fails with ErrInsufficientFunds leaving it untouched.
func (l *Ledger) Debit(owner Identity, symbol string, amount uint64) error {
	k := balanceKey{owner, symbol}
	cur := l.balances[k]
	if cur < amount {
		return errors.Wrapf(ErrInsufficientFunds, "%s has %d %s, needs %d", owner, cur, symbol, amount)
	}
	l.balances[k] = cur - amount
	return nil
}

func (l *Ledger) BalanceOf(owner Identity, symbol string) uint64 {
	return l.balances[balanceKey{owner, symbol}]
}

// CanCredit reports whether Credit would succeed.
func (l *Ledger) CanCredit(owner Identity, symbol string, amount uint64) bool {
	_, carry := bits.Add64(l.balances[balanceKey{owner, symbol}], amount, 0)
	return carry == 0
}

// Balances returns every symbol the owner has ever been credited with.
func (l *Ledger) Balances(owner Identity) map[string]uint64 {
	out := make(map[string]uint64)
	for k, v := range l.balances {
		if k.owner == owner {
			out[k.symbol] = v
		}
	}
	return out
}

// Entries returns all balances ordered by owner, then symbol.
func (l *Ledger) Entries() []Balance {
	out := make([]Balance, 0, len(l.balances))
	for k, v := range l.balances {
		out = append(out, Balance{Owner: k.owner, Symbol: k.symbol, Amount: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Owner != out[j].Owner {
			return out[i].Owner < out[j].Owner
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

// Total sums every owner's balance of symbol. The second result is false
// when the sum does not fit in a uint64.
func (l *Ledger) Total(symbol string) (uint64, bool) {
	var total uint64
	for k, v := range l.balances {
		if k.symbol != symbol {
			continue
		}
		var carry uint64
		total, carry = bits.Add64(total, v, 0)
		if carry != 0 {
			return 0, false
		}
	}
	return total, true
}

func (l *Ledger) entry(owner Identity, symbol string) Balance {
	return Balance{Owner: owner, Symbol: symbol, Amount: l.BalanceOf(owner, symbol)}
}

func (l *Ledger) set(b Balance) {
	l.balances[balanceKey{b.Owner, b.Symbol}] = b.Amount
}
