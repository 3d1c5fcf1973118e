package swap

import (
	"math/bits"
	"sort"

	"github.com/cockroachdb/errors"
)

// State is the complete durable image of an Engine.
type State struct {
	Balances []Balance
	Pending  []SwapRequest
	Settled  []Settlement
	Supply   []Supply
	Deposits []string
	LastID   uint64
}

// Export copies the engine state under the read lock.
func (e *Engine) Export() State {
	e.mu.RLock()
	defer e.mu.RUnlock()

	st := State{
		Balances: e.ledger.Entries(),
		Pending:  e.registry.ListPending(),
		LastID:   e.ids.Current(),
	}
	for _, s := range e.settled {
		st.Settled = append(st.Settled, s)
	}
	sort.Slice(st.Settled, func(i, j int) bool { return st.Settled[i].ID < st.Settled[j].ID })
	for _, s := range e.supply {
		st.Supply = append(st.Supply, s)
	}
	sort.Slice(st.Supply, func(i, j int) bool { return st.Supply[i].Symbol < st.Supply[j].Symbol })
	for ref := range e.deposits {
		st.Deposits = append(st.Deposits, ref)
	}
	sort.Strings(st.Deposits)
	return st
}

// Restore replaces the engine state. It is meant for startup, before the
// engine is shared.
func (e *Engine) Restore(st State) error {
	ledger := NewLedger()
	for _, b := range st.Balances {
		if b.Owner.IsAnonymous() || b.Symbol == "" {
			return errors.Wrapf(ErrInvalidInput, "restore: malformed balance %+v", b)
		}
		ledger.set(b)
	}

	registry := NewRegistry()
	maxID := st.LastID
	for _, r := range st.Pending {
		if r.Status != StatusPending {
			return errors.Wrapf(ErrInvalidInput, "restore: swap %d is %s, not pending", r.ID, r.Status)
		}
		if err := registry.Insert(r); err != nil {
			return errors.Wrap(err, "restore")
		}
		if r.ID > maxID {
			maxID = r.ID
		}
	}

	settled := make(map[uint64]Settlement, len(st.Settled))
	for _, s := range st.Settled {
		if _, ok := registry.Get(s.ID); ok {
			return errors.Wrapf(ErrAlreadyProcessed, "restore: swap %d is both pending and %s", s.ID, s.Status)
		}
		settled[s.ID] = s
		if s.ID > maxID {
			maxID = s.ID
		}
	}

	supply := make(map[string]Supply, len(st.Supply))
	for _, s := range st.Supply {
		supply[s.Symbol] = s
	}
	deposits := make(map[string]struct{}, len(st.Deposits))
	for _, ref := range st.Deposits {
		deposits[ref] = struct{}{}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.ledger = ledger
	e.registry = registry
	e.settled = settled
	e.supply = supply
	e.deposits = deposits
	e.ids.Reset(maxID)
	return nil
}

// SupplyReport is the conservation check for one symbol.
type SupplyReport struct {
	Symbol    string
	Spendable uint64
	Escrowed  uint64
	Deposited uint64
	Withdrawn uint64
	Balanced  bool
}

// Audit verifies, per symbol, that spendable plus escrowed value equals
// what was deposited minus what was withdrawn.
func (e *Engine) Audit() []SupplyReport {
	e.mu.RLock()
	defer e.mu.RUnlock()

	symbols := make(map[string]struct{})
	for _, b := range e.ledger.Entries() {
		symbols[b.Symbol] = struct{}{}
	}
	escrow := make(map[string]uint64)
	escrowOK := make(map[string]bool)
	for _, r := range e.registry.ListPending() {
		sym := r.Offered.Symbol
		symbols[sym] = struct{}{}
		if _, ok := escrowOK[sym]; !ok {
			escrowOK[sym] = true
		}
		sum, carry := bits.Add64(escrow[sym], r.Offered.Amount, 0)
		if carry != 0 {
			escrowOK[sym] = false
		}
		escrow[sym] = sum
	}
	for sym := range e.supply {
		symbols[sym] = struct{}{}
	}

	out := make([]SupplyReport, 0, len(symbols))
	for sym := range symbols {
		sup := e.supplyOf(sym)
		spendable, ok := e.ledger.Total(sym)
		rep := SupplyReport{
			Symbol:    sym,
			Spendable: spendable,
			Escrowed:  escrow[sym],
			Deposited: sup.Deposited,
			Withdrawn: sup.Withdrawn,
		}
		held, carry := bits.Add64(rep.Spendable, rep.Escrowed, 0)
		if ok && carry == 0 && (escrowOK[sym] || rep.Escrowed == 0) && sup.Deposited >= sup.Withdrawn {
			rep.Balanced = held == sup.Deposited-sup.Withdrawn
		}
		out = append(out, rep)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}
