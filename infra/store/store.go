package store

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/cockroachdb/errors"

	"junction/domain/swap"
	"junction/infra/codec"
)

// Key layout. Every committed command rewrites exactly the keys it
// touched, plus meta/applied_seq, in one batch.
var (
	prefixBalance = []byte("bal/")
	prefixSwap    = []byte("swap/")
	prefixDone    = []byte("done/")
	prefixSupply  = []byte("supply/")
	prefixDeposit = []byte("dep/")
	prefixAddr    = []byte("addr/")
	prefixOutbox  = []byte("outbox/")

	keyLastID     = []byte("meta/last_id")
	keyAppliedSeq = []byte("meta/applied_seq")
)

const sep = "\x00"

// Store persists engine state and the outbox on top of a KV engine.
type Store struct {
	kv KV
}

func New(kv KV) *Store {
	return &Store{kv: kv}
}

func Open(opts Options) (*Store, error) {
	kv, err := OpenKV(opts)
	if err != nil {
		return nil, err
	}
	return New(kv), nil
}

func (s *Store) Close() error {
	return s.kv.Close()
}

// Commit records the effects of the command journaled at seq together with
// the messages it emits. Nothing is written if any encoding fails.
func (s *Store) Commit(seq uint64, fx swap.Effects, msgs []Message) error {
	var b Batch

	for _, bal := range fx.Balances {
		b.Set(balanceKey(bal.Owner, bal.Symbol), u64(bal.Amount))
	}
	if fx.Created != nil {
		v, err := codec.SwapRequests.Encode(*fx.Created)
		if err != nil {
			return errors.Wrapf(err, "encode swap %d", fx.Created.ID)
		}
		b.Set(swapKey(fx.Created.ID), v)
	}
	for _, r := range fx.Closed {
		v, err := codec.Settlements.Encode(swap.Settlement{ID: r.ID, Owner: r.Owner, Status: r.Status})
		if err != nil {
			return errors.Wrapf(err, "encode settlement %d", r.ID)
		}
		b.Delete(swapKey(r.ID))
		b.Set(doneKey(r.ID), v)
	}
	if fx.LastID != 0 {
		b.Set(keyLastID, u64(fx.LastID))
	}
	for _, sup := range fx.Supply {
		v, err := codec.Supplies.Encode(sup)
		if err != nil {
			return errors.Wrapf(err, "encode supply %s", sup.Symbol)
		}
		b.Set(append(bytes.Clone(prefixSupply), sup.Symbol...), v)
	}
	if fx.Deposit != nil && fx.Deposit.Ref != "" {
		b.Set(append(bytes.Clone(prefixDeposit), fx.Deposit.Ref...), []byte{1})
	}
	if uint64(len(msgs)) > math.MaxUint32 {
		return errors.Newf("seq %d emits %d messages", seq, len(msgs))
	}
	for i, m := range msgs {
		b.Set(outboxKey(OutboxID{Seq: seq, N: uint32(i)}), encodeOutbox(OutboxRecord{State: StateNew, Message: m}))
	}
	b.Set(keyAppliedSeq, u64(seq))

	return errors.Wrapf(s.kv.Commit(&b), "commit seq %d", seq)
}

// Load rebuilds the engine state and returns the last journal sequence
// whose effects are included.
func (s *Store) Load() (swap.State, uint64, error) {
	var st swap.State

	err := s.kv.Scan(prefixBalance, func(k, v []byte) error {
		owner, symbol, ok := strings.Cut(string(k[len(prefixBalance):]), sep)
		if !ok || len(v) != 8 {
			return errors.Mark(errors.Newf("bad balance entry %q", k), codec.ErrMalformed)
		}
		st.Balances = append(st.Balances, swap.Balance{
			Owner: swap.Identity(owner), Symbol: symbol, Amount: binary.BigEndian.Uint64(v),
		})
		return nil
	})
	if err != nil {
		return st, 0, errors.Wrap(err, "load balances")
	}

	err = s.kv.Scan(prefixSwap, func(_, v []byte) error {
		r, err := codec.SwapRequests.Decode(v)
		if err != nil {
			return err
		}
		st.Pending = append(st.Pending, r)
		return nil
	})
	if err != nil {
		return st, 0, errors.Wrap(err, "load swaps")
	}

	err = s.kv.Scan(prefixDone, func(_, v []byte) error {
		d, err := codec.Settlements.Decode(v)
		if err != nil {
			return err
		}
		st.Settled = append(st.Settled, d)
		return nil
	})
	if err != nil {
		return st, 0, errors.Wrap(err, "load settlements")
	}

	err = s.kv.Scan(prefixSupply, func(_, v []byte) error {
		sup, err := codec.Supplies.Decode(v)
		if err != nil {
			return err
		}
		st.Supply = append(st.Supply, sup)
		return nil
	})
	if err != nil {
		return st, 0, errors.Wrap(err, "load supply")
	}

	err = s.kv.Scan(prefixDeposit, func(k, _ []byte) error {
		st.Deposits = append(st.Deposits, string(k[len(prefixDeposit):]))
		return nil
	})
	if err != nil {
		return st, 0, errors.Wrap(err, "load deposit refs")
	}

	if st.LastID, err = s.getU64(keyLastID); err != nil {
		return st, 0, err
	}
	applied, err := s.getU64(keyAppliedSeq)
	if err != nil {
		return st, 0, err
	}
	return st, applied, nil
}

// Empty reports whether nothing was ever committed.
func (s *Store) Empty() (bool, error) {
	_, err := s.kv.Get(keyAppliedSeq)
	if errors.Is(err, ErrNotFound) {
		return true, nil
	}
	return false, err
}

// SaveState writes a full state image as of journal sequence seq. It is
// used to seed an empty store from a snapshot. The applied sequence is
// written last so a partial seed is never mistaken for a complete one.
func (s *Store) SaveState(seq uint64, st swap.State) error {
	const chunk = 1000

	var b Batch
	flush := func() error {
		if b.Len() == 0 {
			return nil
		}
		err := s.kv.Commit(&b)
		b = Batch{}
		return err
	}
	add := func(k, v []byte) error {
		b.Set(k, v)
		if b.Len() >= chunk {
			return flush()
		}
		return nil
	}

	for _, bal := range st.Balances {
		if err := add(balanceKey(bal.Owner, bal.Symbol), u64(bal.Amount)); err != nil {
			return err
		}
	}
	for _, r := range st.Pending {
		v, err := codec.SwapRequests.Encode(r)
		if err != nil {
			return err
		}
		if err := add(swapKey(r.ID), v); err != nil {
			return err
		}
	}
	for _, d := range st.Settled {
		v, err := codec.Settlements.Encode(d)
		if err != nil {
			return err
		}
		if err := add(doneKey(d.ID), v); err != nil {
			return err
		}
	}
	for _, sup := range st.Supply {
		v, err := codec.Supplies.Encode(sup)
		if err != nil {
			return err
		}
		if err := add(append(bytes.Clone(prefixSupply), sup.Symbol...), v); err != nil {
			return err
		}
	}
	for _, ref := range st.Deposits {
		if err := add(append(bytes.Clone(prefixDeposit), ref...), []byte{1}); err != nil {
			return err
		}
	}
	if err := add(keyLastID, u64(st.LastID)); err != nil {
		return err
	}
	if err := flush(); err != nil {
		return errors.Wrap(err, "save state")
	}

	b.Set(keyAppliedSeq, u64(seq))
	return errors.Wrap(flush(), "save applied seq")
}

// -------------------- Address book --------------------

// Address returns the deposit address recorded for (owner, chain).
func (s *Store) Address(owner swap.Identity, chain swap.Chain) (string, bool, error) {
	v, err := s.kv.Get(addrKey(owner, chain))
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(v), true, nil
}

func (s *Store) PutAddress(owner swap.Identity, chain swap.Chain, addr string) error {
	var b Batch
	b.Set(addrKey(owner, chain), []byte(addr))
	return s.kv.Commit(&b)
}

// -------------------- Helpers --------------------

func (s *Store) getU64(key []byte) (uint64, error) {
	v, err := s.kv.Get(key)
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrapf(err, "get %s", key)
	}
	if len(v) != 8 {
		return 0, errors.Mark(errors.Newf("bad %s value", key), codec.ErrMalformed)
	}
	return binary.BigEndian.Uint64(v), nil
}

func u64(v uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, v)
}

func balanceKey(owner swap.Identity, symbol string) []byte {
	return []byte(string(prefixBalance) + string(owner) + sep + symbol)
}

func swapKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", prefixSwap, id))
}

func doneKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", prefixDone, id))
}

func addrKey(owner swap.Identity, chain swap.Chain) []byte {
	return []byte(string(prefixAddr) + string(owner) + sep + chain.String())
}
