package deposits

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"junction/domain/swap"
	"junction/infra/logger"
)

type call struct {
	ref    string
	owner  swap.Identity
	symbol string
	chain  swap.Chain
	amount uint64
}

type fakeDepositor struct {
	calls []call
	seen  map[string]bool
	err   error
}

func (f *fakeDepositor) Deposit(_ context.Context, ref string, owner swap.Identity, symbol string, c swap.Chain, amount uint64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.calls = append(f.calls, call{ref, owner, symbol, c, amount})
	if f.seen[ref] {
		return true, nil
	}
	f.seen[ref] = true
	return false, nil
}

func TestListener_Handle(t *testing.T) {
	f := &fakeDepositor{seen: map[string]bool{}}
	l := NewListener(f, logger.Discard().Component("deposits"))
	ctx := context.Background()

	msg := []byte(`{"ref":"btc:abc:0","owner":"alice","symbol":"BTC","chain":"bitcoin","amount":5000}`)
	require.NoError(t, l.Handle(ctx, nil, msg))
	require.NoError(t, l.Handle(ctx, nil, msg))
	require.Len(t, f.calls, 2)
	require.Equal(t, call{"btc:abc:0", "alice", "BTC", swap.ChainBitcoin, 5000}, f.calls[0])

	// Poison messages are skipped, never retried.
	require.NoError(t, l.Handle(ctx, nil, []byte(`{not json`)))
	require.NoError(t, l.Handle(ctx, nil, []byte(`{"owner":"alice","symbol":"BTC","amount":1}`)))
	require.NoError(t, l.Handle(ctx, nil, []byte(`{"ref":"x","owner":"alice","symbol":"BTC","chain":"solana","amount":1}`)))
	require.Len(t, f.calls, 2)
}

func TestListener_Errors(t *testing.T) {
	ctx := context.Background()
	msg := []byte(`{"ref":"r","owner":"alice","symbol":"BTC","amount":1}`)

	rejected := &fakeDepositor{err: errors.Wrap(swap.ErrInvalidInput, "unknown symbol")}
	require.NoError(t, NewListener(rejected, logger.Discard().Component("deposits")).Handle(ctx, nil, msg))

	down := &fakeDepositor{err: errors.New("store offline")}
	require.Error(t, NewListener(down, logger.Discard().Component("deposits")).Handle(ctx, nil, msg))
}
