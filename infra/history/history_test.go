package history

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"junction/infra/logger"
	"junction/service"
)

func openTestArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := Open(filepath.Join(t.TempDir(), "history.db"), logger.Discard().Component("history"))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestArchive_RecordAndQuery(t *testing.T) {
	a := openTestArchive(t)

	events := []service.Event{
		{Seq: 1, Type: service.EventDeposit, Owner: "alice", Symbol: "ICP", Amount: 100, Ref: "tx-1"},
		{Seq: 2, Type: service.EventCreated, Owner: "alice", SwapID: 1, Symbol: "ICP", Amount: 30, WantedSymbol: "BTC"},
		{Seq: 3, Type: service.EventCreated, Owner: "bob", SwapID: 2, Symbol: "BTC", Amount: 20, WantedSymbol: "ICP"},
		{Seq: 4, N: 0, Type: service.EventMatched, Owner: "alice", SwapID: 1, Counterparty: "bob", CounterSwapID: 2},
		{Seq: 4, N: 1, Type: service.EventMatched, Owner: "bob", SwapID: 2, Counterparty: "alice", CounterSwapID: 1},
	}
	require.NoError(t, a.Record(events...))
	// Recording again is harmless.
	require.NoError(t, a.Record(events[3]))

	got, err := a.ByOwner("alice", 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, service.EventMatched, got[0].Type)
	require.Equal(t, "bob", got[0].Counterparty)
	require.Equal(t, uint64(100), got[2].Amount)

	got, err = a.ByOwner("alice", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = a.BySwap(2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, service.EventCreated, got[0].Type)
	require.Equal(t, service.EventMatched, got[1].Type)
}

func TestArchive_LargeAmounts(t *testing.T) {
	a := openTestArchive(t)
	require.NoError(t, a.Record(service.Event{Seq: 1, Type: service.EventDeposit, Owner: "whale", Amount: math.MaxUint64}))

	got, err := a.ByOwner("whale", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, uint64(math.MaxUint64), got[0].Amount)
}

func TestArchive_RunFromBus(t *testing.T) {
	a := openTestArchive(t)
	bus := service.NewBus()
	ch, unsubscribe := bus.Subscribe(8)

	bus.Publish(
		service.Event{Seq: 1, Type: service.EventDeposit, Owner: "alice", Amount: 5},
		service.Event{Seq: 2, Type: service.EventDeposit, Owner: "alice", Amount: 6},
	)
	unsubscribe()

	require.NoError(t, a.Run(context.Background(), ch))

	got, err := a.ByOwner("alice", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
}
