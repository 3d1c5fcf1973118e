package service

import (
	"strings"

	"junction/domain/swap"
	"junction/infra/codec"
	"junction/infra/store"
)

const (
	EventDeposit    = "deposit"
	EventWithdrawal = "withdrawal"
	EventCreated    = "swap.created"
	EventMatched    = "swap.matched"
	EventExpired    = "swap.expired"
	EventCancelled  = "swap.cancelled"
)

// Event is the public record of one state change. It is what the outbox
// publishes, what the history archive stores and what websocket clients
// receive.
type Event struct {
	Seq  uint64 `json:"seq"`
	N    int    `json:"n"`
	Type string `json:"type"`
	Time uint64 `json:"time"`

	Owner  string `json:"owner"`
	SwapID uint64 `json:"swap_id,omitempty"`
	Symbol string `json:"symbol,omitempty"`
	Chain  string `json:"chain,omitempty"`
	Amount uint64 `json:"amount,omitempty"`

	WantedSymbol string `json:"wanted_symbol,omitempty"`
	WantedChain  string `json:"wanted_chain,omitempty"`
	Deadline     uint64 `json:"deadline,omitempty"`

	Counterparty  string `json:"counterparty,omitempty"`
	CounterSwapID uint64 `json:"counter_swap_id,omitempty"`

	Ref     string `json:"ref,omitempty"`
	Address string `json:"address,omitempty"`
}

var eventCodec codec.Codec[Event] = codec.JSON[Event]{}

// eventsFor describes the effects of the command journaled at seq.
func eventsFor(seq uint64, cmd swap.Command, fx swap.Effects) []Event {
	var out []Event
	add := func(ev Event) {
		ev.Seq, ev.N, ev.Time = seq, len(out), cmd.Time
		out = append(out, ev)
	}

	if d := fx.Deposit; d != nil {
		add(Event{
			Type: EventDeposit, Owner: string(d.Owner), Symbol: d.Symbol,
			Chain: chainName(d.Chain), Amount: d.Amount, Ref: d.Ref,
		})
	}
	if w := fx.Withdrawal; w != nil {
		add(Event{
			Type: EventWithdrawal, Owner: string(w.Owner), Symbol: w.Symbol,
			Chain: chainName(w.Chain), Amount: w.Amount, Ref: w.Ref, Address: w.Address,
		})
	}
	if r := fx.Created; r != nil {
		add(Event{
			Type: EventCreated, Owner: string(r.Owner), SwapID: r.ID,
			Symbol: r.Offered.Symbol, Chain: chainName(r.Offered.Chain), Amount: r.Offered.Amount,
			WantedSymbol: r.WantedSymbol, WantedChain: chainName(r.WantedChain), Deadline: r.Deadline,
		})
	}
	for i, r := range fx.Closed {
		ev := Event{
			Type: "swap." + strings.ToLower(r.Status.String()), Owner: string(r.Owner), SwapID: r.ID,
			Symbol: r.Offered.Symbol, Chain: chainName(r.Offered.Chain), Amount: r.Offered.Amount,
		}
		if r.Status == swap.StatusMatched && len(fx.Closed) == 2 {
			other := fx.Closed[1-i]
			ev.Counterparty = string(other.Owner)
			ev.CounterSwapID = other.ID
		}
		add(ev)
	}
	return out
}

// outboxMessages turns events into outbox entries keyed by owner, so one
// owner's events stay ordered within a partition.
func outboxMessages(events []Event) ([]store.Message, error) {
	msgs := make([]store.Message, 0, len(events))
	for _, ev := range events {
		payload, err := eventCodec.Encode(ev)
		if err != nil {
			return nil, err
		}
		route := store.RouteEvents
		if ev.Type == EventWithdrawal {
			route = store.RouteSettlement
		}
		msgs = append(msgs, store.Message{Route: route, Key: []byte(ev.Owner), Payload: payload})
	}
	return msgs, nil
}

func chainName(c swap.Chain) string {
	if c == swap.ChainUnknown {
		return ""
	}
	return strings.ToLower(c.String())
}
