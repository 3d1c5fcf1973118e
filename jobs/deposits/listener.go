// Package deposits credits funds reported by the custody side. Notices
// arrive on a Kafka topic; each one carries a reference that makes its
// delivery idempotent.
package deposits

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"junction/domain/swap"
	"junction/infra/codec"
	"junction/infra/kafka"
)

// Notice is one confirmed inbound transfer. Amount is in the symbol's
// smallest unit.
type Notice struct {
	Ref    string `json:"ref"`
	Owner  string `json:"owner"`
	Symbol string `json:"symbol"`
	Chain  string `json:"chain,omitempty"`
	Amount uint64 `json:"amount"`
}

var noticeCodec codec.Codec[Notice] = codec.JSON[Notice]{}

type Depositor interface {
	Deposit(ctx context.Context, ref string, owner swap.Identity, symbol string, c swap.Chain, amount uint64) (bool, error)
}

type Listener struct {
	svc Depositor
	log *logrus.Entry
}

func NewListener(svc Depositor, log *logrus.Entry) *Listener {
	return &Listener{svc: svc, log: log}
}

// Run consumes notices until ctx is done.
func (l *Listener) Run(ctx context.Context, c *kafka.Consumer) error {
	return c.Run(ctx, l.Handle)
}

// Handle applies one notice. Notices that can never succeed are logged
// and skipped; infrastructure failures are returned so the message is
// not committed.
func (l *Listener) Handle(ctx context.Context, _ []byte, value []byte) error {
	n, err := noticeCodec.Decode(value)
	if err != nil {
		l.log.WithError(err).Warn("dropping malformed deposit notice")
		return nil
	}
	if n.Ref == "" {
		l.log.WithField("owner", n.Owner).Warn("dropping deposit notice without reference")
		return nil
	}

	entry := l.log.WithFields(logrus.Fields{"ref": n.Ref, "owner": n.Owner, "symbol": n.Symbol, "amount": n.Amount})

	var c swap.Chain
	if n.Chain != "" {
		if c, err = swap.ParseChain(n.Chain); err != nil {
			entry.WithError(err).Warn("dropping deposit notice")
			return nil
		}
	}

	dup, err := l.svc.Deposit(ctx, n.Ref, swap.Identity(n.Owner), n.Symbol, c, n.Amount)
	switch {
	case err == nil && dup:
		entry.Debug("deposit already credited")
	case err == nil:
		entry.Info("deposit credited")
	case swap.KindOf(err) != nil:
		entry.WithField("reason", swap.KindName(err)).Warn("deposit rejected")
	default:
		return errors.Wrapf(err, "deposit %s", n.Ref)
	}
	return nil
}
