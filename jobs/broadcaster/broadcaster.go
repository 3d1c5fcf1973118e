package broadcaster

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"junction/infra/metrics"
	"junction/infra/store"
)

// Publisher delivers one message to a broker topic and returns once the
// broker has acknowledged it.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
	Close() error
}

type Config struct {
	// Topics maps outbox routes to broker topics. Messages on an unmapped
	// route stay in the outbox.
	Topics   map[store.Route]string
	Interval time.Duration
	Batch    int
}

type Broadcaster struct {
	store     *store.Store
	publisher Publisher
	cfg       Config
	metrics   *metrics.Metrics
	log       *logrus.Entry
}

// ------------------------------------------------
// CONSTRUCTOR
// ------------------------------------------------

func New(
	st *store.Store,
	publisher Publisher,
	cfg Config,
	m *metrics.Metrics,
	log *logrus.Entry,
) *Broadcaster {
	if cfg.Interval <= 0 {
		cfg.Interval = 250 * time.Millisecond
	}
	if cfg.Batch <= 0 {
		cfg.Batch = 256
	}
	return &Broadcaster{
		store:     st,
		publisher: publisher,
		cfg:       cfg,
		metrics:   m,
		log:       log,
	}
}

// ------------------------------------------------
// LOOP
// ------------------------------------------------

// Run drains the outbox every interval until ctx is done.
func (b *Broadcaster) Run(ctx context.Context) error {
	b.log.Info("broadcaster started")

	ticker := time.NewTicker(b.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-ticker.C:
			if _, err := b.DrainOnce(ctx); err != nil {
				b.log.WithError(err).Warn("outbox drain failed")
			}
		}
	}
}

// ------------------------------------------------
// DELIVERY (CRITICAL)
// ------------------------------------------------

// DrainOnce publishes up to one batch of undelivered messages in outbox
// order and returns how many were acknowledged.
//
// A message is marked SENT before publishing. A crash between publish and
// ack leaves it SENT, and it is published again on the next start:
// delivery is at-least-once and consumers dedupe on (seq, n).
func (b *Broadcaster) DrainOnce(ctx context.Context) (int, error) {
	var pending []store.OutboxRecord
	err := b.store.ScanOutbox(func(rec store.OutboxRecord) error {
		if _, ok := b.cfg.Topics[rec.Message.Route]; !ok {
			return nil
		}
		pending = append(pending, rec)
		if len(pending) == b.cfg.Batch {
			return store.ErrStopScan
		}
		return nil
	}, store.StateNew, store.StateSent, store.StateFailed)
	if err != nil {
		return 0, err
	}

	acked := 0
	for _, rec := range pending {
		if ctx.Err() != nil {
			break
		}
		topic := b.cfg.Topics[rec.Message.Route]

		// 1. Mark SENT
		if rec.State != store.StateSent {
			if err := b.store.UpdateOutbox(rec, store.StateSent, rec.Retries); err != nil {
				return acked, err
			}
		}

		// 2. Publish
		if err := b.publisher.Publish(ctx, topic, rec.Message.Key, rec.Message.Payload); err != nil {
			b.metrics.OutboxFailed(string(rec.Message.Route))
			b.log.WithError(err).WithFields(logrus.Fields{
				"id":      rec.ID.String(),
				"retries": rec.Retries + 1,
			}).Warn("publish failed")
			if err := b.store.UpdateOutbox(rec, store.StateFailed, rec.Retries+1); err != nil {
				return acked, err
			}
			// Keep per-key order: later messages wait for the next round.
			break
		}

		// 3. Mark ACKED
		if err := b.store.UpdateOutbox(rec, store.StateAcked, rec.Retries); err != nil {
			return acked, err
		}
		b.metrics.OutboxDelivered(string(rec.Message.Route))
		acked++
	}
	return acked, nil
}

// ------------------------------------------------
// SHUTDOWN
// ------------------------------------------------

func (b *Broadcaster) Close() error {
	return b.publisher.Close()
}
