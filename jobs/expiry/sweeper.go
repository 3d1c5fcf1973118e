// Package expiry periodically refunds swap requests whose deadline has
// passed, so escrow does not stay locked until someone touches the swap.
package expiry

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

type Sweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

type Job struct {
	svc      Sweeper
	interval time.Duration
	log      *logrus.Entry
}

func New(svc Sweeper, interval time.Duration, log *logrus.Entry) *Job {
	if interval <= 0 {
		interval = time.Second
	}
	return &Job{svc: svc, interval: interval, log: log}
}

func (j *Job) Run(ctx context.Context) error {
	t := time.NewTicker(j.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			j.tick(ctx)
		}
	}
}

func (j *Job) tick(ctx context.Context) {
	n, err := j.svc.SweepExpired(ctx)
	if err != nil {
		j.log.WithError(err).Warn("sweep failed")
		return
	}
	if n > 0 {
		j.log.WithField("expired", n).Info("expired swap requests refunded")
	}
}
