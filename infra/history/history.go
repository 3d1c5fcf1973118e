// Package history archives committed events in SQLite for account and
// swap history queries. The archive is derived data: it is fed from the
// event bus and can be rebuilt, so it never sits on the write path.
package history

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"junction/service"
)

// Entry is one archived event. (Seq, N) identifies it, so recording the
// same event twice keeps a single row.
type Entry struct {
	ID   uint   `gorm:"primaryKey"`
	Seq  uint64 `gorm:"uniqueIndex:idx_event;not null"`
	N    int    `gorm:"uniqueIndex:idx_event;not null"`
	Type string `gorm:"size:32;not null"`
	Time uint64

	Owner  string `gorm:"index;size:128;not null"`
	SwapID uint64 `gorm:"index"`
	Symbol string `gorm:"size:32"`
	Chain  string `gorm:"size:16"`
	// Amount and Deadline are decimal text; SQLite integers are signed.
	Amount string `gorm:"size:20"`

	WantedSymbol string `gorm:"size:32"`
	WantedChain  string `gorm:"size:16"`
	Deadline     string `gorm:"size:20"`

	Counterparty  string `gorm:"size:128"`
	CounterSwapID uint64

	Ref     string `gorm:"size:64"`
	Address string `gorm:"size:128"`
}

func (Entry) TableName() string { return "history" }

type Archive struct {
	db  *gorm.DB
	log *logrus.Entry
}

func Open(path string, log *logrus.Entry) (*Archive, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrap(err, "create history directory")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open history database")
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, errors.Wrap(err, "migrate history database")
	}
	return &Archive{db: db, log: log}, nil
}

func (a *Archive) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Record archives events, ignoring any already present.
func (a *Archive) Record(events ...service.Event) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([]Entry, len(events))
	for i, ev := range events {
		rows[i] = toEntry(ev)
	}
	err := a.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
	return errors.Wrap(err, "record history")
}

// ByOwner returns the owner's most recent events, newest first. A limit
// of zero or less returns everything.
func (a *Archive) ByOwner(owner string, limit int) ([]service.Event, error) {
	q := a.db.Where("owner = ?", owner).Order("seq DESC, n DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []Entry
	if err := q.Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "query history by owner")
	}
	return toEvents(rows), nil
}

// BySwap returns the lifecycle of one swap request in order.
func (a *Archive) BySwap(id uint64) ([]service.Event, error) {
	var rows []Entry
	err := a.db.Where("swap_id = ?", id).Order("seq, n").Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "query history by swap")
	}
	return toEvents(rows), nil
}

// Run archives events from ch until ctx is done or ch is closed.
func (a *Archive) Run(ctx context.Context, ch <-chan service.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			if err := a.Record(ev); err != nil {
				a.log.WithError(err).WithField("seq", ev.Seq).Warn("history record failed")
			}
		}
	}
}

func toEntry(ev service.Event) Entry {
	return Entry{
		Seq:           ev.Seq,
		N:             ev.N,
		Type:          ev.Type,
		Time:          ev.Time,
		Owner:         ev.Owner,
		SwapID:        ev.SwapID,
		Symbol:        ev.Symbol,
		Chain:         ev.Chain,
		Amount:        strconv.FormatUint(ev.Amount, 10),
		WantedSymbol:  ev.WantedSymbol,
		WantedChain:   ev.WantedChain,
		Deadline:      strconv.FormatUint(ev.Deadline, 10),
		Counterparty:  ev.Counterparty,
		CounterSwapID: ev.CounterSwapID,
		Ref:           ev.Ref,
		Address:       ev.Address,
	}
}

func toEvents(rows []Entry) []service.Event {
	out := make([]service.Event, len(rows))
	for i, r := range rows {
		amount, _ := strconv.ParseUint(r.Amount, 10, 64)
		deadline, _ := strconv.ParseUint(r.Deadline, 10, 64)
		out[i] = service.Event{
			Seq:           r.Seq,
			N:             r.N,
			Type:          r.Type,
			Time:          r.Time,
			Owner:         r.Owner,
			SwapID:        r.SwapID,
			Symbol:        r.Symbol,
			Chain:         r.Chain,
			Amount:        amount,
			WantedSymbol:  r.WantedSymbol,
			WantedChain:   r.WantedChain,
			Deadline:      deadline,
			Counterparty:  r.Counterparty,
			CounterSwapID: r.CounterSwapID,
			Ref:           r.Ref,
			Address:       r.Address,
		}
	}
	return out
}
