// Package coordinator implements purchases and refunds against the catalog,
// the bank and the ledger.
//
// Every mutating operation holds the Guard for its full
// load → validate → mutate → persist sequence and persists all three
// documents in one storage transaction. Reads go straight to the store.
package coordinator

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/14zooboy14/Point-Of-Sales-system-POS/changelog"
	"github.com/14zooboy14/Point-Of-Sales-system-POS/clock"
	"github.com/14zooboy14/Point-Of-Sales-system-POS/metrics"
	"github.com/14zooboy14/Point-Of-Sales-system-POS/models"
	"github.com/14zooboy14/Point-Of-Sales-system-POS/store"
)

// Persister is the durability boundary. Update commits only when fn
// returns nil.
type Persister interface {
	View(fn func(store.Tx) error) error
	Update(fn func(store.Tx) error) error
}

// Coordinator runs purchases and refunds against a Persister and serves
// committed reads.
type Coordinator struct {
	store       Persister
	guard       *Guard
	logger      *zap.Logger
	clock       clock.Clock
	metrics     *metrics.Registry
	feed        changelog.Writer
	verifyTotal bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock sets the time source used for ledger timestamps.
func WithClock(c clock.Clock) Option {
	return func(co *Coordinator) { co.clock = c }
}

// WithMetrics records outcomes and latencies in r.
func WithMetrics(r *metrics.Registry) Option {
	return func(co *Coordinator) { co.metrics = r }
}

// WithFeed publishes committed events to w.
func WithFeed(w changelog.Writer) Option {
	return func(co *Coordinator) { co.feed = w }
}

// WithTotalVerification makes Purchase recompute the total from catalog
// prices and reject requests whose total differs.
func WithTotalVerification(on bool) Option {
	return func(co *Coordinator) { co.verifyTotal = on }
}

// New creates a Coordinator over st. Without options it uses the system
// clock, a private metrics registry and no change feed.
func New(logger *zap.Logger, st Persister, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:  st,
		guard:  NewGuard(),
		logger: logger,
		clock:  clock.NewSystem(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = metrics.NewRegistry()
	}
	return c
}

// Items returns the committed catalog.
func (c *Coordinator) Items(_ context.Context) (models.Catalog, error) {
	var items models.Catalog
	err := c.store.View(func(tx store.Tx) error {
		var err error
		items, err = tx.Items()
		return err
	})
	return items, err
}

// Transactions returns the committed ledger in ascending id order.
func (c *Coordinator) Transactions(_ context.Context) (models.Ledger, error) {
	var ledger models.Ledger
	err := c.store.View(func(tx store.Tx) error {
		var err error
		ledger, err = tx.Transactions()
		return err
	})
	return ledger, err
}

// Bank returns the committed accounts.
func (c *Coordinator) Bank(_ context.Context) (models.Bank, error) {
	var bank models.Bank
	err := c.store.View(func(tx store.Tx) error {
		var err error
		bank, err = tx.Bank()
		return err
	})
	return bank, err
}

// lock acquires the guard and records the wait.
func (c *Coordinator) lock(ctx context.Context) (func(), error) {
	start := time.Now()
	release, err := c.guard.Acquire(ctx)
	c.metrics.GuardWaitSec.Observe(time.Since(start).Seconds())
	return release, err
}

// saveAll writes the three documents. Called inside Persister.Update.
func saveAll(tx store.Tx, items models.Catalog, bank models.Bank, ledger models.Ledger) error {
	if err := tx.SaveTransactions(ledger); err != nil {
		return err
	}
	if err := tx.SaveItems(items); err != nil {
		return err
	}
	return tx.SaveBank(bank)
}

// loadAll reads the three documents. Called inside Persister.Update.
func loadAll(tx store.Tx) (models.Catalog, models.Bank, models.Ledger, error) {
	items, err := tx.Items()
	if err != nil {
		return nil, nil, nil, err
	}
	bank, err := tx.Bank()
	if err != nil {
		return nil, nil, nil, err
	}
	ledger, err := tx.Transactions()
	if err != nil {
		return nil, nil, nil, err
	}
	return items, bank, ledger, nil
}

// publish appends e to the change feed. It runs under the guard so events
// keep commit order; the feed is expected to return quickly, as
// changelog.Queue does. The commit already happened, so a failure is only
// logged and counted.
func (c *Coordinator) publish(ctx context.Context, e changelog.Event) {
	if c.feed == nil {
		return
	}
	if err := c.feed.Append(context.WithoutCancel(ctx), e); err != nil {
		c.metrics.FeedFailures.Inc()
		c.logger.Error("failed to publish committed event",
			zap.String("event", e.Key()), zap.Error(err))
	}
}

// outcome returns the metrics label for err.
func outcome(err error) string {
	if err == nil {
		return metrics.ResultSuccess
	}
	if k := models.KindOf(err); k != "" {
		return string(k)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return string(models.KindCanceled)
	}
	return "error"
}

// logFailure logs err at a level matching its kind. Durability and
// corruption failures need an operator; validation failures do not.
func (c *Coordinator) logFailure(op string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("op", op), zap.Error(err))
	switch models.KindOf(err) {
	case models.KindPersistenceFailure, models.KindMalformedStore:
		c.logger.Error("mutation not committed", fields...)
	default:
		c.logger.Info("mutation rejected", fields...)
	}
}
