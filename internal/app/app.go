// Package app wires the catalog, the price engine and the portfolio together
// and runs the foreground loop that owns the portfolio.
package app

import (
	"context"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/investtrack/config"
	"github.com/vadiminshakov/investtrack/internal/catalog"
	"github.com/vadiminshakov/investtrack/internal/domain"
	"github.com/vadiminshakov/investtrack/internal/events"
	"github.com/vadiminshakov/investtrack/internal/services/analytics"
	"github.com/vadiminshakov/investtrack/internal/services/simulator"
	"github.com/vadiminshakov/investtrack/internal/services/trader"
	"github.com/vadiminshakov/investtrack/internal/storage/portfoliostore"
	"github.com/vadiminshakov/investtrack/internal/storage/snapshots"
	"go.uber.org/zap"
)

var (
	// ErrStopped the foreground loop is no longer running.
	ErrStopped = errors.New("application stopped")
	// ErrAlreadyRun Run was called on an App that already ran.
	ErrAlreadyRun = errors.New("application already ran")
)

type command struct {
	fn   func(*trader.SimulateTrader) error
	done chan error
}

// priceQueue hands engine updates to the foreground loop. A full queue blocks
// the engine, so no tick is ever dropped.
type priceQueue chan simulator.PriceUpdate

func (q priceQueue) Consume(ctx context.Context, update simulator.PriceUpdate) error {
	select {
	case q <- update:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// App composition root. Everything touching the portfolio runs on the
// goroutine executing Run; other goroutines go through Execute.
type App struct {
	cfg       config.Config
	logger    *zap.Logger
	catalog   *catalog.Catalog
	engine    *simulator.Engine
	portfolio *domain.Portfolio
	trader    *trader.SimulateTrader
	repo      *portfoliostore.Repository
	journal   *snapshots.WALStore
	observers *events.SnapshotBroadcaster
	now       func() time.Time

	prices   priceQueue
	commands chan command
	stopped  chan struct{}
	ran      atomic.Bool

	dirty bool
}

// Option configures an App.
type Option func(*appOptions)

type appOptions struct {
	catalog *catalog.Catalog
	now     func() time.Time
}

// WithCatalog replaces the predefined instrument catalog.
func WithCatalog(c *catalog.Catalog) Option {
	return func(o *appOptions) {
		o.catalog = c
	}
}

// WithClock overrides the time source of the portfolio and the engine.
func WithClock(now func() time.Time) Option {
	return func(o *appOptions) {
		o.now = now
	}
}

// New builds the application from cfg. The portfolio is loaded from the state
// file; the snapshot journal is opened and summarized.
func New(cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	o := appOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.catalog == nil {
		o.catalog = catalog.NewDefault()
	}

	journal, err := snapshots.NewWALStore(snapshots.Config{Dir: cfg.WALDir, MaxSegments: cfg.WALMaxSegments})
	if err != nil {
		return nil, errors.Wrap(err, "open snapshot journal")
	}

	a := &App{
		cfg:       cfg,
		logger:    logger,
		catalog:   o.catalog,
		journal:   journal,
		observers: events.NewSnapshotBroadcaster(0),
		now:       o.now,
		prices:    make(priceQueue, cfg.QueueCapacity),
		commands:  make(chan command),
		stopped:   make(chan struct{}),
	}

	a.logJournalSummary()

	holdingOpts := []domain.HoldingOption{
		domain.WithHistoryLimit(cfg.PriceHistoryLimit),
		domain.WithHoldingClock(o.now),
	}
	a.repo = portfoliostore.New(cfg.StateFile, logger.Named("store"),
		portfoliostore.WithInitialCash(cfg.InitialCash),
		portfoliostore.WithHoldingOptions(holdingOpts...),
		portfoliostore.WithPortfolioOptions(
			domain.WithSnapshotLimit(cfg.SnapshotLimit),
			domain.WithSnapshotObserver(a.onSnapshot),
			domain.WithLogger(logger.Named("portfolio")),
			domain.WithClock(o.now),
		),
	)
	a.portfolio = a.repo.Load()

	a.trader, err = trader.NewSimulateTrader(a.portfolio, a.catalog, logger.Named("trader"), holdingOpts...)
	if err != nil {
		_ = journal.Close()
		return nil, errors.Wrap(err, "create trader")
	}

	engineOpts := []simulator.Option{
		simulator.WithPeriod(cfg.TickInterval),
		simulator.WithInitialDelay(cfg.InitialDelay),
		simulator.WithPriceFloor(cfg.PriceFloor),
		simulator.WithVolatility(cfg.Volatility),
		simulator.WithClock(o.now),
	}
	if cfg.Seed != 0 {
		engineOpts = append(engineOpts, simulator.WithRand(rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))))
	}
	a.engine, err = simulator.New(a.catalog, logger.Named("engine"), engineOpts...)
	if err != nil {
		_ = journal.Close()
		return nil, errors.Wrap(err, "create price engine")
	}

	return a, nil
}

// Catalog instrument catalog; safe for concurrent reads.
func (a *App) Catalog() *catalog.Catalog {
	return a.catalog
}

// Engine price engine; Performance is safe for concurrent use.
func (a *App) Engine() *simulator.Engine {
	return a.engine
}

// SubscribeSnapshots returns a channel receiving every snapshot appended from
// now on. A subscriber that falls behind misses snapshots.
func (a *App) SubscribeSnapshots() <-chan domain.Snapshot {
	return a.observers.Subscribe()
}

// UnsubscribeSnapshots closes a channel returned by SubscribeSnapshots.
func (a *App) UnsubscribeSnapshots(ch <-chan domain.Snapshot) {
	a.observers.Unsubscribe(ch)
}

// Run starts the price engine and processes price updates and commands until
// ctx is cancelled. The portfolio is saved before Run returns. An App runs
// once; later calls return ErrAlreadyRun.
func (a *App) Run(ctx context.Context) error {
	if !a.ran.CompareAndSwap(false, true) {
		return ErrAlreadyRun
	}
	defer close(a.stopped)

	if err := a.engine.Start(ctx, a.prices); err != nil {
		return errors.Wrap(err, "start price engine")
	}
	defer a.engine.Stop()

	a.bootstrap()

	var autosave <-chan time.Time
	if a.cfg.SaveInterval > 0 {
		ticker := time.NewTicker(a.cfg.SaveInterval)
		defer ticker.Stop()
		autosave = ticker.C
	}

	a.logger.Info("portfolio loop started",
		zap.String("cash", a.portfolio.CashBalance().String()),
		zap.Int("holdings", len(a.portfolio.Holdings())),
		zap.Duration("snapshot_interval", a.cfg.SnapshotInterval))

	for {
		select {
		case <-ctx.Done():
			a.engine.Stop()
			a.shutdown()
			return ctx.Err()
		case update := <-a.prices:
			a.applyPrices(update)
		case cmd := <-a.commands:
			cmd.done <- a.runCommand(cmd.fn)
		case <-autosave:
			a.save()
		}
	}
}

// Execute runs fn on the foreground loop and returns its error.
func (a *App) Execute(ctx context.Context, fn func(*trader.SimulateTrader) error) error {
	cmd := command{fn: fn, done: make(chan error, 1)}

	select {
	case a.commands <- cmd:
	case <-a.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-cmd.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *App) runCommand(fn func(*trader.SimulateTrader) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("command panicked", zap.Any("panic", r))
			err = errors.Errorf("command panicked: %v", r)
		}
	}()
	return fn(a.trader)
}

// Summary current valuation of the portfolio.
type Summary struct {
	Cash            decimal.Decimal
	HoldingsValue   decimal.Decimal
	TotalAssetValue decimal.Decimal
	TotalInvested   decimal.Decimal
	ProfitLoss      decimal.Decimal
	ProfitLossPct   decimal.Decimal
	Holdings        int
	Snapshots       int
}

// Summary returns the portfolio valuation, computed on the foreground loop.
func (a *App) Summary(ctx context.Context) (Summary, error) {
	var s Summary
	err := a.Execute(ctx, func(t *trader.SimulateTrader) error {
		s = Summarize(t.Portfolio())
		return nil
	})
	return s, err
}

// Summarize values p. It must run on the goroutine owning p.
func Summarize(p *domain.Portfolio) Summary {
	return Summary{
		Cash:            p.CashBalance(),
		HoldingsValue:   p.TotalValue(),
		TotalAssetValue: p.TotalAssetValue(),
		TotalInvested:   p.TotalInvested(),
		ProfitLoss:      p.ProfitLoss(),
		ProfitLossPct:   p.ProfitLossPct(),
		Holdings:        len(p.Holdings()),
		Snapshots:       len(p.History()),
	}
}

// Close releases the snapshot journal and closes snapshot subscriptions.
// Call it after Run returned.
func (a *App) Close() error {
	a.observers.Close()
	return a.journal.Close()
}

func (a *App) applyPrices(update simulator.PriceUpdate) {
	repriced := a.trader.ApplyPrices(update.Instruments)
	if repriced == 0 {
		return
	}
	a.dirty = true

	if a.snapshotDue() {
		a.portfolio.TakeSnapshot()
	}

	a.logger.Debug("holdings repriced",
		zap.Uint64("seq", update.Seq),
		zap.Int("repriced", repriced),
		zap.String("total_asset_value", a.portfolio.TotalAssetValue().String()))
}

// snapshotDue reports whether a tick may record a snapshot now.
func (a *App) snapshotDue() bool {
	if a.cfg.SnapshotInterval <= 0 {
		return true
	}
	last, ok := a.portfolio.LastSnapshot()
	if !ok {
		return true
	}
	return a.now().Sub(last.Timestamp) >= a.cfg.SnapshotInterval
}

func (a *App) onSnapshot(s domain.Snapshot) {
	a.dirty = true
	if _, err := a.journal.Save(s); err != nil {
		a.logger.Error("failed to journal snapshot", zap.Error(err))
	}
	a.observers.Publish(s)
}

// bootstrap buys the configured purchases into an empty portfolio.
func (a *App) bootstrap() {
	if len(a.cfg.Bootstrap) == 0 || len(a.portfolio.Holdings()) > 0 {
		return
	}
	for _, p := range a.cfg.Bootstrap {
		if _, err := a.trader.BuyFromCatalog(p.Symbol, p.Quantity); err != nil {
			a.logger.Warn("bootstrap purchase failed",
				zap.String("symbol", p.Symbol),
				zap.String("quantity", p.Quantity.String()),
				zap.Error(err))
		}
	}
}

func (a *App) save() {
	if !a.dirty {
		return
	}
	a.repo.Save(a.portfolio)
	a.dirty = false
}

func (a *App) shutdown() {
	a.dirty = true
	a.save()
	a.logger.Info("portfolio performance", analytics.Summarize(a.portfolio.History()).Field())
}

func (a *App) logJournalSummary() {
	records, err := a.journal.SnapshotsAfter(0)
	if err != nil {
		a.logger.Warn("failed to read snapshot journal", zap.Error(err))
		return
	}
	if len(records) == 0 {
		return
	}

	history := make([]domain.Snapshot, len(records))
	for i, rec := range records {
		history[i] = rec.Snapshot
	}
	a.logger.Info("journaled performance",
		zap.Uint64("journal_index", a.journal.CurrentIndex()),
		analytics.Summarize(history).Field())
}
