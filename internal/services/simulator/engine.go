// Package simulator perturbs catalog prices on a timer to emulate market movement.
package simulator

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/investtrack/internal/catalog"
	"github.com/vadiminshakov/investtrack/internal/domain"
	"github.com/vadiminshakov/investtrack/pkg/indicators"
	"go.uber.org/zap"
)

const (
	DefaultPeriod       = 5 * time.Second
	DefaultInitialDelay = 5 * time.Second
	// DefaultTickHistory recent prices kept per instrument for indicators.
	DefaultTickHistory = 100
	priceScale         = 8
)

// DefaultPriceFloor lowest price a simulated move can produce.
var DefaultPriceFloor = decimal.RequireFromString("0.01")

var hundred = decimal.NewFromInt(100)

// PriceUpdate result of one tick.
type PriceUpdate struct {
	Seq         uint64
	At          time.Time
	Instruments []domain.Instrument
}

// Consumer receives every price update. Consume runs on the engine goroutine;
// the next tick waits until it returns. Consume must not call Engine.Stop.
type Consumer interface {
	Consume(ctx context.Context, update PriceUpdate) error
}

// ConsumerFunc adapts a function to Consumer.
type ConsumerFunc func(ctx context.Context, update PriceUpdate) error

func (f ConsumerFunc) Consume(ctx context.Context, update PriceUpdate) error {
	return f(ctx, update)
}

// Engine periodically reprices every catalog instrument.
type Engine struct {
	catalog      *catalog.Catalog
	logger       *zap.Logger
	period       time.Duration
	initialDelay time.Duration
	floor        decimal.Decimal
	volatility   domain.VolatilityTable
	rng          *rand.Rand
	now          func() time.Time
	tickHistory  int

	// lifecycle
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	// owned by the tick goroutine
	seq uint64

	ticksMu sync.RWMutex
	ticks   map[string][]decimal.Decimal
}

// Option configures an Engine.
type Option func(*Engine)

func WithPeriod(d time.Duration) Option {
	return func(e *Engine) {
		e.period = d
	}
}

func WithInitialDelay(d time.Duration) Option {
	return func(e *Engine) {
		e.initialDelay = d
	}
}

// WithPriceFloor sets the lowest price a tick may produce. Non-positive values are ignored.
func WithPriceFloor(floor decimal.Decimal) Option {
	return func(e *Engine) {
		if floor.IsPositive() {
			e.floor = floor
		}
	}
}

// WithVolatility overrides the percent bound of individual tiers.
func WithVolatility(table domain.VolatilityTable) Option {
	return func(e *Engine) {
		for tier, pct := range table {
			e.volatility[tier] = pct.Abs()
		}
	}
}

// WithRand sets the random source. The engine is its only user.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		if rng != nil {
			e.rng = rng
		}
	}
}

// WithTickHistory sets how many recent prices are kept per instrument.
func WithTickHistory(n int) Option {
	return func(e *Engine) {
		e.tickHistory = n
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New creates a stopped engine over the given catalog.
func New(c *catalog.Catalog, logger *zap.Logger, opts ...Option) (*Engine, error) {
	if c == nil {
		return nil, errors.New("catalog is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Engine{
		catalog:      c,
		logger:       logger,
		period:       DefaultPeriod,
		initialDelay: DefaultInitialDelay,
		floor:        DefaultPriceFloor,
		volatility:   domain.DefaultVolatility(),
		rng:          rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64())),
		now:          time.Now,
		tickHistory:  DefaultTickHistory,
		ticks:        make(map[string][]decimal.Decimal),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.period <= 0 {
		return nil, errors.Errorf("tick period must be positive, got %s", e.period)
	}
	if e.initialDelay < 0 {
		return nil, errors.Errorf("initial delay must not be negative, got %s", e.initialDelay)
	}

	for _, inst := range c.All() {
		e.ticks[inst.Symbol] = []decimal.Decimal{inst.Price}
	}

	return e, nil
}

// Start launches the tick loop. A running loop is stopped first. consumer may be nil,
// in which case prices still move but nobody is notified.
func (e *Engine) Start(ctx context.Context, consumer Consumer) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "start price engine")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cancel != nil {
		e.logger.Info("price engine already running, restarting")
		e.stopLocked()
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	e.cancel = cancel
	e.done = done

	go e.run(runCtx, consumer, done)

	e.logger.Info("price engine started",
		zap.Duration("period", e.period),
		zap.Duration("initial_delay", e.initialDelay),
		zap.Int("instruments", e.catalog.Len()))

	return nil
}

// Stop halts the tick loop and waits for it to exit. No consumer call
// happens after Stop returns.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cancel == nil {
		return
	}
	e.stopLocked()
	e.logger.Info("price engine stopped")
}

func (e *Engine) stopLocked() {
	e.cancel()
	<-e.done
	e.cancel = nil
	e.done = nil
}

// Running reports whether the tick loop is active. A loop that exited because
// the context passed to Start was cancelled is not running.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cancel == nil {
		return false
	}
	select {
	case <-e.done:
		return false
	default:
		return true
	}
}

func (e *Engine) run(ctx context.Context, consumer Consumer, done chan struct{}) {
	defer close(done)

	delay := time.NewTimer(e.initialDelay)
	defer delay.Stop()

	select {
	case <-ctx.Done():
		return
	case <-delay.C:
	}

	e.tick(ctx, consumer)

	ticker := time.NewTicker(e.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.tick(ctx, consumer)
		}
	}
}

func (e *Engine) tick(ctx context.Context, consumer Consumer) {
	if ctx.Err() != nil {
		return
	}

	at := e.now()
	current := e.catalog.All()
	next := make([]domain.Instrument, len(current))
	for i, inst := range current {
		next[i] = inst.WithPrice(e.nextPrice(inst), at)
	}

	if err := e.catalog.Publish(next); err != nil {
		e.logger.Error("failed to publish simulated prices", zap.Error(err))
		return
	}
	e.recordTicks(next)
	e.seq++

	e.logger.Debug("prices simulated", zap.Uint64("seq", e.seq), zap.Int("instruments", len(next)))

	if consumer == nil || ctx.Err() != nil {
		return
	}

	e.deliver(ctx, consumer, PriceUpdate{Seq: e.seq, At: at, Instruments: next})
}

func (e *Engine) deliver(ctx context.Context, consumer Consumer, update PriceUpdate) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("price consumer panicked", zap.Uint64("seq", update.Seq), zap.Any("panic", r))
		}
	}()

	if err := consumer.Consume(ctx, update); err != nil {
		if errors.Is(err, context.Canceled) {
			e.logger.Debug("price update dropped on shutdown", zap.Uint64("seq", update.Seq))
			return
		}
		e.logger.Error("price consumer failed", zap.Uint64("seq", update.Seq), zap.Error(err))
	}
}

// nextPrice draws a uniform move within the instrument's volatility bound.
func (e *Engine) nextPrice(inst domain.Instrument) decimal.Decimal {
	bound, _ := e.volatility.Percent(inst.Tier()).Float64()
	pct := (e.rng.Float64()*2 - 1) * bound

	factor := decimal.NewFromFloat(pct).Div(hundred).Add(decimal.NewFromInt(1))
	price := inst.Price.Mul(factor).Round(priceScale)

	return decimal.Max(e.floor, price)
}

func (e *Engine) recordTicks(instruments []domain.Instrument) {
	e.ticksMu.Lock()
	defer e.ticksMu.Unlock()

	for _, inst := range instruments {
		series := append(e.ticks[inst.Symbol], inst.Price)
		if e.tickHistory > 0 && len(series) > e.tickHistory {
			series = append(series[:0:0], series[len(series)-e.tickHistory:]...)
		}
		e.ticks[inst.Symbol] = series
	}
}

// Performance price statistics of one instrument since it was listed.
type Performance struct {
	Symbol       string
	ListingPrice decimal.Decimal
	CurrentPrice decimal.Decimal
	Change       decimal.Decimal
	ChangePct    decimal.Decimal
	High         decimal.Decimal
	Low          decimal.Decimal
	UpdatedAt    time.Time
	Ticks        int
	Indicators   indicators.Snapshot
}

// Performance reports how an instrument moved since listing. Unknown symbols
// return catalog.ErrNotFound.
func (e *Engine) Performance(symbol string) (Performance, error) {
	inst, ok := e.catalog.Lookup(symbol)
	if !ok {
		return Performance{}, errors.Wrapf(catalog.ErrNotFound, "symbol %s", symbol)
	}

	e.ticksMu.RLock()
	series := append([]decimal.Decimal(nil), e.ticks[inst.Symbol]...)
	e.ticksMu.RUnlock()

	change := inst.Price.Sub(inst.ListingPrice)
	changePct := decimal.Zero
	if !inst.ListingPrice.IsZero() {
		changePct = change.Div(inst.ListingPrice).Mul(hundred)
	}

	return Performance{
		Symbol:       inst.Symbol,
		ListingPrice: inst.ListingPrice,
		CurrentPrice: inst.Price,
		Change:       change,
		ChangePct:    changePct,
		High:         inst.High,
		Low:          inst.Low,
		UpdatedAt:    inst.UpdatedAt,
		Ticks:        len(series),
		Indicators:   indicators.Latest(series),
	}, nil
}
