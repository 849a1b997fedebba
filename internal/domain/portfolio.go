package domain

import (
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// DefaultSnapshotLimit snapshots kept in memory unless overridden.
	DefaultSnapshotLimit = 10000
)

// DefaultInitialCash starting endowment of a new portfolio.
var DefaultInitialCash = decimal.NewFromInt(100_000_000)

// Portfolio owns a set of holdings, a cash balance and the snapshot history.
//
// Portfolio is not safe for concurrent use. All calls must come from the
// goroutine that owns it.
type Portfolio struct {
	initialCash   decimal.Decimal
	cash          decimal.Decimal
	totalInvested decimal.Decimal
	holdings      map[string]*Holding
	order         []string
	history       []Snapshot
	snapshotLimit int
	onSnapshot    func(Snapshot)
	now           func() time.Time
	logger        *zap.Logger
}

// Option configures a Portfolio.
type Option func(*Portfolio)

// WithSnapshotLimit caps the snapshot history to the most recent n entries; n <= 0 keeps everything.
func WithSnapshotLimit(n int) Option {
	return func(p *Portfolio) {
		p.snapshotLimit = n
	}
}

// WithSnapshotObserver registers fn to receive every appended snapshot.
func WithSnapshotObserver(fn func(Snapshot)) Option {
	return func(p *Portfolio) {
		p.onSnapshot = fn
	}
}

// WithLogger sets the logger used for warnings.
func WithLogger(l *zap.Logger) Option {
	return func(p *Portfolio) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithClock overrides the time source used to stamp snapshots.
func WithClock(now func() time.Time) Option {
	return func(p *Portfolio) {
		if now != nil {
			p.now = now
		}
	}
}

func newPortfolio(initialCash decimal.Decimal, opts []Option) *Portfolio {
	p := &Portfolio{
		initialCash:   initialCash,
		cash:          initialCash,
		totalInvested: decimal.Zero,
		holdings:      make(map[string]*Holding),
		snapshotLimit: DefaultSnapshotLimit,
		now:           time.Now,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewPortfolio creates an empty portfolio funded with initialCash. The history
// starts with one snapshot of that state.
func NewPortfolio(initialCash decimal.Decimal, opts ...Option) *Portfolio {
	if initialCash.IsNegative() {
		initialCash = decimal.Zero
	}
	p := newPortfolio(initialCash, opts)
	p.TakeSnapshot()
	return p
}

// PortfolioState serializable copy of a portfolio.
type PortfolioState struct {
	InitialCash   decimal.Decimal
	Cash          decimal.Decimal
	TotalInvested decimal.Decimal
	Holdings      []*Holding
	History       []Snapshot
}

// RestorePortfolio rebuilds a portfolio from persisted state without taking a snapshot.
func RestorePortfolio(s PortfolioState, opts ...Option) (*Portfolio, error) {
	if s.InitialCash.IsNegative() {
		return nil, errors.Errorf("initial cash must not be negative, got %s", s.InitialCash.String())
	}
	if s.Cash.IsNegative() {
		return nil, errors.Errorf("cash balance must not be negative, got %s", s.Cash.String())
	}

	p := newPortfolio(s.InitialCash, opts)
	p.cash = s.Cash
	p.totalInvested = decimal.Max(s.TotalInvested, decimal.Zero)

	for _, h := range s.Holdings {
		if h == nil {
			continue
		}
		if _, exists := p.holdings[h.ID()]; exists {
			return nil, errors.Wrapf(ErrDuplicateHolding, "restore holding %s", h.ID())
		}
		p.holdings[h.ID()] = h
		p.order = append(p.order, h.ID())
	}

	for i, snap := range s.History {
		if i > 0 && snap.Timestamp.Before(s.History[i-1].Timestamp) {
			return nil, errors.Errorf("snapshot %d is older than its predecessor", i)
		}
	}
	p.history = append([]Snapshot(nil), s.History...)
	p.trimHistory()

	return p, nil
}

// State returns a copy of the portfolio for persistence. Holdings are shared, not cloned.
func (p *Portfolio) State() PortfolioState {
	return PortfolioState{
		InitialCash:   p.initialCash,
		Cash:          p.cash,
		TotalInvested: p.totalInvested,
		Holdings:      p.Holdings(),
		History:       p.History(),
	}
}

// AddHolding inserts h and counts its value as invested. A holding whose id is
// already present is rejected with ErrDuplicateHolding.
func (p *Portfolio) AddHolding(h *Holding) error {
	if h == nil {
		return errors.New("holding is nil")
	}
	if _, exists := p.holdings[h.ID()]; exists {
		p.logger.Warn("attempted to add a holding with duplicate id",
			zap.String("id", h.ID()),
			zap.String("symbol", h.Symbol()))
		return errors.Wrapf(ErrDuplicateHolding, "id %s", h.ID())
	}

	p.holdings[h.ID()] = h
	p.order = append(p.order, h.ID())
	p.totalInvested = p.totalInvested.Add(h.Quantity().Mul(h.LivePrice()))
	p.TakeSnapshot()

	return nil
}

// RemoveHolding removes h if present.
func (p *Portfolio) RemoveHolding(h *Holding) bool {
	if h == nil {
		return false
	}
	return p.RemoveHoldingByID(h.ID())
}

// RemoveHoldingByID removes the holding with the given id and reports whether it was present.
func (p *Portfolio) RemoveHoldingByID(id string) bool {
	h, ok := p.holdings[id]
	if !ok {
		return false
	}

	delete(p.holdings, id)
	for i, existing := range p.order {
		if existing == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	p.reduceInvested(h.PurchaseValue())
	p.TakeSnapshot()

	return true
}

// ReduceHolding lowers the quantity of a holding by quantity, which must be
// smaller than the held amount; selling everything goes through RemoveHoldingByID.
func (p *Portfolio) ReduceHolding(id string, quantity decimal.Decimal) error {
	h, ok := p.holdings[id]
	if !ok {
		return errors.Wrapf(ErrNotFound, "holding %s", id)
	}
	if !quantity.IsPositive() {
		return errors.Wrapf(ErrInvalidQuantity, "reduce by %s", quantity.String())
	}
	if quantity.GreaterThanOrEqual(h.Quantity()) {
		return errors.Wrapf(ErrInvalidQuantity, "reduce by %s exceeds held %s", quantity.String(), h.Quantity().String())
	}

	if err := h.SetQuantity(h.Quantity().Sub(quantity)); err != nil {
		return err
	}
	p.reduceInvested(quantity.Mul(h.PurchasePrice()))
	p.TakeSnapshot()

	return nil
}

// DeductCash debits amount. Nothing changes when the balance does not cover it.
func (p *Portfolio) DeductCash(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return errors.Wrapf(ErrInvalidAmount, "got %s", amount.String())
	}
	if amount.GreaterThan(p.cash) {
		return errors.Wrapf(ErrInsufficientFunds, "have %s need %s", p.cash.String(), amount.String())
	}

	p.cash = p.cash.Sub(amount)
	p.TakeSnapshot()

	return nil
}

// AddCash credits amount.
func (p *Portfolio) AddCash(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return errors.Wrapf(ErrInvalidAmount, "got %s", amount.String())
	}

	p.cash = p.cash.Add(amount)
	p.TakeSnapshot()

	return nil
}

// Reset returns the portfolio to its initial endowment with a single snapshot.
func (p *Portfolio) Reset() {
	p.holdings = make(map[string]*Holding)
	p.order = nil
	p.history = nil
	p.cash = p.initialCash
	p.totalInvested = decimal.Zero
	p.TakeSnapshot()
}

// TakeSnapshot records the current valuation and returns it.
func (p *Portfolio) TakeSnapshot() Snapshot {
	ts := p.now()
	if n := len(p.history); n > 0 && ts.Before(p.history[n-1].Timestamp) {
		ts = p.history[n-1].Timestamp
	}

	snap := NewSnapshot(p.TotalValue(), p.cash, ts)
	p.history = append(p.history, snap)
	p.trimHistory()

	if p.onSnapshot != nil {
		p.onSnapshot(snap)
	}

	return snap
}

// LastSnapshot returns the most recent snapshot, if any.
func (p *Portfolio) LastSnapshot() (Snapshot, bool) {
	if len(p.history) == 0 {
		return Snapshot{}, false
	}
	return p.history[len(p.history)-1], true
}

// FindHolding looks a holding up by id.
func (p *Portfolio) FindHolding(id string) (*Holding, bool) {
	h, ok := p.holdings[id]
	return h, ok
}

// HoldingsBySymbol returns every holding following symbol, in insertion order.
func (p *Portfolio) HoldingsBySymbol(symbol string) []*Holding {
	var out []*Holding
	for _, id := range p.order {
		if h := p.holdings[id]; h.Symbol() == symbol {
			out = append(out, h)
		}
	}
	return out
}

// Holdings returns the holdings in insertion order.
func (p *Portfolio) Holdings() []*Holding {
	out := make([]*Holding, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.holdings[id])
	}
	return out
}

// History returns a copy of the snapshot history, oldest first.
func (p *Portfolio) History() []Snapshot {
	return append([]Snapshot(nil), p.history...)
}

func (p *Portfolio) InitialCash() decimal.Decimal   { return p.initialCash }
func (p *Portfolio) CashBalance() decimal.Decimal   { return p.cash }
func (p *Portfolio) TotalInvested() decimal.Decimal { return p.totalInvested }

// TotalValue sum of current values over all holdings.
func (p *Portfolio) TotalValue() decimal.Decimal {
	total := decimal.Zero
	for _, h := range p.holdings {
		total = total.Add(h.CurrentValue())
	}
	return total
}

// TotalAssetValue holdings value plus cash.
func (p *Portfolio) TotalAssetValue() decimal.Decimal {
	return p.TotalValue().Add(p.cash)
}

// ProfitLoss total asset value relative to the initial endowment.
func (p *Portfolio) ProfitLoss() decimal.Decimal {
	return p.TotalAssetValue().Sub(p.initialCash)
}

// ProfitLossPct profit/loss in percent of the initial endowment.
func (p *Portfolio) ProfitLossPct() decimal.Decimal {
	return percentOf(p.ProfitLoss(), p.initialCash)
}

func (p *Portfolio) reduceInvested(amount decimal.Decimal) {
	p.totalInvested = p.totalInvested.Sub(amount)
	if p.totalInvested.IsNegative() {
		p.totalInvested = decimal.Zero
	}
}

func (p *Portfolio) trimHistory() {
	if p.snapshotLimit <= 0 || len(p.history) <= p.snapshotLimit {
		return
	}
	drop := len(p.history) - p.snapshotLimit
	p.history = append(p.history[:0:0], p.history[drop:]...)
}
