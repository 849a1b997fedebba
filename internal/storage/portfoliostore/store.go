// Package portfoliostore persists the portfolio to a JSON file.
package portfoliostore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/investtrack/internal/domain"
	"go.uber.org/zap"
)

const defaultStatePath = "./data/portfolio.json"

// Repository loads and saves one portfolio state file. Failures are logged,
// never returned, so a broken file cannot keep the application from starting.
type Repository struct {
	path          string
	logger        *zap.Logger
	initialCash   decimal.Decimal
	portfolioOpts []domain.Option
	holdingOpts   []domain.HoldingOption
}

// Option configures a Repository.
type Option func(*Repository)

// WithInitialCash endowment of the fresh portfolio returned when nothing can be loaded.
func WithInitialCash(cash decimal.Decimal) Option {
	return func(r *Repository) {
		r.initialCash = cash
	}
}

// WithPortfolioOptions options applied to every portfolio the repository builds.
func WithPortfolioOptions(opts ...domain.Option) Option {
	return func(r *Repository) {
		r.portfolioOpts = append(r.portfolioOpts, opts...)
	}
}

// WithHoldingOptions options applied to every restored holding.
func WithHoldingOptions(opts ...domain.HoldingOption) Option {
	return func(r *Repository) {
		r.holdingOpts = append(r.holdingOpts, opts...)
	}
}

// New creates a repository for the file at path.
func New(path string, logger *zap.Logger, opts ...Option) *Repository {
	if path == "" {
		path = defaultStatePath
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Repository{
		path:        path,
		logger:      logger,
		initialCash: domain.DefaultInitialCash,
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Path location of the state file.
func (r *Repository) Path() string {
	return r.path
}

// State on-disk layout.
type State struct {
	InitialCash   string           `json:"initial_cash"`
	CashBalance   string           `json:"cash_balance"`
	TotalInvested string           `json:"total_invested"`
	Holdings      []StoredHolding  `json:"holdings"`
	History       []StoredSnapshot `json:"performance_history"`
	SavedAt       time.Time        `json:"saved_at"`
}

// StoredHolding is a serializable snapshot of domain.Holding.
type StoredHolding struct {
	ID            string              `json:"id"`
	Symbol        string              `json:"symbol"`
	Name          string              `json:"name"`
	Quantity      string              `json:"quantity"`
	LivePrice     string              `json:"live_price"`
	PurchasePrice string              `json:"purchase_price"`
	Class         domain.AssetClass   `json:"asset_class"`
	PriceHistory  []domain.PricePoint `json:"price_history"`
}

// StoredSnapshot is a serializable snapshot of domain.Snapshot.
type StoredSnapshot struct {
	HoldingsValue string    `json:"holdings_value"`
	CashBalance   string    `json:"cash_balance"`
	Timestamp     time.Time `json:"timestamp"`
}

// Load reads the portfolio. A missing, unreadable or invalid file yields a fresh portfolio.
func (r *Repository) Load() *domain.Portfolio {
	payload, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			r.logger.Info("no saved portfolio, starting fresh", zap.String("path", r.path))
		} else {
			r.logger.Error("failed to read portfolio state, starting fresh", zap.String("path", r.path), zap.Error(err))
		}
		return r.fresh()
	}

	var state State
	if err := json.Unmarshal(payload, &state); err != nil {
		r.logger.Error("failed to decode portfolio state, starting fresh", zap.String("path", r.path), zap.Error(err))
		return r.fresh()
	}

	p, err := r.restore(state)
	if err != nil {
		r.logger.Error("saved portfolio is invalid, starting fresh", zap.String("path", r.path), zap.Error(err))
		return r.fresh()
	}

	r.logger.Info("portfolio loaded",
		zap.String("path", r.path),
		zap.Int("holdings", len(p.Holdings())),
		zap.String("cash", p.CashBalance().String()))

	return p
}

// Save writes the portfolio atomically via temp file.
func (r *Repository) Save(p *domain.Portfolio) {
	if p == nil {
		return
	}
	if err := r.write(NewState(p, time.Now())); err != nil {
		r.logger.Error("failed to save portfolio", zap.String("path", r.path), zap.Error(err))
		return
	}
	r.logger.Debug("portfolio saved", zap.String("path", r.path))
}

func (r *Repository) write(state State) error {
	payload, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode portfolio state")
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return errors.Wrap(err, "create portfolio state dir")
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return errors.Wrap(err, "write portfolio state temp file")
	}

	if err := os.Rename(tmp, r.path); err != nil {
		return errors.Wrap(err, "persist portfolio state")
	}

	return nil
}

func (r *Repository) fresh() *domain.Portfolio {
	return domain.NewPortfolio(r.initialCash, r.portfolioOpts...)
}

// NewState converts a portfolio into its stored representation.
func NewState(p *domain.Portfolio, savedAt time.Time) State {
	s := p.State()

	state := State{
		InitialCash:   s.InitialCash.String(),
		CashBalance:   s.Cash.String(),
		TotalInvested: s.TotalInvested.String(),
		Holdings:      make([]StoredHolding, 0, len(s.Holdings)),
		History:       make([]StoredSnapshot, 0, len(s.History)),
		SavedAt:       savedAt,
	}

	for _, h := range s.Holdings {
		hs := h.State()
		state.Holdings = append(state.Holdings, StoredHolding{
			ID:            hs.ID,
			Symbol:        hs.Symbol,
			Name:          hs.Name,
			Quantity:      hs.Quantity.String(),
			LivePrice:     hs.LivePrice.String(),
			PurchasePrice: hs.PurchasePrice.String(),
			Class:         hs.Class,
			PriceHistory:  hs.History,
		})
	}

	for _, snap := range s.History {
		state.History = append(state.History, StoredSnapshot{
			HoldingsValue: snap.TotalHoldingsValue.String(),
			CashBalance:   snap.CashBalance.String(),
			Timestamp:     snap.Timestamp,
		})
	}

	return state
}

func (r *Repository) restore(state State) (*domain.Portfolio, error) {
	initialCash, err := parseDecimal(state.InitialCash, r.initialCash)
	if err != nil {
		return nil, errors.Wrap(err, "decode initial cash")
	}
	cash, err := decimal.NewFromString(state.CashBalance)
	if err != nil {
		return nil, errors.Wrap(err, "decode cash balance")
	}
	invested, err := parseDecimal(state.TotalInvested, decimal.Zero)
	if err != nil {
		return nil, errors.Wrap(err, "decode total invested")
	}

	holdings := make([]*domain.Holding, 0, len(state.Holdings))
	for _, sh := range state.Holdings {
		h, err := sh.toHolding(r.holdingOpts)
		if err != nil {
			return nil, err
		}
		holdings = append(holdings, h)
	}

	history := make([]domain.Snapshot, 0, len(state.History))
	for i, ss := range state.History {
		snap, err := ss.toSnapshot()
		if err != nil {
			return nil, errors.Wrapf(err, "decode snapshot %d", i)
		}
		history = append(history, snap)
	}

	p, err := domain.RestorePortfolio(domain.PortfolioState{
		InitialCash:   initialCash,
		Cash:          cash,
		TotalInvested: invested,
		Holdings:      holdings,
		History:       history,
	}, r.portfolioOpts...)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		p.TakeSnapshot()
	}

	return p, nil
}

func (sh StoredHolding) toHolding(opts []domain.HoldingOption) (*domain.Holding, error) {
	quantity, err := decimal.NewFromString(sh.Quantity)
	if err != nil {
		return nil, errors.Wrapf(err, "decode quantity of holding %s", sh.ID)
	}
	purchase, err := decimal.NewFromString(sh.PurchasePrice)
	if err != nil {
		return nil, errors.Wrapf(err, "decode purchase price of holding %s", sh.ID)
	}
	live, err := parseDecimal(sh.LivePrice, purchase)
	if err != nil {
		return nil, errors.Wrapf(err, "decode live price of holding %s", sh.ID)
	}

	return domain.RestoreHolding(domain.HoldingState{
		ID:            sh.ID,
		Symbol:        sh.Symbol,
		Name:          sh.Name,
		Quantity:      quantity,
		LivePrice:     live,
		PurchasePrice: purchase,
		Class:         sh.Class,
		History:       sh.PriceHistory,
	}, opts...)
}

func (ss StoredSnapshot) toSnapshot() (domain.Snapshot, error) {
	holdings, err := decimal.NewFromString(ss.HoldingsValue)
	if err != nil {
		return domain.Snapshot{}, errors.Wrap(err, "decode holdings value")
	}
	cash, err := decimal.NewFromString(ss.CashBalance)
	if err != nil {
		return domain.Snapshot{}, errors.Wrap(err, "decode cash balance")
	}
	return domain.NewSnapshot(holdings, cash, ss.Timestamp), nil
}

// parseDecimal parses s, returning fallback for an empty string.
func parseDecimal(s string, fallback decimal.Decimal) (decimal.Decimal, error) {
	if s == "" {
		return fallback, nil
	}
	return decimal.NewFromString(s)
}
