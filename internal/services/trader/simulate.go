// Package trader executes simulated buy, sell and edit operations against a portfolio.
package trader

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/investtrack/internal/domain"
	"go.uber.org/zap"
)

// Catalog source of instruments holdings are bought from.
type Catalog interface {
	CreateHolding(symbol string, quantity decimal.Decimal, opts ...domain.HoldingOption) (*domain.Holding, error)
}

// SimulateTrader trades against a portfolio at simulated prices.
//
// SimulateTrader is not safe for concurrent use. It must run on the goroutine
// that owns the portfolio.
type SimulateTrader struct {
	portfolio   *domain.Portfolio
	catalog     Catalog
	logger      *zap.Logger
	holdingOpts []domain.HoldingOption
}

// NewSimulateTrader creates a new SimulateTrader. holdingOpts are applied to every holding it opens.
func NewSimulateTrader(portfolio *domain.Portfolio, catalog Catalog, logger *zap.Logger, holdingOpts ...domain.HoldingOption) (*SimulateTrader, error) {
	if portfolio == nil {
		return nil, errors.New("portfolio is required for SimulateTrader")
	}
	if catalog == nil {
		return nil, errors.New("catalog is required for SimulateTrader")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SimulateTrader{
		portfolio:   portfolio,
		catalog:     catalog,
		logger:      logger,
		holdingOpts: holdingOpts,
	}, nil
}

// Portfolio returns the traded portfolio.
func (t *SimulateTrader) Portfolio() *domain.Portfolio {
	return t.portfolio
}

// BuyFromCatalog buys quantity units of a listed instrument at its current price.
func (t *SimulateTrader) BuyFromCatalog(symbol string, quantity decimal.Decimal) (*domain.Holding, error) {
	h, err := t.catalog.CreateHolding(symbol, quantity, t.holdingOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "buy from catalog")
	}
	return t.open(h)
}

// BuyManual buys an arbitrary instrument at a user supplied price.
func (t *SimulateTrader) BuyManual(symbol, name string, class domain.AssetClass, quantity, price decimal.Decimal) (*domain.Holding, error) {
	h, err := domain.NewHolding(symbol, name, quantity, price, class, t.holdingOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "buy manual")
	}
	return t.open(h)
}

// open debits the cost and only then adds the holding.
func (t *SimulateTrader) open(h *domain.Holding) (*domain.Holding, error) {
	cost := h.Quantity().Mul(h.LivePrice())

	if err := t.portfolio.DeductCash(cost); err != nil {
		t.logger.Info("buy rejected",
			zap.String("symbol", h.Symbol()),
			zap.String("cost", cost.String()),
			zap.String("cash", t.portfolio.CashBalance().String()),
			zap.Error(err))
		return nil, errors.Wrapf(err, "buy %s", h.Symbol())
	}

	if err := t.portfolio.AddHolding(h); err != nil {
		if refundErr := t.portfolio.AddCash(cost); refundErr != nil {
			t.logger.Error("failed to refund cost of rejected holding", zap.Error(refundErr))
		}
		return nil, errors.Wrapf(err, "buy %s", h.Symbol())
	}

	t.logger.Info("bought",
		zap.String("id", h.ID()),
		zap.String("symbol", h.Symbol()),
		zap.String("quantity", h.Quantity().String()),
		zap.String("price", h.LivePrice().String()),
		zap.String("cost", cost.String()))

	return h, nil
}

// Sell sells quantity units of a holding at its live price and returns the proceeds.
// Selling the whole position or more closes it.
func (t *SimulateTrader) Sell(id string, quantity decimal.Decimal) (decimal.Decimal, error) {
	h, ok := t.portfolio.FindHolding(id)
	if !ok {
		return decimal.Zero, errors.Wrapf(domain.ErrNotFound, "sell holding %s", id)
	}
	if !quantity.IsPositive() {
		return decimal.Zero, errors.Wrapf(domain.ErrInvalidQuantity, "sell %s", quantity.String())
	}

	if quantity.GreaterThanOrEqual(h.Quantity()) {
		return t.close(h, "sold")
	}

	proceeds := quantity.Mul(h.LivePrice())
	if err := t.portfolio.ReduceHolding(id, quantity); err != nil {
		return decimal.Zero, errors.Wrapf(err, "sell holding %s", id)
	}
	if err := t.portfolio.AddCash(proceeds); err != nil {
		return decimal.Zero, errors.Wrapf(err, "credit proceeds of %s", id)
	}

	t.logger.Info("sold partially",
		zap.String("id", id),
		zap.String("symbol", h.Symbol()),
		zap.String("quantity", quantity.String()),
		zap.String("remaining", h.Quantity().String()),
		zap.String("proceeds", proceeds.String()))

	return proceeds, nil
}

// Delete closes a holding at its current value and returns the amount credited.
func (t *SimulateTrader) Delete(id string) (decimal.Decimal, error) {
	h, ok := t.portfolio.FindHolding(id)
	if !ok {
		return decimal.Zero, errors.Wrapf(domain.ErrNotFound, "delete holding %s", id)
	}
	return t.close(h, "deleted")
}

func (t *SimulateTrader) close(h *domain.Holding, verb string) (decimal.Decimal, error) {
	proceeds := h.CurrentValue()

	if !t.portfolio.RemoveHolding(h) {
		return decimal.Zero, errors.Wrapf(domain.ErrNotFound, "holding %s", h.ID())
	}
	if err := t.portfolio.AddCash(proceeds); err != nil {
		return decimal.Zero, errors.Wrapf(err, "credit proceeds of %s", h.ID())
	}

	t.logger.Info(verb,
		zap.String("id", h.ID()),
		zap.String("symbol", h.Symbol()),
		zap.String("quantity", h.Quantity().String()),
		zap.String("proceeds", proceeds.String()))

	return proceeds, nil
}

// HoldingEdit fields to change on a holding; nil fields are left alone.
type HoldingEdit struct {
	Symbol   *string
	Name     *string
	Class    *domain.AssetClass
	Quantity *decimal.Decimal
}

// Edit applies all edits or none. Cash and invested amounts do not change.
func (t *SimulateTrader) Edit(id string, edit HoldingEdit) error {
	h, ok := t.portfolio.FindHolding(id)
	if !ok {
		return errors.Wrapf(domain.ErrNotFound, "edit holding %s", id)
	}

	// validate on a scratch holding so a bad field leaves h untouched
	probe, err := domain.RestoreHolding(h.State())
	if err != nil {
		return errors.Wrapf(err, "edit holding %s", id)
	}
	if err := applyEdit(probe, edit); err != nil {
		return errors.Wrapf(err, "edit holding %s", id)
	}
	if err := applyEdit(h, edit); err != nil {
		return errors.Wrapf(err, "edit holding %s", id)
	}

	t.portfolio.TakeSnapshot()
	t.logger.Info("holding edited", zap.String("id", id), zap.String("symbol", h.Symbol()))

	return nil
}

func applyEdit(h *domain.Holding, edit HoldingEdit) error {
	if edit.Symbol != nil {
		if err := h.SetSymbol(*edit.Symbol); err != nil {
			return err
		}
	}
	if edit.Quantity != nil {
		if err := h.SetQuantity(*edit.Quantity); err != nil {
			return err
		}
	}
	if edit.Name != nil {
		h.SetName(*edit.Name)
	}
	if edit.Class != nil {
		h.SetClass(*edit.Class)
	}
	return nil
}

// ApplyPrices reprices every holding whose symbol appears in instruments and
// returns how many were repriced.
func (t *SimulateTrader) ApplyPrices(instruments []domain.Instrument) int {
	if len(instruments) == 0 {
		return 0
	}

	prices := make(map[string]decimal.Decimal, len(instruments))
	for _, inst := range instruments {
		prices[inst.Symbol] = inst.Price
	}

	repriced := 0
	for _, h := range t.portfolio.Holdings() {
		price, ok := prices[h.Symbol()]
		if !ok {
			continue
		}
		if err := h.SetPrice(price); err != nil {
			t.logger.Warn("skipping invalid price", zap.String("symbol", h.Symbol()), zap.Error(err))
			continue
		}
		repriced++
	}

	return repriced
}
