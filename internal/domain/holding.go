package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// DefaultPriceHistoryLimit price points kept per holding unless overridden.
const DefaultPriceHistoryLimit = 1000

var hundred = decimal.NewFromInt(100)

// PricePoint observed price of a holding.
type PricePoint struct {
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"ts"`
}

// Holding single position of a portfolio. Two holdings are the same position
// only when their ids match.
//
// Holding is not safe for concurrent use; the owning portfolio confines it to
// one goroutine.
type Holding struct {
	id            string
	symbol        string
	name          string
	quantity      decimal.Decimal
	livePrice     decimal.Decimal
	purchasePrice decimal.Decimal
	class         AssetClass
	history       []PricePoint
	historyLimit  int
	now           func() time.Time
}

// HoldingOption configures a Holding.
type HoldingOption func(*Holding)

// WithHistoryLimit caps the price history to the most recent n points; n <= 0 keeps everything.
func WithHistoryLimit(n int) HoldingOption {
	return func(h *Holding) {
		h.historyLimit = n
	}
}

// WithHoldingClock overrides the time source used to stamp price points.
func WithHoldingClock(now func() time.Time) HoldingOption {
	return func(h *Holding) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHolding creates a position bought at price. The history starts with one
// point at the purchase price.
func NewHolding(symbol, name string, quantity, price decimal.Decimal, class AssetClass, opts ...HoldingOption) (*Holding, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, ErrMissingSymbol
	}
	if !quantity.IsPositive() {
		return nil, errors.Wrapf(ErrInvalidQuantity, "got %s", quantity.String())
	}
	if !price.IsPositive() {
		return nil, errors.Wrapf(ErrInvalidPrice, "got %s", price.String())
	}
	if !class.IsValid() {
		class = AssetClassOther
	}

	h := &Holding{
		id:            uuid.NewString(),
		symbol:        symbol,
		name:          name,
		quantity:      quantity,
		livePrice:     price,
		purchasePrice: price,
		class:         class,
		historyLimit:  DefaultPriceHistoryLimit,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.history = []PricePoint{{Price: price, Timestamp: h.now()}}

	return h, nil
}

// HoldingState serializable copy of every Holding field.
type HoldingState struct {
	ID            string
	Symbol        string
	Name          string
	Quantity      decimal.Decimal
	LivePrice     decimal.Decimal
	PurchasePrice decimal.Decimal
	Class         AssetClass
	History       []PricePoint
}

// RestoreHolding rebuilds a holding from persisted state, keeping its id.
func RestoreHolding(s HoldingState, opts ...HoldingOption) (*Holding, error) {
	if s.ID == "" {
		return nil, errors.New("holding id is required")
	}
	h, err := NewHolding(s.Symbol, s.Name, s.Quantity, s.PurchasePrice, s.Class, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "restore holding %s", s.ID)
	}
	if !s.LivePrice.IsPositive() {
		return nil, errors.Wrapf(ErrInvalidPrice, "restore holding %s live price %s", s.ID, s.LivePrice.String())
	}

	h.id = s.ID
	h.livePrice = s.LivePrice
	if len(s.History) > 0 {
		h.history = append([]PricePoint(nil), s.History...)
		h.trimHistory()
	}

	return h, nil
}

// State returns a copy of the holding's fields.
func (h *Holding) State() HoldingState {
	return HoldingState{
		ID:            h.id,
		Symbol:        h.symbol,
		Name:          h.name,
		Quantity:      h.quantity,
		LivePrice:     h.livePrice,
		PurchasePrice: h.purchasePrice,
		Class:         h.class,
		History:       h.PriceHistory(),
	}
}

func (h *Holding) ID() string                     { return h.id }
func (h *Holding) Symbol() string                 { return h.symbol }
func (h *Holding) Name() string                   { return h.name }
func (h *Holding) Quantity() decimal.Decimal      { return h.quantity }
func (h *Holding) LivePrice() decimal.Decimal     { return h.livePrice }
func (h *Holding) PurchasePrice() decimal.Decimal { return h.purchasePrice }
func (h *Holding) Class() AssetClass              { return h.class }

// PriceHistory returns a copy of the recorded price points, oldest first.
func (h *Holding) PriceHistory() []PricePoint {
	return append([]PricePoint(nil), h.history...)
}

// SetPrice sets the live price and records it in the history.
func (h *Holding) SetPrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return errors.Wrapf(ErrInvalidPrice, "holding %s got %s", h.symbol, price.String())
	}

	ts := h.now()
	if n := len(h.history); n > 0 && ts.Before(h.history[n-1].Timestamp) {
		ts = h.history[n-1].Timestamp
	}

	h.livePrice = price
	h.history = append(h.history, PricePoint{Price: price, Timestamp: ts})
	h.trimHistory()

	return nil
}

// SetQuantity replaces the held quantity.
func (h *Holding) SetQuantity(quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return errors.Wrapf(ErrInvalidQuantity, "holding %s got %s", h.symbol, quantity.String())
	}
	h.quantity = quantity
	return nil
}

// SetSymbol renames the ticker the holding follows.
func (h *Holding) SetSymbol(symbol string) error {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return ErrMissingSymbol
	}
	h.symbol = symbol
	return nil
}

func (h *Holding) SetName(name string) { h.name = name }

func (h *Holding) SetClass(class AssetClass) {
	if !class.IsValid() {
		class = AssetClassOther
	}
	h.class = class
}

// CurrentValue quantity times live price.
func (h *Holding) CurrentValue() decimal.Decimal {
	return h.quantity.Mul(h.livePrice)
}

// PurchaseValue quantity times purchase price.
func (h *Holding) PurchaseValue() decimal.Decimal {
	return h.quantity.Mul(h.purchasePrice)
}

// ProfitLoss current value minus purchase value.
func (h *Holding) ProfitLoss() decimal.Decimal {
	return h.CurrentValue().Sub(h.PurchaseValue())
}

// ProfitLossPct profit/loss relative to purchase value, in percent.
func (h *Holding) ProfitLossPct() decimal.Decimal {
	return percentOf(h.ProfitLoss(), h.PurchaseValue())
}

// PriceChange live price minus purchase price.
func (h *Holding) PriceChange() decimal.Decimal {
	return h.livePrice.Sub(h.purchasePrice)
}

// PriceChangePct price change relative to purchase price, in percent.
func (h *Holding) PriceChangePct() decimal.Decimal {
	return percentOf(h.PriceChange(), h.purchasePrice)
}

// Equal reports whether both holdings share the same id.
func (h *Holding) Equal(other *Holding) bool {
	if h == nil || other == nil {
		return h == other
	}
	return h.id == other.id
}

func (h *Holding) trimHistory() {
	if h.historyLimit <= 0 || len(h.history) <= h.historyLimit {
		return
	}
	drop := len(h.history) - h.historyLimit
	h.history = append(h.history[:0:0], h.history[drop:]...)
}

// percentOf returns part/whole*100, or zero when whole is zero.
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}
