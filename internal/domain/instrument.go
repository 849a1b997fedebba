package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Instrument catalog entry for a tradable asset. Values are immutable copies;
// a price change produces a new Instrument.
type Instrument struct {
	Symbol string
	Name   string
	Class  AssetClass
	Group  string
	Price  decimal.Decimal
	// ListingPrice price the instrument entered the catalog with.
	ListingPrice decimal.Decimal
	High         decimal.Decimal
	Low          decimal.Decimal
	UpdatedAt    time.Time
}

// NewInstrument creates an instrument listed at the given price.
func NewInstrument(symbol, name string, class AssetClass, group string, price decimal.Decimal) Instrument {
	return Instrument{
		Symbol:       symbol,
		Name:         name,
		Class:        class,
		Group:        group,
		Price:        price,
		ListingPrice: price,
		High:         price,
		Low:          price,
	}
}

// Tier returns the volatility tier of the instrument.
func (i Instrument) Tier() VolatilityTier {
	return i.Class.Tier(i.Group)
}

// WithPrice returns a copy repriced at p, with the running high/low extended.
func (i Instrument) WithPrice(p decimal.Decimal, at time.Time) Instrument {
	i.Price = p
	if i.High.IsZero() || p.GreaterThan(i.High) {
		i.High = p
	}
	if i.Low.IsZero() || p.LessThan(i.Low) {
		i.Low = p
	}
	i.UpdatedAt = at
	return i
}
