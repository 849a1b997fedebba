// Package catalog holds the reference instruments the simulator reprices and
// holdings are bought from.
package catalog

import (
	"sort"
	"strings"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/investtrack/internal/domain"
)

// ErrNotFound symbol is not listed in the catalog.
var ErrNotFound = errors.Wrap(domain.ErrNotFound, "instrument")

type state struct {
	instruments []domain.Instrument
	bySymbol    map[string]int
}

// Catalog set of instruments keyed by symbol.
//
// Readers always observe a complete state. Publish is reserved for the price
// engine, which is the single writer.
type Catalog struct {
	state atomic.Pointer[state]
}

// New creates a catalog. Symbols must be unique and prices positive.
func New(instruments []domain.Instrument) (*Catalog, error) {
	s, err := buildState(instruments)
	if err != nil {
		return nil, err
	}

	c := &Catalog{}
	c.state.Store(s)

	return c, nil
}

// NewDefault creates a catalog populated with the predefined instruments.
func NewDefault() *Catalog {
	c, err := New(Predefined())
	if err != nil {
		panic(errors.Wrap(err, "predefined catalog is invalid"))
	}
	return c
}

func buildState(instruments []domain.Instrument) (*state, error) {
	s := &state{
		instruments: make([]domain.Instrument, 0, len(instruments)),
		bySymbol:    make(map[string]int, len(instruments)),
	}

	for _, inst := range instruments {
		symbol := strings.TrimSpace(inst.Symbol)
		if symbol == "" {
			return nil, domain.ErrMissingSymbol
		}
		if !inst.Price.IsPositive() {
			return nil, errors.Wrapf(domain.ErrInvalidPrice, "instrument %s", symbol)
		}
		if _, dup := s.bySymbol[symbol]; dup {
			return nil, errors.Errorf("duplicate instrument symbol %s", symbol)
		}
		if !inst.Class.IsValid() {
			inst.Class = domain.AssetClassOther
		}
		inst.Symbol = symbol

		s.bySymbol[symbol] = len(s.instruments)
		s.instruments = append(s.instruments, inst)
	}

	return s, nil
}

// Publish atomically replaces the catalog contents.
func (c *Catalog) Publish(instruments []domain.Instrument) error {
	s, err := buildState(instruments)
	if err != nil {
		return errors.Wrap(err, "publish catalog")
	}
	c.state.Store(s)
	return nil
}

// All returns a copy of every instrument in listing order.
func (c *Catalog) All() []domain.Instrument {
	s := c.state.Load()
	return append([]domain.Instrument(nil), s.instruments...)
}

// Len number of listed instruments.
func (c *Catalog) Len() int {
	return len(c.state.Load().instruments)
}

// ByClass returns the instruments of the given class.
func (c *Catalog) ByClass(class domain.AssetClass) []domain.Instrument {
	var out []domain.Instrument
	for _, inst := range c.state.Load().instruments {
		if inst.Class == class {
			out = append(out, inst)
		}
	}
	return out
}

// ByClassAndGroup returns the instruments of the given class and sub-group.
func (c *Catalog) ByClassAndGroup(class domain.AssetClass, group string) []domain.Instrument {
	var out []domain.Instrument
	for _, inst := range c.state.Load().instruments {
		if inst.Class == class && inst.Group == group {
			out = append(out, inst)
		}
	}
	return out
}

// Groups returns the distinct sub-groups of a class, sorted.
func (c *Catalog) Groups(class domain.AssetClass) []string {
	seen := make(map[string]struct{})
	var groups []string
	for _, inst := range c.state.Load().instruments {
		if inst.Class != class || inst.Group == "" {
			continue
		}
		if _, ok := seen[inst.Group]; ok {
			continue
		}
		seen[inst.Group] = struct{}{}
		groups = append(groups, inst.Group)
	}
	sort.Strings(groups)
	return groups
}

// Lookup finds an instrument by symbol.
func (c *Catalog) Lookup(symbol string) (domain.Instrument, bool) {
	s := c.state.Load()
	idx, ok := s.bySymbol[strings.TrimSpace(symbol)]
	if !ok {
		return domain.Instrument{}, false
	}
	return s.instruments[idx], true
}

// CreateHolding opens a new holding at the instrument's current price.
func (c *Catalog) CreateHolding(symbol string, quantity decimal.Decimal, opts ...domain.HoldingOption) (*domain.Holding, error) {
	inst, ok := c.Lookup(symbol)
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "symbol %s", symbol)
	}

	h, err := domain.NewHolding(inst.Symbol, inst.Name, quantity, inst.Price, inst.Class, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "create holding for %s", inst.Symbol)
	}

	return h, nil
}
