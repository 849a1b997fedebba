package trader

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/investtrack/internal/catalog"
	"github.com/vadiminshakov/investtrack/internal/domain"
	"go.uber.org/zap"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTrader(t *testing.T, cash string) *SimulateTrader {
	t.Helper()
	c, err := catalog.New([]domain.Instrument{
		domain.NewInstrument("AAPL", "Apple Inc.", domain.AssetClassStock, "US Tech", d("175.25")),
		domain.NewInstrument("BTC", "Bitcoin", domain.AssetClassCrypto, "Major", d("68450.75")),
	})
	require.NoError(t, err)

	tr, err := NewSimulateTrader(domain.NewPortfolio(d(cash)), c, zap.NewNop())
	require.NoError(t, err)
	return tr
}

func TestSimulateTrader_NewSimulateTrader(t *testing.T) {
	_, err := NewSimulateTrader(nil, catalog.NewDefault(), nil)
	require.Error(t, err)

	_, err = NewSimulateTrader(domain.NewPortfolio(d("1")), nil, nil)
	require.Error(t, err)

	tr, err := NewSimulateTrader(domain.NewPortfolio(d("1")), catalog.NewDefault(), nil)
	require.NoError(t, err)
	assert.NotNil(t, tr.logger)
}

func TestSimulateTrader_BuyFromCatalog(t *testing.T) {
	tr := newTrader(t, "100000000.00")
	p := tr.Portfolio()

	h, err := tr.BuyFromCatalog("AAPL", d("10"))
	require.NoError(t, err)

	assert.True(t, p.CashBalance().Equal(d("99998247.50")))
	assert.True(t, p.TotalValue().Equal(d("1752.50")))
	assert.True(t, p.TotalAssetValue().Equal(d("100000000")))
	assert.True(t, h.PurchasePrice().Equal(d("175.25")))

	found, ok := p.FindHolding(h.ID())
	require.True(t, ok)
	assert.Same(t, h, found)
}

func TestSimulateTrader_Buy_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		buy     func(tr *SimulateTrader) error
		wantErr error
	}{
		{
			name: "insufficient funds",
			buy: func(tr *SimulateTrader) error {
				_, err := tr.BuyFromCatalog("BTC", d("1"))
				return err
			},
			wantErr: domain.ErrInsufficientFunds,
		},
		{
			name: "unknown symbol",
			buy: func(tr *SimulateTrader) error {
				_, err := tr.BuyFromCatalog("NOPE", d("1"))
				return err
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name: "manual zero price",
			buy: func(tr *SimulateTrader) error {
				_, err := tr.BuyManual("X", "X", domain.AssetClassOther, d("1"), decimal.Zero)
				return err
			},
			wantErr: domain.ErrInvalidPrice,
		},
		{
			name: "negative quantity",
			buy: func(tr *SimulateTrader) error {
				_, err := tr.BuyFromCatalog("AAPL", d("-1"))
				return err
			},
			wantErr: domain.ErrInvalidQuantity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTrader(t, "1000")
			before := len(tr.Portfolio().History())

			require.ErrorIs(t, tt.buy(tr), tt.wantErr)
			assert.True(t, tr.Portfolio().CashBalance().Equal(d("1000")))
			assert.Empty(t, tr.Portfolio().Holdings())
			assert.Len(t, tr.Portfolio().History(), before)
		})
	}
}

func TestSimulateTrader_BuyManual(t *testing.T) {
	tr := newTrader(t, "1000")

	h, err := tr.BuyManual("PRIV", "Private Co", domain.AssetClassOther, d("4"), d("12.5"))
	require.NoError(t, err)
	assert.Equal(t, domain.AssetClassOther, h.Class())
	assert.True(t, tr.Portfolio().CashBalance().Equal(d("950")))
	assert.True(t, tr.Portfolio().TotalInvested().Equal(d("50")))
}

func TestSimulateTrader_Sell(t *testing.T) {
	t.Run("partial", func(t *testing.T) {
		tr := newTrader(t, "10000")
		h, err := tr.BuyFromCatalog("AAPL", d("10"))
		require.NoError(t, err)
		require.NoError(t, h.SetPrice(d("200")))

		proceeds, err := tr.Sell(h.ID(), d("4"))
		require.NoError(t, err)

		assert.True(t, proceeds.Equal(d("800")))
		assert.True(t, h.Quantity().Equal(d("6")))
		assert.True(t, tr.Portfolio().CashBalance().Equal(d("9047.50")), "got %s", tr.Portfolio().CashBalance())
	})

	t.Run("more than held closes at held quantity", func(t *testing.T) {
		tr := newTrader(t, "10000")
		h, err := tr.BuyFromCatalog("AAPL", d("10"))
		require.NoError(t, err)
		require.NoError(t, h.SetPrice(d("200")))

		proceeds, err := tr.Sell(h.ID(), d("25"))
		require.NoError(t, err)

		assert.True(t, proceeds.Equal(d("2000")))
		assert.Empty(t, tr.Portfolio().Holdings())
		assert.True(t, tr.Portfolio().CashBalance().Equal(d("10247.50")))
		assert.True(t, tr.Portfolio().TotalInvested().IsZero())
	})

	t.Run("unknown id", func(t *testing.T) {
		tr := newTrader(t, "10000")
		_, err := tr.Sell("missing", d("1"))
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("non positive quantity", func(t *testing.T) {
		tr := newTrader(t, "10000")
		h, err := tr.BuyFromCatalog("AAPL", d("1"))
		require.NoError(t, err)
		_, err = tr.Sell(h.ID(), decimal.Zero)
		require.ErrorIs(t, err, domain.ErrInvalidQuantity)
	})
}

func TestSimulateTrader_Delete(t *testing.T) {
	tr := newTrader(t, "1000")
	h, err := tr.BuyFromCatalog("AAPL", d("2"))
	require.NoError(t, err)

	credited, err := tr.Delete(h.ID())
	require.NoError(t, err)
	assert.True(t, credited.Equal(d("350.50")))
	assert.True(t, tr.Portfolio().CashBalance().Equal(d("1000")))

	_, err = tr.Delete(h.ID())
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSimulateTrader_Edit(t *testing.T) {
	tr := newTrader(t, "1000")
	h, err := tr.BuyFromCatalog("AAPL", d("2"))
	require.NoError(t, err)

	t.Run("invalid edit changes nothing", func(t *testing.T) {
		before := len(tr.Portfolio().History())
		name := "Renamed"
		zero := decimal.Zero

		err := tr.Edit(h.ID(), HoldingEdit{Name: &name, Quantity: &zero})
		require.ErrorIs(t, err, domain.ErrInvalidQuantity)
		assert.Equal(t, "Apple Inc.", h.Name())
		assert.True(t, h.Quantity().Equal(d("2")))
		assert.Len(t, tr.Portfolio().History(), before)
	})

	t.Run("valid edit takes snapshot", func(t *testing.T) {
		before := len(tr.Portfolio().History())
		symbol, name := "AAPL.US", "Apple"
		class := domain.AssetClassETF
		qty := d("3")

		require.NoError(t, tr.Edit(h.ID(), HoldingEdit{Symbol: &symbol, Name: &name, Class: &class, Quantity: &qty}))
		assert.Equal(t, "AAPL.US", h.Symbol())
		assert.Equal(t, "Apple", h.Name())
		assert.Equal(t, domain.AssetClassETF, h.Class())
		assert.True(t, h.Quantity().Equal(d("3")))
		assert.Len(t, tr.Portfolio().History(), before+1)
	})

	t.Run("unknown id", func(t *testing.T) {
		require.ErrorIs(t, tr.Edit("missing", HoldingEdit{}), domain.ErrNotFound)
	})
}

func TestSimulateTrader_ApplyPrices(t *testing.T) {
	tr := newTrader(t, "1000000")
	a1, err := tr.BuyFromCatalog("AAPL", d("1"))
	require.NoError(t, err)
	a2, err := tr.BuyFromCatalog("AAPL", d("2"))
	require.NoError(t, err)
	manual, err := tr.BuyManual("PRIV", "Private", domain.AssetClassOther, d("1"), d("10"))
	require.NoError(t, err)

	n := tr.ApplyPrices([]domain.Instrument{
		domain.NewInstrument("AAPL", "Apple Inc.", domain.AssetClassStock, "", d("180")),
		domain.NewInstrument("MSFT", "Microsoft", domain.AssetClassStock, "", d("300")),
	})

	assert.Equal(t, 2, n)
	assert.True(t, a1.LivePrice().Equal(d("180")))
	assert.True(t, a2.LivePrice().Equal(d("180")))
	assert.True(t, manual.LivePrice().Equal(d("10")))
	assert.Len(t, a1.PriceHistory(), 2)

	assert.Zero(t, tr.ApplyPrices(nil))
}
