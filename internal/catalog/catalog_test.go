package catalog

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/investtrack/internal/domain"
)

func TestNewDefault(t *testing.T) {
	c := NewDefault()

	assert.Equal(t, 93, c.Len())
	assert.Len(t, c.ByClass(domain.AssetClassCrypto), 20)
	assert.Len(t, c.ByClassAndGroup(domain.AssetClassCrypto, "Meme"), 5)
	assert.Empty(t, c.ByClass(domain.AssetClassBond))

	btc, ok := c.Lookup("BTC")
	require.True(t, ok)
	assert.Equal(t, "Bitcoin", btc.Name)
	assert.True(t, btc.Price.Equal(decimal.RequireFromString("68450.75")))
	assert.Equal(t, domain.TierHigh, btc.Tier())

	doge, ok := c.Lookup("DOGE")
	require.True(t, ok)
	assert.Equal(t, domain.TierExtreme, doge.Tier())

	spy, ok := c.Lookup("SPY")
	require.True(t, ok)
	assert.Equal(t, domain.TierLow, spy.Tier())
}

func TestNew_Validation(t *testing.T) {
	one := decimal.NewFromInt(1)

	tests := []struct {
		name        string
		instruments []domain.Instrument
	}{
		{
			name: "duplicate symbol",
			instruments: []domain.Instrument{
				domain.NewInstrument("A", "A", domain.AssetClassStock, "", one),
				domain.NewInstrument("A", "A again", domain.AssetClassStock, "", one),
			},
		},
		{
			name:        "non positive price",
			instruments: []domain.Instrument{domain.NewInstrument("A", "A", domain.AssetClassStock, "", decimal.Zero)},
		},
		{
			name:        "empty symbol",
			instruments: []domain.Instrument{domain.NewInstrument(" ", "A", domain.AssetClassStock, "", one)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.instruments)
			require.Error(t, err)
		})
	}
}

func TestGroups_SortedAndDistinct(t *testing.T) {
	c := NewDefault()

	assert.Equal(t, []string{"Alt Coins", "DeFi", "Major", "Meme"}, c.Groups(domain.AssetClassCrypto))
	assert.Equal(t, []string{"Bonds", "Growth", "International", "Real Estate", "Sector", "US Index", "Value"}, c.Groups(domain.AssetClassFund))
	assert.Empty(t, c.Groups(domain.AssetClassOther))
}

func TestCreateHolding(t *testing.T) {
	c := NewDefault()
	before := c.All()

	h, err := c.CreateHolding("AAPL", decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.Equal(t, "AAPL", h.Symbol())
	assert.Equal(t, "Apple Inc.", h.Name())
	assert.Equal(t, domain.AssetClassStock, h.Class())
	assert.True(t, h.LivePrice().Equal(decimal.RequireFromString("175.25")))
	assert.True(t, h.PurchasePrice().Equal(h.LivePrice()))

	_, err = c.CreateHolding("NOPE", decimal.NewFromInt(1))
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = c.CreateHolding("AAPL", decimal.Zero)
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)

	assert.Equal(t, before, c.All(), "catalog must not change")
}

func TestAll_ReturnsCopy(t *testing.T) {
	c := NewDefault()

	all := c.All()
	all[0].Price = decimal.NewFromInt(999999)

	first := c.All()[0]
	assert.False(t, first.Price.Equal(decimal.NewFromInt(999999)))
}

func TestPublish_ObservedAtomically(t *testing.T) {
	mk := func(price int64) []domain.Instrument {
		p := decimal.NewFromInt(price)
		return []domain.Instrument{
			domain.NewInstrument("A", "A", domain.AssetClassStock, "", p),
			domain.NewInstrument("B", "B", domain.AssetClassStock, "", p),
			domain.NewInstrument("C", "C", domain.AssetClassStock, "", p),
		}
	}

	c, err := New(mk(1))
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := int64(2); i < 500; i++ {
			assert.NoError(t, c.Publish(mk(i)))
		}
	}()

	for i := 0; i < 500; i++ {
		all := c.All()
		require.Len(t, all, 3)
		assert.True(t, all[0].Price.Equal(all[1].Price) && all[1].Price.Equal(all[2].Price),
			"mixed state observed: %s %s %s", all[0].Price, all[1].Price, all[2].Price)
	}
	wg.Wait()

	a, ok := c.Lookup("A")
	require.True(t, ok)
	assert.True(t, a.Price.Equal(decimal.NewFromInt(499)))

	require.Error(t, c.Publish(mk(0)))
	assert.Equal(t, 3, c.Len())
}
