package domain

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustHolding(t *testing.T, symbol string, qty, price string) *Holding {
	t.Helper()
	h, err := NewHolding(symbol, symbol, d(qty), d(price), AssetClassStock)
	require.NoError(t, err)
	return h
}

func TestPortfolio_BuyValuation(t *testing.T) {
	p := NewPortfolio(d("100000000.00"))

	h := mustHolding(t, "AAPL", "10", "175.25")
	require.NoError(t, p.DeductCash(h.Quantity().Mul(h.LivePrice())))
	require.NoError(t, p.AddHolding(h))

	assert.True(t, p.CashBalance().Equal(d("99998247.50")), "got %s", p.CashBalance())
	assert.True(t, p.TotalValue().Equal(d("1752.50")), "got %s", p.TotalValue())
	assert.True(t, p.TotalAssetValue().Equal(d("100000000")), "got %s", p.TotalAssetValue())
	assert.True(t, p.ProfitLoss().IsZero(), "got %s", p.ProfitLoss())
	assert.True(t, p.ProfitLossPct().IsZero())
	assert.True(t, p.TotalInvested().Equal(d("1752.50")))
}

func TestPortfolio_NewStartsWithOneSnapshot(t *testing.T) {
	p := NewPortfolio(DefaultInitialCash)

	history := p.History()
	require.Len(t, history, 1)
	assert.True(t, history[0].CashBalance.Equal(DefaultInitialCash))
	assert.True(t, history[0].TotalHoldingsValue.IsZero())
}

func TestPortfolio_AddHoldingDuplicateIsNoop(t *testing.T) {
	p := NewPortfolio(d("1000"))
	h := mustHolding(t, "ACME", "1", "10")

	require.NoError(t, p.AddHolding(h))
	before := len(p.History())

	err := p.AddHolding(h)
	require.ErrorIs(t, err, ErrDuplicateHolding)
	assert.Len(t, p.Holdings(), 1)
	assert.Len(t, p.History(), before)
	assert.True(t, p.TotalInvested().Equal(d("10")))
}

func TestPortfolio_RemoveHolding(t *testing.T) {
	p := NewPortfolio(d("1000"))
	a := mustHolding(t, "AAA", "2", "10")
	b := mustHolding(t, "BBB", "1", "5")
	require.NoError(t, p.AddHolding(a))
	require.NoError(t, p.AddHolding(b))

	before := len(p.History())
	assert.False(t, p.RemoveHoldingByID("missing"))
	assert.False(t, p.RemoveHolding(nil))
	assert.Len(t, p.History(), before, "failed removal must not snapshot")

	assert.True(t, p.RemoveHolding(a))
	assert.Len(t, p.History(), before+1)
	_, found := p.FindHolding(a.ID())
	assert.False(t, found)
	assert.Equal(t, []*Holding{b}, p.Holdings())
	assert.True(t, p.TotalInvested().Equal(d("5")))
}

func TestPortfolio_ReduceHolding(t *testing.T) {
	p := NewPortfolio(d("1000"))
	h := mustHolding(t, "ACME", "10", "10")
	require.NoError(t, p.AddHolding(h))

	require.ErrorIs(t, p.ReduceHolding("missing", d("1")), ErrNotFound)
	require.ErrorIs(t, p.ReduceHolding(h.ID(), decimal.Zero), ErrInvalidQuantity)
	require.ErrorIs(t, p.ReduceHolding(h.ID(), d("10")), ErrInvalidQuantity)

	require.NoError(t, p.ReduceHolding(h.ID(), d("4")))
	assert.True(t, h.Quantity().Equal(d("6")))
	assert.True(t, p.TotalInvested().Equal(d("60")))
}

func TestPortfolio_DeductCash(t *testing.T) {
	t.Run("insufficient funds leaves state untouched", func(t *testing.T) {
		p := NewPortfolio(d("100"))
		before := len(p.History())

		err := p.DeductCash(d("100.01"))
		require.ErrorIs(t, err, ErrInsufficientFunds)
		assert.True(t, p.CashBalance().Equal(d("100")))
		assert.Len(t, p.History(), before)
	})

	t.Run("exact debit", func(t *testing.T) {
		p := NewPortfolio(d("100"))
		require.NoError(t, p.DeductCash(d("33.33")))
		assert.True(t, p.CashBalance().Equal(d("66.67")))
		require.NoError(t, p.DeductCash(d("66.67")))
		assert.True(t, p.CashBalance().IsZero())
	})

	t.Run("negative amount rejected", func(t *testing.T) {
		p := NewPortfolio(d("100"))
		require.ErrorIs(t, p.DeductCash(d("-1")), ErrInvalidAmount)
		assert.True(t, p.CashBalance().Equal(d("100")))
	})
}

func TestPortfolio_AddThenDeductRestoresBalance(t *testing.T) {
	p := NewPortfolio(d("12345.67"))
	amounts := []string{"0", "0.01", "1752.50", "99999999.99"}

	for _, a := range amounts {
		before := p.CashBalance()
		require.NoError(t, p.AddCash(d(a)))
		require.NoError(t, p.DeductCash(d(a)))
		assert.True(t, p.CashBalance().Equal(before), "amount %s", a)
	}

	require.ErrorIs(t, p.AddCash(d("-5")), ErrInvalidAmount)
}

func TestPortfolio_ResetIsIdempotent(t *testing.T) {
	p := NewPortfolio(d("5000"))
	require.NoError(t, p.AddHolding(mustHolding(t, "ACME", "3", "7")))
	require.NoError(t, p.DeductCash(d("21")))
	require.NoError(t, p.AddCash(d("100")))

	for i := 0; i < 2; i++ {
		p.Reset()

		assert.Empty(t, p.Holdings())
		assert.True(t, p.CashBalance().Equal(d("5000")))
		assert.True(t, p.TotalInvested().IsZero())
		history := p.History()
		require.Len(t, history, 1)
		assert.True(t, history[0].TotalAssetValue().Equal(d("5000")))
	}
}

func TestPortfolio_TotalValueMatchesIndependentSum(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	p := NewPortfolio(d("1000000"))
	var live []*Holding

	for step := 0; step < 200; step++ {
		if len(live) > 0 && rng.IntN(3) == 0 {
			idx := rng.IntN(len(live))
			require.True(t, p.RemoveHolding(live[idx]))
			live = append(live[:idx], live[idx+1:]...)
		} else {
			qty := decimal.NewFromInt(int64(rng.IntN(50) + 1))
			price := decimal.NewFromFloat(rng.Float64()*500 + 0.01).Round(2)
			h, err := NewHolding("SYM", "Sym", qty, price, AssetClassStock)
			require.NoError(t, err)
			require.NoError(t, p.AddHolding(h))
			live = append(live, h)
		}

		expected := decimal.Zero
		for _, h := range live {
			expected = expected.Add(h.CurrentValue())
		}
		require.True(t, p.TotalValue().Equal(expected), "step %d: got %s want %s", step, p.TotalValue(), expected)
	}
}

func TestPortfolio_SnapshotTimestampsNonDecreasing(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	times := []time.Time{base, base.Add(time.Second), base.Add(-time.Minute), base.Add(2 * time.Second)}
	i := 0
	clock := func() time.Time {
		ts := times[i%len(times)]
		i++
		return ts
	}

	p := NewPortfolio(d("100"), WithClock(clock))
	require.NoError(t, p.AddCash(d("1")))
	require.NoError(t, p.AddCash(d("1")))
	require.NoError(t, p.AddCash(d("1")))

	history := p.History()
	require.Len(t, history, 4)
	for j := 1; j < len(history); j++ {
		assert.False(t, history[j].Timestamp.Before(history[j-1].Timestamp))
	}
}

func TestPortfolio_SnapshotLimitAndObserver(t *testing.T) {
	var observed []Snapshot
	p := NewPortfolio(d("100"),
		WithSnapshotLimit(3),
		WithSnapshotObserver(func(s Snapshot) { observed = append(observed, s) }),
	)

	for i := 0; i < 5; i++ {
		require.NoError(t, p.AddCash(d("1")))
	}

	history := p.History()
	require.Len(t, history, 3)
	assert.True(t, history[2].CashBalance.Equal(d("105")))
	assert.Len(t, observed, 6)

	last, ok := p.LastSnapshot()
	require.True(t, ok)
	assert.Equal(t, history[2], last)
}

func TestRestorePortfolio(t *testing.T) {
	p := NewPortfolio(d("1000"))
	h := mustHolding(t, "ACME", "2", "50")
	require.NoError(t, p.DeductCash(d("100")))
	require.NoError(t, p.AddHolding(h))

	restored, err := RestorePortfolio(p.State())
	require.NoError(t, err)

	assert.True(t, restored.CashBalance().Equal(d("900")))
	assert.True(t, restored.InitialCash().Equal(d("1000")))
	assert.True(t, restored.TotalInvested().Equal(d("100")))
	assert.Len(t, restored.History(), len(p.History()))
	require.Len(t, restored.Holdings(), 1)
	assert.Equal(t, h.ID(), restored.Holdings()[0].ID())

	t.Run("duplicate ids rejected", func(t *testing.T) {
		_, err := RestorePortfolio(PortfolioState{InitialCash: d("1"), Cash: d("1"), Holdings: []*Holding{h, h}})
		require.ErrorIs(t, err, ErrDuplicateHolding)
	})

	t.Run("negative cash rejected", func(t *testing.T) {
		_, err := RestorePortfolio(PortfolioState{InitialCash: d("1"), Cash: d("-1")})
		require.Error(t, err)
	})
}
