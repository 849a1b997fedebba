package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot immutable valuation of a portfolio at a point in time.
type Snapshot struct {
	TotalHoldingsValue decimal.Decimal `json:"holdings_value"`
	CashBalance        decimal.Decimal `json:"cash"`
	Timestamp          time.Time       `json:"ts"`
}

// NewSnapshot creates a new Snapshot.
func NewSnapshot(holdingsValue, cash decimal.Decimal, ts time.Time) Snapshot {
	return Snapshot{
		TotalHoldingsValue: holdingsValue,
		CashBalance:        cash,
		Timestamp:          ts,
	}
}

// TotalAssetValue holdings value plus cash.
func (s Snapshot) TotalAssetValue() decimal.Decimal {
	return s.TotalHoldingsValue.Add(s.CashBalance)
}

// SnapshotRecord bundles a snapshot with its journal index.
type SnapshotRecord struct {
	Index    uint64
	Snapshot Snapshot
}
