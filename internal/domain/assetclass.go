// Package domain defines the portfolio model: instruments, holdings, snapshots and the portfolio itself.
package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AssetClass category of a tradable instrument.
type AssetClass string

const (
	// AssetClassStock common stock.
	AssetClassStock AssetClass = "STOCK"
	// AssetClassBond government or corporate debt.
	AssetClassBond AssetClass = "BOND"
	// AssetClassETF exchange-traded fund.
	AssetClassETF AssetClass = "ETF"
	// AssetClassFund mutual fund.
	AssetClassFund AssetClass = "FUND"
	// AssetClassCrypto cryptocurrency.
	AssetClassCrypto AssetClass = "CRYPTO"
	// AssetClassOther anything not covered above.
	AssetClassOther AssetClass = "OTHER"
)

// VolatilityTier bounds the magnitude of a simulated price move per tick.
type VolatilityTier string

const (
	TierLow     VolatilityTier = "low"
	TierMedium  VolatilityTier = "medium"
	TierHigh    VolatilityTier = "high"
	TierExtreme VolatilityTier = "extreme"
)

// ClassProfile everything that depends on the asset class, kept in one place.
type ClassProfile struct {
	Label string
	// Color hex colour used by presentation layers.
	Color string
	Tier  VolatilityTier
	// SpeculativeGroups sub-groups promoted to TierExtreme.
	SpeculativeGroups []string
}

var classProfiles = map[AssetClass]ClassProfile{
	AssetClassStock:  {Label: "Stock", Color: "#4C78A8", Tier: TierMedium},
	AssetClassBond:   {Label: "Bond", Color: "#72B7B2", Tier: TierMedium},
	AssetClassETF:    {Label: "ETF", Color: "#54A24B", Tier: TierLow},
	AssetClassFund:   {Label: "Fund", Color: "#EECA3B", Tier: TierLow},
	AssetClassCrypto: {Label: "Crypto", Color: "#F58518", Tier: TierHigh, SpeculativeGroups: []string{"Meme"}},
	AssetClassOther:  {Label: "Other", Color: "#9D755D", Tier: TierMedium},
}

// AssetClasses returns every supported class in display order.
func AssetClasses() []AssetClass {
	return []AssetClass{
		AssetClassStock, AssetClassBond, AssetClassETF,
		AssetClassFund, AssetClassCrypto, AssetClassOther,
	}
}

// ParseAssetClass parses a class name case-insensitively.
func ParseAssetClass(s string) (AssetClass, bool) {
	c := AssetClass(strings.ToUpper(strings.TrimSpace(s)))
	return c, c.IsValid()
}

// String returns the string representation.
func (c AssetClass) String() string {
	return string(c)
}

// IsValid checks if the AssetClass value is valid.
func (c AssetClass) IsValid() bool {
	_, ok := classProfiles[c]
	return ok
}

// Profile returns the lookup entry for the class; unknown classes get the OTHER profile.
func (c AssetClass) Profile() ClassProfile {
	if p, ok := classProfiles[c]; ok {
		return p
	}
	return classProfiles[AssetClassOther]
}

// Tier resolves the volatility tier of an instrument in the given sub-group.
func (c AssetClass) Tier(group string) VolatilityTier {
	p := c.Profile()
	for _, g := range p.SpeculativeGroups {
		if strings.EqualFold(g, group) {
			return TierExtreme
		}
	}
	return p.Tier
}

// VolatilityTable maps a tier to its maximum percent move per tick.
type VolatilityTable map[VolatilityTier]decimal.Decimal

// DefaultVolatility returns the stock percent bounds per tier.
func DefaultVolatility() VolatilityTable {
	return VolatilityTable{
		TierLow:     decimal.RequireFromString("1.5"),
		TierMedium:  decimal.RequireFromString("2.5"),
		TierHigh:    decimal.RequireFromString("7.5"),
		TierExtreme: decimal.NewFromInt(25),
	}
}

// Percent returns the bound for the tier, falling back to the default table.
func (t VolatilityTable) Percent(tier VolatilityTier) decimal.Decimal {
	if v, ok := t[tier]; ok {
		return v
	}
	return DefaultVolatility()[tier]
}
