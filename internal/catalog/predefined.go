package catalog

import (
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/investtrack/internal/domain"
)

func listing(symbol, name, price string, class domain.AssetClass, group string) domain.Instrument {
	return domain.NewInstrument(symbol, name, class, group, decimal.RequireFromString(price))
}

// Predefined returns the built-in instrument list: stocks, crypto, funds and ETFs.
func Predefined() []domain.Instrument {
	out := make([]domain.Instrument, 0, len(stocks)+len(crypto)+len(funds)+len(etfs))
	out = append(out, stocks...)
	out = append(out, crypto...)
	out = append(out, funds...)
	out = append(out, etfs...)
	return out
}

var stocks = []domain.Instrument{
	listing("AAPL", "Apple Inc.", "175.25", domain.AssetClassStock, "US Tech"),
	listing("MSFT", "Microsoft Corporation", "348.10", domain.AssetClassStock, "US Tech"),
	listing("GOOGL", "Alphabet Inc.", "151.32", domain.AssetClassStock, "US Tech"),
	listing("AMZN", "Amazon.com Inc.", "145.86", domain.AssetClassStock, "US Tech"),
	listing("META", "Meta Platforms Inc.", "425.90", domain.AssetClassStock, "US Tech"),
	listing("TSLA", "Tesla Inc.", "194.05", domain.AssetClassStock, "US Tech"),
	listing("NVDA", "NVIDIA Corporation", "875.28", domain.AssetClassStock, "US Tech"),
	listing("INTC", "Intel Corporation", "35.22", domain.AssetClassStock, "US Tech"),
	listing("AMD", "Advanced Micro Devices", "158.76", domain.AssetClassStock, "US Tech"),
	listing("CRM", "Salesforce Inc.", "275.50", domain.AssetClassStock, "US Tech"),
	listing("JPM", "JPMorgan Chase & Co.", "197.60", domain.AssetClassStock, "US Financial"),
	listing("BAC", "Bank of America Corp", "38.25", domain.AssetClassStock, "US Financial"),
	listing("WFC", "Wells Fargo & Co", "57.80", domain.AssetClassStock, "US Financial"),
	listing("GS", "Goldman Sachs Group Inc", "456.72", domain.AssetClassStock, "US Financial"),
	listing("MS", "Morgan Stanley", "98.35", domain.AssetClassStock, "US Financial"),
	listing("JNJ", "Johnson & Johnson", "147.62", domain.AssetClassStock, "US Healthcare"),
	listing("PFE", "Pfizer Inc.", "28.15", domain.AssetClassStock, "US Healthcare"),
	listing("MRK", "Merck & Co Inc.", "125.40", domain.AssetClassStock, "US Healthcare"),
	listing("ABBV", "AbbVie Inc.", "185.27", domain.AssetClassStock, "US Healthcare"),
	listing("UNH", "UnitedHealth Group Inc.", "520.15", domain.AssetClassStock, "US Healthcare"),
	listing("NESN.SW", "Nestlé SA", "95.14", domain.AssetClassStock, "European"),
	listing("ASML.AS", "ASML Holding", "878.30", domain.AssetClassStock, "European"),
	listing("BAYN.DE", "Bayer AG", "27.89", domain.AssetClassStock, "European"),
	listing("MC.PA", "LVMH", "725.60", domain.AssetClassStock, "European"),
	listing("SAN.MC", "Banco Santander", "4.38", domain.AssetClassStock, "European"),
	listing("9988.HK", "Alibaba Group", "87.20", domain.AssetClassStock, "Asian"),
	listing("9984.T", "SoftBank Group", "8450.00", domain.AssetClassStock, "Asian"),
	listing("005930.KS", "Samsung Electronics", "65700.00", domain.AssetClassStock, "Asian"),
	listing("7203.T", "Toyota Motor", "2576.00", domain.AssetClassStock, "Asian"),
	listing("000660.KS", "SK Hynix", "178000.00", domain.AssetClassStock, "Asian"),
	listing("V", "Visa Inc.", "274.45", domain.AssetClassStock, "Payment"),
	listing("MA", "Mastercard Inc.", "454.75", domain.AssetClassStock, "Payment"),
	listing("PYPL", "PayPal Holdings Inc.", "64.20", domain.AssetClassStock, "Payment"),
	listing("AXP", "American Express Co.", "235.40", domain.AssetClassStock, "Payment"),
}

var crypto = []domain.Instrument{
	listing("BTC", "Bitcoin", "68450.75", domain.AssetClassCrypto, "Major"),
	listing("ETH", "Ethereum", "3580.25", domain.AssetClassCrypto, "Major"),
	listing("BNB", "Binance Coin", "580.35", domain.AssetClassCrypto, "Major"),
	listing("SOL", "Solana", "157.45", domain.AssetClassCrypto, "Major"),
	listing("XRP", "Ripple", "0.55", domain.AssetClassCrypto, "Major"),
	listing("UNI", "Uniswap", "9.75", domain.AssetClassCrypto, "DeFi"),
	listing("AAVE", "Aave", "95.35", domain.AssetClassCrypto, "DeFi"),
	listing("MKR", "Maker", "1960.25", domain.AssetClassCrypto, "DeFi"),
	listing("COMP", "Compound", "53.42", domain.AssetClassCrypto, "DeFi"),
	listing("CRV", "Curve DAO Token", "0.57", domain.AssetClassCrypto, "DeFi"),
	listing("ADA", "Cardano", "0.45", domain.AssetClassCrypto, "Alt Coins"),
	listing("DOT", "Polkadot", "6.85", domain.AssetClassCrypto, "Alt Coins"),
	listing("AVAX", "Avalanche", "32.50", domain.AssetClassCrypto, "Alt Coins"),
	listing("MATIC", "Polygon", "0.68", domain.AssetClassCrypto, "Alt Coins"),
	listing("LINK", "Chainlink", "13.75", domain.AssetClassCrypto, "Alt Coins"),
	listing("DOGE", "Dogecoin", "0.12", domain.AssetClassCrypto, "Meme"),
	listing("SHIB", "Shiba Inu", "0.000018", domain.AssetClassCrypto, "Meme"),
	listing("PEPE", "Pepe", "0.0000097", domain.AssetClassCrypto, "Meme"),
	listing("FLOKI", "Floki Inu", "0.00016", domain.AssetClassCrypto, "Meme"),
	listing("BONK", "Bonk", "0.0000281", domain.AssetClassCrypto, "Meme"),
}

var funds = []domain.Instrument{
	listing("VTSAX", "Vanguard Total Stock Market Index", "125.45", domain.AssetClassFund, "US Index"),
	listing("VFIAX", "Vanguard 500 Index Fund", "475.80", domain.AssetClassFund, "US Index"),
	listing("FXAIX", "Fidelity 500 Index Fund", "173.50", domain.AssetClassFund, "US Index"),
	listing("VTIAX", "Vanguard Total International Stock Index", "32.65", domain.AssetClassFund, "International"),
	listing("FSMAX", "Fidelity Extended Market Index", "75.85", domain.AssetClassFund, "US Index"),
	listing("VBTLX", "Vanguard Total Bond Market Index", "10.45", domain.AssetClassFund, "Bonds"),
	listing("PTTRX", "PIMCO Total Return Fund", "10.15", domain.AssetClassFund, "Bonds"),
	listing("VWEHX", "Vanguard High-Yield Corporate", "5.35", domain.AssetClassFund, "Bonds"),
	listing("VGSLX", "Vanguard Real Estate Index", "120.35", domain.AssetClassFund, "Real Estate"),
	listing("FDIVX", "Fidelity Diversified International Fund", "45.35", domain.AssetClassFund, "International"),
	listing("VGHCX", "Vanguard Health Care Fund", "237.42", domain.AssetClassFund, "Sector"),
	listing("VWUSX", "Vanguard U.S. Growth Fund", "152.67", domain.AssetClassFund, "Growth"),
	listing("VWNFX", "Vanguard Windsor Fund", "78.35", domain.AssetClassFund, "Value"),
	listing("DODGX", "Dodge & Cox Stock Fund", "245.65", domain.AssetClassFund, "Value"),
	listing("TRBCX", "T. Rowe Price Blue Chip Growth Fund", "169.75", domain.AssetClassFund, "Growth"),
}

var etfs = []domain.Instrument{
	listing("SPY", "SPDR S&P 500 ETF Trust", "478.25", domain.AssetClassETF, "US Market"),
	listing("VOO", "Vanguard S&P 500 ETF", "475.85", domain.AssetClassETF, "US Market"),
	listing("VTI", "Vanguard Total Stock Market ETF", "245.35", domain.AssetClassETF, "US Market"),
	listing("IVV", "iShares Core S&P 500 ETF", "475.85", domain.AssetClassETF, "US Market"),
	listing("QQQ", "Invesco QQQ Trust", "425.65", domain.AssetClassETF, "US Tech"),
	listing("VEA", "Vanguard FTSE Developed Markets ETF", "48.65", domain.AssetClassETF, "International"),
	listing("VWO", "Vanguard FTSE Emerging Markets ETF", "42.30", domain.AssetClassETF, "International"),
	listing("IEFA", "iShares Core MSCI EAFE ETF", "72.50", domain.AssetClassETF, "International"),
	listing("IEMG", "iShares Core MSCI Emerging Markets ETF", "52.35", domain.AssetClassETF, "International"),
	listing("EFA", "iShares MSCI EAFE ETF", "78.45", domain.AssetClassETF, "International"),
	listing("AGG", "iShares Core U.S. Aggregate Bond ETF", "98.75", domain.AssetClassETF, "Bonds"),
	listing("BND", "Vanguard Total Bond Market ETF", "72.56", domain.AssetClassETF, "Bonds"),
	listing("LQD", "iShares iBoxx $ Investment Grade Corp Bond ETF", "108.45", domain.AssetClassETF, "Bonds"),
	listing("XLF", "Financial Select Sector SPDR Fund", "39.75", domain.AssetClassETF, "Sector"),
	listing("XLK", "Technology Select Sector SPDR Fund", "195.65", domain.AssetClassETF, "Sector"),
	listing("XLE", "Energy Select Sector SPDR Fund", "86.35", domain.AssetClassETF, "Sector"),
	listing("XLV", "Health Care Select Sector SPDR Fund", "133.45", domain.AssetClassETF, "Sector"),
	listing("XLY", "Consumer Discretionary Select SPDR Fund", "175.36", domain.AssetClassETF, "Sector"),
	listing("ARKK", "ARK Innovation ETF", "48.75", domain.AssetClassETF, "Specialized"),
	listing("ICLN", "iShares Global Clean Energy ETF", "16.85", domain.AssetClassETF, "Specialized"),
	listing("REET", "iShares Global REIT ETF", "23.65", domain.AssetClassETF, "Real Estate"),
	listing("VNQ", "Vanguard Real Estate ETF", "84.35", domain.AssetClassETF, "Real Estate"),
	listing("GLD", "SPDR Gold Shares", "194.65", domain.AssetClassETF, "Commodities"),
	listing("SLV", "iShares Silver Trust", "25.45", domain.AssetClassETF, "Commodities"),
}
