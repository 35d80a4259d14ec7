package feed

import "cryptoalert/api"

var defaultAssets = []api.Asset{
	{Symbol: "BTC", Name: "Bitcoin", Price: 43250.00, Change24h: 2.45},
	{Symbol: "ETH", Name: "Ethereum", Price: 2580.50, Change24h: 1.85},
	{Symbol: "BNB", Name: "BNB", Price: 315.20, Change24h: -0.75},
	{Symbol: "SOL", Name: "Solana", Price: 98.40, Change24h: 4.12},
	{Symbol: "ADA", Name: "Cardano", Price: 0.52, Change24h: -1.20},
	{Symbol: "XRP", Name: "Ripple", Price: 0.61, Change24h: 0.95},
	{Symbol: "DOT", Name: "Polkadot", Price: 7.35, Change24h: -2.05},
	{Symbol: "DOGE", Name: "Dogecoin", Price: 0.085, Change24h: 3.30},
}

// DefaultAssets returns a fresh copy of the offline price list.
func DefaultAssets() []api.Asset {
	out := make([]api.Asset, len(defaultAssets))
	copy(out, defaultAssets)
	return out
}
