package domain

// CoinIdentity is the canonical CoinMarketCap identity of a token.
type CoinIdentity struct {
	ID     int    `json:"id"`
	Symbol string `json:"symbol"`
	Slug   string `json:"slug"`
	Name   string `json:"name"`
}

// TrendingEntry is one coin of a trending snapshot.
// JSON field names match the raw dataset returned alongside the heatmap.
type TrendingEntry struct {
	Price           float64 `json:"price"`
	Name            string  `json:"name"`
	Symbol          string  `json:"symbol"`
	PriceChange24h  float64 `json:"price_change"`
	VolumeChange24h float64 `json:"vol_change"`
}

// ChartArtifact is a rendered chart persisted on disk.
type ChartArtifact struct {
	ID   string `json:"id"`
	Path string `json:"path"`
	Link string `json:"link"`
}

// ChartKind names the two render paths.
type ChartKind string

const (
	ChartOHLCV   ChartKind = "ohlcv"
	ChartTreemap ChartKind = "treemap"
)

// DefaultTrendingLimit bounds a trending snapshot.
const DefaultTrendingLimit = 20
