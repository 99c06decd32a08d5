package domain

import "time"

// QuotePoint is a single OHLCV observation for a coin.
type QuotePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// MergeSeries appends the latest observation to the historical series.
// A historical point at exactly the same instant is replaced by latest so
// timestamps stay unique. All timestamps are normalized to UTC.
func MergeSeries(historical []QuotePoint, latest QuotePoint) []QuotePoint {
	out := make([]QuotePoint, 0, len(historical)+1)
	latest.Timestamp = latest.Timestamp.UTC()
	for _, q := range historical {
		q.Timestamp = q.Timestamp.UTC()
		if q.Timestamp.Equal(latest.Timestamp) {
			continue
		}
		out = append(out, q)
	}
	return append(out, latest)
}
