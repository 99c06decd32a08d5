package service

import (
	"errors"
	"fmt"
	"strings"

	"coinplot/internal/domain"
	"coinplot/internal/encode"
)

// PriceChartMessage formats the result of a price chart request. Every
// outcome, including failures, is a plain sentence.
func PriceChartMessage(query string, art *domain.ChartArtifact, err error) string {
	if err == nil {
		return generatedAt(art)
	}

	var upstream *domain.UpstreamError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fmt.Sprintf("Token %s not found. Please provide a valid cryptocurrency symbol or slug.", query)
	case errors.As(err, &upstream) && upstream.Op == domain.OpLatest:
		return fmt.Sprintf("An unexpected error occurred during latest data processing for %s: %v", query, err)
	case errors.As(err, &upstream):
		return fmt.Sprintf("An unexpected error occurred during historical data processing for %s: %v", query, err)
	case errors.Is(err, domain.ErrArtifactIO):
		return savingFailed(err)
	}
	return fmt.Sprintf("An unexpected error occurred while generating the chart for %s: %v", query, err)
}

// HeatmapMessage formats the result of a trending heatmap request. On
// success the raw snapshot follows the link as a JSON array of records.
func HeatmapMessage(res *HeatmapResult, err error) string {
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrArtifactIO):
		return savingFailed(err)
	case errors.Is(err, domain.ErrUpstream):
		return fmt.Sprintf("An unexpected error occurred during heatmap data retrieval: %v", err)
	default:
		return fmt.Sprintf("An unexpected error occurred while generating the heatmap: %v", err)
	}

	return fmt.Sprintf("%s\nRaw data is %s", generatedAt(res.Artifact), RawDataset(res.Entries))
}

// RawDataset renders entries as a JSON array with ", " and ": " separators,
// floats always carrying a decimal point and non-ASCII text escaped.
func RawDataset(entries []domain.TrendingEntry) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, e := range entries {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, `{"price": %s, "name": %s, "symbol": %s, "price_change": %s, "vol_change": %s}`,
			encode.ReprFloat(e.Price),
			encode.ReprString(e.Name),
			encode.ReprString(e.Symbol),
			encode.ReprFloat(e.PriceChange24h),
			encode.ReprFloat(e.VolumeChange24h),
		)
	}
	b.WriteByte(']')
	return b.String()
}

func generatedAt(art *domain.ChartArtifact) string {
	return "Chart generated at " + art.Link
}

func savingFailed(err error) string {
	return fmt.Sprintf("An unexpected error occurred while saving the chart: %v", err)
}
