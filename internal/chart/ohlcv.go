package chart

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"coinplot/internal/domain"

	svg "github.com/ajstarks/svgo"
	"go.opentelemetry.io/otel/attribute"
)

const (
	priceRowShare   = 0.7
	panelSpacing    = 0.08
	day             = 24 * time.Hour
	dateTickCount   = 7
	valueTickCount  = 5
	watermarkText   = "By WELLAIOS plot"
	increasingColor = "#3D9970"
	decreasingColor = "#FF4136"
	volumeColor     = "rgba(0,0,255,0.5)"
	gridColor       = "rgba(100,100,100,0.4)"
	titleColor      = "#2a3f5f"
)

// panel is a vertical slice of the plot area in paper coordinates (0 bottom, 1 top).
type panel struct {
	bottom, top float64
}

// RenderOHLCV draws a price candlestick panel over a volume panel sharing a
// date x-axis. A missing coin logo is logged and skipped.
func (r *Renderer) RenderOHLCV(ctx context.Context, coin domain.CoinIdentity, series []domain.QuotePoint) ([]byte, error) {
	_, span := r.tracer.Start(ctx, "chart.render-ohlcv")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", coin.Symbol), attribute.Int("points", len(series)))

	if len(series) == 0 {
		return nil, fmt.Errorf("render %s: empty series", coin.Symbol)
	}

	cfg := r.cfg
	x0, y0, w, h := cfg.plotArea()
	paperY := func(v float64) float64 { return y0 + (1-v)*h }

	domainTotal := 1 - panelSpacing
	volumePanel := panel{bottom: 0, top: domainTotal * (1 - priceRowShare)}
	pricePanel := panel{bottom: volumePanel.top + panelSpacing, top: 1}

	// Shared date axis with half a day of padding on each side.
	first := truncateDay(series[0].Timestamp)
	last := truncateDay(series[len(series)-1].Timestamp)
	start := first.Add(-day / 2)
	extent := last.Add(day / 2).Sub(start)
	dayWidth := w * float64(day) / float64(extent)
	dateX := func(t time.Time) float64 {
		return x0 + w*float64(truncateDay(t).Sub(start))/float64(extent)
	}
	barWidth := dayWidth * 0.7

	lo, hi := series[0].Low, series[0].High
	var maxVol float64
	for _, q := range series {
		lo = min(lo, q.Low)
		hi = max(hi, q.High)
		maxVol = max(maxVol, q.Volume)
	}
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = max(hi*0.05, 1e-9)
	}
	lo, hi = lo-pad, hi+pad
	if maxVol == 0 {
		maxVol = 1
	}
	maxVol *= 1.05

	priceY := func(v float64) float64 {
		return paperY(pricePanel.bottom + (v-lo)/(hi-lo)*(pricePanel.top-pricePanel.bottom))
	}
	volumeY := func(v float64) float64 {
		return paperY(volumePanel.bottom + v/maxVol*(volumePanel.top-volumePanel.bottom))
	}

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(cfg.Width, cfg.Height)
	canvas.Title(chartTitle(coin))
	canvas.Rect(0, 0, cfg.Width, cfg.Height, "fill:white")

	gridStyle := style("stroke", gridColor, "stroke-width", "0.5")
	tickStyle := style("font-family", "sans-serif", "font-size", "10px", "fill", "grey")

	// Horizontal gridlines and value ticks for both panels.
	for i := 0; i < valueTickCount; i++ {
		frac := float64(i) / float64(valueTickCount-1)

		pv := lo + frac*(hi-lo)
		y := px(priceY(pv))
		canvas.Line(px(x0), y, px(x0+w), y, gridStyle)
		canvas.Text(px(x0)-6, y+3, tickLabel(pv), tickStyle+"text-anchor:end")

		vv := frac * maxVol
		y = px(volumeY(vv))
		canvas.Line(px(x0), y, px(x0+w), y, gridStyle)
		canvas.Text(px(x0)-6, y+3, tickLabel(vv), tickStyle+"text-anchor:end")
	}

	// Vertical gridlines with date-only ticks under the volume panel.
	days := int(last.Sub(first)/day) + 1
	step := max(1, days/dateTickCount)
	for d := 0; d < days; d += step {
		t := first.Add(time.Duration(d) * day)
		x := px(dateX(t))
		canvas.Line(x, px(paperY(pricePanel.top)), x, px(paperY(pricePanel.bottom)), gridStyle)
		canvas.Line(x, px(paperY(volumePanel.top)), x, px(paperY(volumePanel.bottom)), gridStyle)
		canvas.Text(x, px(paperY(0))+16, t.Format("Jan 2"), tickStyle+"text-anchor:middle")
	}

	for _, q := range series {
		cx := dateX(q.Timestamp)

		color := increasingColor
		if q.Close < q.Open {
			color = decreasingColor
		}
		canvas.Line(px(cx), px(priceY(q.High)), px(cx), px(priceY(q.Low)), style("stroke", color, "stroke-width", "1"))

		top, bottom := priceY(max(q.Open, q.Close)), priceY(min(q.Open, q.Close))
		canvas.Rect(px(cx-barWidth/2), px(top), max(1, px(barWidth)), max(1, px(bottom-top)), style("fill", color, "stroke", color))

		vy := volumeY(q.Volume)
		canvas.Rect(px(cx-barWidth/2), px(vy), max(1, px(barWidth)), px(volumeY(0)-vy), style("fill", volumeColor))
	}

	canvas.Text(cfg.Width/2, 50, chartTitle(coin),
		style("font-family", "sans-serif", "font-size", "17px", "fill", titleColor, "text-anchor", "middle"))

	canvas.Text(px(x0+w), px(paperY(0.28)), watermarkText,
		style("font-family", "sans-serif", "font-size", "20px", "fill", "rgba(100,100,100,0.3)", "opacity", "0.5", "text-anchor", "end"))

	if logo, err := r.loadLogo(coin.ID); err != nil {
		r.log.Warn().Err(err).Int("coin_id", coin.ID).Msg("rendering chart without coin logo")
	} else {
		canvas.Image(px(x0+0.01*w), px(paperY(1.05)), px(0.08*w), px(0.08*h), logo)
	}

	canvas.End()
	return buf.Bytes(), nil
}

// loadLogo returns the coin logo as a PNG data URI.
func (r *Renderer) loadLogo(id int) (string, error) {
	path := filepath.Join(r.imageDir, fmt.Sprintf("%d.png", id))
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%s: %w", path, domain.ErrAssetMissing)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w: %v", path, domain.ErrAssetMissing, err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
}

func chartTitle(coin domain.CoinIdentity) string {
	return fmt.Sprintf("%s (%s) Price & Volume", coin.Name, strings.ToUpper(coin.Symbol))
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
