package chart

import (
	"bytes"
	"context"
	"strconv"

	"coinplot/internal/encode"

	svg "github.com/ajstarks/svgo"
	"go.opentelemetry.io/otel/attribute"
)

const (
	cornerRadius  = 5
	labelFontSize = 12.0
	// minLabelSide hides text in blocks too small to hold it.
	minLabelSide = 14.0
)

// RenderTreemap draws one block per encoded entry over the whole canvas with
// no margins. Block area follows Size, fill follows Color and the text is the
// block's adaptive label.
func (r *Renderer) RenderTreemap(ctx context.Context, blocks []encode.Block) ([]byte, error) {
	_, span := r.tracer.Start(ctx, "chart.render-treemap")
	defer span.End()
	span.SetAttributes(attribute.Int("blocks", len(blocks)))

	cfg := r.cfg
	sizes := make([]float64, len(blocks))
	for i, b := range blocks {
		sizes[i] = b.Size
	}
	rects := squarify(sizes, rect{W: float64(cfg.Width), H: float64(cfg.Height)})

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(cfg.Width, cfg.Height)
	canvas.Rect(0, 0, cfg.Width, cfg.Height, "fill:white")
	canvas.Gstyle(style("font-family", "sans-serif", "font-size", strconv.Itoa(int(labelFontSize))+"px"))

	for i, b := range blocks {
		rc := rects[i]
		x, y := px(rc.X), px(rc.Y)
		w, h := px(rc.X+rc.W)-x, px(rc.Y+rc.H)-y
		if w <= 0 || h <= 0 {
			continue
		}
		canvas.Roundrect(x, y, w, h, cornerRadius, cornerRadius,
			style("fill", b.Color.String(), "stroke", "white", "stroke-width", "1"))

		if rc.W < minLabelSide || rc.H < minLabelSide {
			continue
		}
		drawLabel(canvas, rc, b.Label)
	}

	canvas.Gend()
	canvas.End()
	return buf.Bytes(), nil
}

// drawLabel centers the label lines inside rc.
func drawLabel(canvas *svg.SVG, rc rect, l encode.Label) {
	cx := px(rc.X + rc.W/2)
	cy := rc.Y + rc.H/2
	textStyle := style("fill", "white", "text-anchor", "middle")

	if l.Tier == encode.TierSymbol {
		canvas.Text(cx, px(cy+labelFontSize*0.35), l.Symbol, textStyle)
		return
	}

	symbolPx := labelFontSize * l.Scale
	total := symbolPx + labelFontSize*1.2
	top := cy - total/2
	canvas.Text(cx, px(top+symbolPx*0.85), l.Symbol,
		textStyle+"font-size:"+strconv.FormatFloat(l.Scale, 'f', 3, 64)+"em")
	canvas.Text(cx, px(top+symbolPx+labelFontSize), l.Detail, textStyle)
}
