// Package chart renders OHLCV candlestick charts and trending treemaps as SVG.
package chart

import (
	"fmt"
	"math"
	"strconv"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Config holds canvas and plot-area dimensions in pixels.
type Config struct {
	Width        int
	Height       int
	MarginTop    int
	MarginRight  int
	MarginBottom int
	MarginLeft   int
}

// DefaultConfig is the 1200x600 canvas used for every artifact.
func DefaultConfig() Config {
	return Config{
		Width:        1200,
		Height:       600,
		MarginTop:    100,
		MarginRight:  80,
		MarginBottom: 80,
		MarginLeft:   80,
	}
}

// plotArea returns the usable drawing area.
func (c Config) plotArea() (x, y, w, h float64) {
	return float64(c.MarginLeft), float64(c.MarginTop),
		float64(c.Width - c.MarginLeft - c.MarginRight),
		float64(c.Height - c.MarginTop - c.MarginBottom)
}

// Renderer produces SVG chart bytes.
type Renderer struct {
	tracer   trace.Tracer
	log      zerolog.Logger
	imageDir string
	cfg      Config
}

// NewRenderer creates a renderer. Coin logos are looked up in imageDir as <id>.png.
func NewRenderer(tracer trace.Tracer, logger zerolog.Logger, imageDir string) *Renderer {
	return &Renderer{
		tracer:   tracer,
		log:      logger,
		imageDir: imageDir,
		cfg:      DefaultConfig(),
	}
}

func px(v float64) int { return int(math.Round(v)) }

// tickLabel formats an axis value with an SI suffix.
func tickLabel(v float64) string {
	a := math.Abs(v)
	switch {
	case a >= 1e9:
		return trimFloat(v/1e9) + "G"
	case a >= 1e6:
		return trimFloat(v/1e6) + "M"
	case a >= 1e3:
		return trimFloat(v/1e3) + "k"
	case a == 0:
		return "0"
	}
	return strconv.FormatFloat(v, 'g', 4, 64)
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

func style(pairs ...string) string {
	var s string
	for i := 0; i+1 < len(pairs); i += 2 {
		s += fmt.Sprintf("%s:%s;", pairs[i], pairs[i+1])
	}
	return s
}
