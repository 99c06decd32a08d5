// Package encode derives treemap rendering parameters (block size, color and
// adaptive label) from a batch of trending market statistics.
//
// All functions are pure: the same batch always yields the same encoding.
package encode

import (
	"fmt"
	"math"
	"strconv"

	"coinplot/internal/domain"

	"gonum.org/v1/gonum/floats"
)

const (
	// MinSize and MaxSize bound a block's size so no block vanishes and no
	// outlier dominates the layout.
	MinSize = 1.0
	MaxSize = 2000.0

	// Fraction thresholds selecting the label tier.
	SmallFraction  = 0.01
	MediumFraction = 0.02

	minFontScale = 0.5
	// neutralChange is the absolute 24h price change below which a block is grey.
	neutralChange = 1.0
	// changeFloor replaces the batch extreme when no entry moved beyond neutralChange.
	changeFloor = 2.0
)

// Neutral is the color of blocks whose price barely moved.
var Neutral = Color{R: 100, G: 100, B: 100}

// Color is an RGB block color.
type Color struct {
	R, G, B uint8
}

func (c Color) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
}

// Tier identifies which label format a block uses.
type Tier int

const (
	TierSymbol Tier = iota
	TierChange
	TierFull
)

// Label is the adaptive text drawn inside a treemap block.
type Label struct {
	Tier   Tier
	Symbol string
	// Scale is the relative font size of the symbol line in em units.
	// It is zero for TierSymbol.
	Scale float64
	// Detail is the second line: the change text for TierChange, the price
	// line for TierFull, empty for TierSymbol.
	Detail string
}

// Markup renders the label as the inline HTML used by the chart tool output.
func (l Label) Markup() string {
	if l.Tier == TierSymbol {
		return l.Symbol
	}
	return fmt.Sprintf("<span style='font-size: %sem;'>%s</span><br />%s",
		ReprFloat(l.Scale), l.Symbol, l.Detail)
}

// Block is the full encoding of one trending entry.
type Block struct {
	Entry    domain.TrendingEntry
	Size     float64
	Fraction float64
	Label    Label
	Color    Color
}

// Size clamps the magnitude of a 24h volume change into [MinSize, MaxSize].
func Size(volumeChange float64) float64 {
	v := math.Abs(volumeChange)
	switch {
	case v < MinSize:
		return MinSize
	case v > MaxSize:
		return MaxSize
	}
	return v
}

// Fractions returns each size divided by the total of all sizes.
func Fractions(sizes []float64) []float64 {
	out := make([]float64, len(sizes))
	total := floats.Sum(sizes)
	if total == 0 {
		return out
	}
	for i, s := range sizes {
		out[i] = s / total
	}
	return out
}

// FontScale grows logarithmically with fraction and never drops below 0.5em.
func FontScale(fraction float64) float64 {
	return math.Max(minFontScale, math.Log(fraction/SmallFraction)+1)
}

// ChangeText formats a percent change with an explicit sign, or "--" when flat.
func ChangeText(change float64) string {
	switch {
	case change > 0:
		return fmt.Sprintf("+%.2f%%", change)
	case change < 0:
		return fmt.Sprintf("%.2f%%", change)
	}
	return "--"
}

// PriceText uses 4 significant digits below 1 and 2 decimals otherwise.
func PriceText(price float64) string {
	if price < 1 {
		return strconv.FormatFloat(price, 'g', 4, 64)
	}
	return strconv.FormatFloat(price, 'f', 2, 64)
}

// NewLabel picks the label tier for a block of the given size fraction.
func NewLabel(symbol string, price, change, fraction float64) Label {
	if fraction < SmallFraction {
		return Label{Tier: TierSymbol, Symbol: symbol}
	}
	scale := FontScale(fraction)
	if fraction < MediumFraction {
		return Label{Tier: TierChange, Symbol: symbol, Scale: scale, Detail: ChangeText(change)}
	}
	line := "--"
	if change != 0 {
		line = fmt.Sprintf("%s (%s)", PriceText(price), ChangeText(change))
	}
	return Label{Tier: TierFull, Symbol: symbol, Scale: scale, Detail: line}
}

// ColorScale is the log of the largest price move in either direction,
// floored at ln(2), computed once per batch.
func ColorScale(changes []float64) float64 {
	maxPos, maxNeg := changeFloor, changeFloor
	if len(changes) > 0 {
		if hi := floats.Max(changes); hi > neutralChange {
			maxPos = hi
		}
		if lo := floats.Min(changes); lo < -neutralChange {
			maxNeg = -lo
		}
	}
	return math.Max(math.Log(maxPos), math.Log(maxNeg))
}

// BlockColor shades green for gains and red for losses beyond ±1%, darker
// as the move approaches the batch extreme. scale comes from ColorScale.
func BlockColor(change, scale float64) Color {
	switch {
	case change > neutralChange:
		return Color{G: channel(change, scale)}
	case change < -neutralChange:
		return Color{R: channel(-change, scale)}
	}
	return Neutral
}

func channel(magnitude, scale float64) uint8 {
	intensity := 0.2 + 0.6*(1-math.Log(magnitude)/scale)
	return uint8(int(intensity * 255))
}

// Encode computes the block encoding of every entry in the batch.
func Encode(entries []domain.TrendingEntry) []Block {
	if len(entries) == 0 {
		return nil
	}

	sizes := make([]float64, len(entries))
	changes := make([]float64, len(entries))
	for i, e := range entries {
		sizes[i] = Size(e.VolumeChange24h)
		changes[i] = e.PriceChange24h
	}
	fractions := Fractions(sizes)
	scale := ColorScale(changes)

	blocks := make([]Block, len(entries))
	for i, e := range entries {
		blocks[i] = Block{
			Entry:    e,
			Size:     sizes[i],
			Fraction: fractions[i],
			Label:    NewLabel(e.Symbol, e.Price, e.PriceChange24h, fractions[i]),
			Color:    BlockColor(e.PriceChange24h, scale),
		}
	}
	return blocks
}
