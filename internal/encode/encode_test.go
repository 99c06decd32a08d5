package encode

import (
	"math"
	"strings"
	"testing"

	"coinplot/internal/domain"

	"github.com/peterldowns/testy/assert"
)

func TestSizeBoundedAndMonotonic(t *testing.T) {
	for _, v := range []float64{0, 0.1, -0.5, 1, 17, -250, 1999.9, 2000, 2001, -5000, 1e9} {
		s := Size(v)
		assert.True(t, s >= MinSize && s <= MaxSize)
	}
	assert.Equal(t, Size(0.1), 1.0)
	assert.Equal(t, Size(-5000), 2000.0)
	assert.Equal(t, Size(-42.5), 42.5)

	prev := Size(1)
	for v := 1.5; v <= 2000; v += 13.7 {
		cur := Size(v)
		assert.GreaterThan(t, cur, prev)
		prev = cur
	}
}

func TestFractionsSumToOne(t *testing.T) {
	fr := Fractions([]float64{1, 3, 6})
	assert.Equal(t, fr[0], 0.1)
	assert.Equal(t, fr[2], 0.6)
	assert.True(t, math.Abs(fr[0]+fr[1]+fr[2]-1) < 1e-12)

	assert.Equal(t, len(Fractions(nil)), 0)
}

func TestChangeText(t *testing.T) {
	assert.Equal(t, ChangeText(2.345), "+2.35%")
	assert.Equal(t, ChangeText(-3.1), "-3.10%")
	assert.Equal(t, ChangeText(0), "--")
}

func TestPriceText(t *testing.T) {
	assert.Equal(t, PriceText(97000.456), "97000.46")
	assert.Equal(t, PriceText(1), "1.00")
	assert.Equal(t, PriceText(0.5), "0.5")
	assert.Equal(t, PriceText(0.012346), "0.01235")
	assert.Equal(t, PriceText(0.00001234), "1.234e-05")
}

func TestFontScale(t *testing.T) {
	assert.Equal(t, FontScale(0.01), 1.0)
	assert.Equal(t, FontScale(0.001), 0.5)
	assert.True(t, math.Abs(FontScale(0.1)-(math.Log(10)+1)) < 1e-12)
}

func TestLabelTiers(t *testing.T) {
	tests := []struct {
		name     string
		fraction float64
		change   float64
		tier     Tier
		detail   string
	}{
		{"tiny block", 0.0099, 5, TierSymbol, ""},
		{"lower bound of change tier", 0.01, 5, TierChange, "+5.00%"},
		{"upper change tier", 0.0199, -2, TierChange, "-2.00%"},
		{"lower bound of full tier", 0.02, 5, TierFull, "1.50 (+5.00%)"},
		{"full tier flat price", 0.3, 0, TierFull, "--"},
		{"change tier flat price", 0.015, 0, TierChange, "--"},
	}
	for _, test := range tests {
		l := NewLabel("ABC", 1.5, test.change, test.fraction)
		if l.Tier != test.tier {
			t.Fatalf("%s: expected tier %d, got %d", test.name, test.tier, l.Tier)
		}
		if l.Detail != test.detail {
			t.Fatalf("%s: expected detail %q, got %q", test.name, test.detail, l.Detail)
		}
		if l.Tier == TierSymbol && l.Markup() != "ABC" {
			t.Fatalf("%s: expected bare symbol, got %q", test.name, l.Markup())
		}
	}
}

func TestLabelMarkup(t *testing.T) {
	l := NewLabel("ETH", 3000, 2.5, 0.01)
	assert.Equal(t, l.Markup(), "<span style='font-size: 1.0em;'>ETH</span><br />+2.50%")

	l = NewLabel("SOL", 150, 0, 0.005)
	assert.Equal(t, l.Markup(), "SOL")

	l = NewLabel("XRP", 2, 1.25, 0.1)
	m := l.Markup()
	assert.True(t, strings.HasPrefix(m, "<span style='font-size: 3.30258509299404"))
	assert.True(t, strings.HasSuffix(m, "em;'>XRP</span><br />2.00 (+1.25%)"))

	l = NewLabel("PEPE", 0.0000123, -8.1, 0.05)
	assert.Equal(t, l.Detail, "1.23e-05 (-8.10%)")
}

func TestNeutralBatchIsGrey(t *testing.T) {
	entries := []domain.TrendingEntry{
		{Symbol: "A", PriceChange24h: 1, VolumeChange24h: 10},
		{Symbol: "B", PriceChange24h: -1, VolumeChange24h: 20},
		{Symbol: "C", PriceChange24h: 0, VolumeChange24h: 30},
		{Symbol: "D", PriceChange24h: 0.7, VolumeChange24h: 40},
	}
	for _, b := range Encode(entries) {
		assert.Equal(t, b.Color, Neutral)
	}
	assert.Equal(t, ColorScale([]float64{1, -1, 0}), math.Log(2))
}

func TestBlockColor(t *testing.T) {
	changes := []float64{10, -4, 0.5}
	scale := ColorScale(changes)
	assert.Equal(t, scale, math.Log(10))

	// The batch extreme gets the darkest shade.
	assert.Equal(t, BlockColor(10, scale), Color{G: 51})
	// ln(4)/ln(10) = 0.60206, intensity = 0.2 + 0.6*0.39794 = 0.438764.
	assert.Equal(t, BlockColor(-4, scale), Color{R: 111})
	assert.Equal(t, BlockColor(0.5, scale), Neutral)
	assert.Equal(t, BlockColor(10, scale).String(), "rgb(0, 51, 0)")
}

func TestEncodeScenarioD(t *testing.T) {
	volumes := []float64{0.1, 0.5, 3, 12, 25, 40, 60, 90, 150, 220, 300, 410, 560, 700, 890, 1200, 1500, 1999, 3000, 5000}
	entries := make([]domain.TrendingEntry, len(volumes))
	for i, v := range volumes {
		entries[i] = domain.TrendingEntry{Symbol: "T", Price: 1, PriceChange24h: float64(i) - 10, VolumeChange24h: v}
	}

	blocks := Encode(entries)
	assert.Equal(t, len(blocks), 20)

	largest := 0
	for i, b := range blocks {
		assert.True(t, b.Size >= MinSize && b.Size <= MaxSize)
		if b.Size > blocks[largest].Size {
			largest = i
		}
	}
	for _, b := range blocks {
		assert.True(t, blocks[largest].Fraction >= b.Fraction)
	}
	assert.Equal(t, blocks[0].Size, 1.0)
	assert.Equal(t, blocks[19].Size, 2000.0)
}

func TestEncodeEmpty(t *testing.T) {
	assert.Equal(t, len(Encode(nil)), 0)
}
