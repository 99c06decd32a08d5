package chart

import "sort"

// rect is an axis-aligned rectangle in canvas pixels.
type rect struct {
	X, Y, W, H float64
}

// squarify lays values out as a single-level squarified treemap filling
// bounds. Rectangles are returned in the order of values; area is
// proportional to value. Non-positive values get an empty rectangle.
func squarify(values []float64, bounds rect) []rect {
	out := make([]rect, len(values))

	var total float64
	for _, v := range values {
		if v > 0 {
			total += v
		}
	}
	if total <= 0 || bounds.W <= 0 || bounds.H <= 0 {
		return out
	}

	scale := bounds.W * bounds.H / total
	order := make([]int, 0, len(values))
	for i, v := range values {
		if v > 0 {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool { return values[order[a]] > values[order[b]] })

	areas := make([]float64, len(values))
	for _, i := range order {
		areas[i] = values[i] * scale
	}

	free := bounds
	var row []int
	for _, i := range order {
		side := min(free.W, free.H)
		if len(row) == 0 || worst(append(row, i), areas, side) <= worst(row, areas, side) {
			row = append(row, i)
			continue
		}
		free = layoutRow(row, areas, free, out)
		row = []int{i}
	}
	if len(row) > 0 {
		layoutRow(row, areas, free, out)
	}
	return out
}

// worst is the highest aspect ratio in row when laid along a side of length side.
func worst(row []int, areas []float64, side float64) float64 {
	var sum, lo, hi float64
	for n, i := range row {
		a := areas[i]
		sum += a
		if n == 0 || a < lo {
			lo = a
		}
		if a > hi {
			hi = a
		}
	}
	s2, w2 := sum*sum, side*side
	return max(w2*hi/s2, s2/(w2*lo))
}

// layoutRow places row along the shorter side of free and returns the space left.
func layoutRow(row []int, areas []float64, free rect, out []rect) rect {
	var sum float64
	for _, i := range row {
		sum += areas[i]
	}

	if free.W >= free.H {
		width := sum / free.H
		y := free.Y
		for _, i := range row {
			h := areas[i] / width
			out[i] = rect{X: free.X, Y: y, W: width, H: h}
			y += h
		}
		free.X += width
		free.W -= width
		return free
	}

	height := sum / free.W
	x := free.X
	for _, i := range row {
		w := areas[i] / height
		out[i] = rect{X: x, Y: free.Y, W: w, H: height}
		x += w
	}
	free.Y += height
	free.H -= height
	return free
}
