package welllog

import (
	"gonum.org/v1/gonum/mat"
)

// SelectDepthRange returns a copy of the rows of t whose depth lies in the
// closed interval [start, end]. No rows matching is not an error, the result
// is simply empty, and so it is whenever start > end.
func SelectDepthRange(t Table, start, end float64) Table {
	return Select(t, DepthRange{Start: start, End: end})
}

// Select is SelectDepthRange taking a DepthRange.
func Select(t Table, rng DepthRange) Table {
	if t.Empty() {
		return Table{Depth: []float64{}}
	}

	var keep []int
	for i, d := range t.Depth {
		if rng.Contains(d) {
			keep = append(keep, i)
		}
	}
	if len(keep) == 0 {
		return Table{Depth: []float64{}}
	}

	cols := t.Width()
	out := Table{
		Depth:  make([]float64, len(keep)),
		Pixels: mat.NewDense(len(keep), cols, nil),
	}
	for i, src := range keep {
		out.Depth[i] = t.Depth[src]
		copy(out.Pixels.RawRowView(i), t.Pixels.RawRowView(src))
	}
	return out
}
