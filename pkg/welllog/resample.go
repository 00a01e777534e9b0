package welllog

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

const DefaultTargetWidth = 150

// A single contribution of a source column to a destination column.
type areaWeight struct {
	src    int
	weight float64
}

// ResizeWidth resamples the columns of m to the given width using area
// interpolation, leaving the number of rows untouched. When shrinking,
// every output sample is the average of the input samples it covers,
// weighted by the covered fraction. When enlarging, samples are blended
// linearly between the two nearest inputs with the same coefficients used by
// OpenCV's INTER_AREA mode. Values are neither clipped nor normalised.
func ResizeWidth(m mat.Matrix, width int) (*mat.Dense, error) {
	src, err := asDense(m)
	if err != nil {
		return nil, err
	}
	if width < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWidth, width)
	}

	rows, cols := src.Dims()
	tab := areaTable(cols, width)

	dst := mat.NewDense(rows, width, nil)
	for r := 0; r < rows; r++ {
		in := src.RawRowView(r)
		out := dst.RawRowView(r)
		for c, weights := range tab {
			var sum float64
			for _, w := range weights {
				sum += in[w.src] * w.weight
			}
			out[c] = sum
		}
	}

	return dst, nil
}

// Build the per-destination-column list of source contributions. The table
// only depends on the input and output widths, so it is computed once and
// applied to every row.
func areaTable(srcWidth, dstWidth int) [][]areaWeight {
	scale := float64(srcWidth) / float64(dstWidth)
	tab := make([][]areaWeight, dstWidth)

	if scale >= 1 {
		for dx := 0; dx < dstWidth; dx++ {
			start := float64(dx) * scale
			end := math.Min(start+scale, float64(srcWidth))
			span := end - start
			for sx := int(math.Floor(start)); sx < int(math.Ceil(end)) && sx < srcWidth; sx++ {
				overlap := math.Min(end, float64(sx+1)) - math.Max(start, float64(sx))
				if overlap <= 1e-9 {
					continue
				}
				tab[dx] = append(tab[dx], areaWeight{src: sx, weight: overlap / span})
			}
		}
		return tab
	}

	invScale := float64(dstWidth) / float64(srcWidth)
	for dx := 0; dx < dstWidth; dx++ {
		sx := int(math.Floor(float64(dx) * scale))
		fx := float64(dx+1) - float64(sx+1)*invScale
		if fx <= 0 {
			fx = 0
		} else {
			fx -= math.Floor(fx)
		}
		if sx >= srcWidth-1 {
			sx = srcWidth - 1
			fx = 0
		}
		if fx == 0 {
			tab[dx] = []areaWeight{{src: sx, weight: 1}}
			continue
		}
		tab[dx] = []areaWeight{{src: sx, weight: 1 - fx}, {src: sx + 1, weight: fx}}
	}
	return tab
}

// Obtain a dense view of the matrix, refusing nil and zero-sized inputs.
func asDense(m mat.Matrix) (*mat.Dense, error) {
	if m == nil {
		return nil, ErrInvalidMatrix
	}
	if d, ok := m.(*mat.Dense); ok {
		if d == nil || d.IsEmpty() {
			return nil, ErrInvalidMatrix
		}
		return d, nil
	}
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil, ErrInvalidMatrix
	}
	return mat.DenseCopyOf(m), nil
}

// Realign attaches the depth column to a resampled pixel matrix. Depths are
// copied positionally and truncated to min(len(depth), rows of resized);
// the pixel rows are truncated to the same count so the result is always a
// consistent table. Positional copy is only meaningful if the resampler kept
// the row count, which Resize checks before calling this.
func Realign(resized *mat.Dense, depth []float64) Table {
	if resized == nil || resized.IsEmpty() || len(depth) == 0 {
		return Table{Depth: []float64{}}
	}

	rows, cols := resized.Dims()
	n := rows
	if len(depth) < n {
		n = len(depth)
	}

	out := Table{
		Depth:  make([]float64, n),
		Pixels: mat.NewDense(n, cols, nil),
	}
	copy(out.Depth, depth[:n])
	out.Pixels.Copy(resized.Slice(0, n, 0, cols))
	return out
}

// Resize resamples the pixel columns of t to the given width and reattaches
// the depth column. The row count of the resampled matrix is checked against
// the source table: a mismatch would silently shift depths against pixel rows,
// so it is reported as ErrRowCountChanged instead of being truncated away.
func Resize(t Table, width int) (Table, error) {
	if t.Empty() {
		return Table{}, ErrInvalidMatrix
	}

	resized, err := ResizeWidth(t.Pixels, width)
	if err != nil {
		return Table{}, err
	}

	rows, _ := resized.Dims()
	if rows != t.Rows() {
		return Table{}, fmt.Errorf("%w: %d -> %d", ErrRowCountChanged, t.Rows(), rows)
	}

	return Realign(resized, t.Depth), nil
}
