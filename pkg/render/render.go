package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
)

// The render package turns a 2D numeric array into a false-color PNG. Every
// call allocates its own raster, nothing is cached between calls, so a single
// Renderer can be shared by concurrent requests.

const (
	DefaultWidth  = 640
	DefaultHeight = 480
	paletteSize   = 256
)

var (
	ErrRender = errors.New("render failed")
	ErrEmpty  = errors.New("nothing to render")
)

// Renderer draws matrices on a fixed-size canvas. Each axis is scaled
// independently, so the rendered image fills the canvas whatever the
// aspect ratio of the data is. Row 0 of the matrix is drawn at the top.
type Renderer struct {
	width   int
	height  int
	palette []color.NRGBA
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithCanvas sets the size in pixels of the produced images. Non positive
// values keep the defaults.
func WithCanvas(width, height int) Option {
	return func(r *Renderer) {
		if width > 0 {
			r.width = width
		}
		if height > 0 {
			r.height = height
		}
	}
}

// WithColorMap replaces the default color map. The map is sampled once when
// the Renderer is created.
func WithColorMap(cmap palette.ColorMap) Option {
	return func(r *Renderer) {
		r.palette = sample(cmap, paletteSize)
	}
}

// New returns a Renderer drawing on a 640x480 canvas with the extended
// black body color map (black, red, yellow, white), a perceptually ordered
// map with the same ramp as matplotlib's inferno.
func New(opts ...Option) *Renderer {
	r := Renderer{
		width:  DefaultWidth,
		height: DefaultHeight,
	}
	for _, opt := range opts {
		opt(&r)
	}
	if r.palette == nil {
		r.palette = sample(moreland.ExtendedBlackBody(), paletteSize)
	}
	return &r
}

// Canvas returns the size of the images produced by the renderer.
func (r *Renderer) Canvas() (int, int) {
	return r.width, r.height
}

// Render draws m and returns the PNG encoded image.
func (r *Renderer) Render(m mat.Matrix) ([]byte, error) {
	var buf bytes.Buffer
	err := r.RenderTo(&buf, m)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderTo draws m and writes the PNG encoded image to w. Values are mapped
// linearly onto the palette between the smallest and largest finite value
// of the matrix. Missing (NaN) values are left transparent.
func (r *Renderer) RenderTo(w io.Writer, m mat.Matrix) error {
	if m == nil {
		return ErrEmpty
	}
	if d, ok := m.(*mat.Dense); ok && (d == nil || d.IsEmpty()) {
		return ErrEmpty
	}
	rows, cols := m.Dims()
	if rows == 0 || cols == 0 {
		return ErrEmpty
	}

	raster := r.rasterize(m, rows, cols)
	scaled := imaging.Resize(raster, r.width, r.height, imaging.NearestNeighbor)

	err := imaging.Encode(w, scaled, imaging.PNG)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRender, err)
	}
	return nil
}

// Draw one pixel per matrix element.
func (r *Renderer) rasterize(m mat.Matrix, rows, cols int) *image.NRGBA {
	lo, hi := finiteBounds(m, rows, cols)
	span := hi - lo
	last := float64(len(r.palette) - 1)

	img := image.NewNRGBA(image.Rect(0, 0, cols, rows))
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			v := m.At(y, x)
			if math.IsNaN(v) {
				continue
			}
			var t float64
			switch {
			case span == 0 || math.IsInf(v, -1):
				t = 0
			case math.IsInf(v, 1):
				t = 1
			default:
				t = (v - lo) / span
			}
			img.SetNRGBA(x, y, r.palette[int(math.Round(t*last))])
		}
	}
	return img
}

// Smallest and largest finite values of the matrix, both zero when there is
// no finite value at all.
func finiteBounds(m mat.Matrix, rows, cols int) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			v := m.At(y, x)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if lo > hi {
		return 0, 0
	}
	return lo, hi
}

// Sample n evenly spaced colors out of a color map.
func sample(cmap palette.ColorMap, n int) []color.NRGBA {
	cmap.SetMin(0)
	cmap.SetMax(1)
	colors := cmap.Palette(n).Colors()

	out := make([]color.NRGBA, len(colors))
	for i, c := range colors {
		out[i] = color.NRGBAModel.Convert(c).(color.NRGBA)
	}
	return out
}
