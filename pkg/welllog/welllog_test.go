package welllog

import (
	"bytes"
	"errors"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gonum.org/v1/gonum/mat"
)

// Build a well-log export like the ones produced by the acquisition tools:
// a header, one row per 0.1 depth step starting at 9000.1 and, optionally,
// the trailing row of missing values.
func exportCSV(rows, cols int, sentinel bool) string {
	rnd := rand.New(rand.NewSource(42))

	var b strings.Builder
	b.WriteString("depth")
	for c := 1; c <= cols; c++ {
		b.WriteString(",col")
		b.WriteString(strconv.Itoa(c))
	}
	b.WriteByte('\n')

	for r := 0; r < rows; r++ {
		b.WriteString(strconv.FormatFloat(9000.1+0.1*float64(r), 'f', 1, 64))
		for c := 0; c < cols; c++ {
			b.WriteByte(',')
			b.WriteString(strconv.Itoa(rnd.Intn(256)))
		}
		b.WriteByte('\n')
	}

	if sentinel {
		b.WriteString(strings.Repeat(",", cols))
		b.WriteByte('\n')
	}
	return b.String()
}

func TestDecode_export(t *testing.T) {
	table, err := Decode(strings.NewReader(exportCSV(5460, 200, true)))
	if err != nil {
		t.Fatalf("Decode should not fail; got %v", err)
	}

	if table.Rows() != 5460 {
		t.Fatalf("Decode should drop the trailing missing row; got %d rows", table.Rows())
	}
	if table.Width() != 200 {
		t.Fatalf("Decode should keep 200 pixel columns; got %d", table.Width())
	}

	min, max, ok := table.DepthBounds()
	if !ok || min != 9000.1 || max != 9546.0 {
		t.Fatalf("depth should span [9000.1, 9546.0]; got [%v, %v]", min, max)
	}
}

func TestDecode_noHeader(t *testing.T) {
	input := "1.5,1,2,3\n2.5,4,5,6\n"
	table, err := Decode(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Decode should not fail; got %v", err)
	}

	if diff := cmp.Diff([]float64{1.5, 2.5}, table.Depth); diff != "" {
		t.Fatalf("unexpected depths (-want +got):\n%s", diff)
	}
	want := [][]float64{{1, 2, 3}, {4, 5, 6}}
	if diff := cmp.Diff(want, rowsOf(table.Pixels)); diff != "" {
		t.Fatalf("unexpected pixels (-want +got):\n%s", diff)
	}
}

func TestDecode_depthByName(t *testing.T) {
	input := ",depth,col1,col2\n0,10.0,1,2\n1,10.5,3,4\n2,,,\n"
	table, err := Decode(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Decode should not fail; got %v", err)
	}

	if diff := cmp.Diff([]float64{10, 10.5}, table.Depth); diff != "" {
		t.Fatalf("unexpected depths (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]float64{{1, 2}, {3, 4}}, rowsOf(table.Pixels)); diff != "" {
		t.Fatalf("the index column should be skipped (-want +got):\n%s", diff)
	}
}

func TestDecode_partialMissing(t *testing.T) {
	input := "depth,col1,col2\n1,NaN,2\n2,3,\n"
	table, err := Decode(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Decode should not fail; got %v", err)
	}
	if table.Rows() != 2 {
		t.Fatalf("rows with some values should be kept; got %d rows", table.Rows())
	}
	if !math.IsNaN(table.Pixels.At(0, 0)) || !math.IsNaN(table.Pixels.At(1, 1)) {
		t.Fatalf("missing values should decode to NaN; got %v", rowsOf(table.Pixels))
	}
}

func TestDecode_errors(t *testing.T) {
	tests := map[string]string{
		"empty":             "",
		"missing depth":     "time,col1,col2\n1,2,3\n",
		"no pixel columns":  "depth\n1\n2\n",
		"inconsistent rows": "depth,col1,col2\n1,2,3\n2,3\n",
		"bad pixel":         "depth,col1\n1,abc\n",
		"missing depth row": "depth,col1\n1,2\n,3\n",
		"only missing rows": "depth,col1,col2\n,,\n",
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(input))
			if !errors.Is(err, ErrDecode) {
				t.Fatalf("Decode should fail with ErrDecode; got %v", err)
			}
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("Decode should return a *DecodeError; got %T", err)
			}
		})
	}
}

func TestDecode_errorPosition(t *testing.T) {
	_, err := Decode(strings.NewReader("depth,col1,col2\n1,2,3\n2,x,4\n"))

	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("Decode should return a *DecodeError; got %v", err)
	}
	if decodeErr.Line != 3 || decodeErr.Column != 3 {
		t.Fatalf("error should point at line 3, column 3; got line %d, column %d", decodeErr.Line, decodeErr.Column)
	}
}

func TestEncode_roundTrip(t *testing.T) {
	table, err := Decode(strings.NewReader(exportCSV(300, 40, true)))
	if err != nil {
		t.Fatalf("Decode should not fail; got %v", err)
	}
	resized, err := Resize(table, 17)
	if err != nil {
		t.Fatalf("Resize should not fail; got %v", err)
	}
	resized.Pixels.Set(3, 4, math.NaN())

	var buf bytes.Buffer
	if err := Encode(&buf, resized); err != nil {
		t.Fatalf("Encode should not fail; got %v", err)
	}

	if !strings.HasPrefix(buf.String(), "depth,col1,col2,") {
		t.Fatalf("encoded table should start with the header; got %q", buf.String()[:20])
	}

	decoded, err := Decode(&buf)
	if err != nil {
		t.Fatalf("decoding the encoded table should not fail; got %v", err)
	}

	if decoded.Rows() != resized.Rows() || decoded.Width() != resized.Width() {
		t.Fatalf("round trip should keep the shape %dx%d; got %dx%d",
			resized.Rows(), resized.Width(), decoded.Rows(), decoded.Width())
	}
	if diff := cmp.Diff(resized.Depth, decoded.Depth); diff != "" {
		t.Fatalf("round trip changed depths (-want +got):\n%s", diff)
	}
	opt := cmpopts.EquateNaNs()
	if diff := cmp.Diff(rowsOf(resized.Pixels), rowsOf(decoded.Pixels), opt); diff != "" {
		t.Fatalf("round trip changed pixels (-want +got):\n%s", diff)
	}
}

func TestResizeWidth_shape(t *testing.T) {
	table, err := Decode(strings.NewReader(exportCSV(5460, 200, true)))
	if err != nil {
		t.Fatalf("Decode should not fail; got %v", err)
	}

	for _, width := range []int{1, 7, 150, 200, 333} {
		resized, err := ResizeWidth(table.Pixels, width)
		if err != nil {
			t.Fatalf("ResizeWidth(%d) should not fail; got %v", width, err)
		}
		r, c := resized.Dims()
		if r != 5460 || c != width {
			t.Fatalf("ResizeWidth(%d) should return a 5460x%d matrix; got %dx%d", width, width, r, c)
		}
	}
}

func TestResizeWidth_identity(t *testing.T) {
	src := mat.NewDense(3, 4, []float64{
		1, 2, 3, 4,
		-5, 6.5, 7, 1e6,
		0, 0, 0, 300,
	})

	resized, err := ResizeWidth(src, 4)
	if err != nil {
		t.Fatalf("ResizeWidth should not fail; got %v", err)
	}

	opt := cmpopts.EquateApprox(0, 1e-9)
	if diff := cmp.Diff(rowsOf(src), rowsOf(resized), opt); diff != "" {
		t.Fatalf("resizing to the same width should keep the values (-want +got):\n%s", diff)
	}
}

func TestResizeWidth_areaAverage(t *testing.T) {
	tests := []struct {
		name  string
		in    []float64
		width int
		want  []float64
	}{
		{"halve", []float64{1, 3, 5, 7}, 2, []float64{2, 6}},
		{"to one", []float64{1, 2, 3, 4, 5}, 1, []float64{3}},
		{"fractional", []float64{0, 3, 6}, 2, []float64{1, 5}},
		{"no clipping", []float64{-100, 1000}, 1, []float64{450}},
		{"integer upscale", []float64{1, 5}, 4, []float64{1, 1, 5, 5}},
		{"blend upscale", []float64{2, 4}, 3, []float64{2, 3, 4}},
	}

	opt := cmpopts.EquateApprox(0, 1e-9)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := mat.NewDense(1, len(tt.in), tt.in)
			resized, err := ResizeWidth(src, tt.width)
			if err != nil {
				t.Fatalf("ResizeWidth should not fail; got %v", err)
			}
			if diff := cmp.Diff(tt.want, resized.RawRowView(0), opt); diff != "" {
				t.Fatalf("unexpected values (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResizeWidth_invalid(t *testing.T) {
	var nilDense *mat.Dense

	if _, err := ResizeWidth(nil, 10); !errors.Is(err, ErrInvalidMatrix) {
		t.Fatalf("nil input should fail with ErrInvalidMatrix; got %v", err)
	}
	if _, err := ResizeWidth(nilDense, 10); !errors.Is(err, ErrInvalidMatrix) {
		t.Fatalf("nil *mat.Dense should fail with ErrInvalidMatrix; got %v", err)
	}
	if _, err := ResizeWidth(&mat.Dense{}, 10); !errors.Is(err, ErrInvalidMatrix) {
		t.Fatalf("empty matrix should fail with ErrInvalidMatrix; got %v", err)
	}
	if _, err := ResizeWidth(mat.NewDense(2, 2, nil), 0); !errors.Is(err, ErrInvalidWidth) {
		t.Fatalf("zero width should fail with ErrInvalidWidth; got %v", err)
	}
}

func TestResizeWidth_transposedInput(t *testing.T) {
	src := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})

	resized, err := ResizeWidth(src.T(), 1)
	if err != nil {
		t.Fatalf("ResizeWidth should accept any mat.Matrix; got %v", err)
	}
	want := [][]float64{{2.5}, {3.5}, {4.5}}
	if diff := cmp.Diff(want, rowsOf(resized)); diff != "" {
		t.Fatalf("unexpected values (-want +got):\n%s", diff)
	}
}

func TestRealign_truncates(t *testing.T) {
	tests := []struct {
		name   string
		rows   int
		depths int
		want   int
	}{
		{"equal", 4, 4, 4},
		{"more depths", 3, 5, 3},
		{"more rows", 5, 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			depth := make([]float64, tt.depths)
			for i := range depth {
				depth[i] = float64(i)
			}
			out := Realign(mat.NewDense(tt.rows, 2, nil), depth)

			if len(out.Depth) != tt.want {
				t.Fatalf("depth column should have %d values; got %d", tt.want, len(out.Depth))
			}
			if r, _ := out.Pixels.Dims(); r != tt.want {
				t.Fatalf("pixels should have %d rows; got %d", tt.want, r)
			}
		})
	}
}

func TestResize_keepsDepth(t *testing.T) {
	table, err := Decode(strings.NewReader(exportCSV(5460, 200, true)))
	if err != nil {
		t.Fatalf("Decode should not fail; got %v", err)
	}

	resized, err := Resize(table, DefaultTargetWidth)
	if err != nil {
		t.Fatalf("Resize should not fail; got %v", err)
	}

	if resized.Rows() != 5460 || resized.Width() != 150 {
		t.Fatalf("Resize should return a 5460x150 table; got %dx%d", resized.Rows(), resized.Width())
	}
	if diff := cmp.Diff(table.Depth, resized.Depth); diff != "" {
		t.Fatalf("Resize should keep depths (-want +got):\n%s", diff)
	}

	resized.Depth[0] = -1
	if table.Depth[0] == -1 {
		t.Fatalf("Resize should not share the depth slice with its input")
	}
}

func TestResize_empty(t *testing.T) {
	if _, err := Resize(Table{}, 10); !errors.Is(err, ErrInvalidMatrix) {
		t.Fatalf("resizing an empty table should fail with ErrInvalidMatrix; got %v", err)
	}
}

func TestSelectDepthRange(t *testing.T) {
	table, err := Decode(strings.NewReader(exportCSV(5460, 20, true)))
	if err != nil {
		t.Fatalf("Decode should not fail; got %v", err)
	}

	sub := SelectDepthRange(table, 9100.0, 9200.0)
	if sub.Rows() != 1001 {
		t.Fatalf("[9100, 9200] should select 1001 rows; got %d", sub.Rows())
	}
	if sub.Depth[0] != 9100.0 || sub.Depth[len(sub.Depth)-1] != 9200.0 {
		t.Fatalf("bounds should be inclusive; got [%v, %v]", sub.Depth[0], sub.Depth[len(sub.Depth)-1])
	}
	if diff := cmp.Diff(table.Pixels.RawRowView(999), sub.Pixels.RawRowView(0)); diff != "" {
		t.Fatalf("selected rows should carry their pixels (-want +got):\n%s", diff)
	}

	min, max, _ := table.DepthBounds()
	full := SelectDepthRange(table, min, max)
	if full.Rows() != table.Rows() {
		t.Fatalf("[min, max] should select the whole table; got %d rows", full.Rows())
	}

	inverted := SelectDepthRange(table, 9200.0, 9100.0)
	if !inverted.Empty() || inverted.Rows() != 0 {
		t.Fatalf("start > end should select nothing; got %d rows", inverted.Rows())
	}

	outside := SelectDepthRange(table, 0, 1)
	if !outside.Empty() {
		t.Fatalf("a range outside the table should select nothing; got %d rows", outside.Rows())
	}
}

func rowsOf(m *mat.Dense) [][]float64 {
	r, _ := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = append([]float64(nil), m.RawRowView(i)...)
	}
	return out
}
