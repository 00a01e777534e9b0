package welllog

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// The welllog package holds the in-memory representation of a well-log image
// (a depth column plus N pixel columns) and the pure transforms applied to it
// while uploading and displaying: decoding, width resampling, depth realignment
// and depth-range selection. Every function here takes its input by value (or
// reads it only) and returns newly allocated data, so tables can be processed
// concurrently by different requests without any coordination.

var (
	ErrDecode          = errors.New("malformed table")
	ErrInvalidMatrix   = errors.New("input is not a non-empty 2d numeric matrix")
	ErrInvalidWidth    = errors.New("target width must be at least 1")
	ErrRowCountChanged = errors.New("resampling changed the number of rows")
)

// Table is a well-log image: one row per depth sample. Depth[i] is the depth
// of the i-th row of Pixels. Missing pixel values are NaN. An empty table has
// no depths and a nil Pixels matrix, since gonum matrices cannot be empty.
type Table struct {
	Depth  []float64
	Pixels *mat.Dense
}

// Rows returns the number of depth samples in the table.
func (t Table) Rows() int {
	return len(t.Depth)
}

// Width returns the number of pixel columns, 0 for an empty table.
func (t Table) Width() int {
	if t.Pixels == nil {
		return 0
	}
	_, c := t.Pixels.Dims()
	return c
}

// Empty reports whether the table has no rows.
func (t Table) Empty() bool {
	return t.Pixels == nil || len(t.Depth) == 0
}

// DepthBounds returns the smallest and the largest depth of the table. The
// boolean is false for an empty table.
func (t Table) DepthBounds() (float64, float64, bool) {
	if len(t.Depth) == 0 {
		return 0, 0, false
	}
	return floats.Min(t.Depth), floats.Max(t.Depth), true
}

// DepthRange is an inclusive [Start, End] interval on the depth column.
type DepthRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func (r DepthRange) Contains(depth float64) bool {
	return depth >= r.Start && depth <= r.End
}

// DecodeError describes why a table could not be decoded. Line and Column are
// 1-based positions in the source text, zero when not applicable. Every
// DecodeError matches ErrDecode with errors.Is.
type DecodeError struct {
	Line   int
	Column int
	Msg    string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := e.Msg
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	switch {
	case e.Line > 0 && e.Column > 0:
		return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, msg)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %s", e.Line, msg)
	default:
		return msg
	}
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// allMissing reports whether every value in the slice is NaN.
func allMissing(values []float64) bool {
	for _, v := range values {
		if !math.IsNaN(v) {
			return false
		}
	}
	return true
}
