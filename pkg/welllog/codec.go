package welllog

import (
	"encoding/csv"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

const depthColumn = "depth"

// Decode parses a comma-delimited table into a Table. The first record is
// treated as a header if it holds any non-numeric field, in which case the
// depth column is located by name, otherwise column 0 is the depth. Rows whose
// pixel values are all missing are dropped: exports carry a trailing sentinel
// row made only of missing values.
func Decode(r io.Reader) (Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	first, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return Table{}, &DecodeError{Msg: "empty input"}
	}
	if err != nil {
		return Table{}, csvError(err)
	}

	layout, err := parseLayout(first)
	if err != nil {
		return Table{}, err
	}

	var (
		depths []float64
		pixels []float64
		row    = make([]float64, len(layout.pixels))
	)

	// Parse a single record, appending it to the collected values unless all
	// of its pixels are missing.
	appendRecord := func(record []string) error {
		line, _ := reader.FieldPos(0)
		for i, idx := range layout.pixels {
			v, err := parseValue(record[idx])
			if err != nil {
				_, col := reader.FieldPos(idx)
				return &DecodeError{Line: line, Column: col, Msg: "invalid pixel value", Err: err}
			}
			row[i] = v
		}
		if allMissing(row) {
			return nil
		}
		depth, err := parseValue(record[layout.depth])
		if err != nil {
			_, col := reader.FieldPos(layout.depth)
			return &DecodeError{Line: line, Column: col, Msg: "invalid depth value", Err: err}
		}
		if math.IsNaN(depth) {
			return &DecodeError{Line: line, Msg: "missing depth value"}
		}
		depths = append(depths, depth)
		pixels = append(pixels, row...)
		return nil
	}

	if !layout.header {
		err = appendRecord(first)
		if err != nil {
			return Table{}, err
		}
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, csvError(err)
		}
		err = appendRecord(record)
		if err != nil {
			return Table{}, err
		}
	}

	if len(depths) == 0 {
		return Table{}, &DecodeError{Msg: "no valid rows"}
	}

	return Table{
		Depth:  depths,
		Pixels: mat.NewDense(len(depths), len(layout.pixels), pixels),
	}, nil
}

// Encode writes the table in the same layout accepted by Decode: a header
// row (depth,col1,...,colN) followed by one record per depth. Missing
// values are written as empty fields and numbers use the shortest
// representation that parses back to the same float64.
func Encode(w io.Writer, t Table) error {
	writer := csv.NewWriter(w)

	width := t.Width()
	record := make([]string, width+1)
	record[0] = depthColumn
	for c := 0; c < width; c++ {
		record[c+1] = "col" + strconv.Itoa(c+1)
	}
	err := writer.Write(record)
	if err != nil {
		return err
	}

	for r, depth := range t.Depth {
		record[0] = formatValue(depth)
		for c, v := range t.Pixels.RawRowView(r) {
			record[c+1] = formatValue(v)
		}
		err = writer.Write(record)
		if err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// The layout describes where the depth and pixel values live in each record.
type layout struct {
	header bool
	depth  int
	pixels []int
}

func parseLayout(first []string) (layout, error) {
	header := false
	for _, field := range first {
		if _, err := parseValue(field); err != nil {
			header = true
			break
		}
	}

	l := layout{header: header}
	if !header {
		l.depth = 0
		for i := 1; i < len(first); i++ {
			l.pixels = append(l.pixels, i)
		}
	} else {
		l.depth = -1
		for i, name := range first {
			if strings.EqualFold(strings.TrimSpace(name), depthColumn) {
				l.depth = i
				break
			}
		}
		if l.depth < 0 {
			return layout{}, &DecodeError{Line: 1, Msg: "missing depth column"}
		}
		for i, name := range first {
			if i == l.depth {
				continue
			}
			// A leading unnamed column is the row index written by dataframe
			// exports, it carries no pixel data.
			if i == 0 && isIndexColumn(name) {
				continue
			}
			l.pixels = append(l.pixels, i)
		}
	}

	if len(l.pixels) == 0 {
		return layout{}, &DecodeError{Line: 1, Msg: "no pixel columns"}
	}
	return l, nil
}

func isIndexColumn(name string) bool {
	name = strings.TrimSpace(name)
	return name == "" || strings.HasPrefix(name, "Unnamed")
}

// Parse a single field. Missing values (empty, nan, na, null) are returned as
// NaN without error.
func parseValue(field string) (float64, error) {
	field = strings.TrimSpace(field)
	switch strings.ToLower(field) {
	case "", "nan", "na", "null":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(field, 64)
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Convert errors coming from the csv reader into decode errors, keeping the
// position reported by the reader.
func csvError(err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		msg := "invalid csv"
		if errors.Is(parseErr.Err, csv.ErrFieldCount) {
			msg = "inconsistent row length"
		}
		return &DecodeError{Line: parseErr.Line, Column: parseErr.Column, Msg: msg, Err: parseErr.Err}
	}
	return &DecodeError{Msg: "reading input", Err: err}
}
