// Package dataset loads tabular datasets and answers the questions the
// inspection and training stages ask of them.
package dataset

import (
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/zeebo/blake3"
)

// Table is a CSV file held in memory as strings.
type Table struct {
	Columns []string
	Rows    [][]string
}

var ErrEmpty = errors.New("dataset: no header row")

// Load parses CSV with a header row. Short rows are padded with empty cells.
func Load(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("dataset: read header: %w", err)
	}
	t := &Table{Columns: make([]string, len(header))}
	for i, h := range header {
		t.Columns[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: read row %d: %w", len(t.Rows)+1, err)
		}
		row := make([]string, len(t.Columns))
		copy(row, rec)
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// LoadFile reads a CSV file and returns the table plus the blake3 digest
// of the raw bytes.
func LoadFile(path string) (*Table, string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	t, err := Load(strings.NewReader(string(b)))
	if err != nil {
		return nil, "", err
	}
	return t, Digest(b), nil
}

// Digest is the hex blake3 of raw dataset bytes.
func Digest(b []byte) string {
	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// FileDigest hashes the file at path.
func FileDigest(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return Digest(b), nil
}

func (t *Table) index(col string) int {
	return slices.Index(t.Columns, col)
}

// IsNumeric reports whether every non-empty cell of col parses as a float
// and at least one cell is non-empty.
func (t *Table) IsNumeric(col string) bool {
	i := t.index(col)
	if i < 0 {
		return false
	}
	seen := false
	for _, row := range t.Rows {
		cell := strings.TrimSpace(row[i])
		if cell == "" {
			continue
		}
		if _, err := strconv.ParseFloat(cell, 64); err != nil {
			return false
		}
		seen = true
	}
	return seen
}

// NumericColumns returns the numeric columns in header order.
func (t *Table) NumericColumns() []string {
	out := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if t.IsNumeric(c) {
			out = append(out, c)
		}
	}
	return out
}

// Floats returns col as numbers with empty cells replaced by the column mean.
func (t *Table) Floats(col string) ([]float64, error) {
	i := t.index(col)
	if i < 0 {
		return nil, fmt.Errorf("dataset: no column %q", col)
	}
	out := make([]float64, len(t.Rows))
	missing := make([]bool, len(t.Rows))
	sum, n := 0.0, 0
	for r, row := range t.Rows {
		cell := strings.TrimSpace(row[i])
		if cell == "" {
			missing[r] = true
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("dataset: column %q row %d: %w", col, r+1, err)
		}
		out[r] = v
		sum += v
		n++
	}
	if n == 0 {
		return nil, fmt.Errorf("dataset: column %q has no values", col)
	}
	mean := sum / float64(n)
	for r := range out {
		if missing[r] {
			out[r] = mean
		}
	}
	return out, nil
}

// Strings returns col verbatim.
func (t *Table) Strings(col string) ([]string, error) {
	i := t.index(col)
	if i < 0 {
		return nil, fmt.Errorf("dataset: no column %q", col)
	}
	out := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = strings.TrimSpace(row[i])
	}
	return out, nil
}

// Matrix assembles the given columns into row-major feature vectors.
func (t *Table) Matrix(cols []string) ([][]float64, error) {
	columns := make([][]float64, len(cols))
	for j, c := range cols {
		v, err := t.Floats(c)
		if err != nil {
			return nil, err
		}
		columns[j] = v
	}
	out := make([][]float64, len(t.Rows))
	for r := range out {
		row := make([]float64, len(cols))
		for j := range cols {
			row[j] = columns[j][r]
		}
		out[r] = row
	}
	return out, nil
}
