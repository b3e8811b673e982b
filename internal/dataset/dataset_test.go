package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const moviesCSV = `Unnamed: 0,movie_id,rating,runtime,genre
0,10,4.5,120,drama
1,11,,95,comedy
2,12,3.0,,drama
`

func TestLoadAndNumericColumns(t *testing.T) {
	tbl, err := Load(strings.NewReader(moviesCSV))
	require.NoError(t, err)
	require.Equal(t, []string{"Unnamed: 0", "movie_id", "rating", "runtime", "genre"}, tbl.Columns)
	require.Len(t, tbl.Rows, 3)
	require.Equal(t, []string{"Unnamed: 0", "movie_id", "rating", "runtime"}, tbl.NumericColumns())
}

func TestFloatsImputesMean(t *testing.T) {
	tbl, err := Load(strings.NewReader(moviesCSV))
	require.NoError(t, err)
	rating, err := tbl.Floats("rating")
	require.NoError(t, err)
	require.InDeltaSlice(t, []float64{4.5, 3.75, 3.0}, rating, 1e-9)

	m, err := tbl.Matrix([]string{"rating", "runtime"})
	require.NoError(t, err)
	require.Len(t, m, 3)
	require.InDelta(t, 107.5, m[2][1], 1e-9)

	_, err = tbl.Floats("genre")
	require.Error(t, err)
}

func TestDetectTarget(t *testing.T) {
	cases := []struct {
		csv    string
		want   string
		wantOK bool
	}{
		{"a,Label,b\n1,x,2\n", "Label", true},
		{"a,b,species\n1,2,setosa\n", "species", true},
		{"a,b,c\n1,2,3\n", "", false},
		{"target,y\n1,2\n", "target", true},
	}
	for _, tc := range cases {
		tbl, err := Load(strings.NewReader(tc.csv))
		require.NoError(t, err)
		got, ok := DetectTarget(tbl)
		require.Equal(t, tc.wantOK, ok, tc.csv)
		require.Equal(t, tc.want, got, tc.csv)
	}
}

func TestLoadFileDigestIsStable(t *testing.T) {
	p := filepath.Join(t.TempDir(), "d.csv")
	require.NoError(t, os.WriteFile(p, []byte(moviesCSV), 0o644))
	_, d1, err := LoadFile(p)
	require.NoError(t, err)
	d2, err := FileDigest(p)
	require.NoError(t, err)
	require.Equal(t, d1, d2)
	require.Len(t, d1, 64)

	_, err = Load(strings.NewReader(""))
	require.ErrorIs(t, err, ErrEmpty)
}
