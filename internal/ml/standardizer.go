// Package ml fits the small numeric models the training stage needs:
// a per-column standardizer, a nearest-neighbour index and a random forest.
package ml

import (
	"fmt"
	"math"
)

// Standardizer rescales each column to zero mean and unit variance.
// Columns with zero variance keep scale 1.
type Standardizer struct {
	Mean  []float64 `cbor:"mean"`
	Scale []float64 `cbor:"scale"`
}

func FitStandardizer(X [][]float64) (*Standardizer, error) {
	if len(X) == 0 || len(X[0]) == 0 {
		return nil, fmt.Errorf("ml: empty matrix")
	}
	d := len(X[0])
	mean := make([]float64, d)
	for _, row := range X {
		if len(row) != d {
			return nil, fmt.Errorf("ml: ragged matrix")
		}
		for j, v := range row {
			mean[j] += v
		}
	}
	n := float64(len(X))
	for j := range mean {
		mean[j] /= n
	}
	scale := make([]float64, d)
	for _, row := range X {
		for j, v := range row {
			diff := v - mean[j]
			scale[j] += diff * diff
		}
	}
	for j := range scale {
		scale[j] = math.Sqrt(scale[j] / n)
		if scale[j] == 0 {
			scale[j] = 1
		}
	}
	return &Standardizer{Mean: mean, Scale: scale}, nil
}

// Dim is the expected feature vector length.
func (s *Standardizer) Dim() int { return len(s.Mean) }

func (s *Standardizer) TransformRow(x []float64) ([]float64, error) {
	if len(x) != len(s.Mean) {
		return nil, fmt.Errorf("ml: expected %d features, got %d", len(s.Mean), len(x))
	}
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return out, nil
}

func (s *Standardizer) Transform(X [][]float64) ([][]float64, error) {
	out := make([][]float64, len(X))
	for i, row := range X {
		r, err := s.TransformRow(row)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

// Inverse maps a standardized row back to original units.
func (s *Standardizer) Inverse(z []float64) []float64 {
	out := make([]float64, len(z))
	for j, v := range z {
		out[j] = v*s.Scale[j] + s.Mean[j]
	}
	return out
}
