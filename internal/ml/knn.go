package ml

import (
	"fmt"
	"math"
	"sort"
)

// KNN is a brute-force nearest-neighbour index over standardized points.
type KNN struct {
	K      int         `cbor:"k"`
	Points [][]float64 `cbor:"points"`
	Labels []string    `cbor:"labels,omitempty"`
}

type Neighbor struct {
	Index    int     `json:"index"`
	Distance float64 `json:"distance"`
	Label    string  `json:"label,omitempty"`
}

func FitKNN(X [][]float64, labels []string, k int) (*KNN, error) {
	if len(X) == 0 {
		return nil, fmt.Errorf("ml: knn needs at least one point")
	}
	if k < 1 {
		k = 1
	}
	if k > len(X) {
		k = len(X)
	}
	pts := make([][]float64, len(X))
	for i, row := range X {
		pts[i] = append([]float64(nil), row...)
	}
	var ls []string
	if len(labels) == len(X) {
		ls = append([]string(nil), labels...)
	}
	return &KNN{K: k, Points: pts, Labels: ls}, nil
}

// Neighbors returns the K closest points to x, nearest first. Ties keep
// index order.
func (m *KNN) Neighbors(x []float64) ([]Neighbor, error) {
	if len(m.Points) > 0 && len(x) != len(m.Points[0]) {
		return nil, fmt.Errorf("ml: expected %d features, got %d", len(m.Points[0]), len(x))
	}
	all := make([]Neighbor, len(m.Points))
	for i, p := range m.Points {
		d := 0.0
		for j := range p {
			diff := p[j] - x[j]
			d += diff * diff
		}
		all[i] = Neighbor{Index: i, Distance: math.Sqrt(d)}
		if m.Labels != nil {
			all[i].Label = m.Labels[i]
		}
	}
	sort.SliceStable(all, func(a, b int) bool { return all[a].Distance < all[b].Distance })
	return all[:m.K], nil
}
