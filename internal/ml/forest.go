package ml

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"sort"
)

// Node is one node of a flattened decision tree. Leaf nodes carry Class.
type Node struct {
	Feature   int     `cbor:"f"`
	Threshold float64 `cbor:"t"`
	Left      int     `cbor:"l"`
	Right     int     `cbor:"r"`
	Leaf      bool    `cbor:"leaf"`
	Class     int     `cbor:"c"`
}

type Tree struct {
	Nodes []Node `cbor:"nodes"`
}

// Forest is a bagged ensemble of gini-split classification trees.
type Forest struct {
	Classes []string `cbor:"classes"`
	Trees   []Tree   `cbor:"trees"`
}

type ForestParams struct {
	Trees    int
	MaxDepth int
	Seed     uint64
}

const maxThresholds = 32

// FitForest trains a forest on X with string labels y. The same inputs and
// seed always produce the same forest.
func FitForest(X [][]float64, y []string, p ForestParams) (*Forest, error) {
	if len(X) == 0 {
		return nil, fmt.Errorf("ml: forest needs at least one row")
	}
	if len(y) != len(X) {
		return nil, fmt.Errorf("ml: %d rows but %d labels", len(X), len(y))
	}
	if p.Trees < 1 {
		p.Trees = 1
	}
	if p.MaxDepth < 1 {
		p.MaxDepth = 1
	}
	classes := slices.Clone(y)
	sort.Strings(classes)
	classes = slices.Compact(classes)
	idx := make(map[string]int, len(classes))
	for i, c := range classes {
		idx[c] = i
	}
	labels := make([]int, len(y))
	for i, v := range y {
		labels[i] = idx[v]
	}

	d := len(X[0])
	mtry := int(math.Max(1, math.Round(math.Sqrt(float64(d)))))
	f := &Forest{Classes: classes, Trees: make([]Tree, p.Trees)}
	for t := 0; t < p.Trees; t++ {
		rng := rand.New(rand.NewPCG(p.Seed, uint64(t)))
		sample := make([]int, len(X))
		for i := range sample {
			sample[i] = rng.IntN(len(X))
		}
		b := &treeBuilder{X: X, y: labels, k: len(classes), mtry: mtry, maxDepth: p.MaxDepth, rng: rng}
		b.grow(sample, 0)
		f.Trees[t] = Tree{Nodes: b.nodes}
	}
	return f, nil
}

// Proba returns the share of trees voting for each class.
func (f *Forest) Proba(x []float64) map[string]float64 {
	votes := make([]int, len(f.Classes))
	for _, t := range f.Trees {
		votes[t.predict(x)]++
	}
	out := make(map[string]float64, len(f.Classes))
	for i, c := range f.Classes {
		out[c] = float64(votes[i]) / float64(len(f.Trees))
	}
	return out
}

// Predict returns the majority class; ties go to the first class in sort order.
func (f *Forest) Predict(x []float64) string {
	votes := make([]int, len(f.Classes))
	for _, t := range f.Trees {
		votes[t.predict(x)]++
	}
	best := 0
	for i, v := range votes {
		if v > votes[best] {
			best = i
		}
	}
	return f.Classes[best]
}

func (t Tree) predict(x []float64) int {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Leaf {
			return n.Class
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

type treeBuilder struct {
	X        [][]float64
	y        []int
	k        int
	mtry     int
	maxDepth int
	rng      *rand.Rand
	nodes    []Node
}

// grow appends the subtree for rows and returns its root index.
func (b *treeBuilder) grow(rows []int, depth int) int {
	counts := make([]int, b.k)
	for _, r := range rows {
		counts[b.y[r]]++
	}
	majority := 0
	for c, n := range counts {
		if n > counts[majority] {
			majority = c
		}
	}
	at := len(b.nodes)
	b.nodes = append(b.nodes, Node{Leaf: true, Class: majority})
	if depth >= b.maxDepth || len(rows) < 2 || counts[majority] == len(rows) {
		return at
	}

	feature, threshold, ok := b.bestSplit(rows, gini(counts, len(rows)))
	if !ok {
		return at
	}
	var left, right []int
	for _, r := range rows {
		if b.X[r][feature] <= threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}
	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[at] = Node{Feature: feature, Threshold: threshold, Left: l, Right: r}
	return at
}

func (b *treeBuilder) bestSplit(rows []int, parent float64) (int, float64, bool) {
	d := len(b.X[0])
	features := b.rng.Perm(d)[:min(b.mtry, d)]
	bestGain, bestF, bestT := 0.0, -1, 0.0
	for _, f := range features {
		for _, t := range b.thresholds(rows, f) {
			lc := make([]int, b.k)
			rc := make([]int, b.k)
			ln, rn := 0, 0
			for _, r := range rows {
				if b.X[r][f] <= t {
					lc[b.y[r]]++
					ln++
				} else {
					rc[b.y[r]]++
					rn++
				}
			}
			if ln == 0 || rn == 0 {
				continue
			}
			n := float64(len(rows))
			impurity := float64(ln)/n*gini(lc, ln) + float64(rn)/n*gini(rc, rn)
			if gain := parent - impurity; gain > bestGain+1e-12 {
				bestGain, bestF, bestT = gain, f, t
			}
		}
	}
	return bestF, bestT, bestF >= 0
}

// thresholds returns midpoints between distinct values, thinned to at most
// maxThresholds evenly spaced candidates.
func (b *treeBuilder) thresholds(rows []int, f int) []float64 {
	vals := make([]float64, len(rows))
	for i, r := range rows {
		vals[i] = b.X[r][f]
	}
	sort.Float64s(vals)
	vals = slices.Compact(vals)
	if len(vals) < 2 {
		return nil
	}
	mids := make([]float64, len(vals)-1)
	for i := range mids {
		mids[i] = (vals[i] + vals[i+1]) / 2
	}
	if len(mids) <= maxThresholds {
		return mids
	}
	out := make([]float64, maxThresholds)
	step := float64(len(mids)-1) / float64(maxThresholds-1)
	for i := range out {
		out[i] = mids[int(math.Round(float64(i)*step))]
	}
	return out
}

func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		g -= p * p
	}
	return g
}
