package ml

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/Vansh-04/buildfirst/internal/artifact"
)

// Model is the persisted fitted model. Exactly one of KNN or Forest is set,
// matching Family.
type Model struct {
	Family artifact.ModelFamily `cbor:"family"`
	KNN    *KNN                 `cbor:"knn,omitempty"`
	Forest *Forest              `cbor:"forest,omitempty"`
}

// Prediction is what serving returns for one feature vector.
type Prediction struct {
	Neighbors     []Neighbor         `json:"neighbors,omitempty"`
	Label         string             `json:"label,omitempty"`
	Probabilities map[string]float64 `json:"probabilities,omitempty"`
}

// Predict expects an already standardized vector.
func (m *Model) Predict(z []float64) (Prediction, error) {
	switch {
	case m.Family == artifact.FamilyKNN && m.KNN != nil:
		nb, err := m.KNN.Neighbors(z)
		if err != nil {
			return Prediction{}, err
		}
		return Prediction{Neighbors: nb}, nil
	case m.Family == artifact.FamilyRandomForest && m.Forest != nil:
		return Prediction{Label: m.Forest.Predict(z), Probabilities: m.Forest.Proba(z)}, nil
	default:
		return Prediction{}, fmt.Errorf("ml: model family %q has no fitted state", m.Family)
	}
}

// Params carries the family and hyperparameters chosen by the strategy.
type Params struct {
	Family artifact.ModelFamily
	Hyper  map[string]int
}

func (p Params) get(key string, def int) int {
	if v, ok := p.Hyper[key]; ok {
		return v
	}
	return def
}

// Fitter is the numeric model-fitting capability.
type Fitter interface {
	Fit(X [][]float64, y []string, p Params) (*Model, error)
}

// DefaultFitter fits the built-in families.
type DefaultFitter struct{}

func (DefaultFitter) Fit(X [][]float64, y []string, p Params) (*Model, error) {
	switch p.Family {
	case artifact.FamilyKNN:
		k, err := FitKNN(X, y, p.get(artifact.HPNeighbors, 3))
		if err != nil {
			return nil, err
		}
		return &Model{Family: p.Family, KNN: k}, nil
	case artifact.FamilyRandomForest:
		f, err := FitForest(X, y, ForestParams{
			Trees:    p.get(artifact.HPEstimators, 25),
			MaxDepth: p.get(artifact.HPMaxDepth, 8),
			Seed:     uint64(p.get(artifact.HPRandomState, 42)),
		})
		if err != nil {
			return nil, err
		}
		return &Model{Family: p.Family, Forest: f}, nil
	default:
		return nil, fmt.Errorf("ml: unsupported model family %q", p.Family)
	}
}

var encMode = func() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// Encode serializes a model or standardizer deterministically.
func Encode(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

func DecodeModel(b []byte) (*Model, error) {
	var m Model
	if err := cbor.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	return &m, nil
}

func DecodeStandardizer(b []byte) (*Standardizer, error) {
	var s Standardizer
	if err := cbor.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode preprocessor: %w", err)
	}
	if len(s.Mean) == 0 || len(s.Mean) != len(s.Scale) {
		return nil, fmt.Errorf("decode preprocessor: inconsistent dimensions")
	}
	return &s, nil
}
