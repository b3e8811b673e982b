// Package serve exposes the built application's model and status over HTTP.
package serve

import (
	"context"
	"errors"
	"fmt"

	"github.com/Vansh-04/buildfirst/internal/artifact"
	"github.com/Vansh-04/buildfirst/internal/ml"
	artifactrepo "github.com/Vansh-04/buildfirst/internal/repository/artifact"
)

// ErrIncompleteModel means the strategy requires a model but the Model
// Artifact Set is not fully present or is inconsistent.
var ErrIncompleteModel = errors.New("serve: model artifact set incomplete")

// Context is everything the handlers read. It is built once and never
// mutated; a rebuild swaps in a new value.
type Context struct {
	Strategy     artifact.Strategy
	Plan         *artifact.ApplicationPlan
	Backend      *artifact.BackendPlan
	Metadata     *artifact.ModelMetadata
	Standardizer *ml.Standardizer
	Model        *ml.Model
}

// AIEnabled reports whether prediction is available.
func (c *Context) AIEnabled() bool {
	return c != nil && c.Model != nil
}

// LoadContext reads the serving inputs from the store.
func LoadContext(ctx context.Context, store artifactrepo.Store) (*Context, error) {
	out := &Context{}
	strat, err := artifactrepo.Read[artifact.Strategy](ctx, store, artifact.KindStrategy, artifact.StrategyFile)
	switch {
	case err == nil:
		out.Strategy = strat
	case !artifactrepo.IsNotFound(err):
		return nil, err
	}
	plan, err := artifactrepo.Read[artifact.ApplicationPlan](ctx, store, artifact.KindApplicationPlan, artifact.ApplicationPlanFile)
	switch {
	case err == nil:
		out.Plan = &plan
		bp, err := artifactrepo.Read[artifact.BackendPlan](ctx, store, artifact.KindBackendPlan, plan.BackendPlanPath())
		switch {
		case err == nil:
			out.Backend = &bp
		case !artifactrepo.IsNotFound(err):
			return nil, err
		}
	case !artifactrepo.IsNotFound(err):
		return nil, err
	}
	if !out.Strategy.AIRequired {
		return out, nil
	}

	missing, err := artifactrepo.Missing(ctx, store, artifact.ModelSet...)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %v", ErrIncompleteModel, missing)
	}
	md, err := artifactrepo.Read[artifact.ModelMetadata](ctx, store, artifact.KindModelMetadata, artifact.ModelMetadataFile)
	if err != nil {
		return nil, err
	}
	if err := md.Check(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncompleteModel, err)
	}
	raw, err := store.Get(ctx, artifact.PreprocessorFile)
	if err != nil {
		return nil, err
	}
	scaler, err := ml.DecodeStandardizer(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncompleteModel, err)
	}
	if scaler.Dim() != md.FeatureCount {
		return nil, fmt.Errorf("%w: preprocessor has %d features, metadata %d", ErrIncompleteModel, scaler.Dim(), md.FeatureCount)
	}
	if raw, err = store.Get(ctx, artifact.ModelFile); err != nil {
		return nil, err
	}
	model, err := ml.DecodeModel(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncompleteModel, err)
	}
	out.Metadata, out.Standardizer, out.Model = &md, scaler, model
	return out, nil
}

// Predict standardizes features and runs the model.
func (c *Context) Predict(features []float64) (ml.Prediction, error) {
	if !c.AIEnabled() {
		return ml.Prediction{}, errors.New("no model is being served")
	}
	if len(features) != c.Metadata.FeatureCount {
		return ml.Prediction{}, fmt.Errorf("expected %d features %v, got %d", c.Metadata.FeatureCount, c.Metadata.FeatureNames, len(features))
	}
	z, err := c.Standardizer.TransformRow(features)
	if err != nil {
		return ml.Prediction{}, err
	}
	return c.Model.Predict(z)
}
