// Package train fits the model chosen by the strategy against the tabular dataset.
package train

import (
	"context"
	"errors"
	"regexp"
	"slices"

	"go.uber.org/zap"

	"github.com/Vansh-04/buildfirst/internal/artifact"
	"github.com/Vansh-04/buildfirst/internal/dataset"
	"github.com/Vansh-04/buildfirst/internal/genstep"
	"github.com/Vansh-04/buildfirst/internal/healer"
	"github.com/Vansh-04/buildfirst/internal/ml"
	artifactrepo "github.com/Vansh-04/buildfirst/internal/repository/artifact"
)

// excluded matches index-like columns that must never become features.
var excluded = regexp.MustCompile(`(?i)unnamed|id`)

type Result struct {
	Skipped  bool
	Cached   bool
	Metadata artifact.ModelMetadata
}

type Stage struct {
	Store  artifactrepo.Store
	Fitter ml.Fitter
	Logger *zap.Logger
	// Force refits even when the stored model matches the inputs.
	Force bool
}

// Features returns the numeric columns usable as model inputs, in file order.
func Features(t *dataset.Table, target string) []string {
	var out []string
	for _, c := range t.NumericColumns() {
		if c == target || excluded.MatchString(c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Run fits and persists the Model Artifact Set. datasetPath overrides the
// profile path when non-empty.
func (s Stage) Run(ctx context.Context, strat artifact.Strategy, profile artifact.DataProfile, datasetPath string) (Result, error) {
	log := s.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if !strat.AIRequired {
		log.Info("TRAIN skipped: AI not required")
		return Result{Skipped: true}, nil
	}
	if datasetPath == "" {
		datasetPath = profile.Path
	}
	if datasetPath == "" || !profile.DataPresent {
		return Result{}, healer.Fail(healer.MissingDataset, "training requires a dataset")
	}
	if profile.Modality != "" && profile.Modality != artifact.ModalityTabular {
		return Result{}, healer.Fail(healer.DatasetIncompatible, "dataset incompatible: %s data cannot train a tabular model", profile.Modality)
	}

	table, digest, err := dataset.LoadFile(datasetPath)
	if err != nil {
		return Result{}, healer.Fail(healer.DatasetIncompatible, "dataset incompatible: %v", err)
	}
	stratDigest, err := genstep.Digest(strat.Decision())
	if err != nil {
		return Result{}, err
	}
	if md, ok := s.current(ctx, digest, stratDigest); ok && !s.Force {
		log.Info("TRAIN cached", zap.Int("feature_count", md.FeatureCount))
		return Result{Cached: true, Metadata: md}, nil
	}

	target := profile.TargetColumn
	if target != "" && !slices.Contains(table.Columns, target) {
		target = ""
	}
	if strat.TaskType == artifact.TaskClassification && target == "" {
		return Result{}, healer.Fail(healer.TargetColumnMissing, "target column required for classification")
	}
	features := Features(table, target)
	if len(features) == 0 {
		return Result{}, healer.Fail(healer.NoUsableFeatures, "no usable features: no numeric columns found in dataset")
	}

	X, err := table.Matrix(features)
	if err != nil {
		return Result{}, healer.Fail(healer.DatasetIncompatible, "dataset incompatible: %v", err)
	}
	var labels []string
	if target != "" {
		if labels, err = table.Strings(target); err != nil {
			return Result{}, err
		}
	}
	scaler, err := ml.FitStandardizer(X)
	if err != nil {
		return Result{}, healer.Fail(healer.DatasetIncompatible, "dataset incompatible: %v", err)
	}
	Z, err := scaler.Transform(X)
	if err != nil {
		return Result{}, err
	}
	fitter := s.Fitter
	if fitter == nil {
		fitter = ml.DefaultFitter{}
	}
	var hp map[string]int
	if strat.ModelStrategy != nil {
		hp = strat.ModelStrategy.Hyperparameters
	}
	family := artifact.FamilyKNN
	if strat.ModelStrategy != nil && strat.ModelStrategy.ModelFamily != "" {
		family = strat.ModelStrategy.ModelFamily
	}
	model, err := fitter.Fit(Z, labels, ml.Params{Family: family, Hyper: hp})
	if err != nil {
		return Result{}, err
	}

	md := artifact.ModelMetadata{
		FeatureCount:   len(features),
		FeatureNames:   features,
		ModelFamily:    family,
		TaskType:       strat.TaskType,
		TargetColumn:   target,
		Rows:           len(table.Rows),
		DatasetDigest:  digest,
		StrategyDigest: stratDigest,
	}
	if err := md.Check(); err != nil {
		return Result{}, err
	}
	if err := s.persist(ctx, model, scaler, md); err != nil {
		return Result{}, err
	}
	log.Info("TRAIN → "+artifact.ModelFile,
		zap.String("family", string(family)),
		zap.Int("feature_count", md.FeatureCount),
		zap.Int("rows", md.Rows))
	return Result{Metadata: md}, nil
}

// current reports the existing metadata when the full set is present and was
// produced from the same dataset and decision.
func (s Stage) current(ctx context.Context, datasetDigest, strategyDigest string) (artifact.ModelMetadata, bool) {
	ok, err := artifactrepo.AllExist(ctx, s.Store, artifact.ModelSet...)
	if err != nil || !ok {
		return artifact.ModelMetadata{}, false
	}
	md, err := artifactrepo.Read[artifact.ModelMetadata](ctx, s.Store, artifact.KindModelMetadata, artifact.ModelMetadataFile)
	if err != nil || md.Check() != nil {
		return artifact.ModelMetadata{}, false
	}
	return md, md.DatasetDigest == datasetDigest && md.StrategyDigest == strategyDigest
}

// persist writes model, preprocessor, then metadata. Metadata marks the set
// complete, so on failure the earlier pieces are removed again.
func (s Stage) persist(ctx context.Context, model *ml.Model, scaler *ml.Standardizer, md artifact.ModelMetadata) (err error) {
	var written []string
	defer func() {
		if err == nil {
			return
		}
		for _, p := range written {
			err = errors.Join(err, s.Store.Remove(ctx, p))
		}
	}()
	// A stale metadata file would vouch for the new pieces before they are complete.
	if err = s.Store.Remove(ctx, artifact.ModelMetadataFile); err != nil {
		return err
	}
	for _, piece := range []struct {
		path string
		v    any
	}{{artifact.ModelFile, model}, {artifact.PreprocessorFile, scaler}} {
		var b []byte
		if b, err = ml.Encode(piece.v); err != nil {
			return err
		}
		if err = s.Store.Put(ctx, piece.path, b); err != nil {
			return err
		}
		written = append(written, piece.path)
	}
	return artifactrepo.Write(ctx, s.Store, artifact.ModelMetadataFile, md)
}
