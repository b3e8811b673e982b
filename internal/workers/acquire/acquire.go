// Package acquire records what to do when an ML project arrives without data.
package acquire

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/Vansh-04/buildfirst/internal/artifact"
	artifactrepo "github.com/Vansh-04/buildfirst/internal/repository/artifact"
)

// Strategies an operator may pick. Only Skip and Defer are chosen
// automatically; the rest are recorded when an operator edits the plan.
const (
	StrategySkip        = "skip"
	StrategyDefer       = "defer"
	StrategyUpload      = "upload"
	StrategyExternalAPI = "external_api"
	StrategySynthetic   = "synthetic"
)

var mlDomains = map[string]bool{"ml": true, "dl": true}

// Plan decides the acquisition strategy.
func Plan(spec artifact.Specification, profile artifact.DataProfile) artifact.DataAcquisitionPlan {
	if profile.DataPresent {
		return artifact.DataAcquisitionPlan{DataStrategy: StrategySkip, Reason: "Data already present", UserConfirmed: true}
	}
	if !mlDomains[strings.ToLower(strings.TrimSpace(spec.FunctionalScope.ProblemDomain))] {
		return artifact.DataAcquisitionPlan{DataStrategy: StrategySkip, Reason: "Project does not require ML/DL", UserConfirmed: true}
	}
	return artifact.DataAcquisitionPlan{
		DataStrategy: StrategyDefer,
		Reason:       "No dataset supplied for an ML project; building the application without a model",
		Details: map[string]string{
			"options":         strings.Join([]string{StrategyUpload, StrategyExternalAPI, StrategySynthetic, StrategyDefer}, ","),
			"expected_format": "csv",
		},
		UserConfirmed: false,
	}
}

type Stage struct {
	Store  artifactrepo.Store
	Logger *zap.Logger
}

// Run writes the plan. A plan the operator already confirmed is kept.
func (s Stage) Run(ctx context.Context, spec artifact.Specification, profile artifact.DataProfile) (artifact.DataAcquisitionPlan, error) {
	log := s.Logger
	if log == nil {
		log = zap.NewNop()
	}
	prev, err := artifactrepo.Read[artifact.DataAcquisitionPlan](ctx, s.Store, artifact.KindAcquisitionPlan, artifact.AcquisitionPlanFile)
	if err == nil && prev.UserConfirmed && prev.DataStrategy != StrategySkip && !profile.DataPresent {
		log.Info("ACQUIRE: keeping operator plan", zap.String("strategy", prev.DataStrategy))
		return prev, nil
	}
	plan := Plan(spec, profile)
	if err := artifactrepo.Write(ctx, s.Store, artifact.AcquisitionPlanFile, plan); err != nil {
		return plan, err
	}
	if plan.DataStrategy == StrategyDefer {
		log.Warn("no dataset for an ML project; model training will be skipped", zap.String("reason", plan.Reason))
	}
	log.Info("ACQUIRE → "+artifact.AcquisitionPlanFile, zap.String("strategy", plan.DataStrategy))
	return plan, nil
}
