package runner

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Vansh-04/buildfirst/internal/artifact"
	"github.com/Vansh-04/buildfirst/internal/llm"
	artifactrepo "github.com/Vansh-04/buildfirst/internal/repository/artifact"
	"github.com/Vansh-04/buildfirst/internal/workers/strategy"
)

// Policy carries the configurable decision and retry bounds.
type Policy struct {
	Strategy            strategy.Policy
	FrontendMaxAttempts int
}

func DefaultPolicy() Policy {
	return Policy{Strategy: strategy.DefaultPolicy(), FrontendMaxAttempts: 3}
}

// Env is the shared environment passed to stages. The store is the arena:
// stages read their inputs from it and write their outputs to it.
type Env struct {
	Store       artifactrepo.Store
	LLM         llm.Client
	Logger      *zap.Logger
	Policy      Policy
	DatasetPath string
	// ForceFrom names the first stage whose cached results are ignored;
	// every later stage rebuilds too.
	ForceFrom string
	Now       func() time.Time

	Spec artifact.Specification

	// strategyOverride replaces the stored strategy for the rest of a run
	// after a SwitchToRecommendation heal.
	strategyOverride *artifact.Strategy
	// forcing is set while a stage at or after ForceFrom runs.
	forcing bool
}

// Forced reports whether the running stage must ignore cached results.
func (e *Env) Forced() bool { return e.forcing }

func (e *Env) now() time.Time {
	if e.Now != nil {
		return e.Now().UTC()
	}
	return time.Now().UTC()
}

func (e *Env) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

// Strategy returns the effective strategy: the in-memory override when a heal
// installed one, the stored artifact otherwise.
func (e *Env) Strategy(ctx context.Context) (artifact.Strategy, error) {
	if e.strategyOverride != nil {
		return *e.strategyOverride, nil
	}
	return artifactrepo.Read[artifact.Strategy](ctx, e.Store, artifact.KindStrategy, artifact.StrategyFile)
}

func (e *Env) Profile(ctx context.Context) (artifact.DataProfile, error) {
	return artifactrepo.Read[artifact.DataProfile](ctx, e.Store, artifact.KindDataProfile, artifact.DataProfileFile)
}

func (e *Env) ApplicationPlan(ctx context.Context) (artifact.ApplicationPlan, error) {
	return artifactrepo.Read[artifact.ApplicationPlan](ctx, e.Store, artifact.KindApplicationPlan, artifact.ApplicationPlanFile)
}

// BackendPlan reads the plan written for the stored Application Plan.
func (e *Env) BackendPlan(ctx context.Context) (artifact.BackendPlan, error) {
	app, err := e.ApplicationPlan(ctx)
	if err != nil {
		return artifact.BackendPlan{}, err
	}
	return artifactrepo.Read[artifact.BackendPlan](ctx, e.Store, artifact.KindBackendPlan, app.BackendPlanPath())
}
