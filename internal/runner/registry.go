package runner

import (
	"context"
	"fmt"

	"github.com/Vansh-04/buildfirst/internal/artifact"
	"github.com/Vansh-04/buildfirst/internal/genstep"
	artifactrepo "github.com/Vansh-04/buildfirst/internal/repository/artifact"
	"github.com/Vansh-04/buildfirst/internal/workers/acquire"
	"github.com/Vansh-04/buildfirst/internal/workers/backendgen"
	"github.com/Vansh-04/buildfirst/internal/workers/backendplan"
	"github.com/Vansh-04/buildfirst/internal/workers/compose"
	"github.com/Vansh-04/buildfirst/internal/workers/frontend"
	"github.com/Vansh-04/buildfirst/internal/workers/inspect"
	"github.com/Vansh-04/buildfirst/internal/workers/intake"
	"github.com/Vansh-04/buildfirst/internal/workers/strategy"
	"github.com/Vansh-04/buildfirst/internal/workers/train"
)

// Stage keys in pipeline order.
const (
	StageIntake      = "intake"
	StageInspect     = "inspect"
	StageAcquire     = "acquire"
	StageStrategy    = "strategy"
	StageTrain       = "train"
	StageCompose     = "compose"
	StageBackendPlan = "backend_plan"
	StageBackendGen  = "backend_codegen"
	StageFrontend    = "frontend"
)

func static(paths ...string) func(context.Context, *Env) []string {
	return func(context.Context, *Env) []string { return paths }
}

// BuildStages returns the fixed stage table.
func BuildStages() []StageSpec {
	return []StageSpec{
		{
			Key:         StageIntake,
			Description: "Load and gate the approved project specification.",
			Strategy:    NoCache(),
			Run: func(ctx context.Context, env *Env) (StageResult, error) {
				spec, err := intake.Load(ctx, env.Store, env.logger())
				if err != nil {
					return StageResult{}, err
				}
				env.Spec = spec
				return StageResult{Outcome: artifact.OutcomeRan, Detail: spec.ProjectIdentity.Name}, nil
			},
		},
		{
			Key:         StageInspect,
			Description: "Profile the dataset, or record that there is none.",
			Requires:    static(artifact.SpecificationFile),
			Strategy:    NoCache(),
			Run: func(ctx context.Context, env *Env) (StageResult, error) {
				p, wrote, err := inspect.Stage{Store: env.Store, Logger: env.logger()}.Run(ctx, env.DatasetPath)
				if err != nil {
					return StageResult{}, err
				}
				res := StageResult{Outcome: artifact.OutcomeRan, Detail: fmt.Sprintf("data_present=%t", p.DataPresent)}
				if !wrote {
					res.Outcome = artifact.OutcomeCached
				}
				return res, nil
			},
		},
		{
			Key:         StageAcquire,
			Description: "Record how missing data should be obtained.",
			Requires:    static(artifact.SpecificationFile, artifact.DataProfileFile),
			Strategy:    NoCache(),
			Run: func(ctx context.Context, env *Env) (StageResult, error) {
				profile, err := env.Profile(ctx)
				if err != nil {
					return StageResult{}, err
				}
				plan, err := acquire.Stage{Store: env.Store, Logger: env.logger()}.Run(ctx, env.Spec, profile)
				if err != nil {
					return StageResult{}, err
				}
				return StageResult{Outcome: artifact.OutcomeRan, Detail: plan.DataStrategy}, nil
			},
		},
		{
			Key:         StageStrategy,
			Description: "Decide whether and how to model the data.",
			Requires:    static(artifact.SpecificationFile, artifact.DataProfileFile),
			Output:      artifact.StrategyFile,
			Strategy:    MetaStrategy(),
			Fingerprint: func(ctx context.Context, env *Env) (any, error) {
				profile, err := env.Profile(ctx)
				if err != nil {
					return nil, err
				}
				return struct {
					Spec    artifact.Specification `json:"spec"`
					Profile artifact.DataProfile   `json:"profile"`
					Policy  strategy.Policy        `json:"policy"`
				}{env.Spec, profile, env.Policy.Strategy}, nil
			},
			Run: func(ctx context.Context, env *Env) (StageResult, error) {
				profile, err := env.Profile(ctx)
				if err != nil {
					return StageResult{}, err
				}
				st := strategy.Stage{
					Store:     env.Store,
					Explainer: strategy.Explainer{LLM: env.LLM, Logger: env.logger()},
					Policy:    env.Policy.Strategy,
					Logger:    env.logger(),
				}
				out, err := st.Run(ctx, env.Spec, profile)
				if err != nil {
					return StageResult{}, err
				}
				return StageResult{Outcome: artifact.OutcomeRan, Detail: fmt.Sprintf("ai_required=%t task=%s", out.AIRequired, out.TaskType)}, nil
			},
		},
		{
			Key:         StageTrain,
			Description: "Fit the model chosen by the strategy.",
			Requires:    static(artifact.StrategyFile, artifact.DataProfileFile),
			Strategy:    NoCache(),
			Run:         runTrain,
		},
		{
			Key:         StageCompose,
			Description: "Normalize the requested application into a plan.",
			Requires:    static(artifact.SpecificationFile),
			Strategy:    NoCache(),
			Run: func(ctx context.Context, env *Env) (StageResult, error) {
				strat, err := optionalStrategy(ctx, env)
				if err != nil {
					return StageResult{}, err
				}
				plan, err := compose.Stage{Store: env.Store, Logger: env.logger()}.Run(ctx, env.Spec, strat)
				if err != nil {
					return StageResult{}, err
				}
				return StageResult{Outcome: artifact.OutcomeRan, Detail: fmt.Sprintf("pages=%d widgets=%d", len(plan.Pages), len(plan.AIWidgets))}, nil
			},
		},
		{
			Key:         StageBackendPlan,
			Description: "Plan backend routes and served artifacts.",
			Requires:    static(artifact.ApplicationPlanFile),
			Strategy:    NoCache(),
			Run: func(ctx context.Context, env *Env) (StageResult, error) {
				app, err := env.ApplicationPlan(ctx)
				if err != nil {
					return StageResult{}, err
				}
				strat, err := optionalStrategy(ctx, env)
				if err != nil {
					return StageResult{}, err
				}
				plan, err := backendplan.Stage{Store: env.Store, Logger: env.logger()}.Run(ctx, app, strat)
				if err != nil {
					return StageResult{}, err
				}
				return StageResult{Outcome: artifact.OutcomeRan, Detail: fmt.Sprintf("routes=%d", len(plan.Routes))}, nil
			},
		},
		{
			Key:         StageBackendGen,
			Description: "Generate the backend source.",
			Requires:    backendPlanRequired,
			Strategy:    NoCache(),
			Run: func(ctx context.Context, env *Env) (StageResult, error) {
				plan, err := env.BackendPlan(ctx)
				if err != nil {
					return StageResult{}, err
				}
				res, err := backendgen.Stage{Store: env.Store, LLM: env.LLM, Logger: env.logger(), Force: env.Forced()}.Run(ctx, plan)
				return generated(res), err
			},
		},
		{
			Key:         StageFrontend,
			Description: "Generate the single-page frontend.",
			Requires:    static(artifact.ApplicationPlanFile),
			Strategy:    NoCache(),
			Run: func(ctx context.Context, env *Env) (StageResult, error) {
				plan, err := env.ApplicationPlan(ctx)
				if err != nil {
					return StageResult{}, err
				}
				res, err := frontend.Stage{
					Store:       env.Store,
					LLM:         env.LLM,
					Logger:      env.logger(),
					MaxAttempts: env.Policy.FrontendMaxAttempts,
					Force:       env.Forced(),
				}.Run(ctx, plan)
				return generated(res), err
			},
		},
	}
}

func runTrain(ctx context.Context, env *Env) (StageResult, error) {
	strat, err := env.Strategy(ctx)
	if err != nil {
		return StageResult{}, err
	}
	profile, err := env.Profile(ctx)
	if err != nil {
		return StageResult{}, err
	}
	res, err := train.Stage{Store: env.Store, Logger: env.logger(), Force: env.Forced()}.Run(ctx, strat, profile, env.DatasetPath)
	if err != nil {
		return StageResult{}, err
	}
	switch {
	case res.Skipped:
		return StageResult{Outcome: artifact.OutcomeSkipped, Detail: "ai not required"}, nil
	case res.Cached:
		return StageResult{Outcome: artifact.OutcomeCached, Detail: fmt.Sprintf("features=%d", res.Metadata.FeatureCount)}, nil
	}
	return StageResult{Outcome: artifact.OutcomeRan, Detail: fmt.Sprintf("features=%d rows=%d", res.Metadata.FeatureCount, res.Metadata.Rows)}, nil
}

// backendPlanRequired resolves the backend plan path from the stored
// Application Plan; without a plan the plan file itself is reported missing.
func backendPlanRequired(ctx context.Context, env *Env) []string {
	app, err := env.ApplicationPlan(ctx)
	if err != nil {
		return []string{artifact.ApplicationPlanFile}
	}
	return []string{app.BackendPlanPath()}
}

// optionalStrategy treats a missing strategy as "no AI".
func optionalStrategy(ctx context.Context, env *Env) (artifact.Strategy, error) {
	s, err := env.Strategy(ctx)
	if artifactrepo.IsNotFound(err) {
		return artifact.Strategy{}, nil
	}
	return s, err
}

func generated(res genstep.Result) StageResult {
	if res.Cached {
		return StageResult{Outcome: artifact.OutcomeCached, Detail: res.Dir}
	}
	return StageResult{Outcome: artifact.OutcomeRan, Detail: fmt.Sprintf("%s provenance=%s attempts=%d", res.Dir, res.Provenance, res.Attempts)}
}
