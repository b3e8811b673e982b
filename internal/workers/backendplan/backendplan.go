// Package backendplan turns the application plan into backend routes.
package backendplan

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/Vansh-04/buildfirst/internal/artifact"
	"github.com/Vansh-04/buildfirst/internal/healer"
	artifactrepo "github.com/Vansh-04/buildfirst/internal/repository/artifact"
)

// Plan is deterministic in its input. Route order is pages, /health, then
// /predict.
func Plan(app artifact.ApplicationPlan, strat artifact.Strategy) artifact.BackendPlan {
	out := artifact.BackendPlan{
		Project: app.Application,
		Stack:   artifact.Stack{Framework: "fastapi", Language: "python"},
		AI:      artifact.AIDescriptor{Enabled: strat.AIRequired},
		Routes:  make([]artifact.Route, 0, len(app.Pages)+2),
	}
	for _, p := range app.Pages {
		out.Routes = append(out.Routes, artifact.Route{
			Path:         p.Route,
			Method:       http.MethodGet,
			AuthRequired: p.RequiresAuth,
			Purpose:      p.Title,
		})
	}
	out.Routes = append(out.Routes, artifact.Route{Path: "/health", Method: http.MethodGet, Purpose: "Health check"})
	if !strat.AIRequired {
		return out
	}
	out.AI.Paradigm = strat.LearningParadigm
	out.AI.TaskType = strat.TaskType
	if strat.ModelStrategy != nil {
		out.AI.ModelFamily = strat.ModelStrategy.ModelFamily
	}
	out.Routes = append(out.Routes, artifact.Route{Path: "/predict", Method: http.MethodPost, Purpose: "AI inference"})
	out.Artifacts = artifact.ServeArtifacts{
		Model:        artifact.ModelFile,
		Preprocessor: artifact.PreprocessorFile,
		Metadata:     artifact.ModelMetadataFile,
	}
	return out
}

type Stage struct {
	Store  artifactrepo.Store
	Logger *zap.Logger
}

func (s Stage) Run(ctx context.Context, app artifact.ApplicationPlan, strat artifact.Strategy) (artifact.BackendPlan, error) {
	if strat.AIRequired {
		missing, err := artifactrepo.Missing(ctx, s.Store, artifact.ModelSet...)
		if err != nil {
			return artifact.BackendPlan{}, err
		}
		if len(missing) > 0 {
			return artifact.BackendPlan{}, healer.Fail(healer.MissingModelArtifact, "model artifact missing: %v", missing)
		}
	}
	plan := Plan(app, strat)
	p := app.BackendPlanPath()
	if err := artifactrepo.Write(ctx, s.Store, p, plan); err != nil {
		return plan, err
	}
	if s.Logger != nil {
		s.Logger.Info("BACKEND PLAN → "+p,
			zap.Int("routes", len(plan.Routes)),
			zap.Bool("ai", plan.AI.Enabled))
	}
	return plan, nil
}
