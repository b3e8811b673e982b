// Package strategy decides whether a project needs a model and which one.
package strategy

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/Vansh-04/buildfirst/internal/artifact"
	"github.com/Vansh-04/buildfirst/internal/llm"
	artifactrepo "github.com/Vansh-04/buildfirst/internal/repository/artifact"
)

// Policy holds the tunable parts of the decision.
type Policy struct {
	ClassificationKeywords []string
	DefaultTask            artifact.TaskType
	KNNNeighbors           int
	ForestTrees            int
	ForestMaxDepth         int
	RandomState            int
	Explain                bool
}

func DefaultPolicy() Policy {
	return Policy{
		ClassificationKeywords: []string{"classif"},
		DefaultTask:            artifact.TaskRecommendation,
		KNNNeighbors:           3,
		ForestTrees:            25,
		ForestMaxDepth:         8,
		RandomState:            42,
		Explain:                true,
	}
}

// Decide is the authoritative, deterministic decision. It never consults
// the generative capability.
func Decide(spec artifact.Specification, profile artifact.DataProfile, p Policy) artifact.Strategy {
	if !profile.DataPresent {
		return artifact.Strategy{AIRequired: false, Reason: "No dataset"}
	}
	task := p.DefaultTask
	if task == "" {
		task = artifact.TaskRecommendation
	}
	goal := strings.ToLower(spec.ProjectIdentity.PrimaryGoal)
	for _, kw := range p.ClassificationKeywords {
		if kw != "" && strings.Contains(goal, strings.ToLower(kw)) {
			task = artifact.TaskClassification
			break
		}
	}
	return artifact.Strategy{
		AIRequired:       true,
		LearningParadigm: "ml",
		TaskType:         task,
		ModelStrategy:    ModelFor(task, p),
	}
}

// ModelFor maps a task type to its model family and default hyperparameters.
func ModelFor(task artifact.TaskType, p Policy) *artifact.ModelStrategy {
	hp := map[string]int{artifact.HPNeighbors: p.KNNNeighbors}
	if task != artifact.TaskClassification {
		return &artifact.ModelStrategy{ModelFamily: artifact.FamilyKNN, Hyperparameters: hp}
	}
	hp[artifact.HPEstimators] = p.ForestTrees
	hp[artifact.HPMaxDepth] = p.ForestMaxDepth
	hp[artifact.HPRandomState] = p.RandomState
	return &artifact.ModelStrategy{ModelFamily: artifact.FamilyRandomForest, Hyperparameters: hp}
}

// AsRecommendation rewrites an AI strategy as unsupervised recommendation.
// The explanation is dropped because it described the previous decision.
func AsRecommendation(s artifact.Strategy, p Policy) artifact.Strategy {
	if !s.AIRequired {
		return s
	}
	s.TaskType = artifact.TaskRecommendation
	s.ModelStrategy = ModelFor(artifact.TaskRecommendation, p)
	s.Reason = "switched to recommendation: no target column"
	s.LLMExplanation = nil
	return s
}

type Stage struct {
	Store     artifactrepo.Store
	Explainer Explainer
	Policy    Policy
	Logger    *zap.Logger
}

// Run decides, optionally attaches the advisory explanation, and writes the
// Strategy.
func (s Stage) Run(ctx context.Context, spec artifact.Specification, profile artifact.DataProfile) (artifact.Strategy, error) {
	log := s.Logger
	if log == nil {
		log = zap.NewNop()
	}
	out := Decide(spec, profile, s.Policy)
	if s.Policy.Explain && out.AIRequired {
		out.LLMExplanation = s.Explainer.Explain(llm.WithPhase(ctx, "strategy"), spec, profile, out)
	}
	if err := artifactrepo.Write(ctx, s.Store, artifact.StrategyFile, out); err != nil {
		return out, err
	}
	fields := []zap.Field{zap.Bool("ai_required", out.AIRequired), zap.String("task_type", string(out.TaskType))}
	if out.LLMExplanation != nil {
		fields = append(fields, zap.String("explanation", string(out.LLMExplanation.Status)))
	}
	log.Info("STRATEGY → "+artifact.StrategyFile, fields...)
	return out, nil
}
