package strategy

import (
	"context"

	"go.uber.org/zap"

	"github.com/Vansh-04/buildfirst/internal/artifact"
	"github.com/Vansh-04/buildfirst/internal/llm"
	"github.com/Vansh-04/buildfirst/internal/llmtool"
	"github.com/Vansh-04/buildfirst/internal/util/jsonutil"
)

// explanationFields documents the advisory record the model should return.
type explanationFields struct {
	WhyAI      string   `json:"why_ai" prompt_desc:"Why the project needs a learned model."`
	WhyTask    string   `json:"why_task" prompt_desc:"Why this task type fits the goal."`
	WhyModel   string   `json:"why_model" prompt_desc:"Why this model family fits the data."`
	Risks      []string `json:"risks" prompt_desc:"Main risks of the decision."`
	Confidence float64  `json:"confidence" prompt_desc:"0..1 confidence in the decision."`
}

var explainPromptSpec = llmtool.ApplyPresets(llmtool.StructuredPromptSpec{
	Purpose:      "Explain an already-made modelling decision for a generated application.",
	Background:   "You are an AI system architect. The decision in the input is final; you only explain it.",
	OutputFields: llmtool.MustFieldsFromStruct(explanationFields{}),
	Rules: []string{
		"Do not propose a different task type or model family.",
	},
	OutputFormat: "JSON object with exactly the output fields.",
	Language:     "English",
	Examples: []llmtool.PromptExample{{
		InputJSON:  `{"system_decision":{"ai_required":true,"task_type":"classification","model_strategy":{"model_family":"random_forest"}}}`,
		OutputJSON: `{"why_ai":"The label depends on several columns at once.","why_task":"The goal names a fixed set of outcomes.","why_model":"Forests handle mixed numeric columns without scaling.","risks":["small dataset"],"confidence":0.7}`,
	}},
}, llmtool.PresetStrictJSON())

type explainInput struct {
	Specification artifact.Specification `json:"project_spec"`
	DataProfile   artifact.DataProfile   `json:"data_profile"`
	Decision      artifact.Strategy      `json:"system_decision"`
}

// Explainer asks the generative capability to justify a decision. It
// never fails: every problem becomes a status-tagged stub.
type Explainer struct {
	LLM    llm.Client
	Logger *zap.Logger
}

func (e Explainer) Explain(ctx context.Context, spec artifact.Specification, profile artifact.DataProfile, decision artifact.Strategy) *artifact.Explanation {
	if e.LLM == nil {
		return &artifact.Explanation{Status: artifact.ExplanationError, Message: llm.ErrUnavailable.Error()}
	}
	prompt, err := llmtool.Render(explainPromptSpec, explainInput{spec, profile, decision.Decision()})
	if err != nil {
		return &artifact.Explanation{Status: artifact.ExplanationError, Message: err.Error()}
	}
	text, err := e.LLM.Generate(ctx, prompt)
	if err != nil {
		if e.Logger != nil {
			e.Logger.Warn("strategy explanation failed", zap.Error(err))
		}
		return &artifact.Explanation{Status: artifact.ExplanationError, Message: err.Error()}
	}
	obj, err := jsonutil.DecodeObject(text)
	if err != nil {
		return &artifact.Explanation{Status: artifact.ExplanationInvalidJSON, RawResponse: text}
	}
	return &artifact.Explanation{Status: artifact.ExplanationOK, Content: obj}
}
