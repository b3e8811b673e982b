// Package backendgen writes the generated FastAPI backend source.
package backendgen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/Vansh-04/buildfirst/internal/artifact"
	"github.com/Vansh-04/buildfirst/internal/genstep"
	"github.com/Vansh-04/buildfirst/internal/llm"
	"github.com/Vansh-04/buildfirst/internal/llmtool"
	artifactrepo "github.com/Vansh-04/buildfirst/internal/repository/artifact"
)

const readme = "Run backend with:\n\nuvicorn app:app --reload\n"

var promptSpec = llmtool.ApplyPresets(llmtool.StructuredPromptSpec{
	Purpose:    "Generate a complete FastAPI backend for the backend plan in the input.",
	Background: "You are a senior backend engineer.",
	Constraints: []string{
		"Use FastAPI.",
		"Enable CORS and allow all origins.",
		"Implement every route listed in the plan.",
		"Add a /health endpoint.",
		"Add AI routes only if ai.enabled is true.",
		"If AI is enabled, stub model loading. Do not train.",
		"Single file: app.py.",
	},
	OutputFormat: "Only Python source code. No explanations, no markdown.",
}, llmtool.PresetNoInvent())

// Validate accepts source that at least builds a FastAPI application object.
func Validate(code string) error {
	var errs []error
	if !strings.Contains(code, "FastAPI") {
		errs = append(errs, errors.New("missing FastAPI"))
	}
	if !strings.Contains(code, "app =") {
		errs = append(errs, errors.New("missing app assignment"))
	}
	return errors.Join(errs...)
}

func Prompt(plan artifact.BackendPlan) (string, error) {
	return llmtool.Render(promptSpec, plan)
}

// Requirements lists the Python dependencies, sorted and deduplicated.
func Requirements(plan artifact.BackendPlan) string {
	reqs := []string{"fastapi", "uvicorn", "pydantic", "python-multipart"}
	if plan.AI.Enabled {
		reqs = append(reqs, "numpy", "joblib")
	}
	slices.Sort(reqs)
	return strings.Join(slices.Compact(reqs), "\n") + "\n"
}

// HandlerName derives a Python identifier from a route path.
func HandlerName(path string) string {
	var b strings.Builder
	for _, r := range strings.Trim(path, "/") {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteByte('_')
		}
	}
	name := strings.Trim(b.String(), "_")
	switch {
	case name == "":
		return "root"
	case unicode.IsDigit(rune(name[0])):
		return "route_" + name
	}
	return name
}

// Fallback renders a minimal app serving every planned GET route.
func Fallback(plan artifact.BackendPlan) string {
	var b strings.Builder
	b.WriteString(`from fastapi import FastAPI
from fastapi.middleware.cors import CORSMiddleware

app = FastAPI()

app.add_middleware(
    CORSMiddleware,
    allow_origins=["*"],
    allow_methods=["*"],
    allow_headers=["*"],
)


@app.get("/health")
def health():
    return {"status": "ok"}
`)
	used := map[string]int{"health": 1, "predict": 1}
	for _, r := range plan.Routes {
		if r.Method != http.MethodGet || r.Path == "/health" {
			continue
		}
		name := HandlerName(r.Path)
		if n := used[name]; n > 0 {
			used[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		} else {
			used[name] = 1
		}
		fmt.Fprintf(&b, "\n\n@app.get(%q)\ndef %s():\n    return {\"route\": %q, \"status\": \"ok\"}\n", r.Path, name, r.Path)
	}
	if plan.AI.Enabled {
		b.WriteString(`

@app.post("/predict")
def predict(data: dict):
    return {"message": "AI enabled (fallback mode), model not loaded"}
`)
	}
	return b.String()
}

// NewStep binds the backend generation step to a capability and store.
func NewStep(cli llm.Client, store artifactrepo.Store, log *zap.Logger) genstep.Step[artifact.BackendPlan] {
	return genstep.Step[artifact.BackendPlan]{
		Kind:        string(artifact.KindBackendCode),
		Primary:     artifact.BackendAppFile,
		MaxAttempts: 1,
		Prompt:      Prompt,
		Clean:       llm.StripFences,
		Validate:    Validate,
		Fallback:    Fallback,
		Aux: func(plan artifact.BackendPlan) []genstep.File {
			return []genstep.File{
				{Name: artifact.RequirementsFile, Content: []byte(Requirements(plan))},
				{Name: artifact.ReadmeFile, Content: []byte(readme)},
			}
		},
		LLM:    cli,
		Store:  store,
		Logger: log,
	}
}

type Stage struct {
	Store  artifactrepo.Store
	LLM    llm.Client
	Logger *zap.Logger
	Force  bool
}

func (s Stage) Run(ctx context.Context, plan artifact.BackendPlan) (genstep.Result, error) {
	step := NewStep(s.LLM, s.Store, s.Logger)
	step.Force = s.Force
	return step.Produce(ctx, artifact.BackendDir(plan.Project.Name), plan)
}
