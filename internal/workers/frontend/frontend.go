// Package frontend writes the generated single-page site.
package frontend

import (
	"context"
	"fmt"
	"html"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/Vansh-04/buildfirst/internal/artifact"
	"github.com/Vansh-04/buildfirst/internal/genstep"
	"github.com/Vansh-04/buildfirst/internal/llm"
	"github.com/Vansh-04/buildfirst/internal/llmtool"
	artifactrepo "github.com/Vansh-04/buildfirst/internal/repository/artifact"
)

const DefaultMaxAttempts = 3

var requiredMarkers = []string{"<html", "</html>", "<body", "</body>", "<section", `href="#`}

var promptSpec = llmtool.ApplyPresets(llmtool.StructuredPromptSpec{
	Purpose:    "Generate a complete single-page HTML website for the application plan in the input.",
	Background: "You are a senior frontend engineer.",
	Constraints: []string{
		"Include <html>, <head>, <body> and their closing tags.",
		"Use semantic HTML: header, nav, main, section, footer.",
		`Each page becomes <section id="page_id">.`,
		`Navigation links are anchor links: href="#page_id".`,
		"Do not use file-based routing such as /about.",
		"Inline CSS is allowed. No JavaScript frameworks.",
	},
	Rules: []string{
		"Exactly one HTML document.",
		"Every navigation link must point at an existing section.",
	},
	OutputFormat: "Only HTML. No markdown, no explanations.",
})

// Validate checks the structural markers of a single-page document.
func Validate(doc string) error {
	lower := strings.ToLower(doc)
	var missing []string
	for _, m := range requiredMarkers {
		if !strings.Contains(lower, m) {
			missing = append(missing, m)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("markup missing %s", strings.Join(missing, ", "))
	}
	return nil
}

func Prompt(plan artifact.ApplicationPlan) (string, error) {
	return llmtool.Render(promptSpec, plan)
}

// Fallback renders one section per page plus one per AI widget.
func Fallback(plan artifact.ApplicationPlan) string {
	esc := html.EscapeString
	var b strings.Builder
	title := esc(plan.Application.Name)
	fmt.Fprintf(&b, "<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n", title)
	b.WriteString("<style>body{font-family:sans-serif;margin:0}nav{background:#222;padding:1em}nav a{color:#fff;margin-right:1em}section{padding:2em;border-bottom:1px solid #ddd}</style>\n")
	fmt.Fprintf(&b, "</head>\n<body>\n<header><h1>%s</h1></header>\n<nav>\n", title)

	keys := make([]string, 0, len(plan.AIWidgets))
	for k := range plan.AIWidgets {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, p := range plan.Pages {
		fmt.Fprintf(&b, "<a href=\"#%s\">%s</a>\n", esc(p.ID), esc(p.Title))
	}
	for _, k := range keys {
		fmt.Fprintf(&b, "<a href=\"#%s\">%s</a>\n", esc(k), esc(plan.AIWidgets[k].Label))
	}
	if len(plan.Pages) == 0 && len(keys) == 0 {
		b.WriteString("<a href=\"#home\">Home</a>\n")
	}
	b.WriteString("</nav>\n<main>\n")
	for _, p := range plan.Pages {
		fmt.Fprintf(&b, "<section id=\"%s\">\n<h2>%s</h2>\n<p>%s</p>\n</section>\n", esc(p.ID), esc(p.Title), esc(p.Description))
	}
	for _, k := range keys {
		w := plan.AIWidgets[k]
		fmt.Fprintf(&b, "<section id=\"%s\" class=\"ai-widget\" data-endpoint=\"%s\">\n<h2>%s</h2>\n<div class=\"%s\"></div>\n</section>\n",
			esc(k), esc(w.Endpoint), esc(w.Label), esc(w.OutputStyle))
	}
	if len(plan.Pages) == 0 && len(keys) == 0 {
		b.WriteString("<section id=\"home\">\n<h2>Home</h2>\n</section>\n")
	}
	b.WriteString("</main>\n<footer></footer>\n</body>\n</html>\n")
	return b.String()
}

func NewStep(cli llm.Client, store artifactrepo.Store, log *zap.Logger, maxAttempts int) genstep.Step[artifact.ApplicationPlan] {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return genstep.Step[artifact.ApplicationPlan]{
		Kind:        string(artifact.KindFrontendCode),
		Primary:     artifact.IndexFile,
		MaxAttempts: maxAttempts,
		Prompt:      Prompt,
		Clean:       llm.StripFences,
		Validate:    Validate,
		Fallback:    Fallback,
		LLM:         cli,
		Store:       store,
		Logger:      log,
	}
}

type Stage struct {
	Store       artifactrepo.Store
	LLM         llm.Client
	Logger      *zap.Logger
	MaxAttempts int
	Force       bool
}

func (s Stage) Run(ctx context.Context, plan artifact.ApplicationPlan) (genstep.Result, error) {
	step := NewStep(s.LLM, s.Store, s.Logger, s.MaxAttempts)
	step.Force = s.Force
	return step.Produce(ctx, plan.FrontendDir(), plan)
}
