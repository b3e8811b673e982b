// Package compose normalizes a requested application into an ApplicationPlan.
package compose

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Vansh-04/buildfirst/internal/artifact"
	artifactrepo "github.com/Vansh-04/buildfirst/internal/repository/artifact"
)

const (
	defaultAppName   = "AutoDev App"
	defaultAppType   = "website"
	widgetEndpoint   = "/predict"
	widgetInput      = "model_metadata"
	widgetOutput     = "cards"
	widgetVisibility = "public"
)

var pageID = strings.NewReplacer(" ", "_", "/", "", "-", "_")

// PageID derives the identifier used for anchors and routes.
func PageID(name string) string {
	return pageID.Replace(strings.ToLower(name))
}

// WidgetKey derives the map key for an AI feature.
func WidgetKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

// FromSpecification derives an ApplicationSpec when none was authored.
func FromSpecification(spec artifact.Specification, strat artifact.Strategy) artifact.ApplicationSpec {
	out := artifact.ApplicationSpec{
		Application: artifact.ApplicationInfo{Name: spec.ProjectIdentity.Name, Type: defaultAppType},
		Website:     artifact.Website{Pages: []artifact.PageRequest{}},
	}
	for _, p := range spec.UISpec.Pages {
		out.Website.Pages = append(out.Website.Pages, artifact.PageRequest{Name: p})
	}
	if strat.AIRequired && strat.TaskType != "" {
		name := strings.ToUpper(string(strat.TaskType[:1])) + string(strat.TaskType[1:])
		out.AIFeatures = append(out.AIFeatures, artifact.FeatureRequest{
			Name:        name,
			Description: spec.ProjectIdentity.PrimaryGoal,
		})
	}
	return out
}

// Compose is deterministic in its input.
func Compose(req artifact.ApplicationSpec) artifact.ApplicationPlan {
	plan := artifact.ApplicationPlan{
		Application:   req.Application,
		Pages:         make([]artifact.Page, 0, len(req.Website.Pages)),
		AIWidgets:     map[string]artifact.AIWidget{},
		BackendRoutes: []string{"/context"},
	}
	if plan.Application.Name == "" {
		plan.Application.Name = defaultAppName
	}
	if plan.Application.Type == "" {
		plan.Application.Type = defaultAppType
	}
	for i, p := range req.Website.Pages {
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("Page %d", i)
		}
		id := p.ID
		if id == "" {
			id = PageID(name)
		}
		route := p.Route
		if route == "" {
			route = "/" + id
		}
		components := p.Components
		if components == nil {
			components = []string{}
		}
		plan.Pages = append(plan.Pages, artifact.Page{
			ID:           id,
			Title:        name,
			Route:        route,
			Description:  p.Description,
			Components:   components,
			RequiresAuth: p.RequiresAuth,
		})
	}
	for i, f := range req.AIFeatures {
		name := f.Name
		if name == "" {
			name = fmt.Sprintf("AI Feature %d", i)
		}
		vis := f.Visibility
		if vis == "" {
			vis = widgetVisibility
		}
		plan.AIWidgets[WidgetKey(name)] = artifact.AIWidget{
			Label:       name,
			Endpoint:    widgetEndpoint,
			InputSource: widgetInput,
			OutputStyle: widgetOutput,
			Visibility:  vis,
		}
	}
	if len(plan.AIWidgets) > 0 {
		plan.BackendRoutes = append(plan.BackendRoutes, widgetEndpoint)
	}
	plan.BuildFlags = artifact.BuildFlags{
		MLRequired:       len(plan.AIWidgets) > 0,
		BackendRequired:  true,
		FrontendRequired: true,
	}
	return plan
}

type Stage struct {
	Store  artifactrepo.Store
	Logger *zap.Logger
}

// Run uses the stored ApplicationSpec when present and otherwise derives one
// from the Specification.
func (s Stage) Run(ctx context.Context, spec artifact.Specification, strat artifact.Strategy) (artifact.ApplicationPlan, error) {
	req, err := artifactrepo.Read[artifact.ApplicationSpec](ctx, s.Store, artifact.KindApplicationSpec, artifact.ApplicationSpecFile)
	source := artifact.ApplicationSpecFile
	switch {
	case artifactrepo.IsNotFound(err):
		req = FromSpecification(spec, strat)
		source = artifact.SpecificationFile
	case err != nil:
		return artifact.ApplicationPlan{}, err
	}
	if req.Application.Name == "" {
		req.Application.Name = spec.ProjectIdentity.Name
	}
	plan := Compose(req)
	if err := artifactrepo.Write(ctx, s.Store, artifact.ApplicationPlanFile, plan); err != nil {
		return plan, err
	}
	if s.Logger != nil {
		s.Logger.Info("COMPOSE → "+artifact.ApplicationPlanFile,
			zap.String("source", source),
			zap.Int("pages", len(plan.Pages)),
			zap.Int("widgets", len(plan.AIWidgets)))
	}
	return plan, nil
}
