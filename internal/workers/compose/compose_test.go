package compose

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/Vansh-04/buildfirst/internal/artifact"
	artifactrepo "github.com/Vansh-04/buildfirst/internal/repository/artifact"
)

func TestPageNormalization(t *testing.T) {
	plan := Compose(artifact.ApplicationSpec{
		Application: artifact.ApplicationInfo{Name: "Shop"},
		Website: artifact.Website{Pages: []artifact.PageRequest{
			{Name: "About Us"},
			{Name: "Sign-In/Up", RequiresAuth: true},
			{Name: "Home", Route: "/"},
			{},
		}},
	})
	got := make([][2]string, 0, len(plan.Pages))
	for _, p := range plan.Pages {
		got = append(got, [2]string{p.ID, p.Route})
	}
	want := [][2]string{{"about_us", "/about_us"}, {"sign_inup", "/sign_inup"}, {"home", "/"}, {"page_3", "/page_3"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("pages (-want +got):\n%s", diff)
	}
	require.True(t, plan.Pages[1].RequiresAuth)
	require.NotNil(t, plan.Pages[0].Components)
	require.Equal(t, "website", plan.Application.Type)
}

func TestWidgetDefaults(t *testing.T) {
	plan := Compose(artifact.ApplicationSpec{AIFeatures: []artifact.FeatureRequest{{Name: "Smart Search"}}})
	w, ok := plan.AIWidgets["smart_search"]
	require.True(t, ok)
	want := artifact.AIWidget{Label: "Smart Search", Endpoint: "/predict", InputSource: "model_metadata", OutputStyle: "cards", Visibility: "public"}
	if diff := cmp.Diff(want, w); diff != "" {
		t.Fatalf("widget (-want +got):\n%s", diff)
	}
	require.Equal(t, []string{"/context", "/predict"}, plan.BackendRoutes)
	require.True(t, plan.BuildFlags.MLRequired)
	require.Equal(t, "AutoDev App", plan.Application.Name)
}

func TestNoWidgets(t *testing.T) {
	plan := Compose(artifact.ApplicationSpec{})
	require.Equal(t, []string{"/context"}, plan.BackendRoutes)
	require.False(t, plan.BuildFlags.MLRequired)
	require.True(t, plan.BuildFlags.BackendRequired)
	require.True(t, plan.BuildFlags.FrontendRequired)
	require.NotNil(t, plan.AIWidgets)
}

func TestStageDerivesFromSpecification(t *testing.T) {
	ctx := context.Background()
	store := artifactrepo.NewMemoryStore()
	spec := artifact.Specification{
		ProjectIdentity: artifact.ProjectIdentity{Name: "Movie Finder", PrimaryGoal: "recommend films"},
		UISpec:          artifact.UISpec{Pages: []string{"Home", "About Us"}},
	}
	strat := artifact.Strategy{AIRequired: true, TaskType: artifact.TaskRecommendation}
	plan, err := Stage{Store: store}.Run(ctx, spec, strat)
	require.NoError(t, err)
	require.Equal(t, "Movie Finder", plan.Application.Name)
	require.Len(t, plan.Pages, 2)
	require.Contains(t, plan.AIWidgets, "recommendation")

	stored, err := artifactrepo.Read[artifact.ApplicationPlan](ctx, store, artifact.KindApplicationPlan, artifact.ApplicationPlanFile)
	require.NoError(t, err)
	if diff := cmp.Diff(plan, stored); diff != "" {
		t.Fatalf("stored plan (-want +got):\n%s", diff)
	}
}

func TestStagePrefersApplicationSpec(t *testing.T) {
	ctx := context.Background()
	store := artifactrepo.NewMemoryStore()
	req := artifact.ApplicationSpec{
		Application: artifact.ApplicationInfo{Name: "Chat App", Type: "website"},
		Website:     artifact.Website{Pages: []artifact.PageRequest{{Name: "Inbox"}}},
	}
	require.NoError(t, artifactrepo.Write(ctx, store, artifact.ApplicationSpecFile, req))
	spec := artifact.Specification{UISpec: artifact.UISpec{Pages: []string{"A", "B", "C"}}}
	plan, err := Stage{Store: store}.Run(ctx, spec, artifact.Strategy{})
	require.NoError(t, err)
	require.Len(t, plan.Pages, 1)
	require.Equal(t, "inbox", plan.Pages[0].ID)
}
