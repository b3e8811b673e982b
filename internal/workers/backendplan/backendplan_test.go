package backendplan

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/Vansh-04/buildfirst/internal/artifact"
	"github.com/Vansh-04/buildfirst/internal/healer"
	artifactrepo "github.com/Vansh-04/buildfirst/internal/repository/artifact"
)

var onePage = artifact.ApplicationPlan{
	Application: artifact.ApplicationInfo{Name: "Shop", Type: "website"},
	Pages:       []artifact.Page{{ID: "home", Title: "Home", Route: "/home", Components: []string{}}},
}

var aiStrategy = artifact.Strategy{
	AIRequired:       true,
	LearningParadigm: "ml",
	TaskType:         artifact.TaskRecommendation,
	ModelStrategy:    &artifact.ModelStrategy{ModelFamily: artifact.FamilyKNN, Hyperparameters: map[string]int{"n_neighbors": 3}},
}

func TestOnePageWithAIHasThreeRoutes(t *testing.T) {
	plan := Plan(onePage, aiStrategy)
	want := []artifact.Route{
		{Path: "/home", Method: "GET", Purpose: "Home"},
		{Path: "/health", Method: "GET", Purpose: "Health check"},
		{Path: "/predict", Method: "POST", Purpose: "AI inference"},
	}
	if diff := cmp.Diff(want, plan.Routes); diff != "" {
		t.Fatalf("routes (-want +got):\n%s", diff)
	}
	require.Equal(t, artifact.FamilyKNN, plan.AI.ModelFamily)
	require.Equal(t, artifact.ModelFile, plan.Artifacts.Model)
}

func TestNoAI(t *testing.T) {
	plan := Plan(onePage, artifact.Strategy{})
	require.Len(t, plan.Routes, 2)
	require.False(t, plan.AI.Enabled)
	require.Empty(t, plan.Artifacts.Model)
	require.Equal(t, "fastapi", plan.Stack.Framework)
}

func TestMissingModelArtifact(t *testing.T) {
	ctx := context.Background()
	store := artifactrepo.NewMemoryStore()
	require.NoError(t, store.Put(ctx, artifact.ModelFile, []byte("x")))
	_, err := Stage{Store: store}.Run(ctx, onePage, aiStrategy)
	out := healer.Judge(err)
	require.Equal(t, healer.MissingModelArtifact, out.Kind)
	require.Equal(t, healer.RetrainRequired, out.Remedy)

	ok, err := store.Exists(ctx, artifact.BackendPlanPath("Shop"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStageWritesPlan(t *testing.T) {
	ctx := context.Background()
	store := artifactrepo.NewMemoryStore()
	_, err := Stage{Store: store}.Run(ctx, onePage, artifact.Strategy{})
	require.NoError(t, err)
	got, err := artifactrepo.Read[artifact.BackendPlan](ctx, store, artifact.KindBackendPlan, "generated_projects/shop/backend/backend_plan.json")
	require.NoError(t, err)
	require.Len(t, got.Routes, 2)
}
