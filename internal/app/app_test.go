package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Vansh-04/buildfirst/internal/artifact"
	artifactcache "github.com/Vansh-04/buildfirst/internal/cache/artifact"
	"github.com/Vansh-04/buildfirst/internal/config"
	artifactrepo "github.com/Vansh-04/buildfirst/internal/repository/artifact"
)

func TestNewWithoutCapability(t *testing.T) {
	cfg := config.Default()
	cfg.Workspace = t.TempDir()
	cfg.LLM.Provider = "none"
	a, err := New(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer a.Close()
	require.Nil(t, a.LLM)
	_, ok := a.Store.(*artifactrepo.DiskStore)
	require.True(t, ok)
	require.Nil(t, a.Env().LLM)
}

func TestFakeProviderAndCachedMemoryStore(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.Provider = "fake"
	cfg.Store.Backend = "memory"
	cfg.Store.Cache = true
	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()
	require.NotNil(t, a.LLM)
	_, ok := a.Store.(*artifactcache.CachedStore)
	require.True(t, ok)
}

func TestUnknownProvider(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Backend = "memory"
	cfg.LLM.Provider = "oracle"
	_, err := New(context.Background(), cfg, nil)
	require.Error(t, err)
}

func TestPolicyMapping(t *testing.T) {
	off := false
	p := Policy(config.PolicyConfig{
		ClassificationKeywords: []string{"categor"},
		DefaultTask:            "classification",
		ForestTrees:            10,
		FrontendMaxAttempts:    2,
		Explain:                &off,
	})
	require.Equal(t, []string{"categor"}, p.Strategy.ClassificationKeywords)
	require.Equal(t, artifact.TaskClassification, p.Strategy.DefaultTask)
	require.Equal(t, 10, p.Strategy.ForestTrees)
	require.Equal(t, 3, p.Strategy.KNNNeighbors)
	require.Equal(t, 2, p.FrontendMaxAttempts)
	require.False(t, p.Strategy.Explain)
}
