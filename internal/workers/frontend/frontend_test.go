package frontend

import (
	"context"
	"path"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Vansh-04/buildfirst/internal/artifact"
	"github.com/Vansh-04/buildfirst/internal/llm"
	artifactrepo "github.com/Vansh-04/buildfirst/internal/repository/artifact"
)

var plan = artifact.ApplicationPlan{
	Application: artifact.ApplicationInfo{Name: "Movie Finder"},
	Pages: []artifact.Page{
		{ID: "home", Title: "Home", Route: "/home"},
		{ID: "about_us", Title: "About Us", Route: "/about_us"},
	},
	AIWidgets: map[string]artifact.AIWidget{
		"smart_search": {Label: "Smart Search", Endpoint: "/predict", OutputStyle: "cards"},
	},
}

const goodHTML = `<HTML><BODY><nav><a href="#home">Home</a></nav><section id="home"></section></BODY></HTML>`

func TestValidateIsCaseInsensitive(t *testing.T) {
	require.NoError(t, Validate(goodHTML))
	err := Validate("<html><body></body></html>")
	require.ErrorContains(t, err, "<section")
}

func TestFallbackLinksEverySection(t *testing.T) {
	doc := Fallback(plan)
	require.NoError(t, Validate(doc))
	for _, id := range []string{"home", "about_us", "smart_search"} {
		require.Contains(t, doc, `href="#`+id+`"`)
		require.Contains(t, doc, `<section id="`+id+`"`)
	}
	require.NoError(t, Validate(Fallback(artifact.ApplicationPlan{})))
}

func TestThreeInvalidAttemptsThenFallback(t *testing.T) {
	ctx := context.Background()
	store := artifactrepo.NewMemoryStore()
	fake := llm.NewFakeText("<div>nope</div>")
	res, err := Stage{Store: store, LLM: fake}.Run(ctx, plan)
	require.NoError(t, err)
	require.Equal(t, 3, fake.Calls())
	require.Equal(t, 3, res.Attempts)
	require.Equal(t, artifact.ProvenanceFallback, res.Provenance)

	b, err := store.Get(ctx, path.Join(artifact.FrontendDir("Movie Finder"), artifact.IndexFile))
	require.NoError(t, err)
	require.True(t, strings.Contains(string(b), `<section id="about_us"`))
}

func TestSecondAttemptAccepted(t *testing.T) {
	fake := llm.NewFakeText("<p>bad</p>", goodHTML)
	res, err := Stage{Store: artifactrepo.NewMemoryStore(), LLM: fake}.Run(context.Background(), plan)
	require.NoError(t, err)
	require.Equal(t, artifact.ProvenanceGenerated, res.Provenance)
	require.Equal(t, 2, res.Attempts)
}

func TestNoCapabilityUsesFallbackWithoutCalls(t *testing.T) {
	res, err := Stage{Store: artifactrepo.NewMemoryStore()}.Run(context.Background(), plan)
	require.NoError(t, err)
	require.Equal(t, artifact.ProvenanceFallback, res.Provenance)
	require.Zero(t, res.Attempts)
}
