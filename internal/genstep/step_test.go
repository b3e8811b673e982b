package genstep

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Vansh-04/buildfirst/internal/artifact"
	"github.com/Vansh-04/buildfirst/internal/llm"
	artifactrepo "github.com/Vansh-04/buildfirst/internal/repository/artifact"
)

type page struct{ Name string }

func testStep(t *testing.T, cli llm.Client, store artifactrepo.Store, attempts int) Step[page] {
	s := Step[page]{
		Kind:        "greeting",
		Primary:     "hello.txt",
		MaxAttempts: attempts,
		Prompt:      func(p page) (string, error) { return "greet " + p.Name, nil },
		Validate: func(s string) error {
			if !strings.HasPrefix(s, "hello") {
				return fmt.Errorf("missing hello")
			}
			return nil
		},
		Fallback: func(p page) string { return "hello " + p.Name },
		Aux: func(p page) []File {
			return []File{{Name: "notes.txt", Content: []byte("for " + p.Name)}}
		},
		Store:  store,
		Logger: zaptest.NewLogger(t),
	}
	if cli != nil {
		s.LLM = cli
	}
	return s
}

func readManifest(t *testing.T, store artifactrepo.Store, dir string) artifact.GenerationManifest {
	m, err := artifactrepo.Read[artifact.GenerationManifest](context.Background(), store, artifact.KindManifest, dir+"/"+artifact.ManifestFile)
	require.NoError(t, err)
	return m
}

func TestProduceGenerated(t *testing.T) {
	store := artifactrepo.NewMemoryStore()
	fake := llm.NewFakeText("```\nhello from model\n```")
	res, err := testStep(t, fake, store, 1).Produce(context.Background(), "out", page{Name: "ann"})
	require.NoError(t, err)
	require.Equal(t, artifact.ProvenanceGenerated, res.Provenance)

	b, err := store.Get(context.Background(), "out/hello.txt")
	require.NoError(t, err)
	require.Equal(t, "hello from model", string(b))

	m := readManifest(t, store, "out")
	require.Equal(t, []string{"hello.txt", "notes.txt"}, m.Files)
	require.Equal(t, "FakeLLM", m.Generator)
	require.Len(t, m.InputDigest, 64)
}

func TestProduceRetriesThenFallsBack(t *testing.T) {
	store := artifactrepo.NewMemoryStore()
	fake := llm.NewFakeText("nope")
	res, err := testStep(t, fake, store, 3).Produce(context.Background(), "out", page{Name: "bo"})
	require.NoError(t, err)
	require.Equal(t, artifact.ProvenanceFallback, res.Provenance)
	require.Equal(t, 3, fake.Calls())
	require.Equal(t, 3, res.Attempts)

	b, _ := store.Get(context.Background(), "out/hello.txt")
	require.Equal(t, "hello bo", string(b))
	require.Contains(t, readManifest(t, store, "out").Failure, "missing hello")
}

func TestProduceSucceedsOnLaterAttempt(t *testing.T) {
	store := artifactrepo.NewMemoryStore()
	fake := llm.NewFakeClient(
		llm.FakeReply{Err: errors.New("transient")},
		llm.FakeReply{Text: "bad"},
		llm.FakeReply{Text: "hello third"},
	)
	res, err := testStep(t, fake, store, 3).Produce(context.Background(), "out", page{Name: "c"})
	require.NoError(t, err)
	require.Equal(t, artifact.ProvenanceGenerated, res.Provenance)
	require.Equal(t, 3, res.Attempts)
}

func TestProduceWithoutCapability(t *testing.T) {
	store := artifactrepo.NewMemoryStore()
	res, err := testStep(t, nil, store, 3).Produce(context.Background(), "out", page{Name: "d"})
	require.NoError(t, err)
	require.Equal(t, artifact.ProvenanceFallback, res.Provenance)
	require.Equal(t, 0, res.Attempts)
	require.Empty(t, readManifest(t, store, "out").Generator)
}

func TestProduceIsCachedOnRerun(t *testing.T) {
	store := artifactrepo.NewMemoryStore()
	fake := llm.NewFakeText("hello")
	step := testStep(t, fake, store, 3)
	_, err := step.Produce(context.Background(), "out", page{Name: "e"})
	require.NoError(t, err)

	res, err := step.Produce(context.Background(), "out", page{Name: "e"})
	require.NoError(t, err)
	require.True(t, res.Cached)
	require.Equal(t, 1, fake.Calls())
}

func TestProduceRegeneratesWhenInputChanges(t *testing.T) {
	ctx := context.Background()
	store := artifactrepo.NewMemoryStore()
	fake := llm.NewFakeText("hello")
	step := testStep(t, fake, store, 3)
	first, err := step.Produce(ctx, "out", page{Name: "e"})
	require.NoError(t, err)
	require.False(t, first.Cached)

	res, err := step.Produce(ctx, "out", page{Name: "renamed"})
	require.NoError(t, err)
	require.False(t, res.Cached)
	require.Equal(t, 2, fake.Calls())

	want, err := Digest(page{Name: "renamed"})
	require.NoError(t, err)
	require.Equal(t, want, readManifest(t, store, "out").InputDigest)
}

type failingStore struct {
	*artifactrepo.MemoryStore
}

func (failingStore) Put(context.Context, string, []byte) error { return errors.New("disk full") }

func TestProduceSurfacesWriteFailure(t *testing.T) {
	store := failingStore{artifactrepo.NewMemoryStore()}
	_, err := testStep(t, nil, store, 1).Produce(context.Background(), "out", page{Name: "f"})
	require.ErrorContains(t, err, "disk full")
}

func TestBoundedStopsWhenUnavailable(t *testing.T) {
	calls := 0
	_, n, err := Bounded(context.Background(), 3, func(context.Context, int) (string, error) {
		calls++
		return "", llm.ErrUnavailable
	}, func(string) error { return nil })
	require.ErrorIs(t, err, ErrValidationExhausted)
	require.Equal(t, 1, n)
	require.Equal(t, 1, calls)
}

func TestBoundedHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, n, err := Bounded(ctx, 3, func(context.Context, int) (string, error) { return "x", nil }, func(string) error { return nil })
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, n)
}
