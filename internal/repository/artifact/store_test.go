package artifact

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Vansh-04/buildfirst/internal/artifact"
)

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"disk":   NewDiskStore(t.TempDir()),
		"memory": NewMemoryStore(),
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, "missing.json")
			require.ErrorIs(t, err, ErrNotFound)

			ok, err := s.Exists(ctx, "a/b.json")
			require.NoError(t, err)
			require.False(t, ok)

			require.NoError(t, s.Put(ctx, "a/b.json", []byte(`{"x":1}`)))
			require.NoError(t, s.Put(ctx, "a/c.json", []byte(`{}`)))
			require.NoError(t, s.Put(ctx, "top.json", []byte(`{}`)))

			got, err := s.Get(ctx, "a/b.json")
			require.NoError(t, err)
			require.Equal(t, `{"x":1}`, string(got))

			list, err := s.List(ctx, "a/")
			require.NoError(t, err)
			require.Equal(t, []string{"a/b.json", "a/c.json"}, list)

			all, err := s.List(ctx, "")
			require.NoError(t, err)
			require.Len(t, all, 3)

			require.NoError(t, s.Remove(ctx, "a/b.json"))
			require.NoError(t, s.Remove(ctx, "a/b.json"))
			ok, err = s.Exists(ctx, "a/b.json")
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestStoreRejectsEscapingPaths(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for _, p := range []string{"", "../x", "/etc/passwd", "a/../../b"} {
				if err := s.Put(ctx, p, []byte("x")); err == nil {
					t.Fatalf("expected error for %q", p)
				}
			}
		})
	}
}

func TestDiskStoreLeavesNoTempFiles(t *testing.T) {
	root := t.TempDir()
	s := NewDiskStore(root)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Put(ctx, "dir/file.json", []byte{byte('a' + i)}))
	}
	entries, err := os.ReadDir(filepath.Join(root, "dir"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	b, err := os.ReadFile(filepath.Join(root, "dir", "file.json"))
	require.NoError(t, err)
	require.Equal(t, "c", string(b))
}

func TestTypedReadWrite(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	in := artifact.NoData()
	require.NoError(t, Write(ctx, s, artifact.DataProfileFile, in))

	out, err := Read[artifact.DataProfile](ctx, s, artifact.KindDataProfile, artifact.DataProfileFile)
	require.NoError(t, err)
	require.Equal(t, in, out)

	require.NoError(t, s.Put(ctx, artifact.StrategyFile, []byte(`{"task_type":"x"}`)))
	_, err = Read[artifact.Strategy](ctx, s, artifact.KindStrategy, artifact.StrategyFile)
	var me *artifact.MalformedError
	require.ErrorAs(t, err, &me)

	_, err = Read[artifact.Strategy](ctx, s, artifact.KindStrategy, "nope.json")
	require.True(t, IsNotFound(err))

	missing, err := Missing(ctx, s, artifact.ModelSet...)
	require.NoError(t, err)
	require.Equal(t, artifact.ModelSet, missing)
}

func TestLikePrefixEscapesWildcards(t *testing.T) {
	require.Equal(t, `generated\_projects/%`, likePrefix("generated_projects/"))
	require.Equal(t, "%", likePrefix(""))
}
