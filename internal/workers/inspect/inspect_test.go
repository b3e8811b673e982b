package inspect

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Vansh-04/buildfirst/internal/artifact"
	"github.com/Vansh-04/buildfirst/internal/healer"
	artifactrepo "github.com/Vansh-04/buildfirst/internal/repository/artifact"
)

func writeFile(t *testing.T, name, content string) string {
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestProfileNoData(t *testing.T) {
	for _, p := range []string{"", "/definitely/not/here.csv"} {
		got, err := Profile(p)
		require.NoError(t, err)
		require.Equal(t, artifact.NoData(), got)
	}
}

func TestProfileCSV(t *testing.T) {
	p := writeFile(t, "iris.csv", "sepal,petal,species\n1,2,setosa\n3,4,virginica\n")
	got, err := Profile(p)
	require.NoError(t, err)
	require.True(t, got.DataPresent)
	require.Equal(t, artifact.ModalityTabular, got.Modality)
	require.Equal(t, 2, got.Rows)
	require.Equal(t, 3, got.Columns)
	require.Equal(t, "species", got.TargetColumn)
	require.True(t, got.TargetDetected)
	require.NotEmpty(t, got.Digest)
}

func TestProfileOtherModalities(t *testing.T) {
	got, err := Profile(writeFile(t, "notes.txt", "hello"))
	require.NoError(t, err)
	require.Equal(t, artifact.ModalityText, got.Modality)

	got, err = Profile(writeFile(t, "cat.PNG", "png"))
	require.NoError(t, err)
	require.Equal(t, artifact.ModalityImage, got.Modality)

	_, err = Profile(writeFile(t, "data.parquet", "x"))
	require.Equal(t, healer.DatasetIncompatible, healer.Classify(err))
}

func TestStageSkipsIdenticalProfile(t *testing.T) {
	ctx := context.Background()
	store := artifactrepo.NewMemoryStore()
	st := Stage{Store: store, Logger: zaptest.NewLogger(t)}

	p := writeFile(t, "d.csv", "a,b\n1,2\n")
	_, wrote, err := st.Run(ctx, p)
	require.NoError(t, err)
	require.True(t, wrote)

	_, wrote, err = st.Run(ctx, p)
	require.NoError(t, err)
	require.False(t, wrote)

	require.NoError(t, os.WriteFile(p, []byte("a,b\n1,2\n3,4\n"), 0o644))
	prof, wrote, err := st.Run(ctx, p)
	require.NoError(t, err)
	require.True(t, wrote)
	require.Equal(t, 2, prof.Rows)
}
