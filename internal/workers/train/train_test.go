package train

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Vansh-04/buildfirst/internal/artifact"
	"github.com/Vansh-04/buildfirst/internal/healer"
	"github.com/Vansh-04/buildfirst/internal/ml"
	artifactrepo "github.com/Vansh-04/buildfirst/internal/repository/artifact"
	"github.com/Vansh-04/buildfirst/internal/workers/inspect"
	"github.com/Vansh-04/buildfirst/internal/workers/strategy"
)

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return p
}

func profileOf(t *testing.T, path string) artifact.DataProfile {
	t.Helper()
	p, err := inspect.Profile(path)
	require.NoError(t, err)
	return p
}

func decide(goal string, p artifact.DataProfile) artifact.Strategy {
	spec := artifact.Specification{ProjectIdentity: artifact.ProjectIdentity{Name: "x", PrimaryGoal: goal}}
	return strategy.Decide(spec, p, strategy.DefaultPolicy())
}

const movies = "Unnamed: 0,id,rating,year,genre\n0,10,4.5,1999,drama\n1,11,3.0,2004,comedy\n2,12,5.0,2010,drama\n3,13,2.5,1987,horror\n"

func TestRecommendationWritesConsistentSet(t *testing.T) {
	ctx := context.Background()
	path := writeCSV(t, movies)
	prof := profileOf(t, path)
	store := artifactrepo.NewMemoryStore()
	st := Stage{Store: store, Logger: zaptest.NewLogger(t)}

	res, err := st.Run(ctx, decide("recommend movies", prof), prof, "")
	require.NoError(t, err)
	require.False(t, res.Cached)
	require.Equal(t, []string{"rating", "year"}, res.Metadata.FeatureNames)

	md, err := artifactrepo.Read[artifact.ModelMetadata](ctx, store, artifact.KindModelMetadata, artifact.ModelMetadataFile)
	require.NoError(t, err)
	require.Equal(t, len(md.FeatureNames), md.FeatureCount)

	b, err := store.Get(ctx, artifact.PreprocessorFile)
	require.NoError(t, err)
	scaler, err := ml.DecodeStandardizer(b)
	require.NoError(t, err)
	require.Equal(t, md.FeatureCount, scaler.Dim())

	b, err = store.Get(ctx, artifact.ModelFile)
	require.NoError(t, err)
	model, err := ml.DecodeModel(b)
	require.NoError(t, err)
	require.Equal(t, artifact.FamilyKNN, model.Family)
	require.Len(t, model.KNN.Points[0], md.FeatureCount)
}

func TestSecondRunIsCached(t *testing.T) {
	ctx := context.Background()
	path := writeCSV(t, movies)
	prof := profileOf(t, path)
	st := Stage{Store: artifactrepo.NewMemoryStore()}
	strat := decide("recommend", prof)

	_, err := st.Run(ctx, strat, prof, "")
	require.NoError(t, err)
	res, err := st.Run(ctx, strat, prof, "")
	require.NoError(t, err)
	require.True(t, res.Cached)

	if err := os.WriteFile(path, []byte(movies+"4,14,4.0,2020,drama\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err = st.Run(ctx, strat, profileOf(t, path), "")
	require.NoError(t, err)
	require.False(t, res.Cached, "changed dataset must retrain")
	require.Equal(t, 5, res.Metadata.Rows)
}

func TestOnlyIndexColumnsIsFatalAndWritesNothing(t *testing.T) {
	ctx := context.Background()
	path := writeCSV(t, "Unnamed: 0,id\n0,1\n1,2\n")
	prof := profileOf(t, path)
	store := artifactrepo.NewMemoryStore()

	_, err := Stage{Store: store}.Run(ctx, decide("recommend", prof), prof, "")
	kind, ok := healer.KindOf(err)
	require.True(t, ok)
	require.Equal(t, healer.NoUsableFeatures, kind)
	require.Equal(t, healer.Fatal, healer.Judge(err).Verdict)

	missing, err := artifactrepo.Missing(ctx, store, artifact.ModelSet...)
	require.NoError(t, err)
	require.ElementsMatch(t, artifact.ModelSet, missing)
}

func TestClassificationNeedsTarget(t *testing.T) {
	path := writeCSV(t, "a,b\n1,2\n3,4\n")
	prof := profileOf(t, path)
	_, err := Stage{Store: artifactrepo.NewMemoryStore()}.Run(context.Background(), decide("classify rows", prof), prof, "")
	kind, _ := healer.KindOf(err)
	require.Equal(t, healer.TargetColumnMissing, kind)
	require.Equal(t, healer.SwitchToRecommendation, healer.Judge(err).Remedy)
}

func TestClassificationTrainsForest(t *testing.T) {
	ctx := context.Background()
	path := writeCSV(t, "x1,x2,label\n0,0,a\n0,1,a\n5,5,b\n5,6,b\n")
	prof := profileOf(t, path)
	res, err := Stage{Store: artifactrepo.NewMemoryStore()}.Run(ctx, decide("classification", prof), prof, "")
	require.NoError(t, err)
	require.Equal(t, artifact.FamilyRandomForest, res.Metadata.ModelFamily)
	require.Equal(t, "label", res.Metadata.TargetColumn)
	require.Equal(t, []string{"x1", "x2"}, res.Metadata.FeatureNames)
}

func TestSkipAndMissingDataset(t *testing.T) {
	ctx := context.Background()
	st := Stage{Store: artifactrepo.NewMemoryStore()}
	res, err := st.Run(ctx, artifact.Strategy{AIRequired: false}, artifact.NoData(), "")
	require.NoError(t, err)
	require.True(t, res.Skipped)

	_, err = st.Run(ctx, artifact.Strategy{AIRequired: true, TaskType: artifact.TaskRecommendation}, artifact.NoData(), "")
	kind, _ := healer.KindOf(err)
	require.Equal(t, healer.MissingDataset, kind)
}

type failingStore struct {
	artifactrepo.Store
	failOn string
}

func (f failingStore) Put(ctx context.Context, p string, b []byte) error {
	if p == f.failOn {
		return errors.New("disk full")
	}
	return f.Store.Put(ctx, p, b)
}

func TestPartialWriteIsRolledBack(t *testing.T) {
	ctx := context.Background()
	path := writeCSV(t, movies)
	prof := profileOf(t, path)
	mem := artifactrepo.NewMemoryStore()
	_, err := Stage{Store: failingStore{Store: mem, failOn: artifact.ModelMetadataFile}}.Run(ctx, decide("recommend", prof), prof, "")
	require.Error(t, err)
	for _, p := range artifact.ModelSet {
		ok, err := mem.Exists(ctx, p)
		require.NoError(t, err)
		require.False(t, ok, p)
	}
}
