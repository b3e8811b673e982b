package intake

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Vansh-04/buildfirst/internal/artifact"
	"github.com/Vansh-04/buildfirst/internal/healer"
	artifactrepo "github.com/Vansh-04/buildfirst/internal/repository/artifact"
)

func TestLoad(t *testing.T) {
	ctx := context.Background()
	log := zaptest.NewLogger(t)
	store := artifactrepo.NewMemoryStore()

	_, err := Load(ctx, store, log)
	require.ErrorIs(t, err, ErrSpecMissing)
	require.Equal(t, healer.InputMissing, healer.Classify(err))

	draft := Draft("Shop", "recommend products", "", nil, time.Unix(0, 0))
	require.NoError(t, artifactrepo.Write(ctx, store, artifact.SpecificationFile, draft))
	_, err = Load(ctx, store, log)
	require.ErrorIs(t, err, ErrNotApproved)

	draft.Handoff.Approved = true
	require.NoError(t, artifactrepo.Write(ctx, store, artifact.SpecificationFile, draft))
	spec, err := Load(ctx, store, log)
	require.NoError(t, err)
	require.Equal(t, "Shop", spec.ProjectIdentity.Name)
	require.Equal(t, []string{"Home", "About Us"}, spec.UISpec.Pages)

	require.NoError(t, store.Put(ctx, artifact.SpecificationFile, []byte(`{"handoff":{"approved":true}}`)))
	_, err = Load(ctx, store, log)
	var me *artifact.MalformedError
	require.True(t, errors.As(err, &me))
}
