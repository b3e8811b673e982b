package runner

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Vansh-04/buildfirst/internal/artifact"
	artifactrepo "github.com/Vansh-04/buildfirst/internal/repository/artifact"
)

// --------------------- meta file strategy ---------------------

type metaStrategy struct{}

// MetaStrategy records the input fingerprint next to the output artifact.
func MetaStrategy() CacheStrategy { return metaStrategy{} }

type cacheMeta struct {
	Inputs    string    `json:"inputs"`
	CreatedAt time.Time `json:"created_at"`
}

func (metaStrategy) Hit(ctx context.Context, spec StageSpec, env *Env, inputFP string) bool {
	if env.Forced() {
		return false
	}
	if ok, err := env.Store.Exists(ctx, spec.Output); err != nil || !ok {
		return false
	}
	b, err := env.Store.Get(ctx, artifact.MetaPath(spec.Output))
	if err != nil {
		return false
	}
	var m cacheMeta
	if err := json.Unmarshal(b, &m); err != nil {
		return false
	}
	if m.Inputs != inputFP {
		return false
	}
	env.logger().Info(strings.ToUpper(spec.Key)+": using cache → "+spec.Output, zap.String("stage", spec.Key))
	return true
}

func (metaStrategy) Save(ctx context.Context, spec StageSpec, env *Env, inputFP string) error {
	return artifactrepo.Write(ctx, env.Store, artifact.MetaPath(spec.Output), cacheMeta{Inputs: inputFP, CreatedAt: env.now()})
}

func (metaStrategy) Invalidate(ctx context.Context, spec StageSpec, env *Env) error {
	err := env.Store.Remove(ctx, artifact.MetaPath(spec.Output))
	if artifactrepo.IsNotFound(err) {
		return nil
	}
	return err
}

// --------------------- no cache -------------------------

type noCache struct{}

// NoCache always runs the stage. Stages using it manage reuse themselves.
func NoCache() CacheStrategy { return noCache{} }

func (noCache) Hit(context.Context, StageSpec, *Env, string) bool   { return false }
func (noCache) Save(context.Context, StageSpec, *Env, string) error { return nil }
func (noCache) Invalidate(context.Context, StageSpec, *Env) error   { return nil }
