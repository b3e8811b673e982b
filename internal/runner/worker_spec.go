package runner

import (
	"context"

	"github.com/Vansh-04/buildfirst/internal/artifact"
)

// StageResult is what a stage reports besides its error.
type StageResult struct {
	Outcome artifact.StageOutcome
	Detail  string
}

// StageSpec declares what a stage needs, not how the pipeline calls it.
type StageSpec struct {
	Key         string
	Description string

	// Requires lists artifact paths that must exist; otherwise the stage is
	// skipped. Paths may depend on artifacts written by earlier stages.
	Requires func(ctx context.Context, env *Env) []string
	Run      func(ctx context.Context, env *Env) (StageResult, error)

	// Output and Fingerprint enable the meta cache: when the recorded input
	// fingerprint matches, Run is not called.
	Output      string
	Fingerprint func(ctx context.Context, env *Env) (any, error)
	Strategy    CacheStrategy
}

// CacheStrategy abstracts how a stage's output is reused across runs.
type CacheStrategy interface {
	// Hit reports whether out is current for inputFP and not forced.
	Hit(ctx context.Context, spec StageSpec, env *Env, inputFP string) bool
	// Save records inputFP for the freshly written output.
	Save(ctx context.Context, spec StageSpec, env *Env, inputFP string) error
	// Invalidate drops the record so the next run rebuilds.
	Invalidate(ctx context.Context, spec StageSpec, env *Env) error
}
