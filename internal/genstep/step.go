package genstep

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/zeebo/blake3"
	"go.uber.org/zap"

	"github.com/Vansh-04/buildfirst/internal/artifact"
	"github.com/Vansh-04/buildfirst/internal/llm"
	artifactrepo "github.com/Vansh-04/buildfirst/internal/repository/artifact"
)

// File is an auxiliary output written beside the primary artifact.
type File struct {
	Name    string
	Content []byte
}

// Step describes one kind of generated artifact. The same Step value is
// reusable across output locations.
type Step[In any] struct {
	Kind        string
	Primary     string
	MaxAttempts int
	// Force ignores existing outputs.
	Force bool

	Prompt   func(In) (string, error)
	Clean    func(string) string
	Validate func(string) error
	Fallback func(In) string
	Aux      func(In) []File

	LLM    llm.Client
	Store  artifactrepo.Store
	Logger *zap.Logger
	Now    func() time.Time
}

// Result describes what Produce did.
type Result struct {
	Dir        string
	Cached     bool
	Provenance artifact.Provenance
	Attempts   int
	Files      []string
}

// Outputs lists every file a finished run leaves in dir, manifest last.
func (s Step[In]) Outputs(in In) []string {
	names := []string{s.Primary}
	if s.Aux != nil {
		for _, f := range s.Aux(in) {
			names = append(names, f.Name)
		}
	}
	return append(names, artifact.ManifestFile)
}

// Produce writes the artifact for in under dir. Only store failures are
// returned; every capability or validation problem degrades to Fallback.
func (s Step[In]) Produce(ctx context.Context, dir string, in In) (Result, error) {
	log := s.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("step", s.Kind), zap.String("dir", dir))
	res := Result{Dir: dir}

	outputs := s.Outputs(in)
	paths := make([]string, len(outputs))
	for i, name := range outputs {
		paths[i] = path.Join(dir, name)
	}
	digest, err := inputDigest(in)
	if err != nil {
		return res, err
	}
	done := false
	if !s.Force {
		done, err = s.current(ctx, paths, digest, log)
	}
	if err != nil {
		return res, err
	}
	if done {
		log.Info("using cache", zap.String("path", paths[0]))
		res.Cached = true
		res.Files = outputs
		return res, nil
	}

	content, attempts, failure := s.primary(ctx, in, log)
	res.Attempts = attempts
	res.Provenance = artifact.ProvenanceGenerated
	if failure != "" {
		res.Provenance = artifact.ProvenanceFallback
		content = s.Fallback(in)
		if err := s.Validate(content); err != nil {
			return res, fmt.Errorf("%s fallback rejected by its own validator: %w", s.Kind, err)
		}
		log.Warn("using fallback", zap.String("reason", failure), zap.Int("attempts", attempts))
	}

	if err := s.Store.Put(ctx, paths[0], []byte(content)); err != nil {
		return res, fmt.Errorf("write %s: %w", paths[0], err)
	}
	if s.Aux != nil {
		for _, f := range s.Aux(in) {
			p := path.Join(dir, f.Name)
			if err := s.Store.Put(ctx, p, f.Content); err != nil {
				return res, fmt.Errorf("write %s: %w", p, err)
			}
		}
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	generator := ""
	if s.LLM != nil {
		generator = s.LLM.Name()
	}
	manifest := artifact.GenerationManifest{
		Kind:        s.Kind,
		Provenance:  res.Provenance,
		Files:       outputs[:len(outputs)-1],
		Attempts:    attempts,
		InputDigest: digest,
		Generator:   generator,
		Failure:     failure,
		GeneratedAt: now().UTC(),
	}
	if err := artifactrepo.Write(ctx, s.Store, paths[len(paths)-1], manifest); err != nil {
		return res, err
	}
	log.Info(s.Kind+" → "+paths[0], zap.String("provenance", string(res.Provenance)))
	res.Files = outputs
	return res, nil
}

// current reports whether every output exists and the manifest was
// written for the same input digest. The manifest is the last path.
func (s Step[In]) current(ctx context.Context, paths []string, digest string, log *zap.Logger) (bool, error) {
	done, err := artifactrepo.AllExist(ctx, s.Store, paths...)
	if err != nil || !done {
		return false, err
	}
	m, err := artifactrepo.Read[artifact.GenerationManifest](ctx, s.Store, artifact.KindManifest, paths[len(paths)-1])
	var malformed *artifact.MalformedError
	switch {
	case errors.As(err, &malformed):
		log.Warn("manifest unreadable; regenerating", zap.Error(err))
		return false, nil
	case err != nil:
		return false, err
	}
	if m.InputDigest != digest {
		log.Info("inputs changed; regenerating")
		return false, nil
	}
	return true, nil
}

// primary runs the capability path. A non-empty failure means the caller
// must fall back.
func (s Step[In]) primary(ctx context.Context, in In, log *zap.Logger) (string, int, string) {
	if s.LLM == nil {
		return "", 0, llm.ErrUnavailable.Error()
	}
	prompt, err := s.Prompt(in)
	if err != nil {
		return "", 0, fmt.Sprintf("build prompt: %v", err)
	}
	clean := s.Clean
	if clean == nil {
		clean = llm.StripFences
	}
	ctx = llm.WithPhase(ctx, s.Kind)
	out, n, err := Bounded(ctx, s.MaxAttempts, func(ctx context.Context, n int) (string, error) {
		log.Debug("generation attempt", zap.Int("attempt", n))
		text, err := s.LLM.Generate(ctx, prompt)
		if err != nil {
			return "", err
		}
		return clean(text), nil
	}, s.Validate)
	if err != nil {
		return "", n, err.Error()
	}
	return out, n, ""
}

// Digest is the hex blake3 of v's JSON encoding.
func Digest(v any) (string, error) {
	return inputDigest(v)
}

func inputDigest(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("digest input: %w", err)
	}
	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
