// Package app wires configuration into stores, the generative capability
// and the pipeline environment.
package app

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/Vansh-04/buildfirst/internal/artifact"
	"github.com/Vansh-04/buildfirst/internal/config"
	"github.com/Vansh-04/buildfirst/internal/llm"
	artifactrepo "github.com/Vansh-04/buildfirst/internal/repository/artifact"
	"github.com/Vansh-04/buildfirst/internal/runner"
)

type App struct {
	Config config.Config
	Logger *zap.Logger
	Store  artifactrepo.Store
	// LLM is nil when the capability is not configured.
	LLM llm.Client

	closers []io.Closer
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	store, closer, err := openStore(cfg, log)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Logger: log, Store: store}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}
	cli, err := llm.NewFromConfig(ctx, llm.Options{
		Provider:   cfg.LLM.Provider,
		Model:      cfg.LLM.Model,
		APIKey:     cfg.LLM.APIKey,
		RPS:        cfg.LLM.RPS,
		MaxRetries: cfg.LLM.MaxRetries,
	}, log)
	switch {
	case errors.Is(err, llm.ErrUnavailable):
		log.Warn("generative capability not configured; deterministic fallbacks will be used")
	case err != nil:
		_ = a.Close()
		return nil, err
	default:
		a.LLM = cli
		a.closers = append(a.closers, cli)
	}
	return a, nil
}

// Policy converts the configured policy into the pipeline's form.
func Policy(cfg config.PolicyConfig) runner.Policy {
	p := runner.DefaultPolicy()
	if len(cfg.ClassificationKeywords) > 0 {
		p.Strategy.ClassificationKeywords = cfg.ClassificationKeywords
	}
	if cfg.DefaultTask != "" {
		p.Strategy.DefaultTask = artifact.TaskType(cfg.DefaultTask)
	}
	setPositive(&p.Strategy.KNNNeighbors, cfg.KNNNeighbors)
	setPositive(&p.Strategy.ForestTrees, cfg.ForestTrees)
	setPositive(&p.Strategy.ForestMaxDepth, cfg.ForestMaxDepth)
	setPositive(&p.FrontendMaxAttempts, cfg.FrontendMaxAttempts)
	if cfg.Explain != nil {
		p.Strategy.Explain = *cfg.Explain
	}
	return p
}

func setPositive(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

// Env returns a fresh pipeline environment.
func (a *App) Env() *runner.Env {
	return &runner.Env{
		Store:       a.Store,
		LLM:         a.LLM,
		Logger:      a.Logger,
		Policy:      Policy(a.Config.Policy),
		DatasetPath: a.Config.Dataset,
	}
}

func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}
