package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Vansh-04/buildfirst/internal/artifact"
	"github.com/Vansh-04/buildfirst/internal/genstep"
	"github.com/Vansh-04/buildfirst/internal/healer"
	"github.com/Vansh-04/buildfirst/internal/llm"
	artifactrepo "github.com/Vansh-04/buildfirst/internal/repository/artifact"
	"github.com/Vansh-04/buildfirst/internal/workers/strategy"
)

// ErrRunFailed wraps the fatal stage error returned by Run.
var ErrRunFailed = errors.New("build failed")

// Pipeline runs the stage table in order.
type Pipeline struct {
	Env    *Env
	Stages []StageSpec
}

func New(env *Env) *Pipeline {
	return &Pipeline{Env: env, Stages: BuildStages()}
}

type run struct {
	p       *Pipeline
	env     *Env
	status  artifact.RunStatus
	counter *llm.CallCounter
	emit    RunEventEmitter
}

// Run executes every stage once, applying the healer's verdict. The Run
// Status is written at start, after each stage and at the end.
func (p *Pipeline) Run(ctx context.Context) (artifact.RunStatus, error) {
	env := p.Env
	forceFrom, err := p.forceIndex()
	if err != nil {
		return artifact.RunStatus{}, err
	}
	defer func() { env.forcing = false }()
	r := &run{p: p, env: env, counter: llm.NewCallCounter(), emit: EmitterFrom(ctx)}
	now := env.now()
	r.status = artifact.RunStatus{
		RunID:     uuid.NewString(),
		Status:    artifact.RunStarted,
		StartedAt: now,
		UpdatedAt: now,
		Stages:    []artifact.StageRecord{},
	}
	base := env.LLM
	if base != nil {
		env.LLM = llm.WithHook(llm.Wrap(base, llm.WithHooks()), r.counter)
		defer func() { env.LLM = base }()
	}
	env.strategyOverride = nil
	log := env.logger().With(zap.String("run_id", r.status.RunID))

	if err := r.save(ctx); err != nil {
		return r.status, err
	}
	log.Info("build started", zap.Int("stages", len(p.Stages)))

	for i, spec := range p.Stages {
		index := i + 1
		env.forcing = forceFrom > 0 && index >= forceFrom
		r.status.Stage = spec.Key
		r.emit.Emit(RunEvent{Type: EventTypeStageStart, Stage: spec.Key, Status: r.snapshot()})
		rec, out := r.stage(ctx, index, spec)
		r.status.Stages = append(r.status.Stages, rec)
		if out.Verdict == healer.Fatal {
			r.status.Status = artifact.RunFailed
			r.status.FailedStage = index
			r.status.Error = out.Message
			r.status.Verdict = string(out.Kind)
			if err := r.save(ctx); err != nil {
				return r.status, errors.Join(err, out.Err)
			}
			log.Error("build failed",
				zap.String("stage", spec.Key),
				zap.Int("index", index),
				zap.String("kind", string(out.Kind)),
				zap.String("error", out.Message))
			r.emit.Emit(RunEvent{Type: EventTypeError, Stage: spec.Key, Message: out.Message, Status: r.snapshot()})
			return r.status, fmt.Errorf("%w at stage %d (%s): %w", ErrRunFailed, index, spec.Key, out.Err)
		}
		if err := r.save(ctx); err != nil {
			return r.status, err
		}
		log.Info("stage finished",
			zap.String("stage", spec.Key),
			zap.String("outcome", string(rec.Outcome)),
			zap.String("detail", rec.Detail))
		r.emit.Emit(RunEvent{Type: EventTypeStageDone, Stage: spec.Key, Message: rec.Detail, Status: r.snapshot()})
	}

	r.status.Status = artifact.RunDone
	r.status.Stage = ""
	if err := r.save(ctx); err != nil {
		return r.status, err
	}
	log.Info("build done", zap.Int("llm_calls", r.counter.Total()))
	r.emit.Emit(RunEvent{Type: EventTypeComplete, Status: r.snapshot()})
	return r.status, nil
}

// stage runs one stage through the healer and applies a Healed verdict once.
func (r *run) stage(ctx context.Context, index int, spec StageSpec) (artifact.StageRecord, healer.Outcome) {
	rec := artifact.StageRecord{Index: index, Key: spec.Key}
	env := r.env
	if spec.Requires != nil {
		missing, err := artifactrepo.Missing(ctx, env.Store, spec.Requires(ctx, env)...)
		if err != nil {
			return r.failed(rec, healer.Judge(err))
		}
		if len(missing) > 0 {
			rec.Outcome = artifact.OutcomeSkipped
			rec.Detail = fmt.Sprintf("missing %v", missing)
			return rec, healer.Outcome{Verdict: healer.Succeeded}
		}
	}

	var res StageResult
	calls := r.counter.Total()
	out := healer.Attempt(ctx, func(ctx context.Context) error {
		var err error
		res, err = execute(ctx, spec, env)
		return err
	})
	switch out.Verdict {
	case healer.Succeeded:
		rec.Outcome, rec.Detail = res.Outcome, res.Detail
	case healer.Healed:
		env.logger().Warn("healing stage",
			zap.String("stage", spec.Key),
			zap.String("remedy", string(out.Remedy)),
			zap.String("error", out.Message))
		r.emit.Emit(RunEvent{Type: EventTypeHeal, Stage: spec.Key, Message: string(out.Remedy), Status: r.snapshot()})
		if err := r.remedy(ctx, spec, out.Remedy); err != nil {
			return r.failed(rec, fatal(err))
		}
		retry := healer.Attempt(ctx, func(ctx context.Context) error {
			var err error
			res, err = execute(ctx, spec, env)
			return err
		})
		if retry.Verdict != healer.Succeeded {
			return r.failed(rec, fatal(retry.Err))
		}
		rec.Outcome = artifact.OutcomeHealed
		rec.Detail = fmt.Sprintf("%s: %s", out.Remedy, res.Detail)
	default:
		return r.failed(rec, out)
	}
	if n := r.counter.Total() - calls; n > 0 {
		rec.Detail = fmt.Sprintf("%s llm_calls=%d", rec.Detail, n)
	}
	return rec, healer.Outcome{Verdict: healer.Succeeded}
}

// remedy prepares the environment for the single re-run.
func (r *run) remedy(ctx context.Context, spec StageSpec, remedy healer.Remedy) error {
	env := r.env
	switch remedy {
	case healer.SwitchToRecommendation:
		s, err := env.Strategy(ctx)
		if err != nil {
			return err
		}
		s = strategy.AsRecommendation(s, env.Policy.Strategy)
		env.strategyOverride = &s
		return nil
	case healer.RetrainRequired:
		if spec.Key == StageTrain {
			return nil
		}
		for _, st := range r.p.Stages {
			if st.Key != StageTrain {
				continue
			}
			if _, err := st.Run(ctx, env); err != nil {
				return fmt.Errorf("retrain: %w", err)
			}
			return nil
		}
	}
	return nil
}

func (r *run) failed(rec artifact.StageRecord, out healer.Outcome) (artifact.StageRecord, healer.Outcome) {
	rec.Outcome = artifact.OutcomeFailed
	rec.Detail = out.Message
	out.Verdict = healer.Fatal
	return rec, out
}

// fatal judges err and forces the verdict; a second failure is never healed.
func fatal(err error) healer.Outcome {
	out := healer.Judge(err)
	out.Verdict = healer.Fatal
	out.Remedy = ""
	return out
}

// forceIndex returns the 1-based index of ForceFrom, 0 when unset.
func (p *Pipeline) forceIndex() (int, error) {
	key := strings.ToLower(strings.TrimSpace(p.Env.ForceFrom))
	if key == "" {
		return 0, nil
	}
	for i, s := range p.Stages {
		if s.Key == key {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("unknown stage %q", p.Env.ForceFrom)
}

// execute applies the stage's cache strategy around Run. A forced stage
// drops its cache record first.
func execute(ctx context.Context, spec StageSpec, env *Env) (StageResult, error) {
	cache := spec.Strategy
	if cache == nil || spec.Fingerprint == nil || spec.Output == "" {
		return spec.Run(ctx, env)
	}
	in, err := spec.Fingerprint(ctx, env)
	if err != nil {
		return StageResult{}, err
	}
	fp, err := genstep.Digest(in)
	if err != nil {
		return StageResult{}, err
	}
	if env.Forced() {
		if err := cache.Invalidate(ctx, spec, env); err != nil {
			return StageResult{}, err
		}
	} else if cache.Hit(ctx, spec, env, fp) {
		return StageResult{Outcome: artifact.OutcomeCached, Detail: spec.Output}, nil
	}
	res, err := spec.Run(ctx, env)
	if err != nil {
		return res, err
	}
	return res, cache.Save(ctx, spec, env, fp)
}

func (r *run) save(ctx context.Context) error {
	r.status.UpdatedAt = r.env.now()
	return artifactrepo.Write(ctx, r.env.Store, artifact.RunStatusFile, r.status)
}

func (r *run) snapshot() artifact.RunStatus {
	s := r.status
	s.Stages = append([]artifact.StageRecord(nil), r.status.Stages...)
	return s
}

// LoadStatus reads the last Run Status.
func LoadStatus(ctx context.Context, store artifactrepo.Store) (artifact.RunStatus, error) {
	return artifactrepo.Read[artifact.RunStatus](ctx, store, artifact.KindRunStatus, artifact.RunStatusFile)
}
