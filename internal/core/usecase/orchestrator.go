package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/kirillkom/haiku-studio/internal/core/domain"
	"github.com/kirillkom/haiku-studio/internal/core/ports"
)

var errSaveRejected = errors.New("storage backend did not accept the artifact")

// PipelineObserver receives stage and save measurements.
type PipelineObserver interface {
	ObserveStage(stage domain.Stage, outcome domain.OutcomeKind, duration time.Duration)
	ObserveSave(ok bool, duration time.Duration)
}

type noopObserver struct{}

func (noopObserver) ObserveStage(domain.Stage, domain.OutcomeKind, time.Duration) {}
func (noopObserver) ObserveSave(bool, time.Duration)                              {}

type PipelineOptions struct {
	// StageTimeout bounds each classify/generate/illustrate call. Zero disables it.
	StageTimeout time.Duration
	// SaveTimeout bounds the persist call. Zero disables it.
	SaveTimeout time.Duration
	// DiscardStaleRuns drops a completed run when a newer submission started
	// after it. When false the last run to complete wins.
	DiscardStaleRuns bool
	Observer         PipelineObserver
	Now              func() time.Time
}

// PipelineOrchestrator drives one session's word through classify, generate
// and illustrate, then hands the payload to the storage gateway on Save.
//
// State is guarded by mu; no lock is held while a stage runs.
type PipelineOrchestrator struct {
	detector    ports.LanguageDetector
	composer    ports.HaikuComposer
	illustrator ports.Illustrator
	gateway     ports.ArtifactGateway
	opts        PipelineOptions

	mu     sync.Mutex
	state  domain.PipelineState
	runSeq uint64
	images []domain.ImageHandle
}

func NewPipelineOrchestrator(
	detector ports.LanguageDetector,
	composer ports.HaikuComposer,
	illustrator ports.Illustrator,
	gateway ports.ArtifactGateway,
	opts PipelineOptions,
) *PipelineOrchestrator {
	if opts.Observer == nil {
		opts.Observer = noopObserver{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &PipelineOrchestrator{
		detector:    detector,
		composer:    composer,
		illustrator: illustrator,
		gateway:     gateway,
		opts:        opts,
		state:       domain.PipelineState{Phase: domain.PhaseIdle, UpdatedAt: opts.Now().UTC()},
	}
}

func (o *PipelineOrchestrator) State() domain.PipelineState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Clone()
}

// Images lists every blob handle produced by this pipeline, including those of
// runs that were later replaced.
func (o *PipelineOrchestrator) Images() []domain.ImageHandle {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]domain.ImageHandle, len(o.images))
	copy(out, o.images)
	return out
}

// Submit runs the three stages for word and returns the resulting state.
// Stage failures never surface here; only an empty word, a save in progress or
// a cancelled ctx produce an error.
func (o *PipelineOrchestrator) Submit(ctx context.Context, word string) (domain.PipelineState, error) {
	req, err := domain.NewGenerationRequest(word)
	if err != nil {
		return o.State(), err
	}
	run, err := o.beginRun(req.Word)
	if err != nil {
		return o.State(), err
	}

	result, failedStage, cause := o.runStages(ctx, req.Word)
	return o.completeRun(run, result, failedStage, cause)
}

func (o *PipelineOrchestrator) beginRun(word string) (uint64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.Phase == domain.PhaseSaving {
		return 0, domain.WrapError(domain.ErrInvalidState, "submit word", errors.New("a save is in progress"))
	}
	o.runSeq++
	o.state = domain.PipelineState{
		Phase:     domain.PhaseGenerating,
		Run:       o.runSeq,
		Word:      word,
		UpdatedAt: o.opts.Now().UTC(),
	}
	return o.runSeq, nil
}

func (o *PipelineOrchestrator) runStages(ctx context.Context, word string) (domain.RunResult, domain.Stage, error) {
	result := domain.RunResult{Word: word}

	result.Language = observeStage(ctx, o, domain.StageClassify, func(stageCtx context.Context) domain.Outcome[domain.Language] {
		return o.detector.Detect(stageCtx, word)
	})
	if err := ctx.Err(); err != nil {
		return result, domain.StageClassify, err
	}

	result.Haiku = observeStage(ctx, o, domain.StageGenerate, func(stageCtx context.Context) domain.Outcome[domain.Haiku] {
		return o.composer.Compose(stageCtx, word, result.Language.Value)
	})
	if err := ctx.Err(); err != nil {
		return result, domain.StageGenerate, err
	}

	result.Image = observeStage(ctx, o, domain.StageIllustrate, func(stageCtx context.Context) domain.Outcome[domain.ImageHandle] {
		return o.illustrator.Illustrate(stageCtx, result.Haiku.Value)
	})
	if err := ctx.Err(); err != nil {
		return result, domain.StageIllustrate, err
	}
	return result, "", nil
}

func observeStage[T any](ctx context.Context, o *PipelineOrchestrator, stage domain.Stage, call func(context.Context) domain.Outcome[T]) domain.Outcome[T] {
	stageCtx := ctx
	if o.opts.StageTimeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(ctx, o.opts.StageTimeout)
		defer cancel()
	}
	started := time.Now()
	outcome := call(stageCtx)
	o.opts.Observer.ObserveStage(stage, outcome.Kind, time.Since(started))
	return outcome
}

func (o *PipelineOrchestrator) completeRun(run uint64, result domain.RunResult, failedStage domain.Stage, cause error) (domain.PipelineState, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if key, ok := result.Image.Value.BlobKey(); ok {
		o.images = append(o.images, domain.NewBlobHandle(key))
	}

	switch {
	case o.state.Phase == domain.PhaseSaving:
		slog.Info("pipeline_run_discarded", "run", run, "reason", "save in progress")
		return o.state.Clone(), nil
	case o.opts.DiscardStaleRuns && run != o.runSeq:
		slog.Info("pipeline_run_discarded", "run", run, "current_run", o.runSeq, "reason", "superseded")
		return o.state.Clone(), nil
	}

	now := o.opts.Now().UTC()
	if cause != nil {
		o.state = domain.PipelineState{
			Phase:       domain.PhaseFailed,
			Run:         run,
			Word:        result.Word,
			FailedStage: failedStage,
			Reason:      cause.Error(),
			UpdatedAt:   now,
		}
		slog.Warn("pipeline_run_failed", "run", run, "stage", failedStage, "error", cause)
		return o.state.Clone(), domain.WrapError(domain.ErrTemporary, "run pipeline", cause)
	}

	o.state = domain.PipelineState{
		Phase:     domain.PhaseReady,
		Run:       run,
		Word:      result.Word,
		Language:  result.Language.Value,
		Haiku:     result.Haiku.Value.Clone(),
		Image:     result.Image.Value,
		Outcomes:  result.Outcomes(),
		UpdatedAt: now,
	}
	return o.state.Clone(), nil
}

// Save persists the Ready payload. A rejected save returns the pipeline to
// Ready with the payload intact and reports domain.ErrSaveFailed.
func (o *PipelineOrchestrator) Save(ctx context.Context) (domain.PipelineState, error) {
	o.mu.Lock()
	if o.state.Phase != domain.PhaseReady {
		phase := o.state.Phase
		o.mu.Unlock()
		return o.State(), domain.WrapError(domain.ErrInvalidState, "save haiku", errors.New("nothing ready to save, pipeline is "+string(phase)))
	}
	o.state.Phase = domain.PhaseSaving
	o.state.UpdatedAt = o.opts.Now().UTC()
	payload := o.state.Clone()
	o.mu.Unlock()

	saveCtx := ctx
	if o.opts.SaveTimeout > 0 {
		var cancel context.CancelFunc
		saveCtx, cancel = context.WithTimeout(ctx, o.opts.SaveTimeout)
		defer cancel()
	}
	started := time.Now()
	ok := o.gateway.Save(saveCtx, payload.Word, payload.Language, payload.Haiku, payload.Image)
	o.opts.Observer.ObserveSave(ok, time.Since(started))

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.Run != payload.Run || o.state.Phase != domain.PhaseSaving {
		return o.state.Clone(), nil
	}
	o.state.UpdatedAt = o.opts.Now().UTC()
	if !ok {
		o.state.Phase = domain.PhaseReady
		return o.state.Clone(), domain.WrapError(domain.ErrSaveFailed, "save haiku", errSaveRejected)
	}
	o.state.Phase = domain.PhaseSaved
	return o.state.Clone(), nil
}
