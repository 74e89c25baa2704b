package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kirillkom/haiku-studio/internal/core/domain"
)

const (
	detectionMarker  = "language detection expert"
	generationMarker = "creative AI poet"
)

type gatewayFake struct {
	mu      sync.Mutex
	ok      bool
	calls   int
	word    string
	lang    domain.Language
	haiku   domain.Haiku
	image   domain.ImageHandle
	release chan struct{}
	entered chan struct{}
}

func (f *gatewayFake) Save(_ context.Context, word string, language domain.Language, haiku domain.Haiku, image domain.ImageHandle) bool {
	if f.entered != nil {
		close(f.entered)
	}
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.word, f.lang, f.haiku, f.image = word, language, haiku.Clone(), image
	return f.ok
}

func (f *gatewayFake) List(context.Context) []domain.StoredArtifact { return nil }

type observerFake struct {
	mu     sync.Mutex
	stages map[domain.Stage]domain.OutcomeKind
	saves  []bool
}

func (f *observerFake) ObserveStage(stage domain.Stage, outcome domain.OutcomeKind, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stages == nil {
		f.stages = map[domain.Stage]domain.OutcomeKind{}
	}
	f.stages[stage] = outcome
}

func (f *observerFake) ObserveSave(ok bool, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, ok)
}

type pipelineFixture struct {
	completer *completerFake
	renderer  *rendererFake
	blobs     *blobStoreFake
	gateway   *gatewayFake
	observer  *observerFake
	pipeline  *PipelineOrchestrator
}

func newPipelineFixture(opts PipelineOptions) *pipelineFixture {
	f := &pipelineFixture{
		completer: &completerFake{outputs: map[string]string{
			detectionMarker:  "en",
			generationMarker: "An old silent pond\nA frog jumps into the pond\nSplash! Silence again",
		}},
		renderer: &rendererFake{data: pngHeader},
		blobs:    newBlobStoreFake(),
		gateway:  &gatewayFake{ok: true},
		observer: &observerFake{},
	}
	opts.Observer = f.observer
	f.pipeline = NewPipelineOrchestrator(
		NewLanguageClassifier(f.completer),
		NewHaikuGenerator(f.completer),
		NewHaikuIllustrator(f.renderer, f.blobs),
		f.gateway,
		opts,
	)
	return f
}

func TestPipelineHappyPath(t *testing.T) {
	f := newPipelineFixture(PipelineOptions{})

	state, err := f.pipeline.Submit(context.Background(), "  frog ")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if state.Phase != domain.PhaseReady || state.Word != "frog" || state.Language != domain.LanguageEnglish {
		t.Fatalf("unexpected state: %+v", state)
	}
	if !state.Haiku.Complete() || !state.Image.IsBlob() {
		t.Fatalf("expected complete haiku and blob image, got %+v", state)
	}
	for stage, kind := range state.Outcomes {
		if kind != domain.OutcomeOK {
			t.Fatalf("stage %s resolved as %s", stage, kind)
		}
	}

	saved, err := f.pipeline.Save(context.Background())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.Phase != domain.PhaseSaved {
		t.Fatalf("expected saved, got %s", saved.Phase)
	}
	if f.gateway.word != "frog" || f.gateway.lang != domain.LanguageEnglish || f.gateway.image != state.Image {
		t.Fatalf("unexpected gateway payload: %+v", f.gateway)
	}
	if f.gateway.haiku.Text() != state.Haiku.Text() {
		t.Fatalf("expected saved haiku %q, got %q", state.Haiku.Text(), f.gateway.haiku.Text())
	}
	if len(f.observer.stages) != 3 || len(f.observer.saves) != 1 || !f.observer.saves[0] {
		t.Fatalf("unexpected observations: %+v", f.observer)
	}
}

func TestPipelineRejectsEmptyWord(t *testing.T) {
	f := newPipelineFixture(PipelineOptions{})
	state, err := f.pipeline.Submit(context.Background(), "   ")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if state.Phase != domain.PhaseIdle || len(f.completer.requests) != 0 {
		t.Fatalf("expected no run to start, got %+v", state)
	}
}

func TestPipelineClassifyTimeoutDefaultsToEnglish(t *testing.T) {
	f := newPipelineFixture(PipelineOptions{StageTimeout: 20 * time.Millisecond})
	detector := &completerFake{block: true}
	f.pipeline.detector = NewLanguageClassifier(detector)

	state, err := f.pipeline.Submit(context.Background(), "frog")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if state.Phase != domain.PhaseReady || state.Language != domain.LanguageEnglish {
		t.Fatalf("expected ready english state, got %+v", state)
	}
	if state.Outcomes[domain.StageClassify] != domain.OutcomeDefault {
		t.Fatalf("expected default classify outcome, got %s", state.Outcomes[domain.StageClassify])
	}
}

func TestPipelineIllustrationOutageStillSaves(t *testing.T) {
	f := newPipelineFixture(PipelineOptions{})
	f.renderer.err = errors.New("image backend down")

	state, err := f.pipeline.Submit(context.Background(), "frog")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !state.Image.Empty() || state.Outcomes[domain.StageIllustrate] != domain.OutcomeEmpty {
		t.Fatalf("expected empty image, got %+v", state)
	}
	saved, err := f.pipeline.Save(context.Background())
	if err != nil || saved.Phase != domain.PhaseSaved {
		t.Fatalf("expected save to succeed, got %s / %v", saved.Phase, err)
	}
	if f.gateway.image != "" {
		t.Fatalf("expected empty image to be submitted, got %q", f.gateway.image)
	}
}

func TestPipelineTextOutageProducesMarkerAndFallback(t *testing.T) {
	f := newPipelineFixture(PipelineOptions{})
	f.completer.err = errors.New("dial tcp: connection refused")

	state, err := f.pipeline.Submit(context.Background(), "frog")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if state.Language != domain.LanguageEnglish || state.Haiku.Text() != domain.GenerationErrorMarker {
		t.Fatalf("unexpected degraded state: %+v", state)
	}
	if state.Outcomes[domain.StageGenerate] != domain.OutcomeMarker {
		t.Fatalf("expected marker outcome, got %s", state.Outcomes[domain.StageGenerate])
	}
}

func TestPipelineSaveFailureReturnsToReadyUnchanged(t *testing.T) {
	f := newPipelineFixture(PipelineOptions{})
	f.gateway.ok = false

	ready, err := f.pipeline.Submit(context.Background(), "frog")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	after, err := f.pipeline.Save(context.Background())
	if !errors.Is(err, domain.ErrSaveFailed) {
		t.Fatalf("expected save failed, got %v", err)
	}
	if after.Phase != domain.PhaseReady || after.Haiku.Text() != ready.Haiku.Text() || after.Image != ready.Image {
		t.Fatalf("expected unchanged ready payload, got %+v", after)
	}

	f.gateway.ok = true
	if retried, err := f.pipeline.Save(context.Background()); err != nil || retried.Phase != domain.PhaseSaved {
		t.Fatalf("expected retry to save, got %s / %v", retried.Phase, err)
	}
}

func TestPipelineSaveRequiresReady(t *testing.T) {
	f := newPipelineFixture(PipelineOptions{})
	if _, err := f.pipeline.Save(context.Background()); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid state from idle, got %v", err)
	}
	if _, err := f.pipeline.Submit(context.Background(), "frog"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := f.pipeline.Save(context.Background()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := f.pipeline.Save(context.Background()); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid state after saved, got %v", err)
	}
	if f.gateway.calls != 1 {
		t.Fatalf("expected one gateway call, got %d", f.gateway.calls)
	}
}

func TestPipelineSubmitDuringSaveIsRejected(t *testing.T) {
	f := newPipelineFixture(PipelineOptions{})
	f.gateway.entered = make(chan struct{})
	f.gateway.release = make(chan struct{})

	if _, err := f.pipeline.Submit(context.Background(), "frog"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	done := make(chan error, 1)
	go func() {
		_, err := f.pipeline.Save(context.Background())
		done <- err
	}()
	<-f.gateway.entered

	if state := f.pipeline.State(); state.Phase != domain.PhaseSaving {
		t.Fatalf("expected saving, got %s", state.Phase)
	}
	if _, err := f.pipeline.Submit(context.Background(), "rain"); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid state during save, got %v", err)
	}
	close(f.gateway.release)
	if err := <-done; err != nil {
		t.Fatalf("save: %v", err)
	}
	if state := f.pipeline.State(); state.Phase != domain.PhaseSaved || state.Word != "frog" {
		t.Fatalf("unexpected final state: %+v", state)
	}
}

func TestPipelineCancelledRunFails(t *testing.T) {
	f := newPipelineFixture(PipelineOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	f.pipeline.detector = detectorFunc(func(context.Context, string) domain.Outcome[domain.Language] {
		cancel()
		return domain.Succeeded(domain.LanguageEnglish)
	})

	state, err := f.pipeline.Submit(ctx, "frog")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if state.Phase != domain.PhaseFailed || state.FailedStage != domain.StageClassify {
		t.Fatalf("unexpected failed state: %+v", state)
	}
	if _, err := f.pipeline.Save(context.Background()); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected save to be rejected after failure, got %v", err)
	}
	if _, err := f.pipeline.Submit(context.Background(), "frog"); err != nil {
		t.Fatalf("expected recovery by new submission, got %v", err)
	}
}

type detectorFunc func(context.Context, string) domain.Outcome[domain.Language]

func (f detectorFunc) Detect(ctx context.Context, word string) domain.Outcome[domain.Language] {
	return f(ctx, word)
}

// overlappingRuns starts a slow "first" run, lets a fast "second" run finish,
// then releases the first one.
func overlappingRuns(t *testing.T, opts PipelineOptions) domain.PipelineState {
	t.Helper()
	f := newPipelineFixture(opts)
	release := make(chan struct{})
	started := make(chan struct{})
	f.pipeline.detector = detectorFunc(func(_ context.Context, word string) domain.Outcome[domain.Language] {
		if word == "first" {
			close(started)
			<-release
		}
		return domain.Succeeded(domain.LanguageEnglish)
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = f.pipeline.Submit(context.Background(), "first")
	}()
	<-started
	if _, err := f.pipeline.Submit(context.Background(), "second"); err != nil {
		t.Fatalf("submit second: %v", err)
	}
	close(release)
	<-done
	return f.pipeline.State()
}

func TestPipelineLastCompletedRunWins(t *testing.T) {
	state := overlappingRuns(t, PipelineOptions{})
	if state.Word != "first" || state.Phase != domain.PhaseReady {
		t.Fatalf("expected the late run to win, got %+v", state)
	}
}

func TestPipelineDiscardsStaleRuns(t *testing.T) {
	state := overlappingRuns(t, PipelineOptions{DiscardStaleRuns: true})
	if state.Word != "second" || state.Phase != domain.PhaseReady {
		t.Fatalf("expected the newest submission to win, got %+v", state)
	}
}

func TestPipelineTracksProducedImages(t *testing.T) {
	f := newPipelineFixture(PipelineOptions{})
	for _, word := range []string{"frog", "rain"} {
		if _, err := f.pipeline.Submit(context.Background(), word); err != nil {
			t.Fatalf("submit %s: %v", word, err)
		}
	}
	images := f.pipeline.Images()
	if len(images) != 2 || images[0] == images[1] {
		t.Fatalf("expected two distinct blob handles, got %v", images)
	}
}
