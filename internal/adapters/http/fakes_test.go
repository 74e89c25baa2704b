package httpadapter

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/kirillkom/haiku-studio/internal/config"
	"github.com/kirillkom/haiku-studio/internal/core/domain"
	"github.com/kirillkom/haiku-studio/internal/core/usecase"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

type detectorFake struct{}

func (detectorFake) Detect(context.Context, string) domain.Outcome[domain.Language] {
	return domain.Succeeded(domain.LanguageEnglish)
}

type composerFake struct{}

func (composerFake) Compose(_ context.Context, word string, _ domain.Language) domain.Outcome[domain.Haiku] {
	return domain.Succeeded(domain.Haiku{"old pond " + word, "leaps into water", "sound of the splash"})
}

type illustratorFake struct {
	blobs *blobsFake
}

func (f illustratorFake) Illustrate(ctx context.Context, _ domain.Haiku) domain.Outcome[domain.ImageHandle] {
	if err := f.blobs.Save(ctx, "img-1.png", bytes.NewReader(pngBytes)); err != nil {
		return domain.Recovered[domain.ImageHandle]("", domain.OutcomeEmpty, err)
	}
	return domain.Succeeded(domain.NewBlobHandle("img-1.png"))
}

type gatewayFake struct {
	mu    sync.Mutex
	ok    bool
	saved []string
}

func (f *gatewayFake) Save(_ context.Context, word string, _ domain.Language, _ domain.Haiku, _ domain.ImageHandle) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ok {
		f.saved = append(f.saved, word)
	}
	return f.ok
}

func (f *gatewayFake) List(context.Context) []domain.StoredArtifact { return nil }

type blobsFake struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newBlobsFake() *blobsFake {
	return &blobsFake{objects: map[string][]byte{}}
}

func (f *blobsFake) Save(_ context.Context, key string, data io.Reader) error {
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.objects[key] = raw
	f.mu.Unlock()
	return nil
}

func (f *blobsFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.objects[key]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "open blob", io.EOF)
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (f *blobsFake) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	delete(f.objects, key)
	f.mu.Unlock()
	return nil
}

type storeFake struct {
	created []domain.NewArtifact
	items   []domain.StoredArtifact
	healthy bool
	err     error
}

func (f *storeFake) Create(_ context.Context, in domain.NewArtifact) (*domain.StoredArtifact, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, in)
	return &domain.StoredArtifact{ID: int64(len(f.created)), InputWord: in.InputWord}, nil
}

func (f *storeFake) List(context.Context, int) ([]domain.StoredArtifact, error) {
	return f.items, f.err
}

func (f *storeFake) Healthy(context.Context) bool { return f.healthy }

type batchFake struct {
	words []string
	err   error
}

func (f *batchFake) Enqueue(_ context.Context, words []string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.words = append(f.words, words...)
	return len(words), nil
}

type routerFixture struct {
	gateway *gatewayFake
	blobs   *blobsFake
	store   *storeFake
	batch   *batchFake
	deps    Dependencies
}

func newRouterFixture() *routerFixture {
	f := &routerFixture{
		gateway: &gatewayFake{ok: true},
		blobs:   newBlobsFake(),
		store:   &storeFake{healthy: true},
		batch:   &batchFake{},
	}
	sessions := usecase.NewSessionRegistry(func() *usecase.PipelineOrchestrator {
		return usecase.NewPipelineOrchestrator(detectorFake{}, composerFake{}, illustratorFake{blobs: f.blobs}, f.gateway, usecase.PipelineOptions{})
	}, f.blobs, 0)
	f.deps = Dependencies{Sessions: sessions, Store: f.store, Batch: f.batch, Blobs: f.blobs}
	return f
}

func (f *routerFixture) handler(cfg config.Config) *Router {
	return NewRouter(cfg, f.deps)
}
