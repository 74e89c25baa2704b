package ports

import (
	"context"
	"io"

	"github.com/kirillkom/haiku-studio/internal/core/domain"
)

// TextCompleter sends a prompt to a text-generation backend and returns its raw output.
type TextCompleter interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (string, error)
}

// ImageRenderer asks an image-generation backend for raw image bytes.
type ImageRenderer interface {
	Render(ctx context.Context, req domain.ImageRequest) ([]byte, error)
}

// LanguageDetector resolves the language of a word. It never fails: the
// outcome always carries a usable language.
type LanguageDetector interface {
	Detect(ctx context.Context, word string) domain.Outcome[domain.Language]
}

// HaikuComposer writes a haiku for a word in the given language.
type HaikuComposer interface {
	Compose(ctx context.Context, word string, language domain.Language) domain.Outcome[domain.Haiku]
}

// Illustrator turns a haiku into an image handle; an empty handle on failure.
type Illustrator interface {
	Illustrate(ctx context.Context, haiku domain.Haiku) domain.Outcome[domain.ImageHandle]
}

// ArtifactGateway submits finished artifacts to the storage backend.
type ArtifactGateway interface {
	Save(ctx context.Context, word string, language domain.Language, haiku domain.Haiku, image domain.ImageHandle) bool
	List(ctx context.Context) []domain.StoredArtifact
}

// ArtifactRepository persists stored artifacts.
type ArtifactRepository interface {
	Create(ctx context.Context, artifact *domain.StoredArtifact) error
	List(ctx context.Context, limit int) ([]domain.StoredArtifact, error)
	Ping(ctx context.Context) error
}

// ObjectStorage holds transient image bytes behind blob handles.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// MessageQueue publishes/consumes batch generation requests.
type MessageQueue interface {
	PublishGenerationRequest(ctx context.Context, word string) error
	SubscribeGenerationRequests(ctx context.Context, handler func(context.Context, string) error) error
}
