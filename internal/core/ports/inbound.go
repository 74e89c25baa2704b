package ports

import (
	"context"

	"github.com/kirillkom/haiku-studio/internal/core/domain"
)

// Pipeline is the inbound contract a UI drives: submit a word, then save the result.
type Pipeline interface {
	Submit(ctx context.Context, word string) (domain.PipelineState, error)
	Save(ctx context.Context) (domain.PipelineState, error)
	State() domain.PipelineState
	// Images lists the blob handles the pipeline created. The caller releases
	// them once it is done with the pipeline.
	Images() []domain.ImageHandle
}

// ArtifactStore is the inbound contract of the storage backend.
type ArtifactStore interface {
	Create(ctx context.Context, artifact domain.NewArtifact) (*domain.StoredArtifact, error)
	List(ctx context.Context, limit int) ([]domain.StoredArtifact, error)
	Healthy(ctx context.Context) bool
}

// BatchEnqueuer accepts words for background generation.
type BatchEnqueuer interface {
	Enqueue(ctx context.Context, words []string) (int, error)
}
