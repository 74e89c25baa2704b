package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/haiku-studio/internal/core/domain"
	"github.com/kirillkom/haiku-studio/internal/core/ports"
)

// BatchUseCase generates and saves haikus for words outside any UI session.
// Enqueue runs in the API; Process runs in the worker for each queued word.
type BatchUseCase struct {
	queue       ports.MessageQueue
	blobs       ports.ObjectStorage
	newPipeline func() ports.Pipeline
}

func NewBatchUseCase(queue ports.MessageQueue, blobs ports.ObjectStorage, newPipeline func() ports.Pipeline) *BatchUseCase {
	return &BatchUseCase{queue: queue, blobs: blobs, newPipeline: newPipeline}
}

// Enqueue publishes every non-blank word and returns how many were accepted.
func (uc *BatchUseCase) Enqueue(ctx context.Context, words []string) (int, error) {
	if uc.queue == nil {
		return 0, domain.WrapError(domain.ErrTemporary, "enqueue words", errors.New("queue is not configured"))
	}
	accepted := 0
	for _, word := range words {
		word = strings.TrimSpace(word)
		if word == "" {
			continue
		}
		if err := uc.queue.PublishGenerationRequest(ctx, word); err != nil {
			return accepted, domain.WrapError(domain.ErrTemporary, "enqueue words", err)
		}
		accepted++
	}
	if accepted == 0 {
		return 0, domain.WrapError(domain.ErrInvalidInput, "enqueue words", errors.New("no words supplied"))
	}
	return accepted, nil
}

// Process runs one word through a fresh pipeline and saves the result. The
// pipeline's images are released whether or not the save succeeded.
func (uc *BatchUseCase) Process(ctx context.Context, word string) error {
	pipeline := uc.newPipeline()
	defer func() { ReleaseImages(ctx, uc.blobs, pipeline.Images()) }()
	if _, err := pipeline.Submit(ctx, word); err != nil {
		return fmt.Errorf("generate %q: %w", word, err)
	}
	if _, err := pipeline.Save(ctx); err != nil {
		return fmt.Errorf("save %q: %w", word, err)
	}
	return nil
}
