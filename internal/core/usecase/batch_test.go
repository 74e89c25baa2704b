package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/haiku-studio/internal/core/domain"
	"github.com/kirillkom/haiku-studio/internal/core/ports"
)

type queueFake struct {
	published  []string
	publishErr error
}

func (f *queueFake) PublishGenerationRequest(_ context.Context, word string) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, word)
	return nil
}

func (f *queueFake) SubscribeGenerationRequests(context.Context, func(context.Context, string) error) error {
	return nil
}

func TestBatchEnqueueSkipsBlankWords(t *testing.T) {
	queue := &queueFake{}
	uc := NewBatchUseCase(queue, nil, nil)

	n, err := uc.Enqueue(context.Background(), []string{"frog", "  ", "", " 雨 "})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if n != 2 || queue.published[1] != "雨" {
		t.Fatalf("unexpected publish: %d %v", n, queue.published)
	}
}

func TestBatchEnqueueRejectsEmptyBatch(t *testing.T) {
	uc := NewBatchUseCase(&queueFake{}, nil, nil)
	if _, err := uc.Enqueue(context.Background(), []string{" "}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestBatchEnqueueReportsQueueErrors(t *testing.T) {
	uc := NewBatchUseCase(&queueFake{publishErr: errors.New("nats: no responders")}, nil, nil)
	if _, err := uc.Enqueue(context.Background(), []string{"frog"}); !errors.Is(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}
	if _, err := NewBatchUseCase(nil, nil, nil).Enqueue(context.Background(), []string{"frog"}); !errors.Is(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error without queue, got %v", err)
	}
}

func TestBatchProcessGeneratesAndSaves(t *testing.T) {
	f := newPipelineFixture(PipelineOptions{})
	uc := NewBatchUseCase(nil, f.blobs, func() ports.Pipeline { return f.pipeline })

	if err := uc.Process(context.Background(), "frog"); err != nil {
		t.Fatalf("process: %v", err)
	}
	if f.gateway.calls != 1 || f.gateway.word != "frog" {
		t.Fatalf("expected one save for frog, got %+v", f.gateway)
	}
}

func TestBatchProcessReportsSaveFailure(t *testing.T) {
	f := newPipelineFixture(PipelineOptions{})
	f.gateway.ok = false
	uc := NewBatchUseCase(nil, f.blobs, func() ports.Pipeline { return f.pipeline })

	if err := uc.Process(context.Background(), "frog"); !errors.Is(err, domain.ErrSaveFailed) {
		t.Fatalf("expected save failure, got %v", err)
	}
}

func TestBatchProcessReleasesImages(t *testing.T) {
	f := newPipelineFixture(PipelineOptions{})
	uc := NewBatchUseCase(nil, f.blobs, func() ports.Pipeline { return f.pipeline })

	if err := uc.Process(context.Background(), "frog"); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(f.blobs.objects) != 0 || len(f.blobs.deleted) != 1 {
		t.Fatalf("expected the run image to be deleted, remaining=%d deleted=%v", len(f.blobs.objects), f.blobs.deleted)
	}
}

func TestBatchProcessReleasesImagesAfterSaveFailure(t *testing.T) {
	f := newPipelineFixture(PipelineOptions{})
	f.gateway.ok = false
	uc := NewBatchUseCase(nil, f.blobs, func() ports.Pipeline { return f.pipeline })

	if err := uc.Process(context.Background(), "frog"); !errors.Is(err, domain.ErrSaveFailed) {
		t.Fatalf("expected save failure, got %v", err)
	}
	if len(f.blobs.objects) != 0 {
		t.Fatalf("expected no blobs left after failed save, got %d", len(f.blobs.objects))
	}
}

func TestReleaseImagesSkipsInlineHandles(t *testing.T) {
	blobs := newBlobStoreFake()
	blobs.objects["a.png"] = pngHeader
	handles := []domain.ImageHandle{"blob:a.png", "data:image/png;base64,AA", ""}

	if n := ReleaseImages(context.Background(), blobs, handles); n != 1 {
		t.Fatalf("expected one release, got %d", n)
	}
	if len(blobs.deleted) != 1 || blobs.deleted[0] != "a.png" {
		t.Fatalf("unexpected deletes: %v", blobs.deleted)
	}
	if n := ReleaseImages(context.Background(), nil, handles); n != 0 {
		t.Fatalf("expected no release without a store, got %d", n)
	}
}
