package usecase

import (
	"context"
	"log/slog"

	"github.com/kirillkom/haiku-studio/internal/core/domain"
	"github.com/kirillkom/haiku-studio/internal/core/ports"
)

// ReleaseImages deletes the transient blobs behind handles and returns how
// many were removed. Non-blob handles are skipped and delete failures are
// logged. Cleanup still runs after ctx is cancelled.
func ReleaseImages(ctx context.Context, blobs ports.ObjectStorage, handles []domain.ImageHandle) int {
	if blobs == nil {
		return 0
	}
	ctx = context.WithoutCancel(ctx)
	released := 0
	for _, handle := range handles {
		key, ok := handle.BlobKey()
		if !ok {
			continue
		}
		if err := blobs.Delete(ctx, key); err != nil {
			slog.Warn("image_blob_delete_failed", "key", key, "error", err)
			continue
		}
		released++
	}
	return released
}
