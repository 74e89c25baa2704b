package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/kirillkom/haiku-studio/internal/core/domain"
	"github.com/kirillkom/haiku-studio/internal/core/ports"
	"github.com/kirillkom/haiku-studio/internal/core/prompt"
)

const (
	illustrationGuidanceScale = 7
	illustrationSteps         = 30
)

var (
	errIllustrationDisabled = errors.New("no image backend configured")
	errEmptyImage           = errors.New("image backend returned no bytes")
)

// HaikuIllustrator renders a haiku into an image and parks the bytes in the
// blob store. Any failure resolves to an empty handle.
type HaikuIllustrator struct {
	renderer ports.ImageRenderer
	blobs    ports.ObjectStorage
	newKey   func() string
}

// NewHaikuIllustrator accepts a nil renderer; every run then yields an empty handle.
func NewHaikuIllustrator(renderer ports.ImageRenderer, blobs ports.ObjectStorage) *HaikuIllustrator {
	return &HaikuIllustrator{
		renderer: renderer,
		blobs:    blobs,
		newKey:   uuid.NewString,
	}
}

func (i *HaikuIllustrator) Illustrate(ctx context.Context, haiku domain.Haiku) domain.Outcome[domain.ImageHandle] {
	handle, err := i.render(ctx, haiku)
	if err != nil {
		slog.Warn("stage_fallback",
			"stage", domain.StageIllustrate,
			"outcome", domain.OutcomeEmpty,
			"error", err,
		)
		return domain.Recovered(domain.ImageHandle(""), domain.OutcomeEmpty, err)
	}
	return domain.Succeeded(handle)
}

func (i *HaikuIllustrator) render(ctx context.Context, haiku domain.Haiku) (domain.ImageHandle, error) {
	if i.renderer == nil || i.blobs == nil {
		return "", errIllustrationDisabled
	}
	text, negative := prompt.Illustration(haiku)
	data, err := i.renderer.Render(ctx, domain.ImageRequest{
		Prompt:         text,
		NegativePrompt: negative,
		GuidanceScale:  illustrationGuidanceScale,
		Steps:          illustrationSteps,
	})
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", errEmptyImage
	}

	key := i.newKey() + mimetype.Detect(data).Extension()
	if err := i.blobs.Save(ctx, key, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("store illustration %s: %w", key, err)
	}
	return domain.NewBlobHandle(key), nil
}
