package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/kirillkom/haiku-studio/internal/core/domain"
	"github.com/kirillkom/haiku-studio/internal/core/ports"
)

// MaxListLimit caps an explicit page size. A non-positive limit lists everything.
const MaxListLimit = 1000

// StoreUseCase is the storage backend: it validates incoming artifacts and
// assigns their identity through the repository.
type StoreUseCase struct {
	repo ports.ArtifactRepository
	now  func() time.Time
}

func NewStoreUseCase(repo ports.ArtifactRepository) *StoreUseCase {
	return &StoreUseCase{repo: repo, now: time.Now}
}

func (uc *StoreUseCase) Create(ctx context.Context, in domain.NewArtifact) (*domain.StoredArtifact, error) {
	artifact := &domain.StoredArtifact{
		InputWord: strings.TrimSpace(in.InputWord),
		Language:  domain.Language(strings.TrimSpace(string(in.Language))),
		HaikuText: strings.TrimSpace(in.HaikuText),
		ImageData: in.ImageData,
		CreatedAt: uc.now().UTC(),
	}
	if artifact.InputWord == "" || artifact.HaikuText == "" || artifact.Language == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create haiku", errors.New("input_word, language and haiku_text are required"))
	}
	if !artifact.Language.Valid() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create haiku", errors.New("language must be en or jp"))
	}
	if err := uc.repo.Create(ctx, artifact); err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "create haiku", err)
	}
	return artifact, nil
}

// List returns the newest artifacts first. A non-positive limit returns all of them.
func (uc *StoreUseCase) List(ctx context.Context, limit int) ([]domain.StoredArtifact, error) {
	if limit < 0 {
		limit = 0
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	items, err := uc.repo.List(ctx, limit)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "list haikus", err)
	}
	return items, nil
}

func (uc *StoreUseCase) Healthy(ctx context.Context) bool {
	return uc.repo.Ping(ctx) == nil
}
