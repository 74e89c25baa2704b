package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirillkom/haiku-studio/internal/config"
	"github.com/kirillkom/haiku-studio/internal/core/ports"
	"github.com/kirillkom/haiku-studio/internal/infrastructure/llm/gemini"
	"github.com/kirillkom/haiku-studio/internal/infrastructure/llm/huggingface"
	"github.com/kirillkom/haiku-studio/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/haiku-studio/internal/infrastructure/llm/openai"
	"github.com/kirillkom/haiku-studio/internal/infrastructure/resilience"
	"github.com/kirillkom/haiku-studio/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/haiku-studio/internal/infrastructure/storage/s3"
)

const (
	ProviderHuggingFace = "huggingface"
	ProviderOllama      = "ollama"
	ProviderOpenAI      = "openai"
	ProviderGemini      = "gemini"
	ProviderNone        = "none"
)

type providerSet struct {
	text  ports.TextCompleter
	image ports.ImageRenderer
}

// newProviders resolves TEXT_PROVIDER and IMAGE_PROVIDER. Clients that serve
// both capabilities are built once. IMAGE_PROVIDER=none leaves image nil so
// every run resolves illustration to an empty handle.
func newProviders(ctx context.Context, cfg config.Config, executor *resilience.Executor) (providerSet, error) {
	var (
		hf     *huggingface.Client
		oa     *openai.Client
		gm     *gemini.Client
		gmErr  error
		gmOnce bool
	)
	huggingFace := func() *huggingface.Client {
		if hf == nil {
			hf = huggingface.New(cfg.HFAPIURL, cfg.HFAPIToken, cfg.StageTimeout, executor)
		}
		return hf
	}
	openAI := func() *openai.Client {
		if oa == nil {
			oa = openai.New(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAITextModel, cfg.OpenAIImageModel, executor)
		}
		return oa
	}
	geminiClient := func() (*gemini.Client, error) {
		if !gmOnce {
			gmOnce = true
			gm, gmErr = gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiTextModel, cfg.GeminiImageModel, executor)
		}
		return gm, gmErr
	}

	var set providerSet
	switch strings.ToLower(cfg.TextProvider) {
	case ProviderHuggingFace, "":
		set.text = huggingface.NewTextModel(huggingFace(), cfg.HFTextModel)
	case ProviderOllama:
		set.text = ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.StageTimeout, executor)
	case ProviderOpenAI:
		set.text = openAI()
	case ProviderGemini:
		client, err := geminiClient()
		if err != nil {
			return providerSet{}, fmt.Errorf("init gemini client: %w", err)
		}
		set.text = client
	default:
		return providerSet{}, fmt.Errorf("unknown text provider %q", cfg.TextProvider)
	}

	switch strings.ToLower(cfg.ImageProvider) {
	case ProviderHuggingFace, "":
		set.image = huggingface.NewImageModel(huggingFace(), cfg.HFImageModel)
	case ProviderOpenAI:
		set.image = openAI()
	case ProviderGemini:
		client, err := geminiClient()
		if err != nil {
			return providerSet{}, fmt.Errorf("init gemini client: %w", err)
		}
		set.image = client
	case ProviderNone:
	default:
		return providerSet{}, fmt.Errorf("unknown image provider %q", cfg.ImageProvider)
	}
	return set, nil
}

func newBlobStore(ctx context.Context, cfg config.Config) (ports.ObjectStorage, error) {
	switch strings.ToLower(cfg.BlobBackend) {
	case "localfs", "":
		return localfs.New(cfg.StoragePath)
	case "s3":
		return s3.New(ctx, s3.Options{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
			Prefix:   cfg.S3Prefix,
		})
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}
}
