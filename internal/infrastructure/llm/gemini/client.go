// Package gemini adapts Google's Gemini and Imagen models to the pipeline's
// text and image backends.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/kirillkom/haiku-studio/internal/core/domain"
	"github.com/kirillkom/haiku-studio/internal/infrastructure/resilience"
)

const (
	DefaultTextModel  = "gemini-2.0-flash"
	DefaultImageModel = "imagen-3.0-generate-002"
)

var errNoImage = errors.New("gemini returned no image")

type models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateImages(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

type Client struct {
	models     models
	textModel  string
	imageModel string
	executor   *resilience.Executor
}

func New(ctx context.Context, apiKey, textModel, imageModel string, executor *resilience.Executor) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if textModel == "" {
		textModel = DefaultTextModel
	}
	if imageModel == "" {
		imageModel = DefaultImageModel
	}
	if executor == nil {
		executor = resilience.NewExecutor(resilience.Config{Enabled: false})
	}
	return &Client{
		models:     client.Models,
		textModel:  textModel,
		imageModel: imageModel,
		executor:   executor,
	}, nil
}

func (c *Client) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	var resp *genai.GenerateContentResponse
	err := c.executor.Execute(ctx, "gemini.generate", func(callCtx context.Context) error {
		var err error
		resp, err = c.models.GenerateContent(callCtx, c.textModel, genai.Text(req.Prompt), &genai.GenerateContentConfig{
			Temperature:     genai.Ptr(float32(req.Temperature)),
			MaxOutputTokens: int32(req.MaxTokens),
		})
		return err
	}, countsAgainstBreaker)
	if err != nil {
		return "", wrapTemporary("gemini generate", err)
	}
	return strings.TrimSpace(resp.Text()), nil
}

func (c *Client) Render(ctx context.Context, req domain.ImageRequest) ([]byte, error) {
	cfg := &genai.GenerateImagesConfig{
		NegativePrompt: req.NegativePrompt,
		NumberOfImages: 1,
	}
	if req.GuidanceScale > 0 {
		cfg.GuidanceScale = genai.Ptr(float32(req.GuidanceScale))
	}

	var resp *genai.GenerateImagesResponse
	err := c.executor.Execute(ctx, "gemini.image", func(callCtx context.Context) error {
		var err error
		resp, err = c.models.GenerateImages(callCtx, c.imageModel, req.Prompt, cfg)
		return err
	}, countsAgainstBreaker)
	if err != nil {
		return nil, wrapTemporary("gemini image", err)
	}
	if resp == nil || len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return nil, errNoImage
	}
	return resp.GeneratedImages[0].Image.ImageBytes, nil
}

func countsAgainstBreaker(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return serverSide(apiErr.Code)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return serverSide(apiErrPtr.Code)
	}
	return true
}

func serverSide(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func wrapTemporary(operation string, err error) error {
	if countsAgainstBreaker(err) || resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}
