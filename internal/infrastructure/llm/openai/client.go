// Package openai adapts the OpenAI chat and image APIs to the pipeline's
// text and image backends.
package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/kirillkom/haiku-studio/internal/core/domain"
	"github.com/kirillkom/haiku-studio/internal/infrastructure/resilience"
)

var (
	errNoChoices = errors.New("openai returned no choices")
	errNoImage   = errors.New("openai returned no image data")
)

type api interface {
	CreateChatCompletion(ctx context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error)
	CreateImage(ctx context.Context, req goopenai.ImageRequest) (goopenai.ImageResponse, error)
}

type Client struct {
	api        api
	textModel  string
	imageModel string
	executor   *resilience.Executor
}

// New builds a client for apiKey. baseURL may point at any OpenAI compatible
// endpoint; empty keeps the SDK default.
func New(apiKey, baseURL, textModel, imageModel string, executor *resilience.Executor) *Client {
	cfg := goopenai.DefaultConfig(apiKey)
	if strings.TrimSpace(baseURL) != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if executor == nil {
		executor = resilience.NewExecutor(resilience.Config{Enabled: false})
	}
	if textModel == "" {
		textModel = goopenai.GPT4oMini
	}
	if imageModel == "" {
		imageModel = goopenai.CreateImageModelDallE3
	}
	return &Client{
		api:        goopenai.NewClientWithConfig(cfg),
		textModel:  textModel,
		imageModel: imageModel,
		executor:   executor,
	}
}

func (c *Client) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	var resp goopenai.ChatCompletionResponse
	err := c.executor.Execute(ctx, "openai.chat", func(callCtx context.Context) error {
		var err error
		resp, err = c.api.CreateChatCompletion(callCtx, goopenai.ChatCompletionRequest{
			Model: c.textModel,
			Messages: []goopenai.ChatCompletionMessage{
				{Role: goopenai.ChatMessageRoleUser, Content: req.Prompt},
			},
			MaxTokens:   req.MaxTokens,
			Temperature: float32(req.Temperature),
		})
		return err
	}, countsAgainstBreaker)
	if err != nil {
		return "", wrapTemporary("openai chat", err)
	}
	if len(resp.Choices) == 0 {
		return "", errNoChoices
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Render asks for a single base64 encoded image. The API has no negative
// prompt, so the constraint is appended to the prompt text.
func (c *Client) Render(ctx context.Context, req domain.ImageRequest) ([]byte, error) {
	prompt := req.Prompt
	if req.NegativePrompt != "" {
		prompt += " Avoid: " + req.NegativePrompt + "."
	}

	var resp goopenai.ImageResponse
	err := c.executor.Execute(ctx, "openai.image", func(callCtx context.Context) error {
		var err error
		resp, err = c.api.CreateImage(callCtx, goopenai.ImageRequest{
			Prompt:         prompt,
			Model:          c.imageModel,
			N:              1,
			Size:           goopenai.CreateImageSize1024x1024,
			ResponseFormat: goopenai.CreateImageResponseFormatB64JSON,
		})
		return err
	}, countsAgainstBreaker)
	if err != nil {
		return nil, wrapTemporary("openai image", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, errNoImage
	}
	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decode openai image: %w", err)
	}
	return data, nil
}

func countsAgainstBreaker(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return serverSide(apiErr.HTTPStatusCode)
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return serverSide(reqErr.HTTPStatusCode)
	}
	return true
}

func wrapTemporary(operation string, err error) error {
	if countsAgainstBreaker(err) || resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}

func serverSide(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}
