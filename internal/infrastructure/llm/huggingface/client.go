// Package huggingface talks to the Hugging Face hosted inference API for both
// text completion and text-to-image rendering.
package huggingface

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/haiku-studio/internal/core/domain"
	"github.com/kirillkom/haiku-studio/internal/infrastructure/httpjson"
	"github.com/kirillkom/haiku-studio/internal/infrastructure/resilience"
)

const (
	service        = "huggingface"
	DefaultBaseURL = "https://api-inference.huggingface.co/models"
)

var errEmptyGeneration = errors.New("huggingface returned no generations")

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, token string, timeout time.Duration, executor *resilience.Executor) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if executor == nil {
		executor = resilience.NewExecutor(resilience.Config{Enabled: false})
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		executor:   executor,
	}
}

func (c *Client) modelURL(model string) string {
	return c.baseURL + "/" + strings.TrimLeft(model, "/")
}

func (c *Client) header() http.Header {
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	return header
}

func (c *Client) post(ctx context.Context, operation, model string, payload any) ([]byte, error) {
	var raw []byte
	err := c.executor.Execute(ctx, "huggingface."+operation, func(callCtx context.Context) error {
		var err error
		raw, err = httpjson.PostJSON(callCtx, c.httpClient, service, operation, c.modelURL(model), c.header(), payload)
		return err
	}, httpjson.CountsAgainstBreaker)
	if err != nil {
		return nil, httpjson.WrapTemporary("huggingface "+operation, err)
	}
	return raw, nil
}

// TextModel completes prompts with one hosted text-generation model.
type TextModel struct {
	client *Client
	model  string
}

func NewTextModel(client *Client, model string) *TextModel {
	return &TextModel{client: client, model: model}
}

type textRequest struct {
	Inputs     string         `json:"inputs"`
	Parameters textParameters `json:"parameters"`
}

type textParameters struct {
	MaxNewTokens int     `json:"max_new_tokens"`
	Temperature  float64 `json:"temperature"`
}

// Complete returns the first generated_text. The hosted API may echo the
// prompt in front of the generation; callers strip it.
func (m *TextModel) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	raw, err := m.client.post(ctx, "generate", m.model, textRequest{
		Inputs: req.Prompt,
		Parameters: textParameters{
			MaxNewTokens: req.MaxTokens,
			Temperature:  req.Temperature,
		},
	})
	if err != nil {
		return "", err
	}

	var generations []struct {
		GeneratedText string `json:"generated_text"`
	}
	if err := json.Unmarshal(raw, &generations); err != nil {
		return "", fmt.Errorf("decode huggingface generation: %w", err)
	}
	if len(generations) == 0 {
		return "", errEmptyGeneration
	}
	return generations[0].GeneratedText, nil
}

// ImageModel renders images with one hosted text-to-image model.
type ImageModel struct {
	client *Client
	model  string
}

func NewImageModel(client *Client, model string) *ImageModel {
	return &ImageModel{client: client, model: model}
}

type imageRequest struct {
	Inputs     string          `json:"inputs"`
	Parameters imageParameters `json:"parameters"`
}

type imageParameters struct {
	NegativePrompt    string  `json:"negative_prompt,omitempty"`
	GuidanceScale     float64 `json:"guidance_scale,omitempty"`
	NumInferenceSteps int     `json:"num_inference_steps,omitempty"`
}

// Render returns the raw image bytes of the response body.
func (m *ImageModel) Render(ctx context.Context, req domain.ImageRequest) ([]byte, error) {
	return m.client.post(ctx, "render", m.model, imageRequest{
		Inputs: req.Prompt,
		Parameters: imageParameters{
			NegativePrompt:    req.NegativePrompt,
			GuidanceScale:     req.GuidanceScale,
			NumInferenceSteps: req.Steps,
		},
	})
}
