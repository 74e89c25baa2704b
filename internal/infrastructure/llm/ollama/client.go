package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/haiku-studio/internal/core/domain"
	"github.com/kirillkom/haiku-studio/internal/infrastructure/httpjson"
	"github.com/kirillkom/haiku-studio/internal/infrastructure/resilience"
)

const service = "ollama"

// Client completes prompts against a local Ollama server.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, model string, timeout time.Duration, executor *resilience.Executor) *Client {
	if executor == nil {
		executor = resilience.NewExecutor(resilience.Config{Enabled: false})
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		executor:   executor,
	}
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature"`
}

func (c *Client) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	payload := generateRequest{
		Model:  c.model,
		Prompt: req.Prompt,
		Options: generateOptions{
			NumPredict:  req.MaxTokens,
			Temperature: req.Temperature,
		},
	}

	var response struct {
		Response string `json:"response"`
	}
	err := c.executor.Execute(ctx, "ollama.generate", func(callCtx context.Context) error {
		raw, err := httpjson.PostJSON(callCtx, c.httpClient, service, "generate", c.baseURL+"/api/generate", nil, payload)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(raw, &response); err != nil {
			return fmt.Errorf("decode generate response: %w", err)
		}
		return nil
	}, httpjson.CountsAgainstBreaker)
	if err != nil {
		return "", httpjson.WrapTemporary("ollama generate", err)
	}
	return strings.TrimSpace(response.Response), nil
}
