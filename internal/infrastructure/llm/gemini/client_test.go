package gemini

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"google.golang.org/genai"

	"github.com/kirillkom/haiku-studio/internal/core/domain"
	"github.com/kirillkom/haiku-studio/internal/infrastructure/resilience"
)

type modelsFake struct {
	contentCfg *genai.GenerateContentConfig
	imageCfg   *genai.GenerateImagesConfig
	text       string
	image      []byte
	err        error
}

func (f *modelsFake) GenerateContent(_ context.Context, _ string, _ []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.contentCfg = cfg
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText(f.text, genai.RoleModel)}},
	}, nil
}

func (f *modelsFake) GenerateImages(_ context.Context, _ string, _ string, cfg *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error) {
	f.imageCfg = cfg
	if f.err != nil {
		return nil, f.err
	}
	if f.image == nil {
		return &genai.GenerateImagesResponse{}, nil
	}
	return &genai.GenerateImagesResponse{
		GeneratedImages: []*genai.GeneratedImage{{Image: &genai.Image{ImageBytes: f.image}}},
	}, nil
}

func newTestClient(fake *modelsFake) *Client {
	return &Client{
		models:     fake,
		textModel:  DefaultTextModel,
		imageModel: DefaultImageModel,
		executor:   resilience.NewExecutor(resilience.Config{Enabled: false}),
	}
}

func TestCompleteReturnsCandidateText(t *testing.T) {
	fake := &modelsFake{text: " jp "}
	got, err := newTestClient(fake).Complete(context.Background(), domain.CompletionRequest{Prompt: "x", MaxTokens: 10, Temperature: 0.1})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "jp" {
		t.Fatalf("unexpected text %q", got)
	}
	if fake.contentCfg.MaxOutputTokens != 10 || *fake.contentCfg.Temperature != float32(0.1) {
		t.Fatalf("unexpected config: %+v", fake.contentCfg)
	}
}

func TestCompleteMarksServerErrorsTemporary(t *testing.T) {
	fake := &modelsFake{err: genai.APIError{Code: http.StatusServiceUnavailable, Message: "overloaded"}}
	if _, err := newTestClient(fake).Complete(context.Background(), domain.CompletionRequest{Prompt: "x"}); !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}
}

func TestRenderReturnsImageBytes(t *testing.T) {
	fake := &modelsFake{image: []byte("img")}
	got, err := newTestClient(fake).Render(context.Background(), domain.ImageRequest{Prompt: "pond", NegativePrompt: "text", GuidanceScale: 7})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !bytes.Equal(got, []byte("img")) {
		t.Fatalf("unexpected bytes %q", got)
	}
	if fake.imageCfg.NegativePrompt != "text" || fake.imageCfg.NumberOfImages != 1 || *fake.imageCfg.GuidanceScale != 7 {
		t.Fatalf("unexpected config: %+v", fake.imageCfg)
	}
}

func TestRenderWithoutImagesFails(t *testing.T) {
	if _, err := newTestClient(&modelsFake{}).Render(context.Background(), domain.ImageRequest{Prompt: "pond"}); err == nil {
		t.Fatalf("expected error")
	}
}
