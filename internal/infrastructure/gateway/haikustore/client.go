// Package haikustore is the client side of the storage backend's /haikus API.
package haikustore

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/kirillkom/haiku-studio/internal/core/domain"
	"github.com/kirillkom/haiku-studio/internal/core/ports"
	"github.com/kirillkom/haiku-studio/internal/infrastructure/httpjson"
)

const (
	service        = "haikustore"
	DefaultBaseURL = "http://localhost:8080/api"
)

// Client submits artifacts to the storage backend. It never returns errors:
// Save reports success as a bool and List degrades to an empty slice.
type Client struct {
	baseURL    string
	httpClient *http.Client
	blobs      ports.ObjectStorage
}

func New(baseURL string, timeout time.Duration, blobs ports.ObjectStorage) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		blobs:      blobs,
	}
}

func (c *Client) Save(ctx context.Context, word string, language domain.Language, haiku domain.Haiku, image domain.ImageHandle) bool {
	imageData, err := c.resolveImage(ctx, image)
	if err != nil {
		slog.Error("haiku_save_failed", "word", word, "stage", "resolve_image", "error", err)
		return false
	}

	payload := domain.NewArtifact{
		InputWord: word,
		Language:  language,
		HaikuText: haiku.Text(),
		ImageData: imageData,
	}
	if _, err := httpjson.PostJSON(ctx, c.httpClient, service, "create", c.baseURL+"/haikus", nil, payload); err != nil {
		slog.Error("haiku_save_failed", "word", word, "stage", "submit", "error", err)
		return false
	}
	return true
}

func (c *Client) List(ctx context.Context) []domain.StoredArtifact {
	raw, err := httpjson.Get(ctx, c.httpClient, service, "list", c.baseURL+"/haikus", nil)
	if err != nil {
		slog.Error("haiku_list_failed", "error", err)
		return []domain.StoredArtifact{}
	}
	var items []domain.StoredArtifact
	if err := json.Unmarshal(raw, &items); err != nil {
		slog.Error("haiku_list_failed", "error", fmt.Errorf("decode list: %w", err))
		return []domain.StoredArtifact{}
	}
	if items == nil {
		items = []domain.StoredArtifact{}
	}
	return items
}

// resolveImage turns a transient blob handle into a self-describing data URL.
// Other handles are already storable and pass through unchanged.
func (c *Client) resolveImage(ctx context.Context, image domain.ImageHandle) (string, error) {
	key, ok := image.BlobKey()
	if !ok {
		return string(image), nil
	}
	if c.blobs == nil {
		return "", fmt.Errorf("no blob store to resolve %s", image)
	}
	rc, err := c.blobs.Open(ctx, key)
	if err != nil {
		return "", fmt.Errorf("open blob %s: %w", key, err)
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read blob %s: %w", key, err)
	}
	return EncodeDataURL(raw), nil
}

// EncodeDataURL renders bytes as data:<mime>;base64,<payload>.
func EncodeDataURL(raw []byte) string {
	mime := mimetype.Detect(raw).String()
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(raw)
}
