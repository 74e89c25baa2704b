package haikustore

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/haiku-studio/internal/core/domain"
)

type blobsFake map[string][]byte

func (f blobsFake) Save(_ context.Context, key string, data io.Reader) error {
	raw, err := io.ReadAll(data)
	f[key] = raw
	return err
}

func (f blobsFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	raw, ok := f[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (f blobsFake) Delete(_ context.Context, key string) error {
	delete(f, key)
	return nil
}

var png = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestSaveResolvesBlobIntoDataURL(t *testing.T) {
	var got domain.NewArtifact
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/haikus" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	client := New(server.URL+"/api/", time.Second, blobsFake{"k.png": png})
	ok := client.Save(context.Background(), "frog", domain.LanguageEnglish, domain.Haiku{"a", "b", "c"}, domain.NewBlobHandle("k.png"))
	if !ok {
		t.Fatalf("expected save to succeed")
	}
	if got.HaikuText != "a\nb\nc" || got.Language != domain.LanguageEnglish || got.InputWord != "frog" {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if !strings.HasPrefix(got.ImageData, "data:image/png;base64,") {
		t.Fatalf("expected png data url, got %q", got.ImageData)
	}
}

func TestSavePassesEmptyAndInlineImagesThrough(t *testing.T) {
	var images []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body domain.NewArtifact
		_ = json.NewDecoder(r.Body).Decode(&body)
		images = append(images, body.ImageData)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := New(server.URL, time.Second, nil)
	for _, image := range []domain.ImageHandle{"", "data:image/jpeg;base64,AAAA"} {
		if !client.Save(context.Background(), "frog", domain.LanguageEnglish, domain.Haiku{"a", "b", "c"}, image) {
			t.Fatalf("expected save of %q to succeed", image)
		}
	}
	if images[0] != "" || images[1] != "data:image/jpeg;base64,AAAA" {
		t.Fatalf("unexpected images: %v", images)
	}
}

func TestSaveReportsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Missing required fields"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	client := New(server.URL, time.Second, blobsFake{})
	if client.Save(context.Background(), "frog", domain.LanguageEnglish, domain.Haiku{"a"}, "") {
		t.Fatalf("expected rejected save to report false")
	}
	if client.Save(context.Background(), "frog", domain.LanguageEnglish, domain.Haiku{"a"}, domain.NewBlobHandle("missing")) {
		t.Fatalf("expected unresolved blob to report false")
	}
}

func TestSaveUnreachableBackend(t *testing.T) {
	client := New("http://127.0.0.1:1", 200*time.Millisecond, nil)
	if client.Save(context.Background(), "frog", domain.LanguageEnglish, domain.Haiku{"a", "b", "c"}, "") {
		t.Fatalf("expected unreachable backend to report false")
	}
}

func TestListDecodesArtifactsAndDegrades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":7,"input_word":"frog","language":"en","haiku_text":"a\nb\nc","image_data":"","created_at":"2026-04-18T09:00:00Z"}]`))
	}))
	items := New(server.URL, time.Second, nil).List(context.Background())
	server.Close()
	if len(items) != 1 || items[0].ID != 7 || items[0].InputWord != "frog" {
		t.Fatalf("unexpected items: %+v", items)
	}

	degraded := New("http://127.0.0.1:1", 200*time.Millisecond, nil).List(context.Background())
	if degraded == nil || len(degraded) != 0 {
		t.Fatalf("expected empty non-nil list, got %v", degraded)
	}
}

func TestEncodeDataURLStripsCharset(t *testing.T) {
	got := EncodeDataURL([]byte("plain text"))
	if !strings.HasPrefix(got, "data:text/plain;base64,") {
		t.Fatalf("unexpected data url %q", got)
	}
}
