package httpadapter

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gabriel-vasile/mimetype"

	"github.com/kirillkom/haiku-studio/internal/core/domain"
)

// getImage streams a transient illustration so a client can render a blob
// handle before the haiku is saved.
func (rt *Router) getImage(w http.ResponseWriter, r *http.Request) {
	if rt.deps.Blobs == nil {
		writeError(w, r, domain.WrapError(domain.ErrNotFound, "get image", errors.New("image storage is not configured")))
		return
	}
	body, err := rt.deps.Blobs.Open(r.Context(), r.PathValue("key"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer body.Close()

	reader := bufio.NewReader(body)
	head, _ := reader.Peek(512)
	w.Header().Set("Content-Type", mimetype.Detect(head).String())
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, reader); err != nil {
		slog.Warn("image_stream_failed", "request_id", requestIDFromContext(r.Context()), "error", err)
	}
}
