package httpadapter

import (
	"errors"
	"net/http"

	"github.com/kirillkom/haiku-studio/internal/core/domain"
)

type batchRequest struct {
	Words []string `json:"words"`
}

type batchResponse struct {
	Accepted int `json:"accepted"`
}

func (rt *Router) enqueueBatch(w http.ResponseWriter, r *http.Request) {
	if rt.deps.Batch == nil {
		writeError(w, r, domain.WrapError(domain.ErrTemporary, "enqueue batch", errors.New("batch queue is not configured")))
		return
	}
	var req batchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	accepted, err := rt.deps.Batch.Enqueue(r.Context(), req.Words)
	if rt.deps.Metrics != nil && accepted > 0 {
		rt.deps.Metrics.RecordBatchEnqueued(serviceName, accepted)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, batchResponse{Accepted: accepted})
}
