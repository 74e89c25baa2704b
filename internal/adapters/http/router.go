package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/kirillkom/haiku-studio/internal/config"
	"github.com/kirillkom/haiku-studio/internal/core/domain"
	"github.com/kirillkom/haiku-studio/internal/core/ports"
	"github.com/kirillkom/haiku-studio/internal/core/usecase"
	"github.com/kirillkom/haiku-studio/internal/observability/metrics"
)

const serviceName = "api"

// Dependencies are the use cases the router serves. Store, Batch and Metrics
// may be nil; their routes then answer 503 or are not mounted.
type Dependencies struct {
	Sessions *usecase.SessionRegistry
	Store    ports.ArtifactStore
	Batch    ports.BatchEnqueuer
	Blobs    ports.ObjectStorage
	Metrics  *metrics.HTTPServerMetrics
}

type Router struct {
	cfg  config.Config
	deps Dependencies
}

func NewRouter(cfg config.Config, deps Dependencies) *Router {
	return &Router{cfg: cfg, deps: deps}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)

	mux.HandleFunc("POST /v1/sessions", rt.createSession)
	mux.HandleFunc("GET /v1/sessions/{session_id}", rt.getSession)
	mux.HandleFunc("DELETE /v1/sessions/{session_id}", rt.deleteSession)
	mux.HandleFunc("POST /v1/sessions/{session_id}/submit", rt.submitWord)
	mux.HandleFunc("POST /v1/sessions/{session_id}/save", rt.saveSession)
	mux.HandleFunc("GET /v1/images/{key}", rt.getImage)
	mux.HandleFunc("POST /v1/batch", rt.enqueueBatch)

	mux.HandleFunc("GET /api", rt.storeIndex)
	mux.HandleFunc("GET /api/haikus", rt.listHaikus)
	mux.HandleFunc("POST /api/haikus", rt.createHaiku)
	mux.HandleFunc("GET /api/health", rt.storeHealth)

	if rt.deps.Metrics != nil {
		mux.Handle("GET /metrics", rt.deps.Metrics.Handler())
	}

	var handler http.Handler = mux
	validator, err := newRequestValidator()
	if err != nil {
		slog.Error("openapi_validator_disabled", "error", err)
	} else {
		handler = validator.middleware(handler)
	}
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, rt.cfg.APIMaxWait)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	if rt.deps.Metrics != nil {
		handler = rt.deps.Metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("http_handler_error", "request_id", requestIDFromContext(r.Context()), "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "decode request", err)
	}
	return nil
}

const maxBodyBytes = 8 << 20
