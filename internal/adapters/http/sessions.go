package httpadapter

import (
	"errors"
	"net/http"
	"time"

	"github.com/kirillkom/haiku-studio/internal/core/domain"
	"github.com/kirillkom/haiku-studio/internal/core/usecase"
)

type sessionResponse struct {
	ID        string               `json:"id"`
	CreatedAt time.Time            `json:"created_at"`
	State     domain.PipelineState `json:"state"`
}

// stateErrorResponse carries the pipeline state next to the error so a
// client can keep rendering the Ready payload after a failed save.
type stateErrorResponse struct {
	Error string               `json:"error"`
	State domain.PipelineState `json:"state"`
}

func newSessionResponse(session *usecase.Session, state domain.PipelineState) sessionResponse {
	return sessionResponse{ID: session.ID, CreatedAt: session.CreatedAt, State: state}
}

func (rt *Router) createSession(w http.ResponseWriter, _ *http.Request) {
	session := rt.deps.Sessions.Create()
	rt.reportSessions()
	writeJSON(w, http.StatusCreated, newSessionResponse(session, session.Pipeline.State()))
}

func (rt *Router) getSession(w http.ResponseWriter, r *http.Request) {
	session, err := rt.deps.Sessions.Get(r.PathValue("session_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(session, session.Pipeline.State()))
}

func (rt *Router) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := rt.deps.Sessions.Delete(r.Context(), r.PathValue("session_id")); err != nil {
		writeError(w, r, err)
		return
	}
	rt.reportSessions()
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) submitWord(w http.ResponseWriter, r *http.Request) {
	session, err := rt.deps.Sessions.Get(r.PathValue("session_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req domain.GenerationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	state, err := session.Pipeline.Submit(r.Context(), req.Word)
	if err != nil {
		writeStateError(w, r, err, state)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(session, state))
}

func (rt *Router) saveSession(w http.ResponseWriter, r *http.Request) {
	session, err := rt.deps.Sessions.Get(r.PathValue("session_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	state, err := session.Pipeline.Save(r.Context())
	if err != nil {
		writeStateError(w, r, err, state)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(session, state))
}

func writeStateError(w http.ResponseWriter, r *http.Request, err error, state domain.PipelineState) {
	if errors.Is(err, domain.ErrInvalidInput) {
		writeError(w, r, err)
		return
	}
	writeJSON(w, mapErrorToHTTPStatus(err), stateErrorResponse{Error: err.Error(), State: state})
}

func (rt *Router) reportSessions() {
	if rt.deps.Metrics != nil {
		rt.deps.Metrics.SetActiveSessions(rt.deps.Sessions.Len())
	}
}
